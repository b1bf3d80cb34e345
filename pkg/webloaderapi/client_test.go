package webloaderapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(srv.URL, 0, srv.Client())
}

func TestClient_DockerStatus(t *testing.T) {
	cli := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/docker/status", r.URL.Path)
		_, _ = io.WriteString(w, `{
			"docker_available": true,
			"services": {
				"mysql": {"name": "mysql", "status": "running", "running": true, "id": "4f2a"},
				"spark": {"name": "spark", "status": "not_found", "running": false}
			},
			"timestamp": "2024-05-01T10:20:30.123456"
		}`)
	})

	status, err := cli.DockerStatus(context.Background())
	require.NoError(t, err)

	assert.True(t, status.DockerAvailable)
	assert.Len(t, status.Services, 2)
	assert.True(t, status.Services["mysql"].Running)
	assert.Equal(t, "4f2a", status.Services["mysql"].ID)
	assert.Equal(t, "not_found", status.Services["spark"].Status)

	expected := time.Date(2024, 5, 1, 10, 20, 30, 123456000, time.Local)
	assert.True(t, expected.Equal(status.Timestamp.Time))
}

func TestClient_Query_KeepsColumnOrder(t *testing.T) {
	cli := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success": true, "data": [
			{"url": "https://a.example", "page_title": "A", "quantity": 12},
			{"url": "https://b.example", "page_title": null, "quantity": 7.5}
		]}`)
	})

	res, err := cli.Query(context.Background(), "/api/analysis/word/data", nil)
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Len(t, res.Data, 2)

	assert.Equal(t, []string{"url", "page_title", "quantity"}, res.Data[0].Keys())

	title, ok := res.Data[1].Get("page_title")
	require.True(t, ok)
	assert.True(t, title.Null)

	qty, _ := res.Data[1].Get("quantity")
	assert.Equal(t, "7.5", qty.Text)

	encoded, err := json.Marshal(res.Data[0])
	require.NoError(t, err)
	assert.Equal(t, `{"url":"https://a.example","page_title":"A","quantity":12}`, string(encoded))
}

func TestClient_Query_EscapedPath(t *testing.T) {
	var requestURI string
	cli := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requestURI = r.RequestURI
		_, _ = io.WriteString(w, `{"success": true, "data": []}`)
	})

	_, err := cli.Query(context.Background(), "/api/analysis/word/"+url.PathEscape("a/b c"), url.Values{"x": []string{"1"}})
	require.NoError(t, err)

	assert.Equal(t, "/api/analysis/word/a%2Fb%20c?x=1", requestURI)
}

func TestClient_Query_Results(t *testing.T) {
	cases := []struct {
		name     string
		body     string
		success  bool
		errorMsg string
		rows     int
	}{
		{name: "envelope", body: `{"success": true, "data": [{"a": 1}]}`, success: true, rows: 1},
		{name: "empty data", body: `{"success": true, "data": []}`, success: true, rows: 0},
		{name: "null data", body: `{"success": true, "data": null}`, success: true, rows: 0},
		{name: "bare array", body: `[{"a": 1}, {"a": 2}]`, success: true, rows: 2},
		{name: "error field", body: `{"success": true, "error": "unknown word"}`, success: false, errorMsg: "unknown word"},
		{name: "success false", body: `{"success": false}`, success: false},
		{name: "plain object", body: `{"url": "https://a.example", "link_count": 3}`, success: true, rows: 1},
		{name: "scalars", body: `{"success": true, "data": ["big", "data"]}`, success: true, rows: 2},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cli := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, tc.body)
			})

			res, err := cli.Query(context.Background(), "/api/analysis/word/x", nil)
			require.NoError(t, err)

			assert.Equal(t, tc.success, res.Success)
			assert.Equal(t, tc.errorMsg, res.Error)
			assert.Len(t, res.Data, tc.rows)
		})
	}
}

func TestClient_NonSuccessfulStatus(t *testing.T) {
	cli := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error": "Tipo de análisis requerido"}`)
	})

	_, err := cli.SubmitAnalysis(context.Background(), map[string]string{})
	require.Error(t, err)

	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Tipo de análisis requerido", apiErr.Message)
	assert.False(t, IsTransportError(err))
}

func TestClient_NonSuccessfulStatusWithoutBody(t *testing.T) {
	cli := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := cli.Query(context.Background(), "/api/analysis/word/x", nil)
	require.Error(t, err)

	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Empty(t, apiErr.Message)
	assert.Contains(t, apiErr.Error(), "502")
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	cli := NewClient(srv.URL, 0)

	_, err := cli.DockerStatus(context.Background())
	require.Error(t, err)
	assert.True(t, IsTransportError(err))
}

func TestClient_SubmitAnalysis(t *testing.T) {
	cli := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, SubmitAnalysisPath, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var form map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&form))
		assert.Equal(t, "word_pairs", form["analysis_type"])

		_, _ = io.WriteString(w, `{"process_id": 4242, "status": "running", "message": "started"}`)
	})

	resp, err := cli.SubmitAnalysis(context.Background(), map[string]string{"analysis_type": "word_pairs"})
	require.NoError(t, err)

	assert.Equal(t, "4242", resp.JobID())
	assert.Equal(t, "running", resp.Status)
	assert.Equal(t, "started", resp.Message)
}

func TestClient_SubmitAnalysis_AnalysisID(t *testing.T) {
	cli := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"analysis_id": "analysis_20240501_102030", "status": "pending", "message": "ok"}`)
	})

	resp, err := cli.SubmitAnalysis(context.Background(), map[string]string{"analysis_type": "word_frequency"})
	require.NoError(t, err)

	assert.Equal(t, "analysis_20240501_102030", resp.JobID())
}

func TestClient_ResultsSummaryAndTopTables(t *testing.T) {
	cli := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/results/summary":
			_, _ = io.WriteString(w, `{"total_pages": 3, "total_words": 120, "total_word_pairs": 80, "total_word_triplets": 40}`)
		case "/api/results/words":
			assert.Equal(t, "10", r.URL.Query().Get("limit"))
			_, _ = io.WriteString(w, `[{"word": "data", "page_title": "A", "quantity": 4}]`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	summary, err := cli.ResultsSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ResultsSummary{TotalPages: 3, TotalWords: 120, TotalWordPairs: 80, TotalWordTriplets: 40}, *summary)

	words, err := cli.TopWords(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, words, 1)

	word, _ := words[0].Get("word")
	assert.Equal(t, "data", word.Text)

	_, err = cli.TopWordPairs(context.Background(), 5)
	require.Error(t, err)
}

func TestClient_ResultsSummaryNull(t *testing.T) {
	for name, body := range map[string]string{
		"null":          `null`,
		"null, newline": "null\n",
	} {
		t.Run(name, func(t *testing.T) {
			cli := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, body)
			})

			summary, err := cli.ResultsSummary(context.Background())
			require.Error(t, err)
			assert.Nil(t, summary)

			apiErr, ok := AsAPIError(err)
			require.True(t, ok)
			assert.Equal(t, http.StatusOK, apiErr.StatusCode)
		})
	}
}

func TestClient_HelperListings(t *testing.T) {
	cli := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/helper/pages":
			assert.Equal(t, "50", r.URL.Query().Get("limit"))
			_, _ = io.WriteString(w, `{"success": true, "data": [{"url": "https://a.example", "title": "A"}, {"title": "no url"}]}`)
		case "/api/helper/words":
			assert.Equal(t, "3", r.URL.Query().Get("limit"))
			_, _ = io.WriteString(w, `["data", "big", "spark"]`)
		}
	})

	pages, err := cli.HelperPages(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, []HelperPage{{URL: "https://a.example", Title: "A"}}, pages)

	words, err := cli.HelperWords(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"data", "big", "spark"}, words)
}

func TestClient_HelperListingError(t *testing.T) {
	cli := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"error": "No se pudo conectar a la base de datos"}`)
	})

	_, err := cli.HelperWords(context.Background(), 0)
	require.Error(t, err)

	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "No se pudo conectar a la base de datos", apiErr.Message)
}
