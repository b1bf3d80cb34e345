package dispatcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/webloader/dashboard/internal/querykind"
	"github.com/webloader/dashboard/internal/view"
	"github.com/webloader/dashboard/pkg/webloaderapi"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type backendFunc func(ctx context.Context, path string, query url.Values) (*webloaderapi.QueryResult, error)

func (f backendFunc) Query(ctx context.Context, path string, query url.Values) (*webloaderapi.QueryResult, error) {
	return f(ctx, path, query)
}

type recordedRequest struct {
	method   string
	rawPath  string
	rawQuery string
}

type fakeServer struct {
	*httptest.Server

	mu       sync.Mutex
	requests []recordedRequest
}

func newFakeServer(t *testing.T, status int, body string) *fakeServer {
	s := &fakeServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, recordedRequest{
			method:   r.Method,
			rawPath:  r.URL.EscapedPath(),
			rawQuery: r.URL.RawQuery,
		})
		s.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(s.Close)

	return s
}

func (s *fakeServer) Requests() []recordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]recordedRequest(nil), s.requests...)
}

func newDispatcher(s *fakeServer) *Dispatcher {
	return New(zerolog.Nop(), webloaderapi.NewClient(s.URL, 0))
}

func TestDispatch_WordSearchRendersTable(t *testing.T) {
	srv := newFakeServer(t, http.StatusOK, `{
		"success": true,
		"data": [
			{"page_title": "Big Data", "url": "https://a.example", "quantity": 12},
			{"page_title": "Data Lakes", "url": "https://b.example", "quantity": 7}
		]
	}`)
	d := newDispatcher(srv)

	panel := d.Dispatch(context.Background(), querykind.Spec{
		Kind:   querykind.WordSearch,
		Params: map[string]string{"word": "data"},
	})

	require.True(t, panel.IsTable(), panel.Message)
	assert.Equal(t, `Pages with the most occurrences of "data"`, panel.Title)
	assert.Equal(t, []string{"Page Title", "Url", "Quantity"}, panel.Headers())
	assert.Equal(t, [][]string{
		{"Big Data", "https://a.example", "12"},
		{"Data Lakes", "https://b.example", "7"},
	}, panel.Rows)

	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodGet, reqs[0].method)
	assert.Equal(t, "/api/analysis/word/data", reqs[0].rawPath)
	assert.False(t, d.Busy())
}

func TestDispatch_EncodesParameters(t *testing.T) {
	cases := []struct {
		name      string
		spec      querykind.Spec
		wantPath  string
		wantQuery string
	}{
		{
			name:     "path parameters",
			spec:     querykind.Spec{Kind: querykind.WordPair, Params: map[string]string{"word1": "big data", "word2": "a/b"}},
			wantPath: "/api/analysis/word-set2/big%20data/a%2Fb",
		},
		{
			name:      "query parameter",
			spec:      querykind.Spec{Kind: querykind.DistinctWordsByPage, Params: map[string]string{"url": "https://example.com/a?b=c&d=e"}},
			wantPath:  "/api/analysis/page-words",
			wantQuery: "url=https%3A%2F%2Fexample.com%2Fa%3Fb%3Dc%26d%3De",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := newFakeServer(t, http.StatusOK, `{"success": true, "data": []}`)

			panel := newDispatcher(srv).Dispatch(context.Background(), tc.spec)
			assert.True(t, panel.IsEmpty())

			reqs := srv.Requests()
			require.Len(t, reqs, 1)
			assert.Equal(t, tc.wantPath, reqs[0].rawPath)
			assert.Equal(t, tc.wantQuery, reqs[0].rawQuery)
		})
	}
}

func TestDispatch_ValidationDoesNotCallBackend(t *testing.T) {
	for _, def := range querykind.All() {
		t.Run(string(def.Kind), func(t *testing.T) {
			var calls atomic.Int32
			d := New(zerolog.Nop(), backendFunc(func(context.Context, string, url.Values) (*webloaderapi.QueryResult, error) {
				calls.Add(1)
				return &webloaderapi.QueryResult{Success: true}, nil
			}))

			panel := d.Dispatch(context.Background(), querykind.Spec{
				Kind:   def.Kind,
				Params: map[string]string{"word": "  ", "word1": "", "url": "\t"},
			})

			assert.True(t, panel.IsError())
			assert.Equal(t, view.ErrorValidation, panel.ErrorClass)
			assert.Contains(t, panel.Message, "missing required field")
			assert.Zero(t, calls.Load())
		})
	}
}

func TestDispatch_WordPairMissingSecondWord(t *testing.T) {
	srv := newFakeServer(t, http.StatusOK, `[]`)

	panel := newDispatcher(srv).Dispatch(context.Background(), querykind.Spec{
		Kind:   querykind.WordPair,
		Params: map[string]string{"word1": "big"},
	})

	require.True(t, panel.IsError())
	assert.Equal(t, view.ErrorValidation, panel.ErrorClass)
	assert.Equal(t, "missing required field: word2", panel.Message)
	assert.Empty(t, srv.Requests())
}

func TestDispatch_UnknownKind(t *testing.T) {
	for name, kind := range map[string]querykind.Kind{
		"unknown name":  "word-quadruplet",
		"invalid utf-8": "\xff",
		"empty":         "",
	} {
		t.Run(name, func(t *testing.T) {
			srv := newFakeServer(t, http.StatusOK, `[]`)

			var panel *view.Panel
			require.NotPanics(t, func() {
				panel = newDispatcher(srv).Dispatch(context.Background(), querykind.Spec{Kind: kind})
			})

			require.True(t, panel.IsError())
			assert.Equal(t, unknownKindTitle, panel.Title)
			assert.Equal(t, view.ErrorValidation, panel.ErrorClass)
			assert.Empty(t, srv.Requests())
		})
	}
}

func TestKindLabel(t *testing.T) {
	for _, def := range querykind.All() {
		assert.Equal(t, string(def.Kind), kindLabel(def.Kind))
	}

	assert.Equal(t, unknownKindLabel, kindLabel("word-quadruplet"))
	assert.Equal(t, unknownKindLabel, kindLabel("\xff"))
}

func TestDispatch_EmptyResult(t *testing.T) {
	for name, body := range map[string]string{
		"empty envelope": `{"success": true, "data": []}`,
		"null data":      `{"success": true, "data": null}`,
		"bare array":     `[]`,
	} {
		t.Run(name, func(t *testing.T) {
			srv := newFakeServer(t, http.StatusOK, body)

			panel := newDispatcher(srv).Dispatch(context.Background(), querykind.Spec{
				Kind:   querykind.LinkCountByPage,
				Params: map[string]string{"url": "https://example.com"},
			})

			require.True(t, panel.IsEmpty())
			assert.Equal(t, view.NoResultsMessage, panel.Message)
			assert.Empty(t, panel.Rows)
		})
	}
}

func TestDispatch_Errors(t *testing.T) {
	cases := []struct {
		name      string
		status    int
		body      string
		wantClass view.ErrorClass
		wantMsg   string
	}{
		{
			name:      "success false with error",
			status:    http.StatusOK,
			body:      `{"success": false, "error": "unknown column"}`,
			wantClass: view.ErrorApplication,
			wantMsg:   "unknown column",
		},
		{
			name:      "success true with error",
			status:    http.StatusOK,
			body:      `{"success": true, "error": "query timed out", "data": [{"url": "https://a.example"}]}`,
			wantClass: view.ErrorApplication,
			wantMsg:   "query timed out",
		},
		{
			name:      "error field only",
			status:    http.StatusOK,
			body:      `{"error": "database is locked"}`,
			wantClass: view.ErrorApplication,
			wantMsg:   "database is locked",
		},
		{
			name:      "success false without message",
			status:    http.StatusOK,
			body:      `{"success": false, "data": []}`,
			wantClass: view.ErrorApplication,
			wantMsg:   queryFailedMessage,
		},
		{
			name:      "non-2xx with message",
			status:    http.StatusInternalServerError,
			body:      `{"error": "mysql is down"}`,
			wantClass: view.ErrorApplication,
			wantMsg:   "mysql is down",
		},
		{
			name:      "non-2xx without body",
			status:    http.StatusBadGateway,
			body:      ``,
			wantClass: view.ErrorApplication,
			wantMsg:   queryFailedMessage,
		},
		{
			name:      "malformed body",
			status:    http.StatusOK,
			body:      `<html>`,
			wantClass: view.ErrorApplication,
			wantMsg:   queryFailedMessage,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := newFakeServer(t, tc.status, tc.body)
			d := newDispatcher(srv)

			panel := d.Dispatch(context.Background(), querykind.Spec{
				Kind:   querykind.WordRepetitionCount,
				Params: map[string]string{"word": "spark"},
			})

			require.True(t, panel.IsError())
			assert.Equal(t, tc.wantClass, panel.ErrorClass)
			assert.Equal(t, tc.wantMsg, panel.Message)
			assert.Empty(t, panel.Rows)
			assert.Len(t, srv.Requests(), 1)
			assert.False(t, d.Busy())
		})
	}
}

func TestDispatch_TransportError(t *testing.T) {
	srv := newFakeServer(t, http.StatusOK, `[]`)
	d := newDispatcher(srv)
	srv.Close()

	panel := d.Dispatch(context.Background(), querykind.Spec{
		Kind:   querykind.WordSearch,
		Params: map[string]string{"word": "data"},
	})

	require.True(t, panel.IsError())
	assert.Equal(t, view.ErrorTransport, panel.ErrorClass)
	assert.Equal(t, view.TransportErrorMessage, panel.Message)
	assert.False(t, d.Busy())
}

func TestDispatch_BusyWhileInFlight(t *testing.T) {
	outcomes := map[string]func() (*webloaderapi.QueryResult, error){
		"rows": func() (*webloaderapi.QueryResult, error) {
			return &webloaderapi.QueryResult{Success: true, Data: []webloaderapi.Row{{{Key: "word", Text: "data"}}}}, nil
		},
		"empty": func() (*webloaderapi.QueryResult, error) {
			return &webloaderapi.QueryResult{Success: true}, nil
		},
		"error": func() (*webloaderapi.QueryResult, error) {
			return nil, &webloaderapi.TransportError{Err: errors.New("timeout")}
		},
	}

	for name, outcome := range outcomes {
		t.Run(name, func(t *testing.T) {
			started := make(chan struct{})
			release := make(chan struct{})

			d := New(zerolog.Nop(), backendFunc(func(context.Context, string, url.Values) (*webloaderapi.QueryResult, error) {
				close(started)
				<-release
				return outcome()
			}))

			done := make(chan *view.Panel)
			go func() {
				done <- d.Dispatch(context.Background(), querykind.Spec{
					Kind:   querykind.WordSearch,
					Params: map[string]string{"word": "data"},
				})
			}()

			<-started
			assert.True(t, d.Busy())
			assert.Equal(t, int32(1), d.InFlight())

			close(release)
			<-done

			assert.False(t, d.Busy())
			assert.Zero(t, d.InFlight())
		})
	}
}

func TestDispatch_OverlappingDispatches(t *testing.T) {
	const n = 3

	var started sync.WaitGroup
	started.Add(n)
	release := make(chan struct{})

	d := New(zerolog.Nop(), backendFunc(func(context.Context, string, url.Values) (*webloaderapi.QueryResult, error) {
		started.Done()
		<-release
		return &webloaderapi.QueryResult{Success: true}, nil
	}))

	var finished sync.WaitGroup
	for i := 0; i < n; i++ {
		finished.Add(1)
		go func() {
			defer finished.Done()
			d.Dispatch(context.Background(), querykind.Spec{
				Kind:   querykind.WordSearch,
				Params: map[string]string{"word": "data"},
			})
		}()
	}

	started.Wait()
	assert.Equal(t, int32(n), d.InFlight())

	close(release)
	finished.Wait()

	assert.False(t, d.Busy())
}
