package webloaderapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/webloader/dashboard/internal/metrics"

	"github.com/pkg/errors"
	"github.com/valyala/fastjson"
	"go.uber.org/ratelimit"
)

const DefaultMaxRPS = 20
const DefaultTimeout = 30 * time.Second

const (
	DefaultTopLimit    = 10
	DefaultPagesLimit  = 50
	DefaultWordsLimit  = 100
	SubmitAnalysisPath = "/api/analysis/submit"
)

// emptySummaryMessage is reported when the backend answers the summary request with null,
// which it does when the database query fails.
const emptySummaryMessage = "empty results summary"

const (
	outcomeOK             = "ok"
	outcomeAPIError       = "api_error"
	outcomeTransportError = "transport_error"
)

// Client talks to the WebLoader backend REST API.
type Client struct {
	baseURL string
	rl      ratelimit.Limiter
	cli     *http.Client

	parsers fastjson.ParserPool
}

// NewClient creates a client for the backend located at baseURL.
// maxRPS limits outgoing requests, a non-positive value disables the limit.
func NewClient(baseURL string, maxRPS int, httpCli ...*http.Client) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		rl:      ratelimit.NewUnlimited(),
		cli:     &http.Client{Timeout: DefaultTimeout},
	}
	if maxRPS > 0 {
		c.rl = ratelimit.New(maxRPS)
	}
	if len(httpCli) == 1 {
		c.cli = httpCli[0]
	}

	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// DockerStatus fetches the status of the pipeline containers.
func (c *Client) DockerStatus(ctx context.Context) (*DockerStatus, error) {
	body, err := c.do(ctx, "docker_status", http.MethodGet, "/api/docker/status", nil, nil)
	if err != nil {
		return nil, err
	}

	status := new(DockerStatus)
	err = json.Unmarshal(body, status)
	if err != nil {
		return nil, errors.Wrap(err, "unmarshal failed")
	}

	return status, nil
}

// SubmitAnalysis posts the analysis form fields as a JSON object.
func (c *Client) SubmitAnalysis(ctx context.Context, form map[string]string) (*SubmitAnalysisResponse, error) {
	body, err := c.do(ctx, "submit_analysis", http.MethodPost, SubmitAnalysisPath, nil, form)
	if err != nil {
		return nil, err
	}

	resp := new(SubmitAnalysisResponse)
	err = json.Unmarshal(body, resp)
	if err != nil {
		return nil, errors.Wrap(err, "unmarshal failed")
	}

	if resp.Error != "" {
		return nil, &APIError{StatusCode: http.StatusOK, Message: resp.Error}
	}

	return resp, nil
}

// ResultsSummary fetches the total counters of the stored analysis results.
func (c *Client) ResultsSummary(ctx context.Context) (*ResultsSummary, error) {
	body, err := c.do(ctx, "results_summary", http.MethodGet, "/api/results/summary", nil, nil)
	if err != nil {
		return nil, err
	}

	if string(bytes.TrimSpace(body)) == "null" {
		return nil, &APIError{StatusCode: http.StatusOK, Message: emptySummaryMessage}
	}

	summary := new(ResultsSummary)
	err = json.Unmarshal(body, summary)
	if err != nil {
		return nil, errors.Wrap(err, "unmarshal failed")
	}

	if summary.Error != "" {
		return nil, &APIError{StatusCode: http.StatusOK, Message: summary.Error}
	}

	return summary, nil
}

func (c *Client) TopWords(ctx context.Context, limit int) ([]Row, error) {
	return c.rows(ctx, "top_words", "/api/results/words", limitQuery(limit, DefaultTopLimit))
}

func (c *Client) TopWordPairs(ctx context.Context, limit int) ([]Row, error) {
	return c.rows(ctx, "top_word_pairs", "/api/results/word-pairs", limitQuery(limit, DefaultTopLimit))
}

func (c *Client) TopWordTriplets(ctx context.Context, limit int) ([]Row, error) {
	return c.rows(ctx, "top_word_triplets", "/api/results/word-triplets", limitQuery(limit, DefaultTopLimit))
}

// Query runs a parameterized analysis query. The path must already be escaped.
//
// An error is returned only when the backend is unreachable or responds with a non-2xx status.
// Errors reported inside a successful response are returned in QueryResult.Error.
func (c *Client) Query(ctx context.Context, path string, query url.Values) (*QueryResult, error) {
	body, err := c.do(ctx, "analysis_query", http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}

	return c.parseQueryResult(body)
}

// HelperPages lists page URLs known to the backend.
func (c *Client) HelperPages(ctx context.Context, limit int) ([]HelperPage, error) {
	rows, err := c.rows(ctx, "helper_pages", "/api/helper/pages", limitQuery(limit, DefaultPagesLimit))
	if err != nil {
		return nil, err
	}

	pages := make([]HelperPage, 0, len(rows))
	for _, row := range rows {
		u, _ := row.Get("url")
		title, _ := row.Get("title")
		if u.Text == "" {
			continue
		}

		pages = append(pages, HelperPage{URL: u.Text, Title: title.Text})
	}

	return pages, nil
}

// HelperWords lists the most repeated words.
func (c *Client) HelperWords(ctx context.Context, limit int) ([]string, error) {
	rows, err := c.rows(ctx, "helper_words", "/api/helper/words", limitQuery(limit, DefaultWordsLimit))
	if err != nil {
		return nil, err
	}

	words := make([]string, 0, len(rows))
	for _, row := range rows {
		f, ok := row.Get(ScalarKey)
		if !ok {
			f, ok = row.Get("word")
		}
		if !ok || f.Text == "" {
			continue
		}

		words = append(words, f.Text)
	}

	return words, nil
}

func (c *Client) rows(ctx context.Context, endpoint string, path string, query url.Values) ([]Row, error) {
	body, err := c.do(ctx, endpoint, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}

	result, err := c.parseQueryResult(body)
	if err != nil {
		return nil, err
	}

	if !result.Success {
		return nil, &APIError{StatusCode: http.StatusOK, Message: result.Error}
	}

	return result.Data, nil
}

func (c *Client) parseQueryResult(body []byte) (*QueryResult, error) {
	p := c.parsers.Get()
	defer c.parsers.Put(p)

	v, err := p.ParseBytes(body)
	if err != nil {
		return nil, errors.Wrap(err, "invalid json")
	}

	result, err := decodeQueryResult(v)
	if err != nil {
		return nil, errors.Wrap(err, "unexpected result")
	}

	return result, nil
}

// do sends a request and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, endpoint, method, path string, query url.Values, payload interface{}) (body []byte, err error) {
	startedAt := time.Now()
	outcome := outcomeOK
	defer func() {
		metrics.Backend.Observe(endpoint, outcome, startedAt)
	}()

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal request body")
		}

		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, errors.Wrap(err, "invalid request")
	}

	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.rl.Take()

	resp, err := c.cli.Do(req)
	if err != nil {
		outcome = outcomeTransportError
		return nil, &TransportError{Err: errors.Wrap(err, "request failed")}
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		outcome = outcomeTransportError
		return nil, &TransportError{Err: errors.Wrap(err, "body read failed")}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		outcome = outcomeAPIError
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    c.errorMessage(body),
		}
	}

	return body, nil
}

// errorMessage extracts the "error" field from a failed response body.
func (c *Client) errorMessage(body []byte) string {
	p := c.parsers.Get()
	defer c.parsers.Put(p)

	v, err := p.ParseBytes(body)
	if err != nil || v.Type() != fastjson.TypeObject {
		return ""
	}

	return errorText(v.Get("error"))
}

func limitQuery(limit int, fallback int) url.Values {
	if limit <= 0 {
		limit = fallback
	}

	return url.Values{"limit": []string{strconv.Itoa(limit)}}
}
