package webloaderapi

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

type DockerStatus struct {
	DockerAvailable bool                     `json:"docker_available"`
	Services        map[string]ServiceStatus `json:"services"`
	Timestamp       Timestamp                `json:"timestamp"`
}

type ServiceStatus struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Running bool   `json:"running"`
	ID      string `json:"id,omitempty"`
}

type SubmitAnalysisResponse struct {
	ProcessID  FlexString `json:"process_id,omitempty"`
	AnalysisID FlexString `json:"analysis_id,omitempty"`
	Status     string     `json:"status"`
	Message    string     `json:"message"`
	Error      string     `json:"error,omitempty"`
}

// JobID returns the identifier the backend assigned to the job.
// Older backends answer with analysis_id, newer ones with process_id.
func (r *SubmitAnalysisResponse) JobID() string {
	if r.ProcessID != "" {
		return string(r.ProcessID)
	}

	return string(r.AnalysisID)
}

type ResultsSummary struct {
	TotalPages        int64  `json:"total_pages" yaml:"total_pages" dynamodbav:"TotalPages"`
	TotalWords        int64  `json:"total_words" yaml:"total_words" dynamodbav:"TotalWords"`
	TotalWordPairs    int64  `json:"total_word_pairs" yaml:"total_word_pairs" dynamodbav:"TotalWordPairs"`
	TotalWordTriplets int64  `json:"total_word_triplets" yaml:"total_word_triplets" dynamodbav:"TotalWordTriplets"`
	Error             string `json:"error,omitempty" yaml:"-" dynamodbav:"-"`
}

func (s ResultsSummary) Equal(other ResultsSummary) bool {
	return s.TotalPages == other.TotalPages &&
		s.TotalWords == other.TotalWords &&
		s.TotalWordPairs == other.TotalWordPairs &&
		s.TotalWordTriplets == other.TotalWordTriplets
}

type HelperPage struct {
	URL   string `json:"url" yaml:"url"`
	Title string `json:"title" yaml:"title"`
}

// QueryResult is the envelope returned by parameterized analysis queries.
type QueryResult struct {
	Success bool
	Data    []Row
	Error   string
}

// FlexString accepts both JSON strings and numbers.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = FlexString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return errors.Wrap(err, "expected a string or a number")
	}

	*f = FlexString(n.String())

	return nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// Timestamp is an ISO-8601 time. Timestamps without a zone are interpreted in the local time zone,
// that is how the backend formats them.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}

	s, err := strconv.Unquote(string(b))
	if err != nil {
		return errors.Wrap(err, "timestamp must be a string")
	}

	if s == "" {
		return nil
	}

	for _, layout := range timestampLayouts {
		parsed, err := time.ParseInLocation(layout, s, time.Local)
		if err == nil {
			t.Time = parsed
			return nil
		}
	}

	return errors.Errorf("unsupported timestamp format %q", s)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}

	return json.Marshal(t.Format(time.RFC3339Nano))
}
