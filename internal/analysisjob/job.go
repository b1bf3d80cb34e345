package analysisjob

import (
	"time"

	"github.com/webloader/dashboard/pkg/webloaderapi"

	"github.com/google/uuid"
)

type State string

const (
	StateSubmitted State = "submitted"
	StateWatching  State = "watching"
	StateReady     State = "ready"
	StateTimedOut  State = "timed_out"
	StateFailed    State = "failed"
	StateCancelled State = "cancelled"
)

func (s State) Terminal() bool {
	switch s {
	case StateReady, StateTimedOut, StateFailed, StateCancelled:
		return true
	default:
		return false
	}
}

type AnalysisType struct {
	Name        string `json:"name" yaml:"name"`
	Label       string `json:"label" yaml:"label"`
	Description string `json:"description" yaml:"description"`
}

// Types are the analyses the Spark pipeline offers.
var Types = []AnalysisType{
	{
		Name:        "word_frequency",
		Label:       "Word frequency",
		Description: "Processes every crawled page and computes how often each word appears.",
	},
	{
		Name:        "word_pairs",
		Label:       "Word pairs",
		Description: "Processes every crawled page and computes how often each pair of consecutive words appears.",
	},
	{
		Name:        "word_triplets",
		Label:       "Word triplets",
		Description: "Processes every crawled page and computes how often each triplet of consecutive words appears.",
	},
}

// OtherTypeLabel stands for every analysis type missing from Types in metric labels.
const OtherTypeLabel = "other"

// TypeLabel returns the metric label of an analysis type, unknown types share OtherTypeLabel.
func TypeLabel(name string) string {
	for _, t := range Types {
		if t.Name == name {
			return name
		}
	}

	return OtherTypeLabel
}

// Job is an analysis submitted to the backend and watched until its results show up.
type Job struct {
	ID           string `json:"id" yaml:"id" dynamodbav:"Id"`
	BackendID    string `json:"backend_id,omitempty" yaml:"backend_id,omitempty" dynamodbav:"BackendId"`
	AnalysisType string `json:"analysis_type" yaml:"analysis_type" dynamodbav:"AnalysisType"`

	// Status and Message are reported by the backend on submission.
	Status  string `json:"status,omitempty" yaml:"status,omitempty" dynamodbav:"Status"`
	Message string `json:"message,omitempty" yaml:"message,omitempty" dynamodbav:"Message"`

	State       State `json:"state" yaml:"state" dynamodbav:"State"`
	Attempts    int   `json:"attempts" yaml:"attempts" dynamodbav:"Attempts"`
	MaxAttempts int   `json:"max_attempts" yaml:"max_attempts" dynamodbav:"MaxAttempts"`

	// Baseline is the summary fetched right before submission, nil if it could not be fetched.
	Baseline *webloaderapi.ResultsSummary `json:"baseline,omitempty" yaml:"baseline,omitempty" dynamodbav:"Baseline,omitempty"`
	Summary  *webloaderapi.ResultsSummary `json:"summary,omitempty" yaml:"summary,omitempty" dynamodbav:"Summary,omitempty"`

	// Error is the latest watch error.
	Error string `json:"error,omitempty" yaml:"error,omitempty" dynamodbav:"Error"`

	SubmittedAt time.Time `json:"submitted_at" yaml:"submitted_at" dynamodbav:"SubmittedAt"`
	UpdatedAt   time.Time `json:"updated_at" yaml:"updated_at" dynamodbav:"UpdatedAt"`
}

func newJob(analysisType string, maxAttempts int, baseline *webloaderapi.ResultsSummary, resp *webloaderapi.SubmitAnalysisResponse) *Job {
	now := time.Now()

	return &Job{
		ID:           uuid.New().String(),
		BackendID:    resp.JobID(),
		AnalysisType: analysisType,
		Status:       resp.Status,
		Message:      resp.Message,
		State:        StateSubmitted,
		MaxAttempts:  maxAttempts,
		Baseline:     baseline,
		SubmittedAt:  now,
		UpdatedAt:    now,
	}
}

func (j *Job) clone() *Job {
	c := *j
	if j.Baseline != nil {
		b := *j.Baseline
		c.Baseline = &b
	}
	if j.Summary != nil {
		s := *j.Summary
		c.Summary = &s
	}

	return &c
}

// ResultsReady is the completion policy of the watcher: the summary must report
// analysed pages and differ from the baseline captured before submission.
func ResultsReady(baseline *webloaderapi.ResultsSummary, current webloaderapi.ResultsSummary) bool {
	if current.TotalPages <= 0 {
		return false
	}

	return baseline == nil || !current.Equal(*baseline)
}
