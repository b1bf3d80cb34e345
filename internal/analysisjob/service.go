package analysisjob

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/webloader/dashboard/internal/dockerstatus"
	"github.com/webloader/dashboard/internal/metrics"
	"github.com/webloader/dashboard/pkg/webloaderapi"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	DefaultWatchInterval    = 10 * time.Second
	DefaultWatchMaxAttempts = 12

	// FieldAnalysisType is the form field naming the analysis to run.
	FieldAnalysisType = "analysis_type"
)

type Backend interface {
	SubmitAnalysis(ctx context.Context, form map[string]string) (*webloaderapi.SubmitAnalysisResponse, error)
	ResultsSummary(ctx context.Context) (*webloaderapi.ResultsSummary, error)
}

// DockerState reports the latest known Docker status.
type DockerState interface {
	State() dockerstatus.State
}

type Config struct {
	WatchInterval    time.Duration
	WatchMaxAttempts int
}

// Service submits analysis jobs and watches each of them in the background
// until the results summary changes or the attempts run out.
type Service struct {
	ctx context.Context

	logger zerolog.Logger

	backend Backend
	docker  DockerState
	repo    Repository
	cfg     Config

	wg sync.WaitGroup

	mu       sync.Mutex
	watchers map[string]*watcher
}

type watcher struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// NewService creates the service, watchers live until ctx is done.
func NewService(ctx context.Context, logger zerolog.Logger, backend Backend, docker DockerState, repo Repository, cfg Config) *Service {
	if cfg.WatchInterval <= 0 {
		cfg.WatchInterval = DefaultWatchInterval
	}
	if cfg.WatchMaxAttempts <= 0 {
		cfg.WatchMaxAttempts = DefaultWatchMaxAttempts
	}

	return &Service{
		ctx:      ctx,
		logger:   logger.With().Str("component", "analysis_jobs").Logger(),
		backend:  backend,
		docker:   docker,
		repo:     repo,
		cfg:      cfg,
		watchers: make(map[string]*watcher),
	}
}

// Submit validates the form, posts it to the backend and starts watching the job.
// Validation failures are reported before any request is sent, see IsValidation.
func (s *Service) Submit(ctx context.Context, form map[string]string) (*Job, error) {
	analysisType := strings.TrimSpace(form[FieldAnalysisType])
	if analysisType == "" {
		return nil, ErrAnalysisTypeRequired
	}

	if !s.docker.State().DockerAvailable() {
		return nil, ErrDockerUnavailable
	}

	payload := make(map[string]string, len(form))
	for k, v := range form {
		payload[k] = strings.TrimSpace(v)
	}

	logger := s.logger.With().Str("analysis_type", analysisType).Logger()

	baseline, err := s.backend.ResultsSummary(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to fetch the baseline summary, any non-empty summary will complete the job")
		baseline = nil
	}

	resp, err := s.backend.SubmitAnalysis(ctx, payload)
	metrics.AnalysisJob.Submitted(TypeLabel(analysisType), err == nil)
	if err != nil {
		return nil, errors.Wrap(err, "submit failed")
	}

	job := newJob(analysisType, s.cfg.WatchMaxAttempts, baseline, resp)

	err = s.repo.Create(ctx, job)
	if err != nil {
		return nil, errors.Wrap(err, "failed to save the job")
	}

	logger.Info().
		Str("job_id", job.ID).
		Str("backend_id", job.BackendID).
		Str("status", job.Status).
		Msg("analysis has been submitted")

	submitted := job.clone()
	s.startWatch(job)

	return submitted, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Job, error) {
	job, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "job %s", id)
	}

	return job, nil
}

// Cancel stops watching the job. It returns false if the job is not being watched.
func (s *Service) Cancel(id string) bool {
	s.mu.Lock()
	w, ok := s.watchers[id]
	s.mu.Unlock()

	if ok {
		w.cancel()
	}

	return ok
}

// Await blocks until the job reaches a terminal state and returns it.
func (s *Service) Await(ctx context.Context, id string) (*Job, error) {
	s.mu.Lock()
	w, ok := s.watchers[id]
	s.mu.Unlock()

	if ok {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-w.done:
		}
	}

	return s.Get(ctx, id)
}

// Wait blocks until every watcher has finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) startWatch(job *Job) {
	ctx, cancel := context.WithCancel(s.ctx)
	w := &watcher{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	s.mu.Lock()
	s.watchers[job.ID] = w
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(w.done)
		defer cancel()
		defer func() {
			s.mu.Lock()
			delete(s.watchers, job.ID)
			s.mu.Unlock()
		}()

		s.watch(ctx, job)
	}()
}

// watch polls the results summary every interval, a failed poll still counts as an attempt.
func (s *Service) watch(ctx context.Context, job *Job) {
	logger := s.logger.With().Str("job_id", job.ID).Logger()

	job.State = StateWatching
	s.save(logger, job)

	t := time.NewTicker(s.cfg.WatchInterval)
	defer t.Stop()

	for job.Attempts < job.MaxAttempts {
		select {
		case <-ctx.Done():
			s.finish(logger, job, StateCancelled)
			return

		case <-t.C:
		}

		job.Attempts++

		summary, err := s.backend.ResultsSummary(ctx)
		if err != nil {
			if ctx.Err() != nil {
				s.finish(logger, job, StateCancelled)
				return
			}

			logger.Info().Err(err).Int("attempt", job.Attempts).Msg("results summary poll failed")
			job.Error = err.Error()
			s.save(logger, job)

			continue
		}

		job.Summary = summary
		job.Error = ""

		if ResultsReady(job.Baseline, *summary) {
			s.finish(logger, job, StateReady)
			return
		}

		s.save(logger, job)
	}

	s.finish(logger, job, StateTimedOut)
}

func (s *Service) finish(logger zerolog.Logger, job *Job, state State) {
	job.State = state
	s.save(logger, job)

	metrics.AnalysisJob.WatchFinished(string(state), job.Attempts)

	logger.Info().
		Str("state", string(state)).
		Int("attempts", job.Attempts).
		Msg("analysis job watch has been finished")
}

// save persists the job. The watch context may be cancelled already, so the service context is used.
func (s *Service) save(logger zerolog.Logger, job *Job) {
	job.UpdatedAt = time.Now()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(s.ctx), 5*time.Second)
	defer cancel()

	err := s.repo.Update(ctx, job)
	if err != nil {
		logger.Err(err).Msg("failed to save the job")
	}
}
