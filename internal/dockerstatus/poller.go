package dockerstatus

import (
	"context"
	"sync"
	"time"

	"github.com/webloader/dashboard/internal/metrics"

	"github.com/rs/zerolog"
)

// DefaultPollInterval is how often the dashboard refreshes the container status.
const DefaultPollInterval = 30 * time.Second

type Indicator string

const (
	IndicatorChecking     Indicator = "checking"
	IndicatorConnected    Indicator = "connected"
	IndicatorDisconnected Indicator = "disconnected"
	IndicatorError        Indicator = "error"
)

// State is what the poller knows after its latest poll.
type State struct {
	// Snapshot is the latest successfully fetched snapshot, it survives failed polls.
	Snapshot *Snapshot

	// Err is the error of the latest poll, nil if it succeeded.
	Err error

	CheckedAt time.Time
}

func (s State) Indicator() Indicator {
	switch {
	case s.CheckedAt.IsZero():
		return IndicatorChecking
	case s.Err != nil:
		return IndicatorError
	case s.Snapshot != nil && s.Snapshot.DockerAvailable:
		return IndicatorConnected
	default:
		return IndicatorDisconnected
	}
}

// DockerAvailable reports whether the latest snapshot says Docker is available.
func (s State) DockerAvailable() bool {
	return s.Snapshot != nil && s.Snapshot.DockerAvailable
}

// Poller periodically fetches status snapshots from a source.
type Poller struct {
	ctx context.Context

	logger zerolog.Logger

	source   Source
	interval time.Duration

	// pollMu serializes polls, so a manual refresh never interleaves with a tick.
	pollMu sync.Mutex

	mu    sync.RWMutex
	state State
}

func NewPoller(ctx context.Context, logger zerolog.Logger, source Source, interval time.Duration) *Poller {
	return &Poller{
		ctx:      ctx,
		logger:   logger.With().Str("component", "status_poller").Str("source", string(source.Type())).Logger(),
		source:   source,
		interval: interval,
	}
}

// Start polls immediately and then on every tick until the poller context is done.
func (p *Poller) Start() {
	p.logger.Info().Dur("poll_interval", p.interval).Msg("status poller has been started")
	defer p.logger.Info().Msg("status poller has been finished")

	p.Refresh(p.ctx)

	t := time.NewTicker(p.interval)
	defer t.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return

		case <-t.C:
		}

		p.Refresh(p.ctx)
	}
}

// Refresh polls the source out of schedule and returns the resulting state.
func (p *Poller) Refresh(ctx context.Context) State {
	p.pollMu.Lock()
	defer p.pollMu.Unlock()

	sourceType := string(p.source.Type())

	snap, err := p.source.Fetch(ctx)
	if err != nil {
		p.logger.Err(err).Msg("failed to poll docker status")
		metrics.StatusPoller.PollFailed(sourceType)

		p.mu.Lock()
		p.state.Err = err
		p.state.CheckedAt = time.Now()
		state := p.state
		p.mu.Unlock()

		return state
	}

	metrics.StatusPoller.PollSucceeded(sourceType)
	metrics.StatusPoller.UpdateSnapshot(snap.DockerAvailable, snap.Running())

	p.mu.Lock()
	prev := p.state.Snapshot
	p.state = State{
		Snapshot:  snap,
		CheckedAt: time.Now(),
	}
	state := p.state
	p.mu.Unlock()

	if prev != nil && snap.Timestamp.Before(prev.Timestamp) {
		p.logger.Warn().
			Time("previous", prev.Timestamp).
			Time("current", snap.Timestamp).
			Msg("status timestamp went backwards")
	}

	p.logger.Debug().
		Bool("docker_available", snap.DockerAvailable).
		Int("services", len(snap.Services)).
		Msg("docker status has been polled")

	return state
}

func (p *Poller) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.state
}
