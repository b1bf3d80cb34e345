package dispatcher

import (
	"context"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/webloader/dashboard/internal/metrics"
	"github.com/webloader/dashboard/internal/querykind"
	"github.com/webloader/dashboard/internal/view"
	"github.com/webloader/dashboard/pkg/webloaderapi"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	queryFailedMessage = "The server could not process the query"
	unknownKindTitle   = "Unknown query"

	// unknownKindLabel replaces kinds missing from the kind table in metric labels.
	unknownKindLabel = "unknown"
)

type Backend interface {
	Query(ctx context.Context, path string, query url.Values) (*webloaderapi.QueryResult, error)
}

// Dispatcher sends parameterized queries to the backend and renders the answers as panels.
// Dispatches may overlap, Busy reports whether any of them is still waiting for the backend.
type Dispatcher struct {
	logger  zerolog.Logger
	backend Backend

	inFlight atomic.Int32
}

func New(logger zerolog.Logger, backend Backend) *Dispatcher {
	return &Dispatcher{
		logger:  logger.With().Str("component", "dispatcher").Logger(),
		backend: backend,
	}
}

func (d *Dispatcher) Busy() bool {
	return d.inFlight.Load() > 0
}

func (d *Dispatcher) InFlight() int32 {
	return d.inFlight.Load()
}

// Dispatch validates the parameters, sends exactly one request and renders the result.
// It never fails: every outcome, including validation errors, is a panel.
func (d *Dispatcher) Dispatch(ctx context.Context, spec querykind.Spec) *view.Panel {
	startedAt := time.Now()

	panel := d.dispatch(ctx, spec)
	metrics.Dispatcher.Dispatched(kindLabel(spec.Kind), string(panel.State), startedAt)

	return panel
}

func (d *Dispatcher) dispatch(ctx context.Context, spec querykind.Spec) *view.Panel {
	def, ok := querykind.Lookup(spec.Kind)
	if !ok {
		err := errors.Wrapf(querykind.ErrUnknownKind, "%q", spec.Kind)
		return view.NewErrorPanel(unknownKindTitle, view.ErrorValidation, err.Error())
	}

	endpoint, err := def.Endpoint(spec.Params)
	if err != nil {
		return view.NewPanelFromError(def.Label, err, queryFailedMessage)
	}

	title := def.RenderTitle(spec.Params)
	logger := d.logger.With().Str("kind", string(def.Kind)).Str("endpoint", endpoint.String()).Logger()

	result, err := d.query(ctx, endpoint)
	if err != nil {
		logger.Info().Err(err).Msg("query failed")
		return view.NewPanelFromError(title, err, queryFailedMessage)
	}

	if !result.Success {
		logger.Info().Str("error", result.Error).Msg("backend rejected the query")

		msg := result.Error
		if msg == "" {
			msg = queryFailedMessage
		}

		return view.NewErrorPanel(title, view.ErrorApplication, msg)
	}

	logger.Debug().Int("rows", len(result.Data)).Msg("query has been dispatched")

	return view.NewTablePanel(title, result.Data)
}

func kindLabel(kind querykind.Kind) string {
	if _, ok := querykind.Lookup(kind); !ok {
		return unknownKindLabel
	}

	return string(kind)
}

func (d *Dispatcher) query(ctx context.Context, endpoint querykind.Endpoint) (*webloaderapi.QueryResult, error) {
	metrics.Dispatcher.InFlight(d.inFlight.Add(1))
	defer func() {
		metrics.Dispatcher.InFlight(d.inFlight.Add(-1))
	}()

	result, err := d.backend.Query(ctx, endpoint.Path, endpoint.Query)
	if err != nil {
		return nil, errors.Wrap(err, "backend query failed")
	}

	return result, nil
}
