package results

import (
	"context"

	"github.com/webloader/dashboard/internal/view"
	"github.com/webloader/dashboard/pkg/webloaderapi"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// LoadFailedMessage is shown when any part of the results could not be loaded.
const LoadFailedMessage = "Could not load results from the database"

type Backend interface {
	ResultsSummary(ctx context.Context) (*webloaderapi.ResultsSummary, error)
	TopWords(ctx context.Context, limit int) ([]webloaderapi.Row, error)
	TopWordPairs(ctx context.Context, limit int) ([]webloaderapi.Row, error)
	TopWordTriplets(ctx context.Context, limit int) ([]webloaderapi.Row, error)
}

type Loader struct {
	logger  zerolog.Logger
	backend Backend
}

func NewLoader(logger zerolog.Logger, backend Backend) *Loader {
	return &Loader{
		logger:  logger.With().Str("component", "results_loader").Logger(),
		backend: backend,
	}
}

// Load fetches the summary and the top listings concurrently.
// A non-positive limit falls back to webloaderapi.DefaultTopLimit.
func (l *Loader) Load(ctx context.Context, limit int) (*view.ResultsView, error) {
	if limit <= 0 {
		limit = webloaderapi.DefaultTopLimit
	}

	var (
		summary                *webloaderapi.ResultsSummary
		words, pairs, triplets []webloaderapi.Row
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		summary, err = l.backend.ResultsSummary(gctx)
		return errors.Wrap(err, "summary")
	})
	g.Go(func() (err error) {
		words, err = l.backend.TopWords(gctx, limit)
		return errors.Wrap(err, "top words")
	})
	g.Go(func() (err error) {
		pairs, err = l.backend.TopWordPairs(gctx, limit)
		return errors.Wrap(err, "top word pairs")
	})
	g.Go(func() (err error) {
		triplets, err = l.backend.TopWordTriplets(gctx, limit)
		return errors.Wrap(err, "top word triplets")
	})

	err := g.Wait()
	if err != nil {
		l.logger.Warn().Err(err).Msg("failed to load results")
		return nil, errors.Wrap(err, "failed to load results")
	}

	return view.NewResultsView(*summary, words, pairs, triplets), nil
}
