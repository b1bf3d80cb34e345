package restapi

import (
	"net/http"

	"github.com/webloader/dashboard/internal/results"

	"github.com/go-chi/chi/v5"
	zlog "github.com/rs/zerolog/log"
)

type resultsHandler struct {
	loader ResultsLoader
}

func newResultsHandler(loader ResultsLoader) *resultsHandler {
	return &resultsHandler{
		loader: loader,
	}
}

func (h *resultsHandler) handle(r chi.Router) {
	r.Get("/results", h.getResults)
}

func (h *resultsHandler) getResults(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	v, err := h.loader.Load(r.Context(), limit)
	if err != nil {
		zlog.Warn().Err(err).Msg("results loading failed")
		writeError(w, results.LoadFailedMessage, http.StatusBadGateway)

		return
	}

	writeResult(w, v)
}
