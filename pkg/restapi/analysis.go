package restapi

import (
	"encoding/json"
	"net/http"

	"github.com/webloader/dashboard/internal/analysisjob"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	zlog "github.com/rs/zerolog/log"
)

type analysisHandler struct {
	jobs JobService
}

func newAnalysisHandler(jobs JobService) *analysisHandler {
	return &analysisHandler{
		jobs: jobs,
	}
}

func (h *analysisHandler) handle(r chi.Router) {
	r.Post("/analysis", h.submitAnalysis)
	r.Get("/analysis/{id}", h.getJob)
	r.Get("/analysis/types", h.getTypes)
}

func (h *analysisHandler) getTypes(w http.ResponseWriter, _ *http.Request) {
	writeResult(w, analysisjob.Types)
}

// submitAnalysis accepts the analysis form as a flat JSON object of strings.
func (h *analysisHandler) submitAnalysis(w http.ResponseWriter, r *http.Request) {
	var form map[string]string
	err := json.NewDecoder(r.Body).Decode(&form)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	job, err := h.jobs.Submit(r.Context(), form)
	if err != nil {
		msg, code := submitError(err)
		if code != http.StatusBadRequest {
			zlog.Error().Err(err).Interface("form", form).Msg("analysis submission failed")
		}

		writeError(w, msg, code)

		return
	}

	writeResult(w, job)
}

func (h *analysisHandler) getJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, "missed id", http.StatusBadRequest)
		return
	}

	job, err := h.jobs.Get(r.Context(), id)
	if errors.Is(err, analysisjob.ErrNotFound) {
		writeError(w, "job not found", http.StatusNotFound)
		return
	}
	if err != nil {
		zlog.Error().Err(err).Str("id", id).Msg("failed to find a job")
		writeError(w, "internal error", http.StatusInternalServerError)

		return
	}

	writeResult(w, job)
}
