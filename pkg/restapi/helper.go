package restapi

import (
	"net/http"

	"github.com/webloader/dashboard/internal/view"

	"github.com/go-chi/chi/v5"
	zlog "github.com/rs/zerolog/log"
)

const helperFailedMessage = "Could not load suggestions"

type helperHandler struct {
	helpers HelperSource
}

func newHelperHandler(helpers HelperSource) *helperHandler {
	return &helperHandler{
		helpers: helpers,
	}
}

func (h *helperHandler) handle(r chi.Router) {
	r.Get("/helper/pages", h.getPages)
	r.Get("/helper/words", h.getWords)
}

func (h *helperHandler) getPages(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	pages, err := h.helpers.HelperPages(r.Context(), limit)
	if err != nil {
		h.writeBackendError(w, err)
		return
	}

	writeResult(w, pages)
}

func (h *helperHandler) getWords(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	words, err := h.helpers.HelperWords(r.Context(), limit)
	if err != nil {
		h.writeBackendError(w, err)
		return
	}

	writeResult(w, words)
}

func (h *helperHandler) writeBackendError(w http.ResponseWriter, err error) {
	zlog.Warn().Err(err).Msg("helper listing failed")

	_, msg := view.ClassifyError(err, helperFailedMessage)
	writeError(w, msg, http.StatusBadGateway)
}
