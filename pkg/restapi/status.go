package restapi

import (
	"context"
	"net/http"
	"time"

	"github.com/webloader/dashboard/internal/view"

	"github.com/go-chi/chi/v5"
)

// refreshTimeout bounds a manual refresh. The poll outlives the request that triggered it,
// its result is shared by every viewer.
const refreshTimeout = 15 * time.Second

func refreshStatus(ctx context.Context, poller StatusPoller) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
	defer cancel()

	poller.Refresh(ctx)
}

type statusHandler struct {
	poller StatusPoller
}

func newStatusHandler(poller StatusPoller) *statusHandler {
	return &statusHandler{
		poller: poller,
	}
}

func (h *statusHandler) handle(r chi.Router) {
	r.Get("/status", h.getStatus)
	r.Post("/status/refresh", h.refreshStatus)
}

func (h *statusHandler) getStatus(w http.ResponseWriter, _ *http.Request) {
	writeResult(w, view.NewStatusView(h.poller.State()))
}

func (h *statusHandler) refreshStatus(w http.ResponseWriter, r *http.Request) {
	refreshStatus(r.Context(), h.poller)
	writeResult(w, view.NewStatusView(h.poller.State()))
}
