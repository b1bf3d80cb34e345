package restapi

import (
	"encoding/json"
	"net/http"

	"github.com/webloader/dashboard/internal/querykind"

	"github.com/go-chi/chi/v5"
)

type queryHandler struct {
	dispatcher QueryDispatcher
}

func newQueryHandler(dispatcher QueryDispatcher) *queryHandler {
	return &queryHandler{
		dispatcher: dispatcher,
	}
}

func (h *queryHandler) handle(r chi.Router) {
	r.Get("/query-kinds", h.getKinds)
	r.Post("/queries", h.dispatchQuery)
}

type QueryKindOutput struct {
	querykind.Definition
	Required []querykind.Param `json:"required"`
}

func (h *queryHandler) getKinds(w http.ResponseWriter, _ *http.Request) {
	defs := querykind.All()

	out := make([]QueryKindOutput, 0, len(defs))
	for _, d := range defs {
		out = append(out, QueryKindOutput{
			Definition: d,
			Required:   d.Required(),
		})
	}

	writeResult(w, out)
}

type DispatchQueryInput struct {
	Kind   string            `json:"kind"`
	Params map[string]string `json:"params"`
}

// dispatchQuery always answers 200 when the request is well-formed:
// validation, backend and transport failures are error panels.
func (h *queryHandler) dispatchQuery(w http.ResponseWriter, r *http.Request) {
	var req DispatchQueryInput
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeResult(w, h.dispatcher.Dispatch(r.Context(), newSpec(req.Kind, req.Params)))
}

// newSpec normalizes the kind name, unknown kinds are kept as is and rejected by the dispatcher.
func newSpec(kind string, params map[string]string) querykind.Spec {
	k, err := querykind.Parse(kind)
	if err != nil {
		k = querykind.Kind(kind)
	}

	return querykind.Spec{Kind: k, Params: params}
}
