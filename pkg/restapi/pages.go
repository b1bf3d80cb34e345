package restapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/webloader/dashboard/internal/analysisjob"
	"github.com/webloader/dashboard/internal/querykind"
	"github.com/webloader/dashboard/internal/results"
	"github.com/webloader/dashboard/internal/view"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

var queryFormFields = []querykind.Param{
	querykind.ParamWord,
	querykind.ParamWord1,
	querykind.ParamWord2,
	querykind.ParamWord3,
	querykind.ParamURL,
}

// pageHandler serves the server-rendered dashboard.
type pageHandler struct {
	deps Deps
}

func newPageHandler(deps Deps) *pageHandler {
	return &pageHandler{
		deps: deps,
	}
}

func (h *pageHandler) handle(r chi.Router) {
	r.Get("/", h.index)
	r.Post("/queries", h.dispatchQuery)
	r.Post("/analysis", h.submitAnalysis)
	r.Get("/analysis/{id}", h.getJob)
	r.Get("/results", h.getResults)
	r.Post("/status/refresh", h.refreshStatus)
}

func (h *pageHandler) newPage(ctx context.Context) *view.Page {
	page := h.newBarePage()
	h.loadHelpers(ctx, page)

	return page
}

// newBarePage builds a page without form suggestions, so rendering it sends no backend request.
func (h *pageHandler) newBarePage() *view.Page {
	page := view.NewPage(h.deps.Status.State())
	page.Busy = h.deps.Dispatcher.Busy()

	return page
}

// loadHelpers fills the form suggestions. Suggestions are optional, failures are only logged.
func (h *pageHandler) loadHelpers(ctx context.Context, page *view.Page) {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		page.HelperPages, err = h.deps.Helpers.HelperPages(gctx, 0)
		return errors.Wrap(err, "helper pages")
	})
	g.Go(func() (err error) {
		page.HelperWords, err = h.deps.Helpers.HelperWords(gctx, 0)
		return errors.Wrap(err, "helper words")
	})

	err := g.Wait()
	if err != nil {
		zlog.Debug().Err(err).Msg("form suggestions are unavailable")
	}
}

func (h *pageHandler) render(w http.ResponseWriter, page *view.Page, code int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	var buf strings.Builder
	err := h.deps.HTML.Page(&buf, page)
	if err != nil {
		zlog.Error().Err(err).Msg("page rendering failed")
		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	w.WriteHeader(code)
	_, _ = w.Write([]byte(buf.String()))
}

func (h *pageHandler) index(w http.ResponseWriter, r *http.Request) {
	h.render(w, h.newPage(r.Context()), http.StatusOK)
}

func (h *pageHandler) dispatchQuery(w http.ResponseWriter, r *http.Request) {
	err := r.ParseForm()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	params := make(map[string]string, len(queryFormFields))
	for _, p := range queryFormFields {
		if v := r.PostForm.Get(string(p)); v != "" {
			params[string(p)] = v
		}
	}

	spec := newSpec(r.PostForm.Get("kind"), params)
	panel := h.deps.Dispatcher.Dispatch(r.Context(), spec)

	// The query panel is the only backend request of a submission.
	page := h.newBarePage()
	page.Query = &spec
	page.Panel = panel

	h.render(w, page, http.StatusOK)
}

func (h *pageHandler) submitAnalysis(w http.ResponseWriter, r *http.Request) {
	err := r.ParseForm()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	form := make(map[string]string, len(r.PostForm))
	for k := range r.PostForm {
		form[k] = r.PostForm.Get(k)
	}

	job, err := h.deps.Jobs.Submit(r.Context(), form)
	if err != nil {
		msg, code := submitError(err)
		if code != http.StatusBadRequest {
			zlog.Error().Err(err).Interface("form", form).Msg("analysis submission failed")
		}

		page := h.newBarePage()
		page.Alert = view.NewErrorPanel("Analysis", submitErrorClass(err), msg)
		h.render(w, page, code)

		return
	}

	http.Redirect(w, r, "/analysis/"+job.ID, http.StatusSeeOther)
}

func submitErrorClass(err error) view.ErrorClass {
	if analysisjob.IsValidation(err) {
		return view.ErrorValidation
	}

	class, _ := view.ClassifyError(err, "")

	return class
}

func (h *pageHandler) getJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	page := h.newPage(r.Context())

	job, err := h.deps.Jobs.Get(r.Context(), id)
	if err != nil {
		code := http.StatusInternalServerError
		msg := "internal error"
		if errors.Is(err, analysisjob.ErrNotFound) {
			code, msg = http.StatusNotFound, "job not found"
		} else {
			zlog.Error().Err(err).Str("id", id).Msg("failed to find a job")
		}

		page.Alert = view.NewErrorPanel("Analysis", view.ErrorApplication, msg)
		h.render(w, page, code)

		return
	}

	page.Job = job
	h.render(w, page, http.StatusOK)
}

func (h *pageHandler) getResults(w http.ResponseWriter, r *http.Request) {
	page := h.newPage(r.Context())

	limit, err := parseLimit(r)
	if err != nil {
		page.Alert = view.NewErrorPanel("Results", view.ErrorValidation, err.Error())
		h.render(w, page, http.StatusBadRequest)

		return
	}

	v, err := h.deps.Results.Load(r.Context(), limit)
	if err != nil {
		zlog.Warn().Err(err).Msg("results loading failed")

		class, _ := view.ClassifyError(err, "")
		page.Alert = view.NewErrorPanel("Results", class, results.LoadFailedMessage)
		h.render(w, page, http.StatusBadGateway)

		return
	}

	page.Results = v
	h.render(w, page, http.StatusOK)
}

func (h *pageHandler) refreshStatus(w http.ResponseWriter, r *http.Request) {
	refreshStatus(r.Context(), h.deps.Status)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
