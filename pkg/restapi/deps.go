package restapi

import (
	"context"
	"io"

	"github.com/webloader/dashboard/internal/analysisjob"
	"github.com/webloader/dashboard/internal/dockerstatus"
	"github.com/webloader/dashboard/internal/querykind"
	"github.com/webloader/dashboard/internal/view"
	"github.com/webloader/dashboard/pkg/webloaderapi"
)

type StatusPoller interface {
	State() dockerstatus.State
	Refresh(ctx context.Context) dockerstatus.State
}

type QueryDispatcher interface {
	Dispatch(ctx context.Context, spec querykind.Spec) *view.Panel
	Busy() bool
}

type JobService interface {
	Submit(ctx context.Context, form map[string]string) (*analysisjob.Job, error)
	Get(ctx context.Context, id string) (*analysisjob.Job, error)
}

type ResultsLoader interface {
	Load(ctx context.Context, limit int) (*view.ResultsView, error)
}

type HelperSource interface {
	HelperPages(ctx context.Context, limit int) ([]webloaderapi.HelperPage, error)
	HelperWords(ctx context.Context, limit int) ([]string, error)
}

type PageRenderer interface {
	Page(w io.Writer, page *view.Page) error
}

// Deps are the components the handlers are built on.
type Deps struct {
	Status     StatusPoller
	Dispatcher QueryDispatcher
	Jobs       JobService
	Results    ResultsLoader
	Helpers    HelperSource
	HTML       PageRenderer
}
