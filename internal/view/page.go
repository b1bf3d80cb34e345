package view

import (
	"time"

	"github.com/webloader/dashboard/internal/analysisjob"
	"github.com/webloader/dashboard/internal/dockerstatus"
	"github.com/webloader/dashboard/internal/querykind"
	"github.com/webloader/dashboard/pkg/webloaderapi"
)

// Page is everything a dashboard page shows. It is built for every request.
type Page struct {
	Status StatusView

	Kinds         []querykind.Definition
	AnalysisTypes []analysisjob.AnalysisType

	// Query is the last dispatched query, used to fill the form again.
	Query *querykind.Spec
	Panel *Panel

	Job     *analysisjob.Job
	Results *ResultsView

	// Alert is an error that does not belong to a panel, e.g. a rejected analysis.
	Alert *Panel

	HelperPages []webloaderapi.HelperPage
	HelperWords []string

	// Busy is set while queries are still waiting for the backend.
	Busy bool

	GeneratedAt time.Time
}

func NewPage(state dockerstatus.State) *Page {
	return &Page{
		Status:        NewStatusView(state),
		Kinds:         querykind.All(),
		AnalysisTypes: analysisjob.Types,
		GeneratedAt:   time.Now(),
	}
}

// Param returns the value of a query parameter typed by the user.
func (p *Page) Param(name string) string {
	if p.Query == nil {
		return ""
	}

	return p.Query.Params[name]
}

// SelectedKind returns the kind of the last query, or the first kind.
func (p *Page) SelectedKind() querykind.Kind {
	if p.Query != nil {
		return p.Query.Kind
	}
	if len(p.Kinds) > 0 {
		return p.Kinds[0].Kind
	}

	return ""
}
