package render

import (
	"bytes"
	"embed"
	"html/template"
	"io"
	"time"

	"github.com/webloader/dashboard/internal/view"

	"github.com/pkg/errors"
)

//go:embed templates/*.html
var templateFS embed.FS

const timeLayout = "2006-01-02 15:04:05 MST"

// HTML renders dashboard pages.
type HTML struct {
	tmpl *template.Template
}

func NewHTML() (*HTML, error) {
	tmpl, err := template.New("dashboard").
		Funcs(template.FuncMap{
			"fmtTime": formatTime,
		}).
		ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse templates")
	}

	return &HTML{tmpl: tmpl}, nil
}

// Page renders the whole page. Nothing is written to w if rendering fails.
func (h *HTML) Page(w io.Writer, page *view.Page) error {
	var buf bytes.Buffer

	err := h.tmpl.ExecuteTemplate(&buf, "layout", page)
	if err != nil {
		return errors.Wrap(err, "failed to execute template")
	}

	_, err = buf.WriteTo(w)

	return err
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}

	return t.Local().Format(timeLayout)
}
