package render

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/webloader/dashboard/internal/analysisjob"
	"github.com/webloader/dashboard/internal/querykind"
	"github.com/webloader/dashboard/internal/view"
	"github.com/webloader/dashboard/pkg/webloaderapi"
)

func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// Panel writes a panel as a plain text table.
func Panel(w io.Writer, p *view.Panel) error {
	if p.Title != "" {
		fmt.Fprintln(w, p.Title)
	}

	switch p.State {
	case view.PanelError:
		_, err := fmt.Fprintf(w, "error (%s): %s\n", p.ErrorClass, p.Message)
		return err

	case view.PanelEmpty:
		_, err := fmt.Fprintln(w, p.Message)
		return err
	}

	tw := newTabWriter(w)
	fmt.Fprintln(tw, strings.Join(p.Headers(), "\t"))
	for _, row := range p.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}

	return tw.Flush()
}

func Status(w io.Writer, s view.StatusView) error {
	fmt.Fprintf(w, "%s (%s)\n", s.Text, s.Indicator)
	if s.Error != "" {
		fmt.Fprintf(w, "last poll failed: %s\n", s.Error)
	}
	if s.UpdatedAt != nil {
		fmt.Fprintf(w, "updated at %s\n", formatTime(*s.UpdatedAt))
	}

	if len(s.Services) == 0 {
		return nil
	}

	tw := newTabWriter(w)
	fmt.Fprintln(tw, "SERVICE\tSTATE\tSTATUS\tID")
	for _, svc := range s.Services {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", svc.Name, svc.Label, svc.Status, svc.ID)
	}

	return tw.Flush()
}

func Results(w io.Writer, r *view.ResultsView) error {
	tw := newTabWriter(w)
	fmt.Fprintf(tw, "Pages analysed\t%d\n", r.Summary.TotalPages)
	fmt.Fprintf(tw, "Unique words\t%d\n", r.Summary.TotalWords)
	fmt.Fprintf(tw, "Word pairs\t%d\n", r.Summary.TotalWordPairs)
	fmt.Fprintf(tw, "Word triplets\t%d\n", r.Summary.TotalWordTriplets)
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, p := range []*view.Panel{r.Words, r.Pairs, r.Triplets} {
		fmt.Fprintln(w)
		if err := Panel(w, p); err != nil {
			return err
		}
	}

	return nil
}

func Job(w io.Writer, j *analysisjob.Job) error {
	tw := newTabWriter(w)
	fmt.Fprintf(tw, "Job\t%s\n", j.ID)
	fmt.Fprintf(tw, "Process ID\t%s\n", j.BackendID)
	fmt.Fprintf(tw, "Analysis\t%s\n", j.AnalysisType)
	fmt.Fprintf(tw, "Status\t%s\n", j.Status)
	fmt.Fprintf(tw, "Message\t%s\n", j.Message)
	fmt.Fprintf(tw, "Watch\t%s (%d/%d checks)\n", j.State, j.Attempts, j.MaxAttempts)
	if j.Error != "" {
		fmt.Fprintf(tw, "Last error\t%s\n", j.Error)
	}
	if j.Summary != nil {
		fmt.Fprintf(tw, "Pages analysed\t%d\n", j.Summary.TotalPages)
	}

	return tw.Flush()
}

func Kinds(w io.Writer, defs []querykind.Definition) error {
	tw := newTabWriter(w)
	fmt.Fprintln(tw, "KIND\tREQUIRED\tDESCRIPTION")
	for _, d := range defs {
		required := make([]string, 0, 3)
		for _, p := range d.Required() {
			required = append(required, string(p))
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\n", d.Kind, strings.Join(required, ","), d.Label)
	}

	return tw.Flush()
}

func HelperPages(w io.Writer, pages []webloaderapi.HelperPage) error {
	tw := newTabWriter(w)
	fmt.Fprintln(tw, "URL\tTITLE")
	for _, p := range pages {
		fmt.Fprintf(tw, "%s\t%s\n", p.URL, p.Title)
	}

	return tw.Flush()
}

func lines(w io.Writer, items []string) error {
	for _, item := range items {
		if _, err := fmt.Fprintln(w, item); err != nil {
			return err
		}
	}

	return nil
}
