package view

import (
	"github.com/webloader/dashboard/pkg/webloaderapi"
)

type PanelState string

const (
	PanelTable PanelState = "table"
	PanelEmpty PanelState = "empty"
	PanelError PanelState = "error"
)

type ErrorClass string

const (
	ErrorValidation  ErrorClass = "validation"
	ErrorTransport   ErrorClass = "transport"
	ErrorApplication ErrorClass = "application"
)

const (
	MissingCell = "N/A"

	NoResultsMessage = "No results found"
	NoDataMessage    = "No data available"
)

type Column struct {
	Key    string `json:"key" yaml:"key"`
	Header string `json:"header" yaml:"header"`
}

// Panel is a rendered result area: a table, an explicit empty state or an error.
type Panel struct {
	State      PanelState `json:"state" yaml:"state"`
	Title      string     `json:"title" yaml:"title"`
	Columns    []Column   `json:"columns,omitempty" yaml:"columns,omitempty"`
	Rows       [][]string `json:"rows,omitempty" yaml:"rows,omitempty"`
	Message    string     `json:"message,omitempty" yaml:"message,omitempty"`
	ErrorClass ErrorClass `json:"error_class,omitempty" yaml:"error_class,omitempty"`
}

// NewTablePanel renders rows with the columns of the first row, headers are
// the column keys in Title Case. No rows produce the "no results" state.
func NewTablePanel(title string, rows []webloaderapi.Row) *Panel {
	if len(rows) == 0 {
		return NewEmptyPanel(title, NoResultsMessage)
	}

	keys := rows[0].Keys()
	columns := make([]Column, 0, len(keys))
	for _, key := range keys {
		columns = append(columns, Column{Key: key, Header: TitleCase(key)})
	}

	return newTable(title, columns, rows)
}

// NewFixedTablePanel renders rows with the given columns whatever keys the rows have.
func NewFixedTablePanel(title string, columns []Column, rows []webloaderapi.Row) *Panel {
	if len(rows) == 0 {
		return NewEmptyPanel(title, NoDataMessage)
	}

	return newTable(title, columns, rows)
}

func NewEmptyPanel(title string, message string) *Panel {
	return &Panel{
		State:   PanelEmpty,
		Title:   title,
		Message: message,
	}
}

func NewErrorPanel(title string, class ErrorClass, message string) *Panel {
	return &Panel{
		State:      PanelError,
		Title:      title,
		Message:    message,
		ErrorClass: class,
	}
}

func newTable(title string, columns []Column, rows []webloaderapi.Row) *Panel {
	p := &Panel{
		State:   PanelTable,
		Title:   title,
		Columns: columns,
		Rows:    make([][]string, 0, len(rows)),
	}

	for _, row := range rows {
		cells := make([]string, 0, len(columns))
		for _, col := range columns {
			cells = append(cells, cell(row, col.Key))
		}

		p.Rows = append(p.Rows, cells)
	}

	return p
}

func cell(row webloaderapi.Row, key string) string {
	f, ok := row.Get(key)
	if !ok || f.Null || f.Text == "" {
		return MissingCell
	}

	return f.Text
}

func (p *Panel) IsTable() bool {
	return p.State == PanelTable
}

func (p *Panel) IsEmpty() bool {
	return p.State == PanelEmpty
}

func (p *Panel) IsError() bool {
	return p.State == PanelError
}

// Headers returns the column headers in order.
func (p *Panel) Headers() []string {
	headers := make([]string, 0, len(p.Columns))
	for _, c := range p.Columns {
		headers = append(headers, c.Header)
	}

	return headers
}
