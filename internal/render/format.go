package render

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/webloader/dashboard/internal/analysisjob"
	"github.com/webloader/dashboard/internal/querykind"
	"github.com/webloader/dashboard/internal/view"
	"github.com/webloader/dashboard/pkg/webloaderapi"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

var ErrUnknownFormat = errors.New("unknown output format")

func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", errors.Wrapf(ErrUnknownFormat, "%q", s)
	}
}

// Write encodes v in the given format. Values without a text layout are written as YAML.
func Write(w io.Writer, format Format, v interface{}) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return errors.Wrap(enc.Encode(v), "json encode failed")

	case FormatYAML:
		return writeYAML(w, v)

	case FormatText:
		return writeText(w, v)

	default:
		return errors.Wrapf(ErrUnknownFormat, "%q", format)
	}
}

func writeText(w io.Writer, v interface{}) error {
	switch v := v.(type) {
	case *view.Panel:
		return Panel(w, v)
	case view.StatusView:
		return Status(w, v)
	case *view.ResultsView:
		return Results(w, v)
	case *analysisjob.Job:
		return Job(w, v)
	case []querykind.Definition:
		return Kinds(w, v)
	case []webloaderapi.HelperPage:
		return HelperPages(w, v)
	case []string:
		return lines(w, v)
	default:
		return writeYAML(w, v)
	}
}

func writeYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	err := enc.Encode(v)
	if err != nil {
		return errors.Wrap(err, "yaml encode failed")
	}

	return errors.Wrap(enc.Close(), "yaml encode failed")
}
