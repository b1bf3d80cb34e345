package querykind

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

type Kind string

const (
	WordSearch           Kind = "word-search"
	WordPair             Kind = "word-pair"
	WordTriplet          Kind = "word-triplet"
	SharedBigramsByPage  Kind = "shared-bigrams-by-page"
	SharedTrigramsByPage Kind = "shared-trigrams-by-page"
	DistinctWordsByPage  Kind = "distinct-words-by-page"
	LinkCountByPage      Kind = "link-count-by-page"
	WordPercentageByPage Kind = "word-percentage-by-page"
	WordRepetitionCount  Kind = "word-repetition-count"
	PageRepetitionCount  Kind = "page-repetition-count"
)

type Param string

const (
	ParamWord  Param = "word"
	ParamWord1 Param = "word1"
	ParamWord2 Param = "word2"
	ParamWord3 Param = "word3"
	ParamURL   Param = "url"
)

var ErrUnknownKind = errors.New("unknown query kind")

// Spec is a query kind with the parameters typed by the user.
type Spec struct {
	Kind   Kind              `json:"kind" yaml:"kind"`
	Params map[string]string `json:"params" yaml:"params"`
}

// Definition describes how a query kind is sent to the backend.
//
// Path and Title are templates: every {param} placeholder is replaced with the parameter value.
// Placeholders of Path are required parameters and are path-escaped, QueryParams are required
// as well and go to the query string.
type Definition struct {
	Kind        Kind    `json:"kind" yaml:"kind"`
	Label       string  `json:"label" yaml:"label"`
	Path        string  `json:"path" yaml:"path"`
	QueryParams []Param `json:"query_params,omitempty" yaml:"query_params,omitempty"`
	Title       string  `json:"title" yaml:"title"`
}

// Endpoint is a backend request ready to be sent.
type Endpoint struct {
	// Path is already escaped.
	Path  string
	Query url.Values
}

func (e Endpoint) String() string {
	if len(e.Query) == 0 {
		return e.Path
	}

	return e.Path + "?" + e.Query.Encode()
}

var definitions = []Definition{
	{
		Kind:  WordSearch,
		Label: "Top pages by word",
		Path:  "/api/analysis/word/{word}",
		Title: `Pages with the most occurrences of "{word}"`,
	},
	{
		Kind:  WordPair,
		Label: "Top pages by word pair",
		Path:  "/api/analysis/word-set2/{word1}/{word2}",
		Title: `Pages with the most occurrences of "{word1} {word2}"`,
	},
	{
		Kind:  WordTriplet,
		Label: "Top pages by word triplet",
		Path:  "/api/analysis/word-set3/{word1}/{word2}/{word3}",
		Title: `Pages with the most occurrences of "{word1} {word2} {word3}"`,
	},
	{
		Kind:        SharedBigramsByPage,
		Label:       "Pages sharing word pairs",
		Path:        "/api/analysis/shared-bigrams",
		QueryParams: []Param{ParamURL},
		Title:       "Pages sharing the most word pairs with {url}",
	},
	{
		Kind:        SharedTrigramsByPage,
		Label:       "Pages sharing word triplets",
		Path:        "/api/analysis/shared-trigrams",
		QueryParams: []Param{ParamURL},
		Title:       "Pages sharing the most word triplets with {url}",
	},
	{
		Kind:        DistinctWordsByPage,
		Label:       "Distinct words of a page",
		Path:        "/api/analysis/page-words",
		QueryParams: []Param{ParamURL},
		Title:       "Distinct words on {url}",
	},
	{
		Kind:        LinkCountByPage,
		Label:       "Link count of a page",
		Path:        "/api/analysis/page-links",
		QueryParams: []Param{ParamURL},
		Title:       "Distinct links on {url}",
	},
	{
		Kind:        WordPercentageByPage,
		Label:       "Word percentages of a page",
		Path:        "/api/analysis/page-word-percentages",
		QueryParams: []Param{ParamURL},
		Title:       "Word percentages on {url}",
	},
	{
		Kind:  WordRepetitionCount,
		Label: "Total repetitions of a word",
		Path:  "/api/analysis/word-repetitions/{word}",
		Title: `Total repetitions of "{word}"`,
	},
	{
		Kind:        PageRepetitionCount,
		Label:       "Total repetitions on a page",
		Path:        "/api/analysis/page-repetitions",
		QueryParams: []Param{ParamURL},
		Title:       "Total repetitions on {url}",
	},
}

var placeholder = regexp.MustCompile(`\{([a-z0-9_]+)\}`)

var definitionByKind = func() map[Kind]Definition {
	m := make(map[Kind]Definition, len(definitions))
	for _, d := range definitions {
		m[d.Kind] = d
	}

	return m
}()

// All returns the definitions in display order.
func All() []Definition {
	out := make([]Definition, len(definitions))
	copy(out, definitions)

	return out
}

func Lookup(kind Kind) (Definition, bool) {
	d, ok := definitionByKind[kind]
	return d, ok
}

// Parse accepts kind names case-insensitively, with either dashes or underscores.
func Parse(s string) (Kind, error) {
	k := Kind(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-"))
	if _, ok := definitionByKind[k]; !ok {
		return "", errors.Wrapf(ErrUnknownKind, "%q", s)
	}

	return k, nil
}

// Required lists the parameters the kind needs: path placeholders first, then query parameters.
func (d Definition) Required() []Param {
	var params []Param
	for _, m := range placeholder.FindAllStringSubmatch(d.Path, -1) {
		params = append(params, Param(m[1]))
	}

	return append(params, d.QueryParams...)
}

// Validate checks that every required parameter is present and not blank.
func (d Definition) Validate(params map[string]string) error {
	var missing []Param
	for _, p := range d.Required() {
		if strings.TrimSpace(params[string(p)]) == "" {
			missing = append(missing, p)
		}
	}

	if len(missing) > 0 {
		return &ValidationError{Kind: d.Kind, Missing: missing}
	}

	return nil
}

// Endpoint validates the parameters and builds the backend request.
func (d Definition) Endpoint(params map[string]string) (Endpoint, error) {
	err := d.Validate(params)
	if err != nil {
		return Endpoint{}, err
	}

	path := placeholder.ReplaceAllStringFunc(d.Path, func(m string) string {
		name := m[1 : len(m)-1]
		return url.PathEscape(strings.TrimSpace(params[name]))
	})

	e := Endpoint{Path: path}
	if len(d.QueryParams) > 0 {
		e.Query = make(url.Values, len(d.QueryParams))
		for _, p := range d.QueryParams {
			e.Query.Set(string(p), strings.TrimSpace(params[string(p)]))
		}
	}

	return e, nil
}

// RenderTitle fills the title template with the parameter values.
func (d Definition) RenderTitle(params map[string]string) string {
	return placeholder.ReplaceAllStringFunc(d.Title, func(m string) string {
		return strings.TrimSpace(params[m[1:len(m)-1]])
	})
}
