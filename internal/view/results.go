package view

import (
	"github.com/webloader/dashboard/pkg/webloaderapi"
)

var (
	WordColumns = []Column{
		{Key: "word", Header: "Word"},
		{Key: "page_title", Header: "Page"},
		{Key: "quantity", Header: "Frequency"},
	}
	WordPairColumns = []Column{
		{Key: "word_pair", Header: "Word Pair"},
		{Key: "page_title", Header: "Page"},
		{Key: "repetition_count", Header: "Frequency"},
	}
	WordTripletColumns = []Column{
		{Key: "word_triplet", Header: "Word Triplet"},
		{Key: "page_title", Header: "Page"},
		{Key: "repetition_count", Header: "Frequency"},
	}
)

// ResultsView is the analysis summary with the top words, pairs and triplets per page.
type ResultsView struct {
	Summary  webloaderapi.ResultsSummary `json:"summary" yaml:"summary"`
	Words    *Panel                      `json:"words" yaml:"words"`
	Pairs    *Panel                      `json:"pairs" yaml:"pairs"`
	Triplets *Panel                      `json:"triplets" yaml:"triplets"`
}

func NewResultsView(summary webloaderapi.ResultsSummary, words, pairs, triplets []webloaderapi.Row) *ResultsView {
	return &ResultsView{
		Summary:  summary,
		Words:    NewFixedTablePanel("Top Words per Page", WordColumns, words),
		Pairs:    NewFixedTablePanel("Top Word Pairs per Page", WordPairColumns, pairs),
		Triplets: NewFixedTablePanel("Top Word Triplets per Page", WordTripletColumns, triplets),
	}
}
