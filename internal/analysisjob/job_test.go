package analysisjob

import (
	"testing"

	"github.com/webloader/dashboard/pkg/webloaderapi"

	"github.com/stretchr/testify/assert"
)

func TestResultsReady(t *testing.T) {
	baseline := &webloaderapi.ResultsSummary{TotalPages: 10, TotalWords: 500}

	cases := []struct {
		name     string
		baseline *webloaderapi.ResultsSummary
		current  webloaderapi.ResultsSummary
		want     bool
	}{
		{
			name:     "no pages yet",
			baseline: nil,
			current:  webloaderapi.ResultsSummary{},
			want:     false,
		},
		{
			name:     "no baseline and pages",
			baseline: nil,
			current:  webloaderapi.ResultsSummary{TotalPages: 1},
			want:     true,
		},
		{
			name:     "same as baseline",
			baseline: baseline,
			current:  webloaderapi.ResultsSummary{TotalPages: 10, TotalWords: 500},
			want:     false,
		},
		{
			name:     "changed since baseline",
			baseline: baseline,
			current:  webloaderapi.ResultsSummary{TotalPages: 10, TotalWords: 500, TotalWordPairs: 42},
			want:     true,
		},
		{
			name:     "changed but empty",
			baseline: baseline,
			current:  webloaderapi.ResultsSummary{TotalWords: 3},
			want:     false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ResultsReady(tc.baseline, tc.current))
		})
	}
}

func TestState_Terminal(t *testing.T) {
	assert.False(t, StateSubmitted.Terminal())
	assert.False(t, StateWatching.Terminal())
	assert.True(t, StateReady.Terminal())
	assert.True(t, StateTimedOut.Terminal())
	assert.True(t, StateFailed.Terminal())
	assert.True(t, StateCancelled.Terminal())
}

func TestTypeLabel(t *testing.T) {
	for _, typ := range Types {
		assert.Equal(t, typ.Name, TypeLabel(typ.Name))
	}

	assert.Equal(t, OtherTypeLabel, TypeLabel("sentiment"))
	assert.Equal(t, OtherTypeLabel, TypeLabel("\xff"))
	assert.Equal(t, OtherTypeLabel, TypeLabel(""))
}
