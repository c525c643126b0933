package insights

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subwise/internal/core"
)

func TestQueryApply(t *testing.T) {
	netflix := sub("netflix", "15.99", core.Monthly, core.StatusActive)
	netflix.Name = "Netflix"
	netflix.NextBilling = core.NewDate(2024, 8, 15)
	spotify := sub("spotify", "9.99", core.Monthly, core.StatusActive)
	spotify.Name = "spotify Premium"
	spotify.NextBilling = core.NewDate(2024, 8, 12)
	adobe := sub("adobe", "52.99", core.Monthly, core.StatusTrial)
	adobe.Name = "Adobe"
	adobe.Category = core.Productivity
	adobe.NextBilling = core.NewDate(2024, 8, 20)
	subs := []core.Subscription{netflix, spotify, adobe}

	tests := []struct {
		name  string
		query Query
		want  []string
	}{
		{"default sorts by name ignoring case", Query{}, []string{"adobe", "netflix", "spotify"}},
		{"cost descending", Query{SortBy: SortByCost}, []string{"adobe", "netflix", "spotify"}},
		{"date ascending", Query{SortBy: SortByDate}, []string{"spotify", "netflix", "adobe"}},
		{"search is case insensitive", Query{Search: " PREM "}, []string{"spotify"}},
		{"category filter", Query{Category: core.Productivity}, []string{"adobe"}},
		{"status filter", Query{Status: core.StatusActive, SortBy: SortByDate}, []string{"spotify", "netflix"}},
		{"no match", Query{Search: "hulu"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(tt.query.Apply(subs)))
		})
	}

	assert.Equal(t, "netflix", subs[0].ID, "input must not be reordered")
}

func TestParseSortKey(t *testing.T) {
	for in, want := range map[string]SortKey{"": SortByName, "Cost": SortByCost, "date": SortByDate, "name": SortByName} {
		got, err := ParseSortKey(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseSortKey("price")
	assert.Error(t, err)
}
