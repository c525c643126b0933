package insights

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subwise/internal/core"
)

var today = core.NewDate(2024, 8, 10)

func sub(id string, cost string, cycle core.BillingCycle, status core.Status) core.Subscription {
	return core.Subscription{
		ID:           id,
		Name:         id,
		Category:     core.Entertainment,
		Cost:         decimal.RequireFromString(cost),
		BillingCycle: cycle,
		NextBilling:  today,
		Status:       status,
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestNormalizedMonthlyCost(t *testing.T) {
	tests := []struct {
		cycle core.BillingCycle
		cost  string
		want  string
	}{
		{core.Monthly, "12", "12"},
		{core.Quarterly, "30", "10"},
		{core.Yearly, "120", "10"},
		{core.Yearly, "119.88", "9.99"},
	}
	for _, tt := range tests {
		t.Run(string(tt.cycle), func(t *testing.T) {
			got := NormalizedMonthlyCost(sub("x", tt.cost, tt.cycle, core.StatusActive))
			assert.True(t, got.Equal(dec(tt.want)), "got %s want %s", got, tt.want)
		})
	}
}

func TestTotalMonthlySpend(t *testing.T) {
	subs := []core.Subscription{
		sub("a", "12", core.Monthly, core.StatusActive),
		sub("b", "120", core.Yearly, core.StatusActive),
		sub("c", "9", core.Monthly, core.StatusCancelled),
	}
	assert.True(t, TotalMonthlySpend(subs).Equal(dec("22")))
	assert.True(t, YearlyProjection(subs).Equal(dec("264")))

	withTrial := append(subs, sub("d", "20", core.Monthly, core.StatusTrial))
	assert.True(t, TotalMonthlySpend(withTrial).Equal(dec("22")), "trials are excluded")

	assert.True(t, TotalMonthlySpend(nil).IsZero())
}

func TestCategorySpend(t *testing.T) {
	health := sub("gym", "50", core.Monthly, core.StatusActive)
	health.Category = core.Health
	cancelled := sub("old", "9", core.Monthly, core.StatusCancelled)
	cancelled.Category = core.Finance
	trial := sub("ai", "20", core.Monthly, core.StatusTrial)
	trial.Category = core.Productivity

	got := CategorySpend([]core.Subscription{
		sub("tv", "15", core.Monthly, core.StatusActive),
		sub("music", "36", core.Quarterly, core.StatusActive),
		health, cancelled, trial,
	})

	require.Len(t, got, 2)
	assert.True(t, got[core.Entertainment].Equal(dec("27")))
	assert.True(t, got[core.Health].Equal(dec("50")))
	_, ok := got[core.Finance]
	assert.False(t, ok, "categories without active spend are absent")
	_, ok = got[core.Productivity]
	assert.False(t, ok)

	assert.Empty(t, CategorySpend(nil))
}

func TestCategoryBreakdown(t *testing.T) {
	health := sub("gym", "25", core.Monthly, core.StatusActive)
	health.Category = core.Health
	finance := sub("bank", "25", core.Monthly, core.StatusActive)
	finance.Category = core.Finance

	got := CategoryBreakdown([]core.Subscription{
		sub("tv", "50", core.Monthly, core.StatusActive),
		health, finance,
	})

	require.Len(t, got, 3)
	assert.Equal(t, core.Entertainment, got[0].Category)
	assert.Equal(t, int64(50), got[0].Percent)
	// ties broken by category name
	assert.Equal(t, core.Finance, got[1].Category)
	assert.Equal(t, core.Health, got[2].Category)
	assert.Equal(t, int64(25), got[2].Percent)

	assert.Empty(t, CategoryBreakdown(nil))
}

func TestUpcomingRenewals(t *testing.T) {
	at := func(s core.Subscription, d core.Date) core.Subscription { s.NextBilling = d; return s }
	subs := []core.Subscription{
		at(sub("past", "20", core.Monthly, core.StatusTrial), core.NewDate(2024, 8, 8)),
		at(sub("soon", "10", core.Monthly, core.StatusActive), core.NewDate(2024, 8, 12)),
		at(sub("later", "5", core.Monthly, core.StatusActive), core.NewDate(2024, 8, 25)),
	}

	got := UpcomingRenewals(subs, today, 7)
	require.Len(t, got, 1)
	assert.Equal(t, "soon", got[0].ID)

	t.Run("window bounds are inclusive", func(t *testing.T) {
		edge := []core.Subscription{
			at(sub("end", "1", core.Monthly, core.StatusActive), today.AddDays(7)),
			at(sub("start", "1", core.Monthly, core.StatusTrial), today),
		}
		got := UpcomingRenewals(edge, today, 7)
		require.Len(t, got, 2)
		assert.Equal(t, "start", got[0].ID)
		assert.Equal(t, "end", got[1].ID)
	})

	t.Run("cancelled excluded", func(t *testing.T) {
		got := UpcomingRenewals([]core.Subscription{sub("c", "1", core.Monthly, core.StatusCancelled)}, today, 7)
		assert.Empty(t, got)
	})

	t.Run("stable for equal dates", func(t *testing.T) {
		d := core.NewDate(2024, 8, 11)
		same := []core.Subscription{
			at(sub("z", "1", core.Monthly, core.StatusActive), core.NewDate(2024, 8, 12)),
			at(sub("b", "1", core.Monthly, core.StatusActive), d),
			at(sub("a", "1", core.Monthly, core.StatusActive), d),
		}
		got := UpcomingRenewals(same, today, 7)
		assert.Equal(t, []string{"b", "a", "z"}, ids(got))
	})

	t.Run("negative window", func(t *testing.T) {
		assert.Empty(t, UpcomingRenewals(subs, today, -1))
	})

	t.Run("empty input", func(t *testing.T) {
		got := UpcomingRenewals(nil, today, 7)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}

func TestRenewalsOnAndTotal(t *testing.T) {
	a := sub("a", "9.99", core.Monthly, core.StatusActive)
	b := sub("b", "20", core.Monthly, core.StatusTrial)
	c := sub("c", "5", core.Monthly, core.StatusCancelled)
	d := sub("d", "7", core.Monthly, core.StatusActive)
	d.NextBilling = today.AddDays(1)

	got := RenewalsOn([]core.Subscription{a, b, c, d}, today)
	assert.Equal(t, []string{"a", "b"}, ids(got))
	assert.True(t, UpcomingTotal(got).Equal(dec("29.99")))
}

func TestSummarize(t *testing.T) {
	a := sub("a", "12", core.Monthly, core.StatusActive)
	a.NextBilling = core.NewDate(2024, 8, 12)
	b := sub("b", "120", core.Yearly, core.StatusActive)
	b.NextBilling = core.NewDate(2024, 12, 1)
	c := sub("c", "20", core.Monthly, core.StatusTrial)
	c.NextBilling = core.NewDate(2024, 8, 14)

	o := Summarize([]core.Subscription{a, b, c}, today, 7)
	assert.True(t, o.MonthlySpend.Equal(dec("22")))
	assert.True(t, o.YearlyProjection.Equal(dec("264")))
	assert.Equal(t, 2, o.ActiveCount)
	assert.Equal(t, 1, o.TrialCount)
	assert.Equal(t, []string{"a", "c"}, ids(o.UpcomingRenewals))
	assert.True(t, o.UpcomingTotal.Equal(dec("32")))
	require.Len(t, o.Categories, 1)
	assert.Equal(t, int64(100), o.Categories[0].Percent)
}

func ids(subs []core.Subscription) []string {
	out := make([]string, len(subs))
	for i, s := range subs {
		out[i] = s.ID
	}
	return out
}
