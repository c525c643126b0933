package insights

import (
	"github.com/shopspring/decimal"

	"subwise/internal/core"
)

// Overview bundles the dashboard figures computed from one snapshot.
type Overview struct {
	Today            core.Date
	MonthlySpend     decimal.Decimal
	YearlyProjection decimal.Decimal
	ActiveCount      int
	TrialCount       int
	Categories       []CategoryShare
	WindowDays       int
	UpcomingRenewals []core.Subscription
	UpcomingTotal    decimal.Decimal
}

// Summarize computes the overview for today with the given renewal window.
func Summarize(subs []core.Subscription, today core.Date, windowDays int) Overview {
	monthly := TotalMonthlySpend(subs)
	upcoming := UpcomingRenewals(subs, today, windowDays)
	return Overview{
		Today:            today,
		MonthlySpend:     monthly,
		YearlyProjection: monthly.Mul(twelve),
		ActiveCount:      len(Active(subs)),
		TrialCount:       len(Trials(subs)),
		Categories:       CategoryBreakdown(subs),
		WindowDays:       windowDays,
		UpcomingRenewals: upcoming,
		UpcomingTotal:    UpcomingTotal(upcoming),
	}
}
