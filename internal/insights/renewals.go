package insights

import (
	"slices"

	"github.com/shopspring/decimal"

	"subwise/internal/core"
)

// UpcomingRenewals returns active and trial subscriptions billing within
// [today, today+windowDays], ordered by date. Records sharing a date keep
// their collection order. A negative window selects nothing.
func UpcomingRenewals(subs []core.Subscription, today core.Date, windowDays int) []core.Subscription {
	out := []core.Subscription{}
	if windowDays < 0 {
		return out
	}
	end := today.AddDays(windowDays)
	for _, sub := range subs {
		if !sub.Status.Billable() {
			continue
		}
		if sub.NextBilling.Before(today) || sub.NextBilling.After(end) {
			continue
		}
		out = append(out, sub)
	}
	slices.SortStableFunc(out, func(a, b core.Subscription) int {
		return a.NextBilling.Compare(b.NextBilling)
	})
	return out
}

// RenewalsOn returns the active and trial subscriptions billing on date.
func RenewalsOn(subs []core.Subscription, date core.Date) []core.Subscription {
	return UpcomingRenewals(subs, date, 0)
}

// UpcomingTotal sums the raw cost charged by a list of renewals.
func UpcomingTotal(renewals []core.Subscription) decimal.Decimal {
	total := decimal.Zero
	for _, sub := range renewals {
		total = total.Add(sub.Cost)
	}
	return total
}
