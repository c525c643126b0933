package schedule

import "subwise/internal/core"

// NormalizeOne advances sub.NextBilling until it is no longer before today.
// The bool reports whether the date moved.
func NormalizeOne(sub core.Subscription, today core.Date) (core.Subscription, bool) {
	next := Advance(sub.NextBilling, sub.BillingCycle, today)
	if next.Equal(sub.NextBilling) {
		return sub, false
	}
	sub.NextBilling = next
	return sub, true
}

// NormalizeAll returns a normalized copy of subs and the ids whose date
// advanced, in collection order. The input slice is not modified.
func NormalizeAll(subs []core.Subscription, today core.Date) ([]core.Subscription, []string) {
	out := make([]core.Subscription, len(subs))
	var advanced []string
	for i, s := range subs {
		n, moved := NormalizeOne(s, today)
		out[i] = n
		if moved {
			advanced = append(advanced, n.ID)
		}
	}
	return out, advanced
}
