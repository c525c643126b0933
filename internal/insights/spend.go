// Package insights derives spending figures and renewal windows from a
// snapshot of the collection. Everything here is a pure read: nothing is
// stored and nothing is cached.
package insights

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"

	"subwise/internal/core"
)

var (
	three  = decimal.NewFromInt(3)
	twelve = decimal.NewFromInt(12)
)

// NormalizedMonthlyCost rescales the cost of one billing cycle to a monthly
// equivalent.
func NormalizedMonthlyCost(sub core.Subscription) decimal.Decimal {
	switch sub.BillingCycle {
	case core.Quarterly:
		return sub.Cost.Div(three)
	case core.Yearly:
		return sub.Cost.Div(twelve)
	default:
		return sub.Cost
	}
}

// TotalMonthlySpend sums the normalized monthly cost of active subscriptions.
// Trials and cancelled subscriptions are not billed yet or any more.
func TotalMonthlySpend(subs []core.Subscription) decimal.Decimal {
	total := decimal.Zero
	for _, sub := range subs {
		if sub.Status == core.StatusActive {
			total = total.Add(NormalizedMonthlyCost(sub))
		}
	}
	return total
}

// YearlyProjection is the monthly spend over twelve months.
func YearlyProjection(subs []core.Subscription) decimal.Decimal {
	return TotalMonthlySpend(subs).Mul(twelve)
}

// CategorySpend maps each category with at least one active subscription to
// its monthly spend.
func CategorySpend(subs []core.Subscription) map[core.Category]decimal.Decimal {
	out := make(map[core.Category]decimal.Decimal)
	for _, sub := range subs {
		if sub.Status != core.StatusActive {
			continue
		}
		out[sub.Category] = out[sub.Category].Add(NormalizedMonthlyCost(sub))
	}
	return out
}

// CategoryShare is one row of a category breakdown.
type CategoryShare struct {
	Category core.Category
	Amount   decimal.Decimal
	Percent  int64
}

// CategoryBreakdown lists category spend with its share of the monthly total,
// largest first.
func CategoryBreakdown(subs []core.Subscription) []CategoryShare {
	spend := CategorySpend(subs)
	total := decimal.Zero
	for _, amount := range spend {
		total = total.Add(amount)
	}

	out := make([]CategoryShare, 0, len(spend))
	for category, amount := range spend {
		share := CategoryShare{Category: category, Amount: amount}
		if total.IsPositive() {
			share.Percent = amount.Div(total).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
		}
		out = append(out, share)
	}
	slices.SortFunc(out, func(a, b CategoryShare) int {
		if c := b.Amount.Cmp(a.Amount); c != 0 {
			return c
		}
		return cmp.Compare(a.Category, b.Category)
	})
	return out
}

// Active returns the subscriptions with status active.
func Active(subs []core.Subscription) []core.Subscription {
	return withStatus(subs, core.StatusActive)
}

// Trials returns the subscriptions still in their trial period.
func Trials(subs []core.Subscription) []core.Subscription {
	return withStatus(subs, core.StatusTrial)
}

func withStatus(subs []core.Subscription, status core.Status) []core.Subscription {
	out := make([]core.Subscription, 0, len(subs))
	for _, sub := range subs {
		if sub.Status == status {
			out = append(out, sub)
		}
	}
	return out
}
