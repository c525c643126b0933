package insights

import (
	"fmt"
	"slices"
	"strings"

	"subwise/internal/core"
)

// SortKey orders a list query.
type SortKey string

const (
	SortByName SortKey = "name"
	SortByCost SortKey = "cost"
	SortByDate SortKey = "date"
)

// ParseSortKey accepts name, cost or date. Empty means name.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return SortByName, nil
	case SortByName, SortByCost, SortByDate:
		return k, nil
	default:
		return "", fmt.Errorf("unknown sort key %q: must be name, cost or date", s)
	}
}

// Query filters and orders the collection for listing. Zero values match
// everything.
type Query struct {
	Search   string
	Category core.Category
	Status   core.Status
	SortBy   SortKey
}

// Apply returns the matching subscriptions in a new slice. Names sort
// ascending ignoring case, costs descending, dates ascending.
func (q Query) Apply(subs []core.Subscription) []core.Subscription {
	needle := strings.ToLower(strings.TrimSpace(q.Search))

	out := make([]core.Subscription, 0, len(subs))
	for _, sub := range subs {
		if needle != "" && !strings.Contains(strings.ToLower(sub.Name), needle) {
			continue
		}
		if q.Category != "" && sub.Category != q.Category {
			continue
		}
		if q.Status != "" && sub.Status != q.Status {
			continue
		}
		out = append(out, sub)
	}

	switch q.SortBy {
	case SortByCost:
		slices.SortStableFunc(out, func(a, b core.Subscription) int { return b.Cost.Cmp(a.Cost) })
	case SortByDate:
		slices.SortStableFunc(out, func(a, b core.Subscription) int { return a.NextBilling.Compare(b.NextBilling) })
	default:
		slices.SortStableFunc(out, func(a, b core.Subscription) int {
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		})
	}
	return out
}
