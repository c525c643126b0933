// Package schedule advances subscription billing dates through elapsed cycles.
//
// Each billing cycle has its own Stepper that knows how many calendar months
// one cycle spans. Dates are always stepped from their original anchor, so a
// subscription that bills on the 31st keeps doing so in every month that has
// one and falls back to the last day of shorter months.
package schedule

import (
	"fmt"
	"time"

	"subwise/internal/core"
)

// Stepper is the strategy interface for a billing cycle.
type Stepper interface {
	// Months returns the length of one cycle in calendar months.
	Months() int
}

// MonthlyStepper bills every calendar month.
type MonthlyStepper struct{}

func (MonthlyStepper) Months() int { return 1 }

// QuarterlyStepper bills every three calendar months.
type QuarterlyStepper struct{}

func (QuarterlyStepper) Months() int { return 3 }

// YearlyStepper bills once a year on the anniversary.
type YearlyStepper struct{}

func (YearlyStepper) Months() int { return 12 }

var steppers = map[core.BillingCycle]Stepper{
	core.Monthly:   MonthlyStepper{},
	core.Quarterly: QuarterlyStepper{},
	core.Yearly:    YearlyStepper{},
}

// StepperFor returns the stepper for a billing cycle.
// Returns an error if the cycle is not supported.
func StepperFor(cycle core.BillingCycle) (Stepper, error) {
	s, ok := steppers[cycle]
	if !ok {
		return nil, fmt.Errorf("unknown billing cycle: %s", cycle)
	}
	return s, nil
}

// AddCycles returns date moved forward by k whole cycles.
func AddCycles(date core.Date, cycle core.BillingCycle, k int) (core.Date, error) {
	s, err := StepperFor(cycle)
	if err != nil {
		return date, err
	}
	return addMonths(date, k*s.Months()), nil
}

// Advance returns date + k cycles for the smallest k >= 0 that is not before
// today. Dates on or after today come back unchanged, as does a date with an
// unknown cycle.
func Advance(date core.Date, cycle core.BillingCycle, today core.Date) core.Date {
	if !date.Before(today) {
		return date
	}
	s, err := StepperFor(cycle)
	if err != nil {
		return date
	}
	step := s.Months()

	// Every offset shorter than the month gap lands in an earlier month, so
	// the estimate never overshoots the smallest k.
	k := monthsBetween(date, today) / step
	next := addMonths(date, k*step)
	for next.Before(today) {
		k++
		next = addMonths(date, k*step)
	}
	return next
}

// addMonths moves date by n calendar months, clamping the day to the last
// day of the target month.
func addMonths(date core.Date, n int) core.Date {
	first := time.Date(date.Year(), time.Month(date.Month()+n), 1, 0, 0, 0, 0, time.UTC)
	day := min(date.Day(), daysIn(first.Year(), first.Month()))
	return core.NewDate(first.Year(), int(first.Month()), day)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func monthsBetween(from, to core.Date) int {
	return (to.Year()-from.Year())*12 + to.Month() - from.Month()
}
