package core

import "time"

// Clock supplies "today". Everything that depends on the current date takes
// one so that tests can pin it.
type Clock interface {
	Today() Date
}

// SystemClock reads the wall clock in Location (UTC when nil).
type SystemClock struct {
	Location *time.Location
}

func (c SystemClock) Today() Date {
	now := time.Now()
	if c.Location != nil {
		now = now.In(c.Location)
	} else {
		now = now.UTC()
	}
	return DateOf(now)
}

// FixedClock always reports the same day.
type FixedClock struct {
	Date Date
}

func (c FixedClock) Today() Date {
	return c.Date
}
