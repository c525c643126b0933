package schedule

import (
	"testing"

	"subwise/internal/core"
)

func TestAdvance(t *testing.T) {
	tests := []struct {
		name  string
		date  core.Date
		cycle core.BillingCycle
		today core.Date
		want  core.Date
	}{
		{
			name:  "month end clamps in leap february",
			date:  core.NewDate(2024, 1, 31),
			cycle: core.Monthly,
			today: core.NewDate(2024, 2, 1),
			want:  core.NewDate(2024, 2, 29),
		},
		{
			name:  "anchor day restored after short month",
			date:  core.NewDate(2024, 1, 31),
			cycle: core.Monthly,
			today: core.NewDate(2024, 3, 1),
			want:  core.NewDate(2024, 3, 31),
		},
		{
			name:  "today is current",
			date:  core.NewDate(2024, 8, 10),
			cycle: core.Monthly,
			today: core.NewDate(2024, 8, 10),
			want:  core.NewDate(2024, 8, 10),
		},
		{
			name:  "future unchanged",
			date:  core.NewDate(2024, 12, 15),
			cycle: core.Yearly,
			today: core.NewDate(2024, 8, 10),
			want:  core.NewDate(2024, 12, 15),
		},
		{
			name:  "yesterday moves one cycle",
			date:  core.NewDate(2024, 8, 8),
			cycle: core.Monthly,
			today: core.NewDate(2024, 8, 10),
			want:  core.NewDate(2024, 9, 8),
		},
		{
			name:  "later day in previous month needs one cycle",
			date:  core.NewDate(2024, 7, 20),
			cycle: core.Monthly,
			today: core.NewDate(2024, 8, 10),
			want:  core.NewDate(2024, 8, 20),
		},
		{
			name:  "earlier day in previous month needs two cycles",
			date:  core.NewDate(2024, 7, 5),
			cycle: core.Monthly,
			today: core.NewDate(2024, 8, 10),
			want:  core.NewDate(2024, 9, 5),
		},
		{
			name:  "quarterly",
			date:  core.NewDate(2024, 1, 15),
			cycle: core.Quarterly,
			today: core.NewDate(2024, 5, 1),
			want:  core.NewDate(2024, 7, 15),
		},
		{
			name:  "leap day clamps in non-leap year",
			date:  core.NewDate(2024, 2, 29),
			cycle: core.Yearly,
			today: core.NewDate(2024, 3, 1),
			want:  core.NewDate(2025, 2, 28),
		},
		{
			name:  "leap day returns in next leap year",
			date:  core.NewDate(2024, 2, 29),
			cycle: core.Yearly,
			today: core.NewDate(2028, 2, 1),
			want:  core.NewDate(2028, 2, 29),
		},
		{
			name:  "decades of elapsed cycles",
			date:  core.NewDate(2000, 1, 15),
			cycle: core.Monthly,
			today: core.NewDate(2024, 8, 10),
			want:  core.NewDate(2024, 8, 15),
		},
		{
			name:  "unknown cycle unchanged",
			date:  core.NewDate(2020, 1, 1),
			cycle: core.BillingCycle("weekly"),
			today: core.NewDate(2024, 8, 10),
			want:  core.NewDate(2020, 1, 1),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Advance(tt.date, tt.cycle, tt.today)
			if !got.Equal(tt.want) {
				t.Errorf("Advance() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAdvanceProperties(t *testing.T) {
	today := core.NewDate(2024, 8, 10)
	cycles := []core.BillingCycle{core.Monthly, core.Quarterly, core.Yearly}

	for _, cycle := range cycles {
		for offset := -1200; offset <= 60; offset += 7 {
			date := today.AddDays(offset)
			got := Advance(date, cycle, today)

			if got.Before(today) {
				t.Fatalf("%s %v: result %v before today", cycle, date, got)
			}
			if again := Advance(got, cycle, today); !again.Equal(got) {
				t.Fatalf("%s %v: not idempotent (%v then %v)", cycle, date, got, again)
			}
			if !date.Before(today) {
				if !got.Equal(date) {
					t.Fatalf("%s %v: current date changed to %v", cycle, date, got)
				}
				continue
			}

			// the cycle before the result must still be in the past
			k := 0
			for {
				c, err := AddCycles(date, cycle, k)
				if err != nil {
					t.Fatal(err)
				}
				if c.Equal(got) {
					break
				}
				if !c.Before(today) {
					t.Fatalf("%s %v: %v is not the smallest current step (found %v)", cycle, date, got, c)
				}
				k++
			}
		}
	}
}

func TestStepperFor(t *testing.T) {
	tests := []struct {
		cycle   core.BillingCycle
		months  int
		wantErr bool
	}{
		{core.Monthly, 1, false},
		{core.Quarterly, 3, false},
		{core.Yearly, 12, false},
		{core.BillingCycle("daily"), 0, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.cycle), func(t *testing.T) {
			s, err := StepperFor(tt.cycle)
			if (err != nil) != tt.wantErr {
				t.Fatalf("StepperFor() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && s.Months() != tt.months {
				t.Errorf("Months() = %d, want %d", s.Months(), tt.months)
			}
		})
	}
}

func TestAddCycles(t *testing.T) {
	got, err := AddCycles(core.NewDate(2024, 11, 30), core.Quarterly, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(core.NewDate(2025, 2, 28)) {
		t.Errorf("AddCycles() = %v, want 2025-02-28", got)
	}
	if _, err := AddCycles(core.NewDate(2024, 1, 1), "fortnightly", 1); err == nil {
		t.Error("expected error for unknown cycle")
	}
}
