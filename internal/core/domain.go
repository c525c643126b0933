package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	Entertainment Category = "entertainment"
	Productivity  Category = "productivity"
	Utilities     Category = "utilities"
	Shopping      Category = "shopping"
	Finance       Category = "finance"
	Health        Category = "health"
	Education     Category = "education"
)

const (
	Monthly   BillingCycle = "monthly"
	Quarterly BillingCycle = "quarterly"
	Yearly    BillingCycle = "yearly"
)

const (
	StatusActive    Status = "active"
	StatusTrial     Status = "trial"
	StatusCancelled Status = "cancelled"
)

const maxNameLength = 200

type (
	Category     string
	BillingCycle string
	Status       string

	// Subscription is a recurring paid service tracked by the store.
	Subscription struct {
		ID           string
		Name         string
		Category     Category
		Cost         decimal.Decimal
		BillingCycle BillingCycle
		NextBilling  Date
		Status       Status
		Description  string
	}

	// Fields carries everything needed to create a subscription except its id.
	Fields struct {
		Name         string
		Category     Category
		Cost         decimal.Decimal
		BillingCycle BillingCycle
		NextBilling  Date
		Status       Status
		Description  string
	}

	// Patch is a partial update. Nil fields are left untouched.
	Patch struct {
		Name         *string
		Category     *Category
		Cost         *decimal.Decimal
		BillingCycle *BillingCycle
		NextBilling  *Date
		Status       *Status
		Description  *string
	}
)

// Categories lists every known category in display order.
func Categories() []Category {
	return []Category{Entertainment, Productivity, Utilities, Shopping, Finance, Health, Education}
}

func (c Category) IsValid() bool {
	switch c {
	case Entertainment, Productivity, Utilities, Shopping, Finance, Health, Education:
		return true
	default:
		return false
	}
}

func (c BillingCycle) IsValid() bool {
	switch c {
	case Monthly, Quarterly, Yearly:
		return true
	default:
		return false
	}
}

func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusTrial, StatusCancelled:
		return true
	default:
		return false
	}
}

// Billable reports whether the subscription still produces renewals.
func (s Status) Billable() bool {
	return s == StatusActive || s == StatusTrial
}

func (f Fields) Validate() error {
	if err := validateName(f.Name); err != nil {
		return err
	}
	if !f.Category.IsValid() {
		return invalidField("category", "unknown category %q", f.Category)
	}
	if f.Cost.IsNegative() {
		return invalidField("cost", "must not be negative")
	}
	if !f.BillingCycle.IsValid() {
		return invalidField("billingCycle", "unknown billing cycle %q", f.BillingCycle)
	}
	if f.NextBilling.IsZero() {
		return invalidField("nextBilling", "date is required")
	}
	if !f.Status.IsValid() {
		return invalidField("status", "unknown status %q", f.Status)
	}
	return nil
}

// Subscription builds the record that will be stored under id.
func (f Fields) Subscription(id string) Subscription {
	return Subscription{
		ID:           id,
		Name:         strings.TrimSpace(f.Name),
		Category:     f.Category,
		Cost:         f.Cost,
		BillingCycle: f.BillingCycle,
		NextBilling:  f.NextBilling,
		Status:       f.Status,
		Description:  strings.TrimSpace(f.Description),
	}
}

// Fields returns the subscription without its id.
func (s Subscription) Fields() Fields {
	return Fields{
		Name:         s.Name,
		Category:     s.Category,
		Cost:         s.Cost,
		BillingCycle: s.BillingCycle,
		NextBilling:  s.NextBilling,
		Status:       s.Status,
		Description:  s.Description,
	}
}

// Validate checks only the fields present in the patch.
func (p Patch) Validate() error {
	if p.Name != nil {
		if err := validateName(*p.Name); err != nil {
			return err
		}
	}
	if p.Category != nil && !p.Category.IsValid() {
		return invalidField("category", "unknown category %q", *p.Category)
	}
	if p.Cost != nil && p.Cost.IsNegative() {
		return invalidField("cost", "must not be negative")
	}
	if p.BillingCycle != nil && !p.BillingCycle.IsValid() {
		return invalidField("billingCycle", "unknown billing cycle %q", *p.BillingCycle)
	}
	if p.NextBilling != nil && p.NextBilling.IsZero() {
		return invalidField("nextBilling", "date is required")
	}
	if p.Status != nil && !p.Status.IsValid() {
		return invalidField("status", "unknown status %q", *p.Status)
	}
	return nil
}

// TouchesSchedule reports whether applying the patch requires renormalizing NextBilling.
func (p Patch) TouchesSchedule() bool {
	return p.BillingCycle != nil || p.NextBilling != nil
}

// IsEmpty returns true when no field is supplied.
func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Category == nil && p.Cost == nil && p.BillingCycle == nil &&
		p.NextBilling == nil && p.Status == nil && p.Description == nil
}

// Apply merges the patch shallowly over s and returns the result.
func (p Patch) Apply(s Subscription) Subscription {
	if p.Name != nil {
		s.Name = strings.TrimSpace(*p.Name)
	}
	if p.Category != nil {
		s.Category = *p.Category
	}
	if p.Cost != nil {
		s.Cost = *p.Cost
	}
	if p.BillingCycle != nil {
		s.BillingCycle = *p.BillingCycle
	}
	if p.NextBilling != nil {
		s.NextBilling = *p.NextBilling
	}
	if p.Status != nil {
		s.Status = *p.Status
	}
	if p.Description != nil {
		s.Description = strings.TrimSpace(*p.Description)
	}
	return s
}

func validateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return invalidField("name", "must not be empty")
	}
	if len(name) > maxNameLength {
		return invalidField("name", "too long (max %d characters)", maxNameLength)
	}
	return nil
}
