package core

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Record is the wire shape of a Subscription, shared by the persisted blob,
// the seed document and the JSON API. Cost is written as a JSON number.
type Record struct {
	ID           string      `json:"id" yaml:"id"`
	Name         string      `json:"name" yaml:"name"`
	Category     string      `json:"category" yaml:"category"`
	Cost         json.Number `json:"cost" yaml:"cost"`
	BillingCycle string      `json:"billingCycle" yaml:"billingCycle"`
	NextBilling  string      `json:"nextBilling" yaml:"nextBilling"`
	Status       string      `json:"status" yaml:"status"`
	Description  string      `json:"description,omitempty" yaml:"description,omitempty"`
}

// Record converts s to its wire shape.
func (s Subscription) Record() Record {
	return Record{
		ID:           s.ID,
		Name:         s.Name,
		Category:     string(s.Category),
		Cost:         json.Number(s.Cost.String()),
		BillingCycle: string(s.BillingCycle),
		NextBilling:  s.NextBilling.String(),
		Status:       string(s.Status),
		Description:  s.Description,
	}
}

// Subscription parses and validates the record.
func (r Record) Subscription() (Subscription, error) {
	if strings.TrimSpace(r.ID) == "" {
		return Subscription{}, invalidField("id", "must not be empty")
	}
	cost, err := decimal.NewFromString(strings.TrimSpace(r.Cost.String()))
	if err != nil {
		return Subscription{}, invalidField("cost", "not a number: %q", r.Cost)
	}
	next, err := ParseDate(r.NextBilling)
	if err != nil {
		return Subscription{}, invalidField("nextBilling", "%v", err)
	}
	f := Fields{
		Name:         r.Name,
		Category:     Category(r.Category),
		Cost:         cost,
		BillingCycle: BillingCycle(r.BillingCycle),
		NextBilling:  next,
		Status:       Status(r.Status),
		Description:  r.Description,
	}
	if err := f.Validate(); err != nil {
		return Subscription{}, fmt.Errorf("record %s: %w", r.ID, err)
	}
	return f.Subscription(r.ID), nil
}

// Records converts a collection to its wire shape.
func Records(subs []Subscription) []Record {
	out := make([]Record, len(subs))
	for i, s := range subs {
		out[i] = s.Record()
	}
	return out
}
