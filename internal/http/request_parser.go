package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"subwise/internal/core"
	"subwise/internal/insights"
)

// errBadRequest marks bodies that are not valid JSON of the expected shape.
var errBadRequest = errors.New("malformed request")

// costValue accepts a cost as a JSON number or a string such as "12,34".
type costValue struct {
	decimal.Decimal
}

func (c *costValue) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = s
	}
	d, err := core.ParseCost(raw)
	if err != nil {
		return &core.FieldError{Field: "cost", Reason: err.Error()}
	}
	c.Decimal = d
	return nil
}

// subscriptionRequest is the body of POST /api/subscriptions.
type subscriptionRequest struct {
	Name         string     `json:"name"`
	Category     string     `json:"category"`
	Cost         *costValue `json:"cost"`
	BillingCycle string     `json:"billingCycle"`
	NextBilling  string     `json:"nextBilling"`
	Status       string     `json:"status"`
	Description  string     `json:"description"`
}

func (req subscriptionRequest) Fields() (core.Fields, error) {
	if req.Cost == nil {
		return core.Fields{}, &core.FieldError{Field: "cost", Reason: "is required"}
	}
	next, err := core.ParseDate(req.NextBilling)
	if err != nil {
		return core.Fields{}, &core.FieldError{Field: "nextBilling", Reason: err.Error()}
	}
	status := core.Status(req.Status)
	if req.Status == "" {
		status = core.StatusActive
	}
	return core.Fields{
		Name:         sanitizeInput(req.Name),
		Category:     core.Category(req.Category),
		Cost:         req.Cost.Decimal,
		BillingCycle: core.BillingCycle(req.BillingCycle),
		NextBilling:  next,
		Status:       status,
		Description:  sanitizeInput(req.Description),
	}, nil
}

// patchRequest is the body of PATCH /api/subscriptions/{id}. Absent fields
// are left untouched; the id cannot be changed.
type patchRequest struct {
	Name         *string    `json:"name"`
	Category     *string    `json:"category"`
	Cost         *costValue `json:"cost"`
	BillingCycle *string    `json:"billingCycle"`
	NextBilling  *string    `json:"nextBilling"`
	Status       *string    `json:"status"`
	Description  *string    `json:"description"`
}

func (req patchRequest) Patch() (core.Patch, error) {
	var p core.Patch
	if req.Name != nil {
		name := sanitizeInput(*req.Name)
		p.Name = &name
	}
	if req.Category != nil {
		c := core.Category(*req.Category)
		p.Category = &c
	}
	if req.Cost != nil {
		cost := req.Cost.Decimal
		p.Cost = &cost
	}
	if req.BillingCycle != nil {
		bc := core.BillingCycle(*req.BillingCycle)
		p.BillingCycle = &bc
	}
	if req.NextBilling != nil {
		next, err := core.ParseDate(*req.NextBilling)
		if err != nil {
			return core.Patch{}, &core.FieldError{Field: "nextBilling", Reason: err.Error()}
		}
		p.NextBilling = &next
	}
	if req.Status != nil {
		st := core.Status(*req.Status)
		p.Status = &st
	}
	if req.Description != nil {
		d := sanitizeInput(*req.Description)
		p.Description = &d
	}
	return p, nil
}

// decodeJSON reads one JSON object into dst. Unknown fields, trailing data
// and oversized bodies are rejected with errBadRequest. Field-level failures
// keep their core.ErrInvalidField identity.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: body exceeds %d bytes", errBadRequest, tooLarge.Limit)
		}
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, core.ErrInvalidField) {
			return err
		}
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: unexpected data after JSON object", errBadRequest)
	}
	return nil
}

// parseListQuery reads search, category, status and sort.
func parseListQuery(q url.Values) (insights.Query, error) {
	sortKey, err := insights.ParseSortKey(q.Get("sort"))
	if err != nil {
		return insights.Query{}, &core.FieldError{Field: "sort", Reason: err.Error()}
	}
	query := insights.Query{
		Search: sanitizeInput(q.Get("search")),
		SortBy: sortKey,
	}
	if v := strings.TrimSpace(q.Get("category")); v != "" && v != "all" {
		query.Category = core.Category(v)
		if !query.Category.IsValid() {
			return insights.Query{}, &core.FieldError{Field: "category", Reason: fmt.Sprintf("unknown category %q", v)}
		}
	}
	if v := strings.TrimSpace(q.Get("status")); v != "" && v != "all" {
		query.Status = core.Status(v)
		if !query.Status.IsValid() {
			return insights.Query{}, &core.FieldError{Field: "status", Reason: fmt.Sprintf("unknown status %q", v)}
		}
	}
	return query, nil
}

// parseWindowDays reads ?days=N, falling back to def.
func parseWindowDays(q url.Values, def int) (int, error) {
	v := strings.TrimSpace(q.Get("days"))
	if v == "" {
		return def, nil
	}
	days, err := strconv.Atoi(v)
	if err != nil || days > 3660 {
		return 0, &core.FieldError{Field: "days", Reason: fmt.Sprintf("must be a whole number of days, got %q", v)}
	}
	return days, nil
}

// parseDateParam reads a YYYY-MM-DD query value, falling back to def.
func parseDateParam(q url.Values, key string, def core.Date) (core.Date, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return def, nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return core.Date{}, &core.FieldError{Field: key, Reason: err.Error()}
	}
	return d, nil
}

// sanitizeInput removes control characters except tab and newlines and trims
// whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}
