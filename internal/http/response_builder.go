package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"subwise/internal/core"
	"subwise/internal/insights"
	"subwise/internal/log"
)

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

type listResponse struct {
	Subscriptions []core.Record `json:"subscriptions"`
	Count         int           `json:"count"`
}

type monthlySpendResponse struct {
	Today            string      `json:"today"`
	MonthlySpend     json.Number `json:"monthlySpend"`
	YearlyProjection json.Number `json:"yearlyProjection"`
	ActiveCount      int         `json:"activeCount"`
}

type categoryShareResponse struct {
	Category string      `json:"category"`
	Amount   json.Number `json:"amount"`
	Percent  int64       `json:"percent"`
}

type renewalsResponse struct {
	From          string        `json:"from"`
	To            string        `json:"to"`
	WindowDays    int           `json:"windowDays"`
	Renewals      []core.Record `json:"renewals"`
	UpcomingTotal json.Number   `json:"upcomingTotal"`
}

type calendarResponse struct {
	Date     string        `json:"date"`
	Renewals []core.Record `json:"renewals"`
	Total    json.Number   `json:"total"`
}

type overviewResponse struct {
	Today            string                  `json:"today"`
	MonthlySpend     json.Number             `json:"monthlySpend"`
	YearlyProjection json.Number             `json:"yearlyProjection"`
	ActiveCount      int                     `json:"activeCount"`
	TrialCount       int                     `json:"trialCount"`
	Categories       []categoryShareResponse `json:"categories"`
	WindowDays       int                     `json:"windowDays"`
	UpcomingRenewals []core.Record           `json:"upcomingRenewals"`
	UpcomingTotal    json.Number             `json:"upcomingTotal"`
}

// money renders an aggregate with two decimals as a JSON number.
func money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

func categoryShares(shares []insights.CategoryShare) []categoryShareResponse {
	out := make([]categoryShareResponse, len(shares))
	for i, s := range shares {
		out[i] = categoryShareResponse{Category: string(s.Category), Amount: money(s.Amount), Percent: s.Percent}
	}
	return out
}

func newOverviewResponse(o insights.Overview) overviewResponse {
	return overviewResponse{
		Today:            o.Today.String(),
		MonthlySpend:     money(o.MonthlySpend),
		YearlyProjection: money(o.YearlyProjection),
		ActiveCount:      o.ActiveCount,
		TrialCount:       o.TrialCount,
		Categories:       categoryShares(o.Categories),
		WindowDays:       o.WindowDays,
		UpcomingRenewals: core.Records(o.UpcomingRenewals),
		UpcomingTotal:    money(o.UpcomingTotal),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps the error taxonomy onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrInvalidField):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrPersistence):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError logs err with the request logger and writes {"error": ...}.
// Server-side failures do not leak their cause to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error()}

	var fe *core.FieldError
	if errors.As(err, &fe) {
		resp.Field = fe.Field
	}

	logger := log.FromContext(r.Context())
	fields := log.NewFields().WithError(err)
	switch status {
	case http.StatusServiceUnavailable:
		resp.Error = "storage unavailable, try again later"
		logger.ErrorContext(r.Context(), "request failed",
			fields.WithErrorType(log.ErrorTypePersistence).ToSlice()...)
	case http.StatusInternalServerError:
		resp.Error = "internal error"
		logger.ErrorContext(r.Context(), "request failed",
			fields.WithErrorType(log.ErrorTypeInternal).ToSlice()...)
	case http.StatusNotFound:
		logger.DebugContext(r.Context(), "not found",
			fields.WithErrorType(log.ErrorTypeNotFound).ToSlice()...)
	default:
		logger.InfoContext(r.Context(), "request rejected",
			fields.WithErrorType(log.ErrorTypeValidation).ToSlice()...)
	}

	writeJSON(w, status, resp)
}
