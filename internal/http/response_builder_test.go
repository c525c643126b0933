package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"subwise/internal/core"
	"subwise/internal/insights"
	"subwise/internal/log"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: x", errBadRequest), http.StatusBadRequest},
		{fmt.Errorf("%w: 42", core.ErrNotFound), http.StatusNotFound},
		{&core.FieldError{Field: "name", Reason: "empty"}, http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: write: disk full", core.ErrPersistence), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestWriteErrorIncludesField(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/subscriptions", nil)
	writeError(rec, req, &core.FieldError{Field: "category", Reason: "unknown category"})

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Field != "category" || resp.Error != "invalid category: unknown category" {
		t.Errorf("response = %+v", resp)
	}
}

func TestWriteErrorTagsNotFound(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Level: slog.LevelDebug, Output: &buf})
	req := httptest.NewRequest(http.MethodGet, "/api/subscriptions/42", nil)
	req = req.WithContext(log.NewContext(req.Context(), logger))

	rec := httptest.NewRecorder()
	writeError(rec, req, fmt.Errorf("%w: 42", core.ErrNotFound))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(buf.String(), log.ErrorTypeNotFound) {
		t.Errorf("log output %q lacks %s", buf.String(), log.ErrorTypeNotFound)
	}
}

func TestWriteErrorHidesInternalCause(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("secret dsn"))

	var resp errorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Error != "internal error" {
		t.Errorf("error = %q", resp.Error)
	}
}

func TestOverviewResponseMoney(t *testing.T) {
	o := insights.Overview{
		Today:            core.NewDate(2024, 8, 10),
		MonthlySpend:     decimal.RequireFromString("22"),
		YearlyProjection: decimal.RequireFromString("264"),
		Categories: []insights.CategoryShare{
			{Category: core.Health, Amount: decimal.RequireFromString("9.995"), Percent: 100},
		},
		UpcomingTotal: decimal.Zero,
	}
	resp := newOverviewResponse(o)

	raw, err := json.Marshal(resp)
	if err != nil {
		t.Fatal(err)
	}
	var generic map[string]any
	_ = json.Unmarshal(raw, &generic)

	if generic["monthlySpend"] != 22.0 || generic["today"] != "2024-08-10" {
		t.Errorf("overview json = %s", raw)
	}
	if resp.Categories[0].Amount.String() != "10.00" {
		t.Errorf("amount = %s, want rounded 10.00", resp.Categories[0].Amount)
	}
	if resp.UpcomingRenewals == nil {
		t.Error("upcoming renewals should encode as [] not null")
	}
}
