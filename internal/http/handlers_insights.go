package http

import (
	"net/http"

	"subwise/internal/core"
	"subwise/internal/insights"
)

// Every insight handler aggregates a fresh snapshot; nothing is cached.

func (s *Server) handleMonthlySpend(w http.ResponseWriter, r *http.Request) {
	subs := s.store.Snapshot()
	monthly := insights.TotalMonthlySpend(subs)
	writeJSON(w, http.StatusOK, monthlySpendResponse{
		Today:            s.store.Today().String(),
		MonthlySpend:     money(monthly),
		YearlyProjection: money(insights.YearlyProjection(subs)),
		ActiveCount:      len(insights.Active(subs)),
	})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	shares := insights.CategoryBreakdown(s.store.Snapshot())
	writeJSON(w, http.StatusOK, map[string]any{"categories": categoryShares(shares)})
}

func (s *Server) handleRenewals(w http.ResponseWriter, r *http.Request) {
	days, err := parseWindowDays(r.URL.Query(), s.renewalWindow)
	if err != nil {
		writeError(w, r, err)
		return
	}
	today := s.store.Today()
	renewals := insights.UpcomingRenewals(s.store.Snapshot(), today, days)
	writeJSON(w, http.StatusOK, renewalsResponse{
		From:          today.String(),
		To:            today.AddDays(max(days, 0)).String(),
		WindowDays:    days,
		Renewals:      core.Records(renewals),
		UpcomingTotal: money(insights.UpcomingTotal(renewals)),
	})
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	days, err := parseWindowDays(r.URL.Query(), s.renewalWindow)
	if err != nil {
		writeError(w, r, err)
		return
	}
	o := insights.Summarize(s.store.Snapshot(), s.store.Today(), days)
	writeJSON(w, http.StatusOK, newOverviewResponse(o))
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	date, err := parseDateParam(r.URL.Query(), "date", s.store.Today())
	if err != nil {
		writeError(w, r, err)
		return
	}
	renewals := insights.RenewalsOn(s.store.Snapshot(), date)
	writeJSON(w, http.StatusOK, calendarResponse{
		Date:     date.String(),
		Renewals: core.Records(renewals),
		Total:    money(insights.UpcomingTotal(renewals)),
	})
}
