package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"subwise/internal/amqp"
	"subwise/internal/config"
	"subwise/internal/core"
	"subwise/internal/insights"
	"subwise/internal/log"
	"subwise/internal/report"
)

// execute runs every command that only reads the collection.
func execute(params *Params, subs []core.Subscription, today core.Date, w io.Writer) error {
	opts := report.Options{Color: params.Color}

	switch params.Command {
	case "list":
		q, err := listQuery(params)
		if err != nil {
			return err
		}
		subs = q.Apply(subs)
		if params.Format == "json" {
			return writeJSON(w, core.Records(subs))
		}
		report.PrintSubscriptions(w, subs, opts)

	case "insights":
		o := insights.Summarize(subs, today, params.Days)
		if params.Format == "json" {
			return writeJSON(w, map[string]any{
				"today":            o.Today.String(),
				"monthlySpend":     json.Number(core.FormatCost(o.MonthlySpend)),
				"yearlyProjection": json.Number(core.FormatCost(o.YearlyProjection)),
				"activeCount":      o.ActiveCount,
				"trialCount":       o.TrialCount,
				"categories":       categoryRows(o.Categories),
			})
		}
		report.PrintOverview(w, o, opts)

	case "renewals":
		renewals := insights.UpcomingRenewals(subs, today, params.Days)
		if params.Format == "json" {
			return writeJSON(w, core.Records(renewals))
		}
		report.PrintRenewals(w, renewals, today, params.Days, opts)

	case "calendar":
		day := today
		if params.Date != "" {
			d, err := core.ParseDate(params.Date)
			if err != nil {
				return &core.FieldError{Field: "date", Reason: err.Error()}
			}
			day = d
		}
		renewals := insights.RenewalsOn(subs, day)
		if params.Format == "json" {
			return writeJSON(w, core.Records(renewals))
		}
		report.PrintRenewals(w, renewals, day, 0, opts)

	case "export":
		if err := report.ExportXLSX(params.Output, subs, today, params.Days); err != nil {
			return err
		}
		fmt.Fprintf(w, "Exported %d subscriptions to %s\n", len(subs), params.Output)

	default:
		return fmt.Errorf("unknown command %q", params.Command)
	}
	return nil
}

func listQuery(params *Params) (insights.Query, error) {
	sortKey, err := insights.ParseSortKey(params.Sort)
	if err != nil {
		return insights.Query{}, err
	}
	q := insights.Query{Search: params.Search, SortBy: sortKey}
	if params.Category != "" && params.Category != "all" {
		q.Category = core.Category(params.Category)
		if !q.Category.IsValid() {
			return insights.Query{}, &core.FieldError{Field: "category", Reason: fmt.Sprintf("unknown category %q", params.Category)}
		}
	}
	if params.Status != "" && params.Status != "all" {
		q.Status = core.Status(params.Status)
		if !q.Status.IsValid() {
			return insights.Query{}, &core.FieldError{Field: "status", Reason: fmt.Sprintf("unknown status %q", params.Status)}
		}
	}
	return q, nil
}

type categoryRow struct {
	Category string      `json:"category"`
	Amount   json.Number `json:"amount"`
	Percent  int64       `json:"percent"`
}

func categoryRows(shares []insights.CategoryShare) []categoryRow {
	out := make([]categoryRow, len(shares))
	for i, s := range shares {
		out[i] = categoryRow{Category: string(s.Category), Amount: json.Number(core.FormatCost(s.Amount)), Percent: s.Percent}
	}
	return out
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// watch prints change-feed events until ctx is cancelled.
func watch(ctx context.Context, cfg *config.Config, params *Params, w io.Writer, logger *log.Logger) error {
	if cfg.AMQPURL == "" {
		return fmt.Errorf("watch needs AMQP_URL")
	}
	client, err := amqp.NewClient(amqp.Config{
		URL:        cfg.AMQPURL,
		Exchange:   cfg.AMQPExchange,
		RoutingKey: cfg.AMQPRoutingKey,
	}, logger.Logger)
	if err != nil {
		return err
	}
	defer client.Close()

	err = client.ConsumeEvents(ctx, params.Queue, func(_ context.Context, msg *amqp.EventMessage) error {
		_, err := fmt.Fprintln(w, formatEvent(msg))
		return err
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func formatEvent(msg *amqp.EventMessage) string {
	line := fmt.Sprintf("%s  %-22s %s", msg.Timestamp.Format("2006-01-02 15:04:05"), msg.Type, msg.ID)
	if s := msg.Subscription; s != nil {
		line += fmt.Sprintf("  %s  %s/%s  next %s  [%s]", s.Name, s.Cost, s.BillingCycle, s.NextBilling, s.Status)
	}
	return line
}
