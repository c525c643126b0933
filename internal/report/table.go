// Package report renders subscriptions and insights for the terminal and as
// spreadsheet exports.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"subwise/internal/core"
	"subwise/internal/insights"
)

// Options controls terminal rendering.
type Options struct {
	// Color enables ANSI status coloring. Disable it when writing to a pipe.
	Color bool
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Header = text.FormatDefault
	t.Style().Format.Footer = text.FormatDefault
	return t
}

func (o Options) status(s core.Status) string {
	label := strings.ToUpper(string(s))
	if !o.Color {
		return label
	}
	switch s {
	case core.StatusActive:
		return text.FgGreen.Sprint(label)
	case core.StatusTrial:
		return text.FgYellow.Sprint(label)
	default:
		return text.FgHiBlack.Sprint(label)
	}
}

func (o Options) bold(s string) string {
	if !o.Color {
		return s
	}
	return text.Bold.Sprint(s)
}

// PrintSubscriptions writes one row per subscription with its normalized
// monthly cost and a footer holding the billable total.
func PrintSubscriptions(w io.Writer, subs []core.Subscription, opts Options) {
	t := newTable(w)
	t.AppendHeader(table.Row{"ID", "Name", "Category", "Status", "Cycle", "Cost", "Monthly", "Next Billing"})
	for _, s := range subs {
		monthly := "-"
		if s.Status.Billable() {
			monthly = core.FormatCost(insights.NormalizedMonthlyCost(s))
		}
		t.AppendRow(table.Row{
			s.ID, s.Name, s.Category, opts.status(s.Status), s.BillingCycle,
			core.FormatCost(s.Cost), monthly, s.NextBilling.String(),
		})
	}
	t.AppendSeparator()
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d subscriptions", len(subs)), "", "", "",
		opts.bold("Total (active)"), opts.bold(core.FormatCost(insights.TotalMonthlySpend(subs))), ""})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
	})
	t.Render()
}

// PrintOverview writes the spend summary followed by the category breakdown.
func PrintOverview(w io.Writer, o insights.Overview, opts Options) {
	fmt.Fprintf(w, "As of %s: %d active, %d trial\n", o.Today, o.ActiveCount, o.TrialCount)
	fmt.Fprintf(w, "Monthly spend:     %s\n", core.FormatCost(o.MonthlySpend))
	fmt.Fprintf(w, "Yearly projection: %s\n\n", core.FormatCost(o.YearlyProjection))

	t := newTable(w)
	t.AppendHeader(table.Row{"Category", "Monthly", "Share"})
	for _, c := range o.Categories {
		t.AppendRow(table.Row{c.Category, core.FormatCost(c.Amount), fmt.Sprintf("%d%%", c.Percent)})
	}
	t.AppendFooter(table.Row{opts.bold("Total"), opts.bold(core.FormatCost(o.MonthlySpend)), ""})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
	})
	t.Render()
}

// PrintRenewals writes the renewals due within windowDays of today.
func PrintRenewals(w io.Writer, renewals []core.Subscription, today core.Date, windowDays int, opts Options) {
	fmt.Fprintf(w, "Renewals from %s to %s\n", today, today.AddDays(windowDays))
	if len(renewals) == 0 {
		fmt.Fprintln(w, "Nothing due.")
		return
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"Date", "In", "Name", "Status", "Cost"})
	for _, s := range renewals {
		days := int(s.NextBilling.Sub(today.Time).Hours() / 24)
		in := fmt.Sprintf("%dd", days)
		if days == 0 {
			in = "today"
		}
		t.AppendRow(table.Row{s.NextBilling.String(), in, s.Name, opts.status(s.Status), core.FormatCost(s.Cost)})
	}
	t.AppendFooter(table.Row{"", "", "", opts.bold("Total"), opts.bold(core.FormatCost(insights.UpcomingTotal(renewals)))})
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 5, Align: text.AlignRight}})
	t.Render()
}
