package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"subwise/internal/core"
	"subwise/internal/insights"
)

const (
	SheetSubscriptions = "Subscriptions"
	SheetCategories    = "Categories"
	SheetRenewals      = "Renewals"
)

// WriteXLSX writes a workbook with the full collection, the category
// breakdown and the renewals due within windowDays of today.
func WriteXLSX(w io.Writer, subs []core.Subscription, today core.Date, windowDays int) error {
	f, err := buildWorkbook(subs, today, windowDays)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// ExportXLSX saves the workbook built by WriteXLSX to path.
func ExportXLSX(path string, subs []core.Subscription, today core.Date, windowDays int) error {
	f, err := buildWorkbook(subs, today, windowDays)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

func buildWorkbook(subs []core.Subscription, today core.Date, windowDays int) (*excelize.File, error) {
	f := excelize.NewFile()
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create header style: %w", err)
	}

	if err := f.SetSheetName("Sheet1", SheetSubscriptions); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	rows := [][]any{{"ID", "Name", "Category", "Status", "Billing Cycle", "Cost", "Monthly", "Next Billing", "Description"}}
	for _, s := range subs {
		rows = append(rows, []any{
			s.ID, s.Name, string(s.Category), string(s.Status), string(s.BillingCycle),
			s.Cost.InexactFloat64(), insights.NormalizedMonthlyCost(s).Round(2).InexactFloat64(),
			s.NextBilling.String(), s.Description,
		})
	}
	if err := writeSheet(f, SheetSubscriptions, rows, bold); err != nil {
		f.Close()
		return nil, err
	}

	rows = [][]any{{"Category", "Monthly", "Share %"}}
	for _, c := range insights.CategoryBreakdown(subs) {
		rows = append(rows, []any{string(c.Category), c.Amount.Round(2).InexactFloat64(), c.Percent})
	}
	rows = append(rows, []any{"Total", insights.TotalMonthlySpend(subs).Round(2).InexactFloat64(), nil})
	if err := writeSheet(f, SheetCategories, rows, bold); err != nil {
		f.Close()
		return nil, err
	}

	renewals := insights.UpcomingRenewals(subs, today, windowDays)
	rows = [][]any{{"Date", "Name", "Status", "Cost"}}
	for _, s := range renewals {
		rows = append(rows, []any{s.NextBilling.String(), s.Name, string(s.Status), s.Cost.InexactFloat64()})
	}
	rows = append(rows, []any{"Total", nil, nil, insights.UpcomingTotal(renewals).InexactFloat64()})
	if err := writeSheet(f, SheetRenewals, rows, bold); err != nil {
		f.Close()
		return nil, err
	}

	return f, nil
}

func writeSheet(f *excelize.File, sheet string, rows [][]any, headerStyle int) error {
	if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("create sheet %s: %w", sheet, err)
		}
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	if len(rows) > 0 {
		last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
			return fmt.Errorf("style %s header: %w", sheet, err)
		}
	}
	return nil
}
