// Package report computes monthly totals over the credit-note log and
// exports the full log as an .xlsx workbook.
package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"noiportal/pkg/noi"
)

// loadLimit bounds how much of the log a report reads. The log is
// append-only and modest; the cap is a guard, not pagination.
const loadLimit = 100000

// MonthTotal is one month's aggregate, optionally split by document type.
type MonthTotal struct {
	Month       string // YYYY-MM
	Count       int
	AmountCents int64
}

// Summary sums submitted amounts per receiving-date month. Months come back
// sorted ascending.
func Summary(store noi.RecordStore) ([]MonthTotal, error) {
	recs, err := store.Recent(loadLimit)
	if err != nil {
		return nil, err
	}
	byMonth := map[string]*MonthTotal{}
	for _, r := range recs {
		m := r.Date.Format("2006-01")
		t := byMonth[m]
		if t == nil {
			t = &MonthTotal{Month: m}
			byMonth[m] = t
		}
		t.Count++
		t.AmountCents += r.AmountCents
	}
	out := make([]MonthTotal, 0, len(byMonth))
	for _, t := range byMonth {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out, nil
}

// MonthRecords returns the records whose receiving date falls in month
// (YYYY-MM), in append order.
func MonthRecords(store noi.RecordStore, month string) ([]noi.Record, error) {
	start, err := time.Parse("2006-01", month)
	if err != nil {
		return nil, fmt.Errorf("invalid month format, expected YYYY-MM: %w", err)
	}
	end := start.AddDate(0, 1, 0)
	recs, err := store.Recent(loadLimit)
	if err != nil {
		return nil, err
	}
	var out []noi.Record
	for _, r := range recs {
		if !r.Date.Before(start) && r.Date.Before(end) {
			out = append(out, r)
		}
	}
	return out, nil
}

var xlsxHeader = []string{
	"Serial No", "Date", "Supplier Code", "Supplier Name",
	"Invoice Reference", "Amount", "Type", "Comment",
	"Invoice File", "Submitted At", "Submitted By",
}

// ExportXLSX writes the whole log to an .xlsx workbook at path.
func ExportXLSX(store noi.RecordStore, path string) (int, error) {
	recs, err := store.Recent(loadLimit)
	if err != nil {
		return 0, err
	}
	f := excelize.NewFile()
	defer f.Close()
	const sheet = "Credit Notes"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return 0, err
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return 0, err
	}

	for col, h := range xlsxHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return 0, err
		}
	}
	for i, r := range recs {
		row := []interface{}{
			r.SerialNo,
			r.Date.Format(noi.DateLayout),
			r.SupplierCode,
			r.SupplierName,
			r.InvoiceRef,
			noi.FormatAmount(r.AmountCents),
			string(r.Type),
			r.Comment,
			r.InvoiceFile,
			r.SubmittedAt.UTC().Format(time.RFC3339),
			r.SubmittedBy,
		}
		for col, v := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return 0, err
			}
		}
	}
	if err := f.SaveAs(path); err != nil {
		return 0, err
	}
	return len(recs), nil
}
