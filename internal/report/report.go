package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"timeclock/internal/ledger"
	"timeclock/internal/model"
)

// PlaceholderName labels punches and records whose employee no longer
// exists. Both collections tolerate dangling references.
const PlaceholderName = "former employee"

// dateLayout is the locale-formatted date used in exported reports.
const dateLayout = "02/01/2006"

type roster map[string]model.Employee

func indexEmployees(employees []model.Employee) roster {
	r := make(roster, len(employees))
	for _, e := range employees {
		r[e.ID] = e
	}
	return r
}

func (r roster) name(id string) string {
	if e, ok := r[id]; ok {
		return e.Name
	}
	return PlaceholderName
}

func (r roster) role(id string) string {
	if e, ok := r[id]; ok {
		return e.Role
	}
	return "N/A"
}

func formatDay(day string) string {
	t, err := time.Parse(model.DayLayout, day)
	if err != nil {
		return day
	}
	return t.Format(dateLayout)
}

// occurrenceRows renders the shared header+rows for CSV and XLSX.
func occurrenceRows(occs []ledger.Occurrence, employees []model.Employee) [][]string {
	r := indexEmployees(employees)
	rows := [][]string{{"Date", "Employee", "Role", "Type", "Source", "Reason"}}
	for _, o := range occs {
		date := formatDay(o.Date)
		if o.EndDate != "" {
			date = fmt.Sprintf("%s - %s", date, formatDay(o.EndDate))
		}
		rows = append(rows, []string{
			date,
			r.name(o.EmployeeID),
			r.role(o.EmployeeID),
			string(o.Type),
			string(o.Source),
			o.Reason,
		})
	}
	return rows
}

// WriteOccurrencesCSV renders the occurrence report as CSV with a header
// row. Occurrences are expected oldest first, as produced by the
// reconciliation engine.
func WriteOccurrencesCSV(w io.Writer, occs []ledger.Occurrence, employees []model.Employee) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(occurrenceRows(occs, employees)); err != nil {
		return fmt.Errorf("write occurrences csv: %w", err)
	}
	return nil
}

// WritePunchesCSV renders the raw punch log as CSV, newest first — the
// punch history convention, opposite the occurrence report.
func WritePunchesCSV(w io.Writer, punches []model.Punch, employees []model.Employee) error {
	r := indexEmployees(employees)
	sorted := append([]model.Punch(nil), punches...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})

	cw := csv.NewWriter(w)
	rows := [][]string{{"Date", "Time", "Employee", "Role", "Type", "Method"}}
	for _, p := range sorted {
		rows = append(rows, []string{
			p.Timestamp.Format(dateLayout),
			p.Timestamp.Format("15:04:05"),
			r.name(p.EmployeeID),
			r.role(p.EmployeeID),
			string(p.Type),
			string(p.EntryMethod),
		})
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write punches csv: %w", err)
	}
	return nil
}

// WriteOccurrencesXLSX renders the occurrence report as a single-sheet
// XLSX workbook.
func WriteOccurrencesXLSX(w io.Writer, occs []ledger.Occurrence, employees []model.Employee) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	const sheet = "Occurrences"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("xlsx sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	_ = f.DeleteSheet("Sheet1")

	for i, row := range occurrenceRows(occs, employees) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("xlsx cell: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("xlsx row: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
