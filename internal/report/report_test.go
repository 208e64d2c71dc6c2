package report_test

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"timeclock/internal/ledger"
	"timeclock/internal/model"
	"timeclock/internal/report"
)

var employees = []model.Employee{
	{ID: "e1", Name: "Carlos Silva", Code: "1234", Role: "Developer", Status: model.StatusActive},
}

func TestWriteOccurrencesCSV(t *testing.T) {
	occs := []ledger.Occurrence{
		{Source: ledger.SourceManual, Type: model.RecordVacation, EmployeeID: "e1",
			Date: "2024-06-01", EndDate: "2024-06-10", Reason: "annual leave", RecordID: "r1"},
		{Source: ledger.SourceAuto, Type: model.RecordAbsence, EmployeeID: "gone", Date: "2024-06-12"},
	}

	var buf bytes.Buffer
	if err := report.WriteOccurrencesCSV(&buf, occs, employees); err != nil {
		t.Fatalf("WriteOccurrencesCSV: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(rows))
	}
	if rows[0][0] != "Date" || rows[0][1] != "Employee" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][0] != "01/06/2024 - 10/06/2024" {
		t.Errorf("vacation date cell = %q, want spanning range", rows[1][0])
	}
	if rows[1][1] != "Carlos Silva" || rows[1][5] != "annual leave" {
		t.Errorf("vacation row = %v", rows[1])
	}
	if rows[2][1] != report.PlaceholderName {
		t.Errorf("dangling employee name = %q, want %q", rows[2][1], report.PlaceholderName)
	}
}

func TestWritePunchesCSVNewestFirst(t *testing.T) {
	punches := []model.Punch{
		{ID: "p1", EmployeeID: "e1", Type: model.PunchIn,
			Timestamp: time.Date(2024, 6, 5, 9, 0, 0, 0, time.UTC), EntryMethod: model.EntryAuto},
		{ID: "p2", EmployeeID: "e1", Type: model.PunchOut,
			Timestamp: time.Date(2024, 6, 5, 18, 0, 0, 0, time.UTC), EntryMethod: model.EntryAuto},
	}

	var buf bytes.Buffer
	if err := report.WritePunchesCSV(&buf, punches, employees); err != nil {
		t.Fatalf("WritePunchesCSV: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(rows))
	}
	// Newest first: the 18:00 OUT before the 09:00 IN.
	if rows[1][1] != "18:00:00" || rows[1][4] != "OUT" {
		t.Errorf("first data row = %v, want the 18:00 OUT", rows[1])
	}
	if rows[2][1] != "09:00:00" || rows[2][4] != "IN" {
		t.Errorf("second data row = %v, want the 09:00 IN", rows[2])
	}
}

func TestWriteOccurrencesXLSX(t *testing.T) {
	occs := []ledger.Occurrence{
		{Source: ledger.SourceAuto, Type: model.RecordAbsence, EmployeeID: "e1", Date: "2024-06-05"},
	}

	var buf bytes.Buffer
	if err := report.WriteOccurrencesXLSX(&buf, occs, employees); err != nil {
		t.Fatalf("WriteOccurrencesXLSX: %v", err)
	}
	// XLSX files are zip archives.
	if !bytes.HasPrefix(buf.Bytes(), []byte("PK")) {
		t.Error("output does not look like an xlsx (zip) file")
	}
	if buf.Len() < 1000 {
		t.Errorf("xlsx suspiciously small: %d bytes", buf.Len())
	}
}

func TestCSVEscapesCommas(t *testing.T) {
	occs := []ledger.Occurrence{
		{Source: ledger.SourceManual, Type: model.RecordAbsence, EmployeeID: "e1",
			Date: "2024-06-05", Reason: "sick, with note", RecordID: "r1"},
	}

	var buf bytes.Buffer
	if err := report.WriteOccurrencesCSV(&buf, occs, employees); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"sick, with note"`) {
		t.Errorf("comma field not quoted: %s", buf.String())
	}
}
