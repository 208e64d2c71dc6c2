package store_test

import (
	"context"
	"reflect"
	"testing"
	"time"

	"timeclock/internal/model"
	"timeclock/internal/store"
)

func TestMemoryDefaults(t *testing.T) {
	gw := store.NewMemory()
	ctx := context.Background()

	employees, err := gw.Employees(ctx)
	if err != nil {
		t.Fatalf("Employees: %v", err)
	}
	if len(employees) != 0 {
		t.Errorf("employees = %d, want 0", len(employees))
	}

	theme, err := gw.Theme(ctx)
	if err != nil {
		t.Fatalf("Theme: %v", err)
	}
	if theme != store.DefaultTheme {
		t.Errorf("theme = %q, want %q", theme, store.DefaultTheme)
	}

	cfg, err := gw.EmailConfig(ctx)
	if err != nil {
		t.Fatalf("EmailConfig: %v", err)
	}
	if cfg != (model.EmailConfig{}) {
		t.Errorf("email config = %+v, want zero value", cfg)
	}

	text, err := gw.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if text != "" {
		t.Errorf("summary = %q, want empty", text)
	}
}

func TestMemoryRoundTrip(t *testing.T) {
	gw := store.NewMemory()
	ctx := context.Background()

	employees := []model.Employee{
		{ID: "e1", Name: "Carlos Silva", Code: "1234", Role: "Developer", Status: model.StatusActive},
		{ID: "e2", Name: "Roberto Lima", Code: "0000", Role: "Manager", Status: model.StatusVacation,
			VacationStart: "2024-06-01", VacationEnd: "2024-06-10"},
	}
	punches := []model.Punch{
		{ID: "p1", EmployeeID: "e1", Type: model.PunchIn,
			Timestamp:   time.Date(2024, 6, 5, 9, 0, 0, 0, time.UTC),
			EntryMethod: model.EntryAuto, Modality: model.ModalityPIN},
	}
	records := []model.AbsenceRecord{
		{ID: "r1", EmployeeID: "e2", Date: "2024-06-01", EndDate: "2024-06-10",
			Type: model.RecordVacation, Reason: "vacation from 2024-06-01 to 2024-06-10"},
		{ID: "r2", EmployeeID: "e1", Date: "2024-06-03", Type: model.RecordIgnoredAbsence},
	}

	if err := gw.SaveEmployees(ctx, employees); err != nil {
		t.Fatal(err)
	}
	if err := gw.SavePunches(ctx, punches); err != nil {
		t.Fatal(err)
	}
	if err := gw.SaveRecords(ctx, records); err != nil {
		t.Fatal(err)
	}

	gotEmployees, err := gw.Employees(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(gotEmployees, employees) {
		t.Errorf("employees round trip = %+v, want %+v", gotEmployees, employees)
	}

	gotPunches, err := gw.Punches(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(gotPunches, punches) {
		t.Errorf("punches round trip = %+v, want %+v", gotPunches, punches)
	}

	gotRecords, err := gw.Records(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(gotRecords, records) {
		t.Errorf("records round trip = %+v, want %+v", gotRecords, records)
	}
}

func TestMemoryPreferences(t *testing.T) {
	gw := store.NewMemory()
	ctx := context.Background()

	if err := gw.SaveTheme(ctx, "dark"); err != nil {
		t.Fatal(err)
	}
	theme, err := gw.Theme(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if theme != "dark" {
		t.Errorf("theme = %q, want dark", theme)
	}

	cfg := model.EmailConfig{TargetEmail: "boss@example.com", ScheduleTime: "18:00", Enabled: true}
	if err := gw.SaveEmailConfig(ctx, cfg); err != nil {
		t.Fatal(err)
	}
	got, err := gw.EmailConfig(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got != cfg {
		t.Errorf("email config = %+v, want %+v", got, cfg)
	}

	if err := gw.SaveSummary(ctx, "all present"); err != nil {
		t.Fatal(err)
	}
	text, err := gw.Summary(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if text != "all present" {
		t.Errorf("summary = %q", text)
	}
}

func TestMemoryOverwriteIsWholeSnapshot(t *testing.T) {
	gw := store.NewMemory()
	ctx := context.Background()

	if err := gw.SaveEmployees(ctx, []model.Employee{{ID: "e1", Name: "A", Code: "1"}}); err != nil {
		t.Fatal(err)
	}
	if err := gw.SaveEmployees(ctx, []model.Employee{{ID: "e2", Name: "B", Code: "2"}}); err != nil {
		t.Fatal(err)
	}

	got, err := gw.Employees(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "e2" {
		t.Errorf("employees = %+v, want only e2 (full overwrite)", got)
	}
}
