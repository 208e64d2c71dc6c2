package ledger_test

import (
	"context"
	"testing"
	"time"

	"timeclock/internal/ledger"
	"timeclock/internal/model"
)

// reconcileNow fixes "now" mid-June so days before the 15th are scannable.
var reconcileNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func occurrencesFor(t *testing.T, l *ledger.Ledger, start, end string) []ledger.Occurrence {
	t.Helper()
	return l.Occurrences(start, end, "")
}

func punchOn(t *testing.T, l *ledger.Ledger, code string, day time.Time) {
	t.Helper()
	_, err := l.RecordPunch(context.Background(), code, &ledger.ManualPunch{Type: model.PunchIn, Timestamp: day})
	if err != nil {
		t.Fatal(err)
	}
}

func TestAutoAbsenceDetected(t *testing.T) {
	l, _ := newTestLedger(t, ledger.Options{Now: func() time.Time { return reconcileNow }})
	e := addEmployee(t, l, "Carlos Silva", "1234")

	// Punches on every weekday in range except 2024-06-05.
	for _, d := range []int{3, 4, 6, 7, 10} {
		punchOn(t, l, "1234", time.Date(2024, 6, d, 9, 0, 0, 0, time.UTC))
	}

	occs := occurrencesFor(t, l, "2024-06-03", "2024-06-10")
	var autos []ledger.Occurrence
	for _, o := range occs {
		if o.Source == ledger.SourceAuto {
			autos = append(autos, o)
		}
	}
	if len(autos) != 3 {
		t.Fatalf("auto occurrences = %d (%+v), want 3 (05, 08, 09)", len(autos), autos)
	}
	if autos[0].Date != "2024-06-05" {
		t.Errorf("first auto = %s, want 2024-06-05", autos[0].Date)
	}
	if autos[0].EmployeeID != e.ID || autos[0].Type != model.RecordAbsence {
		t.Errorf("auto occurrence = %+v", autos[0])
	}
}

func TestAutoAbsenceNeverFlagsTodayOrFuture(t *testing.T) {
	l, _ := newTestLedger(t, ledger.Options{Now: func() time.Time { return reconcileNow }})
	addEmployee(t, l, "Carlos Silva", "1234")

	occs := occurrencesFor(t, l, "2024-06-14", "2024-06-20")
	for _, o := range occs {
		if o.Date >= "2024-06-15" {
			t.Errorf("flagged %s, which is today or future", o.Date)
		}
	}
	if len(occs) != 1 {
		t.Errorf("occurrences = %d, want 1 (only the 14th)", len(occs))
	}
}

func TestAutoAbsenceUsesUTCToday(t *testing.T) {
	// 01:00 on the 16th in UTC+13 is still midday on the 15th in UTC. The
	// scan keys days in UTC, so the 15th is still in progress and must not
	// be flagged.
	zone := time.FixedZone("UTC+13", 13*60*60)
	localNow := time.Date(2024, 6, 16, 1, 0, 0, 0, zone)
	l, _ := newTestLedger(t, ledger.Options{Now: func() time.Time { return localNow }})
	addEmployee(t, l, "Carlos Silva", "1234")

	occs := occurrencesFor(t, l, "2024-06-13", "2024-06-20")
	for _, o := range occs {
		if o.Date >= "2024-06-15" {
			t.Errorf("flagged %s, which is today or future in UTC", o.Date)
		}
	}
	if len(occs) != 2 {
		t.Errorf("occurrences = %d, want 2 (the 13th and 14th)", len(occs))
	}
}

func TestIgnoredAbsenceTombstone(t *testing.T) {
	l, _ := newTestLedger(t, ledger.Options{Now: func() time.Time { return reconcileNow }})
	e := addEmployee(t, l, "Carlos Silva", "1234")

	before := occurrencesFor(t, l, "2024-06-01", "2024-06-10")

	if _, err := l.IgnoreAbsence(context.Background(), e.ID, "2024-06-05"); err != nil {
		t.Fatal(err)
	}
	after := occurrencesFor(t, l, "2024-06-01", "2024-06-10")

	if len(after) != len(before)-1 {
		t.Fatalf("after tombstone: %d occurrences, want %d", len(after), len(before)-1)
	}
	for _, o := range after {
		if o.Date == "2024-06-05" {
			t.Error("tombstoned day still flagged")
		}
	}
}

func TestVacationRangeSuppressesAutoDetection(t *testing.T) {
	l, _ := newTestLedger(t, ledger.Options{Now: func() time.Time { return reconcileNow }})
	e := addEmployee(t, l, "Roberto Lima", "0000")
	if err := l.SetEmployeeStatus(context.Background(), e.ID, model.StatusVacation, "2024-06-03", "2024-06-07", "", ""); err != nil {
		t.Fatal(err)
	}
	// Back to active so the auto scan considers the employee again.
	if err := l.SetEmployeeStatus(context.Background(), e.ID, model.StatusActive, "", "", "", ""); err != nil {
		t.Fatal(err)
	}

	occs := occurrencesFor(t, l, "2024-06-01", "2024-06-09")

	var manual, auto int
	for _, o := range occs {
		switch o.Source {
		case ledger.SourceManual:
			manual++
			if o.Date != "2024-06-03" || o.EndDate != "2024-06-07" {
				t.Errorf("manual occurrence = %+v, want single 03..07 span", o)
			}
		case ledger.SourceAuto:
			auto++
			if o.Date >= "2024-06-03" && o.Date <= "2024-06-07" {
				t.Errorf("auto detection inside vacation range: %s", o.Date)
			}
		}
	}
	if manual != 1 {
		t.Errorf("manual occurrences = %d, want 1 (vacation is one spanning entry)", manual)
	}
	// 01, 02, 08, 09 remain unexplained.
	if auto != 4 {
		t.Errorf("auto occurrences = %d, want 4", auto)
	}
}

func TestNonActiveEmployeeExcludedFromScan(t *testing.T) {
	l, _ := newTestLedger(t, ledger.Options{Now: func() time.Time { return reconcileNow }})
	e := addEmployee(t, l, "Roberto Lima", "0000")
	// Vacation window starting on the 10th; days before it predate the
	// status change but the scan only looks at current status.
	if err := l.SetEmployeeStatus(context.Background(), e.ID, model.StatusVacation, "2024-06-10", "2024-06-20", "", ""); err != nil {
		t.Fatal(err)
	}

	occs := occurrencesFor(t, l, "2024-06-01", "2024-06-09")
	for _, o := range occs {
		if o.Source == ledger.SourceAuto {
			t.Errorf("auto occurrence %+v for an employee not currently ACTIVE", o)
		}
	}
}

func TestOccurrencesSortedOldestFirst(t *testing.T) {
	l, _ := newTestLedger(t, ledger.Options{Now: func() time.Time { return reconcileNow }})
	e := addEmployee(t, l, "Carlos Silva", "1234")
	if _, err := l.AddAbsenceRecord(context.Background(), model.AbsenceRecord{
		EmployeeID: e.ID, Date: "2024-06-08", Type: model.RecordAbsence, Reason: "sick",
	}); err != nil {
		t.Fatal(err)
	}

	occs := occurrencesFor(t, l, "2024-06-05", "2024-06-09")
	for i := 1; i < len(occs); i++ {
		if occs[i].Date < occs[i-1].Date {
			t.Fatalf("occurrences not ascending by date: %s after %s", occs[i].Date, occs[i-1].Date)
		}
	}
}

func TestManualRecordShadowsAutoSameDay(t *testing.T) {
	l, _ := newTestLedger(t, ledger.Options{Now: func() time.Time { return reconcileNow }})
	e := addEmployee(t, l, "Carlos Silva", "1234")
	if _, err := l.AddAbsenceRecord(context.Background(), model.AbsenceRecord{
		EmployeeID: e.ID, Date: "2024-06-05", Type: model.RecordAbsence, Reason: "sick",
	}); err != nil {
		t.Fatal(err)
	}

	occs := occurrencesFor(t, l, "2024-06-05", "2024-06-05")
	if len(occs) != 1 {
		t.Fatalf("occurrences = %d, want 1 (manual shadows auto)", len(occs))
	}
	if occs[0].Source != ledger.SourceManual {
		t.Errorf("source = %s, want MANUAL", occs[0].Source)
	}
}

func TestNameFilter(t *testing.T) {
	l, _ := newTestLedger(t, ledger.Options{Now: func() time.Time { return reconcileNow }})
	addEmployee(t, l, "Carlos Silva", "1234")
	ana := addEmployee(t, l, "Ana Souza", "5678")

	occs := l.Occurrences("2024-06-05", "2024-06-05", "ana")
	if len(occs) != 1 {
		t.Fatalf("occurrences = %d, want 1", len(occs))
	}
	if occs[0].EmployeeID != ana.ID {
		t.Errorf("filter matched wrong employee: %+v", occs[0])
	}
}

func TestOccurrenceVariantFields(t *testing.T) {
	l, _ := newTestLedger(t, ledger.Options{Now: func() time.Time { return reconcileNow }})
	e := addEmployee(t, l, "Carlos Silva", "1234")
	rec, err := l.AddAbsenceRecord(context.Background(), model.AbsenceRecord{
		EmployeeID: e.ID, Date: "2024-06-04", Type: model.RecordAbsence, Reason: "sick",
	})
	if err != nil {
		t.Fatal(err)
	}

	occs := occurrencesFor(t, l, "2024-06-04", "2024-06-05")
	if len(occs) != 2 {
		t.Fatalf("occurrences = %d, want 2", len(occs))
	}
	manual, auto := occs[0], occs[1]
	if manual.RecordID != rec.ID || manual.Reason != "sick" {
		t.Errorf("manual variant missing record fields: %+v", manual)
	}
	if auto.RecordID != "" || auto.Reason != "" {
		t.Errorf("auto variant carries manual-only fields: %+v", auto)
	}
}
