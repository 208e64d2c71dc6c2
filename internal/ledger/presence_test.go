package ledger_test

import (
	"context"
	"testing"
	"time"

	"timeclock/internal/ledger"
	"timeclock/internal/model"
)

func stateOf(entries []ledger.PresenceEntry, id string) ledger.PresenceState {
	for _, e := range entries {
		if e.Employee.ID == id {
			return e.State
		}
	}
	return ""
}

func TestPresenceStates(t *testing.T) {
	l, _ := newTestLedger(t, ledger.Options{})

	present := addEmployee(t, l, "Carlos Silva", "1234")
	missing := addEmployee(t, l, "Ana Souza", "5678")
	vacation := addEmployee(t, l, "Roberto Lima", "0000")
	absent := addEmployee(t, l, "Joana Alves", "4321")

	if _, err := l.RecordPunch(context.Background(), "1234", nil); err != nil {
		t.Fatal(err)
	}
	if err := l.SetEmployeeStatus(context.Background(), vacation.ID, model.StatusVacation, "2024-06-10", "2024-06-20", "", ""); err != nil {
		t.Fatal(err)
	}
	if err := l.SetEmployeeStatus(context.Background(), absent.ID, model.StatusAbsent, "", "", "2024-06-15", "sick"); err != nil {
		t.Fatal(err)
	}

	entries := l.Presence()
	if len(entries) != 4 {
		t.Fatalf("entries = %d, want 4", len(entries))
	}
	if got := stateOf(entries, present.ID); got != ledger.PresencePresent {
		t.Errorf("punched-in employee state = %s, want PRESENT", got)
	}
	if got := stateOf(entries, missing.ID); got != ledger.PresenceAutoAbsent {
		t.Errorf("active employee without IN state = %s, want AUTO_ABSENT", got)
	}
	if got := stateOf(entries, vacation.ID); got != ledger.PresenceVacation {
		t.Errorf("vacationing employee state = %s, want VACATION", got)
	}
	if got := stateOf(entries, absent.ID); got != ledger.PresenceAbsent {
		t.Errorf("absent employee state = %s, want ABSENT", got)
	}
}

func TestPresenceInPunchWinsOverStatus(t *testing.T) {
	l, _ := newTestLedger(t, ledger.Options{})
	e := addEmployee(t, l, "Roberto Lima", "0000")
	if err := l.SetEmployeeStatus(context.Background(), e.ID, model.StatusVacation, "2024-06-10", "2024-06-20", "", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := l.RecordPunch(context.Background(), "0000", nil); err != nil {
		t.Fatal(err)
	}

	if got := stateOf(l.Presence(), e.ID); got != ledger.PresencePresent {
		t.Errorf("state = %s, want PRESENT (an IN punch today wins)", got)
	}
}

func TestPresenceUsesUTCDayKeys(t *testing.T) {
	// 22:00 in UTC-3 is already the next day in UTC. Punch timestamps are
	// stored UTC, so "today" must come from the same clock or an employee
	// who just punched in reads as auto-absent.
	zone := time.FixedZone("UTC-3", -3*60*60)
	localNow := time.Date(2024, 6, 15, 22, 0, 0, 0, zone)
	l, _ := newTestLedger(t, ledger.Options{Now: func() time.Time { return localNow }})
	e := addEmployee(t, l, "Carlos Silva", "1234")

	if _, err := l.RecordPunch(context.Background(), "1234", nil); err != nil {
		t.Fatal(err)
	}
	if got := stateOf(l.Presence(), e.ID); got != ledger.PresencePresent {
		t.Errorf("state = %s, want PRESENT (punch and presence must share a clock)", got)
	}
}

func TestPresenceOnlyCountsTodaysPunches(t *testing.T) {
	l, _ := newTestLedger(t, ledger.Options{})
	e := addEmployee(t, l, "Carlos Silva", "1234")

	yesterday := testNow.Add(-24 * time.Hour)
	if _, err := l.RecordPunch(context.Background(), "1234", &ledger.ManualPunch{Type: model.PunchIn, Timestamp: yesterday}); err != nil {
		t.Fatal(err)
	}

	if got := stateOf(l.Presence(), e.ID); got != ledger.PresenceAutoAbsent {
		t.Errorf("state = %s, want AUTO_ABSENT (yesterday's punch must not count)", got)
	}
}
