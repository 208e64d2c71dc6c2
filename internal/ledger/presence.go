package ledger

import "timeclock/internal/model"

// PresenceState is an employee's derived state for today.
type PresenceState string

const (
	PresencePresent    PresenceState = "PRESENT"
	PresenceVacation   PresenceState = "VACATION"
	PresenceAbsent     PresenceState = "ABSENT"
	PresenceAutoAbsent PresenceState = "AUTO_ABSENT"
)

// PresenceEntry pairs an employee with today's derived state.
type PresenceEntry struct {
	Employee model.Employee `json:"employee"`
	State    PresenceState  `json:"state"`
	HasIn    bool           `json:"has_in"`
	HasOut   bool           `json:"has_out"`
}

// Presence computes today's per-employee presence fresh on every call.
// Present means at least one IN punch today; on vacation follows live
// status; ACTIVE employees without an IN punch are auto-absent; the rest
// keep whatever their live status encodes.
func (l *Ledger) Presence() []PresenceEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	today := model.Day(l.now().UTC())
	hasIn := make(map[string]bool)
	hasOut := make(map[string]bool)
	for _, p := range l.punches {
		if p.Day() != today {
			continue
		}
		switch p.Type {
		case model.PunchIn:
			hasIn[p.EmployeeID] = true
		case model.PunchOut:
			hasOut[p.EmployeeID] = true
		}
	}

	out := make([]PresenceEntry, 0, len(l.employees))
	for _, e := range l.employees {
		entry := PresenceEntry{
			Employee: e,
			HasIn:    hasIn[e.ID],
			HasOut:   hasOut[e.ID],
		}
		switch {
		case hasIn[e.ID]:
			entry.State = PresencePresent
		case e.Status == model.StatusVacation:
			entry.State = PresenceVacation
		case e.Status == model.StatusActive:
			entry.State = PresenceAutoAbsent
		default:
			entry.State = PresenceAbsent
		}
		out = append(out, entry)
	}
	return out
}
