package ledger

import (
	"sort"
	"strings"
	"time"

	"timeclock/internal/model"
)

// OccurrenceSource tags where an occurrence came from.
type OccurrenceSource string

const (
	SourceManual OccurrenceSource = "MANUAL"
	SourceAuto   OccurrenceSource = "AUTO"
)

// Occurrence is one reportable non-attendance entry for an employee.
// MANUAL occurrences carry the backing record's id, end date and reason;
// AUTO occurrences carry only the employee and the day.
type Occurrence struct {
	Source     OccurrenceSource `json:"source"`
	Type       model.RecordType `json:"type"`
	EmployeeID string           `json:"employee_id"`
	Date       string           `json:"date"`
	EndDate    string           `json:"end_date,omitempty"`
	Reason     string           `json:"reason,omitempty"`
	RecordID   string           `json:"record_id,omitempty"`
}

// Occurrences reconciles manual records with automatic absence detection
// over the closed day range [start, end], optionally filtered by a
// case-insensitive employee-name substring. The result is sorted
// ascending by date, oldest first — the convention for the whole
// history/reporting view, unlike the raw punch log which reads newest
// first.
//
// Automatic detection flags an ABSENCE for every day strictly before now
// and every employee whose current live status is ACTIVE, when no punch
// exists that day, no manual record covers the day, and no
// IGNORED_ABSENCE tombstone exists for that employee+day. Employees
// presently on VACATION or ABSENT are excluded from scanning entirely;
// detection reconstructs from current status only, it does not replay
// historical status.
func (l *Ledger) Occurrences(start, end, nameFilter string) []Occurrence {
	l.mu.Lock()
	defer l.mu.Unlock()

	filter := strings.ToLower(strings.TrimSpace(nameFilter))
	names := make(map[string]string, len(l.employees))
	for _, e := range l.employees {
		names[e.ID] = e.Name
	}
	matches := func(employeeID string) bool {
		if filter == "" {
			return true
		}
		return strings.Contains(strings.ToLower(names[employeeID]), filter)
	}

	var out []Occurrence

	// Manual records whose start date falls in range. Multi-day vacations
	// stay a single spanning entry.
	for _, r := range l.records {
		if r.Type == model.RecordIgnoredAbsence {
			continue
		}
		if r.Date < start || r.Date > end {
			continue
		}
		if !matches(r.EmployeeID) {
			continue
		}
		out = append(out, Occurrence{
			Source:     SourceManual,
			Type:       r.Type,
			EmployeeID: r.EmployeeID,
			Date:       r.Date,
			EndDate:    r.EndDate,
			Reason:     r.Reason,
			RecordID:   r.ID,
		})
	}

	// Punch presence per employee+day.
	punched := make(map[string]bool)
	for _, p := range l.punches {
		punched[p.EmployeeID+"|"+p.Day()] = true
	}
	ignored := make(map[string]bool)
	for _, r := range l.records {
		if r.Type == model.RecordIgnoredAbsence {
			ignored[r.EmployeeID+"|"+r.Date] = true
		}
	}

	today := model.Day(l.now().UTC())
	startT, errStart := time.Parse(model.DayLayout, start)
	endT, errEnd := time.Parse(model.DayLayout, end)
	if errStart != nil || errEnd != nil {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Date < out[j].Date
		})
		return out
	}
	for d := startT; !d.After(endT); d = d.AddDate(0, 0, 1) {
		day := model.Day(d)
		if day >= today {
			// Never flag today or the future.
			break
		}
		for _, e := range l.employees {
			if e.Status != model.StatusActive {
				continue
			}
			if !matches(e.ID) {
				continue
			}
			if punched[e.ID+"|"+day] {
				continue
			}
			if ignored[e.ID+"|"+day] {
				continue
			}
			if l.recordCovers(e.ID, day) {
				continue
			}
			out = append(out, Occurrence{
				Source:     SourceAuto,
				Type:       model.RecordAbsence,
				EmployeeID: e.ID,
				Date:       day,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date < out[j].Date
	})
	return out
}

// recordCovers reports whether any manual record's date or inclusive
// range covers the employee+day.
func (l *Ledger) recordCovers(employeeID, day string) bool {
	for _, r := range l.records {
		if r.Type == model.RecordIgnoredAbsence {
			continue
		}
		if r.EmployeeID == employeeID && r.Covers(day) {
			return true
		}
	}
	return false
}
