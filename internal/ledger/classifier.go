package ledger

import (
	"time"

	"timeclock/internal/model"
)

// nextPunchType decides the direction of a new automatic punch by count
// parity over the employee's punches on the same calendar day: even
// (0, 2, 4, ...) means IN, odd means OUT.
//
// The rule is purely positional. It never inspects the previous punch's
// type, so manual edits that break IN/OUT alternation can make parity
// assign a direction equal to the previous one. Known tradeoff carried
// over from the behavior this replaces.
func (l *Ledger) nextPunchType(employeeID string, now time.Time) model.PunchType {
	day := model.Day(now)
	count := 0
	for _, p := range l.punches {
		if p.EmployeeID == employeeID && p.Day() == day {
			count++
		}
	}
	if count%2 == 0 {
		return model.PunchIn
	}
	return model.PunchOut
}
