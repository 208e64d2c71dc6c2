package model

import "time"

// EmployeeStatus is the live status shown on the roster.
type EmployeeStatus string

const (
	StatusActive   EmployeeStatus = "ACTIVE"
	StatusVacation EmployeeStatus = "VACATION"
	StatusAbsent   EmployeeStatus = "ABSENT"
)

// PunchType is the direction of a punch.
type PunchType string

const (
	PunchIn  PunchType = "IN"
	PunchOut PunchType = "OUT"
)

// EntryMethod records how a punch entered the system.
type EntryMethod string

const (
	EntryAuto   EntryMethod = "AUTO"
	EntryManual EntryMethod = "MANUAL"
)

// Modality is the input channel used for a punch. FACE is reserved for a
// future terminal type and is never produced today.
type Modality string

const (
	ModalityPIN  Modality = "PIN"
	ModalityFace Modality = "FACE"
)

// RecordType classifies an absence record.
type RecordType string

const (
	RecordVacation RecordType = "VACATION"
	RecordAbsence  RecordType = "ABSENCE"
	// RecordIgnoredAbsence is a tombstone suppressing one automatically
	// detected absence for one employee+day. Never surfaced as an
	// occurrence itself.
	RecordIgnoredAbsence RecordType = "IGNORED_ABSENCE"
)

// Employee is a roster identity. Vacation fields are set iff status is
// VACATION; absence fields are set iff status is ABSENT.
type Employee struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Code          string         `json:"code"`
	Role          string         `json:"role"`
	Status        EmployeeStatus `json:"status"`
	Avatar        string         `json:"avatar,omitempty"`
	VacationStart string         `json:"vacation_start,omitempty"`
	VacationEnd   string         `json:"vacation_end,omitempty"`
	AbsenceDate   string         `json:"absence_date,omitempty"`
	AbsenceReason string         `json:"absence_reason,omitempty"`
}

// Punch is an immutable clock event.
type Punch struct {
	ID          string      `json:"id"`
	EmployeeID  string      `json:"employee_id"`
	Type        PunchType   `json:"type"`
	Timestamp   time.Time   `json:"timestamp"`
	EntryMethod EntryMethod `json:"entry_method"`
	Modality    Modality    `json:"modality"`
}

// Day returns the calendar-day key of the punch.
func (p Punch) Day() string {
	return Day(p.Timestamp)
}

// AbsenceRecord is a manual or system-created occurrence covering one day
// or, for vacations, an inclusive date range. Records persist as history
// even after the employee's live status reverts to ACTIVE.
type AbsenceRecord struct {
	ID         string     `json:"id"`
	EmployeeID string     `json:"employee_id"`
	Date       string     `json:"date"`
	EndDate    string     `json:"end_date,omitempty"`
	Type       RecordType `json:"type"`
	Reason     string     `json:"reason,omitempty"`
}

// Covers reports whether the record's date (or inclusive date range)
// includes the given day key.
func (r AbsenceRecord) Covers(day string) bool {
	if r.EndDate == "" {
		return r.Date == day
	}
	return r.Date <= day && day <= r.EndDate
}

// EmailConfig holds the daily report email schedule preference.
type EmailConfig struct {
	TargetEmail  string `json:"target_email"`
	ScheduleTime string `json:"schedule_time"`
	Enabled      bool   `json:"enabled"`
	LastSentDate string `json:"last_sent_date,omitempty"`
}

// DayLayout is the canonical day-key format. All day-granularity
// comparisons use these keys, which order lexicographically.
const DayLayout = "2006-01-02"

// Day returns the day key for a timestamp.
func Day(t time.Time) string {
	return t.Format(DayLayout)
}
