package ledger

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"timeclock/internal/model"
	"timeclock/internal/store"
)

// Ledger owns the three record collections and their invariants. Every
// mutation persists the owning collection through the gateway; a persist
// failure is logged and reported as ErrPersist while in-memory state
// proceeds. A single mutex serializes access since the HTTP transport
// serves requests concurrently.
type Ledger struct {
	mu sync.Mutex
	gw store.Gateway

	employees []model.Employee
	punches   []model.Punch
	records   []model.AbsenceRecord

	blockInactive bool
	now           func() time.Time
}

// Options tune ledger behavior.
type Options struct {
	// BlockInactivePunch rejects punches from VACATION/ABSENT employees.
	BlockInactivePunch bool
	// Now overrides the clock, for tests. Defaults to time.Now.
	Now func() time.Time
}

// New hydrates a ledger from the gateway.
func New(ctx context.Context, gw store.Gateway, opts Options) (*Ledger, error) {
	employees, err := gw.Employees(ctx)
	if err != nil {
		return nil, fmt.Errorf("load employees: %w", err)
	}
	punches, err := gw.Punches(ctx)
	if err != nil {
		return nil, fmt.Errorf("load punches: %w", err)
	}
	records, err := gw.Records(ctx)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Ledger{
		gw:            gw,
		employees:     employees,
		punches:       punches,
		records:       records,
		blockInactive: opts.BlockInactivePunch,
		now:           now,
	}, nil
}

// persistEmployees writes the employee snapshot, mapping failure to ErrPersist.
func (l *Ledger) persistEmployees(ctx context.Context) error {
	if err := l.gw.SaveEmployees(ctx, l.employees); err != nil {
		log.Printf("warning: persist employees failed: %v", err)
		return fmt.Errorf("%w: employees: %v", ErrPersist, err)
	}
	return nil
}

func (l *Ledger) persistPunches(ctx context.Context) error {
	if err := l.gw.SavePunches(ctx, l.punches); err != nil {
		log.Printf("warning: persist punches failed: %v", err)
		return fmt.Errorf("%w: punches: %v", ErrPersist, err)
	}
	return nil
}

func (l *Ledger) persistRecords(ctx context.Context) error {
	if err := l.gw.SaveRecords(ctx, l.records); err != nil {
		log.Printf("warning: persist records failed: %v", err)
		return fmt.Errorf("%w: records: %v", ErrPersist, err)
	}
	return nil
}

func joinErrs(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// ---------- Employees ----------

// AddEmployee creates an employee with a generated id and status ACTIVE.
func (l *Ledger) AddEmployee(ctx context.Context, e model.Employee) (model.Employee, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e.Name = strings.TrimSpace(e.Name)
	e.Code = strings.TrimSpace(e.Code)
	if e.Name == "" || e.Code == "" {
		return model.Employee{}, fmt.Errorf("%w: name and code required", ErrValidation)
	}
	if l.codeTaken(e.Code, "") {
		return model.Employee{}, ErrDuplicateCode
	}

	e.ID = uuid.NewString()
	e.Status = model.StatusActive
	e.VacationStart, e.VacationEnd = "", ""
	e.AbsenceDate, e.AbsenceReason = "", ""

	l.employees = append(l.employees, e)
	return e, l.persistEmployees(ctx)
}

// EditEmployee replaces the employee with a matching id. Missing ids are
// a benign no-op.
func (l *Ledger) EditEmployee(ctx context.Context, e model.Employee) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.codeTaken(e.Code, e.ID) {
		return ErrDuplicateCode
	}
	for i := range l.employees {
		if l.employees[i].ID == e.ID {
			l.employees[i] = e
			return l.persistEmployees(ctx)
		}
	}
	return nil
}

// SetEmployeeStatus updates the live status and its dependent fields, and
// appends exactly one absence record when transitioning into a non-ACTIVE
// state. Transitioning into ACTIVE appends nothing.
func (l *Ledger) SetEmployeeStatus(ctx context.Context, id string, status model.EmployeeStatus, vacationStart, vacationEnd, absenceDate, absenceReason string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := -1
	for i := range l.employees {
		if l.employees[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}

	e := l.employees[idx]
	e.Status = status
	e.VacationStart, e.VacationEnd = "", ""
	e.AbsenceDate, e.AbsenceReason = "", ""
	switch status {
	case model.StatusVacation:
		e.VacationStart, e.VacationEnd = vacationStart, vacationEnd
	case model.StatusAbsent:
		e.AbsenceDate, e.AbsenceReason = absenceDate, absenceReason
	}
	l.employees[idx] = e
	empErr := l.persistEmployees(ctx)

	if status == model.StatusActive {
		return empErr
	}

	today := model.Day(l.now().UTC())
	rec := model.AbsenceRecord{
		ID:         uuid.NewString(),
		EmployeeID: id,
	}
	if status == model.StatusVacation {
		rec.Type = model.RecordVacation
		rec.Date = vacationStart
		if rec.Date == "" {
			rec.Date = today
		}
		rec.EndDate = vacationEnd
		rec.Reason = fmt.Sprintf("vacation from %s to %s", vacationStart, vacationEnd)
	} else {
		rec.Type = model.RecordAbsence
		rec.Date = absenceDate
		if rec.Date == "" {
			rec.Date = today
		}
		rec.Reason = absenceReason
	}
	l.records = append(l.records, rec)
	return joinErrs(empErr, l.persistRecords(ctx))
}

// DeleteEmployee removes one employee. Punches and records referencing it
// are kept; views render a placeholder for the dangling id.
func (l *Ledger) DeleteEmployee(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.employees[:0]
	for _, e := range l.employees {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	l.employees = kept
	return l.persistEmployees(ctx)
}

// DeleteAllEmployees wipes all three collections. Attendance data is
// meaningless without employee identities.
func (l *Ledger) DeleteAllEmployees(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.employees = nil
	l.punches = nil
	l.records = nil
	return joinErrs(
		l.persistEmployees(ctx),
		l.persistPunches(ctx),
		l.persistRecords(ctx),
	)
}

func (l *Ledger) codeTaken(code, excludeID string) bool {
	for _, e := range l.employees {
		if e.Code == code && e.ID != excludeID {
			return true
		}
	}
	return false
}

// ---------- Punches ----------

// ManualPunch supplies direction and timestamp for an administrative
// back-dated punch, bypassing the classifier.
type ManualPunch struct {
	Type      model.PunchType
	Timestamp time.Time
}

// RecordPunch resolves a code to an employee and appends a punch. The
// direction of an automatic punch is decided by count parity over the
// employee's punches on today's date.
func (l *Ledger) RecordPunch(ctx context.Context, code string, manual *ManualPunch) (model.Punch, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var emp *model.Employee
	for i := range l.employees {
		if l.employees[i].Code == code {
			emp = &l.employees[i]
			break
		}
	}
	if emp == nil {
		return model.Punch{}, ErrUnknownEmployee
	}
	if l.blockInactive && emp.Status != model.StatusActive {
		return model.Punch{}, ErrInactiveEmployee
	}

	p := model.Punch{
		ID:         uuid.NewString(),
		EmployeeID: emp.ID,
		Modality:   model.ModalityPIN,
	}
	if manual != nil {
		p.Type = manual.Type
		p.Timestamp = manual.Timestamp.UTC()
		p.EntryMethod = model.EntryManual
	} else {
		now := l.now().UTC()
		p.Type = l.nextPunchType(emp.ID, now)
		p.Timestamp = now
		p.EntryMethod = model.EntryAuto
	}

	l.punches = append(l.punches, p)
	return p, l.persistPunches(ctx)
}

// AddPunch appends an already-formed punch, generating an id if needed.
func (l *Ledger) AddPunch(ctx context.Context, p model.Punch) (model.Punch, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if p.EmployeeID == "" || p.Timestamp.IsZero() {
		return model.Punch{}, fmt.Errorf("%w: employee id and timestamp required", ErrValidation)
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.EntryMethod == "" {
		p.EntryMethod = model.EntryManual
	}
	if p.Modality == "" {
		p.Modality = model.ModalityPIN
	}
	p.Timestamp = p.Timestamp.UTC()

	l.punches = append(l.punches, p)
	return p, l.persistPunches(ctx)
}

// EditPunch replaces the punch with a matching id; no-op when absent.
func (l *Ledger) EditPunch(ctx context.Context, p model.Punch) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.punches {
		if l.punches[i].ID == p.ID {
			p.Timestamp = p.Timestamp.UTC()
			l.punches[i] = p
			return l.persistPunches(ctx)
		}
	}
	return nil
}

// DeletePunch removes one punch; no-op when absent.
func (l *Ledger) DeletePunch(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.punches[:0]
	for _, p := range l.punches {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	l.punches = kept
	return l.persistPunches(ctx)
}

// DeleteAllPunches clears the punch log.
func (l *Ledger) DeleteAllPunches(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.punches = nil
	return l.persistPunches(ctx)
}

// ---------- Absence records ----------

// AddAbsenceRecord appends a record, generating an id if needed.
func (l *Ledger) AddAbsenceRecord(ctx context.Context, r model.AbsenceRecord) (model.AbsenceRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if r.EmployeeID == "" || r.Date == "" {
		return model.AbsenceRecord{}, fmt.Errorf("%w: employee id and date required", ErrValidation)
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	l.records = append(l.records, r)
	return r, l.persistRecords(ctx)
}

// IgnoreAbsence appends an IGNORED_ABSENCE tombstone suppressing the
// automatic detection for one employee+day. Append-only.
func (l *Ledger) IgnoreAbsence(ctx context.Context, employeeID, date string) (model.AbsenceRecord, error) {
	return l.AddAbsenceRecord(ctx, model.AbsenceRecord{
		EmployeeID: employeeID,
		Date:       date,
		Type:       model.RecordIgnoredAbsence,
		Reason:     "absence cleared by admin",
	})
}

// DeleteAbsenceRecord removes one record; the owning employee's live
// status is untouched.
func (l *Ledger) DeleteAbsenceRecord(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.records[:0]
	for _, r := range l.records {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	l.records = kept
	return l.persistRecords(ctx)
}

// DeleteAllAbsenceRecords clears the record history and resets every
// employee to ACTIVE, since records are the source of truth for
// non-active status history. Punches are untouched.
func (l *Ledger) DeleteAllAbsenceRecords(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.records = nil
	for i := range l.employees {
		l.employees[i].Status = model.StatusActive
		l.employees[i].VacationStart, l.employees[i].VacationEnd = "", ""
		l.employees[i].AbsenceDate, l.employees[i].AbsenceReason = "", ""
	}
	return joinErrs(l.persistRecords(ctx), l.persistEmployees(ctx))
}

// ---------- Reads ----------

// Employees returns a copy of the roster.
func (l *Ledger) Employees() []model.Employee {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]model.Employee(nil), l.employees...)
}

// Punches returns a copy of the punch log in insertion order.
func (l *Ledger) Punches() []model.Punch {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]model.Punch(nil), l.punches...)
}

// Records returns a copy of the absence records.
func (l *Ledger) Records() []model.AbsenceRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]model.AbsenceRecord(nil), l.records...)
}

// Employee returns the employee with the given id, if present.
func (l *Ledger) Employee(id string) (model.Employee, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.employees {
		if e.ID == id {
			return e, true
		}
	}
	return model.Employee{}, false
}
