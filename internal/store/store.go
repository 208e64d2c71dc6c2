package store

import (
	"context"
	"sync"

	"timeclock/internal/model"
)

// Snapshot keys. Every write is a full overwrite of the owning key; reads
// of a missing key yield an empty collection or default value.
const (
	keyEmployees   = "timeclock:employees"
	keyPunches     = "timeclock:punches"
	keyRecords     = "timeclock:records"
	keyTheme       = "timeclock:prefs:theme"
	keyEmailConfig = "timeclock:prefs:email"
	keySummary     = "timeclock:summary"
)

// DefaultTheme is returned when no theme preference has been saved.
const DefaultTheme = "light"

// Gateway persists whole-collection snapshots plus scalar preferences.
type Gateway interface {
	Employees(ctx context.Context) ([]model.Employee, error)
	SaveEmployees(ctx context.Context, employees []model.Employee) error

	Punches(ctx context.Context) ([]model.Punch, error)
	SavePunches(ctx context.Context, punches []model.Punch) error

	Records(ctx context.Context) ([]model.AbsenceRecord, error)
	SaveRecords(ctx context.Context, records []model.AbsenceRecord) error

	Theme(ctx context.Context) (string, error)
	SaveTheme(ctx context.Context, theme string) error

	EmailConfig(ctx context.Context) (model.EmailConfig, error)
	SaveEmailConfig(ctx context.Context, cfg model.EmailConfig) error

	Summary(ctx context.Context) (string, error)
	SaveSummary(ctx context.Context, text string) error
}

// Memory is a map-backed Gateway for dev and tests.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory creates an empty in-memory gateway.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) get(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.data[key]
	return b, ok
}

func (m *Memory) set(key string, val []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = val
}

func (m *Memory) Employees(ctx context.Context) ([]model.Employee, error) {
	var out []model.Employee
	b, ok := m.get(keyEmployees)
	if !ok {
		return out, nil
	}
	return out, decode(b, &out)
}

func (m *Memory) SaveEmployees(ctx context.Context, employees []model.Employee) error {
	b, err := encode(employees)
	if err != nil {
		return err
	}
	m.set(keyEmployees, b)
	return nil
}

func (m *Memory) Punches(ctx context.Context) ([]model.Punch, error) {
	var out []model.Punch
	b, ok := m.get(keyPunches)
	if !ok {
		return out, nil
	}
	return out, decode(b, &out)
}

func (m *Memory) SavePunches(ctx context.Context, punches []model.Punch) error {
	b, err := encode(punches)
	if err != nil {
		return err
	}
	m.set(keyPunches, b)
	return nil
}

func (m *Memory) Records(ctx context.Context) ([]model.AbsenceRecord, error) {
	var out []model.AbsenceRecord
	b, ok := m.get(keyRecords)
	if !ok {
		return out, nil
	}
	return out, decode(b, &out)
}

func (m *Memory) SaveRecords(ctx context.Context, records []model.AbsenceRecord) error {
	b, err := encode(records)
	if err != nil {
		return err
	}
	m.set(keyRecords, b)
	return nil
}

func (m *Memory) Theme(ctx context.Context) (string, error) {
	b, ok := m.get(keyTheme)
	if !ok {
		return DefaultTheme, nil
	}
	return string(b), nil
}

func (m *Memory) SaveTheme(ctx context.Context, theme string) error {
	m.set(keyTheme, []byte(theme))
	return nil
}

func (m *Memory) EmailConfig(ctx context.Context) (model.EmailConfig, error) {
	var out model.EmailConfig
	b, ok := m.get(keyEmailConfig)
	if !ok {
		return out, nil
	}
	return out, decode(b, &out)
}

func (m *Memory) SaveEmailConfig(ctx context.Context, cfg model.EmailConfig) error {
	b, err := encode(cfg)
	if err != nil {
		return err
	}
	m.set(keyEmailConfig, b)
	return nil
}

func (m *Memory) Summary(ctx context.Context) (string, error) {
	b, ok := m.get(keySummary)
	if !ok {
		return "", nil
	}
	return string(b), nil
}

func (m *Memory) SaveSummary(ctx context.Context, text string) error {
	m.set(keySummary, []byte(text))
	return nil
}
