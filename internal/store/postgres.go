package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"timeclock/internal/model"
)

// Postgres stores snapshots in a single key-value table.
type Postgres struct {
	db *sql.DB
}

// NewPostgres opens a Postgres connection with sane defaults and ensures
// the snapshot table exists.
func NewPostgres(connString string) (*Postgres, error) {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)
	if err := db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := migrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Postgres{db: db}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS kv_snapshots (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	return err
}

// Close closes the underlying connection.
func (p *Postgres) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	return p.db.Close()
}

// Healthy verifies database connectivity.
func (p *Postgres) Healthy(ctx context.Context) bool {
	if p == nil || p.db == nil {
		return false
	}
	return p.db.PingContext(ctx) == nil
}

func (p *Postgres) getKey(ctx context.Context, key string) ([]byte, error) {
	row := p.db.QueryRowContext(ctx, `SELECT value FROM kv_snapshots WHERE key = $1`, key)
	var val string
	if err := row.Scan(&val); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return []byte(val), nil
}

func (p *Postgres) setKey(ctx context.Context, key string, val []byte) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO kv_snapshots (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`, key, string(val))
	return err
}

func (p *Postgres) Employees(ctx context.Context) ([]model.Employee, error) {
	var out []model.Employee
	b, err := p.getKey(ctx, keyEmployees)
	if err != nil {
		return nil, err
	}
	return out, decode(b, &out)
}

func (p *Postgres) SaveEmployees(ctx context.Context, employees []model.Employee) error {
	b, err := encode(employees)
	if err != nil {
		return err
	}
	return p.setKey(ctx, keyEmployees, b)
}

func (p *Postgres) Punches(ctx context.Context) ([]model.Punch, error) {
	var out []model.Punch
	b, err := p.getKey(ctx, keyPunches)
	if err != nil {
		return nil, err
	}
	return out, decode(b, &out)
}

func (p *Postgres) SavePunches(ctx context.Context, punches []model.Punch) error {
	b, err := encode(punches)
	if err != nil {
		return err
	}
	return p.setKey(ctx, keyPunches, b)
}

func (p *Postgres) Records(ctx context.Context) ([]model.AbsenceRecord, error) {
	var out []model.AbsenceRecord
	b, err := p.getKey(ctx, keyRecords)
	if err != nil {
		return nil, err
	}
	return out, decode(b, &out)
}

func (p *Postgres) SaveRecords(ctx context.Context, records []model.AbsenceRecord) error {
	b, err := encode(records)
	if err != nil {
		return err
	}
	return p.setKey(ctx, keyRecords, b)
}

func (p *Postgres) Theme(ctx context.Context) (string, error) {
	b, err := p.getKey(ctx, keyTheme)
	if err != nil {
		return "", err
	}
	if b == nil {
		return DefaultTheme, nil
	}
	return string(b), nil
}

func (p *Postgres) SaveTheme(ctx context.Context, theme string) error {
	return p.setKey(ctx, keyTheme, []byte(theme))
}

func (p *Postgres) EmailConfig(ctx context.Context) (model.EmailConfig, error) {
	var out model.EmailConfig
	b, err := p.getKey(ctx, keyEmailConfig)
	if err != nil {
		return out, err
	}
	return out, decode(b, &out)
}

func (p *Postgres) SaveEmailConfig(ctx context.Context, cfg model.EmailConfig) error {
	b, err := encode(cfg)
	if err != nil {
		return err
	}
	return p.setKey(ctx, keyEmailConfig, b)
}

func (p *Postgres) Summary(ctx context.Context) (string, error) {
	b, err := p.getKey(ctx, keySummary)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (p *Postgres) SaveSummary(ctx context.Context, text string) error {
	return p.setKey(ctx, keySummary, []byte(text))
}
