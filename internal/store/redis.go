package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"timeclock/internal/model"
)

// Redis stores snapshots as JSON strings, one key per collection.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to redis with short timeouts.
func NewRedis(addr string) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
	return &Redis{Client: client}
}

// Healthy verifies redis connectivity.
func (r *Redis) Healthy(ctx context.Context) bool {
	if r == nil || r.Client == nil {
		return false
	}
	return r.Client.Ping(ctx).Err() == nil
}

func (r *Redis) getKey(ctx context.Context, key string) ([]byte, error) {
	b, err := r.Client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	return b, nil
}

func (r *Redis) setKey(ctx context.Context, key string, val []byte) error {
	return r.Client.Set(ctx, key, val, 0).Err()
}

func (r *Redis) Employees(ctx context.Context) ([]model.Employee, error) {
	var out []model.Employee
	b, err := r.getKey(ctx, keyEmployees)
	if err != nil {
		return nil, err
	}
	return out, decode(b, &out)
}

func (r *Redis) SaveEmployees(ctx context.Context, employees []model.Employee) error {
	b, err := encode(employees)
	if err != nil {
		return err
	}
	return r.setKey(ctx, keyEmployees, b)
}

func (r *Redis) Punches(ctx context.Context) ([]model.Punch, error) {
	var out []model.Punch
	b, err := r.getKey(ctx, keyPunches)
	if err != nil {
		return nil, err
	}
	return out, decode(b, &out)
}

func (r *Redis) SavePunches(ctx context.Context, punches []model.Punch) error {
	b, err := encode(punches)
	if err != nil {
		return err
	}
	return r.setKey(ctx, keyPunches, b)
}

func (r *Redis) Records(ctx context.Context) ([]model.AbsenceRecord, error) {
	var out []model.AbsenceRecord
	b, err := r.getKey(ctx, keyRecords)
	if err != nil {
		return nil, err
	}
	return out, decode(b, &out)
}

func (r *Redis) SaveRecords(ctx context.Context, records []model.AbsenceRecord) error {
	b, err := encode(records)
	if err != nil {
		return err
	}
	return r.setKey(ctx, keyRecords, b)
}

func (r *Redis) Theme(ctx context.Context) (string, error) {
	b, err := r.getKey(ctx, keyTheme)
	if err != nil {
		return "", err
	}
	if b == nil {
		return DefaultTheme, nil
	}
	return string(b), nil
}

func (r *Redis) SaveTheme(ctx context.Context, theme string) error {
	return r.setKey(ctx, keyTheme, []byte(theme))
}

func (r *Redis) EmailConfig(ctx context.Context) (model.EmailConfig, error) {
	var out model.EmailConfig
	b, err := r.getKey(ctx, keyEmailConfig)
	if err != nil {
		return out, err
	}
	return out, decode(b, &out)
}

func (r *Redis) SaveEmailConfig(ctx context.Context, cfg model.EmailConfig) error {
	b, err := encode(cfg)
	if err != nil {
		return err
	}
	return r.setKey(ctx, keyEmailConfig, b)
}

func (r *Redis) Summary(ctx context.Context) (string, error) {
	b, err := r.getKey(ctx, keySummary)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *Redis) SaveSummary(ctx context.Context, text string) error {
	return r.setKey(ctx, keySummary, []byte(text))
}
