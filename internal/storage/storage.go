package storage

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFoundAlarm    = errors.New("alarm not found")
	ErrEmptyDescription = errors.New("alarm description is empty")
)

type Storage interface {
	Connect(ctx context.Context) error
	Close(ctx context.Context) error
	// AddAlarm persists a new alarm and assigns a.ID.
	AddAlarm(ctx context.Context, a *Alarm) error
	LoadAlarms(ctx context.Context) ([]Alarm, error)
	UpdateAlarmDueAt(ctx context.Context, id int64, dueAt time.Time) error
}
