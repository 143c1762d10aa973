package memorystorage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lomoval/alarmd/internal/storage"
)

type Storage struct {
	mu    sync.RWMutex
	data  map[int64]storage.Alarm
	idSeq int64
}

func New() *Storage {
	return &Storage{data: make(map[int64]storage.Alarm)}
}

func (s *Storage) Connect(_ context.Context) error {
	return nil
}

func (s *Storage) Close(_ context.Context) error {
	return nil
}

func (s *Storage) AddAlarm(_ context.Context, a *storage.Alarm) error {
	if a.Description == "" {
		return storage.ErrEmptyDescription
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.idSeq++
	a.ID = s.idSeq
	s.data[a.ID] = *a
	return nil
}

func (s *Storage) LoadAlarms(_ context.Context) ([]storage.Alarm, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	alarms := make([]storage.Alarm, 0, len(s.data))
	for _, a := range s.data {
		alarms = append(alarms, a)
	}
	return alarms, nil
}

func (s *Storage) UpdateAlarmDueAt(_ context.Context, id int64, dueAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.data[id]
	if !ok {
		return fmt.Errorf("failed to update alarm with id %d: %w", id, storage.ErrNotFoundAlarm)
	}
	a.DueAt = dueAt
	s.data[id] = a
	return nil
}
