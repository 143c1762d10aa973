package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lomoval/alarmd/internal/storage"
	"github.com/lomoval/alarmd/internal/util"
	log "github.com/sirupsen/logrus"
)

var ErrInvalidDateTime = errors.New("invalid datetime, expected format " + util.DateTimeLayout)

// Notifier receives fired alarms. Notify is invoked from the scheduler
// goroutine and must not block.
type Notifier interface {
	Notify(a storage.Alarm) error
}

// Entry is a single row of the List output.
type Entry struct {
	Description string `json:"description"`
	DueAt       string `json:"datetime"`
}

// Scheduler owns the in-memory alarm queue and the single worker
// goroutine that fires due alarms. Persisted state is kept in sync
// through the storage collaborator on Submit and on recurring re-enqueue.
type Scheduler struct {
	storage  storage.Storage
	notifier Notifier
	queue    *Queue
	now      func() time.Time
	wake     chan struct{}
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func New(stor storage.Storage, notifier Notifier) *Scheduler {
	return &Scheduler{
		storage:  stor,
		notifier: notifier,
		queue:    NewQueue(),
		now:      time.Now,
		wake:     make(chan struct{}, 1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start loads persisted alarms into the queue and launches the worker.
// A load failure is fatal, no worker is started.
func (s *Scheduler) Start(ctx context.Context) error {
	if err := s.load(ctx); err != nil {
		return fmt.Errorf("failed to load alarms: %w", err)
	}
	go s.run(ctx)
	return nil
}

// Stop signals the worker and blocks until it exits.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
}

// Submit parses the due time, persists the alarm to obtain its id,
// inserts it into the queue and wakes the worker. On persistence failure
// nothing enters the queue.
func (s *Scheduler) Submit(
	ctx context.Context,
	description string,
	dueAt string,
	recurrence storage.Recurrence,
) (int64, error) {
	t, err := util.ParseDateTime(dueAt)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", dueAt, ErrInvalidDateTime)
	}

	a := storage.Alarm{Description: description, DueAt: t, Recurrence: recurrence}
	if err := s.storage.AddAlarm(ctx, &a); err != nil {
		return 0, fmt.Errorf("failed to add alarm: %w", err)
	}
	s.queue.Insert(a)
	s.signalWake()
	return a.ID, nil
}

// List returns pending alarms ascending by due time. Recurring alarms
// are annotated with their recurrence kind, e.g. "backup (Daily)".
func (s *Scheduler) List() []Entry {
	alarms := s.queue.Snapshot()
	entries := make([]Entry, 0, len(alarms))
	for _, a := range alarms {
		description := a.Description
		if a.Recurrence != storage.RecurrenceNone {
			description = fmt.Sprintf("%s (%s)", description, a.Recurrence)
		}
		entries = append(entries, Entry{
			Description: description,
			DueAt:       util.FormatDateTime(a.DueAt),
		})
	}
	return entries
}

func (s *Scheduler) load(ctx context.Context) error {
	alarms, err := s.storage.LoadAlarms(ctx)
	if err != nil {
		return err
	}

	now := s.now()
	for _, a := range alarms {
		switch {
		case a.Recurrence != storage.RecurrenceNone:
			a.DueAt = NextOccurrence(a.DueAt, a.Recurrence, now)
			s.queue.Insert(a)
		case a.DueAt.After(now):
			s.queue.Insert(a)
		default:
			log.Debugf("dropping expired alarm %d (%s)", a.ID, a.Description)
		}
	}
	return nil
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)
	for {
		next, ok := s.queue.PeekEarliest()
		if !ok {
			select {
			case <-s.stop:
				return
			case <-s.wake:
			}
			continue
		}

		now := s.now()
		if !next.DueAt.After(now) {
			if a, ok := s.queue.PopEarliest(); ok {
				s.fire(ctx, a)
			}
			continue
		}

		timer := time.NewTimer(next.DueAt.Sub(now))
		select {
		case <-s.stop:
			timer.Stop()
			return
		case <-s.wake:
			// A new alarm may now be the earliest, re-peek.
			timer.Stop()
		case <-timer.C:
		}
	}
}

func (s *Scheduler) fire(ctx context.Context, a storage.Alarm) {
	log.Debugf("firing alarm %d (%s)", a.ID, a.Description)
	if err := s.notifier.Notify(a); err != nil {
		log.Errorf("failed to notify about alarm %d: %v", a.ID, err)
	}

	if a.Recurrence == storage.RecurrenceNone {
		return
	}
	a.DueAt = NextOccurrence(a.DueAt, a.Recurrence, s.now())
	if err := s.storage.UpdateAlarmDueAt(ctx, a.ID, a.DueAt); err != nil {
		// The occurrence is dropped for this cycle, the loop keeps going.
		log.Errorf("failed to update recurring alarm %d: %v", a.ID, err)
		return
	}
	s.queue.Insert(a)
}

func (s *Scheduler) signalWake() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}
