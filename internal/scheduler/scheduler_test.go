package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/lomoval/alarmd/internal/storage"
	"github.com/stretchr/testify/require"
)

var errStorageBroken = errors.New("storage broken")

type updateCall struct {
	id    int64
	dueAt time.Time
}

type fakeStorage struct {
	mu         sync.Mutex
	idSeq      int64
	alarms     []storage.Alarm
	updates    chan updateCall
	failAdd    bool
	failUpdate bool
	loadErr    error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{updates: make(chan updateCall, 10)}
}

func (s *fakeStorage) Connect(_ context.Context) error { return nil }
func (s *fakeStorage) Close(_ context.Context) error   { return nil }

func (s *fakeStorage) AddAlarm(_ context.Context, a *storage.Alarm) error {
	if s.failAdd {
		return errStorageBroken
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idSeq++
	a.ID = s.idSeq
	s.alarms = append(s.alarms, *a)
	return nil
}

func (s *fakeStorage) LoadAlarms(_ context.Context) ([]storage.Alarm, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	alarms := make([]storage.Alarm, len(s.alarms))
	copy(alarms, s.alarms)
	return alarms, nil
}

func (s *fakeStorage) UpdateAlarmDueAt(_ context.Context, id int64, dueAt time.Time) error {
	s.updates <- updateCall{id: id, dueAt: dueAt}
	if s.failUpdate {
		return errStorageBroken
	}
	return nil
}

type fakeNotifier struct {
	fired chan storage.Alarm
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{fired: make(chan storage.Alarm, 10)}
}

func (n *fakeNotifier) Notify(a storage.Alarm) error {
	n.fired <- a
	return nil
}

func waitAlarm(t *testing.T, ch chan storage.Alarm) storage.Alarm {
	t.Helper()
	select {
	case a := <-ch:
		return a
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for alarm to fire")
	}
	return storage.Alarm{}
}

func stopScheduler(t *testing.T, s *Scheduler) {
	t.Helper()
	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(3 * time.Second):
		t.Fatal("scheduler did not stop in time")
	}
}

func TestSubmitAndList(t *testing.T) {
	s := New(newFakeStorage(), newFakeNotifier())
	ctx := context.Background()

	_, err := s.Submit(ctx, "third", "2099-03-01 10:00", storage.RecurrenceNone)
	require.NoError(t, err)
	_, err = s.Submit(ctx, "first", "2099-01-01 09:00", storage.RecurrenceNone)
	require.NoError(t, err)
	_, err = s.Submit(ctx, "second", "2099-02-01 08:30", storage.RecurrenceDaily)
	require.NoError(t, err)

	entries := s.List()
	require.Equal(t, []Entry{
		{Description: "first", DueAt: "2099-01-01 09:00"},
		{Description: "second (Daily)", DueAt: "2099-02-01 08:30"},
		{Description: "third", DueAt: "2099-03-01 10:00"},
	}, entries)

	// List is read-only.
	require.Equal(t, entries, s.List())
}

func TestSubmitInvalidDateTime(t *testing.T) {
	s := New(newFakeStorage(), newFakeNotifier())

	tests := []string{"", "tomorrow", "2099-01-01", "2099-01-01T09:00", "01.02.2099 09:00"}
	for _, dueAt := range tests {
		dueAt := dueAt
		t.Run(fmt.Sprintf("%q", dueAt), func(t *testing.T) {
			_, err := s.Submit(context.Background(), "test", dueAt, storage.RecurrenceNone)
			require.ErrorIs(t, err, ErrInvalidDateTime)
		})
	}
	require.Empty(t, s.List())
}

func TestSubmitPersistenceFailure(t *testing.T) {
	stor := newFakeStorage()
	stor.failAdd = true
	s := New(stor, newFakeNotifier())

	_, err := s.Submit(context.Background(), "test", "2099-01-01 09:00", storage.RecurrenceNone)
	require.ErrorIs(t, err, errStorageBroken)
	require.Empty(t, s.List())
}

func TestSubmitConcurrent(t *testing.T) {
	const count = 50
	stor := newFakeStorage()
	s := New(stor, newFakeNotifier())

	var wg sync.WaitGroup
	for i := 0; i < count; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Submit(
				context.Background(),
				fmt.Sprintf("alarm-%d", i),
				fmt.Sprintf("2099-01-01 %02d:%02d", i/60, i%60),
				storage.RecurrenceNone,
			)
			require.NoError(t, err)
		}(i)
	}
	wg.Wait()

	entries := s.List()
	require.Len(t, entries, count)
	seen := make(map[string]bool)
	for _, e := range entries {
		require.False(t, seen[e.Description], "duplicate entry %q", e.Description)
		seen[e.Description] = true
	}
}

func TestStartLoadsPersisted(t *testing.T) {
	now := time.Date(2024, 3, 15, 0, 0, 0, 0, time.Local)
	stor := newFakeStorage()
	stor.alarms = []storage.Alarm{
		{ID: 1, Description: "expired", DueAt: time.Date(2024, 3, 1, 9, 0, 0, 0, time.Local)},
		{ID: 2, Description: "meeting", DueAt: time.Date(2099, 1, 1, 9, 0, 0, 0, time.Local)},
		{
			ID:          3,
			Description: "pay bill",
			DueAt:       time.Date(2024, 1, 1, 10, 0, 0, 0, time.Local),
			Recurrence:  storage.RecurrenceMonthly,
		},
	}
	stor.idSeq = 3

	s := New(stor, newFakeNotifier())
	s.now = func() time.Time { return now }
	require.NoError(t, s.Start(context.Background()))
	defer stopScheduler(t, s)

	require.Equal(t, []Entry{
		{Description: "pay bill (Monthly)", DueAt: "2024-04-01 10:00"},
		{Description: "meeting", DueAt: "2099-01-01 09:00"},
	}, s.List())
}

func TestStartFailsWhenStorageUnreachable(t *testing.T) {
	stor := newFakeStorage()
	stor.loadErr = errStorageBroken

	s := New(stor, newFakeNotifier())
	require.ErrorIs(t, s.Start(context.Background()), errStorageBroken)
}

func TestOneShotFiresOnce(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.Local)
	stor := newFakeStorage()
	notify := newFakeNotifier()

	s := New(stor, notify)
	s.now = func() time.Time { return now }
	require.NoError(t, s.Start(context.Background()))
	defer stopScheduler(t, s)

	id, err := s.Submit(context.Background(), "one shot", "2024-03-15 12:00", storage.RecurrenceNone)
	require.NoError(t, err)

	fired := waitAlarm(t, notify.fired)
	require.Equal(t, id, fired.ID)
	require.Equal(t, "one shot", fired.Description)

	require.Eventually(t, func() bool { return len(s.List()) == 0 }, 3*time.Second, 10*time.Millisecond)
	require.Empty(t, stor.updates)
}

func TestDailyFireReEnqueues(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.Local)
	stor := newFakeStorage()
	notify := newFakeNotifier()

	s := New(stor, notify)
	s.now = func() time.Time { return now }
	require.NoError(t, s.Start(context.Background()))
	defer stopScheduler(t, s)

	id, err := s.Submit(context.Background(), "backup", "2024-03-15 12:00", storage.RecurrenceDaily)
	require.NoError(t, err)

	fired := waitAlarm(t, notify.fired)
	require.Equal(t, id, fired.ID)

	select {
	case update := <-stor.updates:
		require.Equal(t, id, update.id)
		require.True(t, now.Add(24*time.Hour).Equal(update.dueAt),
			"expected %s, got %s", now.Add(24*time.Hour), update.dueAt)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for due time update")
	}

	require.Eventually(t, func() bool {
		entries := s.List()
		return len(entries) == 1 && entries[0].DueAt == "2024-03-16 12:00"
	}, 3*time.Second, 10*time.Millisecond)

	entries := s.List()
	require.Equal(t, "backup (Daily)", entries[0].Description)

	// Exactly one persistence update per firing.
	require.Empty(t, stor.updates)
}

func TestRecurringUpdateFailureDropsOccurrence(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.Local)
	stor := newFakeStorage()
	stor.failUpdate = true
	notify := newFakeNotifier()

	s := New(stor, notify)
	s.now = func() time.Time { return now }
	require.NoError(t, s.Start(context.Background()))
	defer stopScheduler(t, s)

	_, err := s.Submit(context.Background(), "backup", "2024-03-15 12:00", storage.RecurrenceDaily)
	require.NoError(t, err)

	waitAlarm(t, notify.fired)
	require.Eventually(t, func() bool { return len(s.List()) == 0 }, 3*time.Second, 10*time.Millisecond)

	// The loop survives the failure and keeps serving submissions.
	_, err = s.Submit(context.Background(), "later", "2099-01-01 09:00", storage.RecurrenceNone)
	require.NoError(t, err)
	require.Len(t, s.List(), 1)
}

func TestStopWakesWaitingLoop(t *testing.T) {
	s := New(newFakeStorage(), newFakeNotifier())
	require.NoError(t, s.Start(context.Background()))

	// Waiting on a far-future deadline must not delay shutdown.
	_, err := s.Submit(context.Background(), "far", "2099-01-01 09:00", storage.RecurrenceNone)
	require.NoError(t, err)

	stopScheduler(t, s)
}
