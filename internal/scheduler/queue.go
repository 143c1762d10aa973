package scheduler

import (
	"container/heap"
	"sync"

	"github.com/lomoval/alarmd/internal/storage"
)

// Queue is a concurrency-safe min-heap of pending alarms ordered by due
// time, ties broken by id.
type Queue struct {
	mu    sync.Mutex
	items alarmHeap
}

func NewQueue() *Queue {
	return &Queue{}
}

func (q *Queue) Insert(a storage.Alarm) {
	q.mu.Lock()
	defer q.mu.Unlock()
	heap.Push(&q.items, a)
}

func (q *Queue) PeekEarliest() (storage.Alarm, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return storage.Alarm{}, false
	}
	return q.items[0], true
}

func (q *Queue) PopEarliest() (storage.Alarm, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return storage.Alarm{}, false
	}
	return heap.Pop(&q.items).(storage.Alarm), true
}

// Snapshot returns a copy of the pending alarms in ascending due order
// without draining the queue.
func (q *Queue) Snapshot() []storage.Alarm {
	q.mu.Lock()
	temp := make(alarmHeap, len(q.items))
	copy(temp, q.items)
	q.mu.Unlock()

	alarms := make([]storage.Alarm, 0, len(temp))
	for len(temp) > 0 {
		alarms = append(alarms, heap.Pop(&temp).(storage.Alarm))
	}
	return alarms
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

type alarmHeap []storage.Alarm

func (h alarmHeap) Len() int { return len(h) }

func (h alarmHeap) Less(i, j int) bool {
	if h[i].DueAt.Equal(h[j].DueAt) {
		return h[i].ID < h[j].ID
	}
	return h[i].DueAt.Before(h[j].DueAt)
}

func (h alarmHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *alarmHeap) Push(x interface{}) {
	*h = append(*h, x.(storage.Alarm))
}

func (h *alarmHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
