// SPDX-License-Identifier: EPL-2.0

package midi

import "math"

// NoEvent is the time reported by Queue.NextTime when nothing is pending.
const NoEvent uint64 = math.MaxUint64

const minQueueSize = 16

// Queue is a time ordered event store with a drain cursor.
//
// Entries before the cursor have been dispatched. They are only reclaimed
// when Insert finds the backing storage full, in which case the stale prefix
// is dropped before the storage is grown.
//
// Queue is not safe for concurrent use; the synthesizer guards it with its
// device lock.
type Queue struct {
	events   []Event
	pos      int
	limit    int
	payloads int
}

// NewQueue returns an empty queue. limit caps the backing storage in events;
// zero means no cap. Inserting past the cap fails with ErrQueueFull.
func NewQueue(limit int) *Queue {
	return &Queue{limit: limit}
}

// Len returns the number of pending (not yet drained) events.
func (q *Queue) Len() int { return len(q.events) - q.pos }

// Cap returns the size of the backing storage.
func (q *Queue) Cap() int { return cap(q.events) }

// Payloads returns the number of SysEx payloads currently owned by the queue,
// drained or not.
func (q *Queue) Payloads() int { return q.payloads }

// NextTime returns the time of the first pending event, or NoEvent.
func (q *Queue) NextTime() uint64 {
	if q.pos == len(q.events) {
		return NoEvent
	}
	return q.events[q.pos].Time
}

// Insert adds e after every queued event with a time <= e.Time. On error the
// queue is unchanged and e is not retained.
func (q *Queue) Insert(e Event) error {
	if len(q.events) == cap(q.events) {
		if q.pos > 0 {
			q.compact()
		} else if err := q.grow(); err != nil {
			return err
		}
	}

	i := q.pos
	if n := len(q.events); n > 0 {
		high := n - 1
		for i < high {
			mid := i + (high-i)/2
			if q.events[mid].Time < e.Time {
				i = mid + 1
			} else {
				high = mid
			}
		}
		for i < n && q.events[i].Time <= e.Time {
			i++
		}
	}

	q.events = q.events[:len(q.events)+1]
	copy(q.events[i+1:], q.events[i:])
	q.events[i] = e

	if e.Kind == SysEx {
		q.payloads++
	}
	return nil
}

// Drain calls fn for every pending event with a time <= t, in order, and
// advances the cursor past them. It returns the number of events drained.
func (q *Queue) Drain(t uint64, fn func(Event)) int {
	n := 0
	for q.pos < len(q.events) && q.events[q.pos].Time <= t {
		if fn != nil {
			fn(q.events[q.pos])
		}
		q.pos++
		n++
	}
	return n
}

// Reset drops every event, releases all SysEx payloads and frees the backing
// storage.
func (q *Queue) Reset() {
	for i := range q.events {
		q.events[i].Data = nil
	}
	q.events = nil
	q.pos = 0
	q.payloads = 0
}

func (q *Queue) compact() {
	for i := 0; i < q.pos; i++ {
		if q.events[i].Kind == SysEx {
			q.payloads--
		}
		q.events[i].Data = nil
	}

	n := copy(q.events, q.events[q.pos:])
	for i := n; i < len(q.events); i++ {
		q.events[i] = Event{}
	}
	q.events = q.events[:n]
	q.pos = 0
}

func (q *Queue) grow() error {
	size := cap(q.events) << 1
	if size == 0 {
		size = minQueueSize
	}
	if q.limit > 0 && size > q.limit {
		if cap(q.events) >= q.limit {
			return ErrQueueFull
		}
		size = q.limit
	}

	events := make([]Event, len(q.events), size)
	copy(events, q.events)
	q.events = events

	return nil
}
