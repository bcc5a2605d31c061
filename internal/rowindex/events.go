// Change notifications with silencing.

package rowindex

import (
	"fmt"
	"slices"
	"sync"
)

// EventKind says what part of a table changed.
type EventKind int

const (
	// EventCellUpdated is one cell at (FirstRow, Column).
	EventCellUpdated EventKind = iota
	// EventRowsInserted covers rows FirstRow to LastRow inclusive.
	EventRowsInserted
	// EventHeaderChanged means the column catalog changed.
	EventHeaderChanged
	// EventDataChanged means any cell may have changed.
	EventDataChanged
)

func (k EventKind) String() string {
	switch k {
	case EventCellUpdated:
		return "cell_updated"
	case EventRowsInserted:
		return "rows_inserted"
	case EventHeaderChanged:
		return "header_changed"
	case EventDataChanged:
		return "data_changed"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// AllColumns is the Column of events that are not about a single column.
const AllColumns = -1

// Event describes one change. Events are comparable; two equal events
// describe the same change.
type Event struct {
	Kind     EventKind
	FirstRow int
	LastRow  int
	Column   int
}

func (e Event) String() string {
	switch e.Kind {
	case EventCellUpdated:
		return fmt.Sprintf("%s(%d,%d)", e.Kind, e.FirstRow, e.Column)
	case EventRowsInserted:
		return fmt.Sprintf("%s(%d-%d)", e.Kind, e.FirstRow, e.LastRow)
	default:
		return e.Kind.String()
	}
}

func cellUpdated(row, col int) Event {
	return Event{Kind: EventCellUpdated, FirstRow: row, LastRow: row, Column: col}
}

func rowsInserted(first, last int) Event {
	return Event{Kind: EventRowsInserted, FirstRow: first, LastRow: last, Column: AllColumns}
}

func headerChanged() Event {
	return Event{Kind: EventHeaderChanged, Column: AllColumns}
}

func dataChanged() Event {
	return Event{Kind: EventDataChanged, Column: AllColumns}
}

type subscription struct {
	id int
	fn func(Event)
}

// notifier dispatches events to subscribers, queueing them while silenced.
type notifier struct {
	mu       sync.Mutex
	nextID   int
	subs     []subscription
	silenced bool
	pending  []Event
	queued   map[Event]struct{}
}

// Subscribe registers fn to receive every event, and returns a function
// that unregisters it.
//
// fn is called synchronously by the goroutine that mutated the table, after
// the table lock is released, so it may read the table.
func (n *notifier) Subscribe(fn func(Event)) func() {
	n.mu.Lock()
	n.nextID++
	id := n.nextID
	n.subs = append(n.subs, subscription{id: id, fn: fn})
	n.mu.Unlock()
	return func() {
		n.mu.Lock()
		n.subs = slices.DeleteFunc(n.subs, func(s subscription) bool { return s.id == id })
		n.mu.Unlock()
	}
}

// Silence queues events instead of delivering them until Unsilence.
func (n *notifier) Silence() {
	n.mu.Lock()
	n.silenced = true
	n.mu.Unlock()
}

// Unsilence delivers the queued events in order and resumes delivery.
func (n *notifier) Unsilence() {
	n.mu.Lock()
	n.silenced = false
	evs := n.pending
	n.pending = nil
	n.queued = nil
	subs := slices.Clone(n.subs)
	n.mu.Unlock()
	dispatch(subs, evs)
}

// Silenced reports whether events are being queued.
func (n *notifier) Silenced() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.silenced
}

func (n *notifier) emit(evs ...Event) {
	n.mu.Lock()
	if n.silenced {
		if n.queued == nil {
			n.queued = make(map[Event]struct{})
		}
		for _, ev := range evs {
			if _, ok := n.queued[ev]; !ok {
				n.queued[ev] = struct{}{}
				n.pending = append(n.pending, ev)
			}
		}
		n.mu.Unlock()
		return
	}
	subs := slices.Clone(n.subs)
	n.mu.Unlock()
	dispatch(subs, evs)
}

func dispatch(subs []subscription, evs []Event) {
	for _, ev := range evs {
		for _, s := range subs {
			s.fn(ev)
		}
	}
}

// EventLog accumulates the events of a table until its owner drains them.
type EventLog struct {
	mu    sync.Mutex
	evs   []Event
	unsub func()
}

// Record returns an EventLog receiving every event from now on.
func (n *notifier) Record() *EventLog {
	l := &EventLog{}
	l.unsub = n.Subscribe(func(e Event) {
		l.mu.Lock()
		l.evs = append(l.evs, e)
		l.mu.Unlock()
	})
	return l
}

// Drain returns the events recorded since the previous call, in order.
func (l *EventLog) Drain() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	evs := l.evs
	l.evs = nil
	return evs
}

// Close stops recording. Events already recorded can still be drained.
func (l *EventLog) Close() {
	l.unsub()
}
