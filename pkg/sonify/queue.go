package sonify

import (
	"github.com/google/btree"
)

type eventKind int8

// NoteStop sorts before NoteStart so a voice releases its note before it
// starts the next one at the same instant.
const (
	noteStop eventKind = iota
	noteStart
)

func (k eventKind) String() string {
	if k == noteStop {
		return "stop"
	}
	return "start"
}

// event is a scheduled note start or stop for one voice.
type event struct {
	at      float64 // seconds on the interpreter clock
	kind    eventKind
	seq     uint64 // insertion order, the final tie-break
	voice   int
	note    Note // what was sounded, for stops
	sounded bool // false when the probability gate kept the note silent
}

func eventLess(a, b event) bool {
	if a.at != b.at {
		return a.at < b.at
	}
	if a.kind != b.kind {
		return a.kind < b.kind
	}
	return a.seq < b.seq
}

// eventQueue is a priority queue of events ordered by (time, kind, insertion).
// Every key is unique thanks to seq, so the tree never replaces an event.
type eventQueue struct {
	tree *btree.BTreeG[event]
	seq  uint64
}

func newEventQueue() *eventQueue {
	return &eventQueue{tree: btree.NewG[event](8, eventLess)}
}

func (q *eventQueue) push(e event) {
	q.seq++
	e.seq = q.seq
	q.tree.ReplaceOrInsert(e)
}

// popDue removes and returns the earliest event if it is due at now.
func (q *eventQueue) popDue(now float64) (event, bool) {
	head, ok := q.tree.Min()
	if !ok || head.at > now {
		return event{}, false
	}
	q.tree.DeleteMin()
	return head, true
}

func (q *eventQueue) peek() (event, bool) { return q.tree.Min() }

func (q *eventQueue) Len() int { return q.tree.Len() }

func (q *eventQueue) clear() { q.tree.Clear(false) }
