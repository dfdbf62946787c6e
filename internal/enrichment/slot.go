package enrichment

import (
	"sync"

	"github.com/felixgeelhaar/lingo/internal/content"
)

// Kind names a UI concern that can hold one enrichment result
type Kind string

const (
	KindInfo            Kind = "info"
	KindExample         Kind = "example"
	KindClassAnalysis   Kind = "class-analysis"
	KindWeakTopics      Kind = "weak-topics"
	KindRecommendations Kind = "recommendations"
)

// Mode is the provider generation mode a kind uses
type Mode string

const (
	ModeText     Mode = "text"
	ModeSearch   Mode = "search"
	ModeThinking Mode = "thinking"
)

// Mode returns the generation mode for the kind. Unknown kinds use plain text.
func (k Kind) Mode() Mode {
	switch k {
	case KindInfo, KindClassAnalysis:
		return ModeSearch
	case KindRecommendations:
		return ModeThinking
	default:
		return ModeText
	}
}

// SlotKey addresses one slot. Scope identifies the owner (a session or a
// dashboard); Generation ties the slot to a step so stale results can be
// told apart from current ones.
type SlotKey struct {
	Scope      string
	Kind       Kind
	Generation uint64
}

// Result is the settled value of an enrichment request
type Result struct {
	Text    string
	Sources []content.Source
}

// SlotState is a snapshot of one slot
type SlotState struct {
	Loading bool
	Result  *Result
}

type slotEntry struct {
	inflight int
	result   *Result
}

// Board tracks loading flags and results per slot. Slots are independent:
// requests in one slot never affect another.
type Board struct {
	mu    sync.Mutex
	slots map[SlotKey]*slotEntry
}

// NewBoard creates an empty board
func NewBoard() *Board {
	return &Board{slots: make(map[SlotKey]*slotEntry)}
}

// Begin marks a request in flight for key and clears its previous result
func (b *Board) Begin(key SlotKey) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.slots[key]
	if !ok {
		e = &slotEntry{}
		b.slots[key] = e
	}
	e.inflight++
	e.result = nil
}

// Settle stores a result for key. The last call wins. Returns false and
// discards the result when the slot was dropped while the request was in flight.
func (b *Board) Settle(key SlotKey, r Result) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.slots[key]
	if !ok {
		return false
	}
	if e.inflight > 0 {
		e.inflight--
	}
	e.result = &r
	return true
}

// State returns a snapshot of the slot. Unknown keys are idle and empty.
func (b *Board) State(key SlotKey) SlotState {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.slots[key]
	if !ok {
		return SlotState{}
	}
	return SlotState{Loading: e.inflight > 0, Result: e.result}
}

// Drop removes every slot matching the predicate and returns how many were removed
func (b *Board) Drop(match func(SlotKey) bool) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := 0
	for key := range b.slots {
		if match(key) {
			delete(b.slots, key)
			n++
		}
	}
	return n
}

// DropScope removes all slots owned by scope
func (b *Board) DropScope(scope string) int {
	return b.Drop(func(k SlotKey) bool { return k.Scope == scope })
}

// Len returns the number of live slots
func (b *Board) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.slots)
}
