// Package stack implements the bounded clipboard history.
package stack

// Stack is an ordered sequence of captured clipboard snapshots, newest at
// the tail. A limit of zero means unbounded; otherwise pushing past the
// limit silently drops the oldest entries. Snapshots are owned by the stack
// once pushed and are never mutated.
//
// Stack is not safe for concurrent use. The controller owns it from a
// single goroutine.
type Stack struct {
	entries [][]byte
	limit   int
}

// New returns an empty stack. limit <= 0 means unbounded.
func New(limit int) *Stack {
	if limit < 0 {
		limit = 0
	}
	return &Stack{limit: limit}
}

// Push appends a snapshot at the tail, evicting from the head as needed to
// keep the length within the limit. Eviction also catches up after the
// limit was lowered with SetLimit.
func (s *Stack) Push(snapshot []byte) {
	s.entries = append(s.entries, snapshot)
	if s.limit <= 0 || len(s.entries) <= s.limit {
		return
	}
	drop := len(s.entries) - s.limit
	n := copy(s.entries, s.entries[drop:])
	for i := n; i < len(s.entries); i++ {
		s.entries[i] = nil
	}
	s.entries = s.entries[:n]
}

// Pop removes and returns the tail snapshot. ok is false when the stack is
// empty.
func (s *Stack) Pop() (snapshot []byte, ok bool) {
	if len(s.entries) == 0 {
		return nil, false
	}
	last := len(s.entries) - 1
	snapshot = s.entries[last]
	s.entries[last] = nil
	s.entries = s.entries[:last]
	return snapshot, true
}

// Peek returns the tail snapshot without removing it.
func (s *Stack) Peek() (snapshot []byte, ok bool) {
	return s.At(0)
}

// At returns the snapshot i positions below the tail, so At(0) is the tail
// itself. ok is false when the stack is not that deep.
func (s *Stack) At(i int) (snapshot []byte, ok bool) {
	idx := len(s.entries) - 1 - i
	if i < 0 || idx < 0 {
		return nil, false
	}
	return s.entries[idx], true
}

// Swap exchanges the two newest snapshots. It reports false, changing
// nothing, when the stack holds fewer than two.
func (s *Stack) Swap() bool {
	n := len(s.entries)
	if n < 2 {
		return false
	}
	s.entries[n-1], s.entries[n-2] = s.entries[n-2], s.entries[n-1]
	return true
}

// Clear drops every snapshot.
func (s *Stack) Clear() {
	s.entries = nil
}

// Len returns the number of held snapshots.
func (s *Stack) Len() int { return len(s.entries) }

// Limit returns the configured bound, zero meaning unbounded.
func (s *Stack) Limit() int { return s.limit }

// SetLimit replaces the bound. Existing entries are kept even when they
// exceed the new limit; the excess is evicted by the next Push.
func (s *Stack) SetLimit(n int) {
	if n < 0 {
		n = 0
	}
	s.limit = n
}
