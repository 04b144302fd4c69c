// Package novelty tracks previously issued questions per conversation and
// answers whether a candidate question repeats one of them.
package novelty

import (
	"container/list"
	"sync"
)

const (
	// MaxRetained bounds how many question texts one conversation keeps.
	// Older entries are dropped oldest-first.
	MaxRetained = 50
	// RecentWindow is how many entries are exposed to generation prompts.
	// The full retained set still counts for collision checks.
	RecentWindow = 10
	// DefaultCapacity bounds how many conversations the store retains
	// before evicting the least recently used one.
	DefaultCapacity = 256
)

type conversation struct {
	id      string
	entries []string
	norms   []string
	elem    *list.Element
}

// Store is an in-memory, bounded record of issued questions keyed by an
// opaque conversation token. All mutations for a conversation are
// linearized under the store mutex; whole conversations are evicted LRU
// once capacity is exceeded, so a long-running process cannot leak an
// unbounded number of tokens.
type Store struct {
	mu            sync.Mutex
	capacity      int
	conversations map[string]*conversation
	order         *list.List // front = most recently used
}

// NewStore creates a store with DefaultCapacity conversations.
func NewStore() *Store {
	return NewStoreWithCapacity(DefaultCapacity)
}

// NewStoreWithCapacity creates a store retaining at most capacity
// conversations.
func NewStoreWithCapacity(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{
		capacity:      capacity,
		conversations: make(map[string]*conversation),
		order:         list.New(),
	}
}

// Record appends text to the conversation's history, trimming to the last
// MaxRetained entries.
func (s *Store) Record(conversationID, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.touch(conversationID)
	c.entries = append(c.entries, text)
	c.norms = append(c.norms, Normalize(text))
	if n := len(c.entries); n > MaxRetained {
		c.entries = c.entries[n-MaxRetained:]
		c.norms = c.norms[n-MaxRetained:]
	}
}

// Recent returns the last n recorded entries in insertion order. Passing
// n <= 0 uses RecentWindow.
func (s *Store) Recent(conversationID string, n int) []string {
	if n <= 0 {
		n = RecentWindow
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversations[conversationID]
	if !ok {
		return nil
	}
	s.order.MoveToFront(c.elem)

	start := len(c.entries) - n
	if start < 0 {
		start = 0
	}
	out := make([]string, len(c.entries)-start)
	copy(out, c.entries[start:])
	return out
}

// Collides reports whether the normalized candidate exactly matches any
// retained entry for the conversation.
func (s *Store) Collides(conversationID, candidate string) bool {
	norm := Normalize(candidate)

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversations[conversationID]
	if !ok {
		return false
	}
	s.order.MoveToFront(c.elem)

	for _, n := range c.norms {
		if n == norm {
			return true
		}
	}
	return false
}

// Len returns the number of retained entries for a conversation.
func (s *Store) Len(conversationID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversations[conversationID]
	if !ok {
		return 0
	}
	return len(c.entries)
}

// Conversations returns how many conversations the store currently holds.
func (s *Store) Conversations() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conversations)
}

// touch returns the conversation for id, creating it (and evicting the
// least recently used one if over capacity) as needed. Caller holds s.mu.
func (s *Store) touch(id string) *conversation {
	if c, ok := s.conversations[id]; ok {
		s.order.MoveToFront(c.elem)
		return c
	}

	c := &conversation{id: id}
	c.elem = s.order.PushFront(c)
	s.conversations[id] = c

	for len(s.conversations) > s.capacity {
		oldest := s.order.Back()
		if oldest == nil {
			break
		}
		evicted := s.order.Remove(oldest).(*conversation)
		delete(s.conversations, evicted.id)
	}
	return c
}
