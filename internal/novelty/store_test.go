package novelty

import (
	"fmt"
	"strconv"
	"testing"
)

func TestNormalizeIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"Two Sum?",
		"  What is   a goroutine?! ",
		"reverse-a-linked-list",
		"",
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %q vs %q", in, once, twice)
		}
	}
}

func TestNormalizeVariants(t *testing.T) {
	t.Parallel()

	if Normalize("Two Sum?") != Normalize("two sum") {
		t.Errorf("case/punctuation variants should normalize equal: %q vs %q",
			Normalize("Two Sum?"), Normalize("two sum"))
	}
	if Normalize("what  is\ta   mutex") != "what is a mutex" {
		t.Errorf("whitespace not collapsed: %q", Normalize("what  is\ta   mutex"))
	}
}

func TestRecordAndCollides(t *testing.T) {
	t.Parallel()

	s := NewStore()
	const conv = "conv-1"

	q := "Two Sum?"
	if s.Collides(conv, q) {
		t.Fatal("expected no collision before recording")
	}
	s.Record(conv, q)
	if !s.Collides(conv, q) {
		t.Fatal("expected collision immediately after recording")
	}
	if !s.Collides(conv, "two sum") {
		t.Fatal("expected case/punctuation variant to collide")
	}
	if s.Collides("other-conv", q) {
		t.Fatal("collision must not leak across conversations")
	}
}

func TestRecordCapsRetention(t *testing.T) {
	t.Parallel()

	s := NewStore()
	const conv = "conv-cap"

	for i := 0; i < MaxRetained+25; i++ {
		s.Record(conv, "question "+strconv.Itoa(i))
	}

	if got := s.Len(conv); got != MaxRetained {
		t.Fatalf("expected %d retained entries, got %d", MaxRetained, got)
	}
	// Oldest entries are gone, newest survive.
	if s.Collides(conv, "question 0") {
		t.Error("expected oldest entry to be trimmed")
	}
	if !s.Collides(conv, "question "+strconv.Itoa(MaxRetained+24)) {
		t.Error("expected newest entry to be retained")
	}
}

func TestRecentReturnsLastNInOrder(t *testing.T) {
	t.Parallel()

	s := NewStore()
	const conv = "conv-recent"

	for i := 0; i < 30; i++ {
		s.Record(conv, "q"+strconv.Itoa(i))
	}

	recent := s.Recent(conv, 10)
	if len(recent) != 10 {
		t.Fatalf("expected 10 recent entries, got %d", len(recent))
	}
	for i, got := range recent {
		want := "q" + strconv.Itoa(20+i)
		if got != want {
			t.Errorf("recent[%d] = %q, want %q", i, got, want)
		}
	}

	// Fewer entries than requested returns what exists.
	s.Record("short", "only one")
	if got := s.Recent("short", 10); len(got) != 1 || got[0] != "only one" {
		t.Errorf("unexpected recent for short conversation: %v", got)
	}
	if got := s.Recent("missing", 10); got != nil {
		t.Errorf("expected nil for unknown conversation, got %v", got)
	}
}

func TestConversationEvictionLRU(t *testing.T) {
	t.Parallel()

	s := NewStoreWithCapacity(3)
	for i := 0; i < 3; i++ {
		s.Record(fmt.Sprintf("conv-%d", i), "q")
	}

	// Touch conv-0 so conv-1 becomes least recently used.
	s.Collides("conv-0", "q")

	s.Record("conv-3", "q")

	if got := s.Conversations(); got != 3 {
		t.Fatalf("expected 3 conversations, got %d", got)
	}
	if s.Len("conv-1") != 0 {
		t.Error("expected conv-1 to be evicted")
	}
	if s.Len("conv-0") != 1 || s.Len("conv-3") != 1 {
		t.Error("expected conv-0 and conv-3 to survive eviction")
	}
}

func TestStoreConcurrentAccess(t *testing.T) {
	t.Parallel()

	s := NewStore()
	done := make(chan struct{}, 2)

	go func() {
		for i := 0; i < 500; i++ {
			s.Record("conv-race", "q"+strconv.Itoa(i))
		}
		done <- struct{}{}
	}()
	go func() {
		for i := 0; i < 500; i++ {
			s.Collides("conv-race", "q"+strconv.Itoa(i))
			s.Recent("conv-race", 10)
		}
		done <- struct{}{}
	}()

	<-done
	<-done

	if got := s.Len("conv-race"); got != MaxRetained {
		t.Fatalf("expected %d retained entries after concurrent writes, got %d", MaxRetained, got)
	}
}
