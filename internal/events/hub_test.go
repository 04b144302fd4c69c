package events

import (
	"strconv"
	"testing"
)

func TestHubBacklogTrims(t *testing.T) {
	t.Parallel()

	h := NewHub(nil)
	for i := 0; i < backlogSize+20; i++ {
		h.Publish("sess-1", TypeQuestion, map[string]string{"n": strconv.Itoa(i)})
	}

	got := h.Backlog("sess-1")
	if len(got) != backlogSize {
		t.Fatalf("expected backlog of %d, got %d", backlogSize, len(got))
	}
	first := got[0].Payload.(map[string]string)
	if first["n"] != "20" {
		t.Errorf("oldest events must be evicted first, got %v", first)
	}
}

func TestHubBacklogIsolatedPerSession(t *testing.T) {
	t.Parallel()

	h := NewHub(nil)
	h.Publish("sess-1", TypeQuestion, nil)
	h.Publish("sess-2", TypeState, nil)

	if len(h.Backlog("sess-1")) != 1 || len(h.Backlog("sess-2")) != 1 {
		t.Fatal("sessions must not share backlogs")
	}

	h.CloseSession("sess-1")
	if len(h.Backlog("sess-1")) != 0 {
		t.Fatal("closed session backlog must be dropped")
	}
	if len(h.Backlog("sess-2")) != 1 {
		t.Fatal("closing one session must not touch another")
	}
}
