package notify

import (
	"errors"
	"testing"
)

func TestRecorder_RecordsAndReturns(t *testing.T) {
	r := NewRecorder(10)
	r.Notify(LevelError, "poller", "rpc unreachable")
	r.Notify(LevelInfo, "store", "services refreshed")

	recent := r.Recent()
	if len(recent) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(recent))
	}
	if recent[0].Level != LevelError || recent[0].Source != "poller" {
		t.Errorf("unexpected first notification: %+v", recent[0])
	}
	if recent[0].ID == "" || recent[1].ID == "" {
		t.Error("expected generated ids")
	}
	if recent[0].ID == recent[1].ID {
		t.Error("expected unique ids")
	}
}

func TestRecorder_RingBuffer(t *testing.T) {
	r := NewRecorder(3)
	for i := 0; i < 5; i++ {
		r.Notify(LevelInfo, "test", "message")
	}

	recent := r.Recent()
	if len(recent) != 3 {
		t.Errorf("expected buffer capped at 3, got %d", len(recent))
	}
}

type failingPublisher struct {
	calls int
}

func (p *failingPublisher) Publish(n Notification) error {
	p.calls++
	return errors.New("redis down")
}

func TestRecorder_PublisherFailureAbsorbed(t *testing.T) {
	r := NewRecorder(10)
	pub := &failingPublisher{}
	r.SetPublisher(pub)

	r.Notify(LevelError, "poller", "tick failed")

	if pub.calls != 1 {
		t.Errorf("expected publisher invoked once, got %d", pub.calls)
	}
	if len(r.Recent()) != 1 {
		t.Error("notification must be recorded even when publish fails")
	}
}
