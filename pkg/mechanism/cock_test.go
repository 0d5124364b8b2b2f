package mechanism

import (
	"context"
	"testing"
	"time"
)

func TestCock_PollsUntilLimit(t *testing.T) {
	r := newRig()
	r.limit.vals = []bool{false, false, true}
	m := r.mechanism(t, nil)

	if err := m.Shoot(); err != nil {
		t.Fatalf("Shoot() err=%v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := m.WaitShoot(ctx); err != nil {
		t.Fatalf("WaitShoot err=%v", err)
	}

	waits := r.clock.Waits()
	if len(waits) != 2 {
		t.Fatalf("waits = %v, want two", waits)
	}
	for i, w := range waits {
		if w != CockPollInterval {
			t.Errorf("wait[%d] = %v, want %v", i, w, CockPollInterval)
		}
	}

	checks := []struct {
		name string
		act  *fakeActuator
	}{
		{"cock", r.cock},
		{"intake one", r.intakeOne},
		{"intake two", r.intakeTwo},
	}
	for _, c := range checks {
		h := c.act.History()
		if len(h) != 2 || h[0] != 1.0 || h[1] != 0.0 {
			t.Errorf("%s writes = %v, want [1 0]", c.name, h)
		}
	}
	if m.IsShooting() {
		t.Error("IsShooting() after limit = true")
	}
}

func TestCock_LimitAlreadyPressed(t *testing.T) {
	r := newRig()
	r.limit.vals = []bool{true}
	m := r.mechanism(t, nil)

	if err := m.cock(context.Background()); err != nil {
		t.Fatalf("cock err=%v", err)
	}
	if got := len(r.clock.Waits()); got != 0 {
		t.Errorf("waits = %d, want 0", got)
	}
	if got := r.cock.Last(); got != 0 {
		t.Errorf("cock = %v, want 0", got)
	}
}
