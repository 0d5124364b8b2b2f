package mechanism

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSeekArm_Targets(t *testing.T) {
	tun := Tunables{
		ArmMinimumExtreme:     2.5,
		ArmMaximumExtreme:     3,
		ArmUpSpeed:            1.0,
		ArmDownSpeed:          -1.0,
		ArmMiddleUpPosition:   220,
		ArmMiddleDownPosition: 220,
		ArmMiddleUpSpeed:      0.7,
		ArmMiddleDownSpeed:    0.35,
	}

	tests := []struct {
		name      string
		target    ArmTarget
		readings  []float64
		wantState SeekState
		wantN     int
		wantValue float64
	}{
		// Crosses the bottom threshold on the fourth reading.
		{"bottom", ArmBottom, []float64{0, 1, 2, 3, 4}, SeekingBottom, 3, -1.0},
		{"bottom already past", ArmBottom, []float64{10}, SeekingBottom, 0, 0},
		{"top", ArmTop, []float64{5, 4, 3, 2}, SeekingTop, 3, 1.0},
		// First reading picks the direction, the loop re-reads.
		{"middle down", ArmMiddle, []float64{100, 150, 200, 230}, SeekingMiddleDown, 2, -0.35},
		{"middle up", ArmMiddle, []float64{300, 260, 230, 220}, SeekingMiddleUp, 2, 0.7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRig()
			r.potent.vals = tt.readings
			m := r.mechanism(t, &tun)

			if got := seekStateFor(tt.target, tt.readings[0], tun); got != tt.wantState {
				t.Errorf("seekStateFor(%s) = %v, want %v", tt.target, got, tt.wantState)
			}

			if err := m.seekArm(context.Background(), tt.target, tun); err != nil {
				t.Fatalf("seekArm(%s) err=%v", tt.target, err)
			}

			if got := r.pivot.Count(); got != tt.wantN {
				t.Errorf("drive commands = %d, want %d", got, tt.wantN)
			}
			for i, v := range r.pivot.History() {
				if v != tt.wantValue {
					t.Errorf("drive[%d] = %v, want %v", i, v, tt.wantValue)
				}
			}
			if got := SeekState(m.seekState.Load()); got != SeekDone {
				t.Errorf("state = %v, want Done", got)
			}
		})
	}
}

func TestSeekArm_Timeout(t *testing.T) {
	r := newRig()
	r.clock.tick = 100 * time.Millisecond
	tun := DefaultTunables()
	tun.SeekTimeout = time.Second
	m := r.mechanism(t, &tun)

	err := m.seekArm(context.Background(), ArmBottom, tun)
	if !errors.Is(err, SeekTimeout) {
		t.Fatalf("seekArm err=%v, want %s", err, SeekTimeout)
	}
	if got := r.pivot.Last(); got != 0 {
		t.Errorf("pivot after timeout = %v, want 0", got)
	}
	// One Now for the start plus one per iteration; the tenth tick trips the deadline.
	if got := r.pivot.Count(); got != 10 {
		t.Errorf("writes = %d, want 9 drives + 1 stop", got)
	}
}

func TestSetArm_TimeoutSurfacesThroughArmErr(t *testing.T) {
	r := newRig()
	r.clock.tick = time.Millisecond
	tun := DefaultTunables()
	tun.SeekTimeout = 50 * time.Millisecond
	m := r.mechanism(t, &tun)

	if err := m.SetArm(ArmTop); err != nil {
		t.Fatalf("SetArm err=%v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Default maximum extreme is far below any reading, so only the deadline ends it.
	if err := m.WaitArm(ctx); KindOf(err) != SeekTimeout {
		t.Fatalf("WaitArm err=%v, want %s", err, SeekTimeout)
	}
	if err := m.ArmErr(); KindOf(err) != SeekTimeout {
		t.Errorf("ArmErr() = %v, want %s", err, SeekTimeout)
	}
}

func TestArmTarget_String(t *testing.T) {
	tests := []struct {
		target ArmTarget
		want   string
	}{
		{ArmBottom, "bottom"},
		{ArmTop, "top"},
		{ArmMiddle, "middle"},
		{ArmTarget(-1), "ArmTarget(-1)"},
	}
	for _, tt := range tests {
		if got := tt.target.String(); got != tt.want {
			t.Errorf("ArmTarget(%d).String() = %q, want %q", int(tt.target), got, tt.want)
		}
	}
}
