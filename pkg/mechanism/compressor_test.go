package mechanism

import "testing"

func TestCompressor_EdgeTriggered(t *testing.T) {
	relay := &fakeRelay{}
	c := NewCompressor(relay)

	samples := []bool{true, true, false, false, true}
	// A nil entry means no write for that sample.
	want := []*RelayValue{ptr(RelayForward), nil, ptr(RelayOff), nil, ptr(RelayForward)}

	for i, low := range samples {
		before := len(relay.Writes())
		c.Regulate(low)
		writes := relay.Writes()

		switch {
		case want[i] == nil && len(writes) != before:
			t.Errorf("sample %d (low=%v): wrote %v, want no write", i, low, writes[len(writes)-1])
		case want[i] != nil && len(writes) != before+1:
			t.Errorf("sample %d (low=%v): %d writes, want 1", i, low, len(writes)-before)
		case want[i] != nil && writes[len(writes)-1] != *want[i]:
			t.Errorf("sample %d (low=%v): wrote %v, want %v", i, low, writes[len(writes)-1], *want[i])
		}
	}
	if !c.Running() {
		t.Error("Running() = false, want true")
	}
}

func TestCompressor_StartsStopped(t *testing.T) {
	relay := &fakeRelay{}
	c := NewCompressor(relay)

	c.Regulate(false)
	if got := relay.Writes(); len(got) != 0 {
		t.Errorf("writes on full tank = %v, want none", got)
	}
	if c.Running() {
		t.Error("Running() = true, want false")
	}
}

func ptr(v RelayValue) *RelayValue { return &v }
