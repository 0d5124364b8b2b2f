package teleop

import (
	"testing"
	"time"
)

func TestLog_Printf(t *testing.T) {
	l := NewLog(1)
	l.now = func() time.Time { return time.Date(2024, 5, 4, 13, 2, 3, 0, time.UTC) }

	l.Printf("fire %v", 80*time.Millisecond)
	l.Printf("dropped")

	if got, want := <-l.Lines(), "[13:02:03] fire 80ms"; got != want {
		t.Errorf("line = %q, want %q", got, want)
	}
	select {
	case line := <-l.Lines():
		t.Errorf("got %q, want the second line dropped", line)
	default:
	}
}
