package teleop

import (
	"fmt"
	"time"
)

// Log is a bounded stream of timestamped lines. Printf never blocks.
type Log struct {
	ch  chan string
	now func() time.Time
}

func NewLog(size int) *Log {
	return &Log{ch: make(chan string, size), now: time.Now}
}

// Printf formats a line as "[15:04:05] message".
func (l *Log) Printf(format string, args ...any) {
	msg := fmt.Sprintf("[%s] %s", l.now().Format("15:04:05"), fmt.Sprintf(format, args...))
	select {
	case l.ch <- msg:
	default:
		// Drop if channel full
	}
}

// Lines returns the channel the lines are delivered on.
func (l *Log) Lines() <-chan string {
	return l.ch
}
