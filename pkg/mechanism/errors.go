package mechanism

import "errors"

// Kind classifies mechanism errors. It is comparable and implements error.
type Kind string

func (k Kind) Error() string { return string(k) }

const (
	// Busy reports a request suppressed because a prior task or pulse is still active.
	Busy Kind = "busy"
	// SeekTimeout reports an arm seek whose threshold was not crossed before its deadline.
	SeekTimeout Kind = "seek_timeout"
	// InvalidArgument reports an out-of-range request such as an unknown arm target.
	InvalidArgument Kind = "invalid_argument"
)

// Error adds the failing operation and an optional cause to a Kind.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	s := e.Op + ": " + string(e.Kind)
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches a bare Kind so errors.Is(err, Busy) works on wrapped errors.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// KindOf extracts the Kind of err, or "" if err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	var k Kind
	if errors.As(err, &k) {
		return k
	}
	return ""
}
