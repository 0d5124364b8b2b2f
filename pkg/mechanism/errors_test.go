package mechanism

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, ""},
		{"bare kind", Busy, Busy},
		{"error", &Error{Kind: SeekTimeout, Op: "set arm"}, SeekTimeout},
		{"wrapped", fmt.Errorf("shoot: %w", &Error{Kind: Busy, Op: "shoot"}), Busy},
		{"joined", errors.Join(errors.New("x"), &Error{Kind: SeekTimeout, Op: "set arm"}), SeekTimeout},
		{"multi wrap", fmt.Errorf("%w and %w", errors.New("x"), Busy), Busy},
		{"foreign", errors.New("x"), ""},
	}
	for _, tt := range tests {
		if got := KindOf(tt.err); got != tt.want {
			t.Errorf("KindOf(%s) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestError_Is(t *testing.T) {
	cause := errors.New("cause")
	err := fmt.Errorf("wrap: %w", &Error{Kind: InvalidArgument, Op: "new", Err: cause})

	if !errors.Is(err, InvalidArgument) {
		t.Error("errors.Is(err, InvalidArgument) = false")
	}
	if errors.Is(err, Busy) {
		t.Error("errors.Is(err, Busy) = true")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false")
	}
}

func TestError_Message(t *testing.T) {
	err := &Error{Kind: SeekTimeout, Op: "set arm", Msg: "SeekingTop"}
	if got, want := err.Error(), "set arm: seek_timeout: SeekingTop"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
