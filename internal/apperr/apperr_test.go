package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	base := New(KindNotFound, "attempt %d not found", 7)

	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, 0},
		{"direct", base, KindNotFound},
		{"wrapped with fmt", fmt.Errorf("outer: %w", base), KindNotFound},
		{"wrapped with Wrap", Wrap(KindInfrastructure, base, "storage"), KindInfrastructure},
		{"plain error", errors.New("boom"), KindInfrastructure},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := KindOf(tc.err); got != tc.want {
				t.Errorf("KindOf = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(KindInfrastructure, cause, "looking up attempt %d", 7)

	if !errors.Is(err, cause) {
		t.Error("wrapped cause lost")
	}
	if !IsKind(err, KindInfrastructure) {
		t.Errorf("kind = %v", KindOf(err))
	}
	want := "infrastructure: looking up attempt 7: connection reset"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestKindString(t *testing.T) {
	if got := KindPreconditionFailed.String(); got != "precondition_failed" {
		t.Errorf("String() = %q", got)
	}
	if got := Kind(99).String(); got != "unknown" {
		t.Errorf("unknown kind String() = %q", got)
	}
}
