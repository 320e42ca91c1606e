package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindBadRequest, http.StatusBadRequest},
		{KindUnauthorized, http.StatusUnauthorized},
		{KindForbidden, http.StatusUnauthorized},
		{KindConflict, http.StatusConflict},
		{KindNotFound, http.StatusNotFound},
		{KindInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := Status(tt.kind); got != tt.want {
			t.Errorf("Status(%v) = %d, want %d", tt.kind, got, tt.want)
		}
	}
}

func TestKindOfWrappedChain(t *testing.T) {
	err := fmt.Errorf("outer: %w", Conflict("taken"))
	if KindOf(err) != KindConflict {
		t.Fatalf("expected conflict, got %v", KindOf(err))
	}
	if KindOf(errors.New("plain")) != KindInternal {
		t.Fatal("expected plain errors to be internal")
	}
}

func TestWrapHidesCause(t *testing.T) {
	cause := errors.New("disk on fire")
	err := Wrap(cause, "Failed to create todo")
	if !errors.Is(err, cause) {
		t.Fatal("expected cause to be reachable")
	}
	if got := Message(err, "fallback"); got != "Failed to create todo" {
		t.Fatalf("unexpected message %q", got)
	}
	if got := Message(cause, "fallback"); got != "fallback" {
		t.Fatalf("unexpected fallback %q", got)
	}
}

func TestIsMatchesKindAndMessage(t *testing.T) {
	if !errors.Is(NotFound("Todo not found"), NotFound("Todo not found")) {
		t.Fatal("expected equal errors to match")
	}
	if errors.Is(NotFound("Todo not found"), NotFound("User not found")) {
		t.Fatal("expected different messages not to match")
	}
}
