package dErrors

import (
	"errors"
	"fmt"
	"testing"
)

func TestHasCode(t *testing.T) {
	t.Run("matches own code", func(t *testing.T) {
		err := New(CodeConflict, "duplicate candidacy")
		if !HasCode(err, CodeConflict) {
			t.Fatalf("expected conflict code")
		}
		if HasCode(err, CodeNotFound) {
			t.Fatalf("did not expect not_found code")
		}
	})

	t.Run("matches through wrapping", func(t *testing.T) {
		inner := New(CodeNotFound, "donation not found")
		outer := fmt.Errorf("get donation: %w", inner)
		if !HasCode(outer, CodeNotFound) {
			t.Fatalf("expected code to survive fmt wrapping")
		}
	})

	t.Run("plain errors have no code", func(t *testing.T) {
		if HasCode(errors.New("boom"), CodeInternal) {
			t.Fatalf("plain error should not match any code")
		}
	})
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeInternal, "store unavailable")
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause to be reachable via errors.Is")
	}
	if CodeOf(err) != CodeInternal {
		t.Fatalf("expected internal code, got %s", CodeOf(err))
	}
}

func TestCodeOfDefaultsToInternal(t *testing.T) {
	if CodeOf(errors.New("boom")) != CodeInternal {
		t.Fatalf("non-domain errors must map to internal")
	}
}

func TestValidationFields(t *testing.T) {
	err := NewValidation("invalid donation", map[string]string{"title": "too short"})
	if err.Fields["title"] != "too short" {
		t.Fatalf("expected field detail to be carried")
	}
	if !HasCode(err, CodeBadRequest) {
		t.Fatalf("validation errors use the bad_request code")
	}
}
