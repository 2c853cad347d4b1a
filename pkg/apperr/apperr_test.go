package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationErrorUnwrap(t *testing.T) {
	err := Invalid("speed", "value %d above max %d", 12, 10)

	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatal("expected *ValidationError")
	}
	if ve.Field != "speed" {
		t.Errorf("Field = %q, want speed", ve.Field)
	}
	if got, want := err.Error(), "validation failed: speed: value 12 above max 10"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestPersistence(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		if err := Persistence("insert session", nil); err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	})

	t.Run("raw error gets category", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := Persistence("insert session", cause)
		if !errors.Is(err, ErrPersistence) {
			t.Error("expected ErrPersistence")
		}
		if !errors.Is(err, cause) {
			t.Error("expected cause to be preserved")
		}
	})

	t.Run("categorized error passes through", func(t *testing.T) {
		notFound := fmt.Errorf("session not found: %w", ErrNotFound)
		err := Persistence("get session", notFound)
		if errors.Is(err, ErrPersistence) {
			t.Error("not-found must not be recategorized as persistence")
		}
		if !errors.Is(err, ErrNotFound) {
			t.Error("expected ErrNotFound")
		}
	})
}

func TestExternal(t *testing.T) {
	cause := errors.New("deadline exceeded")
	err := External("ai", cause)
	if !errors.Is(err, ErrExternalService) || !errors.Is(err, cause) {
		t.Errorf("unexpected chain for %v", err)
	}
	if External("ai", nil) != nil {
		t.Error("expected nil for nil cause")
	}
}
