package errs

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorFormattingIncludesOpAndCode(t *testing.T) {
	err := New(
		"pool.acquire",
		CodeAcquireTimeout,
		WithMessage("resource request timed out"),
		WithCause(errors.New("deadline elapsed")),
	)

	out := err.Error()
	if !strings.Contains(out, "op=pool.acquire") {
		t.Fatalf("expected op marker in error string: %s", out)
	}
	if !strings.Contains(out, "code=acquire_timeout") {
		t.Fatalf("expected code marker in error string: %s", out)
	}
	if !strings.Contains(out, "message=\"resource request timed out\"") {
		t.Fatalf("expected message in error string: %s", out)
	}
	if !strings.Contains(out, "cause=\"deadline elapsed\"") {
		t.Fatalf("expected wrapped cause in error string: %s", out)
	}
}

func TestUnwrapExposesCause(t *testing.T) {
	cause := errors.New("socket closed")
	err := New("pool.destroy", CodeFactoryDestroy, WithCause(cause))
	if !errors.Is(err, cause) {
		t.Fatalf("expected errors.Is to match the wrapped cause")
	}
}

func TestIsCodeMatchesWrappedEnvelope(t *testing.T) {
	inner := New("pool.acquire", CodeDraining, WithMessage("pool is draining and cannot accept work"))
	wrapped := fmt.Errorf("acquire failed: %w", inner)

	if !IsCode(wrapped, CodeDraining) {
		t.Fatalf("expected IsCode to find draining code through wrapping")
	}
	if IsCode(wrapped, CodeMaxWaiters) {
		t.Fatalf("expected IsCode to reject a non-matching code")
	}
	if IsCode(errors.New("plain"), CodeDraining) {
		t.Fatalf("expected IsCode to reject plain errors")
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(New("pool.release", CodeNotInPool)); got != CodeNotInPool {
		t.Fatalf("expected not_in_pool, got %q", got)
	}
	if got := CodeOf(errors.New("plain")); got != "" {
		t.Fatalf("expected empty code for plain error, got %q", got)
	}
}

func TestNilErrorString(t *testing.T) {
	var e *E
	if got := e.Error(); got != "<nil>" {
		t.Fatalf("expected <nil> string for nil error, got %q", got)
	}
}
