package observability

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestRecoverPanic(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	func() {
		defer RecoverPanic(logger, "collector")
		panic("boom")
	}()

	out := buf.String()
	if !strings.Contains(out, "PANIC recovered") || !strings.Contains(out, "collector") {
		t.Errorf("Expected panic log entry, got %q", out)
	}
}

func TestRecoverPanicWithCallback(t *testing.T) {
	logger := NewLogger(InfoLevel, &bytes.Buffer{})

	called := false
	func() {
		defer RecoverPanicWithCallback(logger, "worker", func() { called = true })
		panic("boom")
	}()
	if !called {
		t.Error("Expected callback after panic")
	}

	called = false
	func() {
		defer RecoverPanicWithCallback(logger, "worker", func() { called = true })
	}()
	if called {
		t.Error("Callback must not run without a panic")
	}
}

func TestMustRecover(t *testing.T) {
	if err := MustRecover(nil); err != nil {
		t.Errorf("Expected nil, got %v", err)
	}

	if err := MustRecover("bad rule"); err == nil || err.Error() != "panic: bad rule" {
		t.Errorf("Unexpected error: %v", err)
	}

	sentinel := errors.New("sentinel")
	if err := MustRecover(sentinel); !errors.Is(err, sentinel) {
		t.Errorf("Expected wrapped sentinel, got %v", err)
	}
}
