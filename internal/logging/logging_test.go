// Package logging includes tests for the zap logger helpers.
package logging

import "testing"

// TestNamed covers subsystem child loggers and the nil-parent fallback.
func TestNamed(t *testing.T) {
	t.Parallel()

	parent, err := New(true)
	if err != nil {
		t.Fatalf("New(true) error = %v", err)
	}
	child := Named(parent, "api")
	if child == nil {
		t.Fatal("expected named logger to be non-nil")
	}
	if child == parent {
		t.Fatal("expected a distinct child logger")
	}

	nop := Named(nil, "api")
	if nop == nil {
		t.Fatal("expected nop logger for nil parent")
	}
	nop.Info("discarded")
}

// TestNewDevelopmentLogger confirms the development logger builds and logs.
func TestNewDevelopmentLogger(t *testing.T) {
	t.Parallel()

	logger, err := New(true)
	if err != nil {
		t.Fatalf("New(true) error = %v", err)
	}
	if logger == nil {
		t.Fatal("expected logger to be non-nil")
	}
	defer logger.Sync() //nolint:errcheck // best-effort flush
	logger.Info("development logger ready")
}

// TestNewProductionLogger ensures the production logger configuration succeeds.
func TestNewProductionLogger(t *testing.T) {
	t.Parallel()

	logger, err := New(false)
	if err != nil {
		t.Fatalf("New(false) error = %v", err)
	}
	if logger == nil {
		t.Fatal("expected logger to be non-nil")
	}
	defer logger.Sync() //nolint:errcheck // best-effort flush
	logger.Info("production logger ready")
}
