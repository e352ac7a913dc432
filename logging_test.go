package forgescan

import "testing"

func TestOrNopReturnsNopForNil(t *testing.T) {
	log := OrNop(nil)
	if log == nil {
		t.Fatalf("OrNop(nil) returned nil")
	}
	if log.DebugEnabled() {
		t.Fatalf("nop logger should report debug disabled")
	}
	// Every method must be callable without panicking.
	log.Debugf("x")
	log.Infof("x")
	log.Warnf("x")
	log.Errorf("x")
}

func TestOrNopPassesThroughNonNil(t *testing.T) {
	real := NewDefaultLogger("test", true)
	if got := OrNop(real); got != Logger(real) {
		t.Fatalf("OrNop should pass through a non-nil Logger unchanged")
	}
}

func TestDefaultLoggerDebugToggle(t *testing.T) {
	l := NewDefaultLogger("", false)
	if l.DebugEnabled() {
		t.Fatalf("expected debug disabled by default")
	}
	l.SetDebug(true)
	if !l.DebugEnabled() {
		t.Fatalf("expected debug enabled after SetDebug(true)")
	}
}
