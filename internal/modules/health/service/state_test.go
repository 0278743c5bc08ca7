package service

import (
	"testing"
	"time"
)

func TestStateReadiness(t *testing.T) {
	s := NewState()
	if s.Ready() {
		t.Fatal("fresh state must not be ready")
	}

	s.SetReady(true)
	if !s.Ready() {
		t.Fatal("SetReady(true) had no effect")
	}

	s.SetWSConnected(true)
	if !s.WSConnected() {
		t.Fatal("SetWSConnected(true) had no effect")
	}
}

func TestStateLastCandle(t *testing.T) {
	s := NewState()
	if !s.LastCandle().IsZero() {
		t.Fatalf("no candles yet: got %v", s.LastCandle())
	}

	tm := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	s.TouchCandle(tm)
	if got := s.LastCandle(); got.Unix() != tm.Unix() {
		t.Fatalf("last candle = %v, want %v", got, tm)
	}
}
