// player_settings_test.go - Tests for player tunables

package main

import (
	"testing"
	"time"
)

func TestPlayerSettings_NormalizeFillsDefaults(t *testing.T) {
	got := PlayerSettings{}.normalize()
	if got.SampleRate != DEFAULT_SAMPLE_RATE {
		t.Fatalf("expected sample rate %d, got %d", DEFAULT_SAMPLE_RATE, got.SampleRate)
	}
	if got.NumBufferedFrames != DEFAULT_NUM_BUFFERED_FRAMES {
		t.Fatalf("expected %d buffered frames, got %d", DEFAULT_NUM_BUFFERED_FRAMES, got.NumBufferedFrames)
	}
	if got.InstrumentStopTime != MIN_INSTRUMENT_STOP_TIME {
		t.Fatalf("expected stop time floor %v, got %v", MIN_INSTRUMENT_STOP_TIME, got.InstrumentStopTime)
	}
}

func TestPlayerSettings_StopTimeFloor(t *testing.T) {
	tests := []struct {
		in, want time.Duration
	}{
		{-time.Second, MIN_INSTRUMENT_STOP_TIME},
		{time.Millisecond, MIN_INSTRUMENT_STOP_TIME},
		{MIN_INSTRUMENT_STOP_TIME, MIN_INSTRUMENT_STOP_TIME},
		{500 * time.Millisecond, 500 * time.Millisecond},
		{time.Minute, time.Minute},
	}
	for _, tt := range tests {
		got := PlayerSettings{InstrumentStopTime: tt.in}.normalize().InstrumentStopTime
		if got != tt.want {
			t.Fatalf("stop time %v: expected %v, got %v", tt.in, tt.want, got)
		}
	}
}

func TestPlayerSettings_Defaults(t *testing.T) {
	s := DefaultPlayerSettings()
	if s != s.normalize() {
		t.Fatalf("defaults must already be normalized: %+v", s)
	}
	if s.InstrumentStopTime != 2*time.Second {
		t.Fatalf("expected 2s stop time, got %v", s.InstrumentStopTime)
	}
}
