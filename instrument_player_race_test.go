// instrument_player_race_test.go - Concurrent producers against a free-running player

package main

import (
	"sync"
	"testing"
	"time"
)

func TestInstrumentPlayer_ConcurrentProducers(t *testing.T) {
	h := newPlayerHarness(t, 20*time.Millisecond)
	h.start(NewExpansionConfig(4, EXPANSION_VRC6, EXPANSION_N163))
	stopPump := h.pump()
	numChannels := len(h.states)
	inst := NewInstrument("lead", EXPANSION_NONE)

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				ch := (w*7 + i) % numChannels
				switch i % 5 {
				case 0:
					h.player.ReleaseNote(ch)
				case 4:
					h.player.StopAllNotes(false)
				default:
					h.player.PlayNote(ch, MusicalNote(NOTE_MIN+i%NOTE_MAX, inst))
				}
				_ = h.player.ActiveChannel()
				_ = h.player.PlayingNote()
				_ = h.player.EnvelopeFrame(ENVELOPE_VOLUME)
				_ = h.player.LastFrame()
				if len(h.core.enabledChannels()) > 1 {
					t.Errorf("more than one channel enabled")
					return
				}
			}
		}(w)
	}
	wg.Wait()

	h.player.StopAllNotes(true)
	stopPump()
	h.player.Stop(false)

	if h.player.IsRunning() {
		t.Fatalf("expected player stopped")
	}
	if on := h.core.enabledChannels(); len(on) != 0 {
		t.Fatalf("expected all channels disabled after stopping notes, got %v", on)
	}
}

func TestInstrumentPlayer_StartStopCycles(t *testing.T) {
	h := newPlayerHarness(t, time.Second)
	inst := NewInstrument("lead", EXPANSION_NONE)

	for i := 0; i < 20; i++ {
		h.start(ExpansionConfig{})
		stopPump := h.pump()
		h.player.PlayNote(i%5, MusicalNote(NOTE_A4, inst))
		if i%2 == 0 {
			h.player.Stop(true)
		} else {
			h.player.Stop(false)
		}
		stopPump()
		if h.player.IsRunning() {
			t.Fatalf("cycle %d: expected player stopped", i)
		}
	}
	if h.core.resets != 20 {
		t.Fatalf("expected 20 core resets, got %d", h.core.resets)
	}
}
