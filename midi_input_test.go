// midi_input_test.go - Tests for MIDI keyboard handling

package main

import (
	"testing"

	"gitlab.com/gomidi/midi/v2"
)

func TestMIDIKeyToNote(t *testing.T) {
	tests := []struct {
		key  uint8
		want int
	}{
		{69, NOTE_A4},
		{12, NOTE_MIN},
		{107, NOTE_MAX},
		{11, NOTE_INVALID},
		{108, NOTE_INVALID},
		{0, NOTE_INVALID},
	}
	for _, tt := range tests {
		if got := midiKeyToNote(tt.key); got != tt.want {
			t.Fatalf("key %d: expected %d, got %d", tt.key, tt.want, got)
		}
	}
}

func TestMIDIKeyboard_NoteOnOff(t *testing.T) {
	fp := newFakePreviewer()
	lead := NewInstrument("lead", EXPANSION_NONE)
	kb := NewMIDIKeyboard(fp, 2, []*Instrument{lead})

	kb.HandleMessage(midi.NoteOn(0, 69, 100), 0)
	kb.HandleMessage(midi.NoteOff(0, 69), 0)

	calls := fp.snapshot()
	if len(calls) != 2 {
		t.Fatalf("expected 2 calls, got %+v", calls)
	}
	if calls[0].op != "play" || calls[0].channel != 2 || calls[0].note.Value != NOTE_A4 || calls[0].note.Instrument != lead {
		t.Fatalf("expected A4 on channel 2, got %+v", calls[0])
	}
	if calls[1].op != "release" || calls[1].channel != 2 {
		t.Fatalf("expected a release on channel 2, got %+v", calls[1])
	}
}

func TestMIDIKeyboard_ZeroVelocityReleases(t *testing.T) {
	fp := newFakePreviewer()
	kb := NewMIDIKeyboard(fp, 0, nil)

	kb.HandleMessage(midi.NoteOn(0, 60, 90), 0)
	kb.HandleMessage(midi.NoteOn(0, 60, 0), 0)

	calls := fp.snapshot()
	if len(calls) != 2 || calls[1].op != "release" {
		t.Fatalf("expected play then release, got %+v", calls)
	}
}

func TestMIDIKeyboard_OnlyLatestKeyReleases(t *testing.T) {
	fp := newFakePreviewer()
	kb := NewMIDIKeyboard(fp, 0, nil)

	kb.HandleMessage(midi.NoteOn(0, 60, 90), 0)
	kb.HandleMessage(midi.NoteOn(0, 64, 90), 0)
	kb.HandleMessage(midi.NoteOff(0, 60), 0)
	if calls := fp.snapshot(); len(calls) != 2 {
		t.Fatalf("releasing an older key must not release the note, got %+v", calls)
	}

	kb.HandleMessage(midi.NoteOff(0, 64), 0)
	calls := fp.snapshot()
	if len(calls) != 3 || calls[2].op != "release" {
		t.Fatalf("expected the latest key to release, got %+v", calls)
	}
}

func TestMIDIKeyboard_OutOfRangeKeyIgnored(t *testing.T) {
	fp := newFakePreviewer()
	kb := NewMIDIKeyboard(fp, 0, nil)
	kb.HandleMessage(midi.NoteOn(0, 5, 90), 0)
	kb.HandleMessage(midi.NoteOn(0, 120, 90), 0)
	if calls := fp.snapshot(); len(calls) != 0 {
		t.Fatalf("expected out-of-range keys ignored, got %+v", calls)
	}
}

func TestMIDIKeyboard_AllNotesOff(t *testing.T) {
	for _, cc := range []uint8{MIDI_CC_ALL_NOTES, MIDI_CC_ALL_SOUNDS} {
		fp := newFakePreviewer()
		kb := NewMIDIKeyboard(fp, 0, nil)
		kb.HandleMessage(midi.NoteOn(0, 60, 90), 0)
		kb.HandleMessage(midi.ControlChange(0, cc, 0), 0)
		kb.HandleMessage(midi.NoteOff(0, 60), 0)

		calls := fp.snapshot()
		if len(calls) != 2 || calls[1].op != "stop" || calls[1].wait {
			t.Fatalf("cc %d: expected play then stop, got %+v", cc, calls)
		}
	}

	fp := newFakePreviewer()
	NewMIDIKeyboard(fp, 0, nil).HandleMessage(midi.ControlChange(0, 7, 100), 0)
	if calls := fp.snapshot(); len(calls) != 0 {
		t.Fatalf("other controllers must be ignored, got %+v", calls)
	}
}

func TestMIDIKeyboard_ProgramChange(t *testing.T) {
	fp := newFakePreviewer()
	a := NewInstrument("a", EXPANSION_NONE)
	b := NewInstrument("b", EXPANSION_NONE)
	kb := NewMIDIKeyboard(fp, 0, []*Instrument{a, b})

	kb.HandleMessage(midi.ProgramChange(0, 1), 0)
	if kb.Instrument() != b {
		t.Fatalf("expected program 1 to select b")
	}
	kb.HandleMessage(midi.ProgramChange(0, 9), 0)
	if kb.Instrument() != b {
		t.Fatalf("out-of-range program must keep the selection")
	}

	kb.SetChannel(4)
	kb.HandleMessage(midi.NoteOn(0, 69, 100), 0)
	calls := fp.snapshot()
	if len(calls) != 1 || calls[0].channel != 4 || calls[0].note.Instrument != b {
		t.Fatalf("expected b on channel 4, got %+v", calls)
	}
}
