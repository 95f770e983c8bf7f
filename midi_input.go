// midi_input.go - MIDI keyboard messages to preview notes

package main

import (
	"sync"

	"gitlab.com/gomidi/midi/v2"
)

const (
	MIDI_KEY_OFFSET    = 11 // MIDI key 69 (A4) is note 58
	MIDI_CC_ALL_NOTES  = 123
	MIDI_CC_ALL_SOUNDS = 120
)

// midiKeyToNote maps a MIDI key to a note value, NOTE_INVALID when the key
// falls outside C0..B7.
func midiKeyToNote(key uint8) int {
	note := int(key) - MIDI_KEY_OFFSET
	if note < NOTE_MIN || note > NOTE_MAX {
		return NOTE_INVALID
	}
	return note
}

// MIDIKeyboard plays the selected instrument monophonically: a new key
// replaces the previous one, and only releasing the most recent key
// releases the note. Program changes pick the instrument.
type MIDIKeyboard struct {
	mu          sync.Mutex
	player      NotePreviewer
	channel     int
	instruments []*Instrument
	current     int
	heldKey     int
}

func NewMIDIKeyboard(player NotePreviewer, channel int, instruments []*Instrument) *MIDIKeyboard {
	return &MIDIKeyboard{
		player:      player,
		channel:     channel,
		instruments: instruments,
		heldKey:     -1,
	}
}

func (k *MIDIKeyboard) SetChannel(channel int) {
	k.mu.Lock()
	k.channel = channel
	k.mu.Unlock()
}

func (k *MIDIKeyboard) SelectInstrument(idx int) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	if idx < 0 || idx >= len(k.instruments) {
		return false
	}
	k.current = idx
	return true
}

func (k *MIDIKeyboard) Instrument() *Instrument {
	k.mu.Lock()
	defer k.mu.Unlock()
	if len(k.instruments) == 0 {
		return nil
	}
	return k.instruments[k.current]
}

// HandleMessage has the gomidi ListenTo callback signature.
func (k *MIDIKeyboard) HandleMessage(msg midi.Message, timestampms int32) {
	var ch, key, vel, ctl, val, prog uint8

	switch {
	case msg.GetNoteOn(&ch, &key, &vel) && vel > 0:
		note := midiKeyToNote(key)
		if note == NOTE_INVALID {
			return
		}
		k.mu.Lock()
		k.heldKey = int(key)
		channel := k.channel
		var inst *Instrument
		if len(k.instruments) > 0 {
			inst = k.instruments[k.current]
		}
		k.mu.Unlock()
		k.player.PlayNote(channel, MusicalNote(note, inst))

	case msg.GetNoteOff(&ch, &key, &vel), msg.GetNoteOn(&ch, &key, &vel):
		k.mu.Lock()
		if k.heldKey != int(key) {
			k.mu.Unlock()
			return
		}
		k.heldKey = -1
		channel := k.channel
		k.mu.Unlock()
		k.player.ReleaseNote(channel)

	case msg.GetControlChange(&ch, &ctl, &val):
		if ctl == MIDI_CC_ALL_NOTES || ctl == MIDI_CC_ALL_SOUNDS {
			k.mu.Lock()
			k.heldKey = -1
			k.mu.Unlock()
			k.player.StopAllNotes(false)
		}

	case msg.GetProgramChange(&ch, &prog):
		k.SelectInstrument(int(prog))
	}
}
