// terminal_keys.go - Tracker-style computer keyboard for auditioning instruments

package main

import "sync"

const (
	KEY_ESC    = 0x1B
	KEY_CTRL_C = 0x03

	DEFAULT_KEYBOARD_OCTAVE = 3
	MAX_KEYBOARD_OCTAVE     = 6
)

// Two rows of a piano: the bottom row starts at the current octave, the top
// row one octave higher.
var trackerKeys = map[byte]int{
	'z': 0, 's': 1, 'x': 2, 'd': 3, 'c': 4, 'v': 5, 'g': 6, 'b': 7, 'h': 8, 'n': 9, 'j': 10, 'm': 11,
	'q': 12, '2': 13, 'w': 14, '3': 15, 'e': 16, 'r': 17, '5': 18, 't': 19, '6': 20, 'y': 21, '7': 22, 'u': 23,
}

type TerminalKeyboard struct {
	mu          sync.Mutex
	player      NotePreviewer
	channel     int
	octave      int
	instruments []*Instrument
	current     int
}

func NewTerminalKeyboard(player NotePreviewer, channel int, instruments []*Instrument) *TerminalKeyboard {
	return &TerminalKeyboard{
		player:      player,
		channel:     channel,
		octave:      DEFAULT_KEYBOARD_OCTAVE,
		instruments: instruments,
	}
}

func (k *TerminalKeyboard) Octave() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.octave
}

func (k *TerminalKeyboard) Channel() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.channel
}

func (k *TerminalKeyboard) Instrument() *Instrument {
	k.mu.Lock()
	defer k.mu.Unlock()
	if len(k.instruments) == 0 {
		return nil
	}
	return k.instruments[k.current]
}

// HandleKey acts on one raw terminal byte. It returns false when the user
// asked to quit.
func (k *TerminalKeyboard) HandleKey(b byte) bool {
	switch b {
	case KEY_ESC, KEY_CTRL_C:
		k.player.StopAllNotes(false)
		return false
	case ' ':
		k.player.ReleaseNote(k.Channel())
		return true
	case '.':
		k.player.StopAllNotes(false)
		return true
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	switch {
	case b == '-' || b == '_':
		k.octave = max(0, k.octave-1)
	case b == '+' || b == '=':
		k.octave = min(MAX_KEYBOARD_OCTAVE, k.octave+1)
	case b == '[':
		if len(k.instruments) > 0 {
			k.current = (k.current + len(k.instruments) - 1) % len(k.instruments)
		}
	case b == ']':
		if len(k.instruments) > 0 {
			k.current = (k.current + 1) % len(k.instruments)
		}
	case b == '<' || b == ',':
		k.channel = max(0, k.channel-1)
	case b == '>':
		k.channel++
	default:
		offset, ok := trackerKeys[b]
		if !ok {
			return true
		}
		note := NOTE_MIN + k.octave*NOTES_PER_OCTAVE + offset
		if note > NOTE_MAX {
			return true
		}
		var inst *Instrument
		if len(k.instruments) > 0 {
			inst = k.instruments[k.current]
		}
		k.player.PlayNote(k.channel, MusicalNote(note, inst))
	}
	return true
}
