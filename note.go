// note.go - Note events delivered to preview channels

package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	NOTE_INVALID = 0
	NOTE_MIN     = 1  // C0
	NOTE_MAX     = 96 // B7
	NOTE_A4      = 58

	NOTES_PER_OCTAVE = 12
)

type NoteKind uint8

const (
	NoteKindNone NoteKind = iota
	NoteKindMusical
	NoteKindRelease
	NoteKindDACReset
)

// Note is one of three kinds: a musical pitch played with an instrument,
// a release marker, or a DAC reset carrying a level. Build it with
// MusicalNote, ReleaseNote or DACResetNote.
type Note struct {
	Kind       NoteKind
	Value      int
	Instrument *Instrument
	DACLevel   int
}

func MusicalNote(value int, inst *Instrument) Note {
	return Note{Kind: NoteKindMusical, Value: value, Instrument: inst}
}

func ReleaseNote() Note {
	return Note{Kind: NoteKindRelease}
}

func DACResetNote(level int) Note {
	return Note{Kind: NoteKindDACReset, DACLevel: level}
}

func (n Note) IsMusical() bool {
	return n.Kind == NoteKindMusical && n.Value >= NOTE_MIN && n.Value <= NOTE_MAX
}

func (n Note) IsRelease() bool {
	return n.Kind == NoteKindRelease
}

func (n Note) IsDACReset() bool {
	return n.Kind == NoteKindDACReset
}

func (n Note) String() string {
	switch n.Kind {
	case NoteKindMusical:
		return NoteName(n.Value)
	case NoteKindRelease:
		return "release"
	case NoteKindDACReset:
		return fmt.Sprintf("dac=%d", n.DACLevel)
	}
	return "none"
}

var noteNames = [NOTES_PER_OCTAVE]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

var ErrBadNoteName = errors.New("bad note name")

// NoteName formats a pitch value as "A4"; invalid values give "---".
func NoteName(value int) string {
	if value < NOTE_MIN || value > NOTE_MAX {
		return "---"
	}
	v := value - NOTE_MIN
	return noteNames[v%NOTES_PER_OCTAVE] + strconv.Itoa(v/NOTES_PER_OCTAVE)
}

// ParseNoteName accepts "A4", "c#3", "Bb2" or a plain pitch number.
func ParseNoteName(name string) (int, error) {
	s := strings.TrimSpace(name)
	if s == "" {
		return NOTE_INVALID, ErrBadNoteName
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < NOTE_MIN || n > NOTE_MAX {
			return NOTE_INVALID, fmt.Errorf("%w: %q out of range", ErrBadNoteName, name)
		}
		return n, nil
	}

	letter := strings.ToUpper(s[:1])
	semitone := -1
	for i, nn := range noteNames {
		if nn == letter {
			semitone = i
			break
		}
	}
	if semitone < 0 {
		return NOTE_INVALID, fmt.Errorf("%w: %q", ErrBadNoteName, name)
	}

	rest := s[1:]
	switch {
	case strings.HasPrefix(rest, "#"):
		semitone++
		rest = rest[1:]
	case strings.HasPrefix(rest, "b"):
		semitone--
		rest = rest[1:]
	}

	octave, err := strconv.Atoi(rest)
	if err != nil {
		return NOTE_INVALID, fmt.Errorf("%w: %q", ErrBadNoteName, name)
	}
	value := NOTE_MIN + octave*NOTES_PER_OCTAVE + semitone
	if value < NOTE_MIN || value > NOTE_MAX {
		return NOTE_INVALID, fmt.Errorf("%w: %q out of range", ErrBadNoteName, name)
	}
	return value, nil
}
