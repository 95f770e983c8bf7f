// envelope.go - Instrument envelopes stepped once per frame

package main

import (
	"fmt"
	"strings"
)

type EnvelopeType int

const (
	ENVELOPE_VOLUME EnvelopeType = iota
	ENVELOPE_ARPEGGIO
	ENVELOPE_PITCH
	ENVELOPE_DUTY

	ENVELOPE_COUNT
)

var envelopeNames = [ENVELOPE_COUNT]string{"volume", "arpeggio", "pitch", "duty"}

func (e EnvelopeType) String() string {
	if e < 0 || e >= ENVELOPE_COUNT {
		return fmt.Sprintf("envelope(%d)", int(e))
	}
	return envelopeNames[e]
}

func ParseEnvelopeType(name string) (EnvelopeType, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range envelopeNames {
		if n == name {
			return EnvelopeType(i), true
		}
	}
	return 0, false
}

// Envelope is a small per-frame program. Loop and Release are indices into
// Values, -1 when absent.
type Envelope struct {
	Values  []int
	Loop    int
	Release int
}

func NewEnvelope(values ...int) *Envelope {
	return &Envelope{Values: values, Loop: -1, Release: -1}
}

func (e *Envelope) Len() int {
	if e == nil {
		return 0
	}
	return len(e.Values)
}

// Value returns the value under the cursor, or def for an empty envelope.
func (e *Envelope) Value(idx int, def int) int {
	if e.Len() == 0 {
		return def
	}
	if idx < 0 {
		idx = 0
	}
	if idx >= len(e.Values) {
		idx = len(e.Values) - 1
	}
	return e.Values[idx]
}

// Next advances the cursor by one frame. While the note is held, a release
// point acts as the end of the envelope: it loops back to Loop when the
// loop sits before it, otherwise it holds. Past the end the cursor loops
// only when there is no release point.
func (e *Envelope) Next(idx int, released bool) int {
	n := e.Len()
	if n == 0 {
		return 0
	}
	next := idx + 1
	if !released && e.Release >= 0 && e.Release < n && next > e.Release {
		if e.Loop >= 0 && e.Loop <= e.Release {
			return e.Loop
		}
		return e.Release
	}
	if next >= n {
		if e.Loop >= 0 && e.Loop < n && e.Release < 0 {
			return e.Loop
		}
		return n - 1
	}
	return next
}

// ReleaseIndex is where the cursor jumps when the note is released.
func (e *Envelope) ReleaseIndex(idx int) int {
	if e.Len() == 0 || e.Release < 0 || e.Release+1 >= e.Len() {
		return idx
	}
	return e.Release + 1
}

func (e *Envelope) validate(kind EnvelopeType) error {
	if e == nil {
		return nil
	}
	n := len(e.Values)
	if e.Loop >= n || e.Loop < -1 {
		return fmt.Errorf("%s envelope: loop point %d outside 0..%d", kind, e.Loop, n-1)
	}
	if e.Release >= n || e.Release < -1 {
		return fmt.Errorf("%s envelope: release point %d outside 0..%d", kind, e.Release, n-1)
	}
	return nil
}
