package main

import (
	"fmt"
	"strings"
	"sync"
)

type runtimeStatusSnapshot struct {
	player   *InstrumentPlayer
	keyboard *TerminalKeyboard
	stream   AudioStream
	channels []ChannelType
}

// underrunCounter is implemented by device streams that can run dry.
type underrunCounter interface {
	Underruns() uint64
}

type runtimeStatusStore struct {
	mu sync.RWMutex
	runtimeStatusSnapshot
}

func (s *runtimeStatusStore) setPlayer(player *InstrumentPlayer, channels []ChannelType) {
	s.mu.Lock()
	s.player = player
	s.channels = channels
	s.mu.Unlock()
}

func (s *runtimeStatusStore) setKeyboard(kb *TerminalKeyboard) {
	s.mu.Lock()
	s.keyboard = kb
	s.mu.Unlock()
}

func (s *runtimeStatusStore) setStream(stream AudioStream) {
	s.mu.Lock()
	s.stream = stream
	s.mu.Unlock()
}

func (s *runtimeStatusStore) snapshot() runtimeStatusSnapshot {
	s.mu.RLock()
	snap := s.runtimeStatusSnapshot
	s.mu.RUnlock()
	return snap
}

var runtimeStatus = &runtimeStatusStore{}

// statusLine renders the one-line console meter shown while previewing.
func (snap runtimeStatusSnapshot) statusLine() string {
	var b strings.Builder

	if snap.keyboard != nil {
		name := "-"
		if inst := snap.keyboard.Instrument(); inst != nil {
			name = inst.Name
		}
		fmt.Fprintf(&b, "[%s] oct %d ", name, snap.keyboard.Octave())
		if ch := snap.keyboard.Channel(); ch < len(snap.channels) {
			fmt.Fprintf(&b, "-> %-13s ", snap.channels[ch])
		}
	}

	snap.writePlayer(&b)
	if uc, ok := snap.stream.(underrunCounter); ok {
		if n := uc.Underruns(); n > 0 {
			fmt.Fprintf(&b, " | xrun %d", n)
		}
	}
	return b.String()
}

func (snap runtimeStatusSnapshot) writePlayer(b *strings.Builder) {
	p := snap.player
	if p == nil || !p.IsRunning() {
		b.WriteString("| stopped")
		return
	}
	active := p.ActiveChannel()
	if active == NO_CHANNEL || active >= len(snap.channels) {
		b.WriteString("| idle")
		return
	}
	fmt.Fprintf(b, "| %-13s %-3s", snap.channels[active], NoteName(p.PlayingNote()))
	for k := EnvelopeType(0); k < ENVELOPE_COUNT; k++ {
		fmt.Fprintf(b, " %s:%d", k, p.EnvelopeFrame(k))
	}
}
