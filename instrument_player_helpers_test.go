// instrument_player_helpers_test.go - Fakes and a frame-stepping harness for the preview player.

package main

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(format string, args ...any) {
	l.mu.Lock()
	l.events = append(l.events, fmt.Sprintf(format, args...))
	l.mu.Unlock()
}

func (l *eventLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

func (l *eventLog) index(event string) int {
	for i, e := range l.snapshot() {
		if e == event {
			return i
		}
	}
	return -1
}

func (l *eventLog) count(event string) int {
	n := 0
	for _, e := range l.snapshot() {
		if e == event {
			n++
		}
	}
	return n
}

// fakeCore records enables and can be told to fault while rendering.
type fakeCore struct {
	mu      sync.Mutex
	enabled map[ChannelType]bool
	resets  int
	writes  int

	panicOnRender atomic.Bool
	level         float32
}

func newFakeCore() *fakeCore {
	return &fakeCore{enabled: make(map[ChannelType]bool)}
}

func (c *fakeCore) Reset(sampleRate int, pal bool, exp ExpansionConfig) {
	c.mu.Lock()
	c.resets++
	c.enabled = make(map[ChannelType]bool)
	c.mu.Unlock()
}

func (c *fakeCore) SetChannelEnabled(ch ChannelType, enabled bool) {
	c.mu.Lock()
	c.enabled[ch] = enabled
	c.mu.Unlock()
}

func (c *fakeCore) WriteRegister(addr uint16, value uint8) {
	c.mu.Lock()
	c.writes++
	c.mu.Unlock()
}

func (c *fakeCore) RenderFrame(out []float32) {
	if c.panicOnRender.Load() {
		panic("render fault")
	}
	for i := range out {
		out[i] = c.level
	}
}

func (c *fakeCore) enabledChannels() []ChannelType {
	c.mu.Lock()
	defer c.mu.Unlock()
	var on []ChannelType
	for ch := ChannelType(0); ch < CHANNEL_COUNT; ch++ {
		if c.enabled[ch] {
			on = append(on, ch)
		}
	}
	return on
}

// fakeChannelState logs every call into a log shared by all channels so
// tests can check ordering across channels.
type fakeChannelState struct {
	log *eventLog
	ch  ChannelType

	mu       sync.Mutex
	note     Note
	updates  int
	envFrame int
}

func (s *fakeChannelState) PlayNote(note Note) {
	s.log.add("%s:play:%s", s.ch, note)
	s.mu.Lock()
	defer s.mu.Unlock()
	if note.IsMusical() {
		s.note = note
		s.envFrame = 0
	}
}

func (s *fakeChannelState) Update() {
	s.mu.Lock()
	s.updates++
	s.envFrame++
	s.mu.Unlock()
}

func (s *fakeChannelState) ForceInstrumentReload() {
	s.log.add("%s:reload", s.ch)
}

func (s *fakeChannelState) ClearNote() {
	s.mu.Lock()
	s.note = Note{}
	s.mu.Unlock()
}

func (s *fakeChannelState) EnvelopeFrame(kind EnvelopeType) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.envFrame + int(kind)
}

func (s *fakeChannelState) CurrentNote() Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.note
}

func (s *fakeChannelState) updateCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updates
}

func (s *fakeChannelState) ChannelType() ChannelType {
	return s.ch
}

// fakeStream never pulls on its own; the harness pulls frames explicitly.
type fakeStream struct {
	mu      sync.Mutex
	source  FrameSource
	started bool
	starts  int
	stops   int
}

func (s *fakeStream) SetupPlayer(source FrameSource) {
	s.mu.Lock()
	s.source = source
	s.mu.Unlock()
}

func (s *fakeStream) Start() {
	s.mu.Lock()
	s.started = true
	s.starts++
	s.mu.Unlock()
}

func (s *fakeStream) Stop() {
	s.mu.Lock()
	s.started = false
	s.stops++
	s.mu.Unlock()
}

func (s *fakeStream) Close() error {
	s.Stop()
	return nil
}

func (s *fakeStream) IsStarted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

// playerHarness runs the player with a single buffered frame so every
// tick() advances the audio goroutine by exactly one frame.
type playerHarness struct {
	t      *testing.T
	core   *fakeCore
	stream *fakeStream
	log    *eventLog
	clock  *fakeClock
	player *InstrumentPlayer

	mu     sync.Mutex
	states []*fakeChannelState
}

func newPlayerHarness(t *testing.T, stopTime time.Duration) *playerHarness {
	t.Helper()
	t.Setenv("PREVIEW_DEBUG", "")

	h := &playerHarness{
		t:      t,
		core:   newFakeCore(),
		stream: &fakeStream{},
		log:    &eventLog{},
		clock:  newFakeClock(),
	}
	factory := func(core EmulationCore, ch ChannelType, exp ExpansionConfig, pal bool) ChannelState {
		s := &fakeChannelState{log: h.log, ch: ch}
		h.mu.Lock()
		h.states = append(h.states, s)
		h.mu.Unlock()
		return s
	}
	settings := PlayerSettings{SampleRate: 44100, NumBufferedFrames: 1, InstrumentStopTime: stopTime}
	h.player = NewInstrumentPlayer(h.core, h.stream, factory, settings)
	h.player.now = h.clock.Now
	t.Cleanup(func() { h.player.Stop(false) })
	return h
}

func (h *playerHarness) start(exp ExpansionConfig) {
	h.t.Helper()
	h.mu.Lock()
	h.states = nil
	h.mu.Unlock()
	if err := h.player.Start(exp, false); err != nil {
		h.t.Fatalf("Start failed: %v", err)
	}
	h.waitBuffered()
}

func (h *playerHarness) waitBuffered() {
	h.t.Helper()
	waitFor(h.t, "a buffered frame", func() bool { return len(h.player.audio.frames) == 1 })
	// every frame ends by publishing the pitch; loading it orders our reads
	// after the audio goroutine's writes
	h.player.PlayingNote()
}

// tick consumes the buffered frame and waits for the next one, which is
// the frame that handles anything queued before the call.
func (h *playerHarness) tick() []float32 {
	h.t.Helper()
	samples, ok := h.player.audio.NextFrame()
	if !ok {
		h.t.Fatalf("no frame buffered")
	}
	h.waitBuffered()
	return samples
}

func (h *playerHarness) state(idx int) *fakeChannelState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.states[idx]
}

// pump consumes frames continuously until the returned func is called.
func (h *playerHarness) pump() func() {
	quit := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		for {
			select {
			case <-quit:
				return
			default:
			}
			if _, ok := h.player.audio.NextFrame(); !ok {
				time.Sleep(100 * time.Microsecond)
			}
		}
	}()
	return func() {
		close(quit)
		<-finished
	}
}

type previewCall struct {
	op      string
	channel int
	note    Note
	wait    bool
}

// fakePreviewer stands in for the player behind input surfaces.
type fakePreviewer struct {
	mu     sync.Mutex
	calls  []previewCall
	note   int
	active int
	env    [ENVELOPE_COUNT]int
}

func newFakePreviewer() *fakePreviewer {
	return &fakePreviewer{active: NO_CHANNEL}
}

func (f *fakePreviewer) record(c previewCall) {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()
}

func (f *fakePreviewer) PlayNote(channel int, note Note) {
	f.record(previewCall{op: "play", channel: channel, note: note})
}

func (f *fakePreviewer) ReleaseNote(channel int) {
	f.record(previewCall{op: "release", channel: channel})
}

func (f *fakePreviewer) StopAllNotes(wait bool) {
	f.record(previewCall{op: "stop", wait: wait})
}

func (f *fakePreviewer) IsPlaying() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active != NO_CHANNEL
}

func (f *fakePreviewer) PlayingNote() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.note
}

func (f *fakePreviewer) ActiveChannel() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}

func (f *fakePreviewer) EnvelopeFrame(kind EnvelopeType) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.env[kind]
}

func (f *fakePreviewer) snapshot() []previewCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]previewCall(nil), f.calls...)
}
