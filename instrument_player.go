// instrument_player.go - Live instrument preview: note commands in, one audible channel out

/*
 ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████
▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀
▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███
░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄
░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒
░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░
 ▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░
 ▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░
 ░           ░             ░      ░            ░      ░ ░           ░       ░  ░         ░       ░  ░           ░    ░  ░

(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/InstrumentPreview
License: GPLv3 or later
*/

package main

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"sync/atomic"
	"time"
)

var ErrPlayerRunning = errors.New("instrument player already running")

// InstrumentPlayer turns note requests from any goroutine into a continuously
// rendered preview stream. At most one channel is audible at a time; the last
// command issued during a frame wins.
//
// Start and Stop must not be called concurrently with each other. Everything
// else is safe from any goroutine.
type InstrumentPlayer struct {
	core            EmulationCore
	newChannelState ChannelStateFactory
	settings        PlayerSettings
	audio           *audioPlayer
	now             func() time.Time

	queue noteQueue

	// Owned by Start/Stop and, while running, by the audio goroutine.
	channels []ChannelState
	exp      ExpansionConfig
	pal      bool
	stop     chan struct{}
	done     chan struct{}

	// Audio goroutine locals.
	lastReleaseTime    time.Time
	lastNoteWasRelease bool

	running        atomic.Bool
	numChannels    atomic.Int32
	activeChannel  atomic.Int32
	playingNote    atomic.Int32
	envelopeFrames [ENVELOPE_COUNT]atomic.Int32
}

func NewInstrumentPlayer(core EmulationCore, stream AudioStream, factory ChannelStateFactory, settings PlayerSettings) *InstrumentPlayer {
	settings = settings.normalize()
	if factory == nil {
		factory = NewAPUChannelState
	}
	p := &InstrumentPlayer{
		core:            core,
		newChannelState: factory,
		settings:        settings,
		audio:           newAudioPlayer(stream, settings.SampleRate, settings.NumBufferedFrames),
		now:             time.Now,
	}
	p.activeChannel.Store(NO_CHANNEL)
	p.playingNote.Store(NOTE_INVALID)
	return p
}

func previewDebugEnabled() bool {
	value := strings.ToLower(os.Getenv("PREVIEW_DEBUG"))
	return value == "1" || value == "true" || value == "yes"
}

// Start builds channel states for every channel of exp and launches the
// audio goroutine. A session whose goroutine died on a fault is torn down
// first, so a caller that sees IsRunning() == false can simply Start again.
func (p *InstrumentPlayer) Start(exp ExpansionConfig, pal bool) error {
	if p.done != nil {
		if p.IsRunning() {
			return ErrPlayerRunning
		}
		p.teardown()
	}
	if err := exp.Validate(); err != nil {
		return fmt.Errorf("instrument player: %w", err)
	}

	p.exp = exp
	p.pal = pal
	p.core.Reset(p.settings.SampleRate, pal, exp)

	types := exp.Channels()
	p.channels = make([]ChannelState, len(types))
	for i, ch := range types {
		p.channels[i] = p.newChannelState(p.core, ch, exp, pal)
	}
	for _, ch := range p.channels {
		p.core.SetChannelEnabled(ch.ChannelType(), false)
	}

	p.queue.Clear()
	p.resetPublished()
	p.lastReleaseTime = time.Time{}
	p.lastNoteWasRelease = false
	p.audio.reset(pal)

	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	p.numChannels.Store(int32(len(p.channels)))
	p.running.Store(true)
	go p.playerLoop(p.stop, p.done)

	if p.audio.stream != nil {
		p.audio.stream.Start()
	}
	return nil
}

// Stop ends the audio goroutine. With stopNotes it first silences every
// channel and waits for the audio side to pick that up. Stopping a player
// that is not running does nothing.
func (p *InstrumentPlayer) Stop(stopNotes bool) {
	if p.done == nil {
		return
	}
	if stopNotes {
		p.StopAllNotes(true)
	}
	p.teardown()
}

// teardown joins the audio goroutine and drops the session state.
func (p *InstrumentPlayer) teardown() {
	close(p.stop)
	<-p.done

	p.stop = nil
	p.done = nil
	p.channels = nil
	p.numChannels.Store(0)
	p.queue.Clear()
	p.resetPublished()
}

func (p *InstrumentPlayer) resetPublished() {
	p.activeChannel.Store(NO_CHANNEL)
	p.playingNote.Store(NOTE_INVALID)
	for k := range p.envelopeFrames {
		p.envelopeFrames[k].Store(0)
	}
}

// IsRunning reports whether the audio goroutine is alive. It turns false on
// its own if the goroutine died on a fault.
func (p *InstrumentPlayer) IsRunning() bool {
	return p.running.Load()
}

// PlayNote queues a note for a channel index. Dropped when the player is not
// running or the channel is not configured.
func (p *InstrumentPlayer) PlayNote(channel int, note Note) {
	if !p.IsRunning() || channel < 0 || channel >= int(p.numChannels.Load()) {
		return
	}
	p.queue.Enqueue(noteCommand{channel: channel, note: note})
}

func (p *InstrumentPlayer) ReleaseNote(channel int) {
	p.PlayNote(channel, ReleaseNote())
}

// StopAllNotes silences all channels. With wait, pending commands are
// discarded and the call returns once the audio goroutine has taken the
// stop request.
func (p *InstrumentPlayer) StopAllNotes(wait bool) {
	if !p.IsRunning() {
		return
	}
	if wait {
		p.queue.Clear()
	}
	p.queue.Enqueue(noteCommand{channel: NO_CHANNEL})
	if wait {
		for !p.queue.Empty() && p.IsRunning() {
			time.Sleep(time.Millisecond)
		}
	}
}

func (p *InstrumentPlayer) IsPlaying() bool {
	return p.activeChannel.Load() != NO_CHANNEL
}

func (p *InstrumentPlayer) ActiveChannel() int {
	return int(p.activeChannel.Load())
}

func (p *InstrumentPlayer) PlayingNote() int {
	return int(p.playingNote.Load())
}

func (p *InstrumentPlayer) EnvelopeFrame(kind EnvelopeType) int {
	if kind < 0 || kind >= ENVELOPE_COUNT {
		return 0
	}
	return int(p.envelopeFrames[kind].Load())
}

// LastFrame returns the most recently consumed frame for oscilloscope views.
func (p *InstrumentPlayer) LastFrame() FrameAudioData {
	return p.audio.LastFrame()
}

func (p *InstrumentPlayer) playerLoop(stop <-chan struct{}, done chan struct{}) {
	defer close(done)
	defer p.running.Store(false)
	defer p.audio.shutdown()
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "instrument_player: audio goroutine stopped: %v\n", r)
			if previewDebugEnabled() {
				fmt.Fprintf(os.Stderr, "%s\n", debug.Stack())
				panic(r)
			}
		}
	}()

	for p.audio.waitFrame(stop) {
		p.audio.BeginFrame()
		active := p.processFrame()
		p.audio.EndFrame(p.core, active != NO_CHANNEL)
	}
}

// processFrame runs one frame of note handling and returns the channel left
// active, or NO_CHANNEL.
func (p *InstrumentPlayer) processFrame() int {
	if cmd, ok := p.queue.DrainLast(); ok {
		p.applyCommand(cmd)
	}

	active := int(p.activeChannel.Load())
	if p.lastNoteWasRelease && active != NO_CHANNEL &&
		p.now().Sub(p.lastReleaseTime) >= p.settings.InstrumentStopTime {
		p.core.SetChannelEnabled(p.channels[active].ChannelType(), false)
		active = NO_CHANNEL
		p.activeChannel.Store(NO_CHANNEL)
	}

	if active != NO_CHANNEL {
		ch := p.channels[active]
		ch.Update()
		for k := EnvelopeType(0); k < ENVELOPE_COUNT; k++ {
			p.envelopeFrames[k].Store(int32(ch.EnvelopeFrame(k)))
		}
		if note := ch.CurrentNote(); note.IsMusical() {
			p.playingNote.Store(int32(note.Value))
		} else {
			p.playingNote.Store(NOTE_INVALID)
		}
		return active
	}

	for k := range p.envelopeFrames {
		p.envelopeFrames[k].Store(0)
	}
	for _, ch := range p.channels {
		ch.ClearNote()
	}
	p.playingNote.Store(NOTE_INVALID)
	return NO_CHANNEL
}

func (p *InstrumentPlayer) applyCommand(cmd noteCommand) {
	if cmd.channel >= len(p.channels) {
		return
	}

	active := NO_CHANNEL
	if cmd.channel != NO_CHANNEL {
		active = cmd.channel
		ch := p.channels[active]
		p.activeChannel.Store(int32(active))

		if cmd.note.IsMusical() {
			ch.ForceInstrumentReload()
		}
		// Triangle and noise loudness depends on the DAC; put it back at its
		// default before they sound.
		if ch.ChannelType().sharesDAC() {
			p.channels[CHANNEL_DPCM].PlayNote(DACResetNote(DAC_DEFAULT_VALUE))
		}
		ch.PlayNote(cmd.note)

		p.lastNoteWasRelease = cmd.note.IsRelease()
		if p.lastNoteWasRelease {
			p.lastReleaseTime = p.now()
		}
	} else {
		p.activeChannel.Store(NO_CHANNEL)
	}

	for i, ch := range p.channels {
		p.core.SetChannelEnabled(ch.ChannelType(), i == active)
	}
}
