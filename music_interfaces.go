// music_interfaces.go - Common interfaces between the preview player and its collaborators

package main

// NotePreviewer is the surface input handlers drive (MIDI, terminal, scripts).
type NotePreviewer interface {
	// PlayNote queues a note for a channel; dropped when not running
	PlayNote(channel int, note Note)
	// ReleaseNote queues a release for a channel
	ReleaseNote(channel int)
	// StopAllNotes silences everything, optionally waiting for the audio side
	StopAllNotes(wait bool)
	// IsPlaying returns true while a channel is live
	IsPlaying() bool
	// PlayingNote returns the sounding pitch or NOTE_INVALID
	PlayingNote() int
	// ActiveChannel returns the live channel index or NO_CHANNEL
	ActiveChannel() int
	// EnvelopeFrame returns the cursor of one envelope of the live channel
	EnvelopeFrame(kind EnvelopeType) int
}

// EmulationCore is the sound chip the player renders through.
type EmulationCore interface {
	// Reset re-initialises the chip; safe to call repeatedly
	Reset(sampleRate int, pal bool, exp ExpansionConfig)
	// SetChannelEnabled mutes or unmutes one channel's output
	SetChannelEnabled(ch ChannelType, enabled bool)
	// WriteRegister writes one chip register
	WriteRegister(addr uint16, value uint8)
	// RenderFrame fills out with the next samples
	RenderFrame(out []float32)
}

// ChannelState wraps one emulated channel: it turns notes and instrument
// envelopes into register writes, one frame at a time.
type ChannelState interface {
	PlayNote(note Note)
	Update()
	ForceInstrumentReload()
	ClearNote()
	EnvelopeFrame(kind EnvelopeType) int
	CurrentNote() Note
	ChannelType() ChannelType
}

// ChannelStateFactory builds the channel state for one configured channel.
type ChannelStateFactory func(core EmulationCore, ch ChannelType, exp ExpansionConfig, pal bool) ChannelState

// FrameSource hands rendered frames to an audio stream. NextFrame never
// blocks; ok is false when nothing is buffered.
type FrameSource interface {
	NextFrame() (samples []float32, ok bool)
}

// AudioStream is an output backend pulling frames from a FrameSource.
type AudioStream interface {
	SetupPlayer(source FrameSource)
	Start()
	Stop()
	Close() error
	IsStarted() bool
}
