// audio_player.go - Frame clock and frame queue between the emulation and an audio stream

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

import "sync/atomic"

const NO_TRIGGER = -1

// FrameAudioData is one rendered frame as seen by an oscilloscope: the
// samples plus the index of the first rising zero crossing, or NO_TRIGGER.
type FrameAudioData struct {
	Samples []float32
	Trigger int
}

// audioPlayer paces a producer goroutine against an AudioStream. The buffer
// semaphore starts with numBufferedFrames tokens; the producer takes one per
// frame and the stream gives one back each time it consumes a frame, so at
// most numBufferedFrames frames are ever in flight.
type audioPlayer struct {
	stream            AudioStream
	sampleRate        int
	numBufferedFrames int

	frames          chan FrameAudioData
	bufferSemaphore chan struct{}

	samplesPerFrame float64
	sampleAcc       float64
	frame           []float32

	last atomic.Pointer[FrameAudioData]
}

func newAudioPlayer(stream AudioStream, sampleRate, numBufferedFrames int) *audioPlayer {
	p := &audioPlayer{
		stream:            stream,
		sampleRate:        sampleRate,
		numBufferedFrames: numBufferedFrames,
		frames:            make(chan FrameAudioData, numBufferedFrames),
		bufferSemaphore:   make(chan struct{}, numBufferedFrames),
	}
	if stream != nil {
		stream.SetupPlayer(p)
	}
	return p
}

func frameRate(pal bool) float64 {
	if pal {
		return FRAME_RATE_PAL
	}
	return FRAME_RATE_NTSC
}

// reset empties the pipeline and refills the semaphore. Only called while
// no producer is running and the stream is stopped.
func (p *audioPlayer) reset(pal bool) {
	p.discardFrames()
	for len(p.bufferSemaphore) > 0 {
		<-p.bufferSemaphore
	}
	for i := 0; i < p.numBufferedFrames; i++ {
		select {
		case p.bufferSemaphore <- struct{}{}:
		default:
		}
	}
	p.samplesPerFrame = float64(p.sampleRate) / frameRate(pal)
	p.sampleAcc = 0
	p.last.Store(nil)
}

// waitFrame blocks until a buffer is free or stop is closed. Stop wins
// when both are ready.
func (p *audioPlayer) waitFrame(stop <-chan struct{}) bool {
	select {
	case <-stop:
		return false
	default:
	}
	select {
	case <-stop:
		return false
	case <-p.bufferSemaphore:
		return true
	}
}

// BeginFrame sizes the next frame; the fractional remainder carries over so
// the long-run sample rate is exact.
func (p *audioPlayer) BeginFrame() {
	p.sampleAcc += p.samplesPerFrame
	n := int(p.sampleAcc)
	p.sampleAcc -= float64(n)
	p.frame = make([]float32, n)
}

// EndFrame renders the core into the frame and queues it for the stream.
func (p *audioPlayer) EndFrame(core EmulationCore, active bool) {
	core.RenderFrame(p.frame)
	trigger := NO_TRIGGER
	if active {
		trigger = findTrigger(p.frame)
	}
	// Never blocks: a token was taken for this slot in waitFrame.
	p.frames <- FrameAudioData{Samples: p.frame, Trigger: trigger}
	p.frame = nil
}

// NextFrame implements FrameSource.
func (p *audioPlayer) NextFrame() ([]float32, bool) {
	select {
	case f := <-p.frames:
		p.last.Store(&f)
		select {
		case p.bufferSemaphore <- struct{}{}:
		default:
		}
		return f.Samples, true
	default:
		return nil, false
	}
}

// LastFrame returns the frame the stream consumed most recently.
func (p *audioPlayer) LastFrame() FrameAudioData {
	if f := p.last.Load(); f != nil {
		return *f
	}
	return FrameAudioData{Trigger: NO_TRIGGER}
}

func (p *audioPlayer) discardFrames() {
	for {
		select {
		case <-p.frames:
		default:
			return
		}
	}
}

// shutdown stops the stream and drops whatever it had not consumed yet.
func (p *audioPlayer) shutdown() {
	if p.stream != nil {
		p.stream.Stop()
	}
	p.discardFrames()
}

func findTrigger(samples []float32) int {
	for i := 1; i < len(samples); i++ {
		if samples[i-1] < 0 && samples[i] >= 0 {
			return i
		}
	}
	return NO_TRIGGER
}
