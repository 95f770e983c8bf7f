// audio_output.go - Audio stream selection and the shared frame-to-sample adapter

package main

import (
	"fmt"
	"sync"
	"time"
)

const (
	AUDIO_BACKEND_OTO = iota
	AUDIO_BACKEND_ALSA
	AUDIO_BACKEND_WAV
	AUDIO_BACKEND_NULL
)

func audioBackendName(backend int) string {
	switch backend {
	case AUDIO_BACKEND_OTO:
		return "oto"
	case AUDIO_BACKEND_ALSA:
		return "alsa"
	case AUDIO_BACKEND_WAV:
		return "wav"
	case AUDIO_BACKEND_NULL:
		return "null"
	}
	return fmt.Sprintf("unknown(%d)", backend)
}

// PUMP_INTERVAL is how often the timer-driven streams pull samples.
const PUMP_INTERVAL = 10 * time.Millisecond

// NewAudioStream opens the requested backend. wavPath is only used by
// AUDIO_BACKEND_WAV.
func NewAudioStream(backend int, sampleRate int, wavPath string) (AudioStream, error) {
	var (
		stream AudioStream
		err    error
	)
	switch backend {
	case AUDIO_BACKEND_OTO:
		var op *OtoPlayer
		if op, err = NewOtoPlayer(sampleRate); err == nil {
			stream = op
		}
	case AUDIO_BACKEND_ALSA:
		var ap *ALSAPlayer
		if ap, err = NewALSAPlayer(sampleRate); err == nil {
			stream = ap
		}
	case AUDIO_BACKEND_WAV:
		var wp *WAVPlayer
		if wp, err = NewWAVPlayer(wavPath, sampleRate); err == nil {
			stream = wp
		}
	case AUDIO_BACKEND_NULL:
		stream = NewNullPlayer(sampleRate)
	default:
		err = fmt.Errorf("unknown audio backend %d", backend)
	}
	if err != nil {
		return nil, err
	}
	return stream, nil
}

// frameReader turns variable-sized frames into a continuous sample stream.
// Gaps are filled with silence. Only the stream's own goroutine touches it.
type frameReader struct {
	source  FrameSource
	pending []float32
}

func newFrameReader(source FrameSource) *frameReader {
	return &frameReader{source: source}
}

// fill writes len(out) samples and reports whether it ran dry.
func (r *frameReader) fill(out []float32) (underrun bool) {
	n := 0
	for n < len(out) {
		if len(r.pending) == 0 {
			samples, ok := r.source.NextFrame()
			if !ok {
				clear(out[n:])
				return true
			}
			r.pending = samples
			continue
		}
		c := copy(out[n:], r.pending)
		r.pending = r.pending[c:]
		n += c
	}
	return false
}

func (r *frameReader) reset() {
	r.pending = nil
}

// samplePump calls fn with a block of samples every PUMP_INTERVAL, standing
// in for a sound card clock.
type samplePump struct {
	mu      sync.Mutex
	stop    chan struct{}
	done    chan struct{}
	started bool
}

func (sp *samplePump) start(blockSize int, fn func(block []float32)) {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	if sp.started {
		return
	}
	sp.stop = make(chan struct{})
	sp.done = make(chan struct{})
	sp.started = true

	go func(stop <-chan struct{}, done chan<- struct{}) {
		defer close(done)
		ticker := time.NewTicker(PUMP_INTERVAL)
		defer ticker.Stop()
		block := make([]float32, blockSize)
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				fn(block)
			}
		}
	}(sp.stop, sp.done)
}

func (sp *samplePump) halt() {
	sp.mu.Lock()
	if !sp.started {
		sp.mu.Unlock()
		return
	}
	close(sp.stop)
	done := sp.done
	sp.started = false
	sp.mu.Unlock()
	<-done
}

func (sp *samplePump) isStarted() bool {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return sp.started
}

func pumpBlockSize(sampleRate int) int {
	return max(1, sampleRate*int(PUMP_INTERVAL/time.Millisecond)/1000)
}

// NullPlayer consumes frames in real time and throws them away.
type NullPlayer struct {
	sampleRate int
	mutex      sync.Mutex
	reader     *frameReader
	pump       samplePump
}

func NewNullPlayer(sampleRate int) *NullPlayer {
	return &NullPlayer{sampleRate: sampleRate}
}

func (np *NullPlayer) SetupPlayer(source FrameSource) {
	np.mutex.Lock()
	defer np.mutex.Unlock()
	np.reader = newFrameReader(source)
}

func (np *NullPlayer) Start() {
	np.mutex.Lock()
	reader := np.reader
	np.mutex.Unlock()
	if reader == nil {
		return
	}
	np.pump.start(pumpBlockSize(np.sampleRate), func(block []float32) {
		reader.fill(block)
	})
}

func (np *NullPlayer) Stop() {
	np.pump.halt()
	np.mutex.Lock()
	if np.reader != nil {
		np.reader.reset()
	}
	np.mutex.Unlock()
}

func (np *NullPlayer) Close() error {
	np.Stop()
	return nil
}

func (np *NullPlayer) IsStarted() bool {
	return np.pump.isStarted()
}
