// audio_output_test.go - Tests for stream selection, the frame reader and the null stream

package main

import (
	"testing"
	"time"
)

type sliceSource struct {
	frames [][]float32
}

func (s *sliceSource) NextFrame() ([]float32, bool) {
	if len(s.frames) == 0 {
		return nil, false
	}
	f := s.frames[0]
	s.frames = s.frames[1:]
	return f, true
}

func TestFrameReader_SpansFrames(t *testing.T) {
	src := &sliceSource{frames: [][]float32{{1, 2, 3}, {4, 5}, {6}}}
	r := newFrameReader(src)

	out := make([]float32, 4)
	if r.fill(out) {
		t.Fatalf("unexpected underrun")
	}
	want := []float32{1, 2, 3, 4}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, out)
		}
	}

	out = make([]float32, 4)
	if !r.fill(out) {
		t.Fatalf("expected an underrun once the source ran dry")
	}
	want = []float32{5, 6, 0, 0}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("expected %v padded with silence, got %v", want, out)
		}
	}
}

func TestFrameReader_ResetDropsPending(t *testing.T) {
	src := &sliceSource{frames: [][]float32{{1, 2, 3}}}
	r := newFrameReader(src)
	out := make([]float32, 1)
	r.fill(out)
	r.reset()

	out = []float32{9, 9}
	if !r.fill(out) || out[0] != 0 || out[1] != 0 {
		t.Fatalf("expected silence after reset, got %v", out)
	}
}

func TestNewAudioStream(t *testing.T) {
	stream, err := NewAudioStream(AUDIO_BACKEND_NULL, 44100, "")
	if err != nil {
		t.Fatalf("null backend failed: %v", err)
	}
	if _, ok := stream.(*NullPlayer); !ok {
		t.Fatalf("expected *NullPlayer, got %T", stream)
	}

	if stream, err := NewAudioStream(AUDIO_BACKEND_WAV, 44100, ""); err == nil || stream != nil {
		t.Fatalf("expected wav backend without a path to fail, got %v %v", stream, err)
	}
	if _, err := NewAudioStream(99, 44100, ""); err == nil {
		t.Fatalf("expected an unknown backend to fail")
	}
}

func TestPumpBlockSize(t *testing.T) {
	if got := pumpBlockSize(44100); got != 441 {
		t.Fatalf("expected 441, got %d", got)
	}
	if got := pumpBlockSize(50); got != 1 {
		t.Fatalf("expected a minimum of 1, got %d", got)
	}
}

func TestNullPlayer_DrivesPlayer(t *testing.T) {
	t.Setenv("PREVIEW_DEBUG", "")
	null := NewNullPlayer(44100)
	player := NewInstrumentPlayer(newFakeCore(), null, func(core EmulationCore, ch ChannelType, exp ExpansionConfig, pal bool) ChannelState {
		return &fakeChannelState{log: &eventLog{}, ch: ch}
	}, DefaultPlayerSettings())

	if err := player.Start(ExpansionConfig{}, false); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !null.IsStarted() {
		t.Fatalf("expected the null stream to start with the player")
	}

	player.PlayNote(0, MusicalNote(NOTE_A4, nil))
	waitFor(t, "the null stream to pull frames", func() bool { return player.ActiveChannel() == 0 })
	waitFor(t, "a consumed frame", func() bool { return len(player.LastFrame().Samples) > 0 })

	player.Stop(true)
	if null.IsStarted() {
		t.Fatalf("expected the null stream to stop with the player")
	}
	if err := null.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
}

func TestSamplePump_StartHalt(t *testing.T) {
	var sp samplePump
	calls := make(chan int, 100)
	sp.start(8, func(block []float32) {
		select {
		case calls <- len(block):
		default:
		}
	})
	sp.start(8, func([]float32) { t.Errorf("second start must be ignored") })

	select {
	case n := <-calls:
		if n != 8 {
			t.Fatalf("expected blocks of 8, got %d", n)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("pump never ran")
	}
	sp.halt()
	sp.halt()
	if sp.isStarted() {
		t.Fatalf("expected pump halted")
	}
}
