// player_settings.go - Tunables shared by the preview player and its frame clock

package main

import "time"

const (
	DEFAULT_SAMPLE_RATE          = 44100
	DEFAULT_NUM_BUFFERED_FRAMES  = 3
	DEFAULT_INSTRUMENT_STOP_TIME = 2 * time.Second

	// MIN_INSTRUMENT_STOP_TIME is the floor applied to InstrumentStopTime.
	MIN_INSTRUMENT_STOP_TIME = 10 * time.Millisecond
)

type PlayerSettings struct {
	SampleRate         int
	NumBufferedFrames  int
	InstrumentStopTime time.Duration // time from a release until the channel is cut
}

func DefaultPlayerSettings() PlayerSettings {
	return PlayerSettings{
		SampleRate:         DEFAULT_SAMPLE_RATE,
		NumBufferedFrames:  DEFAULT_NUM_BUFFERED_FRAMES,
		InstrumentStopTime: DEFAULT_INSTRUMENT_STOP_TIME,
	}
}

// normalize fills unset rates and buffer counts with defaults and clamps the
// stop time to its floor. A zero stop time means "cut as soon as possible".
func (s PlayerSettings) normalize() PlayerSettings {
	if s.SampleRate <= 0 {
		s.SampleRate = DEFAULT_SAMPLE_RATE
	}
	if s.NumBufferedFrames <= 0 {
		s.NumBufferedFrames = DEFAULT_NUM_BUFFERED_FRAMES
	}
	s.InstrumentStopTime = max(s.InstrumentStopTime, MIN_INSTRUMENT_STOP_TIME)
	return s
}
