// n163_wave_import.go - Build N163 wavetables from audio files

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
)

var ErrUnsupportedWaveFile = errors.New("unsupported wave file")

// ImportN163Wave reads an audio file and squeezes the whole of it into one
// wavetable period of length 4-bit samples.
func ImportN163Wave(path string, length int) ([]uint8, error) {
	if length <= 0 || length > N163_WAVE_MAX || length%4 != 0 {
		return nil, fmt.Errorf("n163 wave length %d must be a multiple of 4 up to %d", length, N163_WAVE_MAX)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var mono []float32
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".wav":
		mono, err = decodeWAVMono(f)
	case ".mp3":
		mono, err = decodeMP3Mono(f)
	case ".ogg":
		mono, err = decodeOggMono(f)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedWaveFile, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(mono) == 0 {
		return nil, fmt.Errorf("%s: %w: no samples", path, ErrUnsupportedWaveFile)
	}
	return quantizeWave(mono, length), nil
}

func decodeWAVMono(r io.ReadSeeker) ([]float32, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return nil, fmt.Errorf("%w: not a PCM wav file", ErrUnsupportedWaveFile)
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, err
	}
	channels := max(1, buf.Format.NumChannels)
	scale := float32(int(1) << (max(1, int(d.BitDepth)) - 1))
	mono := make([]float32, len(buf.Data)/channels)
	for i := range mono {
		var sum float32
		for c := 0; c < channels; c++ {
			sum += float32(buf.Data[i*channels+c]) / scale
		}
		mono[i] = sum / float32(channels)
	}
	return mono, nil
}

func decodeMP3Mono(r io.Reader) ([]float32, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, err
	}
	pcm, err := io.ReadAll(dec)
	if err != nil {
		return nil, err
	}
	// 16-bit little-endian stereo
	mono := make([]float32, len(pcm)/4)
	for i := range mono {
		l := int16(uint16(pcm[4*i]) | uint16(pcm[4*i+1])<<8)
		r := int16(uint16(pcm[4*i+2]) | uint16(pcm[4*i+3])<<8)
		mono[i] = (float32(l) + float32(r)) / 65536
	}
	return mono, nil
}

func decodeOggMono(r io.Reader) ([]float32, error) {
	data, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return nil, err
	}
	channels := max(1, format.Channels)
	mono := make([]float32, len(data)/channels)
	for i := range mono {
		var sum float32
		for c := 0; c < channels; c++ {
			sum += data[i*channels+c]
		}
		mono[i] = sum / float32(channels)
	}
	return mono, nil
}

// quantizeWave resamples to length points and maps the peak range onto 0..15.
func quantizeWave(samples []float32, length int) []uint8 {
	points := make([]float32, length)
	lo, hi := float32(1e9), float32(-1e9)
	for i := range points {
		start := i * len(samples) / length
		end := max(start+1, (i+1)*len(samples)/length)
		var sum float32
		for _, s := range samples[start:min(end, len(samples))] {
			sum += s
		}
		points[i] = sum / float32(min(end, len(samples))-start)
		lo = min(lo, points[i])
		hi = max(hi, points[i])
	}

	wave := make([]uint8, length)
	if hi-lo < 1e-6 {
		for i := range wave {
			wave[i] = 8
		}
		return wave
	}
	for i, p := range points {
		wave[i] = uint8((p-lo)/(hi-lo)*15 + 0.5)
	}
	return wave
}
