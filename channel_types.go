// channel_types.go - Channel and expansion configuration for the preview player

package main

import (
	"errors"
	"fmt"
	"strings"
)

type ChannelType int

const (
	CHANNEL_SQUARE1 ChannelType = iota
	CHANNEL_SQUARE2
	CHANNEL_TRIANGLE
	CHANNEL_NOISE
	CHANNEL_DPCM
	CHANNEL_VRC6_SQUARE1
	CHANNEL_VRC6_SQUARE2
	CHANNEL_VRC6_SAW
	CHANNEL_MMC5_SQUARE1
	CHANNEL_MMC5_SQUARE2
	CHANNEL_N163_WAVE1
	CHANNEL_N163_WAVE2
	CHANNEL_N163_WAVE3
	CHANNEL_N163_WAVE4
	CHANNEL_N163_WAVE5
	CHANNEL_N163_WAVE6
	CHANNEL_N163_WAVE7
	CHANNEL_N163_WAVE8

	CHANNEL_COUNT
)

// NO_CHANNEL selects no channel; as a note command it means "stop all".
const NO_CHANNEL = -1

var channelNames = [CHANNEL_COUNT]string{
	"Square 1", "Square 2", "Triangle", "Noise", "DPCM",
	"VRC6 Square 1", "VRC6 Square 2", "VRC6 Saw",
	"MMC5 Square 1", "MMC5 Square 2",
	"N163 Wave 1", "N163 Wave 2", "N163 Wave 3", "N163 Wave 4",
	"N163 Wave 5", "N163 Wave 6", "N163 Wave 7", "N163 Wave 8",
}

func (c ChannelType) String() string {
	if c < 0 || c >= CHANNEL_COUNT {
		return fmt.Sprintf("Channel(%d)", int(c))
	}
	return channelNames[c]
}

// Expansion reports which expansion chip a channel belongs to.
func (c ChannelType) Expansion() ExpansionType {
	switch {
	case c >= CHANNEL_VRC6_SQUARE1 && c <= CHANNEL_VRC6_SAW:
		return EXPANSION_VRC6
	case c >= CHANNEL_MMC5_SQUARE1 && c <= CHANNEL_MMC5_SQUARE2:
		return EXPANSION_MMC5
	case c >= CHANNEL_N163_WAVE1 && c <= CHANNEL_N163_WAVE8:
		return EXPANSION_N163
	default:
		return EXPANSION_NONE
	}
}

// sharesDAC is true for the channels whose loudness depends on the DPCM DAC level.
func (c ChannelType) sharesDAC() bool {
	return c == CHANNEL_TRIANGLE || c == CHANNEL_NOISE
}

type ExpansionType int

const (
	EXPANSION_NONE ExpansionType = iota
	EXPANSION_VRC6
	EXPANSION_MMC5
	EXPANSION_N163
)

const N163_MAX_CHANNELS = 8

var expansionNames = map[string]ExpansionType{
	"":     EXPANSION_NONE,
	"2a03": EXPANSION_NONE,
	"vrc6": EXPANSION_VRC6,
	"mmc5": EXPANSION_MMC5,
	"n163": EXPANSION_N163,
}

func (e ExpansionType) String() string {
	switch e {
	case EXPANSION_NONE:
		return "2A03"
	case EXPANSION_VRC6:
		return "VRC6"
	case EXPANSION_MMC5:
		return "MMC5"
	case EXPANSION_N163:
		return "N163"
	}
	return fmt.Sprintf("Expansion(%d)", int(e))
}

func (e ExpansionType) mask() uint32 {
	if e == EXPANSION_NONE {
		return 0
	}
	return 1 << uint(e-1)
}

func ParseExpansionType(name string) (ExpansionType, error) {
	exp, ok := expansionNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return EXPANSION_NONE, fmt.Errorf("%w: %q", ErrUnknownExpansion, name)
	}
	return exp, nil
}

var (
	ErrUnknownExpansion = errors.New("unknown expansion")
	ErrN163ChannelCount = errors.New("n163 channel count out of range")
)

// ExpansionConfig is fixed for the lifetime of one player run.
type ExpansionConfig struct {
	Mask            uint32
	NumN163Channels int
}

func NewExpansionConfig(numN163Channels int, expansions ...ExpansionType) ExpansionConfig {
	cfg := ExpansionConfig{NumN163Channels: numN163Channels}
	for _, e := range expansions {
		cfg.Mask |= e.mask()
	}
	return cfg
}

func (c ExpansionConfig) Has(e ExpansionType) bool {
	if e == EXPANSION_NONE {
		return true
	}
	return c.Mask&e.mask() != 0
}

func (c ExpansionConfig) Validate() error {
	if c.Has(EXPANSION_N163) && (c.NumN163Channels < 1 || c.NumN163Channels > N163_MAX_CHANNELS) {
		return fmt.Errorf("%w: %d", ErrN163ChannelCount, c.NumN163Channels)
	}
	return nil
}

// Channels lists the configured channels. 2A03 channels always come first,
// so channel indices 0-4 are the same for every configuration.
func (c ExpansionConfig) Channels() []ChannelType {
	channels := []ChannelType{CHANNEL_SQUARE1, CHANNEL_SQUARE2, CHANNEL_TRIANGLE, CHANNEL_NOISE, CHANNEL_DPCM}
	if c.Has(EXPANSION_VRC6) {
		channels = append(channels, CHANNEL_VRC6_SQUARE1, CHANNEL_VRC6_SQUARE2, CHANNEL_VRC6_SAW)
	}
	if c.Has(EXPANSION_MMC5) {
		channels = append(channels, CHANNEL_MMC5_SQUARE1, CHANNEL_MMC5_SQUARE2)
	}
	if c.Has(EXPANSION_N163) {
		for i := 0; i < c.NumN163Channels && i < N163_MAX_CHANNELS; i++ {
			channels = append(channels, CHANNEL_N163_WAVE1+ChannelType(i))
		}
	}
	return channels
}
