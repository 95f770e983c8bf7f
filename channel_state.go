// channel_state.go - Per-channel note and envelope state for the APU core

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

import "math"

var envelopeDefaults = [ENVELOPE_COUNT]int{
	ENVELOPE_VOLUME:   MAX_VOLUME,
	ENVELOPE_ARPEGGIO: 0,
	ENVELOPE_PITCH:    0,
	ENVELOPE_DUTY:     0,
}

type apuChannelState struct {
	core        EmulationCore
	channelType ChannelType
	exp         ExpansionConfig
	cpuClock    float64

	note        Note
	instrument  *Instrument
	released    bool
	forceReload bool

	envIdx   [ENVELOPE_COUNT]int
	envFrame [ENVELOPE_COUNT]int

	lastHi     int
	waveLoaded *Instrument
}

// NewAPUChannelState is the ChannelStateFactory for the APU core.
func NewAPUChannelState(core EmulationCore, ch ChannelType, exp ExpansionConfig, pal bool) ChannelState {
	s := &apuChannelState{
		core:        core,
		channelType: ch,
		exp:         exp,
		cpuClock:    APU_CLOCK_NTSC,
		lastHi:      -1,
	}
	if pal {
		s.cpuClock = APU_CLOCK_PAL
	}
	return s
}

func (s *apuChannelState) ChannelType() ChannelType {
	return s.channelType
}

func (s *apuChannelState) CurrentNote() Note {
	return s.note
}

func (s *apuChannelState) EnvelopeFrame(kind EnvelopeType) int {
	if kind < 0 || kind >= ENVELOPE_COUNT {
		return 0
	}
	return s.envFrame[kind]
}

func (s *apuChannelState) ForceInstrumentReload() {
	s.forceReload = true
}

func (s *apuChannelState) ClearNote() {
	s.note = Note{}
	s.released = false
	s.envIdx = [ENVELOPE_COUNT]int{}
	s.envFrame = [ENVELOPE_COUNT]int{}
}

func (s *apuChannelState) PlayNote(note Note) {
	switch {
	case note.IsDACReset():
		if s.channelType == CHANNEL_DPCM {
			s.core.WriteRegister(APU_DMC_RAW, uint8(max(0, min(note.DACLevel, DAC_MAX_VALUE))))
		}

	case note.IsRelease():
		if !s.note.IsMusical() || s.released {
			return
		}
		s.released = true
		for k := EnvelopeType(0); k < ENVELOPE_COUNT; k++ {
			s.envIdx[k] = s.instrument.Envelope(k).ReleaseIndex(s.envIdx[k])
		}

	case note.IsMusical():
		if s.forceReload || note.Instrument != s.instrument {
			s.lastHi = -1
			s.waveLoaded = nil
		}
		s.forceReload = false
		s.instrument = note.Instrument
		s.note = note
		s.released = false
		s.envIdx = [ENVELOPE_COUNT]int{}
	}
}

// Update applies the current envelope values and advances every cursor.
func (s *apuChannelState) Update() {
	if !s.note.IsMusical() || s.instrument == nil {
		s.writeSilence()
		return
	}

	var values [ENVELOPE_COUNT]int
	for k := EnvelopeType(0); k < ENVELOPE_COUNT; k++ {
		env := s.instrument.Envelope(k)
		values[k] = env.Value(s.envIdx[k], envelopeDefaults[k])
		s.envFrame[k] = s.envIdx[k]
		s.envIdx[k] = env.Next(s.envIdx[k], s.released)
	}

	pitch := max(NOTE_MIN, min(s.note.Value+values[ENVELOPE_ARPEGGIO], NOTE_MAX))
	vol := scaleVolume(s.instrument.Volume, values[ENVELOPE_VOLUME])
	s.writeNote(pitch, values[ENVELOPE_PITCH], vol, values[ENVELOPE_DUTY])
}

func scaleVolume(instVol, envVol int) int {
	instVol = max(0, min(instVol, MAX_VOLUME))
	envVol = max(0, min(envVol, MAX_VOLUME))
	if instVol == 0 || envVol == 0 {
		return 0
	}
	return (instVol*envVol + MAX_VOLUME - 1) / MAX_VOLUME
}

func noteFrequency(note int) float64 {
	return 440.0 * math.Pow(2, float64(note-NOTE_A4)/NOTES_PER_OCTAVE)
}

// period converts a pitch into a timer period for a channel whose sequence
// is stepsPerCycle CPU clocks long per timer tick.
func (s *apuChannelState) period(note int, stepsPerCycle float64, pitchOffset int, maxPeriod int) int {
	p := int(math.Round(s.cpuClock/(stepsPerCycle*noteFrequency(note)))) - 1 + pitchOffset
	return max(0, min(p, maxPeriod))
}

func (s *apuChannelState) writeNote(note, pitchOffset, vol, duty int) {
	switch s.channelType {
	case CHANNEL_SQUARE1, CHANNEL_SQUARE2:
		base := uint16(APU_PL1_VOL) + uint16(s.channelType-CHANNEL_SQUARE1)*4
		s.writePulse(base, note, pitchOffset, vol, duty)
	case CHANNEL_MMC5_SQUARE1, CHANNEL_MMC5_SQUARE2:
		base := uint16(MMC5_PL1_VOL) + uint16(s.channelType-CHANNEL_MMC5_SQUARE1)*4
		s.writePulse(base, note, pitchOffset, vol, duty)
	case CHANNEL_TRIANGLE:
		p := s.period(note, 32, pitchOffset, 0x7FF)
		linear := uint8(0x80)
		if vol > 0 {
			linear = 0xFF
		}
		s.core.WriteRegister(APU_TRI_LINEAR, linear)
		s.core.WriteRegister(APU_TRI_LO, uint8(p))
		s.writeHi(APU_TRI_HI, p>>8)
	case CHANNEL_NOISE:
		idx := (note - NOTE_MIN) & 0x0F
		s.core.WriteRegister(APU_NOISE_VOL, 0x30|uint8(vol))
		s.core.WriteRegister(APU_NOISE_LO, uint8(duty&1)<<7|uint8(0x0F-idx))
	case CHANNEL_VRC6_SQUARE1, CHANNEL_VRC6_SQUARE2:
		base := uint16(VRC6_PL1_VOL) + uint16(s.channelType-CHANNEL_VRC6_SQUARE1)*0x1000
		p := s.period(note, 16, pitchOffset, 0xFFF)
		s.core.WriteRegister(base, uint8(duty&0x07)<<4|uint8(vol))
		s.core.WriteRegister(base+1, uint8(p))
		s.core.WriteRegister(base+2, 0x80|uint8(p>>8))
	case CHANNEL_VRC6_SAW:
		p := s.period(note, 14, pitchOffset, 0xFFF)
		s.core.WriteRegister(VRC6_SAW_VOL, uint8(vol*42/MAX_VOLUME))
		s.core.WriteRegister(VRC6_SAW_LO, uint8(p))
		s.core.WriteRegister(VRC6_SAW_HI, 0x80|uint8(p>>8))
	case CHANNEL_N163_WAVE1, CHANNEL_N163_WAVE2, CHANNEL_N163_WAVE3, CHANNEL_N163_WAVE4,
		CHANNEL_N163_WAVE5, CHANNEL_N163_WAVE6, CHANNEL_N163_WAVE7, CHANNEL_N163_WAVE8:
		s.writeN163(note, pitchOffset, vol)
	}
}

func (s *apuChannelState) writePulse(base uint16, note, pitchOffset, vol, duty int) {
	p := s.period(note, 16, pitchOffset, 0x7FF)
	s.core.WriteRegister(base, uint8(duty&0x03)<<6|0x30|uint8(vol))
	s.core.WriteRegister(base+2, uint8(p))
	s.writeHi(base+3, p>>8)
}

// writeHi skips redundant high-period writes, which would restart the
// pulse sequencer and click.
func (s *apuChannelState) writeHi(addr uint16, hi int) {
	if hi == s.lastHi {
		return
	}
	s.core.WriteRegister(addr, uint8(hi))
	s.lastHi = hi
}

func (s *apuChannelState) n163Index() int {
	return int(s.channelType - CHANNEL_N163_WAVE1)
}

func (s *apuChannelState) n163Write(ramAddr int, value uint8) {
	s.core.WriteRegister(N163_ADDR, uint8(ramAddr&0x7F))
	s.core.WriteRegister(N163_DATA, value)
}

func (s *apuChannelState) writeN163(note, pitchOffset, vol int) {
	idx := s.n163Index()
	wave := s.instrument.N163Wave
	if len(wave) == 0 {
		wave = defaultN163Wave()
	}
	waveAddr := idx * N163_WAVE_MAX

	if s.waveLoaded != s.instrument {
		s.core.WriteRegister(N163_ADDR, 0x80|uint8(waveAddr/2))
		for i := 0; i+1 < len(wave); i += 2 {
			s.core.WriteRegister(N163_DATA, wave[i]&0x0F|wave[i+1]<<4)
		}
		s.waveLoaded = s.instrument
	}

	numCh := max(1, s.exp.NumN163Channels)
	freq := noteFrequency(note) * N163_CYCLES * float64(numCh) * 65536 * float64(len(wave)) / s.cpuClock
	reg := max(0, min(int(math.Round(freq))+pitchOffset, 0x3FFFF))

	base := N163_REG_TOP - idx*N163_REG_STRIDE
	s.n163Write(base+N163_REG_FREQ_LO, uint8(reg))
	s.n163Write(base+N163_REG_FREQ_MID, uint8(reg>>8))
	s.n163Write(base+N163_REG_FREQ_HI, uint8((256-len(wave))&0xFC)|uint8(reg>>16)&0x03)
	s.n163Write(base+N163_REG_WAVE, uint8(waveAddr))
	s.n163Write(base+N163_REG_VOL, s.n163VolByte(idx, vol))
}

func (s *apuChannelState) n163VolByte(idx, vol int) uint8 {
	v := uint8(vol) & 0x0F
	if idx == 0 {
		v |= uint8(max(0, s.exp.NumN163Channels-1)) << 4
	}
	return v
}

func (s *apuChannelState) writeSilence() {
	switch s.channelType {
	case CHANNEL_SQUARE1, CHANNEL_SQUARE2:
		s.core.WriteRegister(uint16(APU_PL1_VOL)+uint16(s.channelType-CHANNEL_SQUARE1)*4, 0x30)
	case CHANNEL_MMC5_SQUARE1, CHANNEL_MMC5_SQUARE2:
		s.core.WriteRegister(uint16(MMC5_PL1_VOL)+uint16(s.channelType-CHANNEL_MMC5_SQUARE1)*4, 0x30)
	case CHANNEL_TRIANGLE:
		s.core.WriteRegister(APU_TRI_LINEAR, 0x80)
	case CHANNEL_NOISE:
		s.core.WriteRegister(APU_NOISE_VOL, 0x30)
	case CHANNEL_VRC6_SQUARE1, CHANNEL_VRC6_SQUARE2:
		s.core.WriteRegister(uint16(VRC6_PL1_VOL)+uint16(s.channelType-CHANNEL_VRC6_SQUARE1)*0x1000, 0)
	case CHANNEL_VRC6_SAW:
		s.core.WriteRegister(VRC6_SAW_VOL, 0)
	case CHANNEL_N163_WAVE1, CHANNEL_N163_WAVE2, CHANNEL_N163_WAVE3, CHANNEL_N163_WAVE4,
		CHANNEL_N163_WAVE5, CHANNEL_N163_WAVE6, CHANNEL_N163_WAVE7, CHANNEL_N163_WAVE8:
		idx := s.n163Index()
		s.n163Write(N163_REG_TOP-idx*N163_REG_STRIDE+N163_REG_VOL, s.n163VolByte(idx, 0))
	}
	s.lastHi = -1
}
