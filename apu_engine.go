// apu_engine.go - Compact 2A03/VRC6/MMC5/N163 core driven by register writes

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

// The core is owned by the audio goroutine of the player that drives it, so
// unlike SoundChip it carries no lock.

type apuTimer struct {
	period  int // CPU cycles per step
	counter int
}

// clock advances the timer and returns how many steps elapsed.
func (t *apuTimer) clock(cycles int) int {
	if t.period <= 0 {
		return 0
	}
	t.counter -= cycles
	if t.counter > 0 {
		return 0
	}
	steps := -t.counter/t.period + 1
	t.counter += steps * t.period
	return steps
}

type apuPulse struct {
	timer  apuTimer
	raw    int // 11-bit period register
	duty   uint8
	volume uint8
	step   uint8
}

func (p *apuPulse) writeVol(v uint8) {
	p.duty = v >> 6
	p.volume = v & 0x0F
}

func (p *apuPulse) writeLo(v uint8) {
	p.raw = p.raw&0x700 | int(v)
	p.timer.period = 2 * (p.raw + 1)
}

func (p *apuPulse) writeHi(v uint8) {
	p.raw = p.raw&0xFF | int(v&0x07)<<8
	p.timer.period = 2 * (p.raw + 1)
	p.step = 0
}

func (p *apuPulse) output(cycles int) uint8 {
	p.step = uint8((int(p.step) + p.timer.clock(cycles)) & 7)
	if p.raw < 8 || pulseDutyTable[p.duty][p.step] == 0 {
		return 0
	}
	return p.volume
}

type apuTriangle struct {
	timer  apuTimer
	raw    int
	linear uint8
	step   uint8
}

func (t *apuTriangle) writeLo(v uint8) {
	t.raw = t.raw&0x700 | int(v)
	t.timer.period = t.raw + 1
}

func (t *apuTriangle) writeHi(v uint8) {
	t.raw = t.raw&0xFF | int(v&0x07)<<8
	t.timer.period = t.raw + 1
}

func (t *apuTriangle) output(cycles int) uint8 {
	steps := t.timer.clock(cycles)
	if t.linear&0x7F != 0 && t.raw >= 2 {
		t.step = uint8((int(t.step) + steps) & 31)
	}
	return triangleSequence[t.step]
}

type apuNoise struct {
	timer  apuTimer
	volume uint8
	short  bool
	shift  uint16
}

func (n *apuNoise) output(cycles int) uint8 {
	for steps := n.timer.clock(cycles); steps > 0; steps-- {
		tap := uint16(1)
		if n.short {
			tap = 6
		}
		feedback := (n.shift ^ (n.shift >> tap)) & 1
		n.shift = n.shift>>1 | feedback<<14
	}
	if n.shift&1 != 0 {
		return 0
	}
	return n.volume
}

type vrc6Pulse struct {
	timer   apuTimer
	raw     int
	duty    uint8
	volume  uint8
	digital bool
	enabled bool
	step    uint8
}

func (p *vrc6Pulse) writeVol(v uint8) {
	p.digital = v&0x80 != 0
	p.duty = (v >> 4) & 0x07
	p.volume = v & 0x0F
}

func (p *vrc6Pulse) writeLo(v uint8) {
	p.raw = p.raw&0xF00 | int(v)
	p.timer.period = p.raw + 1
}

func (p *vrc6Pulse) writeHi(v uint8) {
	p.raw = p.raw&0xFF | int(v&0x0F)<<8
	p.timer.period = p.raw + 1
	p.enabled = v&0x80 != 0
	if !p.enabled {
		p.step = 0
	}
}

func (p *vrc6Pulse) output(cycles int) uint8 {
	if !p.enabled {
		return 0
	}
	p.step = uint8((int(p.step) + p.timer.clock(cycles)) & 15)
	if p.digital || p.step <= p.duty {
		return p.volume
	}
	return 0
}

type vrc6Saw struct {
	timer   apuTimer
	raw     int
	rate    uint8
	enabled bool
	step    uint8
	accum   uint8
}

func (s *vrc6Saw) writeLo(v uint8) {
	s.raw = s.raw&0xF00 | int(v)
	s.timer.period = s.raw + 1
}

func (s *vrc6Saw) writeHi(v uint8) {
	s.raw = s.raw&0xFF | int(v&0x0F)<<8
	s.timer.period = s.raw + 1
	s.enabled = v&0x80 != 0
	if !s.enabled {
		s.step = 0
		s.accum = 0
	}
}

func (s *vrc6Saw) output(cycles int) uint8 {
	if !s.enabled {
		return 0
	}
	for steps := s.timer.clock(cycles); steps > 0; steps-- {
		s.step++
		if s.step >= 14 {
			s.step = 0
			s.accum = 0
		} else if s.step&1 == 0 {
			s.accum += s.rate
		}
	}
	return s.accum >> 3
}

type APU struct {
	sampleRate int
	pal        bool
	cpuClock   float64
	cycleAcc   float64
	exp        ExpansionConfig

	enabled [CHANNEL_COUNT]bool

	pulse    [2]apuPulse
	triangle apuTriangle
	noise    apuNoise
	dac      uint8

	vrc6 [2]vrc6Pulse
	saw  vrc6Saw
	mmc5 [2]apuPulse

	n163RAM     [N163_RAM_SIZE]uint8
	n163Addr    uint8
	n163AutoInc bool
	n163Phase   [N163_MAX_CHANNELS]float64

	dcPrevIn  float32
	dcPrevOut float32
}

func NewAPU() *APU {
	apu := &APU{}
	apu.Reset(44100, false, ExpansionConfig{})
	return apu
}

// Reset puts every channel back to power-on state. Channels start disabled.
func (apu *APU) Reset(sampleRate int, pal bool, exp ExpansionConfig) {
	*apu = APU{
		sampleRate: sampleRate,
		pal:        pal,
		cpuClock:   APU_CLOCK_NTSC,
		exp:        exp,
		dac:        DAC_DEFAULT_VALUE,
	}
	if pal {
		apu.cpuClock = APU_CLOCK_PAL
	}
	apu.noise.shift = 1
	apu.noise.timer.period = apu.noisePeriods()[0]
	if exp.Has(EXPANSION_N163) {
		apu.n163RAM[0x7F] = uint8(exp.NumN163Channels-1) << 4
	}
}

func (apu *APU) noisePeriods() *[16]int {
	if apu.pal {
		return &noisePeriodPAL
	}
	return &noisePeriodNTSC
}

func (apu *APU) SetChannelEnabled(ch ChannelType, enabled bool) {
	if ch < 0 || ch >= CHANNEL_COUNT {
		return
	}
	apu.enabled[ch] = enabled
}

func (apu *APU) ChannelEnabled(ch ChannelType) bool {
	if ch < 0 || ch >= CHANNEL_COUNT {
		return false
	}
	return apu.enabled[ch]
}

// DAC returns the shared 7-bit DAC level.
func (apu *APU) DAC() uint8 {
	return apu.dac
}

func (apu *APU) WriteRegister(addr uint16, value uint8) {
	switch addr {
	case APU_PL1_VOL, APU_PL2_VOL:
		apu.pulse[(addr-APU_PL1_VOL)/4].writeVol(value)
	case APU_PL1_LO, APU_PL2_LO:
		apu.pulse[(addr-APU_PL1_LO)/4].writeLo(value)
	case APU_PL1_HI, APU_PL2_HI:
		apu.pulse[(addr-APU_PL1_HI)/4].writeHi(value)
	case APU_TRI_LINEAR:
		apu.triangle.linear = value
	case APU_TRI_LO:
		apu.triangle.writeLo(value)
	case APU_TRI_HI:
		apu.triangle.writeHi(value)
	case APU_NOISE_VOL:
		apu.noise.volume = value & 0x0F
	case APU_NOISE_LO:
		apu.noise.short = value&0x80 != 0
		apu.noise.timer.period = apu.noisePeriods()[value&0x0F]
	case APU_DMC_RAW:
		apu.dac = value & DAC_MAX_VALUE
	}

	if apu.exp.Has(EXPANSION_VRC6) {
		switch addr {
		case VRC6_PL1_VOL, VRC6_PL2_VOL:
			apu.vrc6[(addr-VRC6_PL1_VOL)>>12].writeVol(value)
		case VRC6_PL1_LO, VRC6_PL2_LO:
			apu.vrc6[(addr-VRC6_PL1_LO)>>12].writeLo(value)
		case VRC6_PL1_HI, VRC6_PL2_HI:
			apu.vrc6[(addr-VRC6_PL1_HI)>>12].writeHi(value)
		case VRC6_SAW_VOL:
			apu.saw.rate = value & 0x3F
		case VRC6_SAW_LO:
			apu.saw.writeLo(value)
		case VRC6_SAW_HI:
			apu.saw.writeHi(value)
		}
	}

	if apu.exp.Has(EXPANSION_MMC5) {
		switch addr {
		case MMC5_PL1_VOL, MMC5_PL2_VOL:
			apu.mmc5[(addr-MMC5_PL1_VOL)/4].writeVol(value)
		case MMC5_PL1_LO, MMC5_PL2_LO:
			apu.mmc5[(addr-MMC5_PL1_LO)/4].writeLo(value)
		case MMC5_PL1_HI, MMC5_PL2_HI:
			apu.mmc5[(addr-MMC5_PL1_HI)/4].writeHi(value)
		}
	}

	if apu.exp.Has(EXPANSION_N163) {
		switch addr {
		case N163_ADDR:
			apu.n163Addr = value & 0x7F
			apu.n163AutoInc = value&0x80 != 0
		case N163_DATA:
			apu.n163RAM[apu.n163Addr] = value
			if apu.n163AutoInc {
				apu.n163Addr = (apu.n163Addr + 1) & 0x7F
			}
		}
	}
}

// RenderFrame fills out with one frame worth of mono samples in [-1, 1].
func (apu *APU) RenderFrame(out []float32) {
	perSample := apu.cpuClock / float64(apu.sampleRate)
	for i := range out {
		apu.cycleAcc += perSample
		cycles := int(apu.cycleAcc)
		apu.cycleAcc -= float64(cycles)
		out[i] = apu.dcBlock(apu.mix(cycles))
	}
}

func (apu *APU) mix(cycles int) float32 {
	var p1, p2, tri, noise uint8
	if v := apu.pulse[0].output(cycles); apu.enabled[CHANNEL_SQUARE1] {
		p1 = v
	}
	if v := apu.pulse[1].output(cycles); apu.enabled[CHANNEL_SQUARE2] {
		p2 = v
	}
	if v := apu.triangle.output(cycles); apu.enabled[CHANNEL_TRIANGLE] {
		tri = v
	}
	if v := apu.noise.output(cycles); apu.enabled[CHANNEL_NOISE] {
		noise = v
	}

	// The DAC level is part of the triangle/noise/DPCM mixer term whether or
	// not the DPCM channel is enabled.
	sample := pulseMix(p1, p2) + tndMix(tri, noise, apu.dac)

	if apu.exp.Has(EXPANSION_VRC6) {
		var sum int
		if v := apu.vrc6[0].output(cycles); apu.enabled[CHANNEL_VRC6_SQUARE1] {
			sum += int(v)
		}
		if v := apu.vrc6[1].output(cycles); apu.enabled[CHANNEL_VRC6_SQUARE2] {
			sum += int(v)
		}
		if v := apu.saw.output(cycles); apu.enabled[CHANNEL_VRC6_SAW] {
			sum += int(v)
		}
		sample += float32(sum) / 61.0 * MIX_EXPANSION_GAIN
	}

	if apu.exp.Has(EXPANSION_MMC5) {
		var m1, m2 uint8
		if v := apu.mmc5[0].output(cycles); apu.enabled[CHANNEL_MMC5_SQUARE1] {
			m1 = v
		}
		if v := apu.mmc5[1].output(cycles); apu.enabled[CHANNEL_MMC5_SQUARE2] {
			m2 = v
		}
		sample += pulseMix(m1, m2)
	}

	if apu.exp.Has(EXPANSION_N163) {
		sample += apu.n163Mix(cycles)
	}
	return sample
}

func (apu *APU) n163Mix(cycles int) float32 {
	numCh := int(apu.n163RAM[0x7F]>>4&0x07) + 1
	var sum float32
	for i := 0; i < numCh; i++ {
		base := N163_REG_TOP - i*N163_REG_STRIDE
		hi := apu.n163RAM[base+N163_REG_FREQ_HI]
		freq := int(apu.n163RAM[base+N163_REG_FREQ_LO]) |
			int(apu.n163RAM[base+N163_REG_FREQ_MID])<<8 |
			int(hi&0x03)<<16
		length := 256 - int(hi&0xFC)

		apu.n163Phase[i] += float64(freq) * float64(cycles) / float64(N163_CYCLES*numCh)
		wrap := float64(length) * 65536
		for apu.n163Phase[i] >= wrap {
			apu.n163Phase[i] -= wrap
		}

		if !apu.enabled[CHANNEL_N163_WAVE1+ChannelType(i)] {
			continue
		}
		pos := int(apu.n163RAM[base+N163_REG_WAVE]) + int(apu.n163Phase[i]/65536)
		b := apu.n163RAM[(pos>>1)&0x7F]
		nibble := b & 0x0F
		if pos&1 != 0 {
			nibble = b >> 4
		}
		vol := apu.n163RAM[base+N163_REG_VOL] & 0x0F
		sum += float32(int(nibble)-8) * float32(vol) / (8 * 15)
	}
	return sum / float32(numCh) * MIX_EXPANSION_GAIN
}

func pulseMix(a, b uint8) float32 {
	if a+b == 0 {
		return 0
	}
	return 95.88 / (8128.0/float32(a+b) + 100)
}

func tndMix(tri, noise, dac uint8) float32 {
	sum := float32(tri)/8227 + float32(noise)/12241 + float32(dac)/22638
	if sum == 0 {
		return 0
	}
	return 159.79 / (1/sum + 100)
}

func (apu *APU) dcBlock(in float32) float32 {
	out := in - apu.dcPrevIn + DC_BLOCK_COEF*apu.dcPrevOut
	apu.dcPrevIn = in
	apu.dcPrevOut = out
	return max(min(out*2, 1), -1)
}
