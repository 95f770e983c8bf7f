// apu_engine_test.go - Tests for the APU core

package main

import "testing"

func renderFrames(apu *APU, frames int) []float32 {
	out := make([]float32, 735)
	for i := 0; i < frames; i++ {
		apu.RenderFrame(out)
	}
	return out
}

func peakToPeak(samples []float32) float32 {
	lo, hi := float32(1), float32(-1)
	for _, s := range samples {
		lo = min(lo, s)
		hi = max(hi, s)
	}
	return hi - lo
}

func TestAPU_SilentWhenNothingEnabled(t *testing.T) {
	apu := NewAPU()
	apu.WriteRegister(APU_PL1_VOL, 0x3F)
	apu.WriteRegister(APU_PL1_LO, 0xFD)
	apu.WriteRegister(APU_PL1_HI, 0x00)

	out := renderFrames(apu, 10)
	if p := peakToPeak(out); p > 0.001 {
		t.Fatalf("expected silence with every channel disabled, peak-to-peak %f", p)
	}
}

func TestAPU_PulseAudibleWhenEnabled(t *testing.T) {
	apu := NewAPU()
	apu.WriteRegister(APU_PL1_VOL, 0xBF)
	apu.WriteRegister(APU_PL1_LO, 0xFD)
	apu.WriteRegister(APU_PL1_HI, 0x00)
	apu.SetChannelEnabled(CHANNEL_SQUARE1, true)

	if !apu.ChannelEnabled(CHANNEL_SQUARE1) || apu.ChannelEnabled(CHANNEL_SQUARE2) {
		t.Fatalf("unexpected enable state")
	}
	out := renderFrames(apu, 10)
	if p := peakToPeak(out); p < 0.1 {
		t.Fatalf("expected an audible pulse, peak-to-peak %f", p)
	}
	if findTrigger(out) == NO_TRIGGER {
		t.Fatalf("expected a rising zero crossing in a settled pulse")
	}
}

func TestAPU_ResetRestoresDefaults(t *testing.T) {
	apu := NewAPU()
	apu.SetChannelEnabled(CHANNEL_NOISE, true)
	apu.WriteRegister(APU_DMC_RAW, 3)
	apu.Reset(48000, true, ExpansionConfig{})

	if apu.ChannelEnabled(CHANNEL_NOISE) {
		t.Fatalf("expected channels disabled after Reset")
	}
	if apu.DAC() != DAC_DEFAULT_VALUE {
		t.Fatalf("expected DAC %d after Reset, got %d", DAC_DEFAULT_VALUE, apu.DAC())
	}
	if apu.cpuClock != APU_CLOCK_PAL {
		t.Fatalf("expected PAL clock, got %f", apu.cpuClock)
	}
}

func TestAPU_DACMasksTo7Bits(t *testing.T) {
	apu := NewAPU()
	apu.WriteRegister(APU_DMC_RAW, 0xFF)
	if got := apu.DAC(); got != DAC_MAX_VALUE {
		t.Fatalf("expected DAC %d, got %d", DAC_MAX_VALUE, got)
	}
}

func TestAPU_DACAttenuatesTriangle(t *testing.T) {
	render := func(dac uint8) float32 {
		apu := NewAPU()
		apu.WriteRegister(APU_DMC_RAW, dac)
		apu.WriteRegister(APU_TRI_LINEAR, 0xFF)
		apu.WriteRegister(APU_TRI_LO, 0xFD)
		apu.WriteRegister(APU_TRI_HI, 0x00)
		apu.SetChannelEnabled(CHANNEL_TRIANGLE, true)
		return peakToPeak(renderFrames(apu, 10))
	}

	quiet := render(DAC_MAX_VALUE)
	loud := render(0)
	if loud < 0.1 {
		t.Fatalf("expected an audible triangle at DAC 0, peak-to-peak %f", loud)
	}
	if quiet >= loud*0.8 {
		t.Fatalf("expected a high DAC to attenuate the triangle: DAC 0 %f, DAC 127 %f", loud, quiet)
	}
}

func TestAPU_NoiseRegisters(t *testing.T) {
	apu := NewAPU()
	apu.WriteRegister(APU_NOISE_VOL, 0x3F)
	apu.WriteRegister(APU_NOISE_LO, 0x86)
	if !apu.noise.short {
		t.Fatalf("expected short noise mode")
	}
	if apu.noise.timer.period != noisePeriodNTSC[6] {
		t.Fatalf("expected period %d, got %d", noisePeriodNTSC[6], apu.noise.timer.period)
	}
	if apu.noise.volume != 15 {
		t.Fatalf("expected volume 15, got %d", apu.noise.volume)
	}

	apu.SetChannelEnabled(CHANNEL_NOISE, true)
	if p := peakToPeak(renderFrames(apu, 5)); p < 0.05 {
		t.Fatalf("expected audible noise, peak-to-peak %f", p)
	}
}

func TestAPU_ExpansionWritesNeedExpansion(t *testing.T) {
	apu := NewAPU()
	apu.WriteRegister(VRC6_PL1_VOL, 0x0F)
	apu.WriteRegister(N163_ADDR, 0x80)
	apu.WriteRegister(N163_DATA, 0x55)
	if apu.vrc6[0].volume != 0 {
		t.Fatalf("VRC6 write must be ignored without VRC6")
	}
	if apu.n163RAM[0] != 0 {
		t.Fatalf("N163 write must be ignored without N163")
	}

	apu.Reset(44100, false, NewExpansionConfig(0, EXPANSION_VRC6))
	apu.WriteRegister(VRC6_PL2_VOL, 0x7A)
	if apu.vrc6[1].volume != 0x0A || apu.vrc6[1].duty != 7 {
		t.Fatalf("expected VRC6 pulse 2 volume 10 duty 7, got %d %d", apu.vrc6[1].volume, apu.vrc6[1].duty)
	}
}

func TestAPU_N163AutoIncrement(t *testing.T) {
	apu := NewAPU()
	apu.Reset(44100, false, NewExpansionConfig(4, EXPANSION_N163))
	if got := apu.n163RAM[0x7F] >> 4; got != 3 {
		t.Fatalf("expected channel count field 3, got %d", got)
	}

	apu.WriteRegister(N163_ADDR, 0x80|0x10)
	for _, b := range []uint8{1, 2, 3} {
		apu.WriteRegister(N163_DATA, b)
	}
	if apu.n163RAM[0x10] != 1 || apu.n163RAM[0x11] != 2 || apu.n163RAM[0x12] != 3 {
		t.Fatalf("expected auto-increment writes, got % x", apu.n163RAM[0x10:0x13])
	}

	apu.WriteRegister(N163_ADDR, 0x20)
	apu.WriteRegister(N163_DATA, 9)
	apu.WriteRegister(N163_DATA, 8)
	if apu.n163RAM[0x20] != 8 || apu.n163RAM[0x21] != 0 {
		t.Fatalf("expected fixed address writes, got % x", apu.n163RAM[0x20:0x22])
	}
}

func TestFindTrigger(t *testing.T) {
	if got := findTrigger([]float32{0.5, -0.2, -0.1, 0, 0.3}); got != 3 {
		t.Fatalf("expected trigger 3, got %d", got)
	}
	if got := findTrigger([]float32{0.1, 0.2, 0.3}); got != NO_TRIGGER {
		t.Fatalf("expected no trigger, got %d", got)
	}
	if got := findTrigger(nil); got != NO_TRIGGER {
		t.Fatalf("expected no trigger for an empty frame, got %d", got)
	}
}
