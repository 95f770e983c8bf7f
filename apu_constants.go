// apu_constants.go - Register map and timing constants for the APU core

package main

const (
	APU_CLOCK_NTSC = 1789773.0
	APU_CLOCK_PAL  = 1662607.0

	FRAME_RATE_NTSC = 60.0988
	FRAME_RATE_PAL  = 50.0070

	DAC_DEFAULT_VALUE = 64
	DAC_MAX_VALUE     = 127
)

// 2A03
const (
	APU_PL1_VOL    = 0x4000
	APU_PL1_LO     = 0x4002
	APU_PL1_HI     = 0x4003
	APU_PL2_VOL    = 0x4004
	APU_PL2_LO     = 0x4006
	APU_PL2_HI     = 0x4007
	APU_TRI_LINEAR = 0x4008
	APU_TRI_LO     = 0x400A
	APU_TRI_HI     = 0x400B
	APU_NOISE_VOL  = 0x400C
	APU_NOISE_LO   = 0x400E
	APU_DMC_RAW    = 0x4011
	APU_SND_CHN    = 0x4015
)

// VRC6
const (
	VRC6_PL1_VOL = 0x9000
	VRC6_PL1_LO  = 0x9001
	VRC6_PL1_HI  = 0x9002
	VRC6_PL2_VOL = 0xA000
	VRC6_PL2_LO  = 0xA001
	VRC6_PL2_HI  = 0xA002
	VRC6_SAW_VOL = 0xB000
	VRC6_SAW_LO  = 0xB001
	VRC6_SAW_HI  = 0xB002
)

// MMC5
const (
	MMC5_PL1_VOL = 0x5000
	MMC5_PL1_LO  = 0x5002
	MMC5_PL1_HI  = 0x5003
	MMC5_PL2_VOL = 0x5004
	MMC5_PL2_LO  = 0x5006
	MMC5_PL2_HI  = 0x5007
)

// N163
const (
	N163_DATA = 0x4800
	N163_ADDR = 0xF800

	N163_RAM_SIZE     = 128
	N163_REG_TOP      = 0x78 // registers of the first wave channel
	N163_REG_STRIDE   = 8
	N163_REG_FREQ_LO  = 0
	N163_REG_FREQ_MID = 2
	N163_REG_FREQ_HI  = 4 // bits 0-1 freq, bits 2-7 wave length
	N163_REG_WAVE     = 6
	N163_REG_VOL      = 7 // bits 0-3 volume; 0x7F bits 4-6 channel count - 1
	N163_CYCLES       = 15
)

var pulseDutyTable = [4][8]uint8{
	{0, 1, 0, 0, 0, 0, 0, 0},
	{0, 1, 1, 0, 0, 0, 0, 0},
	{0, 1, 1, 1, 1, 0, 0, 0},
	{1, 0, 0, 1, 1, 1, 1, 1},
}

var triangleSequence = [32]uint8{
	15, 14, 13, 12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1, 0,
	0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15,
}

var noisePeriodNTSC = [16]int{4, 8, 16, 32, 64, 96, 128, 160, 202, 254, 380, 508, 762, 1016, 2034, 4068}
var noisePeriodPAL = [16]int{4, 8, 14, 30, 60, 88, 118, 148, 188, 236, 354, 472, 708, 944, 1890, 3778}

const (
	MIX_EXPANSION_GAIN = 0.25
	DC_BLOCK_COEF      = 0.995
)
