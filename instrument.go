// instrument.go - Instruments and preview projects

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	MAX_VOLUME       = 15
	N163_WAVE_MAX    = 16
	DEFAULT_N163_LEN = 16
)

var (
	ErrUnknownInstrument = errors.New("unknown instrument")
	ErrBadProject        = errors.New("bad project")
)

type Instrument struct {
	Name      string
	Expansion ExpansionType
	Volume    int
	Envelopes [ENVELOPE_COUNT]*Envelope
	N163Wave  []uint8 // 4-bit samples
}

// NewInstrument returns a full-volume instrument with no envelopes.
func NewInstrument(name string, exp ExpansionType) *Instrument {
	inst := &Instrument{Name: name, Expansion: exp, Volume: MAX_VOLUME}
	if exp == EXPANSION_N163 {
		inst.N163Wave = defaultN163Wave()
	}
	return inst
}

func (i *Instrument) Envelope(kind EnvelopeType) *Envelope {
	if i == nil || kind < 0 || kind >= ENVELOPE_COUNT {
		return nil
	}
	return i.Envelopes[kind]
}

// defaultN163Wave is one period of a 16-step triangle.
func defaultN163Wave() []uint8 {
	wave := make([]uint8, DEFAULT_N163_LEN)
	for i := range wave {
		if i < DEFAULT_N163_LEN/2 {
			wave[i] = uint8(i * 2)
		} else {
			wave[i] = uint8((DEFAULT_N163_LEN - 1 - i) * 2)
		}
	}
	return wave
}

type Project struct {
	Name        string
	PAL         bool
	Expansion   ExpansionConfig
	Instruments []*Instrument
}

func (p *Project) Instrument(name string) (*Instrument, error) {
	for _, inst := range p.Instruments {
		if strings.EqualFold(inst.Name, name) {
			return inst, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownInstrument, name)
}

type envelopeJSON struct {
	Values  []int `json:"values"`
	Loop    *int  `json:"loop"`
	Release *int  `json:"release"`
}

type instrumentJSON struct {
	Name      string                  `json:"name"`
	Expansion string                  `json:"expansion"`
	Volume    *int                    `json:"volume"`
	Envelopes map[string]envelopeJSON `json:"envelopes"`
	N163Wave  []int                   `json:"n163Wave"`
	WaveFile  string                  `json:"n163WaveFile"` // wav, mp3 or ogg, relative to the project
	WaveLen   int                     `json:"n163WaveLength"`
}

type projectJSON struct {
	Name         string           `json:"name"`
	PAL          bool             `json:"pal"`
	Expansions   []string         `json:"expansions"`
	N163Channels int              `json:"n163Channels"`
	Instruments  []instrumentJSON `json:"instruments"`
}

func LoadProject(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	proj, err := parseProject(data, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return proj, nil
}

// ParseProject decodes a project; wave files resolve against the working
// directory.
func ParseProject(data []byte) (*Project, error) {
	return parseProject(data, "")
}

func parseProject(data []byte, baseDir string) (*Project, error) {
	var raw projectJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadProject, err)
	}

	proj := &Project{Name: raw.Name, PAL: raw.PAL}
	exps := make([]ExpansionType, 0, len(raw.Expansions))
	for _, name := range raw.Expansions {
		exp, err := ParseExpansionType(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadProject, err)
		}
		exps = append(exps, exp)
	}
	proj.Expansion = NewExpansionConfig(raw.N163Channels, exps...)
	if err := proj.Expansion.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadProject, err)
	}

	if len(raw.Instruments) == 0 {
		return nil, fmt.Errorf("%w: no instruments", ErrBadProject)
	}
	for idx, ri := range raw.Instruments {
		inst, err := ri.toInstrument(proj.Expansion, baseDir)
		if err != nil {
			return nil, fmt.Errorf("%w: instrument %d: %v", ErrBadProject, idx, err)
		}
		proj.Instruments = append(proj.Instruments, inst)
	}
	return proj, nil
}

func (ri instrumentJSON) toInstrument(cfg ExpansionConfig, baseDir string) (*Instrument, error) {
	if ri.Name == "" {
		return nil, fmt.Errorf("missing name")
	}
	exp, err := ParseExpansionType(ri.Expansion)
	if err != nil {
		return nil, err
	}
	if !cfg.Has(exp) {
		return nil, fmt.Errorf("%s needs expansion %s, not enabled in project", ri.Name, exp)
	}

	inst := NewInstrument(ri.Name, exp)
	if ri.Volume != nil {
		if *ri.Volume < 0 || *ri.Volume > MAX_VOLUME {
			return nil, fmt.Errorf("%s: volume %d outside 0..%d", ri.Name, *ri.Volume, MAX_VOLUME)
		}
		inst.Volume = *ri.Volume
	}

	for name, re := range ri.Envelopes {
		kind, ok := ParseEnvelopeType(name)
		if !ok {
			return nil, fmt.Errorf("%s: unknown envelope %q", ri.Name, name)
		}
		env := NewEnvelope(re.Values...)
		if re.Loop != nil {
			env.Loop = *re.Loop
		}
		if re.Release != nil {
			env.Release = *re.Release
		}
		if err := env.validate(kind); err != nil {
			return nil, fmt.Errorf("%s: %v", ri.Name, err)
		}
		inst.Envelopes[kind] = env
	}

	if ri.WaveFile != "" {
		if exp != EXPANSION_N163 {
			return nil, fmt.Errorf("%s: n163WaveFile on a %s instrument", ri.Name, exp)
		}
		length := ri.WaveLen
		if length == 0 {
			length = DEFAULT_N163_LEN
		}
		path := ri.WaveFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		wave, err := ImportN163Wave(path, length)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ri.Name, err)
		}
		inst.N163Wave = wave
	} else if len(ri.N163Wave) > 0 {
		if exp != EXPANSION_N163 {
			return nil, fmt.Errorf("%s: n163Wave on a %s instrument", ri.Name, exp)
		}
		if len(ri.N163Wave) > N163_WAVE_MAX || len(ri.N163Wave)%4 != 0 {
			return nil, fmt.Errorf("%s: n163Wave length %d must be a multiple of 4 up to %d", ri.Name, len(ri.N163Wave), N163_WAVE_MAX)
		}
		inst.N163Wave = make([]uint8, len(ri.N163Wave))
		for i, s := range ri.N163Wave {
			if s < 0 || s > 15 {
				return nil, fmt.Errorf("%s: n163Wave sample %d outside 0..15", ri.Name, s)
			}
			inst.N163Wave[i] = uint8(s)
		}
	}
	return inst, nil
}

// DemoProject is used when no project file is given.
func DemoProject(exp ExpansionConfig, pal bool) *Project {
	lead := NewInstrument("Lead", EXPANSION_NONE)
	lead.Envelopes[ENVELOPE_VOLUME] = &Envelope{Values: []int{15, 13, 11, 10, 10, 8, 6, 4, 2, 0}, Loop: -1, Release: 4}
	lead.Envelopes[ENVELOPE_DUTY] = NewEnvelope(2)

	arp := NewInstrument("Arp", EXPANSION_NONE)
	arp.Envelopes[ENVELOPE_ARPEGGIO] = &Envelope{Values: []int{0, 0, 4, 4, 7, 7}, Loop: 0, Release: -1}
	arp.Envelopes[ENVELOPE_DUTY] = NewEnvelope(1)

	vibrato := NewInstrument("Vibrato", EXPANSION_NONE)
	vibrato.Envelopes[ENVELOPE_PITCH] = &Envelope{Values: []int{0, 0, 0, 0, 1, 2, 1, 0, -1, -2, -1}, Loop: 4, Release: -1}

	proj := &Project{Name: "Demo", PAL: pal, Expansion: exp, Instruments: []*Instrument{lead, arp, vibrato}}
	if exp.Has(EXPANSION_VRC6) {
		saw := NewInstrument("VRC6 Saw", EXPANSION_VRC6)
		saw.Envelopes[ENVELOPE_VOLUME] = &Envelope{Values: []int{15, 14, 12, 10, 8, 6, 4, 2, 0}, Loop: -1, Release: 3}
		proj.Instruments = append(proj.Instruments, saw)
	}
	if exp.Has(EXPANSION_MMC5) {
		proj.Instruments = append(proj.Instruments, NewInstrument("MMC5 Pulse", EXPANSION_MMC5))
	}
	if exp.Has(EXPANSION_N163) {
		proj.Instruments = append(proj.Instruments, NewInstrument("N163 Wave", EXPANSION_N163))
	}
	return proj
}
