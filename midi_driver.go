//go:build !headless

// midi_driver.go - RtMidi input ports

package main

import (
	"fmt"

	"gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver
)

func init() {
	compiledFeatures = append(compiledFeatures, "midi:rtmidi")
}

func ListMIDIInPorts() []string {
	var names []string
	for _, in := range midi.GetInPorts() {
		names = append(names, in.String())
	}
	return names
}

// OpenMIDIInput connects a keyboard to the named input port, or to the first
// port when name is empty. The returned func stops listening.
func OpenMIDIInput(name string, kb *MIDIKeyboard) (func(), error) {
	ins := midi.GetInPorts()
	if len(ins) == 0 {
		return nil, fmt.Errorf("no MIDI input ports")
	}
	in := ins[0]
	if name != "" {
		var err error
		if in, err = midi.FindInPort(name); err != nil {
			return nil, fmt.Errorf("midi input %q: %w", name, err)
		}
	}

	stop, err := midi.ListenTo(in, kb.HandleMessage)
	if err != nil {
		return nil, fmt.Errorf("open input %s: %w", in.String(), err)
	}
	fmt.Printf("MIDI input: %s\n", in.String())
	return stop, nil
}

func CloseMIDI() {
	midi.CloseDriver()
}
