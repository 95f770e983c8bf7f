//go:build headless

package main

import "fmt"

func init() {
	compiledFeatures = append(compiledFeatures, "midi:unavailable")
}

func ListMIDIInPorts() []string {
	return nil
}

func OpenMIDIInput(name string, kb *MIDIKeyboard) (func(), error) {
	return nil, fmt.Errorf("MIDI input unavailable in headless mode")
}

func CloseMIDI() {}
