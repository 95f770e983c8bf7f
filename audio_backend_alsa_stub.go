//go:build !alsa || headless

package main

import "fmt"

func init() {
	compiledFeatures = append(compiledFeatures, "alsa:unavailable")
}

type ALSAPlayer struct {
	*NullPlayer
}

func NewALSAPlayer(sampleRate int) (*ALSAPlayer, error) {
	return nil, fmt.Errorf("ALSA output requires building with -tags alsa and libasound installed")
}
