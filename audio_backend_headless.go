//go:build headless

package main

func init() {
	compiledFeatures = append(compiledFeatures, "audio:headless")
}

// OtoPlayer stands in for the device output in headless builds: frames are
// consumed at the real-time rate and discarded.
type OtoPlayer struct {
	*NullPlayer
}

func NewOtoPlayer(sampleRate int) (*OtoPlayer, error) {
	return &OtoPlayer{NullPlayer: NewNullPlayer(sampleRate)}, nil
}

func (op *OtoPlayer) Read(p []byte) (n int, err error) {
	clear(p)
	return len(p), nil
}

func (op *OtoPlayer) Underruns() uint64 {
	return 0
}
