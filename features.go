package main

import (
	"fmt"
	"io"
	"runtime"
	"sort"
)

// Version is overridden at link time with -ldflags "-X main.Version=...".
var Version = "dev"

// compiledFeatures tracks build-time feature flags via init() registration.
var compiledFeatures []string

// printFeatures lists what this binary was built with, followed by the
// output and timing the current flags would select.
func printFeatures(w io.Writer, backend int, settings PlayerSettings) {
	fmt.Fprintf(w, "Instrument Preview %s\n", Version)
	fmt.Fprintf(w, "  Go version: %s\n", runtime.Version())
	fmt.Fprintf(w, "  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Compiled features:")

	sort.Strings(compiledFeatures)
	for _, f := range compiledFeatures {
		fmt.Fprintf(w, "  %s\n", f)
	}
	if len(compiledFeatures) == 0 {
		fmt.Fprintln(w, "  (none)")
	}

	settings = settings.normalize()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Preview output:")
	fmt.Fprintf(w, "  backend:     %s\n", audioBackendName(backend))
	fmt.Fprintf(w, "  sample rate: %d Hz\n", settings.SampleRate)
	fmt.Fprintf(w, "  buffered:    %d frames (%.1f ms NTSC)\n",
		settings.NumBufferedFrames, float64(settings.NumBufferedFrames)*1000/FRAME_RATE_NTSC)
	fmt.Fprintf(w, "  stop time:   %v\n", settings.InstrumentStopTime)
}
