//go:build windows

// terminal_host_windows.go - Raw-mode stdin reader feeding the terminal keyboard

package main

import (
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/term"
)

// TerminalHost reads raw stdin and hands each byte to a key handler. A
// handler returning false ends the session; Quit() is closed then.
// Only instantiated in main.go for interactive use, never in tests.
type TerminalHost struct {
	handle       func(b byte) bool
	stopCh       chan struct{}
	done         chan struct{}
	quit         chan struct{}
	stopped      sync.Once
	quitOnce     sync.Once
	fd           int
	oldTermState *term.State
}

func NewTerminalHost(handle func(b byte) bool) *TerminalHost {
	return &TerminalHost{
		handle: handle,
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
		quit:   make(chan struct{}),
	}
}

func (h *TerminalHost) Quit() <-chan struct{} {
	return h.quit
}

func (h *TerminalHost) route(b byte) {
	if b == '\r' {
		b = '\n'
	}
	if !h.handle(b) {
		h.quitOnce.Do(func() { close(h.quit) })
	}
}

// Start sets stdin to raw mode and begins reading in a goroutine.
// Call Stop() to restore stdin.
func (h *TerminalHost) Start() error {
	h.fd = int(os.Stdin.Fd())

	oldState, err := term.MakeRaw(h.fd)
	if err != nil {
		close(h.done)
		return fmt.Errorf("terminal_host: failed to set raw mode: %w", err)
	}
	h.oldTermState = oldState

	go func() {
		defer close(h.done)
		buf := make([]byte, 1)

		for {
			select {
			case <-h.stopCh:
				return
			default:
			}

			n, err := os.Stdin.Read(buf)
			if n > 0 {
				h.route(buf[0])
			}
			if err != nil {
				return
			}
			if n == 0 {
				time.Sleep(5 * time.Millisecond)
			}
		}
	}()
	return nil
}

// Stop terminates the stdin reading goroutine and restores terminal state.
// A read blocked in the console is abandoned rather than waited for.
func (h *TerminalHost) Stop() {
	h.stopped.Do(func() {
		close(h.stopCh)
	})
	select {
	case <-h.done:
	case <-time.After(50 * time.Millisecond):
	}
	if h.oldTermState != nil {
		_ = term.Restore(h.fd, h.oldTermState)
		h.oldTermState = nil
	}
}
