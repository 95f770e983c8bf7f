// audition_script_test.go - Tests for Lua audition scripts

package main

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestAuditionScript_PlayReleaseStop(t *testing.T) {
	fp := newFakePreviewer()
	lead := NewInstrument("lead", EXPANSION_NONE)
	bass := NewInstrument("bass", EXPANSION_NONE)
	proj := &Project{Instruments: []*Instrument{lead, bass}}
	script := NewAuditionScript(fp, proj, lead)

	err := script.RunString(context.Background(), `
		play(0, "A4")
		play(2, 37, "bass")
		release(2)
		stop(true)
		stop()
	`)
	if err != nil {
		t.Fatalf("RunString failed: %v", err)
	}

	calls := fp.snapshot()
	if len(calls) != 5 {
		t.Fatalf("expected 5 calls, got %+v", calls)
	}
	if calls[0].op != "play" || calls[0].channel != 0 || calls[0].note.Value != NOTE_A4 || calls[0].note.Instrument != lead {
		t.Fatalf("unexpected first call %+v", calls[0])
	}
	if calls[1].note.Value != 37 || calls[1].note.Instrument != bass {
		t.Fatalf("expected C3 on bass, got %+v", calls[1])
	}
	if calls[2].op != "release" || calls[2].channel != 2 {
		t.Fatalf("expected release of channel 2, got %+v", calls[2])
	}
	if calls[3].op != "stop" || !calls[3].wait || calls[4].wait {
		t.Fatalf("expected waiting then non-waiting stop, got %+v %+v", calls[3], calls[4])
	}
}

func TestAuditionScript_Queries(t *testing.T) {
	fp := newFakePreviewer()
	fp.note = NOTE_A4
	fp.active = 3
	fp.env[ENVELOPE_PITCH] = 7
	script := NewAuditionScript(fp, nil, nil)

	err := script.RunString(context.Background(), `
		assert(playing() == "A4", "playing")
		assert(active() == 3, "active")
		assert(envelope("pitch") == 7, "envelope")
	`)
	if err != nil {
		t.Fatalf("RunString failed: %v", err)
	}

	fp.note = NOTE_INVALID
	if err := script.RunString(context.Background(), `assert(playing() == nil)`); err != nil {
		t.Fatalf("expected nil while nothing plays: %v", err)
	}
}

func TestAuditionScript_Errors(t *testing.T) {
	fp := newFakePreviewer()
	script := NewAuditionScript(fp, nil, nil)

	for _, src := range []string{
		`play(0, "H9")`,
		`play(0, {})`,
		`play(0, "A4", "lead")`,
		`envelope("tremolo")`,
		`this is not lua`,
	} {
		err := script.RunString(context.Background(), src)
		if err == nil {
			t.Fatalf("%q: expected an error", src)
		}
		if !strings.Contains(err.Error(), "audition script") {
			t.Fatalf("%q: expected a wrapped error, got %v", src, err)
		}
	}
	if calls := fp.snapshot(); len(calls) != 0 {
		t.Fatalf("failed calls must not reach the player, got %+v", calls)
	}
}

func TestAuditionScript_UnknownInstrument(t *testing.T) {
	script := NewAuditionScript(newFakePreviewer(), &Project{}, nil)
	err := script.RunString(context.Background(), `play(0, 58, "nope")`)
	if err == nil || !strings.Contains(err.Error(), "unknown instrument") {
		t.Fatalf("expected unknown instrument error, got %v", err)
	}
}

func TestAuditionScript_CancelDuringSleep(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	script := NewAuditionScript(newFakePreviewer(), nil, nil)

	start := time.Now()
	err := script.RunString(ctx, `sleep(10000)`)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context.DeadlineExceeded, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("sleep was not interrupted, took %v", elapsed)
	}
}

func TestAuditionScript_CancelBusyLoop(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	script := NewAuditionScript(newFakePreviewer(), nil, nil)

	if err := script.RunString(ctx, `while true do end`); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context.DeadlineExceeded, got %v", err)
	}
}

func TestAuditionScript_Sleep(t *testing.T) {
	script := NewAuditionScript(newFakePreviewer(), nil, nil)
	start := time.Now()
	if err := script.RunString(context.Background(), `sleep(15)`); err != nil {
		t.Fatalf("RunString failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 15*time.Millisecond {
		t.Fatalf("expected sleep to take at least 15ms, took %v", elapsed)
	}
}
