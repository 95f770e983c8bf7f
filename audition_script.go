// audition_script.go - Lua scripts that drive the preview player

package main

import (
	"context"
	"fmt"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// AuditionScript runs Lua code against a NotePreviewer. Globals:
//
//	play(ch, note [, instrument])   note is a number or a name like "A4"
//	release(ch)
//	stop([wait])
//	sleep(ms)
//	playing()                       current pitch name or nil
//	active()                        active channel or -1
//	envelope(kind)                  "volume", "arpeggio", "pitch", "duty"
type AuditionScript struct {
	player  NotePreviewer
	project *Project
	inst    *Instrument
}

func NewAuditionScript(player NotePreviewer, project *Project, inst *Instrument) *AuditionScript {
	return &AuditionScript{player: player, project: project, inst: inst}
}

func (a *AuditionScript) RunFile(ctx context.Context, path string) error {
	return a.run(ctx, func(L *lua.LState) error { return L.DoFile(path) })
}

func (a *AuditionScript) RunString(ctx context.Context, src string) error {
	return a.run(ctx, func(L *lua.LState) error { return L.DoString(src) })
}

func (a *AuditionScript) run(ctx context.Context, exec func(L *lua.LState) error) error {
	L := lua.NewState()
	defer L.Close()
	L.SetContext(ctx)
	a.register(L)

	if err := exec(L); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("audition script: %w", err)
	}
	return nil
}

func (a *AuditionScript) register(L *lua.LState) {
	L.SetGlobal("play", L.NewFunction(a.luaPlay))
	L.SetGlobal("release", L.NewFunction(a.luaRelease))
	L.SetGlobal("stop", L.NewFunction(a.luaStop))
	L.SetGlobal("sleep", L.NewFunction(a.luaSleep))
	L.SetGlobal("playing", L.NewFunction(a.luaPlaying))
	L.SetGlobal("active", L.NewFunction(a.luaActive))
	L.SetGlobal("envelope", L.NewFunction(a.luaEnvelope))
}

func (a *AuditionScript) luaPlay(L *lua.LState) int {
	ch := L.CheckInt(1)

	var note int
	switch v := L.CheckAny(2).(type) {
	case lua.LNumber:
		note = int(v)
	case lua.LString:
		n, err := ParseNoteName(string(v))
		if err != nil {
			L.ArgError(2, err.Error())
		}
		note = n
	default:
		L.ArgError(2, "note must be a number or a name")
	}

	inst := a.inst
	if name := L.OptString(3, ""); name != "" {
		if a.project == nil {
			L.ArgError(3, "no project loaded")
		}
		found, err := a.project.Instrument(name)
		if err != nil {
			L.ArgError(3, err.Error())
		}
		inst = found
	}

	a.player.PlayNote(ch, MusicalNote(note, inst))
	return 0
}

func (a *AuditionScript) luaRelease(L *lua.LState) int {
	a.player.ReleaseNote(L.CheckInt(1))
	return 0
}

func (a *AuditionScript) luaStop(L *lua.LState) int {
	a.player.StopAllNotes(L.OptBool(1, false))
	return 0
}

func (a *AuditionScript) luaSleep(L *lua.LState) int {
	ms := L.CheckInt(1)
	timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
	defer timer.Stop()

	ctx := L.Context()
	if ctx == nil {
		<-timer.C
		return 0
	}
	select {
	case <-timer.C:
	case <-ctx.Done():
		L.RaiseError("interrupted: %v", ctx.Err())
	}
	return 0
}

func (a *AuditionScript) luaPlaying(L *lua.LState) int {
	note := a.player.PlayingNote()
	if note == NOTE_INVALID {
		L.Push(lua.LNil)
	} else {
		L.Push(lua.LString(NoteName(note)))
	}
	return 1
}

func (a *AuditionScript) luaActive(L *lua.LState) int {
	L.Push(lua.LNumber(a.player.ActiveChannel()))
	return 1
}

func (a *AuditionScript) luaEnvelope(L *lua.LState) int {
	kind, ok := ParseEnvelopeType(L.CheckString(1))
	if !ok {
		L.ArgError(1, "unknown envelope")
	}
	L.Push(lua.LNumber(a.player.EnvelopeFrame(kind)))
	return 1
}
