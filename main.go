// main.go - Instrument preview entry point

/*
 ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████
▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀
▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███
░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄
░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒
░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░
 ▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░
 ▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░
 ░           ░             ░      ░            ░      ░ ░           ░       ░  ░         ░       ░  ░           ░    ░  ░

(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/InstrumentPreview
License: GPLv3 or later
*/

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"
)

func boilerPlate() {
	fmt.Println("\n\033[38;2;255;20;147m ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████\033[0m\n\033[38;2;255;50;147m▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀\033[0m\n\033[38;2;255;80;147m▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███\033[0m\n\033[38;2;255;110;147m░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄\033[0m\n\033[38;2;255;140;147m░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒\033[0m\n\033[38;2;255;170;147m░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░\033[0m\n\033[38;2;255;200;147m ▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░\033[0m\n\033[38;2;255;230;147m ▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░\033[0m\n\033[38;2;255;255;147m ░           ░             ░      ░            ░      ░ ░           ░       ░  ░         ░       ░  ░           ░    ░  ░\033[0m")
	fmt.Println("\nInstrument Preview: live NES 2A03/VRC6/MMC5/N163 instrument audition.")
	fmt.Println("(c) 2024 - 2026 Zayn Otley")
	fmt.Println("https://github.com/IntuitionAmiga/InstrumentPreview")
	fmt.Println("Buy me a coffee: https://ko-fi.com/intuition/tip")
	fmt.Println("License: GPLv3 or later")
}

func main() {
	boilerPlate()

	settings := DefaultPlayerSettings()
	var (
		projectPath  string
		instName     string
		channelName  string
		pal          bool
		expansions   string
		n163Channels int
		wavPath      string
		useALSA      bool
		useNull      bool
		midiPort     string
		useMIDI      bool
		listMIDI     bool
		scriptPath   string
		showFeatures bool
	)

	flagSet := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.StringVar(&projectPath, "project", "", "Project JSON file with instruments")
	flagSet.StringVar(&instName, "instrument", "", "Instrument to start with (default: first)")
	flagSet.StringVar(&channelName, "channel", "0", "Channel index or name, e.g. 2 or triangle")
	flagSet.BoolVar(&pal, "pal", false, "PAL timing")
	flagSet.StringVar(&expansions, "exp", "", "Expansions without a project, e.g. vrc6,n163")
	flagSet.IntVar(&n163Channels, "n163-channels", 1, "N163 wave channels (1-8)")
	flagSet.IntVar(&settings.SampleRate, "rate", DEFAULT_SAMPLE_RATE, "Output sample rate")
	flagSet.IntVar(&settings.NumBufferedFrames, "buffers", DEFAULT_NUM_BUFFERED_FRAMES, "Frames buffered ahead of the device")
	flagSet.DurationVar(&settings.InstrumentStopTime, "stop-time", DEFAULT_INSTRUMENT_STOP_TIME, "Time from release until the channel is cut")
	flagSet.StringVar(&wavPath, "wav", "", "Record to a WAV file instead of the sound card")
	flagSet.BoolVar(&useALSA, "alsa", false, "Use ALSA output (needs -tags alsa)")
	flagSet.BoolVar(&useNull, "null", false, "Discard audio output")
	flagSet.BoolVar(&useMIDI, "midi", false, "Play from a MIDI keyboard")
	flagSet.StringVar(&midiPort, "midi-port", "", "MIDI input port name (default: first)")
	flagSet.BoolVar(&listMIDI, "midi-list", false, "List MIDI input ports and exit")
	flagSet.StringVar(&scriptPath, "script", "", "Run a Lua audition script and exit")
	flagSet.BoolVar(&showFeatures, "features", false, "Print compiled features and exit")

	flagSet.Usage = func() {
		flagSet.SetOutput(os.Stdout)
		fmt.Println("Usage: ./instrument_preview [-project file.json] [-instrument name] [-channel n] [-midi] [-wav out.wav] [-script audition.lua]")
		flagSet.PrintDefaults()
	}

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	backend := AUDIO_BACKEND_OTO
	switch {
	case wavPath != "":
		backend = AUDIO_BACKEND_WAV
	case useALSA:
		backend = AUDIO_BACKEND_ALSA
	case useNull:
		backend = AUDIO_BACKEND_NULL
	}

	if showFeatures {
		printFeatures(os.Stdout, backend, settings)
		return
	}
	if listMIDI {
		ports := ListMIDIInPorts()
		if len(ports) == 0 {
			fmt.Println("No MIDI input ports")
		}
		for i, name := range ports {
			fmt.Printf("  %d: %s\n", i, name)
		}
		return
	}

	project, err := loadProjectFlag(projectPath, expansions, n163Channels, pal)
	if err != nil {
		fmt.Printf("Error loading project: %v\n", err)
		os.Exit(1)
	}
	channels := project.Expansion.Channels()
	channel, err := parseChannelFlag(channelName, channels)
	if err != nil {
		fmt.Printf("Invalid -channel: %v\n", err)
		os.Exit(1)
	}
	instruments := project.Instruments
	if instName != "" {
		inst, err := project.Instrument(instName)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		instruments = []*Instrument{inst}
		for _, other := range project.Instruments {
			if other != inst {
				instruments = append(instruments, other)
			}
		}
	}

	settings = settings.normalize()
	stream, err := NewAudioStream(backend, settings.SampleRate, wavPath)
	if err != nil {
		fmt.Printf("Failed to initialize sound: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := stream.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "audio: %v\n", err)
		}
	}()

	player := NewInstrumentPlayer(NewAPU(), stream, NewAPUChannelState, settings)
	if err := player.Start(project.Expansion, project.PAL); err != nil {
		fmt.Printf("Failed to start player: %v\n", err)
		return
	}
	defer player.Stop(true)
	runtimeStatus.setPlayer(player, channels)
	runtimeStatus.setStream(stream)

	if scriptPath != "" {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()
		script := NewAuditionScript(player, project, instruments[0])
		fmt.Printf("Running audition script: %s\n", scriptPath)
		if err := script.RunFile(ctx, scriptPath); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
		return
	}

	if useMIDI {
		kb := NewMIDIKeyboard(player, channel, instruments)
		stop, err := OpenMIDIInput(midiPort, kb)
		if err != nil {
			fmt.Printf("MIDI: %v\n", err)
		} else {
			defer CloseMIDI()
			defer stop()
		}
	}

	keyboard := NewTerminalKeyboard(player, channel, instruments)
	runtimeStatus.setKeyboard(keyboard)
	// A key pressed after the audio goroutine died brings it back up.
	restart := make(chan struct{}, 1)
	host := NewTerminalHost(func(b byte) bool {
		if !player.IsRunning() {
			select {
			case restart <- struct{}{}:
			default:
			}
		}
		return keyboard.HandleKey(b)
	})
	if err := host.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return
	}
	defer host.Stop()

	fmt.Print("Keys: z-m / q-u play, space release, . stop, -/+ octave, [ ] instrument, < > channel, Esc quit\r\n")
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-host.Quit():
			fmt.Print("\r\n")
			return
		case <-restart:
			restarted, err := restartFaulted(player, project.Expansion, project.PAL)
			if err != nil {
				fmt.Fprintf(os.Stderr, "\r\ninstrument_player: restart failed: %v\r\n", err)
			} else if restarted {
				fmt.Print("\r\nAudio restarted\r\n")
			}
		case <-ticker.C:
			fmt.Printf("\r%-100s", runtimeStatus.snapshot().statusLine())
		}
	}
}

// restartFaulted starts the player again if its audio goroutine has died.
// It must run on the goroutine that owns Start/Stop.
func restartFaulted(player *InstrumentPlayer, exp ExpansionConfig, pal bool) (bool, error) {
	if player.IsRunning() {
		return false, nil
	}
	if err := player.Start(exp, pal); err != nil {
		return false, err
	}
	return true, nil
}

func loadProjectFlag(path, expansions string, n163Channels int, pal bool) (*Project, error) {
	if path != "" {
		return LoadProject(path)
	}
	var exps []ExpansionType
	for _, name := range strings.Split(expansions, ",") {
		if strings.TrimSpace(name) == "" {
			continue
		}
		exp, err := ParseExpansionType(name)
		if err != nil {
			return nil, err
		}
		exps = append(exps, exp)
	}
	cfg := NewExpansionConfig(n163Channels, exps...)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return DemoProject(cfg, pal), nil
}

// parseChannelFlag accepts a channel index or a channel name ("triangle",
// "vrc6 saw", "n163 wave 2").
func parseChannelFlag(value string, channels []ChannelType) (int, error) {
	if idx, err := strconv.Atoi(value); err == nil {
		if idx < 0 || idx >= len(channels) {
			return 0, fmt.Errorf("channel %d out of range 0..%d", idx, len(channels)-1)
		}
		return idx, nil
	}
	want := strings.ReplaceAll(strings.ToLower(value), " ", "")
	for i, ch := range channels {
		if strings.ReplaceAll(strings.ToLower(ch.String()), " ", "") == want {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown channel %q", value)
}
