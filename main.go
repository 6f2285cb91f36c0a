package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"smfplay/config"
	"smfplay/debug"
	"smfplay/midi"
	"smfplay/sequencer"
	"smfplay/smf"
	"smfplay/theme"
	"smfplay/tui"
)

func main() {
	cfg, err := config.Load()
	// A broken config file is left alone rather than overwritten on exit
	saveConfig := err == nil
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		cfg = config.DefaultConfig()
	}

	port := flag.String("port", cfg.Output.PortName, "MIDI output port (substring match)")
	tempo := flag.Int("tempo", cfg.Playback.Tempo, "playback tempo in BPM")
	loop := flag.Bool("loop", cfg.Playback.Loop, "loop playback")
	palette := flag.String("palette", cfg.UI.Palette, "GIMP palette file")
	encoding := flag.String("encoding", cfg.UI.TextEncoding, "text encoding of track names")
	noOutput := flag.Bool("no-output", false, "view only, do not open a MIDI output")
	debugLog := flag.Bool("debug", cfg.Debug.Enabled, "write a debug log")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: smfplay [flags] file.mid\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	path := flag.Arg(0)

	if *debugLog {
		if err := debug.Enable(cfg.Debug.Path); err != nil {
			fmt.Fprintf(os.Stderr, "Error enabling debug log: %v\n", err)
		}
		defer debug.Disable()
	}

	pal, err := theme.LoadOrDefault(*palette)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading palette, using built-in: %v\n", err)
		pal = theme.Plasma()
	}
	th := theme.New(pal)

	doc, err := smf.ParseFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var player *sequencer.Player
	if !*noOutput {
		out, err := midi.OpenOutput(*port)
		if err != nil {
			// Viewer still works without an output
			debug.Log("main", "no output: %v", err)
			fmt.Fprintf(os.Stderr, "No MIDI output: %v\n", err)
		} else {
			defer out.Close()
			player = sequencer.NewPlayer(doc, out, *tempo)
			player.SetHold(true)
			player.SetLoop(*loop)
			go player.Run(ctx)
		}
	}

	m := tui.NewModel(filepath.Base(path), doc, player, th, *encoding)
	p := tea.NewProgram(m, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if player != nil {
		player.Stop()
		_, _, tempo := player.State()
		if saveConfig && cfg.RememberTempo(tempo) {
			if err := cfg.Save(); err != nil {
				fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
			}
		}
	}
}
