package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"smfplay/config"
	"smfplay/debug"
	"smfplay/midi"
	"smfplay/sequencer"
	"smfplay/smf"
)

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		cfg = config.DefaultConfig()
	}
	if cfg.Debug.Enabled {
		if err := debug.Enable(cfg.Debug.Path); err != nil {
			fmt.Fprintf(os.Stderr, "Error enabling debug log: %v\n", err)
		}
		defer debug.Disable()
	}

	if err := run(os.Args[1], os.Args[2:], cfg, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "smfdump - inspect and play Standard MIDI Files")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  info   <file>          - Header, tracks and channels")
	fmt.Fprintln(w, "  events [--json] <file> - Note events in playback order")
	fmt.Fprintln(w, "  notes  [--json] <file> - Paired notes with durations")
	fmt.Fprintln(w, "  ports                  - List MIDI output ports")
	fmt.Fprintln(w, "  play   [--port p] [--tempo bpm] [--loop] <file>")
}

var errUsage = errors.New("usage")

// exitCode maps parse failures to distinct exit statuses
func exitCode(err error) int {
	switch smf.KindOf(err) {
	case smf.TruncatedInput:
		return 3
	case smf.MalformedVarint:
		return 4
	case smf.InvalidFormat:
		return 5
	case smf.Unsupported:
		return 6
	case smf.ProtocolViolation:
		return 7
	}
	if errors.Is(err, errUsage) {
		return 2
	}
	return 1
}

func run(cmd string, args []string, cfg *config.Config, w io.Writer) error {
	switch cmd {
	case "info":
		return infoCmd(args, cfg, w)
	case "events":
		return eventsCmd(args, w)
	case "notes":
		return notesCmd(args, w)
	case "ports":
		return portsCmd(w)
	case "play":
		return playCmd(args, cfg, w)
	case "help", "-h", "--help":
		usage(w)
		return nil
	}
	usage(w)
	return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
}

// parseArgs parses flags and returns the single file argument
func parseArgs(fs *flag.FlagSet, args []string) (string, error) {
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		return "", fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() != 1 {
		return "", fmt.Errorf("%w: %s needs exactly one file", errUsage, fs.Name())
	}
	return fs.Arg(0), nil
}

func infoCmd(args []string, cfg *config.Config, w io.Writer) error {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	enc := fs.String("encoding", cfg.UI.TextEncoding, "text encoding of track names")
	path, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	doc, err := smf.ParseFile(path)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "MIDI File: %s\n", path)
	fmt.Fprintf(w, "Format: %d\n", doc.Format())
	fmt.Fprintf(w, "Ticks per quarter note: %d\n", doc.TicksPerQuarterNote())
	fmt.Fprintf(w, "Number of tracks: %d\n", doc.TrackCount())
	fmt.Fprintf(w, "Note events: %d\n", doc.Len())
	fmt.Fprintf(w, "Last tick: %d\n", doc.LastTick())

	var channels []string
	for _, ch := range doc.Channels() {
		channels = append(channels, fmt.Sprint(ch+1))
	}
	fmt.Fprintf(w, "Channels: %s\n", strings.Join(channels, ","))
	fmt.Fprintln(w)

	for i := 0; i < doc.TrackCount(); i++ {
		name, err := smf.DecodeText(doc.TrackName(i), *enc)
		if err != nil {
			return err
		}
		if name != "" {
			fmt.Fprintf(w, "Track %d: %s\n", i, name)
		} else {
			fmt.Fprintf(w, "Track %d:\n", i)
		}
		fmt.Fprintf(w, "  Note events: %d\n", len(doc.TrackEvents(i)))
	}
	return nil
}

type jsonEvent struct {
	Track         int    `json:"track"`
	Channel       uint8  `json:"channel"`
	NoteOn        bool   `json:"noteOn"`
	DeltaTicks    uint32 `json:"deltaTicks"`
	AbsoluteTicks uint32 `json:"absoluteTicks"`
	Key           uint8  `json:"key"`
	Velocity      uint8  `json:"velocity"`
}

type jsonDocument struct {
	Format              int         `json:"format"`
	TrackCount          int         `json:"trackCount"`
	TicksPerQuarterNote int         `json:"ticksPerQuarterNote"`
	Events              []jsonEvent `json:"events"`
}

func eventsCmd(args []string, w io.Writer) error {
	fs := flag.NewFlagSet("events", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "write JSON")
	path, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	doc, err := smf.ParseFile(path)
	if err != nil {
		return err
	}

	if !*asJSON {
		for _, e := range doc.Events() {
			fmt.Fprintln(w, e)
		}
		return nil
	}

	out := jsonDocument{
		Format:              doc.Format(),
		TrackCount:          doc.TrackCount(),
		TicksPerQuarterNote: doc.TicksPerQuarterNote(),
		Events:              make([]jsonEvent, doc.Len()),
	}
	for i, e := range doc.Events() {
		out.Events[i] = jsonEvent(e)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func notesCmd(args []string, w io.Writer) error {
	fs := flag.NewFlagSet("notes", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "write JSON")
	path, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	doc, err := smf.ParseFile(path)
	if err != nil {
		return err
	}
	notes := sequencer.PairNotes(doc)

	if *asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(notes)
	}
	for _, n := range notes {
		fmt.Fprintf(w, "%8d +%-6d trk=%-2d ch=%-2d %-4s vel=%d\n",
			n.Start, n.Duration, n.Track, n.Channel, sequencer.NoteName(n.Key), n.Velocity)
	}
	return nil
}

func portsCmd(w io.Writer) error {
	fmt.Fprintln(w, "=== MIDI Output Ports ===")
	names, err := midi.ListOutPorts()
	if err != nil {
		return err
	}
	for i, name := range names {
		fmt.Fprintf(w, "  %d: %s\n", i, name)
	}
	return nil
}

func playCmd(args []string, cfg *config.Config, w io.Writer) error {
	fs := flag.NewFlagSet("play", flag.ContinueOnError)
	port := fs.String("port", cfg.Output.PortName, "output port name (substring match)")
	tempo := fs.Int("tempo", cfg.Playback.Tempo, "playback tempo in BPM")
	loop := fs.Bool("loop", cfg.Playback.Loop, "repeat until interrupted")
	path, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	doc, err := smf.ParseFile(path)
	if err != nil {
		return err
	}

	out, err := midi.OpenOutput(*port)
	if err != nil {
		return err
	}
	defer out.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	player := sequencer.NewPlayer(doc, out, *tempo)
	player.SetLoop(*loop)
	_, _, bpm := player.State()
	fmt.Fprintf(w, "Playing %s on %s at %d BPM (Ctrl+C to stop)\n", path, out.Name(), bpm)

	go player.Run(ctx)
	player.Play()
	<-player.Done()
	return nil
}
