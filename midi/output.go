package midi

import (
	"errors"
	"fmt"
	"strings"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver

	"smfplay/debug"
)

// Port scans can hang on CoreMIDI; give up after this long
const scanTimeout = 3 * time.Second

var ErrScanTimeout = errors.New("midi: port scan timed out")

// Sender delivers one message to an output
type Sender func(gomidi.Message) error

// ListOutPorts returns the names of the available output ports
func ListOutPorts() ([]string, error) {
	outs, err := scanOutPorts()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(outs))
	for i, p := range outs {
		names[i] = p.String()
	}
	return names, nil
}

func scanOutPorts() ([]drivers.Out, error) {
	ch := make(chan []drivers.Out, 1)
	go func() {
		ch <- gomidi.GetOutPorts()
	}()

	select {
	case outs := <-ch:
		return outs, nil
	case <-time.After(scanTimeout):
		// User needs to run: sudo killall coreaudiod midiserver
		return nil, ErrScanTimeout
	}
}

// Output is an open MIDI output port
type Output struct {
	name   string
	send   Sender
	driver bool // opened through the driver, so Close releases it
}

// OpenOutput opens the first output port whose name contains name
// (case-insensitive). An empty name selects the first available port.
func OpenOutput(name string) (*Output, error) {
	outs, err := scanOutPorts()
	if err != nil {
		return nil, err
	}
	port := matchPort(outs, name)
	if port == nil {
		return nil, fmt.Errorf("midi: no output port matching %q", name)
	}

	send, err := gomidi.SendTo(port)
	if err != nil {
		return nil, fmt.Errorf("midi: open %s: %w", port.String(), err)
	}
	debug.Log("midi", "opened output %q", port.String())
	return &Output{name: port.String(), send: send, driver: true}, nil
}

func matchPort(outs []drivers.Out, name string) drivers.Out {
	want := strings.ToLower(name)
	for i, p := range outs {
		if strings.Contains(strings.ToLower(p.String()), want) {
			return outs[i]
		}
	}
	return nil
}

// NewOutput wraps an arbitrary sender, e.g. for tests
func NewOutput(name string, send Sender) *Output {
	return &Output{name: name, send: send}
}

// Name returns the port name
func (o *Output) Name() string {
	return o.name
}

// Send translates a playback event to a wire message and sends it
func (o *Output) Send(evt Event) error {
	ch := evt.Channel & 0x0F
	var msg gomidi.Message
	switch evt.Type {
	case NoteOn:
		msg = gomidi.NoteOn(ch, evt.Note, evt.Velocity)
	case NoteOff:
		msg = gomidi.NoteOffVelocity(ch, evt.Note, evt.Velocity)
	case CC:
		msg = gomidi.ControlChange(ch, evt.Note, evt.Velocity)
	default:
		return fmt.Errorf("midi: unknown event type 0x%02X", evt.Type)
	}
	return o.send(msg)
}

// Silence sends all-sound-off and all-notes-off on every channel
func (o *Output) Silence() error {
	var errs []error
	for ch := uint8(0); ch < 16; ch++ {
		if err := o.send(gomidi.ControlChange(ch, CCAllSoundOff, 0)); err != nil {
			errs = append(errs, err)
		}
		if err := o.send(gomidi.ControlChange(ch, CCAllNotesOff, 0)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close releases the driver
func (o *Output) Close() error {
	if o.driver {
		gomidi.CloseDriver()
	}
	return nil
}
