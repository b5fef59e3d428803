package midi

import (
	"sync"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/bep/debounce"
	"github.com/jsphweid/simon/constants"
	"github.com/jsphweid/simon/model"
	"gitlab.com/gomidi/midi/v2"
)

type Sender = func(msg midi.Message) error

var notes = map[model.Key]uint8{
	"c": 60,
	"d": 62,
	"e": 64,
	"f": 65,
}

// NoteFor is the MIDI note number a key sounds as.
func NoteFor(key model.Key) (uint8, bool) {
	n, ok := notes[key]
	return n, ok
}

// Audio plays one note on a MIDI output. The note is held for hold after the
// last play, so overlapping plays extend it instead of cutting it off.
type Audio struct {
	send    Sender
	note    uint8
	release func(f func())
	onError func(error)

	mu       sync.Mutex
	sounding bool
}

// NewAudio errors on send are passed to onError, which may be nil.
func NewAudio(send Sender, note uint8, hold time.Duration, onError func(error)) *Audio {
	if onError == nil {
		onError = func(error) {}
	}
	return &Audio{
		send:    send,
		note:    note,
		release: debounce.New(hold),
		onError: onError,
	}
}

// SeekToStart silences the note if it is still sounding so the next play
// starts a fresh attack.
func (a *Audio) SeekToStart() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.sounding {
		return
	}
	a.sounding = false
	a.sendOrReport(midi.NoteOff(constants.MidiChannel, a.note))
}

func (a *Audio) PlayFromCurrentPosition() {
	a.mu.Lock()
	a.sounding = true
	a.sendOrReport(midi.NoteOn(constants.MidiChannel, a.note, constants.MidiVelocity))
	a.mu.Unlock()

	a.release(a.stop)
}

func (a *Audio) stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.sounding {
		return
	}
	a.sounding = false
	a.sendOrReport(midi.NoteOff(constants.MidiChannel, a.note))
}

func (a *Audio) sendOrReport(msg midi.Message) {
	if err := a.send(msg); err != nil {
		a.onError(fault.Wrap(err, fmsg.With("could not send midi message")))
	}
}

// OpenOut opens output port number port. A driver must be registered by
// importing one, e.g. rtmididrv.
func OpenOut(port int) (Sender, error) {
	out, err := midi.OutPort(port)
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With("could not find midi output port"))
	}
	send, err := midi.SendTo(out)
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With("could not open midi output port"))
	}

	// every box shares the port
	var mu sync.Mutex
	return func(msg midi.Message) error {
		mu.Lock()
		defer mu.Unlock()
		return send(msg)
	}, nil
}

func OutPortNames() []string {
	var res []string
	for _, out := range midi.GetOutPorts() {
		res = append(res, out.String())
	}
	return res
}

func Close() {
	midi.CloseDriver()
}
