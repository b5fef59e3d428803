package sample

import (
	"fmt"
	"io"
	"time"

	"github.com/jsphweid/simon/constants"
	"github.com/jsphweid/simon/midi"
	"github.com/jsphweid/simon/model"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

const resolution = smf.MetricTicks(960)

// at 120bpm a quarter note lasts 500ms
const bpm = 120
const quarter = 500 * time.Millisecond

func ticks(d time.Duration) uint32 {
	return uint32(int64(d) * int64(resolution) / int64(quarter))
}

// Create lays out notes one after another, each lasting noteDuration, the way
// a round plays them back.
func Create(notes model.Notes, noteDuration time.Duration) (*smf.SMF, error) {
	var res smf.SMF
	res.TimeFormat = resolution

	var track smf.Track
	track.Add(0, smf.MetaTempo(bpm))
	length := ticks(noteDuration)
	for _, key := range notes {
		note, ok := midi.NoteFor(key)
		if !ok {
			return nil, fmt.Errorf("no midi note for key %v", key)
		}
		track.Add(0, gomidi.NoteOn(constants.MidiChannel, note, constants.MidiVelocity))
		track.Add(length, gomidi.NoteOff(constants.MidiChannel, note))
	}
	track.Close(0)

	res.Tracks = append(res.Tracks, track)
	return &res, nil
}

func Write(w io.Writer, notes model.Notes, noteDuration time.Duration) error {
	s, err := Create(notes, noteDuration)
	if err != nil {
		return err
	}
	_, err = s.WriteTo(w)
	return err
}
