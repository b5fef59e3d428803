package sample

import (
	"bytes"
	"testing"
	"time"

	"github.com/jsphweid/simon/model"
	"github.com/stretchr/testify/assert"
	"gitlab.com/gomidi/midi/v2/smf"
)

func TestWriteLaysNotesEndToEnd(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, model.Notes{"c", "e", "f"}, time.Second)

	assert := assert.New(t)
	assert.NoError(err)

	s, err := smf.ReadFrom(bytes.NewReader(buf.Bytes()))
	assert.NoError(err)
	assert.Len(s.Tracks, 1)

	var keys []uint8
	var startsMicros []int64
	var absTicks int64
	for _, evt := range s.Tracks[0] {
		absTicks += int64(evt.Delta)
		var channel, key, velocity uint8
		if evt.Message.GetNoteOn(&channel, &key, &velocity) {
			keys = append(keys, key)
			startsMicros = append(startsMicros, s.TimeAt(absTicks))
		}
	}
	assert.Equal([]uint8{60, 64, 65}, keys)
	assert.Equal([]int64{0, 1000000, 2000000}, startsMicros)
}

func TestUnknownKey(t *testing.T) {
	_, err := Create(model.Notes{"c", "x"}, time.Second)
	assert.Error(t, err)
}
