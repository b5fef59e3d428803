package midi

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jsphweid/simon/model"
	"github.com/stretchr/testify/assert"
	"gitlab.com/gomidi/midi/v2"
)

type sent struct {
	mu   sync.Mutex
	msgs []midi.Message
	err  error
}

func (s *sent) send(msg midi.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
	return s.err
}

// summary is "on"/"off" per message, in order.
func (s *sent) summary() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res []string
	for _, msg := range s.msgs {
		var ch, key, vel uint8
		switch {
		case msg.GetNoteStart(&ch, &key, &vel):
			res = append(res, "on")
		case msg.GetNoteEnd(&ch, &key):
			res = append(res, "off")
		}
	}
	return res
}

func TestNoteFor(t *testing.T) {
	assert := assert.New(t)
	for _, key := range model.Keys {
		_, ok := NoteFor(key)
		assert.True(ok, "key %v", key)
	}
	n, _ := NoteFor("c")
	assert.Equal(uint8(60), n)
	_, ok := NoteFor("x")
	assert.False(ok)
}

func TestPlaySendsNoteOnThenOff(t *testing.T) {
	s := &sent{}
	a := NewAudio(s.send, 60, 20*time.Millisecond, nil)
	a.SeekToStart()
	a.PlayFromCurrentPosition()

	assert := assert.New(t)
	assert.Equal([]string{"on"}, s.summary())
	assert.Eventually(func() bool {
		return len(s.summary()) == 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal([]string{"on", "off"}, s.summary())
}

func TestReplayRestartsTheNote(t *testing.T) {
	s := &sent{}
	a := NewAudio(s.send, 62, 50*time.Millisecond, nil)
	a.SeekToStart()
	a.PlayFromCurrentPosition()
	a.SeekToStart()
	a.PlayFromCurrentPosition()

	assert := assert.New(t)
	assert.Equal([]string{"on", "off", "on"}, s.summary())
	assert.Eventually(func() bool {
		return len(s.summary()) == 4
	}, time.Second, 5*time.Millisecond)

	// only one release for the two plays
	time.Sleep(100 * time.Millisecond)
	assert.Equal([]string{"on", "off", "on", "off"}, s.summary())
}

func TestSendErrorsAreReported(t *testing.T) {
	s := &sent{err: errors.New("port closed")}
	var mu sync.Mutex
	var reported []error
	a := NewAudio(s.send, 64, time.Hour, func(err error) {
		mu.Lock()
		defer mu.Unlock()
		reported = append(reported, err)
	})
	a.PlayFromCurrentPosition()

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, reported, 1)
	assert.Contains(t, reported[0].Error(), "port closed")
}
