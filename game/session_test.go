package game

import (
	"io"
	"log/slog"
	"math/rand"
	"testing"
	"time"

	"github.com/jsphweid/simon/clock"
	"github.com/jsphweid/simon/model"
	"github.com/jsphweid/simon/notebox"
	"github.com/jsphweid/simon/resource"
	"github.com/stretchr/testify/assert"
	"golang.org/x/exp/slices"
)

type harness struct {
	session    *Session
	clock      *clock.Manual
	indicators map[model.Key]*resource.Indicator
	audio      map[model.Key]*resource.Silent
	boxes      []*notebox.NoteBox
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newHarness(t *testing.T, cfg Config) harness {
	return newHarnessWithID(t, "test", cfg)
}

func newHarnessWithID(t *testing.T, id string, cfg Config) harness {
	h := harness{
		clock:      clock.NewManual(),
		indicators: make(map[model.Key]*resource.Indicator),
		audio:      make(map[model.Key]*resource.Silent),
	}
	r := resource.NewRegistry()
	for _, key := range model.Keys {
		h.indicators[key] = &resource.Indicator{}
		h.audio[key] = &resource.Silent{}
		r.AddElement(resource.ElementID(key), h.indicators[key])
		r.AddAudio(resource.AudioID(key), h.audio[key])
	}
	boxes, err := notebox.NewAll(model.Keys, r, notebox.WithScheduler(h.clock), notebox.WithDuration(time.Second))
	if err != nil {
		t.Fatal(err)
	}
	h.boxes = boxes

	cfg.Scheduler = h.clock
	cfg.NoteDuration = time.Second
	cfg.Rand = rand.New(rand.NewSource(1))
	cfg.Logger = quietLogger()
	s, err := NewSession(id, boxes, cfg)
	if err != nil {
		t.Fatal(err)
	}
	h.session = s
	return h
}

func (h harness) played() model.Notes {
	h.session.mu.Lock()
	defer h.session.mu.Unlock()
	return slices.Clone(h.session.played)
}

func (h harness) allEnabled() bool {
	for _, b := range h.boxes {
		if !b.Enabled() {
			return false
		}
	}
	return true
}

func (h harness) anyEnabled() bool {
	for _, b := range h.boxes {
		if b.Enabled() {
			return true
		}
	}
	return false
}

func wrongKey(k model.Key) model.Key {
	for _, other := range model.Keys {
		if other != k {
			return other
		}
	}
	panic("alphabet has one key")
}

func TestNewSessionValidatesBoxes(t *testing.T) {
	assert := assert.New(t)
	_, err := NewSession("x", nil, Config{})
	assert.ErrorIs(err, ErrNoBoxes)

	h := newHarness(t, Config{})
	_, err = NewSession("x", []*notebox.NoteBox{h.boxes[0], h.boxes[0]}, Config{})
	assert.ErrorIs(err, ErrDuplicateKey)
}

func TestPlaybackThenInput(t *testing.T) {
	h := newHarness(t, Config{StartLevel: 3})
	s := h.session
	assert := assert.New(t)
	assert.Equal(Ready, s.Phase())

	assert.NoError(s.Start())
	assert.Equal(AwaitingPlayback, s.Phase())
	assert.Equal(3, s.Level())
	assert.False(h.anyEnabled())

	played := h.played()
	assert.Len(played, 3)
	for _, k := range played {
		assert.True(model.IsKey(k))
	}

	for i, key := range played {
		h.clock.Advance(0)
		assert.True(h.indicators[key].Active(), "note %v should be lit", i)
		h.clock.Advance(time.Second)
	}
	assert.Equal(AwaitingInput, s.Phase())
	assert.True(h.allEnabled())

	total := 0
	for _, a := range h.audio {
		total += a.Plays()
	}
	assert.Equal(3, total)
}

func TestPressesDuringPlaybackAreIgnored(t *testing.T) {
	h := newHarness(t, Config{StartLevel: 2})
	s := h.session
	assert := assert.New(t)
	assert.NoError(s.Start())

	for _, key := range model.Keys {
		assert.NoError(s.Press(key))
	}
	assert.Empty(s.Snapshot().Pressed)
	assert.Equal(AwaitingPlayback, s.Phase())
}

func TestCorrectRoundAdvances(t *testing.T) {
	h := newHarness(t, Config{StartLevel: 2})
	s := h.session
	assert := assert.New(t)

	var events []Event
	s.Subscribe(func(e Event) { events = append(events, e) })

	assert.NoError(s.Start())
	h.clock.Advance(2 * time.Second)
	assert.Equal(AwaitingInput, s.Phase())

	played := h.played()
	assert.NoError(s.Press(played[0]))
	assert.Equal(model.Notes{played[0]}, s.Snapshot().Pressed)
	assert.NoError(s.Press(played[1]))

	assert.Equal(RoundComplete, s.Phase())
	assert.Equal(2, s.Score())
	assert.False(h.anyEnabled())

	h.clock.Advance(time.Second)
	assert.Equal(AwaitingPlayback, s.Phase())
	assert.Equal(3, s.Level())
	assert.Empty(s.Snapshot().Pressed)
	assert.Len(h.played(), 3)

	var phases []Phase
	for _, e := range events {
		if e.Type == PhaseChanged {
			phases = append(phases, e.Phase)
		}
	}
	assert.Equal([]Phase{AwaitingPlayback, AwaitingInput, RoundComplete, AwaitingPlayback}, phases)
}

func TestMismatchEndsTheGameOnceComplete(t *testing.T) {
	h := newHarness(t, Config{StartLevel: 3})
	s := h.session
	assert := assert.New(t)

	var over []Event
	s.Subscribe(func(e Event) {
		if e.Phase == GameOver {
			over = append(over, e)
		}
	})

	assert.NoError(s.Start())
	h.clock.Advance(3 * time.Second)
	played := h.played()

	assert.NoError(s.Press(wrongKey(played[0])))
	assert.NoError(s.Press(played[1]))
	assert.Equal(AwaitingInput, s.Phase())

	assert.NoError(s.Press(played[2]))
	assert.Equal(GameOver, s.Phase())
	assert.Equal(0, s.Score())
	assert.False(h.anyEnabled())

	select {
	case <-s.Done():
	default:
		t.Error("Done should be closed")
	}

	snap := s.Snapshot()
	assert.Equal(played, snap.Played)
	assert.Equal(ReasonMismatch, snap.Reason)
	assert.Len(over, 1)
	assert.Equal(ReasonMismatch, over[0].Reason)
}

func TestMismatchOnTheLastPressLeavesNothingLit(t *testing.T) {
	h := newHarness(t, Config{StartLevel: 1})
	s := h.session
	assert := assert.New(t)

	assert.NoError(s.Start())
	h.clock.Advance(time.Second)
	// let the playback light go out
	h.clock.Advance(time.Second)
	assert.Equal(AwaitingInput, s.Phase())
	assert.Equal(0, h.clock.Pending())

	assert.NoError(s.Press(wrongKey(h.played()[0])))
	assert.Equal(GameOver, s.Phase())
	assert.Empty(s.Snapshot().Active)
	assert.Equal(0, h.clock.Pending())
	for key, ind := range h.indicators {
		assert.False(ind.Active(), "box %v", key)
	}
}

func TestEndDuringPlaybackCancelsTimers(t *testing.T) {
	h := newHarness(t, Config{StartLevel: 4})
	s := h.session
	assert := assert.New(t)

	assert.NoError(s.Start())
	h.clock.Advance(time.Second)
	s.End()
	s.End()

	assert.Equal(GameOver, s.Phase())
	assert.Equal(ReasonEnded, s.Snapshot().Reason)
	assert.Equal(0, h.clock.Pending())
	for key, ind := range h.indicators {
		assert.False(ind.Active(), "box %v", key)
	}

	plays := 0
	for _, a := range h.audio {
		plays += a.Plays()
	}
	h.clock.Advance(time.Minute)
	after := 0
	for _, a := range h.audio {
		after += a.Plays()
	}
	assert.Equal(plays, after)
	assert.Empty(s.Snapshot().Active)
}

func TestLifecycleErrors(t *testing.T) {
	h := newHarness(t, Config{})
	s := h.session
	assert := assert.New(t)

	assert.ErrorIs(s.AdvanceLevel(), ErrNotStarted)
	assert.ErrorIs(s.Press("z"), ErrUnknownKey)
	assert.NoError(s.Start())
	assert.ErrorIs(s.Start(), ErrAlreadyStarted)
	s.End()
	assert.ErrorIs(s.AdvanceLevel(), ErrGameOver)
}

func TestAdvanceLevelDropsTheOldRound(t *testing.T) {
	h := newHarness(t, Config{StartLevel: 2})
	s := h.session
	assert := assert.New(t)

	assert.NoError(s.Start())
	assert.NoError(s.AdvanceLevel())
	assert.Equal(3, s.Level())

	// the old round would have opened input at 2s
	h.clock.Advance(2 * time.Second)
	assert.Equal(AwaitingPlayback, s.Phase())
	h.clock.Advance(time.Second)
	assert.Equal(AwaitingInput, s.Phase())

	plays := 0
	for _, a := range h.audio {
		plays += a.Plays()
	}
	assert.Equal(3, plays)
}

func TestUnstartedSessionPlaysFreely(t *testing.T) {
	h := newHarness(t, Config{})
	s := h.session
	assert := assert.New(t)

	assert.NoError(s.Press("c"))
	assert.True(h.indicators["c"].Active())
	assert.Equal(Ready, s.Phase())
	assert.Empty(s.Snapshot().Pressed)
	assert.Equal(model.Notes{"c"}, s.Snapshot().Active)
}

func TestPhaseNames(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("awaiting_input", AwaitingInput.String())
	assert.Equal("game_over", GameOver.String())
	assert.Equal("unknown", Phase(42).String())
}
