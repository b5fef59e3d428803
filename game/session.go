// Package game runs Simon rounds over a set of note boxes.
//
// A Session is driven entirely by timers and clicks: starting a round
// schedules the playback of its notes and the moment input opens, and every
// enabled click pushes into the round's recorder. The round is judged inside
// that push as soon as the recorder is complete. Nothing blocks.
package game

import (
	"errors"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/jsphweid/simon/clock"
	"github.com/jsphweid/simon/constants"
	"github.com/jsphweid/simon/model"
	"github.com/jsphweid/simon/notebox"
	"github.com/jsphweid/simon/recorder"
	"github.com/jsphweid/simon/util"
	"golang.org/x/exp/slices"
)

var (
	ErrNoBoxes        = errors.New("session needs at least one note box")
	ErrDuplicateKey   = errors.New("two note boxes share a key")
	ErrAlreadyStarted = errors.New("session already started")
	ErrNotStarted     = errors.New("session not started")
	ErrGameOver       = errors.New("game is over")
	ErrUnknownKey     = errors.New("no note box for key")
)

type Config struct {
	// spacing between notes during playback
	NoteDuration time.Duration
	StartLevel   int
	// wait between a completed round and the next playback
	RoundPause time.Duration
	Scheduler  clock.Scheduler
	Rand       *rand.Rand
	Logger     *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.NoteDuration <= 0 {
		c.NoteDuration = constants.NoteDuration
	}
	if c.StartLevel < 1 {
		c.StartLevel = constants.DefaultStartLevel
	}
	if c.RoundPause <= 0 {
		c.RoundPause = c.NoteDuration
	}
	if c.Scheduler == nil {
		c.Scheduler = clock.Real{}
	}
	if c.Rand == nil {
		c.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

type Session struct {
	id     string
	cfg    Config
	logger *slog.Logger
	keys   model.Notes
	boxes  map[model.Key]*notebox.NoteBox

	mu     sync.Mutex
	phase  Phase
	level  int
	score  int
	reason string
	// generation of the current round; timers from older rounds are ignored
	round    uint64
	played   model.Notes
	recorder *recorder.NotesRecorder
	timers   []clock.Timer

	listeners    map[int]func(Event)
	nextListener int
	done         chan struct{}
}

// NewSession takes over the boxes' click callbacks. The boxes should not be
// shared with another session.
func NewSession(id string, boxes []*notebox.NoteBox, cfg Config) (*Session, error) {
	if len(boxes) == 0 {
		return nil, ErrNoBoxes
	}
	byKey := make(map[model.Key]*notebox.NoteBox, len(boxes))
	for _, b := range boxes {
		if _, ok := byKey[b.Key()]; ok {
			return nil, ErrDuplicateKey
		}
		byKey[b.Key()] = b
	}

	cfg = cfg.withDefaults()
	s := &Session{
		id:        id,
		cfg:       cfg,
		logger:    cfg.Logger.With("session", id),
		keys:      util.GetKeysSorted(byKey),
		boxes:     byKey,
		phase:     Ready,
		recorder:  recorder.New(0),
		listeners: make(map[int]func(Event)),
		done:      make(chan struct{}),
	}
	for _, b := range boxes {
		b.SetOnClick(s.press)
	}
	return s, nil
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) NoteDuration() time.Duration {
	return s.cfg.NoteDuration
}

func (s *Session) Keys() model.Notes {
	return slices.Clone(s.keys)
}

// Start begins the first round at the configured start level.
func (s *Session) Start() error {
	s.mu.Lock()
	if s.phase != Ready {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.level = s.cfg.StartLevel
	evts := s.beginRound()
	s.mu.Unlock()

	s.emit(evts)
	return nil
}

// AdvanceLevel abandons the current round and starts one a level higher.
// Sessions advance on their own after a completed round.
func (s *Session) AdvanceLevel() error {
	s.mu.Lock()
	switch s.phase {
	case Ready:
		s.mu.Unlock()
		return ErrNotStarted
	case GameOver:
		s.mu.Unlock()
		return ErrGameOver
	}
	s.level++
	evts := s.beginRound()
	s.mu.Unlock()

	s.emit(evts)
	return nil
}

// End stops the game. Ending an ended game does nothing.
func (s *Session) End() {
	s.endWith(ReasonEnded)
}

func (s *Session) endWith(reason string) {
	s.mu.Lock()
	if s.phase == GameOver {
		s.mu.Unlock()
		return
	}
	evts := s.finish(reason)
	s.mu.Unlock()

	s.emit(evts)
}

// Press clicks the box for key as a player would.
func (s *Session) Press(key model.Key) error {
	box, ok := s.boxes[key]
	if !ok {
		return ErrUnknownKey
	}
	box.ClickHandler()
	return nil
}

// Done is closed when the game is over.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Subscribe registers fn for every event after this call. Events are
// delivered outside the session lock, on whichever goroutine caused them.
func (s *Session) Subscribe(fn func(Event)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *Session) Level() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.level
}

// Score is the highest level completed.
func (s *Session) Score() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.score
}

type Snapshot struct {
	ID      string
	Phase   Phase
	Level   int
	Score   int
	Pressed model.Notes
	Active  model.Notes
	// only once the game is over
	Played model.Notes
	Reason string
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:      s.id,
		Phase:   s.phase,
		Level:   s.level,
		Score:   s.score,
		Pressed: s.recorder.NotesPressed(),
		Active:  model.Notes{},
		Reason:  s.reason,
	}
	for _, key := range s.keys {
		if s.boxes[key].Active() {
			snap.Active = append(snap.Active, key)
		}
	}
	if s.phase == GameOver {
		snap.Played = slices.Clone(s.played)
	}
	return snap
}

// beginRound expects s.mu to be held.
func (s *Session) beginRound() []Event {
	s.stopTimers()
	s.round++
	gen := s.round

	s.recorder = recorder.New(s.level)
	s.played = make(model.Notes, s.level)
	for i := range s.played {
		s.played[i] = s.keys[s.cfg.Rand.Intn(len(s.keys))]
	}
	for _, b := range s.boxes {
		b.Disable()
	}
	s.phase = AwaitingPlayback

	d := s.cfg.NoteDuration
	for i, key := range s.played {
		box := s.boxes[key]
		s.schedule(time.Duration(i)*d, func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if gen == s.round && s.phase == AwaitingPlayback {
				box.Play()
			}
		})
	}
	s.schedule(time.Duration(s.level)*d, func() { s.openInput(gen) })

	s.logger.Info("round started", "level", s.level)
	s.logger.Debug("round notes", "level", s.level, "notes", s.played)
	return []Event{s.phaseEvent()}
}

func (s *Session) openInput(gen uint64) {
	s.mu.Lock()
	if gen != s.round || s.phase != AwaitingPlayback {
		s.mu.Unlock()
		return
	}
	s.phase = AwaitingInput
	for _, b := range s.boxes {
		b.Enable()
	}
	evts := []Event{s.phaseEvent()}
	s.mu.Unlock()

	s.emit(evts)
}

// press is every box's click callback.
func (s *Session) press(key model.Key) {
	s.mu.Lock()
	if s.phase != AwaitingInput {
		s.mu.Unlock()
		return
	}
	s.recorder.Push(key)
	s.logger.Debug("note pressed", "key", key, "pressed", s.recorder.Len(), "of", s.level)
	evts := []Event{{Type: NotePressed, Phase: s.phase, Level: s.level, Score: s.score, Key: key}}
	if s.recorder.IsComplete() {
		evts = append(evts, s.judge()...)
	}
	s.mu.Unlock()

	s.emit(evts)
}

// judge expects s.mu to be held and the recorder to be complete.
func (s *Session) judge() []Event {
	if !slices.Equal(s.recorder.NotesPressed(), s.played) {
		return s.finish(ReasonMismatch)
	}

	s.score = s.level
	s.phase = RoundComplete
	for _, b := range s.boxes {
		b.Disable()
	}
	gen := s.round
	s.schedule(s.cfg.RoundPause, func() { s.advanceFrom(gen) })

	s.logger.Info("round complete", "level", s.level)
	return []Event{s.phaseEvent()}
}

func (s *Session) advanceFrom(gen uint64) {
	s.mu.Lock()
	if gen != s.round || s.phase != RoundComplete {
		s.mu.Unlock()
		return
	}
	s.level++
	evts := s.beginRound()
	s.mu.Unlock()

	s.emit(evts)
}

// finish expects s.mu to be held.
func (s *Session) finish(reason string) []Event {
	s.stopTimers()
	s.round++
	s.phase = GameOver
	s.reason = reason
	for _, b := range s.boxes {
		b.Disable()
		b.Reset()
	}
	close(s.done)

	s.logger.Info("game over", "reason", reason, "level", s.level, "score", s.score)
	return []Event{s.phaseEvent()}
}

func (s *Session) phaseEvent() Event {
	e := Event{Type: PhaseChanged, Phase: s.phase, Level: s.level, Score: s.score}
	if s.phase == GameOver {
		e.Reason = s.reason
	}
	return e
}

func (s *Session) schedule(d time.Duration, f func()) {
	s.timers = append(s.timers, s.cfg.Scheduler.AfterFunc(d, f))
}

func (s *Session) stopTimers() {
	for _, t := range s.timers {
		t.Stop()
	}
	s.timers = nil
}

func (s *Session) emit(evts []Event) {
	if len(evts) == 0 {
		return
	}
	s.mu.Lock()
	keys := util.GetKeysSorted(s.listeners)
	fns := make([]func(Event), 0, len(keys))
	for _, k := range keys {
		fns = append(fns, s.listeners[k])
	}
	s.mu.Unlock()

	for _, e := range evts {
		for _, fn := range fns {
			fn(e)
		}
	}
}
