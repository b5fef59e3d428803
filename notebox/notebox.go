// Package notebox binds one playable note to the element that shows it and the
// audio that sounds it.
//
// A NoteBox is lit while at least one Play is in flight. Each Play holds the
// light for the note duration, and overlapping plays share one counter so a
// later play is never cut short by an earlier play's timer.
package notebox

import (
	"fmt"
	"sync"
	"time"

	"github.com/jsphweid/simon/clock"
	"github.com/jsphweid/simon/constants"
	"github.com/jsphweid/simon/model"
	"github.com/jsphweid/simon/resource"
)

type State int

const (
	Idle State = iota
	Active
)

func (s State) String() string {
	if s == Active {
		return "active"
	}
	return "idle"
}

// Lookup finds the resources a NoteBox is bound to.
type Lookup interface {
	Element(id string) (resource.Element, bool)
	Audio(id string) (resource.Audio, bool)
}

type MissingResourceError struct {
	Key  model.Key
	ID   string
	Kind string
}

func (e *MissingResourceError) Error() string {
	return fmt.Sprintf("no %s with id %q for note %q", e.Kind, e.ID, e.Key)
}

type NoteBox struct {
	key      model.Key
	element  resource.Element
	audio    resource.Audio
	sched    clock.Scheduler
	duration time.Duration

	mu      sync.Mutex
	enabled bool
	playing int
	onClick func(model.Key)

	// bumped by Reset so releases already in flight are dropped
	gen     uint64
	nextID  int
	pending map[int]clock.Timer
}

type Option func(*NoteBox)

func WithOnClick(fn func(model.Key)) Option {
	return func(b *NoteBox) { b.onClick = fn }
}

func WithScheduler(s clock.Scheduler) Option {
	return func(b *NoteBox) { b.sched = s }
}

func WithDuration(d time.Duration) Option {
	return func(b *NoteBox) { b.duration = d }
}

// New binds key to the element with id key and the audio with id key-audio.
// It fails with a *MissingResourceError if either does not exist.
func New(key model.Key, lookup Lookup, opts ...Option) (*NoteBox, error) {
	element, ok := lookup.Element(resource.ElementID(key))
	if !ok {
		return nil, &MissingResourceError{Key: key, ID: resource.ElementID(key), Kind: "element"}
	}
	audio, ok := lookup.Audio(resource.AudioID(key))
	if !ok {
		return nil, &MissingResourceError{Key: key, ID: resource.AudioID(key), Kind: "audio"}
	}

	b := &NoteBox{
		key:      key,
		element:  element,
		audio:    audio,
		sched:    clock.Real{},
		duration: constants.NoteDuration,
		enabled:  true,
		pending:  make(map[int]clock.Timer),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

func (b *NoteBox) Key() model.Key {
	return b.key
}

// Play sounds the note from the beginning and lights the box for the note
// duration. It does not wait for either to finish.
func (b *NoteBox) Play() {
	b.mu.Lock()
	b.hold()
	b.mu.Unlock()

	b.sound()
}

// hold expects b.mu to be held.
func (b *NoteBox) hold() {
	b.playing++
	if b.playing == 1 {
		b.element.SetActive(true)
	}
	gen := b.gen
	id := b.nextID
	b.nextID++
	// scheduled under the lock so release can't run before the timer is tracked
	b.pending[id] = b.sched.AfterFunc(b.duration, func() { b.release(gen, id) })
}

func (b *NoteBox) sound() {
	b.audio.SeekToStart()
	b.audio.PlayFromCurrentPosition()
}

func (b *NoteBox) release(gen uint64, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if gen != b.gen {
		return
	}
	delete(b.pending, id)
	b.playing--
	if b.playing == 0 {
		b.element.SetActive(false)
	}
}

// Reset cancels every pending release and turns the box off.
func (b *NoteBox) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, t := range b.pending {
		t.Stop()
		delete(b.pending, id)
	}
	b.gen++
	if b.playing > 0 {
		b.playing = 0
		b.element.SetActive(false)
	}
}

func (b *NoteBox) Enable() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.enabled = true
}

func (b *NoteBox) Disable() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.enabled = false
}

func (b *NoteBox) Enabled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.enabled
}

// SetOnClick replaces the callback run on the next enabled click. nil removes it.
func (b *NoteBox) SetOnClick(fn func(model.Key)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onClick = fn
}

// ClickHandler is bound to the box's press event. A disabled box ignores it.
func (b *NoteBox) ClickHandler() {
	b.mu.Lock()
	if !b.enabled {
		b.mu.Unlock()
		return
	}
	onClick := b.onClick
	gen := b.gen
	b.mu.Unlock()

	if onClick != nil {
		onClick(b.key)
	}

	b.mu.Lock()
	// a callback that resets the box, e.g. by ending the game, cancels this play
	if gen != b.gen {
		b.mu.Unlock()
		return
	}
	b.hold()
	b.mu.Unlock()

	b.sound()
}

func (b *NoteBox) Playing() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.playing
}

func (b *NoteBox) State() State {
	if b.Playing() > 0 {
		return Active
	}
	return Idle
}

func (b *NoteBox) Active() bool {
	return b.State() == Active
}
