// Package recorder collects the notes a player presses during one round.
package recorder

import (
	"sync"

	"github.com/jsphweid/simon/model"
	"golang.org/x/exp/slices"
)

// NotesRecorder holds at most Length notes, in the order they were pushed.
type NotesRecorder struct {
	mu      sync.Mutex
	length  int
	pressed model.Notes
}

func New(length int) *NotesRecorder {
	if length < 0 {
		length = 0
	}
	return &NotesRecorder{
		length:  length,
		pressed: make(model.Notes, 0, length),
	}
}

// Push appends note unless the recorder is already full.
func (r *NotesRecorder) Push(note model.Key) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.pressed) == r.length {
		return
	}
	r.pressed = append(r.pressed, note)
}

// NotesPressed returns a copy of the recorded notes.
func (r *NotesRecorder) NotesPressed() model.Notes {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.pressed)
}

func (r *NotesRecorder) IsComplete() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pressed) == r.length
}

func (r *NotesRecorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pressed = r.pressed[:0:0]
}

func (r *NotesRecorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pressed)
}

func (r *NotesRecorder) Length() int {
	return r.length
}
