// Package resource holds the things a note box is drawn and heard through,
// addressed by id the way a page addresses its elements.
package resource

import (
	"sync"

	"github.com/jsphweid/simon/model"
)

// Element is the visual side of a note box.
type Element interface {
	SetActive(active bool)
}

// Audio is a playable sound. PlayFromCurrentPosition must not block until
// playback finishes.
type Audio interface {
	SeekToStart()
	PlayFromCurrentPosition()
}

func ElementID(key model.Key) string {
	return string(key)
}

func AudioID(key model.Key) string {
	return string(key) + "-audio"
}

type Registry struct {
	mu       sync.RWMutex
	elements map[string]Element
	audio    map[string]Audio
}

func NewRegistry() *Registry {
	return &Registry{
		elements: make(map[string]Element),
		audio:    make(map[string]Audio),
	}
}

func (r *Registry) AddElement(id string, e Element) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.elements[id] = e
}

func (r *Registry) AddAudio(id string, a Audio) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.audio[id] = a
}

func (r *Registry) Element(id string) (Element, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.elements[id]
	return e, ok
}

func (r *Registry) Audio(id string) (Audio, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.audio[id]
	return a, ok
}
