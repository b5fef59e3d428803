package resource

import "sync"

// Indicator is an Element that only remembers its state. The HTTP API reads
// it to tell browsers which boxes to light.
type Indicator struct {
	mu     sync.Mutex
	active bool
	sets   int
	clears int
}

func (i *Indicator) SetActive(active bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.active = active
	if active {
		i.sets++
	} else {
		i.clears++
	}
}

func (i *Indicator) Active() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.active
}

// Calls returns how many times the indicator was switched on and off.
func (i *Indicator) Calls() (sets, clears int) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.sets, i.clears
}

// Silent is an Audio that makes no sound and counts what it was asked to do.
type Silent struct {
	mu    sync.Mutex
	seeks int
	plays int
}

func (s *Silent) SeekToStart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seeks++
}

func (s *Silent) PlayFromCurrentPosition() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plays++
}

func (s *Silent) Plays() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plays
}

func (s *Silent) Seeks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seeks
}
