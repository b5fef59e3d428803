package game

import "github.com/jsphweid/simon/model"

type Phase int

const (
	// Ready is a session that has not been started. Boxes can be played
	// freely but nothing is recorded.
	Ready Phase = iota
	AwaitingPlayback
	AwaitingInput
	RoundComplete
	GameOver
)

var phaseNames = [...]string{
	Ready:            "ready",
	AwaitingPlayback: "awaiting_playback",
	AwaitingInput:    "awaiting_input",
	RoundComplete:    "round_complete",
	GameOver:         "game_over",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

type EventType int

const (
	PhaseChanged EventType = iota
	NotePressed
)

type Event struct {
	Type  EventType
	Phase Phase
	Level int
	Score int

	// set for NotePressed
	Key model.Key

	// set when Phase is GameOver
	Reason string
}

const (
	ReasonMismatch = "mismatch"
	ReasonEnded    = "ended"
	ReasonIdle     = "idle"
)
