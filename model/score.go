package model

import "time"

type Score struct {
	SessionID string    `json:"session_id"`
	Level     int       `json:"level"`
	Reason    string    `json:"reason"`
	EndedAt   time.Time `json:"ended_at"`
}
