package constants

import (
	"os"
	"strconv"
	"time"
)

// how long a note stays lit after play, also the spacing between notes
// during playback
const NoteDuration = 1000 * time.Millisecond

const DefaultStartLevel = 1

const DefaultScoresTable = "simon-scores"

// MIDI channel and velocity used for every note
const MidiChannel = 0
const MidiVelocity = 100

func GetAddr() string {
	addr := os.Getenv("SIMON_ADDR")
	if addr != "" {
		return addr
	}
	return ":8080"
}

func GetNoteDuration() time.Duration {
	ms, err := strconv.Atoi(os.Getenv("SIMON_NOTE_DURATION_MS"))
	if err != nil || ms <= 0 {
		return NoteDuration
	}
	return time.Duration(ms) * time.Millisecond
}

func GetStartLevel() int {
	level, err := strconv.Atoi(os.Getenv("SIMON_START_LEVEL"))
	if err != nil || level < 1 {
		return DefaultStartLevel
	}
	return level
}

// empty means scores are kept in memory
func GetDynamoEndpoint() string {
	return os.Getenv("SIMON_DYNAMODB_ENDPOINT")
}

func GetDynamoRegion() string {
	region := os.Getenv("SIMON_DYNAMODB_REGION")
	if region != "" {
		return region
	}
	return "localhost"
}

func GetScoresTable() string {
	table := os.Getenv("SIMON_DYNAMODB_TABLE")
	if table != "" {
		return table
	}
	return DefaultScoresTable
}
