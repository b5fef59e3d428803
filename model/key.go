package model

// Key identifies a playable note and the box that shows it.
type Key string

// Keys is the note alphabet the game draws from.
var Keys = []Key{"c", "d", "e", "f"}

type Notes = []Key

func IsKey(k Key) bool {
	for _, v := range Keys {
		if v == k {
			return true
		}
	}
	return false
}
