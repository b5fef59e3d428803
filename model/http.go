package model

type PressRequestBody struct {
	Key Key `json:"key"`
}

type SessionResponse struct {
	ID      string `json:"id"`
	Phase   string `json:"phase"`
	Level   int    `json:"level"`
	Score   int    `json:"score"`
	Pressed Notes  `json:"pressed"`
	Active  Notes  `json:"active"`

	// only filled in once the game is over
	Played Notes  `json:"played,omitempty"`
	Reason string `json:"reason,omitempty"`
}

type SessionListResponse struct {
	IDs []string `json:"ids"`
}

type ErrorResponse struct {
	Error string `json:"detail"`
}
