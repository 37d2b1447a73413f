package chat

import "time"

// Conversation binds a transcript to the companion persona speaking in it.
type Conversation struct {
	ID        string    `json:"id"`
	PersonaID string    `json:"personaId"`
	CreatedAt time.Time `json:"createdAt"`
}
