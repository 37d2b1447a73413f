package chat

import "time"

// Sender 标识消息的发送方。
type Sender string

const (
	SenderPlayer    Sender = "player"
	SenderCompanion Sender = "companion"
)

// Message is one immutable line of the chat transcript.
type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}
