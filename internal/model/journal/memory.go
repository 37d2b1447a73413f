package journal

import "time"

// Memory is a journal moment shown in the memory journal.
type Memory struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Emotion         string    `json:"emotion"`
	RelatedMessages []string  `json:"relatedMessages"`
	Timestamp       time.Time `json:"timestamp"`
}
