package history

import "time"

// Item is one committed turn: a question and the full answer it received.
type Item struct {
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	CreatedAt time.Time `json:"created_at"`
}
