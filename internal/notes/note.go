package notes

import "time"

// Note is the sole domain entity. Values are immutable; an "update" is a new
// value produced by the service layer, never an in-place mutation. The ID is
// the only identity the repository contract ever exposes - each adapter maps
// it to its own native identifier internally.
type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
