package models

import "time"

// News is an announcement shown on the home page and dashboard.
type News struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Summary    string    `json:"summary"`
	Content    string    `json:"content,omitempty"`
	Date       time.Time `json:"date"`
	AuthorID   *int64    `json:"authorId,omitempty"`
	AuthorName string    `json:"authorName"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// DefaultAuthorName is shown for news without an author.
const DefaultAuthorName = "Sistema"
