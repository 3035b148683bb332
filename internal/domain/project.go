package domain

import "time"

// Project is a portfolio entry shown on the public site.
type Project struct {
	ID          string
	Title       string
	Slug        string
	Summary     string
	Body        string
	ImageURL    string
	Tags        []string
	Published   bool
	CreatedByID *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
