package dto

import (
	"time"

	"github.com/spec-kit/site-cms/internal/domain"
)

// CreateProjectRequest payload.
type CreateProjectRequest struct {
	Title     string   `json:"title" validate:"required,max=200"`
	Summary   string   `json:"summary" validate:"max=500"`
	Body      string   `json:"body"`
	ImageURL  string   `json:"image_url" validate:"omitempty,url"`
	Tags      []string `json:"tags" validate:"max=20,dive,required,max=40"`
	Published bool     `json:"published"`
}

// UpdateProjectRequest payload; nil fields are left unchanged.
type UpdateProjectRequest struct {
	Title     *string   `json:"title" validate:"omitempty,max=200"`
	Summary   *string   `json:"summary" validate:"omitempty,max=500"`
	Body      *string   `json:"body"`
	ImageURL  *string   `json:"image_url" validate:"omitempty,url"`
	Tags      *[]string `json:"tags" validate:"omitempty,max=20,dive,required,max=40"`
	Published *bool     `json:"published"`
}

// ProjectResponse response.
type ProjectResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Summary   string    `json:"summary"`
	Body      string    `json:"body"`
	ImageURL  string    `json:"image_url,omitempty"`
	Tags      []string  `json:"tags"`
	Published bool      `json:"published"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewProjectResponse maps a domain project.
func NewProjectResponse(p *domain.Project) ProjectResponse {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return ProjectResponse{
		ID:        p.ID,
		Title:     p.Title,
		Slug:      p.Slug,
		Summary:   p.Summary,
		Body:      p.Body,
		ImageURL:  p.ImageURL,
		Tags:      tags,
		Published: p.Published,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// NewProjectResponses maps a slice of domain projects.
func NewProjectResponses(projects []domain.Project) []ProjectResponse {
	out := make([]ProjectResponse, 0, len(projects))
	for i := range projects {
		out = append(out, NewProjectResponse(&projects[i]))
	}
	return out
}
