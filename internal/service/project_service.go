package service

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/spec-kit/site-cms/internal/domain"
	"github.com/spec-kit/site-cms/internal/repository"
	apperrors "github.com/spec-kit/site-cms/pkg/util/errorutil"
)

const maxSlugLength = 80

// ProjectService manages portfolio entries.
type ProjectService struct {
	projects repository.ProjectRepository
}

// ProjectInput carries the writable project fields. Nil fields are left unchanged on update.
type ProjectInput struct {
	Title     *string
	Summary   *string
	Body      *string
	ImageURL  *string
	Tags      []string
	Published *bool
}

// ProjectQuery describes a listing request.
type ProjectQuery struct {
	Tag  *string
	Page repository.Page
}

// NewProjectService constructs the service.
func NewProjectService(projects repository.ProjectRepository) *ProjectService {
	return &ProjectService{projects: projects}
}

// canSeeDrafts reports whether viewer may read unpublished projects. viewer is nil for anonymous callers.
func canSeeDrafts(viewer *domain.User) bool {
	return viewer.HasRole(domain.RoleAdmin, domain.RoleEditor)
}

// List returns published projects, plus drafts for staff viewers.
func (s *ProjectService) List(ctx context.Context, viewer *domain.User, query ProjectQuery) ([]domain.Project, int, error) {
	return s.projects.List(ctx, repository.ProjectFilter{
		Tag:           query.Tag,
		IncludeDrafts: canSeeDrafts(viewer),
		Page:          query.Page,
	})
}

// Get resolves a project by id or slug. Drafts are hidden from viewers who cannot edit them.
func (s *ProjectService) Get(ctx context.Context, viewer *domain.User, idOrSlug string) (*domain.Project, error) {
	var (
		project *domain.Project
		err     error
	)
	if _, parseErr := uuid.Parse(idOrSlug); parseErr == nil {
		project, err = s.projects.GetByID(ctx, idOrSlug)
	} else {
		project, err = s.projects.GetBySlug(ctx, strings.ToLower(idOrSlug))
	}
	if err != nil {
		return nil, notFound(err, "project")
	}
	if !project.Published && !canSeeDrafts(viewer) {
		return nil, apperrors.NewNotFound("project")
	}
	return project, nil
}

// Create stores a new project with a slug derived from its title.
func (s *ProjectService) Create(ctx context.Context, actor *domain.User, input ProjectInput) (*domain.Project, error) {
	project := &domain.Project{Tags: []string{}}
	if actor != nil {
		project.CreatedByID = &actor.ID
	}
	if err := applyProjectInput(project, input); err != nil {
		return nil, err
	}
	if err := s.projects.Create(ctx, project); err != nil {
		return nil, slugConflict(err)
	}
	return project, nil
}

// Update applies the non-nil fields of input. A new title re-derives the slug.
func (s *ProjectService) Update(ctx context.Context, id string, input ProjectInput) (*domain.Project, error) {
	project, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "project")
	}
	if err := applyProjectInput(project, input); err != nil {
		return nil, err
	}
	if err := s.projects.Update(ctx, project); err != nil {
		return nil, notFound(slugConflict(err), "project")
	}
	return project, nil
}

// Delete removes a project.
func (s *ProjectService) Delete(ctx context.Context, id string) error {
	return notFound(s.projects.Delete(ctx, id), "project")
}

func applyProjectInput(project *domain.Project, input ProjectInput) error {
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		slug := Slugify(title)
		if slug == "" {
			return apperrors.NewValidationError("Invalid input data.", map[string]any{
				"title": "must contain at least one letter or digit",
			})
		}
		project.Title = title
		project.Slug = slug
	}
	if input.Summary != nil {
		project.Summary = strings.TrimSpace(*input.Summary)
	}
	if input.Body != nil {
		project.Body = *input.Body
	}
	if input.ImageURL != nil {
		project.ImageURL = strings.TrimSpace(*input.ImageURL)
	}
	if input.Tags != nil {
		project.Tags = normalizeTags(input.Tags)
	}
	if input.Published != nil {
		project.Published = *input.Published
	}
	return nil
}

func slugConflict(err error) error {
	if errors.Is(err, domain.ErrConflict) {
		return ErrSlugTaken
	}
	return err
}

// Slugify lower-cases s and joins its letter and digit runs with hyphens.
func Slugify(s string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	slug := b.String()
	if len(slug) > maxSlugLength {
		cut := 0
		for i := range slug {
			if i > maxSlugLength {
				break
			}
			cut = i
		}
		slug = strings.TrimRight(slug[:cut], "-")
	}
	return slug
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	result := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		result = append(result, tag)
	}
	return result
}
