package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/site-cms/internal/domain"
)

// ProjectFilter narrows project listings.
type ProjectFilter struct {
	Tag           *string
	IncludeDrafts bool
	Page          Page
}

// ProjectRepository encapsulates project persistence.
type ProjectRepository interface {
	Create(ctx context.Context, project *domain.Project) error
	Update(ctx context.Context, project *domain.Project) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Project, error)
	List(ctx context.Context, filter ProjectFilter) ([]domain.Project, int, error)
}

type projectRepository struct {
	db DBTX
}

// NewProjectRepository instantiates repository.
func NewProjectRepository(db DBTX) ProjectRepository {
	return &projectRepository{db: db}
}

const projectColumns = `id, title, slug, summary, body, image_url, tags, published, created_by_id, created_at, updated_at`

func (r *projectRepository) Create(ctx context.Context, project *domain.Project) error {
	const query = `
        INSERT INTO projects (title, slug, summary, body, image_url, tags, published, created_by_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		project.Title,
		project.Slug,
		project.Summary,
		project.Body,
		project.ImageURL,
		nonNilTags(project.Tags),
		project.Published,
		project.CreatedByID,
	).Scan(&project.ID, &project.CreatedAt, &project.UpdatedAt)
	return mapError(err)
}

func (r *projectRepository) Update(ctx context.Context, project *domain.Project) error {
	if !isUUID(project.ID) {
		return domain.ErrNotFound
	}
	const query = `
        UPDATE projects SET title=$1, slug=$2, summary=$3, body=$4, image_url=$5, tags=$6,
            published=$7, updated_at=NOW()
        WHERE id=$8
        RETURNING updated_at`
	err := r.db.QueryRow(ctx, query,
		project.Title,
		project.Slug,
		project.Summary,
		project.Body,
		project.ImageURL,
		nonNilTags(project.Tags),
		project.Published,
		project.ID,
	).Scan(&project.UpdatedAt)
	return mapError(err)
}

func (r *projectRepository) Delete(ctx context.Context, id string) error {
	if !isUUID(id) {
		return domain.ErrNotFound
	}
	return expectAffected(r.db.Exec(ctx, `DELETE FROM projects WHERE id=$1`, id))
}

func (r *projectRepository) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	if !isUUID(id) {
		return nil, domain.ErrNotFound
	}
	return r.fetchSingle(ctx, `SELECT `+projectColumns+` FROM projects WHERE id=$1`, id)
}

func (r *projectRepository) GetBySlug(ctx context.Context, slug string) (*domain.Project, error) {
	return r.fetchSingle(ctx, `SELECT `+projectColumns+` FROM projects WHERE slug=$1`, slug)
}

func (r *projectRepository) List(ctx context.Context, filter ProjectFilter) ([]domain.Project, int, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if !filter.IncludeDrafts {
		clauses = append(clauses, "published")
	}
	if filter.Tag != nil && strings.TrimSpace(*filter.Tag) != "" {
		args = append(args, strings.TrimSpace(*filter.Tag))
		clauses = append(clauses, fmt.Sprintf("$%d = ANY(tags)", len(args)))
	}
	where := strings.Join(clauses, " AND ")

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM projects WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, mapError(err)
	}

	page := filter.Page.Normalize()
	query := fmt.Sprintf(`SELECT %s FROM projects WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		projectColumns, where, page.Limit, page.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, mapError(err)
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, 0, err
		}
		projects = append(projects, *project)
	}
	return projects, total, rows.Err()
}

func (r *projectRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Project, error) {
	project, err := scanProject(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		return nil, mapError(err)
	}
	return project, nil
}

func scanProject(row pgx.Row) (*domain.Project, error) {
	var project domain.Project
	if err := row.Scan(
		&project.ID,
		&project.Title,
		&project.Slug,
		&project.Summary,
		&project.Body,
		&project.ImageURL,
		&project.Tags,
		&project.Published,
		&project.CreatedByID,
		&project.CreatedAt,
		&project.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &project, nil
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
