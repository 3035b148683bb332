package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/site-cms/internal/domain"
)

// ContactFilter narrows contact listings.
type ContactFilter struct {
	Handled *bool
	Page    Page
}

// ContactRepository stores messages from the public contact form.
type ContactRepository interface {
	Create(ctx context.Context, contact *domain.Contact) error
	GetByID(ctx context.Context, id string) (*domain.Contact, error)
	List(ctx context.Context, filter ContactFilter) ([]domain.Contact, int, error)
	SetHandled(ctx context.Context, id string, handled bool) error
	Delete(ctx context.Context, id string) error
}

type contactRepository struct {
	db DBTX
}

// NewContactRepository instantiates repository.
func NewContactRepository(db DBTX) ContactRepository {
	return &contactRepository{db: db}
}

const contactColumns = `id, name, email, phone, subject, message, handled, remote_ip, created_at`

func (r *contactRepository) Create(ctx context.Context, contact *domain.Contact) error {
	const query = `
        INSERT INTO contacts (name, email, phone, subject, message, remote_ip)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, handled, created_at`
	err := r.db.QueryRow(ctx, query,
		contact.Name,
		contact.Email,
		contact.Phone,
		contact.Subject,
		contact.Message,
		contact.RemoteIP,
	).Scan(&contact.ID, &contact.Handled, &contact.CreatedAt)
	return mapError(err)
}

func (r *contactRepository) GetByID(ctx context.Context, id string) (*domain.Contact, error) {
	if !isUUID(id) {
		return nil, domain.ErrNotFound
	}
	contact, err := scanContact(r.db.QueryRow(ctx, `SELECT `+contactColumns+` FROM contacts WHERE id=$1`, id))
	if err != nil {
		return nil, mapError(err)
	}
	return contact, nil
}

func (r *contactRepository) List(ctx context.Context, filter ContactFilter) ([]domain.Contact, int, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.Handled != nil {
		args = append(args, *filter.Handled)
		clauses = append(clauses, fmt.Sprintf("handled=$%d", len(args)))
	}
	where := strings.Join(clauses, " AND ")

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM contacts WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, mapError(err)
	}

	page := filter.Page.Normalize()
	query := fmt.Sprintf(`SELECT %s FROM contacts WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		contactColumns, where, page.Limit, page.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, mapError(err)
	}
	defer rows.Close()

	var contacts []domain.Contact
	for rows.Next() {
		contact, err := scanContact(rows)
		if err != nil {
			return nil, 0, err
		}
		contacts = append(contacts, *contact)
	}
	return contacts, total, rows.Err()
}

func (r *contactRepository) SetHandled(ctx context.Context, id string, handled bool) error {
	if !isUUID(id) {
		return domain.ErrNotFound
	}
	return expectAffected(r.db.Exec(ctx, `UPDATE contacts SET handled=$1 WHERE id=$2`, handled, id))
}

func (r *contactRepository) Delete(ctx context.Context, id string) error {
	if !isUUID(id) {
		return domain.ErrNotFound
	}
	return expectAffected(r.db.Exec(ctx, `DELETE FROM contacts WHERE id=$1`, id))
}

func scanContact(row pgx.Row) (*domain.Contact, error) {
	var contact domain.Contact
	if err := row.Scan(
		&contact.ID,
		&contact.Name,
		&contact.Email,
		&contact.Phone,
		&contact.Subject,
		&contact.Message,
		&contact.Handled,
		&contact.RemoteIP,
		&contact.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &contact, nil
}
