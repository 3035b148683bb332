package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spec-kit/site-cms/internal/domain"
	"github.com/spec-kit/site-cms/internal/events"
	"github.com/spec-kit/site-cms/internal/mail"
	"github.com/spec-kit/site-cms/internal/repository"
)

type fakeUserRepo struct {
	mu        sync.Mutex
	users     map[string]domain.User
	nextID    int
	updateErr error
}

func newFakeUserRepo(users ...domain.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: map[string]domain.User{}}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return fmt.Errorf("users_email_key: %w", domain.ErrConflict)
		}
	}
	r.nextID++
	user.ID = fmt.Sprintf("user-%d", r.nextID)
	user.Email = strings.ToLower(user.Email)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.users[user.ID]; !ok {
		return domain.ErrNotFound
	}
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &user, nil
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.Active {
		return nil, domain.ErrNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if strings.EqualFold(user.Email, strings.TrimSpace(email)) {
			u := user
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeUserRepo) List(_ context.Context, _ repository.Page) ([]domain.User, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	users := make([]domain.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, len(users), nil
}

func (r *fakeUserRepo) SetRole(_ context.Context, id string, role domain.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	user.Role = role
	r.users[id] = user
	return nil
}

func (r *fakeUserRepo) Deactivate(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok || !user.Active {
		return domain.ErrNotFound
	}
	user.Active = false
	r.users[id] = user
	return nil
}

type fakeResetRepo struct {
	mu     sync.Mutex
	tokens map[string]domain.PasswordResetToken
	nextID int
}

func newFakeResetRepo() *fakeResetRepo {
	return &fakeResetRepo{tokens: map[string]domain.PasswordResetToken{}}
}

func (r *fakeResetRepo) Create(_ context.Context, token *domain.PasswordResetToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	token.ID = fmt.Sprintf("reset-%d", r.nextID)
	token.CreatedAt = time.Now()
	r.tokens[token.ID] = *token
	return nil
}

func (r *fakeResetRepo) GetByHash(_ context.Context, hash string) (*domain.PasswordResetToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, token := range r.tokens {
		if token.TokenHash == hash {
			t := token
			return &t, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeResetRepo) MarkUsed(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.tokens[id]
	if !ok || token.UsedAt != nil {
		return domain.ErrNotFound
	}
	now := time.Now()
	token.UsedAt = &now
	r.tokens[id] = token
	return nil
}

func (r *fakeResetRepo) DeleteForUser(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, token := range r.tokens {
		if token.UserID == userID {
			delete(r.tokens, id)
		}
	}
	return nil
}

type fakeProjectRepo struct {
	mu       sync.Mutex
	projects []domain.Project
	nextID   int
	filters  []repository.ProjectFilter
}

func (r *fakeProjectRepo) slugTaken(slug, exceptID string) bool {
	for _, p := range r.projects {
		if p.Slug == slug && p.ID != exceptID {
			return true
		}
	}
	return false
}

func (r *fakeProjectRepo) Create(_ context.Context, project *domain.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.slugTaken(project.Slug, "") {
		return fmt.Errorf("projects_slug_key: %w", domain.ErrConflict)
	}
	r.nextID++
	project.ID = fmt.Sprintf("00000000-0000-4000-8000-%012d", r.nextID)
	r.projects = append(r.projects, *project)
	return nil
}

func (r *fakeProjectRepo) Update(_ context.Context, project *domain.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.slugTaken(project.Slug, project.ID) {
		return fmt.Errorf("projects_slug_key: %w", domain.ErrConflict)
	}
	for i := range r.projects {
		if r.projects[i].ID == project.ID {
			r.projects[i] = *project
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *fakeProjectRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.projects {
		if r.projects[i].ID == id {
			r.projects = append(r.projects[:i], r.projects[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *fakeProjectRepo) find(match func(domain.Project) bool) (*domain.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.projects {
		if match(p) {
			project := p
			return &project, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeProjectRepo) GetByID(_ context.Context, id string) (*domain.Project, error) {
	return r.find(func(p domain.Project) bool { return p.ID == id })
}

func (r *fakeProjectRepo) GetBySlug(_ context.Context, slug string) (*domain.Project, error) {
	return r.find(func(p domain.Project) bool { return p.Slug == slug })
}

func (r *fakeProjectRepo) List(_ context.Context, filter repository.ProjectFilter) ([]domain.Project, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.filters = append(r.filters, filter)
	var result []domain.Project
	for _, p := range r.projects {
		if !p.Published && !filter.IncludeDrafts {
			continue
		}
		if filter.Tag != nil && !containsString(p.Tags, *filter.Tag) {
			continue
		}
		result = append(result, p)
	}
	return result, len(result), nil
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

type fakeContactRepo struct {
	mu       sync.Mutex
	contacts map[string]domain.Contact
	nextID   int
}

func newFakeContactRepo() *fakeContactRepo {
	return &fakeContactRepo{contacts: map[string]domain.Contact{}}
}

func (r *fakeContactRepo) Create(_ context.Context, contact *domain.Contact) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	contact.ID = fmt.Sprintf("contact-%d", r.nextID)
	contact.CreatedAt = time.Now()
	r.contacts[contact.ID] = *contact
	return nil
}

func (r *fakeContactRepo) GetByID(_ context.Context, id string) (*domain.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	contact, ok := r.contacts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &contact, nil
}

func (r *fakeContactRepo) List(_ context.Context, filter repository.ContactFilter) ([]domain.Contact, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Contact
	for _, c := range r.contacts {
		if filter.Handled != nil && c.Handled != *filter.Handled {
			continue
		}
		result = append(result, c)
	}
	return result, len(result), nil
}

func (r *fakeContactRepo) SetHandled(_ context.Context, id string, handled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	contact, ok := r.contacts[id]
	if !ok {
		return domain.ErrNotFound
	}
	contact.Handled = handled
	r.contacts[id] = contact
	return nil
}

func (r *fakeContactRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.contacts[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.contacts, id)
	return nil
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return d.err
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

type fakeMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}
