package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/site-cms/internal/auth"
	"github.com/spec-kit/site-cms/internal/config"
	"github.com/spec-kit/site-cms/internal/domain"
	"github.com/spec-kit/site-cms/internal/events"
	"github.com/spec-kit/site-cms/internal/repository"
	"github.com/spec-kit/site-cms/internal/service"
	"github.com/spec-kit/site-cms/internal/storage"
	apperrors "github.com/spec-kit/site-cms/pkg/util/errorutil"
)

type userStore struct {
	byEmail map[string]domain.User
}

func (s *userStore) Create(context.Context, *domain.User) error { return nil }
func (s *userStore) Update(context.Context, *domain.User) error { return nil }
func (s *userStore) GetByID(_ context.Context, id string) (*domain.User, error) {
	for _, u := range s.byEmail {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}
func (s *userStore) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return s.GetByID(ctx, id)
}
func (s *userStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	u, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}
func (s *userStore) List(context.Context, repository.Page) ([]domain.User, int, error) {
	return nil, 0, nil
}
func (s *userStore) SetRole(context.Context, string, domain.Role) error { return nil }
func (s *userStore) Deactivate(context.Context, string) error           { return nil }

type contactStore struct {
	created []domain.Contact
}

func (s *contactStore) Create(_ context.Context, c *domain.Contact) error {
	c.ID = "contact-1"
	c.CreatedAt = time.Now()
	s.created = append(s.created, *c)
	return nil
}
func (s *contactStore) GetByID(context.Context, string) (*domain.Contact, error) {
	return nil, domain.ErrNotFound
}
func (s *contactStore) List(context.Context, repository.ContactFilter) ([]domain.Contact, int, error) {
	return nil, 0, nil
}
func (s *contactStore) SetHandled(context.Context, string, bool) error { return domain.ErrNotFound }
func (s *contactStore) Delete(context.Context, string) error           { return domain.ErrNotFound }

type putter struct {
	keys []string
}

func (p *putter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	p.keys = append(p.keys, *in.Key)
	return &s3.PutObjectOutput{}, nil
}

func newApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: apperrors.WriteError})
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	body := map[string]any{}
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

func jsonRequest(method, path, payload string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(payload))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	return req
}

func newAuthApp(t *testing.T) *fiber.App {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)
	users := &userStore{byEmail: map[string]domain.User{
		"ada@example.com": {ID: "user-1", Name: "Ada", Email: "ada@example.com", PasswordHash: string(hash), Role: domain.RoleEditor, Active: true},
	}}
	authService := service.NewAuthService(config.AuthConfig{BcryptCost: bcrypt.MinCost}, service.AuthDependencies{
		UserRepo: users,
	})
	tokens := auth.NewTokenManager("secret", time.Hour)
	session := auth.NewSessionResponder(tokens, auth.SessionConfig{CookieName: "jwt", CookieTTL: 24 * time.Hour})
	h := NewAuthHandler(authService, session)

	app := newApp()
	app.Post("/login", h.Login)
	app.Post("/logout", h.Logout)
	return app
}

func TestLogin(t *testing.T) {
	t.Run("valid credentials issue a session", func(t *testing.T) {
		app := newAuthApp(t)

		resp, err := app.Test(jsonRequest(http.MethodPost, "/login", `{"email":"ADA@example.com","password":"correct-horse"}`))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var cookie *http.Cookie
		for _, c := range resp.Cookies() {
			if c.Name == "jwt" {
				cookie = c
			}
		}
		body := decode(t, resp)
		require.NotNil(t, cookie)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, cookie.Value, body["token"])
		user := body["data"].(map[string]any)["user"].(map[string]any)
		assert.Equal(t, "user-1", user["id"])
	})

	t.Run("wrong password is rejected generically", func(t *testing.T) {
		app := newAuthApp(t)

		resp, err := app.Test(jsonRequest(http.MethodPost, "/login", `{"email":"ada@example.com","password":"nope"}`))
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Incorrect email or password.", decode(t, resp)["message"])
	})

	t.Run("unknown email matches wrong password", func(t *testing.T) {
		app := newAuthApp(t)

		resp, err := app.Test(jsonRequest(http.MethodPost, "/login", `{"email":"who@example.com","password":"nope"}`))
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Incorrect email or password.", decode(t, resp)["message"])
	})

	t.Run("invalid payload reports field errors", func(t *testing.T) {
		app := newAuthApp(t)

		resp, err := app.Test(jsonRequest(http.MethodPost, "/login", `{"email":"not-an-email"}`))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		errs := decode(t, resp)["errors"].(map[string]any)
		assert.Contains(t, errs, "email")
		assert.Contains(t, errs, "password")
	})
}

func TestLogoutExpiresCookie(t *testing.T) {
	app := newAuthApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/logout", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	cookies := resp.Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
	assert.True(t, cookies[0].Expires.Before(time.Now()))
}

func TestContactSubmit(t *testing.T) {
	store := &contactStore{}
	dispatcher := events.NewInMemoryDispatcher()
	var published []events.Event
	dispatcher.Subscribe(events.EventContactSubmitted, func(_ context.Context, e events.Event) error {
		published = append(published, e)
		return nil
	})
	h := NewContactsHandler(service.NewContactService(store, dispatcher, nil))
	app := newApp()
	app.Post("/contacts", h.Submit)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/contacts",
		`{"name":" Ada ","email":"ada@example.com","subject":"Hi","message":"Let's talk"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "contact-1", decode(t, resp)["data"].(map[string]any)["id"])

	require.Len(t, store.created, 1)
	assert.Equal(t, "Ada", store.created[0].Name)
	assert.NotEmpty(t, store.created[0].RemoteIP)
	assert.Len(t, published, 1)

	resp, err = app.Test(jsonRequest(http.MethodPost, "/contacts", `{"email":"ada@example.com"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Len(t, store.created, 1)
}

func TestContactUpdateMissingReturns404(t *testing.T) {
	h := NewContactsHandler(service.NewContactService(&contactStore{}, events.NewInMemoryDispatcher(), nil))
	app := newApp()
	app.Patch("/contacts/:id", h.Update)

	resp, err := app.Test(jsonRequest(http.MethodPatch, "/contacts/abc", `{"handled":true}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func uploadRequest(t *testing.T, field string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, "upload.bin")
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/uploads/images", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestUploadImage(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

	newUploadApp := func(maxBytes int64) (*fiber.App, *putter) {
		p := &putter{}
		store := storage.NewImageStore(p, config.StorageConfig{
			Bucket:        "site-media",
			PublicBaseURL: "https://cdn.example.com",
			MaxBytes:      maxBytes,
		})
		app := newApp()
		app.Post("/uploads/images", NewUploadsHandler(store).UploadImage)
		return app, p
	}

	t.Run("stores a sniffed image", func(t *testing.T) {
		app, p := newUploadApp(1024)

		resp, err := app.Test(uploadRequest(t, "image", png))
		require.NoError(t, err)
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		data := decode(t, resp)["data"].(map[string]any)
		assert.Equal(t, "image/png", data["content_type"])
		assert.EqualValues(t, len(png), data["size"])
		assert.True(t, strings.HasPrefix(data["url"].(string), "https://cdn.example.com/images/"))
		require.Len(t, p.keys, 1)
		assert.Equal(t, p.keys[0], data["key"])
	})

	t.Run("rejects non images", func(t *testing.T) {
		app, p := newUploadApp(1024)

		resp, err := app.Test(uploadRequest(t, "image", []byte("just some text, not a picture")))
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
		assert.Empty(t, p.keys)
	})

	t.Run("rejects oversized files", func(t *testing.T) {
		app, _ := newUploadApp(16)

		resp, err := app.Test(uploadRequest(t, "image", png))
		require.NoError(t, err)
		assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	})

	t.Run("requires the image field", func(t *testing.T) {
		app, _ := newUploadApp(1024)

		resp, err := app.Test(uploadRequest(t, "file", png))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestParsePage(t *testing.T) {
	app := newApp()
	app.Get("/", func(c *fiber.Ctx) error {
		page := parsePage(c)
		return c.JSON(fiber.Map{"limit": page.Limit, "offset": page.Offset})
	})

	tests := []struct {
		query  string
		limit  int
		offset int
	}{
		{query: "", limit: 20, offset: 0},
		{query: "?page=3", limit: 20, offset: 40},
		{query: "?limit=10&page=2", limit: 10, offset: 10},
		{query: "?limit=500&page=2", limit: 100, offset: 100},
		{query: "?limit=-5&page=0", limit: 20, offset: 0},
		{query: "?limit=100&page=99999999999", limit: 100, offset: (maxPageNumber - 1) * 100},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/"+tt.query, nil))
			require.NoError(t, err)
			body := decode(t, resp)
			assert.EqualValues(t, tt.limit, body["limit"])
			assert.EqualValues(t, tt.offset, body["offset"])
		})
	}
}
