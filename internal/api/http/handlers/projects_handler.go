package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/site-cms/internal/api/dto"
	"github.com/spec-kit/site-cms/internal/auth"
	"github.com/spec-kit/site-cms/internal/service"
)

// ProjectsHandler serves the public portfolio and its editing endpoints.
type ProjectsHandler struct {
	projects *service.ProjectService
}

// NewProjectsHandler constructs handler.
func NewProjectsHandler(projects *service.ProjectService) *ProjectsHandler {
	return &ProjectsHandler{projects: projects}
}

// List handles GET /api/v1/projects. Runs behind optional auth.
func (h *ProjectsHandler) List(c *fiber.Ctx) error {
	query := service.ProjectQuery{Page: parsePage(c)}
	if tag := strings.TrimSpace(c.Query("tag")); tag != "" {
		tag = strings.ToLower(tag)
		query.Tag = &tag
	}
	projects, total, err := h.projects.List(c.UserContext(), auth.IdentityFrom(c).User(), query)
	if err != nil {
		return err
	}
	return okList(c, fiber.Map{"projects": dto.NewProjectResponses(projects)}, len(projects), total, query.Page)
}

// Get handles GET /api/v1/projects/:idOrSlug. Runs behind optional auth.
func (h *ProjectsHandler) Get(c *fiber.Ctx) error {
	project, err := h.projects.Get(c.UserContext(), auth.IdentityFrom(c).User(), c.Params("idOrSlug"))
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, fiber.Map{"project": dto.NewProjectResponse(project)})
}

// Create handles POST /api/v1/projects.
func (h *ProjectsHandler) Create(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.CreateProjectRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}
	project, err := h.projects.Create(c.UserContext(), actor, service.ProjectInput{
		Title:     &req.Title,
		Summary:   &req.Summary,
		Body:      &req.Body,
		ImageURL:  &req.ImageURL,
		Tags:      tags,
		Published: &req.Published,
	})
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, fiber.Map{"project": dto.NewProjectResponse(project)})
}

// Update handles PATCH /api/v1/projects/:id.
func (h *ProjectsHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateProjectRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	input := service.ProjectInput{
		Title:     req.Title,
		Summary:   req.Summary,
		Body:      req.Body,
		ImageURL:  req.ImageURL,
		Published: req.Published,
	}
	if req.Tags != nil {
		input.Tags = *req.Tags
		if input.Tags == nil {
			input.Tags = []string{}
		}
	}
	project, err := h.projects.Update(c.UserContext(), c.Params("id"), input)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, fiber.Map{"project": dto.NewProjectResponse(project)})
}

// Delete handles DELETE /api/v1/projects/:id.
func (h *ProjectsHandler) Delete(c *fiber.Ctx) error {
	if err := h.projects.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
