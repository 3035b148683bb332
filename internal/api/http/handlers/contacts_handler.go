package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/site-cms/internal/api/dto"
	"github.com/spec-kit/site-cms/internal/service"
)

// ContactsHandler receives contact-form messages and lets staff triage them.
type ContactsHandler struct {
	contacts *service.ContactService
}

// NewContactsHandler constructs handler.
func NewContactsHandler(contacts *service.ContactService) *ContactsHandler {
	return &ContactsHandler{contacts: contacts}
}

// Submit handles POST /api/v1/contacts.
func (h *ContactsHandler) Submit(c *fiber.Ctx) error {
	var req dto.CreateContactRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	contact, err := h.contacts.Submit(c.UserContext(), service.ContactInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Subject:  req.Subject,
		Message:  req.Message,
		RemoteIP: c.IP(),
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Thanks for reaching out. We will get back to you soon.",
		"data":    fiber.Map{"id": contact.ID},
	})
}

// List handles GET /api/v1/contacts.
func (h *ContactsHandler) List(c *fiber.Ctx) error {
	handled, err := parseBool(c.Query("handled"))
	if err != nil {
		return err
	}
	page := parsePage(c)
	contacts, total, err := h.contacts.List(c.UserContext(), handled, page)
	if err != nil {
		return err
	}
	return okList(c, fiber.Map{"contacts": dto.NewContactResponses(contacts)}, len(contacts), total, page)
}

// Get handles GET /api/v1/contacts/:id.
func (h *ContactsHandler) Get(c *fiber.Ctx) error {
	contact, err := h.contacts.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, fiber.Map{"contact": dto.NewContactResponse(contact)})
}

// Update handles PATCH /api/v1/contacts/:id.
func (h *ContactsHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateContactRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	contact, err := h.contacts.SetHandled(c.UserContext(), c.Params("id"), *req.Handled)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, fiber.Map{"contact": dto.NewContactResponse(contact)})
}

// Delete handles DELETE /api/v1/contacts/:id.
func (h *ContactsHandler) Delete(c *fiber.Ctx) error {
	if err := h.contacts.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
