package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/site-cms/internal/api/dto"
	"github.com/spec-kit/site-cms/internal/auth"
	"github.com/spec-kit/site-cms/internal/domain"
	"github.com/spec-kit/site-cms/internal/repository"
	apperrors "github.com/spec-kit/site-cms/pkg/util/errorutil"
)

// bind decodes the JSON body into dst and validates it.
func bind(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return apperrors.NewBadRequest("invalid payload")
	}
	return dto.Validate(dst)
}

// currentUser returns the authenticated caller; routes using it sit behind AuthMiddleware.Handle.
func currentUser(c *fiber.Ctx) (*domain.User, error) {
	user, ok := auth.UserFrom(c)
	if !ok {
		return nil, auth.ErrUnauthenticated
	}
	return user, nil
}

// maxPageNumber caps ?page so the offset cannot overflow.
const maxPageNumber = 1_000_000

// parsePage clamps the limit before deriving the offset from it.
func parsePage(c *fiber.Ctx) repository.Page {
	limit := repository.Page{Limit: parseInt(c.Query("limit"), 0)}.Normalize().Limit
	page := min(parseInt(c.Query("page"), 1), maxPageNumber)
	return repository.Page{Limit: limit, Offset: (page - 1) * limit}
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func parseBool(val string) (*bool, error) {
	if val == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return nil, apperrors.NewBadRequest("invalid boolean query parameter")
	}
	return &parsed, nil
}

func ok(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(fiber.Map{"success": true, "data": data})
}

func okList(c *fiber.Ctx, data any, count, total int, page repository.Page) error {
	return c.JSON(fiber.Map{
		"success": true,
		"results": count,
		"total":   total,
		"page":    page.Offset/page.Limit + 1,
		"limit":   page.Limit,
		"data":    data,
	})
}
