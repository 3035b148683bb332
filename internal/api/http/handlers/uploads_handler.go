package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/site-cms/internal/api/dto"
	"github.com/spec-kit/site-cms/internal/storage"
	apperrors "github.com/spec-kit/site-cms/pkg/util/errorutil"
)

// UploadsHandler accepts image uploads for project pages.
type UploadsHandler struct {
	images *storage.ImageStore
}

// NewUploadsHandler constructs handler.
func NewUploadsHandler(images *storage.ImageStore) *UploadsHandler {
	return &UploadsHandler{images: images}
}

// UploadImage handles POST /api/v1/uploads/images with multipart field "image".
func (h *UploadsHandler) UploadImage(c *fiber.Ctx) error {
	header, err := c.FormFile("image")
	if err != nil {
		return apperrors.NewBadRequest("Please upload an image in the \"image\" field.")
	}
	if header.Size > h.images.MaxBytes() {
		return tooLarge(h.images.MaxBytes())
	}

	file, err := header.Open()
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	defer file.Close()

	stored, err := h.images.Save(c.UserContext(), file)
	switch {
	case errors.Is(err, storage.ErrTooLarge):
		return tooLarge(h.images.MaxBytes())
	case errors.Is(err, storage.ErrUnsupportedType):
		return apperrors.NewDomainError("UNSUPPORTED_MEDIA_TYPE",
			"Only JPEG, PNG, GIF and WebP images are accepted.", http.StatusUnsupportedMediaType, nil)
	case errors.Is(err, storage.ErrEmpty):
		return apperrors.NewBadRequest("The uploaded file is empty.")
	case err != nil:
		return apperrors.NewInternalError(err)
	}

	return ok(c, http.StatusCreated, dto.UploadResponse{
		URL:         stored.URL,
		Key:         stored.Key,
		ContentType: stored.ContentType,
		Size:        stored.Size,
	})
}

func tooLarge(limit int64) error {
	return apperrors.NewDomainError("PAYLOAD_TOO_LARGE",
		fmt.Sprintf("Images must be at most %d bytes.", limit), http.StatusRequestEntityTooLarge, nil)
}
