package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/dto"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/services"
)

type PhotoHandler struct {
	photoService *services.PhotoService
}

func NewPhotoHandler(photoService *services.PhotoService) *PhotoHandler {
	return &PhotoHandler{photoService: photoService}
}

func photoError(c *fiber.Ctx, err error, action string) error {
	switch {
	case errors.Is(err, services.ErrPhotoLimit),
		errors.Is(err, services.ErrUnsupportedType),
		errors.Is(err, services.ErrNoFiles):
		return fail(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrPhotoNotFound):
		return fail(c, fiber.StatusNotFound, err.Error())
	}
	slog.Error("photo "+action+" failed", "action", action, "error", err)
	return fail(c, fiber.StatusInternalServerError, "Failed to "+action+" photo")
}

func (h *PhotoHandler) List(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return nil
	}
	photos, err := h.photoService.List(c.UserContext(), userID)
	if err != nil {
		return photoError(c, err, "list")
	}
	return c.JSON(fiber.Map{"photos": photos, "count": len(photos), "max": services.MaxPhotos})
}

// Upload accepts files under either "photo" or "photos".
func (h *PhotoHandler) Upload(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Expected multipart form data")
	}
	files := append(form.File["photos"], form.File["photo"]...)

	photos, err := h.photoService.Upload(c.UserContext(), userID, files)
	if err != nil {
		return photoError(c, err, "upload")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"photos": photos})
}

func (h *PhotoHandler) Replace(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return nil
	}
	photoID, ok := paramID(c, "id", "photo ID")
	if !ok {
		return nil
	}
	file, err := c.FormFile("photo")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, services.ErrNoFiles.Error())
	}

	photo, err := h.photoService.Replace(c.UserContext(), userID, photoID, file)
	if err != nil {
		return photoError(c, err, "replace")
	}
	return c.JSON(photo)
}

func (h *PhotoHandler) Delete(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return nil
	}
	photoID, ok := paramID(c, "id", "photo ID")
	if !ok {
		return nil
	}
	if err := h.photoService.Delete(c.UserContext(), userID, photoID); err != nil {
		return photoError(c, err, "delete")
	}
	return c.JSON(fiber.Map{"message": "Photo deleted successfully"})
}

func (h *PhotoHandler) DeleteAll(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return nil
	}
	n, err := h.photoService.DeleteAll(c.UserContext(), userID)
	if err != nil {
		return photoError(c, err, "delete")
	}
	return c.JSON(fiber.Map{"message": "Photos deleted successfully", "deleted": n})
}

func (h *PhotoHandler) UploadURL(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return nil
	}
	var req dto.PresignRequest
	if err := c.BodyParser(&req); err != nil || req.Extension == "" {
		return fail(c, fiber.StatusBadRequest, "extension is required")
	}

	resp, err := h.photoService.PresignUpload(c.UserContext(), userID, req.Extension)
	if err != nil {
		return photoError(c, err, "presign")
	}
	return c.JSON(resp)
}
