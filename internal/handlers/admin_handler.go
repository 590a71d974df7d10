package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/jobs"
)

// AdminHandler lets operators inspect and trigger scheduled jobs.
type AdminHandler struct {
	scheduler *jobs.Scheduler
}

func NewAdminHandler(scheduler *jobs.Scheduler) *AdminHandler {
	return &AdminHandler{scheduler: scheduler}
}

func (h *AdminHandler) ListJobs(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"jobs": h.scheduler.Tasks()})
}

// RunJob runs a task synchronously and reports its error, if any.
func (h *AdminHandler) RunJob(c *fiber.Ctx) error {
	name := c.Params("name")
	if err := h.scheduler.RunNow(name); err != nil {
		switch {
		case errors.Is(err, jobs.ErrUnknownTask):
			return fail(c, fiber.StatusNotFound, err.Error())
		case errors.Is(err, jobs.ErrJobBusy):
			return fail(c, fiber.StatusConflict, err.Error())
		}
		return fail(c, fiber.StatusInternalServerError, name+" failed: "+err.Error())
	}
	return c.JSON(fiber.Map{"message": name + " completed"})
}
