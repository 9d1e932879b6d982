package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/codebuildervaibhav/presentation-analysis/internal/queue"
)

// StatusHandler serves job status polls.
type StatusHandler struct {
	store *queue.StatusStore
}

// NewStatusHandler creates a new status handler.
func NewStatusHandler(store *queue.StatusStore) *StatusHandler {
	return &StatusHandler{store: store}
}

// Handle returns the current status of a job. Terminal statuses are
// removed from the store as they are returned: the first poll that
// sees Complete or Error receives the payload, later polls get 404.
func (h *StatusHandler) Handle(c *fiber.Ctx) error {
	jobID := c.Params("id")

	status, ok := h.store.Resolve(jobID)
	if !ok {
		return c.Status(404).JSON(fiber.Map{
			"error": "Job ID not found",
			"code":  "ERR_JOB_NOT_FOUND",
		})
	}

	return c.JSON(status)
}
