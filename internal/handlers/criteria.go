package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/codebuildervaibhav/presentation-analysis/internal/criteria"
	"github.com/codebuildervaibhav/presentation-analysis/internal/types"
)

// CriteriaHandler manages stored scoring rubrics.
type CriteriaHandler struct {
	store *criteria.Store
}

// NewCriteriaHandler creates a new criteria handler.
func NewCriteriaHandler(store *criteria.Store) *CriteriaHandler {
	return &CriteriaHandler{store: store}
}

// CriteriaRequest is the save-rubric request body.
type CriteriaRequest struct {
	CompetitionName string            `json:"competition_name"`
	Criteria        []types.Criterion `json:"criteria"`
}

// Save stores a rubric under its competition name.
func (h *CriteriaHandler) Save(c *fiber.Ctx) error {
	var req CriteriaRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid request body",
			"code":  "ERR_INVALID_BODY",
		})
	}

	if len(req.Criteria) == 0 {
		return c.Status(400).JSON(fiber.Map{
			"error": "Criteria list must not be empty",
			"code":  "ERR_NO_CRITERIA",
		})
	}

	if err := h.store.Save(req.CompetitionName, req.Criteria); err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": err.Error(),
			"code":  "ERR_SAVE_FAILED",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Criteria saved",
		"name":    criteria.SanitizeName(req.CompetitionName),
	})
}

// Load returns the rubric stored under a competition name. A missing
// rubric yields an empty list, not an error.
func (h *CriteriaHandler) Load(c *fiber.Ctx) error {
	name := c.Params("name")

	rubric, err := h.store.Load(name)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": err.Error(),
			"code":  "ERR_LOAD_FAILED",
		})
	}

	return c.JSON(fiber.Map{"criteria": rubric})
}
