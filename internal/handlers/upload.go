package handlers

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/codebuildervaibhav/presentation-analysis/internal/criteria"
	"github.com/codebuildervaibhav/presentation-analysis/internal/logging"
	"github.com/codebuildervaibhav/presentation-analysis/internal/media"
	"github.com/codebuildervaibhav/presentation-analysis/internal/queue"
	"github.com/codebuildervaibhav/presentation-analysis/internal/types"
)

// UploadHandler accepts a presentation video and starts an analysis job.
type UploadHandler struct {
	workerPool    *queue.WorkerPool
	criteriaStore *criteria.Store
	uploadDir     string
	frameDir      string
	maxSizeMB     int
}

// NewUploadHandler creates a new upload handler.
func NewUploadHandler(workerPool *queue.WorkerPool, criteriaStore *criteria.Store, uploadDir, frameDir string, maxSizeMB int) *UploadHandler {
	return &UploadHandler{
		workerPool:    workerPool,
		criteriaStore: criteriaStore,
		uploadDir:     uploadDir,
		frameDir:      frameDir,
		maxSizeMB:     maxSizeMB,
	}
}

// Handle processes the upload request and returns a job id immediately.
func (h *UploadHandler) Handle(c *fiber.Ctx) error {
	file, err := c.FormFile("videoFile")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "No video file uploaded",
			"code":  "ERR_NO_FILE",
		})
	}

	requestName := c.FormValue("name")
	if requestName == "" {
		requestName = "untitled"
	}

	maxSize := int64(h.maxSizeMB) * 1024 * 1024
	if file.Size > maxSize {
		return c.Status(400).JSON(fiber.Map{
			"error": fmt.Sprintf("File too large (max %dMB)", h.maxSizeMB),
			"code":  "ERR_FILE_TOO_LARGE",
		})
	}

	if !media.ValidateVideoFormat(file.Filename) {
		return c.Status(400).JSON(fiber.Map{
			"error": "Unsupported video format",
			"code":  "ERR_INVALID_FORMAT",
		})
	}

	rubric, err := h.resolveCriteria(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": err.Error(),
			"code":  "ERR_INVALID_CRITERIA",
		})
	}

	// Each job owns a fresh session directory pair so concurrent jobs
	// never share filesystem state.
	jobID := uuid.New().String()
	videoDir, frameDir, err := CreateSessionDirs(h.uploadDir, h.frameDir)
	if err != nil {
		logger := logging.WithComponent("upload")
		logger.Error().Err(err).Msg("failed to create session dirs")
		return c.Status(500).JSON(fiber.Map{
			"error": "Failed to prepare workspace",
			"code":  "ERR_SESSION_DIRS",
		})
	}

	videoPath := filepath.Join(videoDir, filepath.Base(file.Filename))
	if err := c.SaveFile(file, videoPath); err != nil {
		os.RemoveAll(videoDir)
		os.RemoveAll(frameDir)
		logger := logging.WithComponent("upload")
		logger.Error().Err(err).Msg("failed to save uploaded file")
		return c.Status(500).JSON(fiber.Map{
			"error": "Failed to save file",
			"code":  "ERR_SAVE_FAILED",
		})
	}

	h.workerPool.Submit(&queue.Job{
		ID:          jobID,
		RequestName: requestName,
		VideoPath:   videoPath,
		VideoDir:    videoDir,
		FrameDir:    frameDir,
		Criteria:    rubric,
	})

	return c.JSON(fiber.Map{
		"job_id":  jobID,
		"status":  "pending",
		"message": "Video uploaded successfully, analysis started",
	})
}

// resolveCriteria reads the rubric either inline (criteria form field,
// JSON array) or by reference to a stored rubric (criteria_name).
func (h *UploadHandler) resolveCriteria(c *fiber.Ctx) ([]types.Criterion, error) {
	if raw := c.FormValue("criteria"); raw != "" {
		var rubric []types.Criterion
		if err := json.Unmarshal([]byte(raw), &rubric); err != nil {
			return nil, fmt.Errorf("criteria field is not a valid JSON array: %v", err)
		}
		return rubric, nil
	}

	if name := c.FormValue("criteria_name"); name != "" && h.criteriaStore != nil {
		rubric, err := h.criteriaStore.Load(name)
		if err != nil {
			return nil, fmt.Errorf("failed to load stored criteria %q: %v", name, err)
		}
		return rubric, nil
	}

	return nil, nil
}

// CreateSessionDirs creates the unique per-job directory pair.
func CreateSessionDirs(uploadRoot, frameRoot string) (string, string, error) {
	sessionID := uuid.New().String()
	videoDir := filepath.Join(uploadRoot, sessionID)
	frameDir := filepath.Join(frameRoot, sessionID)

	if err := os.MkdirAll(videoDir, 0755); err != nil {
		return "", "", err
	}
	if err := os.MkdirAll(frameDir, 0755); err != nil {
		os.RemoveAll(videoDir)
		return "", "", err
	}
	return videoDir, frameDir, nil
}
