package handlers

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/codebuildervaibhav/presentation-analysis/internal/logging"
	"github.com/codebuildervaibhav/presentation-analysis/internal/queue"
)

// RemoteHandler analyzes a presentation recording hosted at a URL
// (YouTube or any site yt-dlp understands). The page is probed with
// headless Chrome first to validate the URL and pick up a request
// name, then the video itself is fetched with yt-dlp.
type RemoteHandler struct {
	workerPool *queue.WorkerPool
	uploadDir  string
	frameDir   string
}

// NewRemoteHandler creates a new remote-capture handler.
func NewRemoteHandler(workerPool *queue.WorkerPool, uploadDir, frameDir string) *RemoteHandler {
	return &RemoteHandler{
		workerPool: workerPool,
		uploadDir:  uploadDir,
		frameDir:   frameDir,
	}
}

// RemoteRequest is the request body.
type RemoteRequest struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

// Handle validates the request and starts the capture in the
// background; the job is submitted once the download finishes.
func (h *RemoteHandler) Handle(c *fiber.Ctx) error {
	var req RemoteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid request body",
			"code":  "ERR_INVALID_BODY",
		})
	}

	if req.URL == "" {
		return c.Status(400).JSON(fiber.Map{
			"error": "URL is required",
			"code":  "ERR_NO_URL",
		})
	}

	jobID := uuid.New().String()
	logger := logging.WithComponent("remote")

	go func() {
		videoDir, frameDir, err := CreateSessionDirs(h.uploadDir, h.frameDir)
		if err != nil {
			logger.Error().Err(err).Msg("failed to create session dirs for remote capture")
			return
		}

		name := req.Name
		if title, err := h.probePage(req.URL); err == nil && name == "" {
			name = title
		}
		if name == "" {
			name = "remote_video"
		}

		videoPath := filepath.Join(videoDir, "source.mp4")
		if err := h.downloadVideo(req.URL, videoPath); err != nil {
			logger.Error().Err(err).Str("url", req.URL).Msg("remote video download failed")
			os.RemoveAll(videoDir)
			os.RemoveAll(frameDir)
			return
		}

		h.workerPool.Submit(&queue.Job{
			ID:          jobID,
			RequestName: name,
			VideoPath:   videoPath,
			VideoDir:    videoDir,
			FrameDir:    frameDir,
		})
	}()

	return c.JSON(fiber.Map{
		"job_id":  jobID,
		"status":  "capturing",
		"message": "Remote video capture started (this may take a few minutes for long videos)",
	})
}

// probePage loads the URL in headless Chrome and returns the page
// title, verifying the URL is reachable before the heavier download.
func (h *RemoteHandler) probePage(url string) (string, error) {
	ctx, cancel := chromedp.NewContext(context.Background())
	defer cancel()

	ctx, cancel = context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var title string
	err := chromedp.Run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.Title(&title),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			if tree.Frame == nil || tree.Frame.URL == "" {
				return fmt.Errorf("page did not load a document")
			}
			return nil
		}),
	)
	if err != nil {
		return "", fmt.Errorf("failed to load page: %v", err)
	}
	return title, nil
}

// downloadVideo fetches the video with yt-dlp.
func (h *RemoteHandler) downloadVideo(url, outputPath string) error {
	cmd := exec.Command("yt-dlp",
		"-f", "mp4/bestvideo*+bestaudio/best",
		"--merge-output-format", "mp4",
		"-o", outputPath,
		url,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("yt-dlp failed: %v\nOutput: %s", err, string(output))
	}
	return nil
}
