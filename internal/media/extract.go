package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/codebuildervaibhav/presentation-analysis/internal/logging"
)

// Extractor pulls the audio track and sampled still frames out of a
// source video using ffmpeg. It is stateless; every call works only on
// the paths it is given.
type Extractor struct {
	ffmpegPath string
	logger     zerolog.Logger
}

// NewExtractor resolves the ffmpeg binary once up front so a missing
// install fails at startup instead of on the first job.
func NewExtractor() (*Extractor, error) {
	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}

	return &Extractor{
		ffmpegPath: ffmpegPath,
		logger:     logging.WithComponent("media"),
	}, nil
}

// ExtractAudio demuxes and resamples the video's audio track to 16kHz
// mono 16-bit PCM WAV, the format the speech and prosody models expect.
func (e *Extractor) ExtractAudio(ctx context.Context, videoPath, outputPath string) error {
	e.logger.Info().Str("input", videoPath).Str("output", outputPath).Msg("extracting audio track")

	cmd := exec.CommandContext(ctx, e.ffmpegPath,
		"-i", videoPath,
		"-vn",               // no video
		"-ar", "16000",      // 16kHz sample rate
		"-ac", "1",          // mono
		"-c:a", "pcm_s16le", // 16-bit PCM
		"-y",
		outputPath,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg audio extraction failed: %v\nOutput: %s", err, string(output))
	}
	return nil
}

// ExtractFrames samples the video at the given frame rate into
// sequentially numbered JPEG files under frameDir and returns the
// sorted frame paths. An empty result is returned as-is; the caller
// decides whether that is fatal.
func (e *Extractor) ExtractFrames(ctx context.Context, videoPath, frameDir string, frameRate int) ([]string, error) {
	e.logger.Info().Str("input", videoPath).Int("fps", frameRate).Msg("extracting frames")

	pattern := filepath.Join(frameDir, "frame_%05d.jpg")
	cmd := exec.CommandContext(ctx, e.ffmpegPath,
		"-i", videoPath,
		"-vf", fmt.Sprintf("fps=%d", frameRate),
		"-qscale:v", "2",
		"-y",
		pattern,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg frame extraction failed: %v\nOutput: %s", err, string(output))
	}

	frames, err := ListFrames(frameDir)
	if err != nil {
		return nil, err
	}

	e.logger.Info().Int("frames", len(frames)).Msg("frame extraction finished")
	return frames, nil
}

// ListFrames returns the frame files in frameDir in index order. The
// zero-padded numbering makes lexicographic order the frame order.
func ListFrames(frameDir string) ([]string, error) {
	entries, err := os.ReadDir(frameDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame directory: %w", err)
	}

	var frames []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, "frame_") && strings.HasSuffix(name, ".jpg") {
			frames = append(frames, filepath.Join(frameDir, name))
		}
	}

	sort.Strings(frames)
	return frames, nil
}

// ValidateVideoFormat checks if the file extension is a supported video container.
func ValidateVideoFormat(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	supportedFormats := []string{".mp4", ".mov", ".mkv", ".avi", ".webm", ".m4v", ".wmv"}

	for _, format := range supportedFormats {
		if ext == format {
			return true
		}
	}
	return false
}
