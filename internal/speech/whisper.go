package speech

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/codebuildervaibhav/presentation-analysis/internal/logging"
	"github.com/codebuildervaibhav/presentation-analysis/internal/types"
)

// WhisperTranscriber wraps Python's OpenAI Whisper for speech
// recognition with per-segment timestamps.
type WhisperTranscriber struct {
	modelName string
	pythonCmd string
	language  string
	logger    zerolog.Logger
	mu        sync.Mutex // thread-safe transcription
}

// NewWhisperTranscriber creates a transcriber using Python Whisper.
// The model name is derived from the configured model path, so both
// "small" and "models/ggml-small.bin" style configs work.
func NewWhisperTranscriber(modelPath, language string) (*WhisperTranscriber, error) {
	modelName := "small"
	for _, name := range []string{"tiny", "base", "small", "medium", "large"} {
		if strings.Contains(modelPath, name) {
			modelName = name
			break
		}
	}

	if language == "" {
		language = "en"
	}

	logger := logging.WithComponent("speech")
	logger.Info().Str("model", modelName).Str("language", language).
		Msg("whisper transcriber initialized (availability verified on first run)")

	return &WhisperTranscriber{
		modelName: modelName,
		pythonCmd: "python",
		language:  language,
		logger:    logger,
	}, nil
}

// Transcribe runs Whisper over the whole audio track and returns the
// ordered speech segments.
func (wt *WhisperTranscriber) Transcribe(audioPath string) ([]types.SpeechSegment, error) {
	wt.mu.Lock()
	defer wt.mu.Unlock()

	wt.logger.Info().Str("audio", audioPath).Msg("running speech recognition")

	tempDir, err := os.MkdirTemp("", "whisper_output")
	if err != nil {
		return nil, fmt.Errorf("failed to create whisper output dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	absAudioPath, err := filepath.Abs(audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %v", err)
	}

	cmd := exec.Command(wt.pythonCmd, "-m", "whisper",
		absAudioPath,
		"--model", wt.modelName,
		"--output_dir", tempDir,
		"--output_format", "json",
		"--language", wt.language,
		"--fp16", "False",
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("whisper transcription failed: %v\nOutput: %s", err, string(output))
	}

	baseName := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	jsonPath := filepath.Join(tempDir, baseName+".json")

	jsonData, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read whisper output: %v", err)
	}

	var whisperOutput WhisperOutput
	if err := json.Unmarshal(jsonData, &whisperOutput); err != nil {
		return nil, fmt.Errorf("failed to parse whisper JSON: %v", err)
	}

	segments := make([]types.SpeechSegment, len(whisperOutput.Segments))
	for i, seg := range whisperOutput.Segments {
		segments[i] = types.SpeechSegment{
			Start: seg.Start,
			End:   seg.End,
			Text:  strings.TrimSpace(seg.Text),
		}
	}

	wt.logger.Info().Int("segments", len(segments)).Msg("speech recognition completed")
	return segments, nil
}

// WhisperOutput matches Python Whisper's JSON output format
type WhisperOutput struct {
	Text     string           `json:"text"`
	Language string           `json:"language"`
	Segments []WhisperSegment `json:"segments"`
}

// WhisperSegment represents a timestamped segment from Whisper
type WhisperSegment struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}
