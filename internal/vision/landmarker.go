package vision

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"sync"

	"github.com/rs/zerolog"

	"github.com/codebuildervaibhav/presentation-analysis/internal/logging"
	"github.com/codebuildervaibhav/presentation-analysis/internal/types"
)

// FaceLandmarker wraps the MediaPipe face landmarker, invoked through
// a small Python helper script that loads the .task model and prints
// blendshape scores as JSON. The helper keeps the model in its own
// process; this side holds a mutex because the script is run one
// image at a time.
type FaceLandmarker struct {
	pythonCmd  string
	scriptPath string
	modelPath  string
	logger     zerolog.Logger
	mu         sync.Mutex // serialize inference calls
}

// NewFaceLandmarker verifies the model asset and helper script exist
// so a broken install fails at startup, not on the first frame.
func NewFaceLandmarker(pythonCmd, scriptPath, modelPath string) (*FaceLandmarker, error) {
	if pythonCmd == "" {
		pythonCmd = "python"
	}

	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("face landmarker model not found at %s: %w "+
			"(download face_landmarker.task from the MediaPipe model page)", modelPath, err)
	}
	if _, err := os.Stat(scriptPath); err != nil {
		return nil, fmt.Errorf("face analysis helper script not found at %s: %w", scriptPath, err)
	}

	logger := logging.WithComponent("vision")
	logger.Info().Str("model", modelPath).Msg("face landmarker ready")

	return &FaceLandmarker{
		pythonCmd:  pythonCmd,
		scriptPath: scriptPath,
		modelPath:  modelPath,
		logger:     logger,
	}, nil
}

// helperOutput matches the JSON printed by the Python helper: either a
// blendshape score map or an error string (including "no face").
type helperOutput struct {
	Blendshapes Blendshapes `json:"blendshapes"`
	Error       string      `json:"error"`
}

// AnalyzeImage runs face inference on a single still frame and returns
// the derived signals, or an error when the frame is unusable. The
// returned error covers both "no face" and infrastructure failures;
// the caller flags the frame either way and moves on.
func (fl *FaceLandmarker) AnalyzeImage(imagePath string) (*types.VisionSignals, error) {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	cmd := exec.Command(fl.pythonCmd, fl.scriptPath,
		"--model", fl.modelPath,
		"--image", imagePath,
	)

	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("face analysis failed for %s: %v", imagePath, err)
	}

	var result helperOutput
	if err := json.Unmarshal(output, &result); err != nil {
		return nil, fmt.Errorf("failed to parse face analysis output: %v", err)
	}

	if result.Error != "" {
		return nil, fmt.Errorf("%s", result.Error)
	}
	if len(result.Blendshapes) == 0 {
		return nil, fmt.Errorf("%s", types.NoFaceMarker)
	}

	return DeriveSignals(result.Blendshapes), nil
}
