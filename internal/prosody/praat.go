package prosody

import (
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/codebuildervaibhav/presentation-analysis/internal/logging"
	"github.com/codebuildervaibhav/presentation-analysis/internal/types"
)

// PraatAnalyzer computes per-segment vocal stability metrics (jitter
// and shimmer) by running a Praat script over the slice of the audio
// file that covers each speech segment. Praat reports the values as
// fractional ratios; they are converted to percentages here.
//
// Prosody is supplementary data: no failure in this analyzer may abort
// a job. Segments that cannot be analyzed get 0/0 and the cause is
// only logged.
type PraatAnalyzer struct {
	praatPath  string
	scriptPath string
	logger     zerolog.Logger
	mu         sync.Mutex // praat is run one slice at a time
}

// NewPraatAnalyzer resolves the praat binary. A missing binary is
// reported at startup; the caller may still run jobs without prosody
// by passing a nil analyzer.
func NewPraatAnalyzer(scriptPath string) (*PraatAnalyzer, error) {
	praatPath, err := exec.LookPath("praat")
	if err != nil {
		return nil, fmt.Errorf("praat not found in PATH: %w", err)
	}

	return &PraatAnalyzer{
		praatPath:  praatPath,
		scriptPath: scriptPath,
		logger:     logging.WithComponent("prosody"),
	}, nil
}

// AnalyzeSegments attaches jitter and shimmer percentages to each
// segment in place and returns the slice. Per-segment failures leave
// that segment at 0/0; the slice itself is always returned intact.
func (pa *PraatAnalyzer) AnalyzeSegments(audioPath string, segments []types.SpeechSegment) []types.SpeechSegment {
	pa.logger.Info().Int("segments", len(segments)).Msg("running prosody analysis")

	for i := range segments {
		jitter, shimmer, err := pa.analyzeSlice(audioPath, segments[i].Start, segments[i].End)
		if err != nil {
			// Typically the slice is silent or too short for pitch tracking.
			pa.logger.Warn().Err(err).
				Float64("start", segments[i].Start).
				Float64("end", segments[i].End).
				Msg("prosody analysis skipped for segment")
			segments[i].Jitter = 0
			segments[i].Shimmer = 0
			continue
		}
		segments[i].Jitter = jitter * 100
		segments[i].Shimmer = shimmer * 100
	}

	return segments
}

// analyzeSlice runs the Praat script for one time range. The script
// prints two whitespace-separated numbers: jitter (local) and shimmer
// (local) as fractions. Praat prints "--undefined--" when the slice
// has too few voiced periods.
func (pa *PraatAnalyzer) analyzeSlice(audioPath string, start, end float64) (float64, float64, error) {
	pa.mu.Lock()
	defer pa.mu.Unlock()

	cmd := exec.Command(pa.praatPath, "--run", pa.scriptPath,
		audioPath,
		strconv.FormatFloat(start, 'f', -1, 64),
		strconv.FormatFloat(end, 'f', -1, 64),
	)

	output, err := cmd.Output()
	if err != nil {
		return 0, 0, fmt.Errorf("praat failed: %v", err)
	}

	fields := strings.Fields(string(output))
	if len(fields) < 2 {
		return 0, 0, fmt.Errorf("unexpected praat output: %q", string(output))
	}

	jitter := parsePraatValue(fields[0])
	shimmer := parsePraatValue(fields[1])
	return jitter, shimmer, nil
}

// parsePraatValue converts one Praat output token to a float, mapping
// "--undefined--" and NaN to 0.
func parsePraatValue(token string) float64 {
	v, err := strconv.ParseFloat(token, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
