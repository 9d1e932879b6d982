package queue

import (
	"time"

	"github.com/codebuildervaibhav/presentation-analysis/internal/types"
)

// Job represents one submitted video analysis. VideoDir and FrameDir
// are the per-session temp directories owned exclusively by this job;
// both are deleted when the pipeline finishes, success or failure.
type Job struct {
	ID          string
	RequestName string
	VideoPath   string
	VideoDir    string
	FrameDir    string
	Criteria    []types.Criterion
	CreatedAt   time.Time
}

// Status is the pollable state of a job. Progress/Total are only set
// during the per-frame vision stage; Result only on Complete.
type Status struct {
	Status   string                `json:"status"`
	Message  string                `json:"message,omitempty"`
	Progress int                   `json:"progress,omitempty"`
	Total    int                   `json:"total,omitempty"`
	Result   *types.AnalysisResult `json:"result,omitempty"`
}

// Terminal reports whether the status will never change again.
func (s Status) Terminal() bool {
	return s.Status == types.StatusComplete || s.Status == types.StatusError
}
