package types

// Job status constants
const (
	StatusPending   = "Pending"
	StatusAnalyzing = "Analyzing"
	StatusComplete  = "Complete"
	StatusError     = "Error"
)

// NoFaceMarker is the error text attached to frames and windows
// where face detection produced nothing usable.
const NoFaceMarker = "no face detected"

// VisionSignals holds the derived facial/gaze signal values for one frame.
// Gaze values sit roughly in [-1, 1], the rest in [0, 1].
type VisionSignals struct {
	GazeH     float64 `json:"gaze_h"`
	GazeV     float64 `json:"gaze_v"`
	Smile     float64 `json:"smile"`
	Frown     float64 `json:"frown"`
	BrowUp    float64 `json:"brow_up"`
	BrowDown  float64 `json:"brow_down"`
	JawOpen   float64 `json:"jaw_open"`
	MouthOpen float64 `json:"mouth_open"`
	Squint    float64 `json:"squint"`
}

// VisionFrame is one sampled frame's analysis result. Time is derived
// from the frame index and the sampling rate, not wall clock. Either
// Signals is set or Error carries the reason the frame was unusable.
type VisionFrame struct {
	Time           float64 `json:"time"`
	*VisionSignals `json:",omitempty"`
	Error          string `json:"error,omitempty"`
}

// Valid reports whether the frame carries usable signal data.
func (f VisionFrame) Valid() bool {
	return f.Error == "" && f.VisionSignals != nil
}

// SpeechSegment is one transcribed utterance. Jitter and Shimmer are
// attached afterwards by the prosody analyzer, as percentages.
type SpeechSegment struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Text    string  `json:"text"`
	Jitter  float64 `json:"jitter"`
	Shimmer float64 `json:"shimmer"`
}

// Prosody holds per-segment vocal stability metrics in percent.
type Prosody struct {
	Jitter  float64 `json:"jitter"`
	Shimmer float64 `json:"shimmer"`
}

// VisionAverage is the averaged signal record over a segment's time
// window, or an error marker when no usable frame fell inside it.
type VisionAverage struct {
	*VisionSignals `json:",omitempty"`
	Error          string `json:"error,omitempty"`
}

// AlignedEntry is one output row of the timeline aligner, one per
// speech segment.
type AlignedEntry struct {
	Start         float64       `json:"start"`
	End           float64       `json:"end"`
	Text          string        `json:"text"`
	SpeechRateCPS float64       `json:"speech_rate_cps"`
	VisionAvg     VisionAverage `json:"vision_avg"`
	Prosody       Prosody       `json:"prosody"`
}

// Criterion is one rubric item the scorer grades against.
type Criterion struct {
	Name        string  `json:"name"`
	Score       float64 `json:"score"`
	Description string  `json:"description"`
}

// Review is the scorer's verdict for one criterion.
type Review struct {
	Name     string  `json:"name"`
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
}

// Assessment is the scoring step's output. Either the structured
// fields are populated, or Feedback carries a substitute message, or
// Error explains why scoring produced nothing.
type Assessment struct {
	Reviews        []Review `json:"reviews,omitempty"`
	OverallSummary string   `json:"overall_summary,omitempty"`
	VideoSummary   string   `json:"video_summary,omitempty"`
	Feedback       string   `json:"ai_feedback,omitempty"`
	Error          string   `json:"error,omitempty"`
}

// AnalysisSummary gives coarse per-job counters for the report header.
type AnalysisSummary struct {
	TotalFramesProcessed int     `json:"total_frames_processed"`
	DurationAnalyzedSec  float64 `json:"duration_analyzed_sec"`
	FaceDetectedFrames   int     `json:"face_detected_frames"`
}

// AnalysisResult is the full payload attached to a Complete status.
type AnalysisResult struct {
	AIAssessment          *Assessment     `json:"ai_assessment"`
	AnalysisSummary       AnalysisSummary `json:"analysis_summary"`
	RawData               []VisionFrame   `json:"raw_data"`
	AlignedTranscriptData []AlignedEntry  `json:"aligned_transcript_data"`
}
