package queue

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"

	"github.com/codebuildervaibhav/presentation-analysis/internal/align"
	"github.com/codebuildervaibhav/presentation-analysis/internal/logging"
	"github.com/codebuildervaibhav/presentation-analysis/internal/storage"
	"github.com/codebuildervaibhav/presentation-analysis/internal/types"
)

// MediaExtractor produces the audio track and sampled frames for a video.
type MediaExtractor interface {
	ExtractAudio(ctx context.Context, videoPath, outputPath string) error
	ExtractFrames(ctx context.Context, videoPath, frameDir string, frameRate int) ([]string, error)
}

// FaceAnalyzer runs vision inference on one still frame.
type FaceAnalyzer interface {
	AnalyzeImage(imagePath string) (*types.VisionSignals, error)
}

// Transcriber runs speech recognition over a whole audio track.
type Transcriber interface {
	Transcribe(audioPath string) ([]types.SpeechSegment, error)
}

// ProsodyAnalyzer attaches jitter/shimmer to segments. It absorbs its
// own failures and always returns the slice.
type ProsodyAnalyzer interface {
	AnalyzeSegments(audioPath string, segments []types.SpeechSegment) []types.SpeechSegment
}

// Scorer grades the aligned timeline against a rubric. It never
// returns an error; failures come back inside the Assessment.
type Scorer interface {
	Score(aligned []types.AlignedEntry, criteria []types.Criterion) *types.Assessment
}

// WorkerPool runs submitted analysis jobs on background workers. Each
// job is a single sequential six-stage pipeline; concurrency exists
// only across jobs, and the inference adapters serialize access to
// their underlying models themselves.
type WorkerPool struct {
	jobQueue    chan *Job
	workerCount int
	store       *StatusStore

	extractor   MediaExtractor
	faces       FaceAnalyzer
	transcriber Transcriber
	prosody     ProsodyAnalyzer
	scorer      Scorer

	localStorage *storage.LocalStorage
	driveClient  *storage.DriveClient
	db           *storage.MetadataDB

	frameRate int
	logger    zerolog.Logger
}

// NewWorkerPool creates a worker pool. The persistence collaborators
// (localStorage, driveClient, db) may be nil; the pipeline skips them.
func NewWorkerPool(
	workerCount int,
	store *StatusStore,
	extractor MediaExtractor,
	faces FaceAnalyzer,
	transcriber Transcriber,
	prosody ProsodyAnalyzer,
	scorer Scorer,
	localStorage *storage.LocalStorage,
	driveClient *storage.DriveClient,
	db *storage.MetadataDB,
	frameRate int,
) *WorkerPool {
	if frameRate <= 0 {
		frameRate = 5
	}
	return &WorkerPool{
		jobQueue:     make(chan *Job, 100),
		workerCount:  workerCount,
		store:        store,
		extractor:    extractor,
		faces:        faces,
		transcriber:  transcriber,
		prosody:      prosody,
		scorer:       scorer,
		localStorage: localStorage,
		driveClient:  driveClient,
		db:           db,
		frameRate:    frameRate,
		logger:       logging.WithComponent("queue"),
	}
}

// Start launches the workers.
func (wp *WorkerPool) Start() {
	wp.logger.Info().Int("workers", wp.workerCount).Msg("starting worker pool")
	for i := 0; i < wp.workerCount; i++ {
		go wp.worker(i)
	}
}

// Submit records the job as Pending and enqueues it. It returns
// immediately; callers poll the status store for progress.
func (wp *WorkerPool) Submit(job *Job) {
	job.CreatedAt = time.Now()
	wp.store.Set(job.ID, Status{Status: types.StatusPending, Message: "0/6: waiting in queue..."})
	wp.jobQueue <- job
	wp.logger.Info().Str("job", job.ID).Str("name", job.RequestName).Msg("job submitted")
}

// worker processes jobs from the queue.
func (wp *WorkerPool) worker(id int) {
	for job := range wp.jobQueue {
		func() {
			defer func() {
				if r := recover(); r != nil {
					wp.logger.Error().Int("worker", id).Str("job", job.ID).
						Str("stack", string(debug.Stack())).
						Msgf("panic while processing job: %v", r)
					wp.store.Set(job.ID, Status{
						Status:  types.StatusError,
						Message: fmt.Sprintf("internal error: %v", r),
					})
				}
			}()

			wp.processJob(id, job)
		}()
	}
}

// processJob runs the six-stage analysis pipeline for one job.
//
// Failure taxonomy: audio extraction and zero-frame extraction are
// fatal to the whole job. A single frame's vision failure flags that
// frame only. Speech recognition failure degrades to an empty
// transcript with an explanatory report field. Prosody and scoring
// failures are absorbed inside their adapters. Temp directories are
// removed exactly once regardless of outcome.
func (wp *WorkerPool) processJob(workerID int, job *Job) {
	defer wp.cleanupDirs(job.VideoDir, job.FrameDir)

	ctx := context.Background()
	logger := wp.logger.With().Int("worker", workerID).Str("job", job.ID).Logger()
	logger.Info().Str("video", job.VideoPath).Msg("processing job")

	audioPath := filepath.Join(job.FrameDir, "audio.wav")

	// Stage 1: audio extraction. Nothing downstream works without it.
	wp.analyzing(job.ID, "1/6: extracting audio track...")
	if err := wp.extractor.ExtractAudio(ctx, job.VideoPath, audioPath); err != nil {
		wp.fail(job.ID, logger, fmt.Errorf("audio extraction failed: %v", err))
		return
	}

	// Stage 2: frame extraction. Zero frames means no visual signal
	// at all, which is not a valid degraded result.
	wp.analyzing(job.ID, "2/6: extracting video frames...")
	framePaths, err := wp.extractor.ExtractFrames(ctx, job.VideoPath, job.FrameDir, wp.frameRate)
	if err != nil {
		wp.fail(job.ID, logger, fmt.Errorf("frame extraction failed: %v", err))
		return
	}
	if len(framePaths) == 0 {
		wp.fail(job.ID, logger, fmt.Errorf("no frames could be extracted from the video"))
		return
	}
	total := len(framePaths)

	// Stage 3: per-frame vision inference, sequential. One frame's
	// failure flags that frame only. Progress is published every 20th
	// frame and on the last one to bound status-query churn.
	wp.store.Set(job.ID, Status{
		Status:  types.StatusAnalyzing,
		Message: "3/6: analyzing facial data...",
		Total:   total,
	})
	visionFrames := make([]types.VisionFrame, 0, total)
	for i, path := range framePaths {
		frame := types.VisionFrame{Time: float64(i) / float64(wp.frameRate)}
		signals, err := wp.faces.AnalyzeImage(path)
		if err != nil {
			frame.Error = err.Error()
		} else {
			frame.VisionSignals = signals
		}
		visionFrames = append(visionFrames, frame)

		if i%20 == 0 || i == total-1 {
			wp.store.Set(job.ID, Status{
				Status:   types.StatusAnalyzing,
				Message:  "3/6: analyzing facial data...",
				Progress: i + 1,
				Total:    total,
			})
		}
	}
	logger.Info().Int("frames", total).Msg("frame analysis finished")

	// Stage 4: speech recognition over the whole track. Failure here
	// is a degraded-but-valid outcome: the vision data stands on its
	// own and the report explains what is missing.
	wp.analyzing(job.ID, "4/6: running speech recognition (this may take a while)...")
	var speechFailure string
	segments, err := wp.transcriber.Transcribe(audioPath)
	if err != nil {
		logger.Warn().Err(err).Msg("speech recognition failed, continuing without transcript")
		segments = nil
		speechFailure = fmt.Sprintf(
			"Speech recognition failed: %v. Gaze and expression data was still extracted normally.", err)
	}

	// Stage 5: prosody. The analyzer absorbs its own failures.
	wp.analyzing(job.ID, "5/6: analyzing vocal prosody...")
	if wp.prosody != nil && len(segments) > 0 {
		segments = wp.prosody.AnalyzeSegments(audioPath, segments)
	}

	// Stage 6: alignment and optional AI scoring.
	wp.analyzing(job.ID, "6/6: aligning data and scoring...")
	aligned := align.Align(visionFrames, segments)

	var assessment *types.Assessment
	switch {
	case speechFailure != "":
		assessment = &types.Assessment{Feedback: speechFailure}
	case wp.scorer == nil:
		assessment = &types.Assessment{Feedback: "Transcript, gaze/expression and prosody data " +
			"was extracted successfully. AI scoring is disabled because no API key is configured."}
	default:
		assessment = wp.scorer.Score(aligned, job.Criteria)
	}

	faceFrames := 0
	for _, f := range visionFrames {
		if f.Valid() {
			faceFrames++
		}
	}

	result := &types.AnalysisResult{
		AIAssessment: assessment,
		AnalysisSummary: types.AnalysisSummary{
			TotalFramesProcessed: len(visionFrames),
			DurationAnalyzedSec:  float64(len(visionFrames)) / float64(wp.frameRate),
			FaceDetectedFrames:   faceFrames,
		},
		RawData:               visionFrames,
		AlignedTranscriptData: aligned,
	}

	wp.persist(logger, job, result)

	wp.store.Set(job.ID, Status{Status: types.StatusComplete, Result: result})
	logger.Info().Msg("job completed")
}

// persist writes the report to the configured sinks. Persistence is
// best-effort: the in-memory result is the deliverable and a storage
// failure must not flip a finished analysis to Error.
func (wp *WorkerPool) persist(logger zerolog.Logger, job *Job, result *types.AnalysisResult) {
	var reportPath, driveURL string
	var err error

	if wp.localStorage != nil {
		reportPath, err = wp.localStorage.SaveReport(job.RequestName, job.ID, result)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to save report locally")
		}
	}

	if wp.driveClient != nil && reportPath != "" {
		for attempt := 1; attempt <= 3; attempt++ {
			driveURL, err = wp.driveClient.Upload(job.RequestName, reportPath)
			if err == nil {
				break
			}
			logger.Warn().Err(err).Int("attempt", attempt).Msg("google drive upload failed")
			if attempt < 3 {
				time.Sleep(time.Duration(attempt*attempt) * time.Second)
			}
		}
	}

	if wp.db != nil {
		err = wp.db.SaveAnalysis(storage.AnalysisRecord{
			JobID:        job.ID,
			RequestName:  job.RequestName,
			ReportPath:   reportPath,
			GDriveURL:    driveURL,
			Duration:     result.AnalysisSummary.DurationAnalyzedSec,
			TotalFrames:  result.AnalysisSummary.TotalFramesProcessed,
			FaceFrames:   result.AnalysisSummary.FaceDetectedFrames,
			SegmentCount: len(result.AlignedTranscriptData),
		})
		if err != nil {
			logger.Warn().Err(err).Msg("failed to save analysis metadata")
		}
	}
}

func (wp *WorkerPool) analyzing(jobID, message string) {
	wp.store.Set(jobID, Status{Status: types.StatusAnalyzing, Message: message})
}

func (wp *WorkerPool) fail(jobID string, logger zerolog.Logger, err error) {
	logger.Error().Err(err).Msg("job failed")
	wp.store.Set(jobID, Status{Status: types.StatusError, Message: err.Error()})
}

// cleanupDirs removes the per-job session directories.
func (wp *WorkerPool) cleanupDirs(dirs ...string) {
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			wp.logger.Warn().Err(err).Str("dir", dir).Msg("failed to remove session directory")
		}
	}
}
