package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/codebuildervaibhav/presentation-analysis/internal/cleanup"
	"github.com/codebuildervaibhav/presentation-analysis/internal/criteria"
	"github.com/codebuildervaibhav/presentation-analysis/internal/handlers"
	"github.com/codebuildervaibhav/presentation-analysis/internal/logging"
	"github.com/codebuildervaibhav/presentation-analysis/internal/media"
	"github.com/codebuildervaibhav/presentation-analysis/internal/prosody"
	"github.com/codebuildervaibhav/presentation-analysis/internal/queue"
	"github.com/codebuildervaibhav/presentation-analysis/internal/scoring"
	"github.com/codebuildervaibhav/presentation-analysis/internal/speech"
	"github.com/codebuildervaibhav/presentation-analysis/internal/storage"
	"github.com/codebuildervaibhav/presentation-analysis/internal/vision"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Port int    `yaml:"port"`
		Host string `yaml:"host"`
	} `yaml:"server"`

	Whisper struct {
		ModelPath string `yaml:"model_path"`
		Language  string `yaml:"language"`
	} `yaml:"whisper"`

	Vision struct {
		PythonCmd  string `yaml:"python_cmd"`
		ScriptPath string `yaml:"script_path"`
		ModelPath  string `yaml:"model_path"`
	} `yaml:"vision"`

	Prosody struct {
		ScriptPath string `yaml:"script_path"`
	} `yaml:"prosody"`

	Analysis struct {
		FrameRate int `yaml:"frame_rate"`
	} `yaml:"analysis"`

	Scoring struct {
		Model     string `yaml:"model"`
		APIKeyEnv string `yaml:"api_key_env"`
	} `yaml:"scoring"`

	Workers struct {
		Count int `yaml:"count"`
	} `yaml:"workers"`

	Storage struct {
		UploadDir   string `yaml:"upload_dir"`
		FrameDir    string `yaml:"frame_dir"`
		OutputDir   string `yaml:"output_dir"`
		CriteriaDir string `yaml:"criteria_dir"`
		Database    string `yaml:"database"`
	} `yaml:"storage"`

	Cleanup struct {
		IntervalMinutes int `yaml:"interval_minutes"`
		MaxAgeHours     int `yaml:"max_age_hours"`
	} `yaml:"cleanup"`

	GoogleDrive struct {
		CredentialsFile string `yaml:"credentials_file"`
		TokenFile       string `yaml:"token_file"`
		FolderName      string `yaml:"folder_name"`
	} `yaml:"google_drive"`

	Limits struct {
		MaxFileSizeMB int  `yaml:"max_file_size_mb"`
		Verbose       bool `yaml:"verbose"`
	} `yaml:"limits"`
}

func main() {
	config, err := loadConfig("config/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logBuffer := logging.Init(config.Limits.Verbose)

	if err := cleanup.EnsureDirsExist(
		config.Storage.UploadDir,
		config.Storage.FrameDir,
		config.Storage.OutputDir,
	); err != nil {
		log.Fatal().Err(err).Msg("failed to create storage directories")
	}

	log.Info().Msg("initializing components...")

	// Media extractor (ffmpeg). Missing ffmpeg is fatal at startup.
	extractor, err := media.NewExtractor()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize media extractor")
	}

	// Face landmarker. Loaded once, shared by all workers.
	landmarker, err := vision.NewFaceLandmarker(
		config.Vision.PythonCmd,
		config.Vision.ScriptPath,
		config.Vision.ModelPath,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize face landmarker")
	}

	// Whisper transcriber. Loaded once, shared by all workers.
	transcriber, err := speech.NewWhisperTranscriber(config.Whisper.ModelPath, config.Whisper.Language)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize whisper")
	}

	// Prosody analyzer (optional - jobs run with zeroed prosody without it).
	var prosodyAnalyzer queue.ProsodyAnalyzer
	if pa, err := prosody.NewPraatAnalyzer(config.Prosody.ScriptPath); err != nil {
		log.Warn().Err(err).Msg("prosody analysis not available, segments will carry zero jitter/shimmer")
	} else {
		prosodyAnalyzer = pa
	}

	// AI scorer (optional - requires an API key).
	apiKeyEnv := config.Scoring.APIKeyEnv
	if apiKeyEnv == "" {
		apiKeyEnv = "OPENAI_API_KEY"
	}
	var scorer queue.Scorer
	openAIScorer := scoring.NewOpenAIScorer(os.Getenv(apiKeyEnv), config.Scoring.Model)
	if openAIScorer.Configured() {
		scorer = openAIScorer
		log.Info().Msg("AI scoring enabled")
	} else {
		log.Warn().Str("env", apiKeyEnv).Msg("no API key found, AI scoring disabled")
	}

	// Criteria store
	criteriaStore, err := criteria.NewStore(config.Storage.CriteriaDir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize criteria store")
	}

	// Local report storage
	localStorage := storage.NewLocalStorage(config.Storage.OutputDir)

	// Google Drive client (optional - may fail if credentials not set up)
	var driveClient *storage.DriveClient
	if _, err := os.Stat(config.GoogleDrive.CredentialsFile); err == nil {
		driveClient, err = storage.NewDriveClient(
			config.GoogleDrive.CredentialsFile,
			config.GoogleDrive.TokenFile,
			config.GoogleDrive.FolderName,
		)
		if err != nil {
			log.Warn().Err(err).Msg("Google Drive not available, reports will only be saved locally")
			driveClient = nil
		} else {
			log.Info().Msg("Google Drive integration enabled")
		}
	} else {
		log.Info().Msg("Google Drive credentials not found - saving locally only")
	}

	// Metadata database
	db, err := storage.NewMetadataDB(config.Storage.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer db.Close()

	// Job store and worker pool
	statusStore := queue.NewStatusStore()
	workerPool := queue.NewWorkerPool(
		config.Workers.Count,
		statusStore,
		extractor,
		landmarker,
		transcriber,
		prosodyAnalyzer,
		scorer,
		localStorage,
		driveClient,
		db,
		config.Analysis.FrameRate,
	)
	workerPool.Start()

	// Cleanup scheduler for orphaned session directories
	cleanupScheduler := cleanup.NewScheduler(
		[]string{config.Storage.UploadDir, config.Storage.FrameDir},
		config.Cleanup.IntervalMinutes,
		config.Cleanup.MaxAgeHours,
	)
	cleanupScheduler.Start()
	defer cleanupScheduler.Stop()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit: config.Limits.MaxFileSizeMB * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	// Handlers
	uploadHandler := handlers.NewUploadHandler(workerPool, criteriaStore,
		config.Storage.UploadDir, config.Storage.FrameDir, config.Limits.MaxFileSizeMB)
	statusHandler := handlers.NewStatusHandler(statusStore)
	remoteHandler := handlers.NewRemoteHandler(workerPool, config.Storage.UploadDir, config.Storage.FrameDir)
	criteriaHandler := handlers.NewCriteriaHandler(criteriaStore)
	progressHandler := handlers.NewProgressHandler(statusStore)

	// Routes
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	app.Post("/upload", uploadHandler.Handle)
	app.Get("/status/:id", statusHandler.Handle)
	app.Post("/remote", remoteHandler.Handle)
	app.Post("/criteria", criteriaHandler.Save)
	app.Get("/criteria/:name", criteriaHandler.Load)
	app.Get("/ws/progress/:id", websocket.New(progressHandler.Handle))

	app.Get("/analyses", func(c *fiber.Ctx) error {
		records, err := db.ListAnalyses(50)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(records)
	})

	app.Get("/analyses/:id/report", func(c *fiber.Ctx) error {
		rec, err := db.GetAnalysis(c.Params("id"))
		if err != nil {
			return c.Status(404).JSON(fiber.Map{"error": "Analysis not found"})
		}
		content, err := os.ReadFile(rec.ReportPath)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "Failed to read report file"})
		}
		c.Set("Content-Type", "application/json")
		return c.SendString(string(content))
	})

	app.Get("/logs", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"logs": logBuffer.Lines()})
	})

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	log.Info().Str("addr", addr).Msg("server starting")

	// Graceful shutdown
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Info().Msg("shutting down gracefully...")
		app.Shutdown()
	}()

	if err := app.Listen(addr); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

// loadConfig loads configuration from YAML file
func loadConfig(path string) (*Config, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := yaml.Unmarshal(file, &config); err != nil {
		return nil, err
	}

	return &config, nil
}
