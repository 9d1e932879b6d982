package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// AnalysisRecord is one row of analysis metadata.
type AnalysisRecord struct {
	JobID        string    `json:"job_id"`
	RequestName  string    `json:"request_name"`
	ReportPath   string    `json:"report_path"`
	GDriveURL    string    `json:"gdrive_url"`
	CreatedAt    time.Time `json:"created_at"`
	Duration     float64   `json:"duration"`
	TotalFrames  int       `json:"total_frames"`
	FaceFrames   int       `json:"face_frames"`
	SegmentCount int       `json:"segment_count"`
}

// MetadataDB handles SQLite database operations for finished analyses.
type MetadataDB struct {
	db *sql.DB
}

// NewMetadataDB opens (and if needed initializes) the metadata database.
func NewMetadataDB(dbPath string) (*MetadataDB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS analyses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		job_id TEXT NOT NULL UNIQUE,
		request_name TEXT NOT NULL,
		report_path TEXT NOT NULL,
		gdrive_url TEXT,
		created_at DATETIME NOT NULL,
		duration REAL,
		total_frames INTEGER,
		face_frames INTEGER,
		segment_count INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_created_at ON analyses(created_at);
	CREATE INDEX IF NOT EXISTS idx_request_name ON analyses(request_name);
	`

	if _, err := db.Exec(createTableSQL); err != nil {
		return nil, fmt.Errorf("failed to create table: %v", err)
	}

	return &MetadataDB{db: db}, nil
}

// SaveAnalysis inserts metadata for one completed analysis.
func (mdb *MetadataDB) SaveAnalysis(rec AnalysisRecord) error {
	query := `
	INSERT INTO analyses (job_id, request_name, report_path, gdrive_url, created_at, duration, total_frames, face_frames, segment_count)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := mdb.db.Exec(query, rec.JobID, rec.RequestName, rec.ReportPath, rec.GDriveURL,
		time.Now(), rec.Duration, rec.TotalFrames, rec.FaceFrames, rec.SegmentCount)
	if err != nil {
		return fmt.Errorf("failed to save analysis metadata: %v", err)
	}
	return nil
}

// GetAnalysis retrieves metadata by job ID.
func (mdb *MetadataDB) GetAnalysis(jobID string) (*AnalysisRecord, error) {
	query := `
	SELECT job_id, request_name, report_path, gdrive_url, created_at, duration, total_frames, face_frames, segment_count
	FROM analyses WHERE job_id = ?
	`

	var rec AnalysisRecord
	err := mdb.db.QueryRow(query, jobID).Scan(
		&rec.JobID, &rec.RequestName, &rec.ReportPath, &rec.GDriveURL,
		&rec.CreatedAt, &rec.Duration, &rec.TotalFrames, &rec.FaceFrames, &rec.SegmentCount)
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %v", err)
	}
	return &rec, nil
}

// ListAnalyses returns the most recent analyses, newest first.
func (mdb *MetadataDB) ListAnalyses(limit int) ([]AnalysisRecord, error) {
	query := `
	SELECT job_id, request_name, report_path, gdrive_url, created_at, duration, total_frames, face_frames, segment_count
	FROM analyses ORDER BY created_at DESC LIMIT ?
	`

	rows, err := mdb.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %v", err)
	}
	defer rows.Close()

	var records []AnalysisRecord
	for rows.Next() {
		var rec AnalysisRecord
		if err := rows.Scan(&rec.JobID, &rec.RequestName, &rec.ReportPath, &rec.GDriveURL,
			&rec.CreatedAt, &rec.Duration, &rec.TotalFrames, &rec.FaceFrames, &rec.SegmentCount); err != nil {
			continue
		}
		records = append(records, rec)
	}

	return records, nil
}

// Close closes the database connection.
func (mdb *MetadataDB) Close() error {
	return mdb.db.Close()
}
