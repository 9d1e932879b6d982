package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/codebuildervaibhav/presentation-analysis/internal/types"
)

// LocalStorage persists finished analysis reports to the local filesystem.
type LocalStorage struct {
	outputDir string
}

// NewLocalStorage creates a new local storage handler.
func NewLocalStorage(outputDir string) *LocalStorage {
	return &LocalStorage{outputDir: outputDir}
}

// SaveReport writes the full report JSON plus a plain-text transcript
// under a dated directory structure (outputs/2025/08/29/) and returns
// the report path.
func (ls *LocalStorage) SaveReport(requestName, jobID string, result *types.AnalysisResult) (string, error) {
	now := time.Now()
	dateDir := filepath.Join(ls.outputDir,
		fmt.Sprintf("%d", now.Year()),
		fmt.Sprintf("%02d", now.Month()),
		fmt.Sprintf("%02d", now.Day()))

	if err := os.MkdirAll(dateDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create date directory: %v", err)
	}

	timestamp := now.Format("20060102_150405")
	baseFilename := fmt.Sprintf("%s_%s", timestamp, sanitizeFilename(requestName))

	reportPath := filepath.Join(dateDir, baseFilename+"_report.json")
	txtPath := filepath.Join(dateDir, baseFilename+"_transcript.txt")

	reportJSON, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %v", err)
	}
	if err := os.WriteFile(reportPath, reportJSON, 0644); err != nil {
		return "", fmt.Errorf("failed to save report: %v", err)
	}

	if err := os.WriteFile(txtPath, []byte(transcriptText(result)), 0644); err != nil {
		return "", fmt.Errorf("failed to save transcript: %v", err)
	}

	return reportPath, nil
}

// transcriptText renders the aligned entries as a timestamped script.
func transcriptText(result *types.AnalysisResult) string {
	var sb strings.Builder
	for _, entry := range result.AlignedTranscriptData {
		sb.WriteString(fmt.Sprintf("[%07.2f - %07.2f] %s\n", entry.Start, entry.End, entry.Text))
	}
	if sb.Len() == 0 {
		sb.WriteString("(no speech detected)\n")
	}
	return sb.String()
}

// sanitizeFilename removes invalid characters from the request name.
func sanitizeFilename(name string) string {
	invalid := []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|"}
	result := name
	for _, ch := range invalid {
		result = strings.ReplaceAll(result, ch, "_")
	}
	if len(result) > 100 {
		result = result[:100]
	}
	if result == "" {
		result = "untitled"
	}
	return result
}
