package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/codebuildervaibhav/presentation-analysis/internal/types"
)

func sampleResult() *types.AnalysisResult {
	return &types.AnalysisResult{
		AIAssessment: &types.Assessment{Feedback: "scoring disabled"},
		AnalysisSummary: types.AnalysisSummary{
			TotalFramesProcessed: 10,
			DurationAnalyzedSec:  2,
			FaceDetectedFrames:   8,
		},
		RawData: []types.VisionFrame{{Time: 0, VisionSignals: &types.VisionSignals{Smile: 0.2}}},
		AlignedTranscriptData: []types.AlignedEntry{
			{Start: 0, End: 1.5, Text: "hello everyone", SpeechRateCPS: 9.33,
				VisionAvg: types.VisionAverage{VisionSignals: &types.VisionSignals{Smile: 0.2}}},
		},
	}
}

func TestSaveReportWritesJSONAndTranscript(t *testing.T) {
	ls := NewLocalStorage(t.TempDir())

	reportPath, err := ls.SaveReport("my talk", "job-1", sampleResult())
	if err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatal(err)
	}
	var roundtrip types.AnalysisResult
	if err := json.Unmarshal(data, &roundtrip); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}
	if roundtrip.AnalysisSummary.TotalFramesProcessed != 10 {
		t.Errorf("report content mismatch: %+v", roundtrip.AnalysisSummary)
	}

	txtPath := strings.Replace(reportPath, "_report.json", "_transcript.txt", 1)
	txt, err := os.ReadFile(txtPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(txt), "hello everyone") {
		t.Errorf("transcript missing segment text: %q", string(txt))
	}
}

func TestSaveReportEmptyTranscript(t *testing.T) {
	ls := NewLocalStorage(t.TempDir())
	result := sampleResult()
	result.AlignedTranscriptData = nil

	reportPath, err := ls.SaveReport("silent", "job-2", result)
	if err != nil {
		t.Fatal(err)
	}

	txtPath := strings.Replace(reportPath, "_report.json", "_transcript.txt", 1)
	txt, err := os.ReadFile(txtPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(txt), "no speech detected") {
		t.Errorf("empty transcript placeholder missing: %q", string(txt))
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"a/b:c", "a_b_c"},
		{"", "untitled"},
	}

	for _, tc := range cases {
		if got := sanitizeFilename(tc.in); got != tc.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestVisionFrameJSONShape(t *testing.T) {
	// Raw frames serialize flat: signal fields inline next to time, or
	// an error field when the frame was unusable.
	valid := types.VisionFrame{Time: 0.2, VisionSignals: &types.VisionSignals{Smile: 0.5}}
	data, err := json.Marshal(valid)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	if m["smile"] != 0.5 {
		t.Errorf("signals not flattened into the frame object: %s", data)
	}
	if _, hasErr := m["error"]; hasErr {
		t.Errorf("valid frame should omit the error field: %s", data)
	}

	bad := types.VisionFrame{Time: 0.4, Error: "no face detected"}
	data, err = json.Marshal(bad)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"error":"no face detected"`) {
		t.Errorf("error marker missing: %s", data)
	}
	if strings.Contains(string(data), "smile") {
		t.Errorf("error frame should not carry signal fields: %s", data)
	}
}

func TestReportPathUnderDatedDirs(t *testing.T) {
	root := t.TempDir()
	ls := NewLocalStorage(root)

	reportPath, err := ls.SaveReport("x", "job-3", sampleResult())
	if err != nil {
		t.Fatal(err)
	}

	rel, err := filepath.Rel(root, reportPath)
	if err != nil {
		t.Fatal(err)
	}
	// year/month/day/file
	if len(strings.Split(rel, string(filepath.Separator))) != 4 {
		t.Errorf("report not under dated directories: %s", rel)
	}
}
