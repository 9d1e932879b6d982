package scoring

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/codebuildervaibhav/presentation-analysis/internal/types"
)

func sampleAligned() []types.AlignedEntry {
	return []types.AlignedEntry{
		{
			Start:         0,
			End:           2,
			Text:          "hello everyone",
			SpeechRateCPS: 7,
			VisionAvg:     types.VisionAverage{VisionSignals: &types.VisionSignals{Smile: 0.3}},
			Prosody:       types.Prosody{Jitter: 0.8, Shimmer: 2.1},
		},
	}
}

func TestFormatCriteriaDefaultsWhenEmpty(t *testing.T) {
	text, total := FormatCriteria(nil)

	if total != 100 {
		t.Errorf("default rubric total = %v, want 100", total)
	}
	if !strings.Contains(text, "Eye contact") {
		t.Errorf("default rubric missing expected criterion:\n%s", text)
	}
}

func TestFormatCriteriaCustom(t *testing.T) {
	text, total := FormatCriteria([]types.Criterion{
		{Name: "Pacing", Score: 30, Description: "speech rate"},
		{Score: 10, Description: "unnamed"},
	})

	if total != 40 {
		t.Errorf("total = %v, want 40", total)
	}
	if !strings.Contains(text, "**Pacing** (max 30 points)") {
		t.Errorf("criterion not rendered:\n%s", text)
	}
	if !strings.Contains(text, "Criterion 2") {
		t.Errorf("unnamed criterion should get a placeholder name:\n%s", text)
	}
}

func TestBuildPromptEmbedsRubricAndData(t *testing.T) {
	prompt, err := BuildPrompt(sampleAligned(), []types.Criterion{
		{Name: "Pacing", Score: 30, Description: "speech rate"},
	})
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{"Pacing", "hello everyone", "speech_rate_cps", "overall_summary"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildPromptTruncatesLargeTimelines(t *testing.T) {
	long := make([]types.AlignedEntry, 0, 500)
	for i := 0; i < 500; i++ {
		long = append(long, types.AlignedEntry{
			Start: float64(i), End: float64(i + 1),
			Text: strings.Repeat("blah ", 30),
		})
	}

	prompt, err := BuildPrompt(long, nil)
	if err != nil {
		t.Fatal(err)
	}
	// The prompt carries at most maxDataBytes of serialized data plus
	// the fixed template.
	if len(prompt) > maxDataBytes+5000 {
		t.Errorf("prompt not truncated, length %d", len(prompt))
	}
}

func TestParseAssessmentStripsMarkdownFences(t *testing.T) {
	content := "```json\n{\"reviews\":[{\"name\":\"Pacing\",\"score\":25,\"feedback\":\"ok\"}]," +
		"\"overall_summary\":\"fine\",\"video_summary\":\"a talk\"}\n```"

	assessment, err := ParseAssessment(content)
	if err != nil {
		t.Fatal(err)
	}
	if len(assessment.Reviews) != 1 || assessment.Reviews[0].Name != "Pacing" {
		t.Errorf("unexpected reviews: %+v", assessment.Reviews)
	}
	if assessment.OverallSummary != "fine" || assessment.VideoSummary != "a talk" {
		t.Errorf("summaries not parsed: %+v", assessment)
	}
}

func TestParseAssessmentMalformed(t *testing.T) {
	if _, err := ParseAssessment("this is not json"); err == nil {
		t.Error("malformed reply must return an error")
	}
}

func TestScoreUnconfigured(t *testing.T) {
	scorer := NewOpenAIScorer("", "")

	assessment := scorer.Score(sampleAligned(), nil)

	if assessment.Error == "" {
		t.Error("unconfigured scorer must return an error assessment, not nil")
	}
}

func TestScoreNoData(t *testing.T) {
	scorer := NewOpenAIScorer("sk-test", "")

	assessment := scorer.Score(nil, nil)

	if assessment.Error == "" {
		t.Error("empty timeline must yield an error assessment")
	}
}

func TestScoreParsesStructuredReply(t *testing.T) {
	reply := map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{
				"content": `{"reviews":[{"name":"Eye contact","score":20,"feedback":"good"}],"overall_summary":"solid","video_summary":"intro talk"}`,
			}},
		},
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("missing auth header")
		}
		json.NewEncoder(w).Encode(reply)
	}))
	defer server.Close()

	scorer := NewOpenAIScorer("sk-test", "gpt-4o-mini")
	scorer.apiURL = server.URL
	scorer.client = &http.Client{Timeout: 5 * time.Second}

	assessment := scorer.Score(sampleAligned(), nil)

	if assessment.Error != "" {
		t.Fatalf("unexpected error: %s", assessment.Error)
	}
	if len(assessment.Reviews) != 1 || assessment.Reviews[0].Score != 20 {
		t.Errorf("reviews not parsed: %+v", assessment.Reviews)
	}
	if assessment.OverallSummary != "solid" {
		t.Errorf("overall summary = %q", assessment.OverallSummary)
	}
}

func TestScoreMalformedReplyDegrades(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "sorry, no JSON today"}},
			},
		})
	}))
	defer server.Close()

	scorer := NewOpenAIScorer("sk-test", "")
	scorer.apiURL = server.URL

	assessment := scorer.Score(sampleAligned(), nil)

	if assessment == nil || assessment.Error == "" {
		t.Error("malformed model reply must degrade to an error assessment, not crash")
	}
}

func TestScoreServerErrorDegrades(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	scorer := NewOpenAIScorer("sk-test", "")
	scorer.apiURL = server.URL

	assessment := scorer.Score(sampleAligned(), nil)

	if assessment.Error == "" {
		t.Error("transport failure must come back inside the assessment")
	}
}
