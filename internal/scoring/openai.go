package scoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/codebuildervaibhav/presentation-analysis/internal/logging"
	"github.com/codebuildervaibhav/presentation-analysis/internal/types"
)

const defaultAPIURL = "https://api.openai.com/v1/chat/completions"

// maxDataBytes caps the serialized timeline embedded in the prompt.
const maxDataBytes = 15000

// DefaultCriteria is the rubric used when the caller supplies none.
var DefaultCriteria = []types.Criterion{
	{
		Name:        "Eye contact",
		Score:       25,
		Description: "Rate the share of front-facing gaze, i.e. gaze_h/gaze_v staying within -0.1 to 0.1.",
	},
	{
		Name:        "Facial expression",
		Score:       25,
		Description: "Rate positive vs. negative expression from the smile and frown values.",
	},
	{
		Name:        "Delivery and vocal stability",
		Score:       50,
		Description: "Rate voice stability from the prosody jitter/shimmer values.",
	},
}

// OpenAIScorer grades an aligned timeline with the OpenAI chat
// completions API in JSON mode. It is optional: when no API key is
// configured the orchestrator substitutes a fixed message instead of
// calling Score.
type OpenAIScorer struct {
	apiKey string
	apiURL string
	model  string
	client *http.Client
	logger zerolog.Logger
}

// NewOpenAIScorer creates a scorer. An empty apiKey yields a scorer
// whose Configured() is false.
func NewOpenAIScorer(apiKey, model string) *OpenAIScorer {
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIScorer{
		apiKey: apiKey,
		apiURL: defaultAPIURL,
		model:  model,
		client: &http.Client{Timeout: 120 * time.Second},
		logger: logging.WithComponent("scoring"),
	}
}

// Configured reports whether an API key is available.
func (s *OpenAIScorer) Configured() bool {
	return s.apiKey != ""
}

// Score sends the aligned timeline and rubric to the model and parses
// the structured reply. It never returns an error: every failure mode
// (no data, transport error, malformed reply) comes back inside the
// Assessment so the job can still complete.
func (s *OpenAIScorer) Score(aligned []types.AlignedEntry, criteria []types.Criterion) *types.Assessment {
	if !s.Configured() {
		return &types.Assessment{Error: "OpenAI API key is not configured"}
	}
	if len(aligned) == 0 {
		return &types.Assessment{Error: "no analysis data available for scoring"}
	}

	prompt, err := BuildPrompt(aligned, criteria)
	if err != nil {
		return &types.Assessment{Error: fmt.Sprintf("failed to build scoring prompt: %v", err)}
	}

	s.logger.Info().Str("model", s.model).Int("entries", len(aligned)).Msg("requesting AI score")

	content, err := s.callAPI(prompt)
	if err != nil {
		s.logger.Warn().Err(err).Msg("scoring request failed")
		return &types.Assessment{Error: fmt.Sprintf("scoring request failed: %v", err)}
	}

	assessment, err := ParseAssessment(content)
	if err != nil {
		s.logger.Warn().Err(err).Msg("scoring reply was not valid JSON")
		return &types.Assessment{Error: "failed to parse AI scoring response"}
	}

	return assessment
}

// FormatCriteria renders the rubric for the prompt and returns the
// total achievable score. An empty rubric falls back to the default.
func FormatCriteria(criteria []types.Criterion) (string, float64) {
	if len(criteria) == 0 {
		criteria = DefaultCriteria
	}

	var lines []string
	var total float64
	for i, item := range criteria {
		name := item.Name
		if name == "" {
			name = fmt.Sprintf("Criterion %d", i+1)
		}
		lines = append(lines, fmt.Sprintf("- **%s** (max %.0f points): %s", name, item.Score, item.Description))
		total += item.Score
	}
	return strings.Join(lines, "\n"), total
}

// BuildPrompt assembles the coaching prompt: rubric, field legend and
// the serialized timeline truncated to a bounded size.
func BuildPrompt(aligned []types.AlignedEntry, criteria []types.Criterion) (string, error) {
	criteriaText, total := FormatCriteria(criteria)

	data, err := json.Marshal(aligned)
	if err != nil {
		return "", err
	}
	if len(data) > maxDataBytes {
		data = data[:maxDataBytes]
	}

	prompt := fmt.Sprintf(`You are a professional presentation coaching AI with 10 years of experience.
You are given the [transcript] of a student's recorded presentation together with the averaged
[gaze/expression] and [vocal prosody] data for each spoken sentence.
Evaluate the presentation against the [scoring criteria] and respond ONLY with the JSON format below.

[Scoring criteria]
%s
(maximum total: %.0f points)

[Data field legend]
- text: recognized transcript for the segment
- vision_avg: averaged gaze/expression over the segment
    - gaze_h (left/right): closer to 0 means facing the camera (+ left, - right)
    - gaze_v (up/down): closer to 0 means facing the camera (+ up, - down)
    - smile: smile intensity (0.25+ is meaningful)
    - frown: frown intensity (0.25+ is meaningful)
    - error: "no face detected" means the presenter left the camera view
- prosody: vocal stability
    - jitter (%%): pitch instability (below 1.0%% stable, above 2.0%% unstable)
    - shimmer (%%): roughness/hoarseness (below 3.0%% stable, above 5.0%% rough)
- speech_rate_cps: speaking speed in characters per second (3.0 to 4.5 is appropriate)

[Required response format (JSON)]
{
    "reviews": [
        {
            "name": "criterion name exactly as listed in the scoring criteria",
            "score": 0,
            "feedback": "specific feedback for this criterion (2-3 sentences)"
        }
    ],
    "overall_summary": "overall evaluation and points to improve (about 3 sentences)",
    "video_summary": "summary of the presentation content (1-2 sentences)"
}

[Data]
%s`, criteriaText, total, string(data))

	return prompt, nil
}

// ParseAssessment parses the model's reply, tolerating markdown code
// fences around the JSON body.
func ParseAssessment(content string) (*types.Assessment, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var assessment types.Assessment
	if err := json.Unmarshal([]byte(content), &assessment); err != nil {
		return nil, fmt.Errorf("invalid assessment JSON: %w", err)
	}
	return &assessment, nil
}

func (s *OpenAIScorer) callAPI(prompt string) (string, error) {
	payload := map[string]interface{}{
		"model": s.model,
		"messages": []map[string]string{
			{"role": "system", "content": "You are a helpful assistant that outputs JSON."},
			{"role": "user", "content": prompt},
		},
		"temperature":     0.5,
		"response_format": map[string]string{"type": "json_object"},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequest("POST", s.apiURL, bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openai API returned %d: %s", resp.StatusCode, string(respBody))
	}

	var apiResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("failed to parse API response: %w", err)
	}
	if len(apiResp.Choices) == 0 {
		return "", fmt.Errorf("empty response from model")
	}

	return apiResp.Choices[0].Message.Content, nil
}
