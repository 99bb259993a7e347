// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"text/template"

	"github.com/pdiddy/arxiv-trends/internal/httputil"
	"github.com/pdiddy/arxiv-trends/pkg/types"
)

// classifyPromptTmpl is the prompt sent to the model for each paper. It
// pins the output to a single JSON object over a closed category list so
// replies parse deterministically.
var classifyPromptTmpl = template.Must(template.New("classify").Parse(`You are a research paper classification system. Assign the paper below to research topic categories.

Valid categories (use these labels exactly):
{{range .Categories}}- {{.}}
{{end}}
Respond with a single JSON object with these fields:
- primary_category: the one category that best describes the paper's main contribution
- secondary_categories: an array of zero to two additional relevant categories
- impact_score: an integer from 1 to 5 estimating the paper's likely significance (1 = incremental, 5 = field-changing)

Do not include any text outside the JSON object.

Example response:
{"primary_category": "Reinforcement Learning", "secondary_categories": ["Robotics & Embodied AI"], "impact_score": 3}

Title: {{.Title}}

Abstract: {{.Summary}}
`))

// geminiAPIBase is the model API endpoint root. Package-level var for test
// substitution.
var geminiAPIBase = "https://generativelanguage.googleapis.com/v1beta/models"

// GeminiBackend calls the Gemini generateContent API to classify one paper
// per request.
type GeminiBackend struct {
	APIKey    string
	Model     string
	MaxTokens int
	Client    *http.Client
}

// NewGeminiBackend validates the credential up front so a missing key
// fails at construction rather than on the first network call.
func NewGeminiBackend(cfg types.AIConfig) (*GeminiBackend, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &GeminiBackend{APIKey: cfg.APIKey, Model: model, MaxTokens: maxTokens}, nil
}

// geminiRequest is the request body for the generateContent API.
type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

// geminiContent is a single conversation turn.
type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

// geminiPart is one chunk of turn content.
type geminiPart struct {
	Text string `json:"text"`
}

// geminiGenerationConfig tunes the model's sampling.
type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

// geminiResponse is the response body from the generateContent API.
type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

// geminiCandidate is one generated reply.
type geminiCandidate struct {
	Content geminiContent `json:"content"`
}

// Complete submits the prompt and returns the first candidate's text.
func (b *GeminiBackend) Complete(ctx context.Context, prompt string) (string, error) {
	if b.APIKey == "" {
		return "", ErrNoAPIKey
	}

	reqBody := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: prompt}}},
		},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     0.2,
			MaxOutputTokens: b.MaxTokens,
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent", geminiAPIBase, b.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", b.APIKey)

	client := b.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return "", fmt.Errorf("calling model API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(resp.Body)
		return "", &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var gResp geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&gResp); err != nil {
		return "", fmt.Errorf("decoding model response: %w", err)
	}

	if len(gResp.Candidates) == 0 {
		return "", ErrEmptyResponse
	}
	for _, part := range gResp.Candidates[0].Content.Parts {
		if part.Text != "" {
			return part.Text, nil
		}
	}
	return "", ErrEmptyResponse
}

// renderPrompt executes the classification prompt template for one paper.
func renderPrompt(paper types.RawPaper) (string, error) {
	var buf bytes.Buffer
	data := struct {
		Categories []types.Category
		Title      string
		Summary    string
	}{
		Categories: types.Categories(),
		Title:      paper.Title,
		Summary:    paper.Summary,
	}
	if err := classifyPromptTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
