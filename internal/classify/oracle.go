// Package classify decides which of a paper's references are true
// mathematical dependencies, using a text-completion oracle with a
// deterministic citation-intent fallback.
package classify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	genai "google.golang.org/genai"
)

// Oracle errors.
var (
	// ErrOverloaded indicates the oracle is temporarily overloaded and
	// the call may be retried.
	ErrOverloaded = errors.New("oracle overloaded")

	// ErrEmptyResponse indicates the oracle returned no content.
	ErrEmptyResponse = errors.New("empty response from oracle")
)

// Oracle is a text-completion service. Complete returns free-form text
// that is expected to contain a JSON payload.
type Oracle interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// DefaultModel is the Gemini model used for dependency analysis.
const DefaultModel = "gemini-2.5-pro"

// GeminiOracle is an Oracle backed by the Gemini API.
type GeminiOracle struct {
	cli   *genai.Client
	model string
}

// NewGeminiOracle creates a Gemini-backed oracle. An empty model uses
// DefaultModel; an empty apiKey falls back to GEMINI_API_KEY from the
// environment.
func NewGeminiOracle(ctx context.Context, apiKey, model string) (*GeminiOracle, error) {
	if model == "" {
		model = DefaultModel
	}
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &GeminiOracle{cli: cli, model: model}, nil
}

// Complete sends the prompt and returns the model's text reply.
// Overload conditions are reported as ErrOverloaded so callers can
// apply their retry policy.
func (g *GeminiOracle) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
		nil,
	)
	if err != nil {
		if isOverloaded(err) {
			return "", fmt.Errorf("%w: %v", ErrOverloaded, err)
		}
		return "", fmt.Errorf("gemini request: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyResponse
	}

	return resp.Candidates[0].Content.Parts[0].Text, nil
}

// isOverloaded reports whether the error looks like a transient
// capacity condition worth retrying.
func isOverloaded(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == 503
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "503") || strings.Contains(msg, "overloaded") || strings.Contains(msg, "unavailable")
}
