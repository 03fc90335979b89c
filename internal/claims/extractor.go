// Package claims extracts verifiable factual claims from post text.
package claims

import (
	"context"
	"fmt"
	"strings"

	"github.com/factlens/factlens/internal/decode"
	"github.com/factlens/factlens/internal/gemini"
)

const (
	// Claims are capped so a runaway model answer cannot blow up downstream
	// prompts.
	maxClaimLen = 500

	extractTemperature = 0.1
	extractMaxTokens   = 200
)

// Completer is the completion call used for extraction.
type Completer interface {
	Complete(ctx context.Context, prompt string, opts gemini.Options) (string, error)
}

// Extractor turns raw post text into an ordered list of claim strings.
type Extractor struct {
	completer Completer
}

// NewExtractor creates a new claim extractor
func NewExtractor(completer Completer) *Extractor {
	return &Extractor{completer: completer}
}

// Extract returns the factual claims found in content, in the order the
// model produced them. An undecodable model response degrades to treating
// the whole content as a single claim; zero claims is a valid outcome.
// Completion-service errors propagate.
func (e *Extractor) Extract(ctx context.Context, content string) ([]string, error) {
	text, err := e.completer.Complete(ctx, buildPrompt(content), gemini.Options{
		Temperature:     extractTemperature,
		MaxOutputTokens: extractMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("extract claims: %w", err)
	}

	raw, err := decode.StringArray(text)
	if err != nil {
		// The post itself is still a checkable statement.
		return []string{truncate(strings.TrimSpace(content), maxClaimLen)}, nil
	}

	claims := make([]string, 0, len(raw))
	for _, c := range raw {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		claims = append(claims, truncate(c, maxClaimLen))
	}
	return claims, nil
}

func buildPrompt(content string) string {
	return fmt.Sprintf(`You are a claim extractor. Extract specific factual claims from the given text and return ONLY valid JSON.

CRITICAL INSTRUCTIONS:
- Return ONLY a valid JSON array
- No markdown formatting, no code blocks, no explanations
- No additional text before or after the JSON
- Each claim should be a string in the array
- Example format: ["claim1", "claim2", "claim3"]
- Focus on factual claims that can be researched and verified, not opinions

Text to analyze: %q

JSON response:`, content)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
