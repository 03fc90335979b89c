// Package verify produces a fact-check verdict for a single claim against a
// shared set of sources.
package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/factlens/factlens/internal/decode"
	"github.com/factlens/factlens/internal/gemini"
	"github.com/factlens/factlens/internal/scoring"
	"github.com/factlens/factlens/pkg/models"
)

const (
	maxReasoningLen = 500

	verifyTemperature = 0.1
	verifyMaxTokens   = 300
)

// Completer is the completion call used for verification.
type Completer interface {
	Complete(ctx context.Context, prompt string, opts gemini.Options) (string, error)
}

// Result is the verdict for one claim. Values are normalized at creation:
// the verdict is one of the three known kinds, confidence is in [0,100], and
// the reasoning is length-capped.
type Result struct {
	Verdict    models.Verdict
	Confidence int
	Reasoning  string
}

// Verifier checks claims against sources via the completion service.
type Verifier struct {
	completer Completer
}

// NewVerifier creates a new claim verifier
func NewVerifier(completer Completer) *Verifier {
	return &Verifier{completer: completer}
}

// Verify checks one claim against the shared source set. Calls are
// independent and order-insensitive, so claims can be verified concurrently.
// Every failure short of context cancellation degrades to an UNCLEAR result
// rather than an error.
func (v *Verifier) Verify(ctx context.Context, claim string, sources []models.Source) (Result, error) {
	// Search grounding supplements the retrieved sources with whatever the
	// model can find on its own.
	text, err := v.completer.Complete(ctx, buildPrompt(claim, sources), gemini.Options{
		Temperature:     verifyTemperature,
		MaxOutputTokens: verifyMaxTokens,
		EnableSearch:    true,
	})
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		return unclearResult("verification call failed"), nil
	}

	return parseVerdict(text), nil
}

// verdictResponse is the shape the model is asked to return.
type verdictResponse struct {
	Verdict    string `json:"verdict"`
	Confidence *int   `json:"confidence"`
	Reasoning  string `json:"reasoning"`
}

func parseVerdict(text string) Result {
	var vr verdictResponse
	if err := decode.Value(text, &vr); err != nil {
		return extractVerdict(text)
	}

	confidence := 50
	if vr.Confidence != nil {
		confidence = scoring.Clamp(*vr.Confidence, 0, 100)
	}

	verdict, known := normalizeVerdict(vr.Verdict)
	if !known {
		return unclearResult(capReasoning(vr.Reasoning))
	}

	reasoning := capReasoning(vr.Reasoning)
	if reasoning == "" {
		reasoning = "No reasoning provided"
	}

	return Result{Verdict: verdict, Confidence: confidence, Reasoning: reasoning}
}

// extractVerdict is the last-resort shape recovery: pull individual fields
// out of the malformed response and keep only values inside their valid
// domain.
func extractVerdict(text string) Result {
	raw, ok := decode.StringField(text, "verdict")
	if !ok {
		return unclearResult("unable to parse verification response")
	}
	verdict, known := normalizeVerdict(raw)
	if !known {
		return unclearResult("unable to parse verification response")
	}

	confidence := 50
	if n, ok := decode.IntField(text, "confidence"); ok && n >= 0 && n <= 100 {
		confidence = n
	}

	reasoning := "Recovered from malformed response"
	if r, ok := decode.StringField(text, "reasoning"); ok && strings.TrimSpace(r) != "" {
		reasoning = capReasoning(r)
	}

	return Result{Verdict: verdict, Confidence: confidence, Reasoning: reasoning}
}

func normalizeVerdict(s string) (models.Verdict, bool) {
	switch models.Verdict(strings.ToUpper(strings.TrimSpace(s))) {
	case models.VerdictTrue:
		return models.VerdictTrue, true
	case models.VerdictFalse:
		return models.VerdictFalse, true
	case models.VerdictUnclear:
		return models.VerdictUnclear, true
	}
	return models.VerdictUnclear, false
}

func unclearResult(reasoning string) Result {
	if reasoning == "" {
		reasoning = "Unable to verify"
	}
	return Result{
		Verdict:    models.VerdictUnclear,
		Confidence: 50,
		Reasoning:  reasoning,
	}
}

func capReasoning(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxReasoningLen {
		return s[:maxReasoningLen]
	}
	return s
}

func buildPrompt(claim string, sources []models.Source) string {
	type promptSource struct {
		Domain           string `json:"source"`
		Title            string `json:"title"`
		Snippet          string `json:"snippet"`
		CredibilityScore int    `json:"credibilityScore"`
	}
	ps := make([]promptSource, len(sources))
	for i, s := range sources {
		ps[i] = promptSource{
			Domain:           s.Domain,
			Title:            s.Title,
			Snippet:          s.Snippet,
			CredibilityScore: s.CredibilityScore,
		}
	}
	serialized, _ := json.Marshal(ps)

	return fmt.Sprintf(`You are a fact-checker. Analyze the given claim against the provided sources.

CRITICAL INSTRUCTIONS:
- Return ONLY a valid JSON object
- No markdown formatting, no code blocks, no explanations
- verdict must be exactly "TRUE", "FALSE", or "UNCLEAR"
- confidence must be an integer from 0-100
- reasoning must be a brief string

Required JSON format:
{"verdict": "TRUE", "confidence": 85, "reasoning": "This claim is supported by credible sources"}

Claim to check: %q
Available sources: %s

JSON response:`, claim, serialized)
}
