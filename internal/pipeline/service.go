// Package pipeline orchestrates the credibility assessment: claim
// extraction, source retrieval, concurrent per-claim verification, score
// aggregation, and report assembly.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/factlens/factlens/internal/gemini"
	"github.com/factlens/factlens/internal/scoring"
	"github.com/factlens/factlens/internal/verify"
	"github.com/factlens/factlens/pkg/models"
)

var (
	ErrEmptyContent   = errors.New("content is empty")
	ErrContentTooLong = errors.New("content exceeds maximum length")
)

const (
	// Attached to each claim assessment; the full ranked list still appears
	// on the report.
	maxSourcesPerClaim = 3

	headlineTemperature = 0.3
	headlineMaxTokens   = 50
	analysisTemperature = 0.3
	analysisMaxTokens   = 200
)

// Completer is the completion call used for headline and summary generation.
type Completer interface {
	Complete(ctx context.Context, prompt string, opts gemini.Options) (string, error)
}

// ClaimExtractor produces the ordered claim list for a post.
type ClaimExtractor interface {
	Extract(ctx context.Context, content string) ([]string, error)
}

// SourceFinder retrieves ranked sources for a post.
type SourceFinder interface {
	FindSources(ctx context.Context, content string) []models.Source
}

// ClaimVerifier checks one claim against the shared source set.
type ClaimVerifier interface {
	Verify(ctx context.Context, claim string, sources []models.Source) (verify.Result, error)
}

// Config holds pipeline configuration
type Config struct {
	// MaxContentLen caps how much of the post is embedded in prompts.
	MaxContentLen int

	// RejectContentLen is the hard input bound; longer submissions are
	// rejected outright instead of silently truncated down to nothing
	// useful.
	RejectContentLen int

	// VerifyConcurrency bounds the per-claim verification worker pool.
	VerifyConcurrency int
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		MaxContentLen:     2000,
		RejectContentLen:  10000,
		VerifyConcurrency: 4,
	}
}

// Service runs the assessment pipeline. All entities it produces live for a
// single Analyze call; nothing is persisted.
type Service struct {
	completer Completer
	extractor ClaimExtractor
	sources   SourceFinder
	verifier  ClaimVerifier
	config    Config
}

// NewService creates a new pipeline service
func NewService(completer Completer, extractor ClaimExtractor, sources SourceFinder, verifier ClaimVerifier, config Config) *Service {
	def := DefaultConfig()
	if config.MaxContentLen <= 0 {
		config.MaxContentLen = def.MaxContentLen
	}
	if config.RejectContentLen <= 0 {
		config.RejectContentLen = def.RejectContentLen
	}
	if config.VerifyConcurrency <= 0 {
		config.VerifyConcurrency = def.VerifyConcurrency
	}

	return &Service{
		completer: completer,
		extractor: extractor,
		sources:   sources,
		verifier:  verifier,
		config:    config,
	}
}

// Analyze assesses the credibility of content and returns the full report.
// Recoverable upstream degradations (undecodable model output, missing
// sources, single-claim verification failure) produce a degraded report;
// caller cancellation and completion-service exhaustion produce an error and
// no report.
func (s *Service) Analyze(ctx context.Context, content string) (*models.CredibilityReport, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	if len(content) > s.config.RejectContentLen {
		return nil, ErrContentTooLong
	}
	if len(content) > s.config.MaxContentLen {
		content = content[:s.config.MaxContentLen]
	}

	claims, err := s.extractor.Extract(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("extract claims: %w", err)
	}

	srcs := s.sources.FindSources(ctx, content)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	assessments, err := s.verifyAll(ctx, claims, srcs)
	if err != nil {
		return nil, err
	}

	scores := make([]int, len(assessments))
	for i, a := range assessments {
		scores[i] = a.CredibilityScore
	}
	overall := scoring.Overall(scores)

	headline, err := s.generateHeadline(ctx, content)
	if err != nil {
		return nil, err
	}
	analysis, err := s.generateAnalysis(ctx, content, assessments, srcs, overall)
	if err != nil {
		return nil, err
	}

	return &models.CredibilityReport{
		Headline:           headline,
		OverallCredibility: overall,
		FactChecks:         assessments,
		Sources:            srcs,
		Analysis:           analysis,
	}, nil
}

// verifyAll runs claim verifications on a bounded worker pool. Each worker
// writes only its own slot, so report order always matches extraction order
// regardless of completion order. Sources are shared read-only across
// workers.
func (s *Service) verifyAll(ctx context.Context, claims []string, srcs []models.Source) ([]models.ClaimAssessment, error) {
	assessments := make([]models.ClaimAssessment, len(claims))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.VerifyConcurrency)

	for i, claim := range claims {
		i, claim := i, claim
		g.Go(func() error {
			res, err := s.verifier.Verify(gctx, claim, srcs)
			if err != nil {
				return err // cancellation only
			}
			assessments[i] = buildAssessment(claim, res, srcs)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return assessments, nil
}

func buildAssessment(claim string, res verify.Result, srcs []models.Source) models.ClaimAssessment {
	used := srcs
	if len(used) > maxSourcesPerClaim {
		used = used[:maxSourcesPerClaim]
	}

	return models.ClaimAssessment{
		Claim:            claim,
		Verdict:          res.Verdict,
		Confidence:       res.Confidence,
		Reasoning:        res.Reasoning,
		CredibilityScore: scoring.ClaimScore(res.Verdict, res.Confidence, len(srcs)),
		SourcesUsed:      used,
	}
}

// generateHeadline asks the model for a short summary headline, falling back
// to a truncation of the content itself. The fallback is deterministic; only
// cancellation aborts.
func (s *Service) generateHeadline(ctx context.Context, content string) (string, error) {
	prompt := fmt.Sprintf(`You are a professional news editor. Create a concise, factual headline (maximum 10 words) that summarizes the main claim or statement in the given text. Focus on the most newsworthy or controversial claim.

Create a headline for this post: %q

Return only the headline text, no quotes or formatting.`, content)

	text, err := s.completer.Complete(ctx, prompt, gemini.Options{
		Temperature:     headlineTemperature,
		MaxOutputTokens: headlineMaxTokens,
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return fallbackHeadline(content), nil
	}

	headline := strings.Trim(strings.TrimSpace(text), `"'`)
	if headline == "" {
		return fallbackHeadline(content), nil
	}
	return headline, nil
}

func (s *Service) generateAnalysis(ctx context.Context, content string, assessments []models.ClaimAssessment, srcs []models.Source, overall int) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, `You are a fact-checking analyst. Provide a brief, objective analysis of the credibility of the given content based on the individual claim verdicts, the overall credibility score, and the evaluated sources. Keep it under 150 words.

Content: %q
Overall credibility score: %d%%

Claim verdicts:
`, content, overall)
	for i, a := range assessments {
		fmt.Fprintf(&b, "%d. %q -> %s (confidence %d, score %d)\n", i+1, a.Claim, a.Verdict, a.Confidence, a.CredibilityScore)
	}
	b.WriteString("\nSources:\n")
	for _, src := range srcs {
		fmt.Fprintf(&b, "- %s (credibility %d, relevance %d)\n", src.Domain, src.CredibilityScore, src.RelevanceScore)
	}

	text, err := s.completer.Complete(ctx, b.String(), gemini.Options{
		Temperature:     analysisTemperature,
		MaxOutputTokens: analysisMaxTokens,
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return fallbackAnalysis(len(assessments), len(srcs), overall), nil
	}

	analysis := strings.TrimSpace(text)
	if analysis == "" {
		return fallbackAnalysis(len(assessments), len(srcs), overall), nil
	}
	return analysis, nil
}

// fallbackHeadline takes the first ten words of the content.
func fallbackHeadline(content string) string {
	words := strings.Fields(content)
	if len(words) > 10 {
		words = words[:10]
	}
	return strings.Join(words, " ")
}

func fallbackAnalysis(claimCount, sourceCount, overall int) string {
	return fmt.Sprintf(
		"Automated review assessed %d claim(s) against %d source(s) and produced an overall credibility score of %d out of 100.",
		claimCount, sourceCount, overall)
}
