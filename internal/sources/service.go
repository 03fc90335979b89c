// Package sources retrieves candidate evidentiary sources for a post and
// ranks them by credibility and topical relevance.
package sources

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/factlens/factlens/internal/decode"
	"github.com/factlens/factlens/internal/gemini"
	"github.com/factlens/factlens/internal/scoring"
	"github.com/factlens/factlens/internal/search"
	"github.com/factlens/factlens/pkg/models"
)

const (
	scoreTemperature = 0.1
	scoreMaxTokens   = 500

	// Cap on hits handed to the scoring prompt.
	maxHitsToScore = 10
)

// Completer is the completion call used for AI-assisted source scoring.
type Completer interface {
	Complete(ctx context.Context, prompt string, opts gemini.Options) (string, error)
}

// Searcher is the news-search boundary.
type Searcher interface {
	SearchNews(ctx context.Context, query string) ([]search.Result, error)
}

// Config holds service configuration
type Config struct {
	// MinFinalScore drops sources scoring below it before ranking.
	MinFinalScore int

	// MaxSources caps how many ranked sources are returned.
	MaxSources int
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		MinFinalScore: 45,
		MaxSources:    5,
	}
}

// Service finds and scores sources for a piece of content.
type Service struct {
	completer Completer
	searcher  Searcher
	config    Config
}

// NewService creates a new source retrieval service
func NewService(completer Completer, searcher Searcher, config Config) *Service {
	if config.MinFinalScore <= 0 {
		config.MinFinalScore = DefaultConfig().MinFinalScore
	}
	if config.MaxSources <= 0 {
		config.MaxSources = DefaultConfig().MaxSources
	}

	return &Service{
		completer: completer,
		searcher:  searcher,
		config:    config,
	}
}

// FindSources searches for the content and returns scored, ranked sources.
// Search failure and empty result sets are non-fatal: callers get an empty
// slice and proceed without source evidence. Scoring-call failure degrades
// to the deterministic domain heuristic.
func (s *Service) FindSources(ctx context.Context, content string) []models.Source {
	hits, err := s.searcher.SearchNews(ctx, content)
	if err != nil || len(hits) == 0 {
		return nil
	}
	if len(hits) > maxHitsToScore {
		hits = hits[:maxHitsToScore]
	}

	scored, err := s.scoreWithModel(ctx, content, hits)
	if err != nil {
		scored = scoreHeuristic(content, hits)
	}

	kept := make([]models.Source, 0, len(scored))
	for _, src := range scored {
		if src.FinalScore >= s.config.MinFinalScore {
			kept = append(kept, src)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].FinalScore > kept[j].FinalScore
	})

	if len(kept) > s.config.MaxSources {
		kept = kept[:s.config.MaxSources]
	}
	return kept
}

// hitScore is one entry of the model's scoring response.
type hitScore struct {
	Index            int `json:"index"`
	CredibilityScore int `json:"credibilityScore"`
	RelevanceScore   int `json:"relevanceScore"`
}

func (s *Service) scoreWithModel(ctx context.Context, content string, hits []search.Result) ([]models.Source, error) {
	text, err := s.completer.Complete(ctx, buildScoringPrompt(content, hits), gemini.Options{
		Temperature:     scoreTemperature,
		MaxOutputTokens: scoreMaxTokens,
	})
	if err != nil {
		return nil, err
	}

	var scores []hitScore
	if err := decode.Value(text, &scores); err != nil {
		return nil, err
	}

	byIndex := make(map[int]hitScore, len(scores))
	for _, sc := range scores {
		byIndex[sc.Index] = sc
	}

	out := make([]models.Source, 0, len(hits))
	for i, hit := range hits {
		sc, ok := byIndex[i]
		if !ok {
			// Model skipped this hit; score it heuristically instead.
			sc = hitScore{
				CredibilityScore: domainCredibility(hit.Link),
				RelevanceScore:   relevanceOverlap(content, hit),
			}
		}
		out = append(out, buildSource(hit, sc.CredibilityScore, sc.RelevanceScore))
	}
	return out, nil
}

// scoreHeuristic is the deterministic fallback: reputation from the domain
// table, relevance from token overlap with the content.
func scoreHeuristic(content string, hits []search.Result) []models.Source {
	out := make([]models.Source, 0, len(hits))
	for _, hit := range hits {
		out = append(out, buildSource(hit,
			domainCredibility(hit.Link),
			relevanceOverlap(content, hit),
		))
	}
	return out
}

func buildSource(hit search.Result, credibility, relevance int) models.Source {
	credibility = scoring.Clamp(credibility, 0, 100)
	relevance = scoring.Clamp(relevance, 0, 100)
	return models.Source{
		URL:              hit.Link,
		Title:            hit.Title,
		Snippet:          hit.Snippet,
		Domain:           hostOf(hit.Link),
		CredibilityScore: credibility,
		RelevanceScore:   relevance,
		FinalScore:       scoring.SourceFinalScore(credibility, relevance),
	}
}

func buildScoringPrompt(content string, hits []search.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, `You are a media-credibility analyst. Score each search result below for source credibility (reputation of the outlet) and relevance to the given post. Return ONLY a valid JSON array, no markdown, no explanations, in this exact format:
[{"index": 0, "credibilityScore": 85, "relevanceScore": 70}]
Scores are integers 0-100. Include one entry per result, keyed by its index.

Post: %q

Results:
`, content)
	for i, hit := range hits {
		fmt.Fprintf(&b, "%d. %s (%s)\n   %s\n", i, hit.Title, hostOf(hit.Link), hit.Snippet)
	}
	b.WriteString("\nJSON response:")
	return b.String()
}

func hostOf(link string) string {
	u, err := url.Parse(link)
	if err != nil || u.Hostname() == "" {
		return link
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}
