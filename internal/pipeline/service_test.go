package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/factlens/factlens/internal/gemini"
	"github.com/factlens/factlens/internal/verify"
	"github.com/factlens/factlens/pkg/models"
)

type fakeCompleter struct {
	mu        sync.Mutex
	responses []string
	err       error
	calls     int
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string, opts gemini.Options) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if len(f.responses) == 0 {
		return "", errors.New("no response configured")
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, nil
}

type fakeExtractor struct {
	claims []string
	err    error
}

func (f *fakeExtractor) Extract(ctx context.Context, content string) ([]string, error) {
	return f.claims, f.err
}

type fakeSourceFinder struct {
	sources []models.Source
}

func (f *fakeSourceFinder) FindSources(ctx context.Context, content string) []models.Source {
	return f.sources
}

type fakeVerifier struct {
	mu      sync.Mutex
	results map[string]verify.Result
	err     error
	delay   time.Duration
	active  int
	peak    int
}

func (f *fakeVerifier) Verify(ctx context.Context, claim string, sources []models.Source) (verify.Result, error) {
	f.mu.Lock()
	f.active++
	if f.active > f.peak {
		f.peak = f.active
	}
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	f.active--
	f.mu.Unlock()

	if f.err != nil {
		return verify.Result{}, f.err
	}
	if res, ok := f.results[claim]; ok {
		return res, nil
	}
	return verify.Result{Verdict: models.VerdictUnclear, Confidence: 50}, nil
}

func newTestService(c Completer, e ClaimExtractor, s SourceFinder, v ClaimVerifier) *Service {
	return NewService(c, e, s, v, DefaultConfig())
}

func someSources() []models.Source {
	return []models.Source{
		{URL: "https://www.reuters.com/a", Title: "A", Domain: "reuters.com", CredibilityScore: 90, RelevanceScore: 80, FinalScore: 87},
		{URL: "https://apnews.com/b", Title: "B", Domain: "apnews.com", CredibilityScore: 90, RelevanceScore: 60, FinalScore: 81},
		{URL: "https://www.bbc.com/c", Title: "C", Domain: "bbc.com", CredibilityScore: 85, RelevanceScore: 55, FinalScore: 76},
		{URL: "https://www.nytimes.com/d", Title: "D", Domain: "nytimes.com", CredibilityScore: 85, RelevanceScore: 40, FinalScore: 72},
	}
}

func TestAnalyze_FullReport(t *testing.T) {
	completer := &fakeCompleter{responses: []string{"Moon landing claims disputed online", "The post mixes one accurate and one inaccurate claim."}}
	extractor := &fakeExtractor{claims: []string{"claim one", "claim two"}}
	finder := &fakeSourceFinder{sources: someSources()}
	verifier := &fakeVerifier{results: map[string]verify.Result{
		"claim one": {Verdict: models.VerdictTrue, Confidence: 90, Reasoning: "well documented"},
		"claim two": {Verdict: models.VerdictFalse, Confidence: 80, Reasoning: "contradicted by sources"},
	}}

	report, err := newTestService(completer, extractor, finder, verifier).Analyze(context.Background(), "some post content")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if report.Headline != "Moon landing claims disputed online" {
		t.Errorf("headline = %q", report.Headline)
	}
	if len(report.FactChecks) != 2 {
		t.Fatalf("fact checks = %d, want 2", len(report.FactChecks))
	}

	// TRUE at confidence 90 with 4 sources: 80 + 18 + 8 = 100 (capped).
	// FALSE at confidence 80 with 4 sources: 20 - 16 + 8 = 12.
	first, second := report.FactChecks[0], report.FactChecks[1]
	if first.CredibilityScore != 100 {
		t.Errorf("first claim score = %d, want 100", first.CredibilityScore)
	}
	if second.CredibilityScore != 12 {
		t.Errorf("second claim score = %d, want 12", second.CredibilityScore)
	}
	if report.OverallCredibility != 56 {
		t.Errorf("overall = %d, want 56", report.OverallCredibility)
	}

	if len(first.SourcesUsed) != 3 {
		t.Errorf("sources attached to claim = %d, want 3", len(first.SourcesUsed))
	}
	if len(report.Sources) != 4 {
		t.Errorf("report sources = %d, want 4", len(report.Sources))
	}
	if report.Analysis == "" {
		t.Error("analysis is empty")
	}
}

func TestAnalyze_OrderPreservedUnderConcurrency(t *testing.T) {
	claims := []string{"c0", "c1", "c2", "c3", "c4", "c5", "c6", "c7"}
	results := make(map[string]verify.Result, len(claims))
	for _, c := range claims {
		results[c] = verify.Result{Verdict: models.VerdictTrue, Confidence: 70, Reasoning: "reason for " + c}
	}

	completer := &fakeCompleter{responses: []string{"headline", "analysis"}}
	verifier := &fakeVerifier{results: results, delay: 5 * time.Millisecond}
	svc := newTestService(completer, &fakeExtractor{claims: claims}, &fakeSourceFinder{}, verifier)

	report, err := svc.Analyze(context.Background(), "content")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	for i, fc := range report.FactChecks {
		if fc.Claim != claims[i] {
			t.Errorf("fact check %d = %q, want %q", i, fc.Claim, claims[i])
		}
	}
	if verifier.peak > DefaultConfig().VerifyConcurrency {
		t.Errorf("peak concurrency = %d, limit %d", verifier.peak, DefaultConfig().VerifyConcurrency)
	}
}

func TestAnalyze_EmptyContent(t *testing.T) {
	svc := newTestService(&fakeCompleter{}, &fakeExtractor{}, &fakeSourceFinder{}, &fakeVerifier{})
	if _, err := svc.Analyze(context.Background(), "   \n\t "); !errors.Is(err, ErrEmptyContent) {
		t.Errorf("err = %v, want ErrEmptyContent", err)
	}
}

func TestAnalyze_ContentTooLong(t *testing.T) {
	svc := newTestService(&fakeCompleter{}, &fakeExtractor{}, &fakeSourceFinder{}, &fakeVerifier{})
	if _, err := svc.Analyze(context.Background(), strings.Repeat("x", 10001)); !errors.Is(err, ErrContentTooLong) {
		t.Errorf("err = %v, want ErrContentTooLong", err)
	}
}

func TestAnalyze_ExtractionFailurePropagates(t *testing.T) {
	boom := errors.New("completion service down")
	svc := newTestService(&fakeCompleter{}, &fakeExtractor{err: boom}, &fakeSourceFinder{}, &fakeVerifier{})
	if _, err := svc.Analyze(context.Background(), "content"); !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped %v", err, boom)
	}
}

func TestAnalyze_NoClaimsNeutralReport(t *testing.T) {
	completer := &fakeCompleter{responses: []string{"headline", "analysis"}}
	svc := newTestService(completer, &fakeExtractor{claims: nil}, &fakeSourceFinder{}, &fakeVerifier{})

	report, err := svc.Analyze(context.Background(), "just an opinion, nothing checkable")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if report.OverallCredibility != 50 {
		t.Errorf("overall = %d, want neutral 50", report.OverallCredibility)
	}
	if len(report.FactChecks) != 0 {
		t.Errorf("fact checks = %d, want 0", len(report.FactChecks))
	}
}

func TestAnalyze_VerifierCancellationAborts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	verifier := &fakeVerifier{err: context.Canceled}
	svc := newTestService(&fakeCompleter{}, &fakeExtractor{claims: []string{"c"}}, &fakeSourceFinder{}, verifier)

	if _, err := svc.Analyze(ctx, "content"); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestAnalyze_HeadlineFallback(t *testing.T) {
	// First completion (headline) fails, second (analysis) fails too; both
	// fall back deterministically.
	completer := &fakeCompleter{err: errors.New("model unavailable")}
	extractor := &fakeExtractor{claims: []string{"claim"}}
	verifier := &fakeVerifier{results: map[string]verify.Result{
		"claim": {Verdict: models.VerdictUnclear, Confidence: 50},
	}}
	svc := newTestService(completer, extractor, &fakeSourceFinder{}, verifier)

	content := "one two three four five six seven eight nine ten eleven twelve"
	report, err := svc.Analyze(context.Background(), content)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if want := "one two three four five six seven eight nine ten"; report.Headline != want {
		t.Errorf("headline = %q, want %q", report.Headline, want)
	}
	if !strings.Contains(report.Analysis, "overall credibility score of 50") {
		t.Errorf("analysis fallback = %q", report.Analysis)
	}
}

func TestAnalyze_ContentTruncatedForPrompts(t *testing.T) {
	var seen string
	extractor := &capturingExtractor{captured: &seen}
	completer := &fakeCompleter{responses: []string{"headline", "analysis"}}
	svc := newTestService(completer, extractor, &fakeSourceFinder{}, &fakeVerifier{})

	if _, err := svc.Analyze(context.Background(), strings.Repeat("y", 5000)); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(seen) != DefaultConfig().MaxContentLen {
		t.Errorf("extractor saw %d bytes, want %d", len(seen), DefaultConfig().MaxContentLen)
	}
}

type capturingExtractor struct {
	captured *string
}

func (c *capturingExtractor) Extract(ctx context.Context, content string) ([]string, error) {
	*c.captured = content
	return nil, nil
}
