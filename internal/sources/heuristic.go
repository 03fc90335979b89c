package sources

import (
	"strings"

	"github.com/factlens/factlens/internal/search"
)

// Reputation table for the deterministic fallback scorer. Wire services and
// fact-checkers rank above general mastheads; everything unknown gets a
// neutral score.
var mastheadCredibility = map[string]int{
	"reuters.com":            90,
	"apnews.com":             90,
	"ap.org":                 90,
	"bbc.com":                88,
	"npr.org":                85,
	"pbs.org":                85,
	"snopes.com":             85,
	"politifact.com":         85,
	"factcheck.org":          85,
	"nature.com":             90,
	"science.org":            90,
	"nejm.org":               88,
	"thelancet.com":          88,
	"who.int":                88,
	"un.org":                 85,
	"nytimes.com":            80,
	"washingtonpost.com":     80,
	"wsj.com":                80,
	"economist.com":          80,
	"theatlantic.com":        75,
	"time.com":               75,
	"usatoday.com":           72,
	"cnn.com":                70,
	"foxnews.com":            70,
	"nbcnews.com":            72,
	"abcnews.go.com":         72,
	"cbsnews.com":            72,
	"scientificamerican.com": 80,
}

// domainCredibility scores a source's reputation from its hostname alone:
// government and academic domains rank highest, then the masthead table.
func domainCredibility(link string) int {
	host := hostOf(link)

	if strings.HasSuffix(host, ".gov") || strings.HasSuffix(host, ".edu") {
		return 90
	}
	if score, ok := mastheadCredibility[host]; ok {
		return score
	}
	for masthead, score := range mastheadCredibility {
		if strings.HasSuffix(host, "."+masthead) {
			return score
		}
	}
	return 50
}

// relevanceOverlap estimates topical relevance as the share of content
// tokens that reappear in the hit's title and snippet.
func relevanceOverlap(content string, hit search.Result) int {
	contentTokens := tokenize(content)
	if len(contentTokens) == 0 {
		return 50
	}

	hitTokens := make(map[string]bool)
	for _, t := range tokenize(hit.Title + " " + hit.Snippet) {
		hitTokens[t] = true
	}

	seen := make(map[string]bool)
	matched := 0
	total := 0
	for _, t := range contentTokens {
		if seen[t] {
			continue
		}
		seen[t] = true
		total++
		if hitTokens[t] {
			matched++
		}
	}

	return matched * 100 / total
}

func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	})
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) >= 3 { // skip stopword-ish short tokens
			tokens = append(tokens, f)
		}
	}
	return tokens
}
