// Package scoring converts fact-check verdicts and source evidence into
// credibility scores. All scores produced here are already clamped to
// [0,100]; consumers never re-validate them.
package scoring

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/factlens/factlens/pkg/models"
)

const (
	// Per-source bonus applied to a claim's score, capped so a pile of weak
	// sources cannot inflate a claim.
	sourceBonusPerSource = 2
	maxSourceBonus       = 10

	// Overall score when there are no claims. Neutral, not zero: absence of
	// claims says nothing about falsehood.
	neutralScore = 50
)

// ClaimScore converts one claim's verdict, confidence and supporting-source
// count into a credibility score. True and false verdicts are pulled toward
// the extremes proportionally to confidence; unclear verdicts stay centered.
func ClaimScore(verdict models.Verdict, confidence, sourceCount int) int {
	c := float64(Clamp(confidence, 0, 100))

	var base float64
	switch verdict {
	case models.VerdictTrue:
		base = 80 + c*0.2
	case models.VerdictFalse:
		base = 20 - c*0.2
	default:
		base = 40 + c*0.2
	}

	bonus := math.Min(float64(sourceCount)*sourceBonusPerSource, maxSourceBonus)

	return Clamp(int(math.Round(base+bonus)), 0, 100)
}

// Overall combines per-claim scores into one overall credibility score: the
// rounded arithmetic mean, or the neutral score when no claims were
// extracted.
func Overall(claimScores []int) int {
	if len(claimScores) == 0 {
		return neutralScore
	}

	vals := make([]float64, len(claimScores))
	for i, s := range claimScores {
		vals[i] = float64(s)
	}

	return Clamp(int(math.Round(stat.Mean(vals, nil))), 0, 100)
}

// SourceFinalScore derives a source's ranking score from its credibility and
// topical relevance. Reputation dominates relevance.
func SourceFinalScore(credibility, relevance int) int {
	c := float64(Clamp(credibility, 0, 100))
	r := float64(Clamp(relevance, 0, 100))
	return int(math.Round(0.7*c + 0.3*r))
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
