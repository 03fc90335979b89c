package models

// Verdict is the fact-check judgment on a single claim.
type Verdict string

const (
	VerdictTrue    Verdict = "TRUE"
	VerdictFalse   Verdict = "FALSE"
	VerdictUnclear Verdict = "UNCLEAR"
)

// Source represents a piece of evidentiary material retrieved for a post.
// Scores are integers in [0,100]; FinalScore is derived from the other two
// and is the value sources are ranked and filtered by.
type Source struct {
	URL              string `json:"url"`
	Title            string `json:"title"`
	Snippet          string `json:"snippet"`
	Domain           string `json:"source"`
	CredibilityScore int    `json:"credibilityScore"`
	RelevanceScore   int    `json:"relevanceScore"`
	FinalScore       int    `json:"finalScore"`
}

// ClaimAssessment is the fact-check result for one extracted claim.
type ClaimAssessment struct {
	Claim            string   `json:"claim"`
	Verdict          Verdict  `json:"verdict"`
	Confidence       int      `json:"confidence"`
	Reasoning        string   `json:"reasoning"`
	CredibilityScore int      `json:"credibilityScore"`
	SourcesUsed      []Source `json:"sourcesUsed"`
}

// CredibilityReport is the final output of an analysis run.
type CredibilityReport struct {
	Headline           string            `json:"headline"`
	OverallCredibility int               `json:"credibilityScore"`
	FactChecks         []ClaimAssessment `json:"factChecks"`
	Sources            []Source          `json:"sources"`
	Analysis           string            `json:"analysis"`
}

// UsageLimits describes a user's quota state. Limit is nil for unmetered
// plans.
type UsageLimits struct {
	Plan     string `json:"plan"`
	Used     int    `json:"used"`
	Limit    *int   `json:"limit"`
	ResetsAt string `json:"resetsAt"`
}
