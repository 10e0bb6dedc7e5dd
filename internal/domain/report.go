package domain

// Finding is one reported line in a local lint report: every message kept
// for that line, grouped summaries included.
type Finding struct {
	File     string   `json:"file"`
	Line     int      `json:"line"`
	Messages []string `json:"messages"`
}

// Report is the outcome of one local lint pass.
type Report struct {
	BaseRef     string    `json:"baseRef"`
	Uncommitted bool      `json:"uncommitted"`
	Files       int       `json:"files"`  // files that contributed changed lines
	Issues      int       `json:"issues"` // individual occurrences found
	Errored     bool      `json:"errored"`
	Findings    []Finding `json:"findings"`
}
