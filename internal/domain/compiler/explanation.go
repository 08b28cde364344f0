package compiler

// Explanation provides context for why a step exists and what it does.
// Shown by "stashprov plan --explain".
type Explanation struct {
	summary    string
	detail     string
	docLinks   []string
	condition  string
	provenance string
}

// NewExplanation creates a new Explanation.
func NewExplanation(summary, detail string, docLinks []string) Explanation {
	links := make([]string, len(docLinks))
	copy(links, docLinks)
	return Explanation{
		summary:  summary,
		detail:   detail,
		docLinks: links,
	}
}

// Summary returns a brief description of what the step does.
func (e Explanation) Summary() string {
	return e.summary
}

// Detail returns a longer explanation with context.
func (e Explanation) Detail() string {
	return e.detail
}

// DocLinks returns links to relevant documentation.
func (e Explanation) DocLinks() []string {
	links := make([]string, len(e.docLinks))
	copy(links, e.docLinks)
	return links
}

// Condition describes when the step runs, e.g. "database host is localhost".
func (e Explanation) Condition() string {
	return e.condition
}

// Provenance returns the bundle the step was compiled from.
func (e Explanation) Provenance() string {
	return e.provenance
}

// WithCondition returns a new Explanation with the run condition set.
func (e Explanation) WithCondition(condition string) Explanation {
	e.condition = condition
	return e
}

// WithProvenance returns a new Explanation with provenance set.
func (e Explanation) WithProvenance(provenance string) Explanation {
	e.provenance = provenance
	return e
}

// IsEmpty returns true if this explanation has no content.
func (e Explanation) IsEmpty() bool {
	return e.summary == "" && e.detail == ""
}
