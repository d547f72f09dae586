package pipeline

import (
	"strings"
	"time"

	"github.com/jackzampolin/pdfextract/internal/instruction"
)

// Result is the outcome of one Extract call.
type Result struct {
	RunID    string        `json:"run_id"`
	Provider string        `json:"provider"`
	Model    string        `json:"model"`
	Pages    []PageResult  `json:"pages"`
	Elapsed  time.Duration `json:"elapsed"`
}

// PageResult is the model's output for one page.
type PageResult struct {
	Number int    `json:"number"`
	Label  string `json:"label"`
	Text   string `json:"text"`

	// Error is set only in partial-results mode when this page failed.
	Error string `json:"error,omitempty"`

	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
}

// Failed returns the number of pages carrying an error marker.
func (r *Result) Failed() int {
	n := 0
	for _, p := range r.Pages {
		if p.Error != "" {
			n++
		}
	}
	return n
}

// Aggregate concatenates every page as "--- <label> ---\n<text>\n\n".
func (r *Result) Aggregate() string {
	return Aggregate(r.Pages)
}

// Artifact returns the download metadata for format together with the
// aggregated bytes.
func (r *Result) Artifact(format string) (instruction.Artifact, []byte) {
	return instruction.ArtifactFor(format), []byte(r.Aggregate())
}

// Aggregate concatenates page results in the order given. Failed pages in
// partial-results mode contribute an error marker instead of text.
func Aggregate(pages []PageResult) string {
	var b strings.Builder
	for _, p := range pages {
		text := p.Text
		if p.Error != "" {
			text = "[extraction failed: " + p.Error + "]"
		}
		b.WriteString("--- ")
		b.WriteString(p.Label)
		b.WriteString(" ---\n")
		b.WriteString(text)
		b.WriteString("\n\n")
	}
	return b.String()
}
