package pipeline

import (
	"testing"
)

func TestAggregate(t *testing.T) {
	tests := []struct {
		name  string
		pages []PageResult
		want  string
	}{
		{
			name: "empty",
			want: "",
		},
		{
			name: "two pages",
			pages: []PageResult{
				{Number: 1, Label: "Page 1", Text: "alpha"},
				{Number: 2, Label: "Page 2", Text: "beta"},
			},
			want: "--- Page 1 ---\nalpha\n\n--- Page 2 ---\nbeta\n\n",
		},
		{
			name:  "empty text keeps delimiter",
			pages: []PageResult{{Number: 1, Label: "Page 1"}},
			want:  "--- Page 1 ---\n\n\n",
		},
		{
			name:  "failed page",
			pages: []PageResult{{Number: 1, Label: "Page 1", Error: "timeout"}},
			want:  "--- Page 1 ---\n[extraction failed: timeout]\n\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Aggregate(tt.pages); got != tt.want {
				t.Errorf("Aggregate() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResult_Artifact(t *testing.T) {
	r := &Result{Pages: []PageResult{{Number: 1, Label: "Page 1", Text: `{"a":1}`}}}

	tests := []struct {
		format string
		ext    string
		mime   string
	}{
		{"JSON", "json", "application/json"},
		{"Markdown", "md", "text/markdown"},
		{"HTML", "html", "text/html"},
		{"XML", "xml", "application/xml"},
		{"csv", "txt", "text/plain"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			a, data := r.Artifact(tt.format)
			if a.Extension != tt.ext || a.MIMEType != tt.mime {
				t.Errorf("Artifact(%s) = %+v", tt.format, a)
			}
			if string(data) != "--- Page 1 ---\n{\"a\":1}\n\n" {
				t.Errorf("data = %q", data)
			}
		})
	}
}

func TestResult_Failed(t *testing.T) {
	r := &Result{Pages: []PageResult{{Error: "x"}, {}, {Error: "y"}}}
	if r.Failed() != 2 {
		t.Errorf("Failed() = %d, want 2", r.Failed())
	}
}
