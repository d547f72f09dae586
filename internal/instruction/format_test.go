package instruction

import (
	"errors"
	"testing"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input string
		want  Format
	}{
		{"JSON", FormatJSON},
		{"json", FormatJSON},
		{" Xml ", FormatXML},
		{"Markdown", FormatMarkdown},
		{"HTML", FormatHTML},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.input)
		if err != nil {
			t.Errorf("ParseFormat(%q) error = %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}

	for _, bad := range []string{"yaml", "md", "", "txt"} {
		if _, err := ParseFormat(bad); !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("ParseFormat(%q) error = %v, want ErrUnsupportedFormat", bad, err)
		}
	}
}

func TestArtifactFor(t *testing.T) {
	tests := []struct {
		format   string
		ext      string
		mimeType string
	}{
		{"JSON", "json", "application/json"},
		{"XML", "xml", "application/xml"},
		{"Markdown", "md", "text/markdown"},
		{"HTML", "html", "text/html"},
		{"yaml", "txt", "text/plain"},
		{"", "txt", "text/plain"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			a := ArtifactFor(tt.format)
			if a.Extension != tt.ext {
				t.Errorf("Extension = %q, want %q", a.Extension, tt.ext)
			}
			if a.MIMEType != tt.mimeType {
				t.Errorf("MIMEType = %q, want %q", a.MIMEType, tt.mimeType)
			}
		})
	}
}

func TestArtifact_Filename(t *testing.T) {
	if got := FormatMarkdown.Artifact().Filename(""); got != "extracted_output.md" {
		t.Errorf("Filename() = %q", got)
	}
	if got := FormatJSON.Artifact().Filename("invoice"); got != "invoice.json" {
		t.Errorf("Filename() = %q", got)
	}
}

func TestFormat_Language(t *testing.T) {
	if got := FormatMarkdown.Language(); got != "markdown" {
		t.Errorf("Language() = %q", got)
	}
	if got := FormatJSON.Extension(); got != "json" {
		t.Errorf("Extension() = %q", got)
	}
	if got := FormatHTML.MIMEType(); got != "text/html" {
		t.Errorf("MIMEType() = %q", got)
	}
}
