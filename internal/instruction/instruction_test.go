package instruction

import (
	"errors"
	"strings"
	"testing"
)

func TestBuild_Deterministic(t *testing.T) {
	fields := []string{"name", "date", "total_amount"}
	for _, mode := range []Mode{ModeManual, ModeAuto} {
		for _, format := range Formats {
			t.Run(mode.String()+"/"+format.String(), func(t *testing.T) {
				first, err := Build(mode, fields, format)
				if err != nil {
					t.Fatalf("Build() error = %v", err)
				}
				second, err := Build(mode, fields, format)
				if err != nil {
					t.Fatalf("Build() error = %v", err)
				}
				if first != second {
					t.Errorf("Build() not deterministic:\n%q\n%q", first, second)
				}
				if first == "" {
					t.Error("expected non-empty instruction")
				}
			})
		}
	}
}

func TestBuild_Manual(t *testing.T) {
	fields := []string{"name", "date", "total_amount"}
	tests := []struct {
		format   Format
		contains []string
	}{
		{FormatJSON, []string{"JSON object", "name, date, total_amount", "Return only the JSON."}},
		{FormatXML, []string{"root element <document>", "child elements: name, date, total_amount", "Return only the XML."}},
		{FormatMarkdown, []string{"headings for each of the following sections: name, date, total_amount", "Return only the Markdown."}},
		{FormatHTML, []string{"semantic tags", "name, date, total_amount", "Return only the HTML."}},
	}

	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			got, err := Build(ModeManual, fields, tt.format)
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("instruction %q missing %q", got, want)
				}
			}
		})
	}
}

func TestBuild_AutoIgnoresFields(t *testing.T) {
	for _, format := range Formats {
		withFields, err := Build(ModeAuto, []string{"ignored"}, format)
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}
		without, err := Build(ModeAuto, nil, format)
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}
		if withFields != without {
			t.Errorf("%s: auto instruction depends on fields", format)
		}
		if strings.Contains(withFields, "ignored") {
			t.Errorf("%s: auto instruction leaked field name", format)
		}
		if !strings.Contains(withFields, "Do not return explanations or plain text.") {
			t.Errorf("%s: auto instruction missing closing directive: %q", format, withFields)
		}
	}
}

func TestBuild_ManualWithoutFields(t *testing.T) {
	for _, fields := range [][]string{nil, {}, {"", "  "}} {
		_, err := Build(ModeManual, fields, FormatJSON)
		if !errors.Is(err, ErrNoFields) {
			t.Errorf("Build(Manual, %q) error = %v, want ErrNoFields", fields, err)
		}
	}
}

func TestBuildString_UnsupportedFormat(t *testing.T) {
	for _, mode := range []string{"Manual", "Auto"} {
		for _, fields := range [][]string{nil, {"name"}} {
			_, err := BuildString(mode, fields, "yaml")
			if !errors.Is(err, ErrUnsupportedFormat) {
				t.Errorf("BuildString(%s, %v, yaml) error = %v, want ErrUnsupportedFormat", mode, fields, err)
			}
		}
	}

	if _, err := Build(ModeManual, nil, Format(42)); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Build(Format(42)) error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestBuildString_CaseInsensitive(t *testing.T) {
	upper, err := BuildString("MANUAL", []string{"a"}, "MARKDOWN")
	if err != nil {
		t.Fatalf("BuildString() error = %v", err)
	}
	lower, err := BuildString("manual", []string{"a"}, "markdown")
	if err != nil {
		t.Fatalf("BuildString() error = %v", err)
	}
	if upper != lower {
		t.Errorf("case changed the instruction:\n%q\n%q", upper, lower)
	}
}

func TestParseFields(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"name, date, total_amount", []string{"name", "date", "total_amount"}},
		{" a ,, b ,", []string{"a", "b"}},
		{"", []string{}},
		{" , ", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseFields(tt.input)
			if len(got) != len(tt.expected) {
				t.Fatalf("ParseFields(%q) = %q, want %q", tt.input, got, tt.expected)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("index %d: got %q, want %q", i, got[i], tt.expected[i])
				}
			}
		})
	}
}

func TestNewRequest(t *testing.T) {
	t.Run("manual with fields", func(t *testing.T) {
		req, err := NewRequest("Manual", []string{" name ", ""}, "json")
		if err != nil {
			t.Fatalf("NewRequest() error = %v", err)
		}
		if len(req.Fields) != 1 || req.Fields[0] != "name" {
			t.Errorf("Fields = %q", req.Fields)
		}
		got, err := req.Instruction()
		if err != nil {
			t.Fatalf("Instruction() error = %v", err)
		}
		if !strings.Contains(got, "fields: name.") {
			t.Errorf("unexpected instruction %q", got)
		}
	})

	t.Run("auto drops fields", func(t *testing.T) {
		req, err := NewRequest("auto", []string{"name"}, "html")
		if err != nil {
			t.Fatalf("NewRequest() error = %v", err)
		}
		if len(req.Fields) != 0 {
			t.Errorf("expected no fields in auto mode, got %q", req.Fields)
		}
	})

	t.Run("manual without fields", func(t *testing.T) {
		if _, err := NewRequest("manual", nil, "json"); !errors.Is(err, ErrNoFields) {
			t.Errorf("error = %v, want ErrNoFields", err)
		}
	})

	t.Run("unknown mode", func(t *testing.T) {
		if _, err := NewRequest("guess", nil, "json"); !errors.Is(err, ErrUnknownMode) {
			t.Errorf("error = %v, want ErrUnknownMode", err)
		}
	})
}
