package main

import (
	"errors"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/pdfextract/internal/instruction"
)

func newRequestCmd(t *testing.T, args ...string) (*cobra.Command, *string, *string, *string) {
	t.Helper()
	var mode, fields, format string
	cmd := &cobra.Command{Use: "test"}
	addRequestFlags(cmd, &mode, &fields, &format)
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	return cmd, &mode, &fields, &format
}

func TestRequestFromFlags(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantMode   instruction.Mode
		wantFields []string
		wantFormat instruction.Format
		wantErr    error
	}{
		{
			name:       "no flags is auto json",
			wantMode:   instruction.ModeAuto,
			wantFormat: instruction.FormatJSON,
		},
		{
			name:       "fields imply manual",
			args:       []string{"--fields", "invoice_no, vendor"},
			wantMode:   instruction.ModeManual,
			wantFields: []string{"invoice_no", "vendor"},
			wantFormat: instruction.FormatJSON,
		},
		{
			name:       "manual uses default fields",
			args:       []string{"--mode", "manual", "-f", "xml"},
			wantMode:   instruction.ModeManual,
			wantFields: []string{"name", "date", "total_amount"},
			wantFormat: instruction.FormatXML,
		},
		{
			name:    "explicit empty fields",
			args:    []string{"--mode", "manual", "--fields", " , "},
			wantErr: instruction.ErrNoFields,
		},
		{
			name:    "unsupported format",
			args:    []string{"--mode", "auto", "-f", "csv"},
			wantErr: instruction.ErrUnsupportedFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, mode, fields, format := newRequestCmd(t, tt.args...)
			req, text, err := requestFromFlags(cmd, *mode, *fields, *format)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("requestFromFlags() error = %v", err)
			}
			if req.Mode != tt.wantMode || req.Format != tt.wantFormat {
				t.Errorf("request = %+v", req)
			}
			if strings.Join(req.Fields, "|") != strings.Join(tt.wantFields, "|") {
				t.Errorf("fields = %v, want %v", req.Fields, tt.wantFields)
			}
			if text == "" {
				t.Error("empty instruction")
			}
		})
	}
}

func TestMaskSecret(t *testing.T) {
	tests := map[string]string{
		"":                   "",
		"${OPENAI_API_KEY}":  "${OPENAI_API_KEY}",
		"short":              "****",
		"sk-abcdefghijklmno": "****lmno",
	}
	for in, want := range tests {
		if got := maskSecret(in); got != want {
			t.Errorf("maskSecret(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewLogger(t *testing.T) {
	for _, tt := range []struct {
		level, format string
		ok            bool
	}{
		{"info", "text", true},
		{"debug", "json", true},
		{"WARN", "", true},
		{"loud", "text", false},
		{"info", "xml", false},
	} {
		_, err := newLogger(tt.level, tt.format)
		if (err == nil) != tt.ok {
			t.Errorf("newLogger(%q, %q) error = %v", tt.level, tt.format, err)
		}
	}
}
