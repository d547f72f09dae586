// Package instruction builds the system directive sent to the vision model
// for every page of a document.
package instruction

import (
	"fmt"
	"strings"
)

// DefaultFields is the field list offered for Manual mode when the caller
// has not chosen one.
const DefaultFields = "name, date, total_amount"

// Request is an immutable extraction request.
type Request struct {
	Mode   Mode
	Fields []string
	Format Format
}

// NewRequest parses string inputs into a validated Request.
// Fields are ignored in Auto mode.
func NewRequest(mode string, fields []string, format string) (Request, error) {
	m, err := ParseMode(mode)
	if err != nil {
		return Request{}, err
	}
	f, err := ParseFormat(format)
	if err != nil {
		return Request{}, err
	}
	req := Request{Mode: m, Format: f}
	if m == ModeManual {
		req.Fields = cleanFields(fields)
	}
	if err := req.Validate(); err != nil {
		return Request{}, err
	}
	return req, nil
}

// Validate checks the Manual-mode field requirement.
func (r Request) Validate() error {
	switch r.Mode {
	case ModeManual:
		if len(cleanFields(r.Fields)) == 0 {
			return ErrNoFields
		}
	case ModeAuto:
	default:
		return fmt.Errorf("%w: %s", ErrUnknownMode, r.Mode)
	}
	if !r.Format.valid() {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, r.Format)
	}
	return nil
}

// Instruction builds the directive for r.
func (r Request) Instruction() (string, error) {
	return Build(r.Mode, r.Fields, r.Format)
}

// ParseFields splits a comma-separated field list, trimming whitespace and
// dropping empty entries.
func ParseFields(raw string) []string {
	return cleanFields(strings.Split(raw, ","))
}

func cleanFields(fields []string) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// BuildString is Build with string-typed mode and format.
func BuildString(mode string, fields []string, format string) (string, error) {
	m, err := ParseMode(mode)
	if err != nil {
		return "", err
	}
	f, err := ParseFormat(format)
	if err != nil {
		return "", err
	}
	return Build(m, fields, f)
}

// Build returns the natural-language directive for the given mode, fields
// and format. It is a pure function of its arguments.
func Build(mode Mode, fields []string, format Format) (string, error) {
	if !format.valid() {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	switch mode {
	case ModeManual:
		names := cleanFields(fields)
		if len(names) == 0 {
			return "", ErrNoFields
		}
		return manual(strings.Join(names, ", "), format)
	case ModeAuto:
		return auto(format)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownMode, mode)
	}
}

func manual(fieldList string, format Format) (string, error) {
	const lead = "Extract all relevant text from the image and structure it as "
	switch format {
	case FormatJSON:
		return lead + "a JSON object with the following fields: " + fieldList +
			". Return only the JSON.", nil
	case FormatXML:
		return lead + "an XML document with a root element <document> and the following child elements: " +
			fieldList + ". Return only the XML.", nil
	case FormatMarkdown:
		return lead + "a Markdown document with headings for each of the following sections: " +
			fieldList + ". Return only the Markdown.", nil
	case FormatHTML:
		return lead + "an HTML document using semantic tags (e.g., headings, paragraphs) for the following sections: " +
			fieldList + ". Return only the HTML.", nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

func auto(format Format) (string, error) {
	const tail = " Do not return explanations or plain text."
	switch format {
	case FormatJSON:
		return "Analyze this image and return the extracted content as a well-structured JSON object. " +
			"Guess the most meaningful keys based on the layout." + tail, nil
	case FormatXML:
		return "Analyze this image and return the extracted content as a well-structured XML document " +
			"with meaningful tag names based on the layout." + tail, nil
	case FormatMarkdown:
		return "Analyze this image and return the extracted content formatted as Markdown " +
			"using headings and lists based on the content." + tail, nil
	case FormatHTML:
		return "Analyze this image and return the extracted content formatted as HTML " +
			"using semantic tags based on the content." + tail, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}
