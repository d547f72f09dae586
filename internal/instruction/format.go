package instruction

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupportedFormat is returned for any output format other than
	// JSON, XML, Markdown or HTML.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrUnknownMode is returned when the extraction mode is neither Manual nor Auto.
	ErrUnknownMode = errors.New("unknown extraction mode")

	// ErrNoFields is returned when Manual mode is requested without any field names.
	ErrNoFields = errors.New("manual mode requires at least one field name")
)

// Mode selects whether the caller names the fields or the model infers them.
type Mode int

const (
	ModeManual Mode = iota + 1
	ModeAuto
)

// ParseMode parses "manual" or "auto" (case-insensitive).
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "manual":
		return ModeManual, nil
	case "auto":
		return ModeAuto, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

func (m Mode) String() string {
	switch m {
	case ModeManual:
		return "Manual"
	case ModeAuto:
		return "Auto"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Format is the structure the model is asked to emit.
type Format int

const (
	FormatJSON Format = iota + 1
	FormatXML
	FormatMarkdown
	FormatHTML
)

// Formats lists every supported format in display order.
var Formats = []Format{FormatJSON, FormatXML, FormatMarkdown, FormatHTML}

// ParseFormat parses a format name (case-insensitive).
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "xml":
		return FormatXML, nil
	case "markdown":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedFormat, s)
	}
}

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "JSON"
	case FormatXML:
		return "XML"
	case FormatMarkdown:
		return "Markdown"
	case FormatHTML:
		return "HTML"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

func (f Format) valid() bool {
	return f >= FormatJSON && f <= FormatHTML
}

// Language returns the lowercase name used for code highlighting.
func (f Format) Language() string {
	return strings.ToLower(f.String())
}

// Extension returns the file extension (without dot) for the aggregate artifact.
func (f Format) Extension() string {
	return f.Artifact().Extension
}

// MIMEType returns the MIME type of the aggregate artifact.
func (f Format) MIMEType() string {
	return f.Artifact().MIMEType
}

// Artifact returns the download metadata for f. Unknown values fall back
// to plain text.
func (f Format) Artifact() Artifact {
	switch f {
	case FormatJSON:
		return Artifact{Extension: "json", MIMEType: "application/json"}
	case FormatXML:
		return Artifact{Extension: "xml", MIMEType: "application/xml"}
	case FormatMarkdown:
		return Artifact{Extension: "md", MIMEType: "text/markdown"}
	case FormatHTML:
		return Artifact{Extension: "html", MIMEType: "text/html"}
	default:
		return plainText
	}
}

// DefaultArtifactName is the base filename of the downloadable aggregate.
const DefaultArtifactName = "extracted_output"

// Artifact describes the downloadable aggregate file.
type Artifact struct {
	Extension string `json:"extension"`
	MIMEType  string `json:"mime_type"`
}

var plainText = Artifact{Extension: "txt", MIMEType: "text/plain"}

// ArtifactFor maps a format name to its artifact metadata.
// Unrecognized names map to .txt / text/plain.
func ArtifactFor(format string) Artifact {
	f, err := ParseFormat(format)
	if err != nil {
		return plainText
	}
	return f.Artifact()
}

// Filename returns base.ext, using DefaultArtifactName when base is empty.
func (a Artifact) Filename(base string) string {
	if base == "" {
		base = DefaultArtifactName
	}
	return base + "." + a.Extension
}
