package report

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownFormat is returned for an output format other than console,
// json or csv.
var ErrUnknownFormat = errors.New("unknown output format")

// Format is a report output format.
type Format int

const (
	// FormatConsole is human-readable text.
	FormatConsole Format = iota
	// FormatJSON is a pretty-printed JSON document.
	FormatJSON
	// FormatCSV is a sectioned CSV file.
	FormatCSV
)

// String returns the name used on the command line and in config files.
func (f Format) String() string {
	switch f {
	case FormatConsole:
		return "console"
	case FormatJSON:
		return "json"
	case FormatCSV:
		return "csv"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// ParseFormat converts a format name to a Format. Matching ignores case and
// surrounding spaces.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "console":
		return FormatConsole, nil
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	default:
		return 0, fmt.Errorf("%w: %q (want one of %s)", ErrUnknownFormat, s, strings.Join(FormatNames(), ", "))
	}
}

// FormatNames lists the supported format names.
func FormatNames() []string {
	return []string{FormatConsole.String(), FormatJSON.String(), FormatCSV.String()}
}
