package parser

import (
	"github.com/jalad-shrimali/cdr-insight/airtel"
	"github.com/jalad-shrimali/cdr-insight/cdr"
	"github.com/jalad-shrimali/cdr-insight/jio"
)

// Profile is the per-vendor knowledge the parser needs.
type Profile interface {
	Format() cdr.Format
	Detect(line string) bool
	IsHeader(line string) bool
	Columns() []cdr.Column
	DateTimeLayouts() []string
	DateLayouts() []string
	Classify(code string) cdr.Category
	ExtractMetadata(lines []string, md *cdr.Metadata)
	Counterparty(f cdr.Fields, target string) string
	Coordinates(raw string) (*cdr.Coord, bool)
}

// profiles in detection priority order; the first is also the fallback.
var profiles = []Profile{airtel.Profile{}, jio.Profile{}}

const (
	detectScanLines = 20
	headerScanLines = 100
)

// ProfileFor returns the profile of a format, or nil.
func ProfileFor(f cdr.Format) Profile {
	for _, p := range profiles {
		if p.Format() == f {
			return p
		}
	}
	return nil
}

// Detect classifies the export from its first twenty lines. Each vendor's
// markers are checked over the whole window before the next vendor is tried.
// ok is false when nothing matched and the Airtel fallback was used.
func Detect(lines []string) (f cdr.Format, ok bool) {
	window := lines
	if len(window) > detectScanLines {
		window = window[:detectScanLines]
	}
	for _, p := range profiles {
		for _, line := range window {
			if p.Detect(line) {
				return p.Format(), true
			}
		}
	}
	return profiles[0].Format(), false
}

// FindHeader returns the 0-based index of the header row for format f.
func FindHeader(lines []string, f cdr.Format) (int, error) {
	p := ProfileFor(f)
	if p == nil {
		return -1, &cdr.ParseError{Op: "header", Format: f, Err: cdr.ErrHeaderNotFound}
	}
	for i, line := range lines {
		if i >= headerScanLines {
			break
		}
		if p.IsHeader(line) {
			return i, nil
		}
	}
	return -1, &cdr.ParseError{Op: "header", Format: f, Err: cdr.ErrHeaderNotFound}
}

// ExtractMetadata applies every vendor's preamble patterns; missing items stay empty.
func ExtractMetadata(lines []string) cdr.Metadata {
	var md cdr.Metadata
	for _, p := range profiles {
		p.ExtractMetadata(lines, &md)
	}
	return md
}
