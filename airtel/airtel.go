// Package airtel describes the Airtel (vendor A) CDR export: how to spot it,
// where its header sits, which columns feed the canonical record and how its
// call-type codes classify.
package airtel

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/jalad-shrimali/cdr-insight/cdr"
)

// Profile implements the parser's vendor contract for Airtel exports.
type Profile struct{}

func (Profile) Format() cdr.Format { return cdr.FormatAirtel }

/* ──────────── detection & header anchor ──────────── */

// Detect reports whether a preamble line carries an Airtel marker.
func (Profile) Detect(line string) bool {
	return strings.Contains(strings.ToUpper(line), "BHARTI AIRTEL") || isHeader(line)
}

// IsHeader reports whether line is the tabular header row.
func (Profile) IsHeader(line string) bool { return isHeader(line) }

func isHeader(line string) bool {
	return strings.Contains(line, "Target No") && strings.Contains(line, "Call Type")
}

/* ──────────── column synonyms (matched trim-and-lowered) ──────────── */

var columns = []cdr.Column{
	{Field: cdr.FieldTarget, Candidates: []string{"Target No"}},
	{Field: cdr.FieldBParty, Candidates: []string{"B Party No", "B Party Number", "B Party"}},
	{Field: cdr.FieldDate, Candidates: []string{"Date", "Call Date"}},
	{Field: cdr.FieldTime, Candidates: []string{"Time", "Call Time"}},
	{Field: cdr.FieldDuration, Candidates: []string{"Dur(s)", "Duration", "Call Duration"}},
	{Field: cdr.FieldCallType, Candidates: []string{"Call Type"}},
	{Field: cdr.FieldFirstLatLong, Candidates: []string{"First CGI Lat/Long"}},
	{Field: cdr.FieldLastLatLong, Candidates: []string{"Last CGI Lat/Long"}},
	{Field: cdr.FieldFirstCell, Candidates: []string{"First CGI", "First Cell ID"}},
	{Field: cdr.FieldLastCell, Candidates: []string{"Last CGI", "Last Cell ID"}},
	{Field: cdr.FieldIMEI, Candidates: []string{"IMEI"}},
	{Field: cdr.FieldIMSI, Candidates: []string{"IMSI"}},
}

func (Profile) Columns() []cdr.Column { return columns }

// DateTimeLayouts are tried in order on "<date> <time>".
func (Profile) DateTimeLayouts() []string {
	return []string{"02/01/2006 15:04:05", "02-Jan-2006 15:04:05", "2006-01-02 15:04:05"}
}

// DateLayouts are the date-only fallbacks; time becomes midnight.
func (Profile) DateLayouts() []string {
	return []string{"02/01/2006", "02-Jan-2006", "2006-01-02"}
}

/* ──────────── call type ──────────── */

// Classify maps an Airtel call-type code; the first matching rule wins.
func (Profile) Classify(code string) cdr.Category {
	code = strings.ToUpper(cdr.Unquote(code))
	switch {
	case code == "":
		return cdr.UnknownType
	case strings.Contains(code, "IN"):
		return cdr.IncomingCall
	case strings.Contains(code, "OUT"):
		return cdr.OutgoingCall
	case strings.Contains(code, "SMT"), strings.Contains(code, "SMS"):
		return cdr.SMSReceived
	case strings.Contains(code, "SMO"):
		return cdr.SMSSent
	default:
		return cdr.Other
	}
}

/* ──────────── preamble metadata ──────────── */

var callDetailsRE = regexp.MustCompile(`'(\d+)'.*'(.+?)'.*'(.+?)'`)

// ExtractMetadata reads the target number and reporting window from
// "Call Details of Mobile No '…' from '…' to '…'" within the first ten lines.
func (Profile) ExtractMetadata(lines []string, md *cdr.Metadata) {
	for _, line := range head(lines, 10) {
		if strings.Contains(line, "Call Details of Mobile No") {
			if m := callDetailsRE.FindStringSubmatch(line); len(m) > 3 {
				md.TargetNumber, md.StartDate, md.EndDate = m[1], m[2], m[3]
			}
		}
		if strings.Contains(strings.ToUpper(line), "AIRTEL") {
			md.Operator = "Airtel"
		}
	}
}

// Counterparty is the B Party column as exported.
func (Profile) Counterparty(f cdr.Fields, _ string) string { return f[cdr.FieldBParty] }

// Coordinates parses "lat/long". ok is false only for a present but malformed value.
func (Profile) Coordinates(raw string) (c *cdr.Coord, ok bool) {
	raw = cdr.Unquote(raw)
	if raw == "" {
		return nil, true
	}
	parts := strings.Split(raw, "/")
	if len(parts) != 2 {
		return nil, false
	}
	lat, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lon, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err1 != nil || err2 != nil {
		return nil, false
	}
	return &cdr.Coord{Lat: lat, Long: lon}, true
}

func head(lines []string, n int) []string {
	if len(lines) > n {
		return lines[:n]
	}
	return lines
}
