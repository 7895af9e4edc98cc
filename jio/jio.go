// Package jio describes the Jio (vendor B) CDR export. Jio rows carry cell
// identifiers but no GPS attributes.
package jio

import (
	"regexp"
	"strings"

	"github.com/jalad-shrimali/cdr-insight/cdr"
)

// Profile implements the parser's vendor contract for Jio exports.
type Profile struct{}

func (Profile) Format() cdr.Format { return cdr.FormatJio }

const callingHeader = "Calling Party Telephone Number"

func (Profile) Detect(line string) bool {
	return strings.Contains(line, callingHeader) || strings.Contains(line, "Ticket Number")
}

func (Profile) IsHeader(line string) bool { return strings.Contains(line, callingHeader) }

var columns = []cdr.Column{
	{Field: cdr.FieldCalling, Candidates: []string{callingHeader}},
	{Field: cdr.FieldCalled, Candidates: []string{"Called Party Telephone Number"}},
	{Field: cdr.FieldDate, Candidates: []string{"Call Date"}},
	{Field: cdr.FieldTime, Candidates: []string{"Call Time"}},
	{Field: cdr.FieldDuration, Candidates: []string{"Call Duration", "Dur(s)", "Duration(sec)"}},
	{Field: cdr.FieldCallType, Candidates: []string{"Call Type"}},
	{Field: cdr.FieldFirstCell, Candidates: []string{"First Cell ID", "First CGI"}},
	{Field: cdr.FieldLastCell, Candidates: []string{"Last Cell ID", "Last CGI"}},
	{Field: cdr.FieldIMEI, Candidates: []string{"IMEI"}},
	{Field: cdr.FieldIMSI, Candidates: []string{"IMSI"}},
}

func (Profile) Columns() []cdr.Column { return columns }

func (Profile) DateTimeLayouts() []string {
	return []string{"02/01/2006 15:04:05", "2006-01-02 15:04:05"}
}

func (Profile) DateLayouts() []string { return []string{"02/01/2006", "2006-01-02"} }

// Classify maps a Jio call-type code; the first matching rule wins.
func (Profile) Classify(code string) cdr.Category {
	code = strings.ToUpper(cdr.Unquote(code))
	switch {
	case code == "":
		return cdr.UnknownType
	case strings.Contains(code, "A_IN"):
		return cdr.IncomingCall
	case strings.Contains(code, "A_OUT"):
		return cdr.OutgoingCall
	case strings.Contains(code, "SMSIN"): // P2P_SMSIN, A2P_SMSIN
		return cdr.SMSReceived
	case strings.Contains(code, "SMSOUT"), strings.Contains(code, "P2AOUT"):
		return cdr.SMSSent
	default:
		return cdr.Other
	}
}

var (
	quotedNumRE   = regexp.MustCompile(`'(\d+)'`)
	inputValueRE  = regexp.MustCompile(`(?i)input value[^0-9]*([0-9]{8,15})`)
	dateRangeRE   = regexp.MustCompile(`(\d{4}-\d{2}-\d{2}.*?) to (\d{4}-\d{2}-\d{2})`)
	totalRecordRE = regexp.MustCompile(`(\d+)`)
)

// ExtractMetadata scans the first twenty lines for the MSISDN input value,
// the date range and the declared record count.
func (Profile) ExtractMetadata(lines []string, md *cdr.Metadata) {
	if len(lines) > 20 {
		lines = lines[:20]
	}
	for _, line := range lines {
		if strings.Contains(line, "Input Value") && strings.Contains(line, "MSISDN") {
			if m := quotedNumRE.FindStringSubmatch(line); len(m) > 1 {
				md.TargetNumber = m[1]
			} else if m := inputValueRE.FindStringSubmatch(line); len(m) > 1 {
				md.TargetNumber = m[1]
			}
		}
		if strings.Contains(line, "Date Range") {
			if m := dateRangeRE.FindStringSubmatch(line); len(m) > 2 {
				md.StartDate, md.EndDate = m[1], m[2]
			}
		}
		if strings.Contains(line, "Total Records") {
			if m := totalRecordRE.FindStringSubmatch(line); len(m) > 1 {
				md.TotalRecords = m[1]
				md.Operator = "Jio"
			}
		}
	}
}

// Counterparty picks whichever party is not the target; without a match it
// falls back to the called party, then the calling party.
func (Profile) Counterparty(f cdr.Fields, target string) string {
	calling, called := f[cdr.FieldCalling], f[cdr.FieldCalled]
	if t := cdr.Last10(target); t != "" {
		switch {
		case cdr.Last10(calling) == t && called != "":
			return called
		case cdr.Last10(called) == t && calling != "":
			return calling
		}
	}
	if called != "" {
		return called
	}
	return calling
}

// Coordinates always reports absent: Jio has no GPS columns.
func (Profile) Coordinates(string) (*cdr.Coord, bool) { return nil, true }
