// Package celldb decodes cell identifiers and resolves them against an
// offline SQLite tower database.
//
// The decoding of concatenated identifiers is a heuristic: the MNC width is
// guessed from the string length, hexadecimal LTE remainders are split as
// TAC = bits 8..23 and cell = bits 0..7, and decimal remainders are cut in
// half. None of this follows a published numbering plan, so decoded LAC/CID
// values are approximations and only suitable for display.
package celldb

import (
	"strconv"
	"strings"
)

// CellID is a decoded global cell identity.
type CellID struct {
	MCC int    `json:"mcc"`
	MNC int    `json:"mnc"`
	LAC uint64 `json:"lac"`
	CID uint64 `json:"cell_id"`
}

// ParseCellID decodes "MCC-MNC-LAC-CID" (Airtel) or a concatenated 404/405
// identifier (Jio, possibly with a hex remainder). ok is false for anything
// else, including "---" and empty input.
func ParseCellID(s string) (c CellID, ok bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), "'", "")
	if s == "" || s == "---" {
		return c, false
	}

	if strings.Contains(s, "-") {
		parts := strings.Split(s, "-")
		if len(parts) < 4 {
			return c, false
		}
		var err [4]error
		c.MCC, err[0] = strconv.Atoi(parts[0])
		c.MNC, err[1] = strconv.Atoi(parts[1])
		c.LAC, err[2] = strconv.ParseUint(parts[2], 10, 64)
		c.CID, err[3] = strconv.ParseUint(parts[3], 10, 64)
		for _, e := range err {
			if e != nil {
				return CellID{}, false
			}
		}
		return c, true
	}

	if len(s) < 10 {
		return c, false
	}
	switch {
	case strings.HasPrefix(s, "405"):
		mncEnd := 5
		if len(s) >= 13 {
			mncEnd = 6
		}
		mnc, err := strconv.Atoi(s[3:mncEnd])
		if err != nil {
			return c, false
		}
		c.MCC, c.MNC = 405, mnc
		rest := s[mncEnd:]
		if strings.ContainsAny(rest, "abcdefABCDEF") {
			v, err := strconv.ParseUint(rest, 16, 64)
			if err != nil {
				return CellID{}, false
			}
			c.LAC, c.CID = (v>>8)&0xFFFF, v&0xFF
			return c, true
		}
		return splitHalf(c, rest)
	case strings.HasPrefix(s, "404"):
		mnc, err := strconv.Atoi(s[3:5])
		if err != nil {
			return c, false
		}
		c.MCC, c.MNC = 404, mnc
		return splitHalf(c, s[5:])
	}
	return c, false
}

// splitHalf reads rest as LAC followed by CID, each half of the digits.
func splitHalf(c CellID, rest string) (CellID, bool) {
	mid := len(rest) / 2
	var err error
	if mid > 0 {
		if c.LAC, err = strconv.ParseUint(rest[:mid], 10, 64); err != nil {
			return CellID{}, false
		}
	}
	if mid < len(rest) {
		if c.CID, err = strconv.ParseUint(rest[mid:], 10, 64); err != nil {
			return CellID{}, false
		}
	}
	return c, true
}
