package cdr

import (
	"regexp"
	"strings"
)

var (
	spaceRE  = regexp.MustCompile(`\s+`)
	nonDigit = regexp.MustCompile(`\D`)
)

// Norm lower-cases s, trims it and collapses inner whitespace; used for header matching.
func Norm(s string) string { return spaceRE.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), " ") }

// Digits drops every non-digit rune.
func Digits(s string) string { return nonDigit.ReplaceAllString(s, "") }

// Last10 keeps the trailing ten digits of s, or all of them when fewer remain.
func Last10(s string) string {
	d := Digits(s)
	if len(d) > 10 {
		return d[len(d)-10:]
	}
	return d
}

// Unquote strips surrounding whitespace and the quote characters vendors wrap cells in.
func Unquote(s string) string { return strings.Trim(strings.TrimSpace(s), "'\" ") }

// CleanCounterparty normalizes a B-party identifier.
//
// Operator short-codes such as "AD-12345" are kept verbatim. Anything else
// is reduced to its digits and, when at least ten remain, to the last ten.
// Empty input yields Unknown.
func CleanCounterparty(raw string) string {
	v := Unquote(raw)
	if v == "" {
		return Unknown
	}
	if strings.Contains(v, "-") && !isDigit(v[0]) {
		return v
	}
	if d := Digits(v); len(d) >= 10 {
		return d[len(d)-10:]
	}
	return v
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
