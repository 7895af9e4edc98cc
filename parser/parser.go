// Package parser turns a raw vendor CDR export into the canonical table:
// format detection, header location, column mapping and per-row normalization.
package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/jalad-shrimali/cdr-insight/cdr"
	"github.com/jalad-shrimali/cdr-insight/logger"
)

// Stats counts per-row problems absorbed during normalization.
type Stats struct {
	DataRows         int `json:"data_rows"`
	Records          int `json:"records"`
	EmptyRows        int `json:"empty_rows"`
	FooterRows       int `json:"footer_rows"`
	MalformedRows    int `json:"malformed_rows"`
	DroppedDatetime  int `json:"dropped_datetime"`
	DateOnlyFallback int `json:"date_only_fallback"`
	BadDuration      int `json:"bad_duration"`
	BadCoordinates   int `json:"bad_coordinates"`
}

// Result is the canonical table plus everything that went wrong on the way.
type Result struct {
	Table     *cdr.Table `json:"-"`
	Stats     Stats      `json:"stats"`
	Warnings  []string   `json:"warnings,omitempty"`
	Ambiguous bool       `json:"ambiguous_format"`
	HeaderRow int        `json:"header_row"`
}

func (r *Result) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseFile opens path and parses it.
func ParseFile(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &cdr.ParseError{Op: "read", Path: path, Err: err}
	}
	defer f.Close()

	res, err := Parse(f)
	var pe *cdr.ParseError
	if errors.As(err, &pe) {
		pe.Path = path
	}
	return res, err
}

// Parse reads a whole export and builds its canonical table. Fatal problems
// (bad encoding, no header) return a *cdr.ParseError and no table.
func Parse(r io.Reader) (*Result, error) {
	log := logger.With("parser")

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &cdr.ParseError{Op: "read", Err: err}
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return nil, &cdr.ParseError{Op: "decode", Err: cdr.ErrInvalidEncoding}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &cdr.ParseError{Op: "read", Err: cdr.ErrEmptyInput}
	}
	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")

	res := &Result{}
	format, ok := Detect(lines)
	if !ok {
		res.Ambiguous = true
		res.warnf("could not detect format, defaulting to %s", format)
		log.Warn("could not detect format", slog.String("fallback", string(format)))
	}
	log.Info("detected CDR format", slog.String("format", string(format)))

	hdr, err := FindHeader(lines, format)
	if err != nil {
		return nil, err
	}
	res.HeaderRow = hdr

	md := ExtractMetadata(lines)
	p := ProfileFor(format)

	cr := csv.NewReader(strings.NewReader(strings.Join(lines[hdr:], "\n")))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	header, err := cr.Read()
	if err != nil {
		return nil, &cdr.ParseError{Op: "header", Format: format, Line: hdr + 1, Err: err}
	}

	var rows [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			res.Stats.MalformedRows++
			continue
		}
		rows = append(rows, rec)
	}

	n := newNormalizer(p, header, md.TargetNumber)
	for _, field := range n.missing() {
		res.warnf("no column for %s", field)
	}
	if n.target == "" {
		if n.target = n.inferTarget(rows); n.target != "" {
			res.warnf("no target number in the banner, using %s from the data rows", n.target)
			log.Warn("inferred target number", slog.String("target", n.target))
		}
	}

	recs := make([]cdr.Record, 0, len(rows))
	for _, rec := range rows {
		if r, keep := n.row(rec, &res.Stats); keep {
			recs = append(recs, r)
		}
	}
	res.Stats.Records = len(recs)
	res.Table = &cdr.Table{Format: format, Metadata: md, Records: recs}

	if s := res.Stats; s.DroppedDatetime > 0 {
		res.warnf("dropped %d records due to invalid datetime", s.DroppedDatetime)
		log.Warn("dropped records due to invalid datetime", slog.Int("count", s.DroppedDatetime))
	}
	if s := res.Stats; s.MalformedRows > 0 {
		res.warnf("skipped %d malformed CSV rows", s.MalformedRows)
	}
	if s := res.Stats; s.BadDuration > 0 {
		res.warnf("%d records had an unparseable duration, set to 0", s.BadDuration)
	}
	if s := res.Stats; s.BadCoordinates > 0 {
		res.warnf("%d records had malformed coordinates, left empty", s.BadCoordinates)
	}
	log.Info("parsed CDR",
		slog.String("format", string(format)),
		slog.Int("records", len(recs)),
		slog.Int("dropped", res.Stats.DroppedDatetime))
	return res, nil
}
