package parser

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jalad-shrimali/cdr-insight/cdr"
)

// normalizer holds the column indexes resolved once from the header row.
type normalizer struct {
	p      Profile
	idx    map[string]int
	target string
}

func newNormalizer(p Profile, header []string, target string) *normalizer {
	return &normalizer{p: p, idx: resolve(header, p.Columns()), target: target}
}

// resolve maps each canonical field to the first candidate present in header.
func resolve(header []string, cols []cdr.Column) map[string]int {
	normed := make([]string, len(header))
	for i, h := range header {
		normed[i] = cdr.Norm(cdr.Unquote(h))
	}
	idx := make(map[string]int, len(cols))
	for _, c := range cols {
	candidates:
		for _, k := range c.Candidates {
			k = cdr.Norm(k)
			for i, h := range normed {
				if h == k {
					idx[c.Field] = i
					break candidates
				}
			}
		}
	}
	return idx
}

func (n *normalizer) missing() []string {
	var out []string
	for _, c := range n.p.Columns() {
		if _, ok := n.idx[c.Field]; !ok {
			out = append(out, c.Candidates[0])
		}
	}
	return out
}

func (n *normalizer) fields(rec []string) cdr.Fields {
	f := make(cdr.Fields, len(n.idx))
	for field, i := range n.idx {
		if i < len(rec) {
			f[field] = cdr.Unquote(rec[i])
		}
	}
	return f
}

// inferTarget picks the number that appears in the most rows across the
// target, calling and called columns, the smallest on ties. The target sits
// on one side of every event, whichever direction it went.
func (n *normalizer) inferTarget(rows [][]string) string {
	counts := map[string]int{}
	for _, rec := range rows {
		if isBlank(rec) || isFooter(rec[0]) {
			continue
		}
		f := n.fields(rec)
		seen := map[string]bool{}
		for _, field := range []string{cdr.FieldTarget, cdr.FieldCalling, cdr.FieldCalled} {
			if d := cdr.Last10(f[field]); len(d) == 10 && !seen[d] {
				seen[d] = true
				counts[d]++
			}
		}
	}
	if cs := cdr.SortCounts(counts); len(cs) > 0 {
		return cs[0].Key
	}
	return ""
}

// row normalizes one data row; keep is false for rows that are skipped or dropped.
func (n *normalizer) row(rec []string, st *Stats) (r cdr.Record, keep bool) {
	if isBlank(rec) {
		st.EmptyRows++
		return r, false
	}
	if isFooter(rec[0]) {
		st.FooterRows++
		return r, false
	}
	st.DataRows++
	f := n.fields(rec)

	dt, dateOnly, ok := parseDateTime(f[cdr.FieldDate], f[cdr.FieldTime], n.p)
	if !ok {
		st.DroppedDatetime++
		return r, false
	}
	if dateOnly {
		st.DateOnlyFallback++
	}
	r.Stamp(dt)
	r.Format = n.p.Format()

	dur, ok := parseDuration(f[cdr.FieldDuration])
	if !ok {
		st.BadDuration++
	}
	r.DurationSeconds = dur

	r.CounterpartyRaw = n.p.Counterparty(f, n.target)
	r.CounterpartyClean = cdr.CleanCounterparty(r.CounterpartyRaw)
	r.CallTypeRaw = f[cdr.FieldCallType]
	r.CallCategory = n.p.Classify(r.CallTypeRaw)

	first, ok1 := n.p.Coordinates(f[cdr.FieldFirstLatLong])
	last, ok2 := n.p.Coordinates(f[cdr.FieldLastLatLong])
	if !ok1 || !ok2 {
		st.BadCoordinates++
	}
	r.First, r.Last = first, last

	r.TargetNumber = f[cdr.FieldTarget]
	if r.TargetNumber == "" {
		r.TargetNumber = n.target
	}
	if r.TargetNumber == "" {
		r.TargetNumber = f[cdr.FieldCalling]
	}
	r.FirstCellID = f[cdr.FieldFirstCell]
	r.LastCellID = f[cdr.FieldLastCell]
	r.IMEI = f[cdr.FieldIMEI]
	r.IMSI = f[cdr.FieldIMSI]
	return r, true
}

// parseDateTime tries the vendor's date+time layouts, then its date-only
// layouts (midnight).
func parseDateTime(date, clock string, p Profile) (t time.Time, dateOnly, ok bool) {
	date, clock = strings.TrimSpace(date), strings.TrimSpace(clock)
	if date == "" {
		return t, false, false
	}
	combined := date + " " + clock
	for _, layout := range p.DateTimeLayouts() {
		if t, err := time.Parse(layout, combined); err == nil {
			return t, false, true
		}
	}
	for _, layout := range p.DateLayouts() {
		if t, err := time.Parse(layout, date); err == nil {
			return t, true, true
		}
	}
	return t, false, false
}

// maxDuration caps a single event's seconds; anything larger is junk.
const maxDuration = math.MaxInt32

// parseDuration never fails: blank is 0, junk, negative or out-of-range
// values are 0 with ok=false.
func parseDuration(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}
	if v, err := strconv.Atoi(s); err == nil {
		if v < 0 || v > maxDuration {
			return 0, false
		}
		return v, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || v < 0 || v > maxDuration {
		return 0, false
	}
	return int(v), true
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if cdr.Unquote(v) != "" {
			return false
		}
	}
	return true
}

func isFooter(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.HasPrefix(s, "this is system") || strings.Contains(s, "system generated")
}
