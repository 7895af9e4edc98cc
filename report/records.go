package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/jalad-shrimali/cdr-insight/cdr"
	"github.com/jalad-shrimali/cdr-insight/celldb"
)

// RecordHeader is the column layout of every record export.
var RecordHeader = []string{
	"CdrNo", "B Party", "Date", "Time", "Duration", "Call Type", "Call Category",
	"Time Period", "First Cell ID", "First Cell ID Address", "Last Cell ID",
	"Last Cell ID Address", "IMEI", "IMSI", "Lat", "Long", "Azimuth", "TimeHH",
}

// RecordRows renders recs under RecordHeader. Tower data, when given, fills
// the address and azimuth columns and stands in for missing coordinates.
func RecordRows(recs []cdr.Record, towers map[string]celldb.Tower) [][]string {
	rows := make([][]string, 0, len(recs)+1)
	rows = append(rows, RecordHeader)
	for _, r := range recs {
		vals := recordValues(r, towers)
		row := make([]string, len(vals))
		for i, v := range vals {
			row[i] = cellString(v)
		}
		rows = append(rows, row)
	}
	return rows
}

// recordValues keeps durations and coordinates numeric for the workbook.
func recordValues(r cdr.Record, towers map[string]celldb.Tower) []any {
	first, last := towers[r.FirstCellID], towers[r.LastCellID]

	var lat, lon any = "", ""
	switch {
	case r.First != nil:
		lat, lon = r.First.Lat, r.First.Long
	case first.Coord != nil:
		lat, lon = first.Coord.Lat, first.Coord.Long
	}
	return []any{
		r.TargetNumber,
		r.CounterpartyClean,
		r.DateTime.Format(cdr.DateLayout),
		r.DateTime.Format("15:04:05"),
		r.DurationSeconds,
		r.CallTypeRaw,
		string(r.CallCategory),
		r.TimePeriod,
		r.FirstCellID,
		first.Address,
		r.LastCellID,
		last.Address,
		r.IMEI,
		r.IMSI,
		lat,
		lon,
		first.Azimuth,
		fmt.Sprintf("%02d", r.Hour),
	}
}

func cellString(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case float64:
		return ftoa(v)
	default:
		return fmt.Sprint(v)
	}
}

func ftoa(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

// WriteCSV writes recs with a header row.
func WriteCSV(w io.Writer, recs []cdr.Record, towers map[string]celldb.Tower) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(RecordRows(recs, towers)); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}
