package report

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/jalad-shrimali/cdr-insight/cdr"
	"github.com/jalad-shrimali/cdr-insight/network"
)

// Sheet names, in workbook order.
const (
	SheetSummary     = "summary"
	SheetReport      = "report"
	SheetHourly      = "hourly"
	SheetMaxCalls    = "max_calls"
	SheetMaxDuration = "max_duration"
	SheetClusters    = "contact_clusters"
	SheetMaxStay     = "max_stay"
	SheetLocations   = "locations"
	SheetBursts      = "bursts"
	SheetDevices     = "devices"
)

// WriteXLSX writes rep and the records of t to a multi-sheet workbook at path.
// Counts, durations, percentages and coordinates are numeric cells; phone
// numbers and identifiers stay text.
func WriteXLSX(rep *Report, t *cdr.Table, path string) error {
	x := excelize.NewFile()
	defer x.Close()

	var addErr error
	add := func(name string, rows [][]any) {
		if addErr != nil {
			return
		}
		if _, err := x.NewSheet(name); err != nil {
			addErr = err
			return
		}
		for r, row := range rows {
			for c, v := range row {
				cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
				if err := x.SetCellValue(name, cell, v); err != nil {
					addErr = err
					return
				}
			}
		}
	}

	cdrNo := rep.Summary.Metadata.TargetNumber
	add(SheetSummary, summaryRows(rep))
	add(SheetReport, recordSheet(t.Snapshot(), rep))
	add(SheetHourly, hourlyRows(rep))
	add(SheetMaxCalls, maxCallsRows(cdrNo, rep.Parties))
	add(SheetMaxDuration, maxDurationRows(cdrNo, rep.Parties))
	add(SheetClusters, clusterRows(rep.Tiers))
	add(SheetMaxStay, maxStayRows(cdrNo, rep))
	add(SheetLocations, locationRows(rep))
	add(SheetBursts, burstRows(rep))
	add(SheetDevices, deviceRows(rep))
	if addErr != nil {
		return fmt.Errorf("build workbook: %w", addErr)
	}
	if err := x.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("build workbook: %w", err)
	}
	if idx, err := x.GetSheetIndex(SheetSummary); err == nil {
		x.SetActiveSheet(idx)
	}
	if err := x.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

/* ──────────── sheet builders ──────────── */

func header(cols ...string) []any {
	row := make([]any, len(cols))
	for i, c := range cols {
		row[i] = c
	}
	return row
}

// pct rounds to two decimals.
func pct(f float64) float64 { return math.Round(f*100) / 100 }

func recordSheet(recs []cdr.Record, rep *Report) [][]any {
	rows := make([][]any, 0, len(recs)+1)
	rows = append(rows, header(RecordHeader...))
	for _, r := range recs {
		rows = append(rows, recordValues(r, rep.Towers))
	}
	return rows
}

func summaryRows(rep *Report) [][]any {
	s := rep.Summary
	rows := [][]any{
		header("Field", "Value"),
		{"Format", string(s.Format)},
		{"Target Number", s.Metadata.TargetNumber},
		{"Operator", s.Metadata.Operator},
		{"Total Records", s.TotalRecords},
		{"Start", s.Start},
		{"End", s.End},
		{"Unique Contacts", s.UniqueContacts},
		{"Total Duration", s.TotalDuration},
		{"Average Duration", pct(s.AvgDuration)},
		{"Night %", pct(rep.Temporal.Split.NightPercentage)},
		{"Day %", pct(rep.Temporal.Split.DayPercentage)},
		{"Evening %", pct(rep.Temporal.Split.EveningPercentage)},
		{"Excessive Night Activity", strconv.FormatBool(rep.Temporal.Suspicious.ExcessiveNightActivity)},
		{"Late Night Suspicious", strconv.FormatBool(rep.Temporal.Suspicious.LateNightSuspicious)},
		{"Network Density", pct(rep.Network.Density)},
		{"Mobility Score", pct(rep.Location.Movement.MobilityScore)},
	}
	for _, c := range cdr.Categories {
		rows = append(rows, []any{string(c), s.Categories[string(c)]})
	}
	return rows
}

func hourlyRows(rep *Report) [][]any {
	rows := [][]any{header("Hour", "Count", "Period")}
	for h := 0; h < 24; h++ {
		rows = append(rows, []any{fmt.Sprintf("%02d", h), rep.Temporal.Hourly[h], cdr.PeriodOf(h)})
	}
	return rows
}

func maxCallsRows(cdrNo string, ps []network.PartySummary) [][]any {
	rows := [][]any{header("CdrNo", "B Party", "Total Calls", "Calls In", "Calls Out", "SMS In", "SMS Out", "Active Days", "First", "Last")}
	for _, p := range ps {
		rows = append(rows, []any{cdrNo, p.Contact, p.Total, p.CallsIn, p.CallsOut,
			p.SMSIn, p.SMSOut, p.ActiveDays, p.FirstContact, p.LastContact})
	}
	return rows
}

func maxDurationRows(cdrNo string, ps []network.PartySummary) [][]any {
	sorted := append([]network.PartySummary(nil), ps...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].TotalDuration > sorted[j].TotalDuration })
	rows := [][]any{header("CdrNo", "B Party", "Total Duration", "Total Calls")}
	for _, p := range sorted {
		rows = append(rows, []any{cdrNo, p.Contact, p.TotalDuration, p.Total})
	}
	return rows
}

func clusterRows(t network.Tiers) [][]any {
	rows := [][]any{header("Tier", "B Party", "Count")}
	for _, tier := range []struct {
		name string
		cs   []cdr.Count
	}{
		{"very_frequent", t.VeryFrequent},
		{"frequent", t.Frequent},
		{"moderate", t.Moderate},
		{"occasional", t.Occasional},
		{"one_time", t.OneTime},
	} {
		for _, c := range tier.cs {
			rows = append(rows, []any{tier.name, c.Key, c.Count})
		}
	}
	return rows
}

func maxStayRows(cdrNo string, rep *Report) [][]any {
	rows := [][]any{header("CdrNo", "Cell ID", "Total Calls", "Address", "Lat", "Long", "Azimuth", "First", "Last")}
	for _, s := range rep.MaxStay {
		tw := rep.Towers[s.CellID]
		coord := s.Coord
		if coord == nil {
			coord = tw.Coord
		}
		var lat, lon any = "", ""
		if coord != nil {
			lat, lon = coord.Lat, coord.Long
		}
		rows = append(rows, []any{cdrNo, s.CellID, s.Count, tw.Address, lat, lon, tw.Azimuth, s.FirstSeen, s.LastSeen})
	}
	return rows
}

func locationRows(rep *Report) [][]any {
	rows := [][]any{header("Lat", "Long", "Count", "Percentage")}
	for _, c := range rep.Location.TopLocations {
		rows = append(rows, []any{c.Lat, c.Long, c.Count, pct(c.Percentage)})
	}
	return rows
}

func burstRows(rep *Report) [][]any {
	rows := [][]any{header("Date", "Hour", "Count", "Threshold")}
	for _, b := range rep.Patterns.Bursts {
		rows = append(rows, []any{b.Date, b.Hour, b.Count, pct(b.Threshold)})
	}
	return rows
}

func deviceRows(rep *Report) [][]any {
	rows := [][]any{header("Kind", "Identifier", "Count")}
	if d := rep.Device.IMEI; d != nil {
		for _, c := range d.DevicesUsed {
			rows = append(rows, []any{"IMEI", c.Key, c.Count})
		}
	}
	if d := rep.Device.IMSI; d != nil {
		for _, c := range d.SIMsUsed {
			rows = append(rows, []any{"IMSI", c.Key, c.Count})
		}
	}
	return rows
}
