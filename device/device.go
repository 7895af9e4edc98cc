// Package device reports which handsets (IMEI) and SIMs (IMSI) a target used
// and when the handset changed.
package device

import (
	"github.com/jalad-shrimali/cdr-insight/cdr"
)

// Change is a switch from one IMEI to another between consecutive records.
type Change struct {
	DateTime string `json:"date"`
	FromIMEI string `json:"from_imei"`
	ToIMEI   string `json:"to_imei"`
}

// IMEIInfo lists the handsets seen.
type IMEIInfo struct {
	UniqueDevices int         `json:"unique_devices"`
	DevicesUsed   []cdr.Count `json:"devices_used"`
	Changes       []Change    `json:"device_changes"`
}

// IMSIInfo lists the SIMs seen.
type IMSIInfo struct {
	UniqueSIMs int         `json:"unique_sims"`
	SIMsUsed   []cdr.Count `json:"sims_used"`
}

// Report is nil-sectioned: a section is absent when no record carries that identifier.
type Report struct {
	IMEI *IMEIInfo `json:"imei_info,omitempty"`
	IMSI *IMSIInfo `json:"imsi_info,omitempty"`
}

// Analyze inspects a snapshot of t. Records with an empty identifier are not
// counted and do not break a run of the same IMEI.
func Analyze(t *cdr.Table) Report {
	recs := t.Snapshot()
	cdr.SortByTime(recs)

	var rep Report
	imei := tally(recs, func(r cdr.Record) string { return r.IMEI })
	if len(imei) > 0 {
		rep.IMEI = &IMEIInfo{UniqueDevices: len(imei), DevicesUsed: imei, Changes: changes(recs)}
	}
	if imsi := tally(recs, func(r cdr.Record) string { return r.IMSI }); len(imsi) > 0 {
		rep.IMSI = &IMSIInfo{UniqueSIMs: len(imsi), SIMsUsed: imsi}
	}
	return rep
}

func tally(recs []cdr.Record, key func(cdr.Record) string) []cdr.Count {
	m := map[string]int{}
	for _, r := range recs {
		if k := key(r); k != "" {
			m[k]++
		}
	}
	return cdr.SortCounts(m)
}

func changes(sorted []cdr.Record) []Change {
	out := []Change{}
	prev := ""
	for _, r := range sorted {
		if r.IMEI == "" {
			continue
		}
		if prev != "" && r.IMEI != prev {
			out = append(out, Change{DateTime: r.Timestamp(), FromIMEI: prev, ToIMEI: r.IMEI})
		}
		prev = r.IMEI
	}
	return out
}
