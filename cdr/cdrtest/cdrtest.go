// Package cdrtest builds canonical records for tests.
package cdrtest

import (
	"time"

	"github.com/jalad-shrimali/cdr-insight/cdr"
)

// Record returns a normalized record at ts (cdr.TimestampLayout). It panics on a bad timestamp.
func Record(ts, contact string, cat cdr.Category, dur int) cdr.Record {
	dt, err := time.Parse(cdr.TimestampLayout, ts)
	if err != nil {
		panic(err)
	}
	r := cdr.Record{
		CounterpartyRaw:   contact,
		CounterpartyClean: cdr.CleanCounterparty(contact),
		CallCategory:      cat,
		CallTypeRaw:       rawCode(cat),
		DurationSeconds:   dur,
		Format:            cdr.FormatAirtel,
	}
	r.Stamp(dt)
	return r
}

// At returns r located at lat/long (both first and last cell).
func At(r cdr.Record, lat, long float64) cdr.Record {
	r.First = &cdr.Coord{Lat: lat, Long: long}
	r.Last = &cdr.Coord{Lat: lat, Long: long}
	return r
}

// Table wraps recs in an Airtel table for target.
func Table(target string, recs ...cdr.Record) *cdr.Table {
	for i := range recs {
		recs[i].TargetNumber = target
	}
	return &cdr.Table{
		Format:   cdr.FormatAirtel,
		Metadata: cdr.Metadata{TargetNumber: target, Operator: "Airtel"},
		Records:  recs,
	}
}

func rawCode(c cdr.Category) string {
	switch c {
	case cdr.IncomingCall:
		return "IN"
	case cdr.OutgoingCall:
		return "OUT"
	case cdr.SMSReceived:
		return "SMT"
	case cdr.SMSSent:
		return "SMO"
	case cdr.UnknownType:
		return ""
	default:
		return "USSD"
	}
}
