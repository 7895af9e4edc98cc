// Package cdr holds the canonical, vendor-agnostic call-detail-record model
// shared by the parser and every analyzer.
package cdr

import (
	"encoding/json"
	"time"

	"github.com/paulmach/orb"
)

// Format tags the vendor layout a table was ingested from.
type Format string

const (
	FormatAirtel Format = "airtel" // vendor A
	FormatJio    Format = "jio"    // vendor B
)

// Category is the broad call/SMS class derived from the raw call-type code.
type Category string

const (
	IncomingCall Category = "Incoming Call"
	OutgoingCall Category = "Outgoing Call"
	SMSReceived  Category = "SMS Received"
	SMSSent      Category = "SMS Sent"
	Other        Category = "Other"
	UnknownType  Category = "Unknown"
)

// Categories lists every category in display order.
var Categories = []Category{IncomingCall, OutgoingCall, SMSReceived, SMSSent, Other, UnknownType}

// Unknown is the counterparty sentinel for missing B-party values.
const Unknown = "Unknown"

// TimestampLayout is the layout used for every timestamp leaving the core.
const TimestampLayout = "2006-01-02 15:04:05"

// DateLayout is the layout of Record.DateOnly.
const DateLayout = "2006-01-02"

// Coord is a WGS84 latitude/longitude pair.
type Coord struct {
	Lat  float64 `json:"lat"`
	Long float64 `json:"lon"`
}

// Point converts c to an orb point (x = longitude, y = latitude).
func (c Coord) Point() orb.Point { return orb.Point{c.Long, c.Lat} }

// Record is one communication event after normalization.
type Record struct {
	DateTime  time.Time `json:"-"`
	Hour      int       `json:"hour"`
	DayOfWeek string    `json:"day_of_week"`
	DateOnly  string    `json:"date_only"`

	DurationSeconds int `json:"duration_seconds"`

	CounterpartyRaw   string   `json:"counterparty_raw"`
	CounterpartyClean string   `json:"counterparty_clean"`
	CallTypeRaw       string   `json:"call_type_raw"`
	CallCategory      Category `json:"call_category"`

	First *Coord `json:"first,omitempty"`
	Last  *Coord `json:"last,omitempty"`

	TargetNumber string `json:"target_number,omitempty"`
	FirstCellID  string `json:"first_cell_id,omitempty"`
	LastCellID   string `json:"last_cell_id,omitempty"`
	IMEI         string `json:"imei,omitempty"`
	IMSI         string `json:"imsi,omitempty"`

	IsNight    bool   `json:"is_night"`
	IsDay      bool   `json:"is_day"`
	IsEvening  bool   `json:"is_evening"`
	TimePeriod string `json:"time_period"`

	Format Format `json:"format_type"`
}

// Timestamp renders DateTime in TimestampLayout.
func (r Record) Timestamp() string { return r.DateTime.Format(TimestampLayout) }

// MarshalJSON adds DateTime as a "datetime" string in TimestampLayout.
func (r Record) MarshalJSON() ([]byte, error) {
	type plain Record
	return json.Marshal(struct {
		DateTime string `json:"datetime"`
		plain
	}{r.Timestamp(), plain(r)})
}

// HasLocation reports whether the first-cell coordinates are present.
func (r Record) HasLocation() bool { return r.First != nil }

// Stamp fills every attribute derived from DateTime.
func (r *Record) Stamp(dt time.Time) {
	r.DateTime = dt
	r.Hour = dt.Hour()
	r.DayOfWeek = dt.Weekday().String()
	r.DateOnly = dt.Format(DateLayout)
	r.IsNight, r.IsDay, r.IsEvening = HourFlags(r.Hour)
	r.TimePeriod = PeriodOf(r.Hour)
}

/* ──────────── fixed hour boundaries ──────────── */

// HourFlags classifies an hour: night [22,06), day [06,18), evening [18,22).
func HourFlags(h int) (night, day, evening bool) {
	night = h >= 22 || h < 6
	day = h >= 6 && h < 18
	evening = h >= 18 && h < 22
	return
}

// Time period labels.
const (
	PeriodLateNight = "Late Night (00:00-06:00)"
	PeriodMorning   = "Morning (06:00-12:00)"
	PeriodAfternoon = "Afternoon (12:00-18:00)"
	PeriodEvening   = "Evening (18:00-22:00)"
	PeriodNight     = "Night (22:00-00:00)"
	PeriodUnknown   = "Unknown"
)

// PeriodOf maps an hour to its display period.
func PeriodOf(h int) string {
	switch {
	case h < 0 || h > 23:
		return PeriodUnknown
	case h < 6:
		return PeriodLateNight
	case h < 12:
		return PeriodMorning
	case h < 18:
		return PeriodAfternoon
	case h < 22:
		return PeriodEvening
	default:
		return PeriodNight
	}
}
