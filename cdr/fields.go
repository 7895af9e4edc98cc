package cdr

// Canonical source fields a vendor profile maps its columns onto.
const (
	FieldTarget       = "target"
	FieldCalling      = "calling"
	FieldCalled       = "called"
	FieldBParty       = "b_party"
	FieldDate         = "date"
	FieldTime         = "time"
	FieldDuration     = "duration"
	FieldCallType     = "call_type"
	FieldFirstLatLong = "first_latlong"
	FieldLastLatLong  = "last_latlong"
	FieldFirstCell    = "first_cell"
	FieldLastCell     = "last_cell"
	FieldIMEI         = "imei"
	FieldIMSI         = "imsi"
)

// Column maps one canonical field to the vendor header names that may carry
// it, in order of preference.
type Column struct {
	Field      string
	Candidates []string
}

// Fields holds the unquoted raw cells of one row keyed by canonical field.
// Unmapped fields read as "".
type Fields map[string]string
