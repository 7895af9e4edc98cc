package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jalad-shrimali/cdr-insight/cdr"
	"github.com/jalad-shrimali/cdr-insight/report"
)

const airtelExport = `BHARTI AIRTEL LTD
Call Details of Mobile No '9876543210' from '01/08/2025' to '31/08/2025'

Target No,B Party No,Date,Time,Dur(s),First CGI Lat/Long,Last CGI Lat/Long,Call Type,First CGI,Last CGI,IMEI,IMSI
'9876543210','919123456789','04/09/2025','18:50:33',120,'28.6139/77.2090','28.6140/77.2091',OUT,'404-10-1234-5678','404-10-1234-5679','356789012345678','404101234567890'
'9876543210','9123456789','04/09/2025','23:10:00',45,'28.7041/77.1025','28.7041/77.1025',IN,'404-10-1234-5680','404-10-1234-5680','356789012345678','404101234567890'
'9876543210','AD-12345','05/09/2025','09:00:00',0,,,SMT,'404-10-1234-5678',,'356789012345678','404101234567890'
'9876543210','9000000001','bad-date','10:00:00',10,,,OUT,,,,
'9876543210','9000000002','06/09/2025','',abc,'garbage',,SMO,,,,
,,,,,,,,,,,
 This is System generated report, and needs no signature.
`

const jioExport = `Ticket Number : 4451
Input Value : MSISDN '9876543211'
Date Range : 2025-08-01 00:00:00 to 2025-08-31

Calling Party Telephone Number,Called Party Telephone Number,Call Date,Call Time,Call Duration,Call Type,First Cell ID,Last Cell ID,IMEI,IMSI
9876543211,9123456789,01/08/2025,02:15:00,60,A_OUT,4058722113210,4058722113211,356789012345678,405872000000001
9876543211,9000000555,02/08/2025,20:30:00,10,A_OUT,4058722113210,4058722113210,356789012345678,405872000000001
`

func newRouter() http.Handler {
	return New(Options{TopN: 5}).Routes()
}

func do(h http.Handler, method, target string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func uploadFile(t *testing.T, h http.Handler, name, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = io.WriteString(fw, content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/cdr", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m), rec.Body.String())
	return m
}

func mustUpload(t *testing.T, h http.Handler, name, content string) string {
	t.Helper()
	rec := uploadFile(t, h, name, content)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode(t, rec)["id"].(string)
}

func TestUpload(t *testing.T) {
	h := newRouter()
	rec := uploadFile(t, h, "airtel.csv", airtelExport)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decode(t, rec)
	assert.NotEmpty(t, body["id"])
	assert.Equal(t, "airtel.csv", body["name"])
	assert.Equal(t, false, body["ambiguous_format"])
	summary := body["summary"].(map[string]any)
	assert.Equal(t, "airtel", summary["format"])
	assert.Equal(t, float64(4), summary["total_records"])
	stats := body["stats"].(map[string]any)
	assert.Equal(t, float64(1), stats["dropped_datetime"])

	rec = do(h, http.MethodGet, "/api/cdr/"+body["id"].(string), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, body["id"], decode(t, rec)["id"])

	rec = do(h, http.MethodGet, "/healthz", nil)
	assert.Equal(t, float64(1), decode(t, rec)["sessions"])
}

func TestUploadErrors(t *testing.T) {
	h := newRouter()

	rec := do(h, http.MethodPost, "/api/cdr", strings.NewReader(""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, decode(t, rec)["error"])

	rec = uploadFile(t, h, "notes.txt", "hello\nworld\n")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "header row not found")

	rec = uploadFile(t, h, "empty.csv", "  \n\n")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	small := New(Options{MaxUploadBytes: 64}).Routes()
	rec = uploadFile(t, small, "airtel.csv", airtelExport)
	assert.Contains(t, []int{http.StatusBadRequest, http.StatusRequestEntityTooLarge}, rec.Code)
}

func TestUploadRateLimit(t *testing.T) {
	h := New(Options{UploadRate: 0.001, UploadBurst: 1}).Routes()
	mustUpload(t, h, "airtel.csv", airtelExport)

	rec := uploadFile(t, h, "airtel.csv", airtelExport)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	rec = do(h, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code, "only uploads are throttled")
}

func TestUnknownSession(t *testing.T) {
	h := newRouter()
	for _, path := range []string{"", "/temporal", "/network", "/records", "/report", "/report.xlsx"} {
		t.Run(path, func(t *testing.T) {
			rec := do(h, http.MethodGet, "/api/cdr/nope"+path, nil)
			assert.Equal(t, http.StatusNotFound, rec.Code)
			assert.Equal(t, "session not found", decode(t, rec)["error"])
		})
	}
	rec := do(h, http.MethodDelete, "/api/cdr/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAnalyzerEndpoints(t *testing.T) {
	h := newRouter()
	id := mustUpload(t, h, "airtel.csv", airtelExport)
	base := "/api/cdr/" + id

	rec := do(h, http.MethodGet, base+"/temporal", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	split := decode(t, rec)["analysis"].(map[string]any)["night_day_summary"].(map[string]any)
	assert.Equal(t, float64(2), split["night_count"])
	assert.Equal(t, float64(1), split["evening_count"])

	rec = do(h, http.MethodGet, base+"/temporal?top=x", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(h, http.MethodGet, base+"/network?min=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	metrics := body["metrics"].(map[string]any)
	assert.Equal(t, float64(2), metrics["total_nodes"])
	assert.Equal(t, "9876543210", metrics["target"])
	assert.Len(t, body["graph"].(map[string]any)["edges"], 1)

	rec = do(h, http.MethodGet, base+"/clusters", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["occasional"], 1)

	rec = do(h, http.MethodGet, base+"/contacts", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["parties"], 3)

	rec = do(h, http.MethodGet, base+"/contacts/+919123456789", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, "9123456789", body["contact"])
	assert.Equal(t, float64(2), body["total"])
	first := body["records"].([]any)[0].(map[string]any)
	assert.Equal(t, "2025-09-04 18:50:33", first["datetime"])

	rec = do(h, http.MethodGet, base+"/locations", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["analysis"].(map[string]any)["has_data"])

	rec = do(h, http.MethodGet, base+"/device", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decode(t, rec)["imei_info"].(map[string]any)["unique_devices"])

	rec = do(h, http.MethodGet, base+"/report", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(4), decode(t, rec)["summary"].(map[string]any)["total_records"])
}

func TestMovement(t *testing.T) {
	h := newRouter()
	base := "/api/cdr/" + mustUpload(t, h, "airtel.csv", airtelExport)

	rec := do(h, http.MethodGet, base+"/movement", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["movements"], 2)

	rec = do(h, http.MethodGet, base+"/movement?bbox=77.15,28.6,77.25,28.65", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["movements"], 1)

	for _, bad := range []string{"1,2,3", "a,b,c,d", "77.3,28.6,77.2,28.7"} {
		rec = do(h, http.MethodGet, base+"/movement?bbox="+bad, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, bad)
	}
}

func TestRecords(t *testing.T) {
	h := newRouter()
	base := "/api/cdr/" + mustUpload(t, h, "airtel.csv", airtelExport) + "/records"

	tests := []struct {
		name  string
		query url.Values
		total int
	}{
		{"all", url.Values{}, 4},
		{"number", url.Values{"number": {"91234"}}, 2},
		{"category", url.Values{"category": {"sms sent", "SMS Received"}}, 2},
		{"period", url.Values{"period": {cdr.PeriodMorning}}, 1},
		{"from", url.Values{"from": {"2025-09-05"}}, 2},
		{"range", url.Values{"from": {"2025-09-04"}, "to": {"2025-09-04"}}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(h, http.MethodGet, base+"?"+tt.query.Encode(), nil)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			body := decode(t, rec)
			assert.Equal(t, float64(tt.total), body["total"])
			assert.Len(t, body["records"], tt.total)
		})
	}

	for _, bad := range []url.Values{
		{"category": {"Fax"}},
		{"period": {"Noon"}},
		{"from": {"04/09/2025"}},
		{"from": {"2025-09-06"}, "to": {"2025-09-04"}},
	} {
		rec := do(h, http.MethodGet, base+"?"+bad.Encode(), nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, bad.Encode())
	}
}

func TestRecordsCSV(t *testing.T) {
	h := newRouter()
	base := "/api/cdr/" + mustUpload(t, h, "airtel.csv", airtelExport) + "/records"

	rec := do(h, http.MethodGet, base+"?format=csv&category=Incoming+Call", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "9876543210_records.csv")

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, strings.Join(report.RecordHeader, ","), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "9876543210,9123456789,2025-09-04,23:10:00,45,IN,"), lines[1])
}

func TestCommonContacts(t *testing.T) {
	h := newRouter()
	a := mustUpload(t, h, "airtel.csv", airtelExport)
	b := mustUpload(t, h, "jio.csv", jioExport)

	rec := do(h, http.MethodGet, "/api/cdr/"+a+"/common/"+b, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{"9123456789"}, decode(t, rec)["common"])

	rec = do(h, http.MethodGet, "/api/cdr/"+a+"/common/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteSession(t *testing.T) {
	h := newRouter()
	id := mustUpload(t, h, "airtel.csv", airtelExport)

	rec := do(h, http.MethodDelete, "/api/cdr/"+id, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(h, http.MethodGet, "/api/cdr/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReportXLSX(t *testing.T) {
	h := newRouter()
	id := mustUpload(t, h, "airtel.csv", airtelExport)

	rec := do(h, http.MethodGet, "/api/cdr/"+id+"/report.xlsx", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "9876543210_all_reports.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), report.SheetMaxStay)
	rows, err := f.GetRows(report.SheetReport)
	require.NoError(t, err)
	assert.Len(t, rows, 5)
}

func TestMetrics(t *testing.T) {
	h := newRouter()
	mustUpload(t, h, "airtel.csv", airtelExport)
	uploadFile(t, h, "notes.txt", "hello\nworld\n")

	rec := do(h, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `cdr_files_parsed_total{format="airtel"} 1`)
	assert.Contains(t, body, `cdr_records_total{format="airtel"} 4`)
	assert.Contains(t, body, `cdr_rows_dropped_total{reason="footer"} 1`)
	assert.Contains(t, body, "cdr_parse_failures_total 1")
	assert.Contains(t, body, "cdr_sessions 1")
}
