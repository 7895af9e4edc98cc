package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/paulmach/orb"

	"github.com/jalad-shrimali/cdr-insight/cdr"
	"github.com/jalad-shrimali/cdr-insight/celldb"
	"github.com/jalad-shrimali/cdr-insight/device"
	"github.com/jalad-shrimali/cdr-insight/location"
	"github.com/jalad-shrimali/cdr-insight/network"
	"github.com/jalad-shrimali/cdr-insight/parser"
	"github.com/jalad-shrimali/cdr-insight/report"
	"github.com/jalad-shrimali/cdr-insight/temporal"
)

type sessionResponse struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Uploaded  string         `json:"uploaded"`
	Summary   parser.Summary `json:"summary"`
	Stats     parser.Stats   `json:"stats"`
	Warnings  []string       `json:"warnings,omitempty"`
	Ambiguous bool           `json:"ambiguous_format"`
}

func newSessionResponse(s *Session) sessionResponse {
	return sessionResponse{
		ID:        s.ID,
		Name:      s.Name,
		Uploaded:  s.Uploaded.Format(cdr.TimestampLayout),
		Summary:   parser.Summarize(s.Table()),
		Stats:     s.Result.Stats,
		Warnings:  s.Result.Warnings,
		Ambiguous: s.Result.Ambiguous,
	}
}

// upload handles POST /api/cdr with a multipart "file" field.
func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes)
	f, hdr, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			h.fail(w, r, http.StatusRequestEntityTooLarge, err)
		case errors.Is(err, http.ErrMissingFile):
			h.fail(w, r, http.StatusBadRequest, errMissingFile)
		default:
			h.fail(w, r, http.StatusBadRequest, err)
		}
		return
	}
	defer f.Close()

	res, err := parser.Parse(f)
	if err != nil {
		var pe *cdr.ParseError
		if errors.As(err, &pe) {
			pe.Path = hdr.Filename
		}
		h.metrics.failures.Inc()
		h.fail(w, r, statusFor(err), err)
		return
	}
	h.metrics.observe(res)

	sess := h.store.Put(hdr.Filename, res)
	h.metrics.sessions.Set(float64(h.store.Len()))
	h.log.Info("export ingested",
		slog.String("session", sess.ID),
		slog.String("file", hdr.Filename),
		slog.String("format", string(res.Table.Format)),
		slog.Int("records", res.Stats.Records))

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, newSessionResponse(sess))
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, newSessionResponse(sessionFrom(r)))
}

func (h *Handler) deleteSession(w http.ResponseWriter, r *http.Request) {
	h.store.Delete(sessionFrom(r).ID)
	h.metrics.sessions.Set(float64(h.store.Len()))
	render.NoContent(w, r)
}

/* ──────────── analyzers ──────────── */

func (h *Handler) getTemporal(w http.ResponseWriter, r *http.Request) {
	top, err := intParam(r, "top", h.opts.TopN)
	if err != nil {
		h.fail(w, r, http.StatusBadRequest, err)
		return
	}
	a := temporal.New(sessionFrom(r).Table(), top)
	render.JSON(w, r, map[string]any{
		"analysis": a.Analyze(),
		"patterns": a.CommunicationPatterns(),
	})
}

func (h *Handler) getNetwork(w http.ResponseWriter, r *http.Request) {
	minInteractions, err := intParam(r, "min", h.opts.MinInteractions)
	if err != nil {
		h.fail(w, r, http.StatusBadRequest, err)
		return
	}
	a := network.New(sessionFrom(r).Table())
	render.JSON(w, r, map[string]any{
		"metrics": a.Metrics(minInteractions),
		"graph":   a.BuildGraph(minInteractions),
	})
}

func (h *Handler) getClusters(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, network.New(sessionFrom(r).Table()).ClusterContacts())
}

func (h *Handler) getContacts(w http.ResponseWriter, r *http.Request) {
	a := network.New(sessionFrom(r).Table())
	render.JSON(w, r, map[string]any{
		"analysis": a.ContactAnalysis(),
		"parties":  a.PartySummaries(),
	})
}

func (h *Handler) getContactTimeline(w http.ResponseWriter, r *http.Request) {
	contact := cdr.CleanCounterparty(chi.URLParam(r, "contact"))
	recs := network.New(sessionFrom(r).Table()).ContactTimeline(contact)
	render.JSON(w, r, map[string]any{
		"contact": contact,
		"total":   len(recs),
		"records": recs,
	})
}

func (h *Handler) getCommon(w http.ResponseWriter, r *http.Request) {
	other, ok := h.store.Get(chi.URLParam(r, "other"))
	if !ok {
		h.fail(w, r, http.StatusNotFound, errSessionNotFound)
		return
	}
	render.JSON(w, r, map[string]any{
		"common": network.New(sessionFrom(r).Table()).FindCommonContacts(other.Table()),
	})
}

func (h *Handler) getLocations(w http.ResponseWriter, r *http.Request) {
	a := location.New(sessionFrom(r).Table())
	render.JSON(w, r, map[string]any{
		"analysis":   a.Analysis(),
		"time_based": a.TimeBasedLocations(),
		"max_stay":   a.MaxStay(),
	})
}

// getMovement handles GET .../movement?bbox=minLon,minLat,maxLon,maxLat; the
// box is optional.
func (h *Handler) getMovement(w http.ResponseWriter, r *http.Request) {
	a := location.New(sessionFrom(r).Table())
	moves := a.MovementTimeline()
	if raw := r.URL.Query().Get("bbox"); raw != "" {
		b, err := parseBBox(raw)
		if err != nil {
			h.fail(w, r, http.StatusBadRequest, err)
			return
		}
		moves = a.Within(b)
	}
	render.JSON(w, r, map[string]any{
		"mobility":  a.Mobility(),
		"movements": moves,
	})
}

func (h *Handler) getDevice(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, device.Analyze(sessionFrom(r).Table()))
}

/* ──────────── records & reports ──────────── */

// getRecords handles GET .../records. Filters: number, category (repeatable),
// period (repeatable), from, to (YYYY-MM-DD). format=csv downloads instead.
func (h *Handler) getRecords(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		h.fail(w, r, http.StatusBadRequest, err)
		return
	}
	sess := sessionFrom(r)
	recs := f.Apply(sess.Table().Snapshot())

	if r.URL.Query().Get("format") != "csv" {
		render.JSON(w, r, map[string]any{"total": len(recs), "records": recs})
		return
	}

	var towers map[string]celldb.Tower
	if h.opts.Cells != nil {
		if towers, err = h.opts.Cells.Towers(r.Context(), sess.Table()); err != nil {
			h.fail(w, r, http.StatusInternalServerError, err)
			return
		}
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s_records.csv"`, exportName(sess)))
	if err := report.WriteCSV(w, recs, towers); err != nil {
		h.log.Error("csv export failed", slog.String("session", sess.ID), slog.Any("error", err))
	}
}

func (h *Handler) getReport(w http.ResponseWriter, r *http.Request) {
	rep, err := report.Build(r.Context(), sessionFrom(r).Table(), h.reportOptions())
	if err != nil {
		h.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	render.JSON(w, r, rep)
}

func (h *Handler) getReportXLSX(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	rep, err := report.Build(r.Context(), sess.Table(), h.reportOptions())
	if err != nil {
		h.fail(w, r, http.StatusInternalServerError, err)
		return
	}

	dir, err := os.MkdirTemp("", "cdr-report-")
	if err != nil {
		h.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	defer os.RemoveAll(dir)
	name := exportName(sess) + "_all_reports.xlsx"
	path := filepath.Join(dir, name)
	if err := report.WriteXLSX(rep, sess.Table(), path); err != nil {
		h.fail(w, r, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	http.ServeFile(w, r, path)
}

func exportName(s *Session) string {
	if t := s.Table().Metadata.TargetNumber; t != "" {
		return t
	}
	return s.ID
}

/* ──────────── query parsing ──────────── */

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: not an integer", name, raw)
	}
	return n, nil
}

var periods = []string{
	cdr.PeriodLateNight, cdr.PeriodMorning, cdr.PeriodAfternoon,
	cdr.PeriodEvening, cdr.PeriodNight, cdr.PeriodUnknown,
}

func parseFilter(r *http.Request) (cdr.Filter, error) {
	q := r.URL.Query()
	f := cdr.Filter{Number: strings.TrimSpace(q.Get("number"))}

	for _, raw := range q["category"] {
		i := slices.IndexFunc(cdr.Categories, func(c cdr.Category) bool { return strings.EqualFold(string(c), raw) })
		if i < 0 {
			return f, fmt.Errorf("invalid category %q", raw)
		}
		f.Categories = append(f.Categories, cdr.Categories[i])
	}
	for _, raw := range q["period"] {
		i := slices.IndexFunc(periods, func(p string) bool { return strings.EqualFold(p, raw) })
		if i < 0 {
			return f, fmt.Errorf("invalid period %q", raw)
		}
		f.Periods = append(f.Periods, periods[i])
	}

	var err error
	if f.From, err = dateParam(q.Get("from"), "from"); err != nil {
		return f, err
	}
	if f.To, err = dateParam(q.Get("to"), "to"); err != nil {
		return f, err
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To) {
		return f, errors.New("from is after to")
	}
	return f, nil
}

func dateParam(raw, name string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(cdr.DateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s %q: want YYYY-MM-DD", name, raw)
	}
	return t, nil
}

// parseBBox reads "minLon,minLat,maxLon,maxLat".
func parseBBox(raw string) (orb.Bound, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return orb.Bound{}, fmt.Errorf("invalid bbox %q: want minLon,minLat,maxLon,maxLat", raw)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return orb.Bound{}, fmt.Errorf("invalid bbox %q: %w", raw, err)
		}
		v[i] = f
	}
	if v[0] > v[2] || v[1] > v[3] {
		return orb.Bound{}, fmt.Errorf("invalid bbox %q: min exceeds max", raw)
	}
	return orb.Bound{Min: orb.Point{v[0], v[1]}, Max: orb.Point{v[2], v[3]}}, nil
}
