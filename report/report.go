// Package report runs every analyzer over one table and exports the results
// as a workbook or a CSV record dump.
package report

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jalad-shrimali/cdr-insight/cdr"
	"github.com/jalad-shrimali/cdr-insight/celldb"
	"github.com/jalad-shrimali/cdr-insight/device"
	"github.com/jalad-shrimali/cdr-insight/location"
	"github.com/jalad-shrimali/cdr-insight/logger"
	"github.com/jalad-shrimali/cdr-insight/network"
	"github.com/jalad-shrimali/cdr-insight/parser"
	"github.com/jalad-shrimali/cdr-insight/temporal"
)

// Options tune a report. Cells is optional.
type Options struct {
	TopN            int
	MinInteractions int
	Cells           *celldb.DB
}

// Report is the combined output of every analyzer.
type Report struct {
	GeneratedAt   string                  `json:"generated_at"`
	Summary       parser.Summary          `json:"summary"`
	Temporal      temporal.Report         `json:"temporal"`
	Patterns      temporal.Patterns       `json:"communication_patterns"`
	Network       network.Metrics         `json:"network"`
	Tiers         network.Tiers           `json:"contact_clusters"`
	Contacts      network.ContactReport   `json:"contact_analysis"`
	Parties       []network.PartySummary  `json:"party_summaries"`
	Location      location.Report         `json:"location"`
	TimeLocations location.TimeLocations  `json:"time_based_locations"`
	MaxStay       []location.Stay         `json:"max_stay"`
	Device        device.Report           `json:"device"`
	Towers        map[string]celldb.Tower `json:"towers,omitempty"`
}

// Build runs the analyzers concurrently. They only read t, so no locking is
// needed; each goroutine fills its own fields.
func Build(ctx context.Context, t *cdr.Table, opts Options) (*Report, error) {
	log := logger.With("report")
	start := time.Now()
	rep := &Report{GeneratedAt: start.Format(cdr.TimestampLayout)}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rep.Summary = parser.Summarize(t)
		return nil
	})
	g.Go(func() error {
		a := temporal.New(t, opts.TopN)
		rep.Temporal = a.Analyze()
		rep.Patterns = a.CommunicationPatterns()
		return nil
	})
	g.Go(func() error {
		a := network.New(t)
		rep.Network = a.Metrics(opts.MinInteractions)
		rep.Tiers = a.ClusterContacts()
		rep.Contacts = a.ContactAnalysis()
		rep.Parties = a.PartySummaries()
		return nil
	})
	g.Go(func() error {
		a := location.New(t)
		rep.Location = a.Analysis()
		rep.TimeLocations = a.TimeBasedLocations()
		rep.MaxStay = a.MaxStay()
		return nil
	})
	g.Go(func() error {
		rep.Device = device.Analyze(t)
		return nil
	})
	if opts.Cells != nil {
		g.Go(func() error {
			towers, err := opts.Cells.Towers(ctx, t)
			if err != nil {
				return err
			}
			rep.Towers = towers
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.Info("report built",
		slog.Int("records", t.Len()),
		slog.Duration("elapsed", time.Since(start)))
	return rep, nil
}
