package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/jalad-shrimali/cdr-insight/cdr"
	"github.com/jalad-shrimali/cdr-insight/logger"
	"github.com/jalad-shrimali/cdr-insight/network"
	"github.com/jalad-shrimali/cdr-insight/parser"
	"github.com/jalad-shrimali/cdr-insight/report"
)

func analyzeCmd() *cobra.Command {
	var (
		xlsxOut string
		csvOut  string
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "analyze <export.csv>",
		Short: "Analyze one export and print or save the report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			res, err := parser.ParseFile(path)
			if err != nil {
				return err
			}
			cells, err := openCells(cfg.Analysis.CellDB)
			if err != nil {
				return err
			}
			if cells != nil {
				defer cells.Close()
			}

			rep, err := report.Build(cmd.Context(), res.Table, report.Options{
				TopN:            cfg.Analysis.TopN,
				MinInteractions: cfg.Analysis.MinInteractions,
				Cells:           cells,
			})
			if err != nil {
				return err
			}

			if xlsxOut != "" {
				if err := report.WriteXLSX(rep, res.Table, xlsxOut); err != nil {
					return err
				}
				logger.Info("workbook written", slog.String("path", xlsxOut))
			}
			if csvOut != "" {
				if err := writeCSVFile(csvOut, res.Table, rep); err != nil {
					return err
				}
				logger.Info("records written", slog.String("path", csvOut))
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(rep)
			}
			var size int64
			if fi, err := os.Stat(path); err == nil {
				size = fi.Size()
			}
			renderSummary(out, path, size, res, rep)
			return nil
		},
	}
	cmd.Flags().StringVar(&xlsxOut, "xlsx", "", "write the multi-sheet workbook to this path")
	cmd.Flags().StringVar(&csvOut, "csv", "", "write the normalized records to this path")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full report as JSON")
	return cmd
}

func writeCSVFile(path string, t *cdr.Table, rep *report.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := report.WriteCSV(f, t.Records, rep.Towers); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func commonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "common <a.csv> <b.csv>",
		Short: "List counterparties present in both exports",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := parser.ParseFile(args[0])
			if err != nil {
				return err
			}
			b, err := parser.ParseFile(args[1])
			if err != nil {
				return err
			}
			common := network.New(a.Table).FindCommonContacts(b.Table)
			out := cmd.OutOrStdout()
			if len(common) == 0 {
				fmt.Fprintln(out, "no common contacts")
				return nil
			}
			for _, c := range common {
				fmt.Fprintln(out, c)
			}
			return nil
		},
	}
}

/* ──────────── terminal summary ──────────── */

func renderSummary(w io.Writer, path string, size int64, res *parser.Result, rep *report.Report) {
	s := rep.Summary
	fmt.Fprintf(w, "%s (%s, %s)\n", path, s.Format, humanize.Bytes(uint64(size)))
	if s.Metadata.TargetNumber != "" {
		fmt.Fprintf(w, "Target:        %s\n", s.Metadata.TargetNumber)
	}
	fmt.Fprintf(w, "Records:       %s (%s data rows, %s dropped)\n",
		humanize.Comma(int64(s.TotalRecords)),
		humanize.Comma(int64(res.Stats.DataRows)),
		humanize.Comma(int64(res.Stats.DataRows-res.Stats.Records)))
	if s.TotalRecords > 0 {
		fmt.Fprintf(w, "Span:          %s to %s\n", s.Start, s.End)
	}
	fmt.Fprintf(w, "Contacts:      %s unique\n", humanize.Comma(int64(s.UniqueContacts)))
	fmt.Fprintf(w, "Talk time:     %s (avg %.1fs)\n", time.Duration(s.TotalDuration)*time.Second, s.AvgDuration)

	split := rep.Temporal.Split
	fmt.Fprintf(w, "Night/Day/Eve: %.1f%% / %.1f%% / %.1f%%\n",
		split.NightPercentage, split.DayPercentage, split.EveningPercentage)

	var flags []string
	if rep.Temporal.Suspicious.ExcessiveNightActivity {
		flags = append(flags, "excessive night activity")
	}
	if rep.Temporal.Suspicious.LateNightSuspicious {
		flags = append(flags, "late-night activity")
	}
	if n := len(rep.Patterns.Bursts); n > 0 {
		flags = append(flags, humanize.Comma(int64(n))+" bursts")
	}
	if len(flags) > 0 {
		fmt.Fprintf(w, "Flags:         %s\n", strings.Join(flags, ", "))
	}

	if s.TotalRecords > 0 {
		hourly := make([]float64, 24)
		for h := range hourly {
			hourly[h] = float64(rep.Temporal.Hourly[h])
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, asciigraph.Plot(hourly,
			asciigraph.Height(8),
			asciigraph.Width(48),
			asciigraph.Caption("events per hour, 00-23")))
	}

	if top := cdr.Top(rep.Contacts.TopContacts, 5); len(top) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Top contacts:")
		for _, c := range top {
			fmt.Fprintf(w, "  %-16s %s\n", c.Key, humanize.Comma(int64(c.Count)))
		}
	}

	if loc := rep.Location; loc.HasData {
		fmt.Fprintf(w, "\nLocations:     %d towers, %d major movements, %s km travelled\n",
			loc.UniqueTowers, loc.MajorMovements, humanize.FormatFloat("#,###.#", loc.TotalDistanceKm))
	}
	for _, warn := range res.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warn)
	}
}
