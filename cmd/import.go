package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/ladleworks/foodcost-cli/internal/fetcher"
	"github.com/ladleworks/foodcost-cli/internal/importer"
	"github.com/ladleworks/foodcost-cli/internal/model"
)

var (
	importLocation string
	importKind     string
	importCostUnit string
	importWorkers  int
	importSheet    string
	importSkipRows int
	importItemCol  int
	importPackCol  int
	importPriceCol int
	importJSON     bool
)

var importCmd = &cobra.Command{
	Use:   "import <file-or-url>",
	Short: "Import a vendor price sheet",
	Long:  "Reads a CSV or XLSX price sheet from a local path, an HTTP(S) URL, or an FTP URL, resolves each line against the location's catalog, and computes unit costs for resolved lines.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		source := args[0]

		env, err := initEngine(ctx, "import")
		if err != nil {
			return err
		}
		defer env.Close()

		costUnit := model.Unit(importCostUnit)
		if importCostUnit != "" {
			u, ok := model.ParseUnit(importCostUnit)
			if !ok {
				return eris.Errorf("unknown cost unit %q", importCostUnit)
			}
			costUnit = u
		} else if u, ok := model.ParseUnit(cfg.Import.CostUnit); ok {
			costUnit = u
		}

		rows, err := loadRows(ctx, source)
		if err != nil {
			return err
		}

		workers := importWorkers
		if workers <= 0 {
			workers = cfg.Import.Workers
		}

		imp := importer.New(env.identity, env.convert)
		report, err := imp.Run(ctx, rows, importer.Options{
			LocationID:     importLocation,
			Kind:           model.ItemKind(importKind),
			CostUnit:       costUnit,
			Workers:        workers,
			MaxSuggestions: cfg.Identity.MaxSuggestions,
		})
		if err != nil {
			return err
		}

		if importJSON {
			out, _ := json.MarshalIndent(report, "", "  ")
			fmt.Println(string(out))
			return nil
		}

		printReport(report, costUnit)
		return nil
	},
}

// loadRows fetches the source and parses it into price sheet rows.
func loadRows(ctx context.Context, source string) ([]importer.Row, error) {
	local, cleanup, err := fetchToLocal(ctx, source)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	if strings.EqualFold(filepath.Ext(local), ".xlsx") {
		return loadXLSXRows(local)
	}
	return loadCSVRows(ctx, local)
}

// fetchToLocal downloads remote sources to a temp file and returns a local
// path plus a cleanup func. Local paths pass through untouched.
func fetchToLocal(ctx context.Context, source string) (string, func(), error) {
	noop := func() {}

	var f fetcher.Fetcher
	switch {
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		f = fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
			Timeout:  time.Duration(cfg.Feeds.TimeoutSecs) * time.Second,
			HostRate: rate.Limit(cfg.Feeds.HostRate),
		})
	case strings.HasPrefix(source, "ftp://"):
		f = fetcher.NewFTPFetcher(fetcher.FTPOptions{
			User:     cfg.Feeds.FTPUser,
			Password: cfg.Feeds.FTPPassword,
			Timeout:  time.Duration(cfg.Feeds.TimeoutSecs) * time.Second,
		})
	default:
		return source, noop, nil
	}

	tmp, err := os.CreateTemp("", "pricesheet-*"+filepath.Ext(source))
	if err != nil {
		return "", noop, eris.Wrap(err, "create temp file")
	}
	tmp.Close()

	if _, err := f.DownloadToFile(ctx, source, tmp.Name()); err != nil {
		os.Remove(tmp.Name())
		return "", noop, err
	}
	return tmp.Name(), func() { os.Remove(tmp.Name()) }, nil
}

func loadXLSXRows(path string) ([]importer.Row, error) {
	// Row skipping happens in mapRecords so CSV and XLSX behave alike.
	records, err := fetcher.ReadXLSX(path, fetcher.XLSXOptions{
		SheetName: importSheet,
	})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, eris.New("sheet is empty")
	}
	return mapRecords(records)
}

func loadCSVRows(ctx context.Context, path string) ([]importer.Row, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "open price sheet")
	}
	defer file.Close()

	var records [][]string
	rowCh, errCh := fetcher.StreamCSV(ctx, file, fetcher.CSVOptions{
		TrimSpace:  true,
		LazyQuotes: true,
	})
	for row := range rowCh {
		records = append(records, row)
	}
	if err := <-errCh; err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, eris.New("price sheet is empty")
	}
	return mapRecords(records)
}

// mapRecords finds the item/pack/price columns and converts the remaining
// records to rows. Column flags override header detection.
func mapRecords(records [][]string) ([]importer.Row, error) {
	itemCol, packCol, priceCol := importItemCol, importPackCol, importPriceCol
	start := importSkipRows
	if start >= len(records) {
		return nil, eris.New("price sheet has no data rows")
	}

	if itemCol < 0 || packCol < 0 || priceCol < 0 {
		var ok bool
		itemCol, packCol, priceCol, ok = importer.MapColumns(records[start])
		if !ok {
			return nil, eris.New("could not locate item/pack/price columns; use --item-col, --pack-col, --price-col")
		}
		start++
	}

	if start >= len(records) {
		return nil, eris.New("price sheet has no data rows")
	}
	return importer.RowsFromRecords(records[start:], itemCol, packCol, priceCol, start), nil
}

func printReport(report *importer.Report, costUnit model.Unit) {
	fmt.Printf("Processed %d lines in %s: %d matched (%d priced), %d unmatched, %d skipped\n",
		report.Total, report.Elapsed.Round(time.Millisecond),
		report.Matched, report.Priced, report.Unmatched, report.Skipped)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "LINE\tITEM\tSTATUS\tCOST/%s\tDETAIL\n", strings.ToUpper(string(costUnit)))
	for _, line := range report.Lines {
		switch {
		case line.SkipReason != "":
			fmt.Fprintf(w, "%d\t%s\tskipped\t\t%s\n",
				line.Row.Line, line.Row.ItemText, line.SkipReason)
		case !line.Match.IsMatched:
			detail := "no suggestions"
			if len(line.Suggestions) > 0 {
				s := line.Suggestions[0]
				detail = fmt.Sprintf("closest: %s (%d)", s.Name, s.Confidence)
			}
			fmt.Fprintf(w, "%d\t%s\tunmatched\t\t%s\n",
				line.Row.Line, line.Row.ItemText, detail)
		case line.CostPerUnit == nil:
			fmt.Fprintf(w, "%d\t%s\tmatched\t\tno conversion path\n",
				line.Row.Line, line.Row.ItemText)
		default:
			fmt.Fprintf(w, "%d\t%s\tmatched\t%.4f\t-> %s\n",
				line.Row.Line, line.Row.ItemText, *line.CostPerUnit, line.Match.TargetName)
		}
	}
}

func init() {
	importCmd.Flags().StringVar(&importLocation, "location", "", "location (tenant) ID")
	importCmd.Flags().StringVar(&importKind, "kind", string(model.KindIngredient), "item kind: ingredient or recipe")
	importCmd.Flags().StringVar(&importCostUnit, "cost-unit", "", "unit line costs are expressed in (default from config)")
	importCmd.Flags().IntVar(&importWorkers, "workers", 0, "concurrent row workers (default from config)")
	importCmd.Flags().StringVar(&importSheet, "sheet", "", "XLSX sheet name (default first sheet)")
	importCmd.Flags().IntVar(&importSkipRows, "skip-rows", 0, "rows to skip before the header")
	importCmd.Flags().IntVar(&importItemCol, "item-col", -1, "item column index (default: detect from header)")
	importCmd.Flags().IntVar(&importPackCol, "pack-col", -1, "pack column index (default: detect from header)")
	importCmd.Flags().IntVar(&importPriceCol, "price-col", -1, "price column index (default: detect from header)")
	importCmd.Flags().BoolVar(&importJSON, "json", false, "emit the full report as JSON")
	rootCmd.AddCommand(importCmd)
}
