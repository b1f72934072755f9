// Package importer ingests vendor price sheets: each line's free-text item
// name is resolved against the location's catalog, and resolved lines get a
// unit cost in the configured costing unit. Lines that cannot be resolved
// carry ranked suggestions for manual review.
package importer

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ladleworks/foodcost-cli/internal/convert"
	"github.com/ladleworks/foodcost-cli/internal/identity"
	"github.com/ladleworks/foodcost-cli/internal/model"
)

// Row is one raw price sheet line.
type Row struct {
	Line     int
	ItemText string
	PackText string
	Price    string
}

// LineResult is the outcome for one row.
type LineResult struct {
	Row Row

	// SkipReason is set when the row never reached resolution
	// (unparseable pack or price).
	SkipReason string

	Match       model.MatchResult
	Suggestions []model.Suggestion

	// Quantity and Unit are the parsed total pack contents.
	Quantity float64
	Unit     model.Unit
	Price    float64

	// CostPerUnit is the price divided by the pack contents expressed in
	// the costing unit. Nil when no conversion path exists.
	CostPerUnit *float64
}

// Report summarizes an import run.
type Report struct {
	Total     int
	Matched   int
	Unmatched int
	Skipped   int
	Priced    int
	Elapsed   time.Duration

	Lines []LineResult
}

// Options configures an import run.
type Options struct {
	LocationID string
	Kind       model.ItemKind

	// CostUnit is the unit line costs are expressed in. Default grams.
	CostUnit model.Unit

	// Workers bounds concurrent row processing. Default 8.
	Workers int

	// MaxSuggestions caps per-line suggestions for unmatched rows.
	MaxSuggestions int
}

// Importer runs the price sheet pipeline.
type Importer struct {
	identity *identity.Resolver
	convert  *convert.Resolver
}

// New creates an Importer over the resolution engines.
func New(ir *identity.Resolver, cr *convert.Resolver) *Importer {
	return &Importer{identity: ir, convert: cr}
}

// Run processes every row concurrently and returns the report. Row order
// is preserved in the report regardless of completion order. Only context
// cancellation aborts the run; per-row failures are recorded on the line.
func (imp *Importer) Run(ctx context.Context, rows []Row, opts Options) (*Report, error) {
	if opts.Kind == "" {
		opts.Kind = model.KindIngredient
	}
	if opts.CostUnit == "" {
		opts.CostUnit = model.UnitGram
	}
	if opts.Workers <= 0 {
		opts.Workers = 8
	}
	if opts.MaxSuggestions <= 0 {
		opts.MaxSuggestions = identity.DefaultMaxSuggestions
	}

	start := time.Now()
	lines := make([]LineResult, len(rows))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)

	for i := range rows {
		g.Go(func() error {
			lines[i] = imp.processRow(gctx, rows[i], opts)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{Total: len(rows), Elapsed: time.Since(start), Lines: lines}
	for i := range lines {
		switch {
		case lines[i].SkipReason != "":
			report.Skipped++
		case lines[i].Match.IsMatched:
			report.Matched++
			if lines[i].CostPerUnit != nil {
				report.Priced++
			}
		default:
			report.Unmatched++
		}
	}

	zap.L().Info("import complete",
		zap.Int("total", report.Total),
		zap.Int("matched", report.Matched),
		zap.Int("unmatched", report.Unmatched),
		zap.Int("skipped", report.Skipped),
		zap.Duration("elapsed", report.Elapsed),
	)
	return report, nil
}

func (imp *Importer) processRow(ctx context.Context, row Row, opts Options) LineResult {
	res := LineResult{Row: row}

	if strings.TrimSpace(row.ItemText) == "" {
		res.SkipReason = "empty item name"
		return res
	}

	pack, err := ParsePack(row.PackText)
	if err != nil {
		res.SkipReason = err.Error()
		return res
	}
	res.Quantity, res.Unit = pack.Quantity, pack.Unit

	price, err := ParsePrice(row.Price)
	if err != nil {
		res.SkipReason = err.Error()
		return res
	}
	res.Price = price

	match, err := imp.identity.Resolve(ctx, row.ItemText, opts.LocationID, opts.Kind)
	if err != nil {
		res.SkipReason = err.Error()
		return res
	}
	res.Match = match

	if !match.IsMatched {
		suggestions, err := imp.identity.Suggest(ctx, row.ItemText, opts.LocationID, opts.Kind, opts.MaxSuggestions)
		if err != nil {
			zap.L().Warn("import: suggestion lookup failed",
				zap.Int("line", row.Line),
				zap.String("item", row.ItemText),
				zap.Error(err),
			)
		}
		res.Suggestions = suggestions
		return res
	}

	contents, err := imp.convert.Convert(ctx, convert.Request{
		Quantity:       pack.Quantity,
		FromUnit:       pack.Unit,
		ToUnit:         opts.CostUnit,
		IngredientID:   match.TargetID,
		IngredientName: match.TargetName,
		LocationID:     opts.LocationID,
	})
	if err != nil {
		zap.L().Warn("import: conversion failed",
			zap.Int("line", row.Line),
			zap.String("item", row.ItemText),
			zap.Error(err),
		)
		return res
	}
	if contents == nil || *contents <= 0 {
		// No conversion path to the costing unit; the line stays matched
		// but unpriced.
		return res
	}

	cost := price / *contents
	res.CostPerUnit = &cost
	return res
}

// MapColumns locates the item, pack, and price columns in a header row by
// fuzzy header names. Returns ok=false when any column is missing.
func MapColumns(header []string) (item, pack, price int, ok bool) {
	item, pack, price = -1, -1, -1
	for i, h := range header {
		switch key := strings.ToLower(strings.TrimSpace(h)); {
		case item < 0 && (strings.Contains(key, "item") || strings.Contains(key, "description") || strings.Contains(key, "product")):
			item = i
		case pack < 0 && (strings.Contains(key, "pack") || strings.Contains(key, "size")):
			pack = i
		case price < 0 && (strings.Contains(key, "price") || strings.Contains(key, "cost")):
			price = i
		}
	}
	return item, pack, price, item >= 0 && pack >= 0 && price >= 0
}

// RowsFromRecords converts raw sheet records into Rows using the given
// column indexes. Line numbers are 1-based and include the header offset.
func RowsFromRecords(records [][]string, itemCol, packCol, priceCol, lineOffset int) []Row {
	rows := make([]Row, 0, len(records))
	for i, rec := range records {
		row := Row{Line: lineOffset + i + 1}
		if itemCol < len(rec) {
			row.ItemText = rec[itemCol]
		}
		if packCol < len(rec) {
			row.PackText = rec[packCol]
		}
		if priceCol < len(rec) {
			row.Price = rec[priceCol]
		}
		rows = append(rows, row)
	}
	return rows
}
