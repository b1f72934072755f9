package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ladleworks/foodcost-cli/internal/model"
	"github.com/ladleworks/foodcost-cli/internal/resilience"
	"github.com/ladleworks/foodcost-cli/internal/servings"
	"github.com/ladleworks/foodcost-cli/pkg/nutrition"
)

var conversionsCmd = &cobra.Command{
	Use:   "conversions",
	Short: "Manage ingredient-specific conversions",
}

var conversionsListIngredient string

var conversionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List conversions for an ingredient",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEngine(ctx, "convert")
		if err != nil {
			return err
		}
		defer env.Close()

		convs, err := env.store.ListIngredientConversions(ctx, conversionsListIngredient)
		if err != nil {
			return err
		}
		if len(convs) == 0 {
			fmt.Println("No conversions")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		defer w.Flush()
		fmt.Fprintln(w, "FROM\tTO\tSCOPE\tSOURCE\tNOTE")
		for _, c := range convs {
			scope := c.LocationID
			if scope == "" {
				scope = "global"
			}
			fmt.Fprintf(w, "%g %s\t%g %s\t%s\t%s\t%s\n",
				c.FromQuantity, c.FromUnit, c.ToQuantity, c.ToUnit, scope, c.Source, c.Note)
		}
		return nil
	},
}

var (
	conversionsAddIngredient string
	conversionsAddLocation   string
	conversionsAddNote       string
)

var conversionsAddCmd = &cobra.Command{
	Use:   "add <from-qty> <from-unit> <to-qty> <to-unit>",
	Short: "Record a user conversion for an ingredient",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		fromQty, err := strconv.ParseFloat(args[0], 64)
		if err != nil || fromQty <= 0 {
			return eris.Errorf("invalid from quantity %q", args[0])
		}
		fromUnit, ok := model.ParseUnit(args[1])
		if !ok {
			return eris.Errorf("unknown unit %q", args[1])
		}
		toQty, err := strconv.ParseFloat(args[2], 64)
		if err != nil || toQty <= 0 {
			return eris.Errorf("invalid to quantity %q", args[2])
		}
		toUnit, ok := model.ParseUnit(args[3])
		if !ok {
			return eris.Errorf("unknown unit %q", args[3])
		}

		env, err := initEngine(ctx, "convert")
		if err != nil {
			return err
		}
		defer env.Close()

		saved, err := env.store.UpsertIngredientConversion(ctx, model.IngredientConversion{
			IngredientID: conversionsAddIngredient,
			LocationID:   conversionsAddLocation,
			FromQuantity: fromQty,
			FromUnit:     fromUnit,
			ToQuantity:   toQty,
			ToUnit:       toUnit,
			Source:       model.ConversionSourceUser,
			Note:         conversionsAddNote,
		})
		if err != nil {
			return err
		}

		fmt.Printf("Saved %g %s = %g %s (%s)\n",
			saved.FromQuantity, saved.FromUnit, saved.ToQuantity, saved.ToUnit, saved.ID)
		return nil
	},
}

var (
	syncLocation string
	syncLimit    int
	syncDryRun   bool
)

var conversionsSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Backfill conversions from the nutrition database",
	Long:  "For ingredients with no persisted conversions, searches the nutrition database for serving sizes, parses them into gram conversions, and persists the usable ones.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEngine(ctx, "sync")
		if err != nil {
			return err
		}
		defer env.Close()

		client := nutrition.NewCachedClient(
			nutrition.NewClient(cfg.Nutrition.Key,
				nutrition.WithBaseURL(cfg.Nutrition.BaseURL),
				nutrition.WithRateLimit(cfg.Nutrition.RatePerSec, 2),
			),
			nutrition.WithCache(env.store, time.Duration(cfg.Nutrition.CacheTTLHours)*time.Hour),
			nutrition.WithRetry(resilience.FromConfig(cfg.Nutrition.RetryMaxAttempts, 0, 0)),
			nutrition.WithBreaker(resilience.NewCircuitBreaker(resilience.FromCircuitConfig(
				cfg.Nutrition.CircuitFailureThreshold, cfg.Nutrition.CircuitResetSecs))),
		)

		items, err := env.store.ListCanonicalItems(ctx, syncLocation)
		if err != nil {
			return err
		}

		var synced, skipped, failed int
		for _, item := range items {
			if item.Kind != model.KindIngredient {
				continue
			}
			if syncLimit > 0 && synced >= syncLimit {
				break
			}

			existing, err := env.store.ListIngredientConversions(ctx, item.ID)
			if err != nil {
				return err
			}
			if len(existing) > 0 {
				skipped++
				continue
			}

			n, err := syncIngredient(ctx, env, client, item)
			if err != nil {
				// Lookup failures degrade to "no data" for this item.
				zap.L().Warn("nutrition sync failed for ingredient",
					zap.String("ingredient", item.Name),
					zap.Error(err),
				)
				failed++
				continue
			}
			if n > 0 {
				synced++
			}
		}

		fmt.Printf("Sync complete: %d ingredients synced, %d already had conversions, %d failed\n",
			synced, skipped, failed)
		return nil
	},
}

// syncIngredient looks the ingredient up, extracts usable serving sizes,
// and persists them. Returns the number of conversions written.
func syncIngredient(ctx context.Context, env *engine, client nutrition.Client, item model.CanonicalItem) (int, error) {
	resp, err := client.SearchFoods(ctx, item.Name, nutrition.WithPageSize(5))
	if err != nil {
		return 0, err
	}

	sizes := servingSizes(resp)
	if len(sizes) == 0 {
		return 0, nil
	}

	convs := servings.Extract(sizes, item.ID, syncLocation)
	written := 0
	for _, c := range convs {
		if syncDryRun {
			fmt.Printf("[dry-run] %s: %g %s = %g %s (%s)\n",
				item.Name, c.FromQuantity, c.FromUnit, c.ToQuantity, c.ToUnit, c.Note)
			written++
			continue
		}
		if _, err := env.store.UpsertIngredientConversion(ctx, c); err != nil {
			return written, err
		}
		written++
	}

	if written > 0 && !syncDryRun {
		zap.L().Info("persisted nutrition conversions",
			zap.String("ingredient", item.Name),
			zap.Int("count", written),
		)
	}
	return written, nil
}

// servingSizes flattens the portions of the best search hit. The first
// food carrying portions wins; search relevance does the ranking.
func servingSizes(resp *nutrition.SearchResponse) []model.ServingSize {
	for _, food := range resp.Foods {
		if len(food.Portions) == 0 {
			continue
		}
		sizes := make([]model.ServingSize, 0, len(food.Portions))
		for _, p := range food.Portions {
			sizes = append(sizes, model.ServingSize{
				Description: p.Description,
				Grams:       p.GramWeight,
				IsPreferred: p.Preferred,
			})
		}
		return sizes
	}
	return nil
}

func init() {
	conversionsListCmd.Flags().StringVar(&conversionsListIngredient, "ingredient-id", "", "ingredient ID (required)")
	_ = conversionsListCmd.MarkFlagRequired("ingredient-id")

	conversionsAddCmd.Flags().StringVar(&conversionsAddIngredient, "ingredient-id", "", "ingredient ID (required)")
	_ = conversionsAddCmd.MarkFlagRequired("ingredient-id")
	conversionsAddCmd.Flags().StringVar(&conversionsAddLocation, "location", "", "location scope (empty = global)")
	conversionsAddCmd.Flags().StringVar(&conversionsAddNote, "note", "", "provenance note")

	conversionsSyncCmd.Flags().StringVar(&syncLocation, "location", "", "location (tenant) ID")
	conversionsSyncCmd.Flags().IntVar(&syncLimit, "limit", 0, "max ingredients to sync (0 = all)")
	conversionsSyncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "print conversions without persisting")

	conversionsCmd.AddCommand(conversionsListCmd, conversionsAddCmd, conversionsSyncCmd)
	rootCmd.AddCommand(conversionsCmd)
}
