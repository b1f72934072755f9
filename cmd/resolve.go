package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ladleworks/foodcost-cli/internal/identity"
	"github.com/ladleworks/foodcost-cli/internal/model"
)

var (
	resolveLocation  string
	resolveKind      string
	resolveThreshold int
	resolveJSON      bool
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <item text>",
	Short: "Resolve a vendor item name against the catalog",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEngine(ctx, "resolve")
		if err != nil {
			return err
		}
		defer env.Close()

		text := strings.Join(args, " ")
		kind := model.ItemKind(resolveKind)

		var opts []identity.ResolveOption
		if resolveThreshold > 0 {
			opts = append(opts, identity.WithThreshold(resolveThreshold))
		}

		result, err := env.identity.Resolve(ctx, text, resolveLocation, kind, opts...)
		if err != nil {
			return err
		}

		if resolveJSON {
			out, _ := json.MarshalIndent(result, "", "  ")
			fmt.Println(string(out))
			return nil
		}

		if result.IsMatched {
			fmt.Printf("Matched %q -> %s (%s, confidence %d, via %s)\n",
				text, result.TargetName, result.TargetID, result.Confidence, result.Method)
			return nil
		}

		fmt.Printf("No match for %q\n", text)

		max := cfg.Identity.MaxSuggestions
		suggestions, err := env.identity.Suggest(ctx, text, resolveLocation, kind, max)
		if err != nil {
			return err
		}
		if len(suggestions) == 0 {
			fmt.Println("No suggestions")
			return nil
		}

		fmt.Fprintln(os.Stdout, "Suggestions:")
		for _, s := range suggestions {
			fmt.Printf("  %3d  %-40s %s\n", s.Confidence, s.Name, s.ID)
		}
		return nil
	},
}

func init() {
	resolveCmd.Flags().StringVar(&resolveLocation, "location", "", "location (tenant) ID")
	resolveCmd.Flags().StringVar(&resolveKind, "kind", string(model.KindIngredient), "item kind: ingredient or recipe")
	resolveCmd.Flags().IntVar(&resolveThreshold, "threshold", 0, "fuzzy match threshold override (1-100)")
	resolveCmd.Flags().BoolVar(&resolveJSON, "json", false, "emit the raw match result as JSON")
	rootCmd.AddCommand(resolveCmd)
}
