package main

import (
	"fmt"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/ladleworks/foodcost-cli/internal/convert"
	"github.com/ladleworks/foodcost-cli/internal/model"
)

var (
	convertIngredientID   string
	convertIngredientName string
	convertLocation       string
	convertExplain        bool
)

var convertCmd = &cobra.Command{
	Use:   "convert <quantity> <from-unit> <to-unit>",
	Short: "Convert a quantity between units",
	Long:  "Converts through ingredient-specific overrides, catalog densities, and dimensional ratios, in that order. Prints \"no conversion path\" when no layer can answer.",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		qty, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return eris.Errorf("invalid quantity %q", args[0])
		}
		from, ok := model.ParseUnit(args[1])
		if !ok {
			return eris.Errorf("unknown unit %q", args[1])
		}
		to, ok := model.ParseUnit(args[2])
		if !ok {
			return eris.Errorf("unknown unit %q", args[2])
		}

		env, err := initEngine(ctx, "convert")
		if err != nil {
			return err
		}
		defer env.Close()

		req := convert.Request{
			Quantity:       qty,
			FromUnit:       from,
			ToUnit:         to,
			IngredientID:   convertIngredientID,
			IngredientName: convertIngredientName,
			LocationID:     convertLocation,
		}

		result, err := env.convert.Convert(ctx, req)
		if err != nil {
			return err
		}
		if result == nil {
			fmt.Printf("no conversion path from %s to %s\n", from, to)
			return nil
		}

		fmt.Printf("%g %s = %g %s\n", qty, from, *result, to)

		if convertExplain {
			path, err := env.convert.Explain(ctx, req)
			if err != nil {
				return err
			}
			fmt.Printf("resolved via the %s layer\n", path)
		}
		return nil
	},
}

func init() {
	convertCmd.Flags().StringVar(&convertIngredientID, "ingredient-id", "", "ingredient ID for persisted overrides")
	convertCmd.Flags().StringVar(&convertIngredientName, "ingredient", "", "ingredient name for catalog density lookup")
	convertCmd.Flags().StringVar(&convertLocation, "location", "", "location (tenant) ID")
	convertCmd.Flags().BoolVar(&convertExplain, "explain", false, "print which layer resolved the conversion")
	rootCmd.AddCommand(convertCmd)
}
