package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ladleworks/foodcost-cli/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("migrate"); err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer func(st store.Store) { _ = st.Close() }(st)

		if err := st.Migrate(ctx); err != nil {
			return err
		}

		fmt.Println("Migration complete")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
