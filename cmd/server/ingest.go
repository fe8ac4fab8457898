package main

import (
	"sort"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Fetch all collections from the backend into the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		if env.ETL == nil {
			return eris.New("backend.base_url is not configured")
		}
		res, err := env.ETL.Run(cmd.Context())
		if err != nil {
			return err
		}

		cols := make([]string, 0, len(res))
		for c := range res {
			cols = append(cols, c)
		}
		sort.Strings(cols)
		for _, c := range cols {
			r := res[c]
			zap.L().Info("collection",
				zap.String("name", c),
				zap.Int("fetched", r.Fetched),
				zap.Int("skipped", r.Skipped),
				zap.Int("saved", r.Saved),
			)
		}
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the store schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		// initEnv migrates on open.
		env, err := initEnv(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer env.Close()
		zap.L().Info("migration complete", zap.String("store", cfg.Store.Driver))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd, migrateCmd)
}
