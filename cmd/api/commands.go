package main

import (
	"context"
	"fmt"

	"github.com/Dan9191/finance-tracker/internal/config"
	"github.com/Dan9191/finance-tracker/internal/repository"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(reconcileCmd)

	migrateCmd.Flags().Bool("down", false, "Roll back every migration")
	reconcileCmd.Flags().Bool("repair", false, "Overwrite drifted balances with the sum of transactions")
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		down, _ := cmd.Flags().GetBool("down")
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		if cfg.Store != config.StorePostgres {
			return fmt.Errorf("migrations need STORE=%s", config.StorePostgres)
		}
		if err := repository.RunMigrations(cfg.DBConn, down); err != nil {
			return err
		}
		logger.WithField("down", down).Info("Migrations applied")
		return nil
	},
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Check every balance against the sum of its transactions",
	RunE: func(cmd *cobra.Command, args []string) error {
		repair, _ := cmd.Flags().GetBool("repair")
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		store, closeStore, err := openStore(cfg, logger)
		if err != nil {
			return err
		}
		defer closeStore()

		drifts, err := newService(cfg, logger, store).Reconcile(context.Background(), repair)
		if err != nil {
			return err
		}
		for _, d := range drifts {
			fmt.Fprintf(cmd.OutOrStdout(), "user %d: stored %s, computed %s, repaired %t\n",
				d.UserID, d.Stored.StringFixed(2), d.Computed.StringFixed(2), d.Repaired)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d drifted balance(s)\n", len(drifts))
		return nil
	},
}
