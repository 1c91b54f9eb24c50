package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"vendas/internal/amqp"
	"vendas/internal/log"
	"vendas/internal/storage"
	"vendas/internal/worker"

	"github.com/spf13/cobra"
)

func runCmd(a *app) *cobra.Command {
	var sheet string
	cmd := &cobra.Command{
		Use:   "run <workbook>",
		Short: "Validate a workbook and replace the snapshot with it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := storage.NewSQLiteRepository(a.cfg.SQLiteDBPath)
			if err != nil {
				return fmt.Errorf("open snapshot: %w", err)
			}
			defer repo.Close()

			imp, err := worker.NewImportWorker(repo, a.cfg.Window(), a.logger).Import(cmd.Context(), args[0], sheet)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d rows from %s (import #%d)\n", imp.RowCount, imp.Source, imp.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&sheet, "sheet", "s", "", "Worksheet name (defaults to SALES_SHEET_NAME)")
	return cmd
}

func enqueueCmd(a *app) *cobra.Command {
	var sheet string
	cmd := &cobra.Command{
		Use:   "enqueue <workbook>",
		Short: "Ask the import worker to import a workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// The worker resolves the path on its own filesystem.
			path, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve %q: %w", args[0], err)
			}

			client, err := amqp.NewClient(a.cfg.AMQPURL, a.cfg.AMQPExchange, a.cfg.AMQPQueue, a.logger)
			if err != nil {
				return fmt.Errorf("connect to broker: %w", err)
			}
			defer client.Close()

			if err := client.PublishImportRequest(cmd.Context(), path, sheet); err != nil {
				return err
			}
			a.logger.Info("Import request queued", log.FieldSource, path, "queue", a.cfg.AMQPQueue)
			fmt.Fprintf(cmd.OutOrStdout(), "Queued import of %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&sheet, "sheet", "s", "", "Worksheet name (defaults to the worker's SALES_SHEET_NAME)")
	return cmd
}

func statusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the most recent import",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := storage.NewSQLiteRepository(a.cfg.SQLiteDBPath)
			if err != nil {
				return fmt.Errorf("open snapshot: %w", err)
			}
			defer repo.Close()

			out := cmd.OutOrStdout()
			last, err := repo.LastImport(cmd.Context())
			if errors.Is(err, storage.ErrNoSnapshot) {
				fmt.Fprintln(out, "No snapshot imported yet")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Snapshot:  %s (schema v%d)\n", a.cfg.SQLiteDBPath, repo.SchemaVersion())
			fmt.Fprintf(out, "Source:    %s\n", last.Source)
			fmt.Fprintf(out, "Rows:      %d\n", last.RowCount)
			fmt.Fprintf(out, "Imported:  %s\n", last.ImportedAt.Format(time.RFC3339))
			return nil
		},
	}
}
