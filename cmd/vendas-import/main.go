package main

import (
	"fmt"
	"os"

	"vendas/internal/cli"
	"vendas/internal/config"
	"vendas/internal/log"

	"github.com/spf13/cobra"
)

var Version = "dev"

// app carries what every subcommand needs once the root command has run.
type app struct {
	cfg    *config.Config
	logger *log.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "vendas-import",
		Short:         "Import supermarket sales workbooks into the SQLite snapshot",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cli.LoadEnvFile()
			a.logger = cli.SetupLogger(log.ComponentImport)

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("read configuration: %w", err)
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
	}

	rootCmd.AddCommand(runCmd(a))
	rootCmd.AddCommand(enqueueCmd(a))
	rootCmd.AddCommand(statusCmd(a))
	return rootCmd
}
