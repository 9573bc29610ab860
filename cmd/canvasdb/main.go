// Command canvasdb serves the canvas database API and runs canvases from the
// command line.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rpattn/canvasdb/internal/config"
)

// Version is set at build time.
var Version = "0.1.0"

type rootOptions struct {
	configPath string
	driver     string
	cfg        config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:     "canvasdb",
		Short:   "Tables, records and data-flow canvases over a JSON record store",
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if opts.driver != "" {
				cfg.Store.Driver = opts.driver
			}
			opts.cfg = cfg
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", ".", "directory holding config.yaml")
	rootCmd.PersistentFlags().StringVar(&opts.driver, "driver", "", "store driver override (postgres|memory)")

	rootCmd.AddCommand(newServeCmd(opts))
	rootCmd.AddCommand(newMigrateCmd(opts))
	rootCmd.AddCommand(newExecuteCmd(opts))

	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
