package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "clinical-records",
		Short:         "Patient record reconciliation API",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml (default: search ., ./config, /app/config)")

	root.AddCommand(
		newServeCmd(&configPath),
		newShareCmd(&configPath),
		newPatientsCmd(&configPath),
	)
	return root
}
