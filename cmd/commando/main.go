// Command commando runs the Discord command bot.
package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:           "commando",
		Short:         "Discord command bot",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBot(cmd.Context(), configPath)
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "commando.yaml", "YAML config file")
	root.AddCommand(
		newRunCmd(&configPath),
		newCommandsCmd(&configPath),
	)
	return root
}

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
