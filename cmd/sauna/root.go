package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// globalFlags holds the persistent flags shared by every subcommand.
type globalFlags struct {
	configPath string
	level      string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	log := logrus.New()

	root := &cobra.Command{
		Use:           "sauna",
		Short:         "A lightweight, pluggable health-check daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logrus.ParseLevel(flags.level)
			if err != nil {
				return err
			}
			log.SetLevel(level)
			log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
			return nil
		},
		// Running sauna with no subcommand starts the daemon, matching
		// spec.md §6's "run (default)".
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEngine(cmd.Context(), flags, log)
		},
	}

	root.PersistentFlags().StringVar(&flags.configPath, "config", "sauna.yml", "configuration file")
	root.PersistentFlags().StringVar(&flags.level, "level", "warn", "log level (debug|info|warn|error)")

	root.AddCommand(
		newRunCmd(flags, log),
		newSampleCmd(),
		newStatusCmd(flags, log),
		newListActiveChecksCmd(flags, log),
		newListAvailableChecksCmd(),
		newListAvailableConsumersCmd(),
	)

	return root
}
