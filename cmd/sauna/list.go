package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/NicolasLM/sauna/store"
)

func newListActiveChecksCmd(flags *globalFlags, log *logrus.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "list-active-checks",
		Short: "Display the checks that sauna will run, per the configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			resolved, err := resolveFromFile(flags.configPath, store.New())
			if err != nil {
				return fmt.Errorf("sauna: %w", err)
			}
			names := make([]string, 0, len(resolved.Checks))
			for _, c := range resolved.Checks {
				names = append(names, c.Name)
			}
			sort.Strings(names)
			for _, n := range names {
				fmt.Println(n)
			}
			return nil
		},
	}
}

func newListAvailableChecksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-available-checks",
		Short: "Display every check type each built-in plugin provides",
		RunE: func(cmd *cobra.Command, args []string) error {
			plugins := builtinPlugins()
			for _, name := range plugins.List() {
				plugin, err := plugins.Create(name, nil)
				if err != nil {
					continue
				}
				checks := make([]string, 0, len(plugin.Checks))
				for c := range plugin.Checks {
					checks = append(checks, c)
				}
				sort.Strings(checks)
				fmt.Printf("%s: %s\n", name, strings.Join(checks, ", "))
			}
			return nil
		},
	}
}

func newListAvailableConsumersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-available-consumers",
		Short: "Display every consumer kind compiled into this binary",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range builtinConsumers(store.New()).List() {
				fmt.Println(name)
			}
			return nil
		},
	}
}
