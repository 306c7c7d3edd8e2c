// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChargeShare Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/chargeshare/chargeshare/internal/config"
	"github.com/chargeshare/chargeshare/internal/xdg"
)

// rootOptions holds flags shared by every subcommand.
type rootOptions struct {
	configFile string
	deps       *Deps
}

// NewRootCmd creates the root command for the ChargeShare CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmdWithDeps(nil)
}

func newRootCmdWithDeps(deps *Deps) *cobra.Command {
	opts := &rootOptions{deps: deps.withDefaults()}

	cmd := &cobra.Command{
		Use:   "chargeshare",
		Short: "ChargeShare - peer-to-peer EV charger sharing",
		Long: `ChargeShare lets hosts list their chargers and drivers find them,
with session-based authentication and live availability updates.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "",
		"config file path (default: $XDG_CONFIG_HOME/chargeshare/config.yaml)")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newMigrateCmd(opts))
	cmd.AddCommand(newSweepCmd(opts))
	cmd.AddCommand(newConfigCmd(opts))

	return cmd
}

// configPath returns the config file to read and whether the user named it.
func (o *rootOptions) configPath() (string, bool) {
	if o.configFile != "" {
		return o.configFile, true
	}
	path, err := xdg.ConfigFile()
	if err != nil {
		return "", false
	}
	return path, false
}

// loadConfig reads the config file, environment and the command's flags.
func (o *rootOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, explicit := o.configPath()
	return config.Load(config.Options{
		Path:     path,
		Explicit: explicit,
		Flags:    cmd.Flags(),
		Getenv:   o.deps.Getenv,
	})
}
