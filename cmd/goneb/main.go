/*
 * main.go, part of goneb.
 *
 * Copyright 2024 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	neb "github.com/rmera/goneb"
	"github.com/rmera/goneb/checkpoint"
	"github.com/rmera/goneb/engine/fidimag"
	"github.com/rmera/goneb/internal/logging"
	"github.com/spf13/cobra"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

//app holds what the subcommands share, set up before any of them runs.
type app struct {
	config   *neb.Config
	log      *slog.Logger
	manifest string
}

//openManifest opens the checkpoint manifest given with --manifest.
func (a *app) openManifest() (*checkpoint.Store, error) {
	return checkpoint.Open(a.manifest)
}

//runner returns a Runner driving fidimag, with the manifest m.
func (a *app) runner(m neb.Manifest) *neb.Runner {
	h := fidimag.NewHandle(a.log)
	h.SetCommand(a.config.Engine.Command)
	h.SetWorkDir(a.config.Engine.WorkDir)
	return &neb.Runner{Engine: h, Manifest: m, Config: a.config, Log: a.log}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:   "goneb",
		Short: "Minimum energy paths between magnetic states with fidimag",
		Long: `goneb drives the fidimag micromagnetics code to relax spin states and
energy bands (geodesic nudged elastic band method, with climbing images),
keeps a manifest of the saved states, and plots and exports the results.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			config, err := neb.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				config.Logging.Level, _ = cmd.Flags().GetString("log-level")
			}
			if err := config.Validate(); err != nil {
				return err
			}
			a.config = config
			a.manifest, _ = cmd.Flags().GetString("manifest")
			a.log = logging.NewLogger(config.Logging.Level, cmd.ErrOrStderr())
			a.log.Debug("configuration loaded", "file", configPath, "name", config.Name)
			return nil
		},
	}

	rootCmd.PersistentFlags().String("config", "", "YAML configuration file")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: info, debug or trace")
	rootCmd.PersistentFlags().String("manifest", "checkpoints.db", "SQLite checkpoint manifest")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRelaxCmd(a),
		newBandCmd(a),
		newClimbCmd(a),
		newLatestCmd(a),
		newPlotCmd(a),
		newFramesCmd(a),
		newPovrayCmd(a),
		newPackCmd(a),
	)
	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
