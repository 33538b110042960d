/*
 * cmd_povray.go, part of goneb.
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
	"fmt"

	"github.com/rmera/goneb/povray"
	"github.com/spf13/cobra"
)

func newPovrayCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "povray <series>",
		Short: "Export states of the latest saved band as POV-Ray include files",
		Long: `Write <state>.inc for each state named in the configuration (povray.states),
taken from the latest saved band of the series.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			images, _ := cmd.Flags().GetInt("images")
			out, _ := cmd.Flags().GetString("out")
			store, err := a.openManifest()
			if err != nil {
				return err
			}
			defer store.Close()
			cp, err := store.Latest(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			files, err := povray.ExportStates(cp.Path, out, a.config.Povray.States, images, a.config.Mesh, povray.LeftHanded())
			if err != nil {
				return err
			}
			for _, f := range files {
				fmt.Fprintln(cmd.OutOrStdout(), f)
			}
			return nil
		},
	}
	cmd.Flags().Int("images", 18, "Number of images in the band")
	cmd.Flags().String("out", ".", "Output directory")
	return cmd
}
