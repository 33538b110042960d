/*
 * cmd_pack.go, part of goneb.
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

	neb "github.com/rmera/goneb"
	"github.com/rmera/goneb/traj/stf"
	"github.com/spf13/cobra"
)

func newPackCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pack <series>",
		Short: "Archive the latest saved band in a single stf file",
		Long: `Write every image of the latest saved band of the series into one compressed
stf file. With --energy, the last row of the energy trace is stored with the images.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			images, _ := cmd.Flags().GetInt("images")
			out, _ := cmd.Flags().GetString("output")
			energyFile, _ := cmd.Flags().GetString("energy")
			store, err := a.openManifest()
			if err != nil {
				return err
			}
			defer store.Close()
			cp, err := store.Latest(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			band, err := neb.LoadBand(cp.Path, images)
			if err != nil {
				return err
			}
			var energies []float64
			if energyFile != "" {
				trace, err := neb.ReadTrace(energyFile)
				if err != nil {
					return err
				}
				energies = trace.Last()
			}
			header := map[string]string{
				"series": cp.Series,
				"index":  fmt.Sprint(cp.Index),
			}
			if out == "" {
				out = fmt.Sprintf("%s_%d.stf", cp.Series, cp.Index)
			}
			if err := stf.WriteChain(out, band, energies, header); err != nil {
				return err
			}
			a.log.Info("band archived", "series", cp.Series, "index", cp.Index, "images", len(band), "file", out)
			return nil
		},
	}
	cmd.Flags().Int("images", 18, "Number of images in the band")
	cmd.Flags().StringP("output", "o", "", "Output file: .stf zstd, .stz gzip, .stl lzw, .str deflate")
	cmd.Flags().String("energy", "", "Energy trace of the band relaxation")
	return cmd
}
