/*
 * cmd_plot.go, part of goneb.
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
	"os"

	neb "github.com/rmera/goneb"
	"github.com/rmera/goneb/bandplot"
	"github.com/spf13/cobra"
)

func newPlotCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot <energy.ndt> <dYs.ndt>",
		Short: "Plot an energy band",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			step, _ := cmd.Flags().GetInt("step")
			out, _ := cmd.Flags().GetString("output")
			band, err := neb.ReadBand(args[0], args[1], step)
			if err != nil {
				return err
			}
			if err := bandplot.SaveBand(band, a.config.Plot, out); err != nil {
				return err
			}
			a.log.Info("band plotted", "step", band.Step, "images", len(band.Energies), "file", out)
			return nil
		},
	}
	cmd.Flags().Int("step", -1, "Row of the traces to plot (negative counts from the end)")
	cmd.Flags().StringP("output", "o", "energy_band.png", "Output file (png, svg, pdf or eps)")
	return cmd
}

func newFramesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "frames <energy.ndt> <dYs.ndt>",
		Short: "Render every saved step of a band relaxation",
		Long: `Render one snapshot_NNNNNN.png per row of the traces, in parallel, and
optionally join them in an animated GIF.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			gifName, _ := cmd.Flags().GetString("gif")
			workers, _ := cmd.Flags().GetInt("workers")
			delay, _ := cmd.Flags().GetInt("delay")
			energy, err := neb.ReadTrace(args[0])
			if err != nil {
				return err
			}
			distance, err := neb.ReadTrace(args[1])
			if err != nil {
				return err
			}
			names, err := bandplot.RenderFrames(cmd.Context(), energy, distance, dir, a.config.Plot, workers)
			if err != nil {
				return err
			}
			a.log.Info("frames rendered", "frames", len(names), "dir", dir)
			if gifName == "" {
				return nil
			}
			f, err := os.Create(gifName)
			if err != nil {
				return fmt.Errorf("creating %s: %w", gifName, err)
			}
			if err := bandplot.WriteGIF(f, names, delay); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		},
	}
	cmd.Flags().String("dir", "band_gif", "Directory for the frames")
	cmd.Flags().String("gif", "", "Animated GIF to write")
	cmd.Flags().Int("workers", 0, "Frames rendered at the same time (0 for one per CPU)")
	cmd.Flags().Int("delay", 20, "Time between GIF frames, in hundredths of a second")
	return cmd
}
