/*
 * cmd_band.go, part of goneb.
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
	"github.com/rmera/goneb/npy"
	v3 "github.com/rmera/goneb/v3"
	"github.com/spf13/cobra"
)

func newBandCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "band <series>...",
		Short: "Relax energy bands between relaxed states",
		Long: `Relax an energy band through the latest saved state of each series given,
in order, once per spring constant. The number of images interpolated between
each pair of states is taken from the configuration (neb.interpolations).`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("spring") {
				a.config.NEB.Springs, _ = cmd.Flags().GetFloat64Slice("spring")
			}
			if cmd.Flags().Changed("interpolations") {
				a.config.NEB.Interpolations, _ = cmd.Flags().GetIntSlice("interpolations")
			}
			if err := a.config.Validate(); err != nil {
				return err
			}
			springs := a.config.NEB.Springs
			store, err := a.openManifest()
			if err != nil {
				return err
			}
			defer store.Close()
			anchors := make([]*v3.Matrix, len(args))
			for i, series := range args {
				cp, err := store.Latest(cmd.Context(), series)
				if err != nil {
					return err
				}
				a.log.Debug("anchor", "series", series, "index", cp.Index, "path", cp.Path)
				anchors[i], err = npy.ReadFile(cp.Path)
				if err != nil {
					return err
				}
			}
			chain, err := neb.NewChain(anchors, a.config.NEB.Interpolations)
			if err != nil {
				return err
			}
			results, err := a.runner(store).Sweep(cmd.Context(), chain, springs)
			for _, r := range results {
				final, _ := r.Final()
				fmt.Fprintf(cmd.OutOrStdout(), "%s %d images, last saved band %d: %s\n", r.Name, r.Images, final.Index, final.Path)
			}
			return err
		},
	}
	cmd.Flags().Float64Slice("spring", nil, "Spring constants (default from the configuration)")
	cmd.Flags().IntSlice("interpolations", nil, "Images interpolated between each pair of states")
	return cmd
}

func newClimbCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "climb <series>",
		Short: "Relax a saved band again with climbing images",
		Long: `Take the latest saved band of a band relaxation and relax it again with
climbing images (positive indexes) or falling images (negative indexes).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			images, _ := cmd.Flags().GetInt("images")
			name, _ := cmd.Flags().GetString("name")
			if name == "" {
				name = "climbing_image_" + args[0]
			}
			if cmd.Flags().Changed("climbing") {
				a.config.NEB.ClimbingImages, _ = cmd.Flags().GetIntSlice("climbing")
			}
			if len(a.config.NEB.ClimbingImages) == 0 {
				return fmt.Errorf("no climbing images given")
			}
			store, err := a.openManifest()
			if err != nil {
				return err
			}
			defer store.Close()
			res, err := a.runner(store).Climb(cmd.Context(), args[0], images, name)
			if err != nil {
				return err
			}
			final, _ := res.Final()
			fmt.Fprintf(cmd.OutOrStdout(), "%s last saved band %d: %s\n", res.Name, final.Index, final.Path)
			return nil
		},
	}
	cmd.Flags().Int("images", 18, "Number of images in the saved band")
	cmd.Flags().IntSlice("climbing", nil, "Climbing (positive) and falling (negative) images")
	cmd.Flags().String("name", "", "Name of the new band relaxation")
	return cmd
}
