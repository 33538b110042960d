/*
 * cmd_relax.go, part of goneb.
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
	v3 "github.com/rmera/goneb/v3"
	"github.com/spf13/cobra"
)

func newRelaxCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "relax <sk|fm>",
		Short: "Relax a skyrmion or a uniform state",
		Long: `Relax a skyrmion (sk) or a uniform (fm) initial state. The saved states are
recorded in the manifest under the name of the relaxation, relax_<sk|fm> by default.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			radius, _ := cmd.Flags().GetFloat64("radius")
			m, _ := cmd.Flags().GetFloat64Slice("m")
			name, _ := cmd.Flags().GetString("name")
			if name == "" {
				name = "relax_" + args[0]
			}
			var initial *v3.Matrix
			var err error
			switch args[0] {
			case "sk":
				initial, err = neb.Skyrmion(a.config.Mesh, radius)
			case "fm":
				if len(m) != 3 {
					return fmt.Errorf("--m needs 3 components, got %d", len(m))
				}
				initial, err = neb.Uniform(a.config.Mesh, [3]float64{m[0], m[1], m[2]})
			default:
				return fmt.Errorf("unknown state %q (valid: sk, fm)", args[0])
			}
			if err != nil {
				return err
			}
			store, err := a.openManifest()
			if err != nil {
				return err
			}
			defer store.Close()
			cp, err := a.runner(store).RelaxState(cmd.Context(), name, initial)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d %s\n", cp.Series, cp.Index, cp.Path)
			return nil
		},
	}
	cmd.Flags().Float64("radius", 2, "Skyrmion radius, in mesh units")
	cmd.Flags().Float64Slice("m", []float64{0, 0.8, 0.8}, "Direction of the uniform state")
	cmd.Flags().String("name", "", "Name of the relaxation")
	return cmd
}
