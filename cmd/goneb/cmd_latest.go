/*
 * cmd_latest.go, part of goneb.
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
	"github.com/spf13/cobra"
)

func newLatestCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "latest <series>",
		Short: "Print the latest saved state of a series",
		Long: `Print the latest checkpoint of a series, from the manifest. With --dir, the
directory is scanned first for files named <prefix><n><suffix>, and every one
found is recorded in the manifest under the series.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			prefix, _ := cmd.Flags().GetString("prefix")
			suffix, _ := cmd.Flags().GetString("suffix")
			store, err := a.openManifest()
			if err != nil {
				return err
			}
			defer store.Close()
			var cp neb.Checkpoint
			if dir != "" {
				cp, err = neb.ImportCheckpoints(cmd.Context(), store, dir, args[0], prefix, suffix)
			} else {
				cp, err = store.Latest(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d %s\n", cp.Index, cp.Path)
			return nil
		},
	}
	cmd.Flags().String("dir", "", "Directory to scan for checkpoints")
	cmd.Flags().String("prefix", "m_", "File name prefix, before the index")
	cmd.Flags().String("suffix", ".npy", "File name suffix, after the index")
	return cmd
}
