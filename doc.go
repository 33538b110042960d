/*
 * doc.go, part of goneb.
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

/***Dedicated to the long life of the Ven. Khenpo Phuntzok Tenzin Rinpoche***/

/*
Package neb drives an external atomistic micromagnetics engine to obtain minimum
energy paths, and climbing-image saddle points, between two magnetic states
(typically a skyrmion and the ferromagnetic state) of a square spin lattice with
interfacial Dzyaloshinskii-Moriya interaction.

The energy, the integrator and the geodesic nudged elastic band method all live
in the engine (fidimag). This package, and its sub-packages, take care of
everything around it:

	Run configuration: mesh, Hamiltonian, relaxation and band parameters in a
	single Config value, loadable from YAML and the environment.

	Image chains: anchors plus the number of interpolated images between each
	pair of them, validated against the mesh before any run.

	Checkpoints: selection of the most relaxed saved state and a manifest of
	checkpoints with explicit indexes (see the checkpoint package).

	Traces: reading of the per-iteration energy and distance files written by
	the engine, normalization and cumulative distances along the band.

	Runs: relaxation of single states, band relaxations over a set of spring
	constants, and climbing image runs started from a relaxed band.

Plots (bandplot), POV-Ray scenes (povray), .npy snapshots (npy) and compressed
band archives (traj/stf) are provided by the sub-packages.
*/
package neb
