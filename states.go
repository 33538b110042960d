/*
 * states.go, part of goneb.
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

package neb

import (
	"math"

	v3 "github.com/rmera/goneb/v3"
)

//Uniform returns a configuration with the normalized vector m at every site.
//Relaxing it under a strong out of plane field gives the ferromagnetic state.
func Uniform(mesh Mesh, m [3]float64) (*v3.Matrix, error) {
	spins := v3.Zeros(mesh.Sites())
	for i := 0; i < spins.NVecs(); i++ {
		spins.SetVec(i, m)
	}
	if err := spins.Normalize(spins); err != nil {
		return nil, newError(err, "", "Uniform", "can't build a uniform state from %v", m)
	}
	return spins, nil
}

//Skyrmion returns a Neel skyrmion guess centred in the xy plane of the mesh:
//the core points along -z, the background along +z, and the spins rotate
//radially within about one lattice constant of radius (in mesh units).
func Skyrmion(mesh Mesh, radius float64) (*v3.Matrix, error) {
	if radius <= 0 {
		return nil, newError(ErrConfig, "", "Skyrmion", "skyrmion radius must be positive, got %g", radius)
	}
	coords := mesh.Coordinates()
	cx := float64(mesh.Nx) * mesh.Dx / 2
	cy := float64(mesh.Ny) * mesh.Dy / 2
	width := mesh.Dx
	spins := v3.Zeros(mesh.Sites())
	for i := 0; i < spins.NVecs(); i++ {
		dx := coords.At(i, 0) - cx
		dy := coords.At(i, 1) - cy
		r := math.Hypot(dx, dy)
		theta := 2 * math.Atan(math.Exp(-(r-radius)/width))
		phi := math.Atan2(dy, dx)
		spins.SetVec(i, [3]float64{
			math.Sin(theta) * math.Cos(phi),
			math.Sin(theta) * math.Sin(phi),
			math.Cos(theta),
		})
	}
	return spins, nil
}
