/*
 * mesh.go, part of goneb.
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
	"fmt"

	v3 "github.com/rmera/goneb/v3"
)

//Mesh is a cuboid lattice of spins. Lengths are in units of UnitLength (metres).
type Mesh struct {
	Nx         int     `yaml:"nx"`
	Ny         int     `yaml:"ny"`
	Nz         int     `yaml:"nz"`
	Dx         float64 `yaml:"dx"`
	Dy         float64 `yaml:"dy"`
	Dz         float64 `yaml:"dz"`
	UnitLength float64 `yaml:"unit_length"`
	Periodic   [3]bool `yaml:"periodic"`
}

//DefaultMesh is a 21x21 square lattice with a 5 Angstrom lattice constant,
//periodic in the plane.
func DefaultMesh() Mesh {
	return Mesh{
		Nx: 21, Ny: 21, Nz: 1,
		Dx: 0.5, Dy: 0.5, Dz: 1,
		UnitLength: 1e-9,
		Periodic:   [3]bool{true, true, false},
	}
}

//Sites returns the number of spins in the mesh.
func (M Mesh) Sites() int {
	return M.Nx * M.Ny * M.Nz
}

//Index returns the position of site (i,j,k) in a spin configuration. x runs fastest.
func (M Mesh) Index(i, j, k int) int {
	return k*M.Nx*M.Ny + j*M.Nx + i
}

//Coordinates returns the centre of every site, in mesh units.
func (M Mesh) Coordinates() *v3.Matrix {
	c := v3.Zeros(M.Sites())
	for k := 0; k < M.Nz; k++ {
		for j := 0; j < M.Ny; j++ {
			for i := 0; i < M.Nx; i++ {
				c.SetVec(M.Index(i, j, k), [3]float64{
					(float64(i) + 0.5) * M.Dx,
					(float64(j) + 0.5) * M.Dy,
					(float64(k) + 0.5) * M.Dz,
				})
			}
		}
	}
	return c
}

//Check returns an error wrapping ErrDimension if the spin configuration
//doesn't have one vector per site.
func (M Mesh) Check(spins *v3.Matrix) error {
	if spins == nil {
		return newError(ErrDimension, "", "Mesh.Check", "nil spin configuration")
	}
	if n := spins.NVecs(); n != M.Sites() {
		return newError(ErrDimension, "", "Mesh.Check", "%d spins given for a %dx%dx%d mesh", n, M.Nx, M.Ny, M.Nz)
	}
	return nil
}

func (M Mesh) validate() error {
	if M.Nx <= 0 || M.Ny <= 0 || M.Nz <= 0 {
		return fmt.Errorf("%w: mesh sizes must be positive, got %dx%dx%d", ErrConfig, M.Nx, M.Ny, M.Nz)
	}
	if M.Dx <= 0 || M.Dy <= 0 || M.Dz <= 0 || M.UnitLength <= 0 {
		return fmt.Errorf("%w: mesh spacings and unit length must be positive", ErrConfig)
	}
	return nil
}
