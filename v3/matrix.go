/*
 * matrix.go, part of goneb.
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

package v3

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const appzero float64 = 1e-12 //Everything equal or less than this is considered zero.

//Matrix is a set of vectors in 3D space. Within the package a "vector" is a
//row vector, i.e. the spin (or the position) of one lattice site.
type Matrix struct {
	*mat.Dense
}

//NewMatrix generates and returns a Matrix with 3 columns from data.
//The slice is used as backing storage, not copied.
func NewMatrix(data []float64) (*Matrix, error) {
	const cols int = 3
	l := len(data)
	if l == 0 || l%cols != 0 {
		return nil, &Error{fmt.Sprintf("Input slice length %d not divisible by %d", l, cols), []string{"NewMatrix"}, true}
	}
	return &Matrix{mat.NewDense(l/cols, cols, data)}, nil
}

//Zeros returns a zero-filled Matrix with vecs vectors.
func Zeros(vecs int) *Matrix {
	return &Matrix{mat.NewDense(vecs, 3, make([]float64, 3*vecs))}
}

//NVecs returns the number of vecs in F.
func (F *Matrix) NVecs() int {
	r, c := F.Dims()
	if c != 3 {
		panic(ErrNotXx3Matrix)
	}
	return r
}

//Vec returns a copy of the ith vector as an array.
func (F *Matrix) Vec(i int) [3]float64 {
	return [3]float64{F.At(i, 0), F.At(i, 1), F.At(i, 2)}
}

//SetVec sets the ith vector to v.
func (F *Matrix) SetVec(i int, v [3]float64) {
	F.Set(i, 0, v[0])
	F.Set(i, 1, v[1])
	F.Set(i, 2, v[2])
}

//Data returns a flat, row-major copy of the matrix contents, i.e.
//mx0 my0 mz0 mx1 my1 mz1 ... which is the layout used by the engine.
func (F *Matrix) Data() []float64 {
	n := F.NVecs()
	ret := make([]float64, 0, 3*n)
	raw := F.RawMatrix()
	for i := 0; i < n; i++ {
		ret = append(ret, raw.Data[i*raw.Stride:i*raw.Stride+3]...)
	}
	return ret
}

//Norms returns the euclidean norm of each vector in F.
func (F *Matrix) Norms() []float64 {
	n := F.NVecs()
	ret := make([]float64, n)
	for i := 0; i < n; i++ {
		v := F.Vec(i)
		ret[i] = floats.Norm(v[:], 2)
	}
	return ret
}

//Normalize puts in the receiver the vectors of A scaled to unit length.
//A zero vector can't be normalized and causes an error, in which case
//the receiver is left partially modified.
func (F *Matrix) Normalize(A *Matrix) error {
	if F.NVecs() != A.NVecs() {
		panic(ErrShape)
	}
	for i, n := range A.Norms() {
		if n <= appzero {
			return &Error{fmt.Sprintf("Vector %d has zero norm", i), []string{"Normalize"}, true}
		}
		v := A.Vec(i)
		floats.Scale(1/n, v[:])
		F.SetVec(i, v)
	}
	return nil
}

//IsUnit returns true if all the vectors in F have unit norm within tol.
func (F *Matrix) IsUnit(tol float64) bool {
	if tol < 0 {
		tol = appzero
	}
	for _, n := range F.Norms() {
		if math.Abs(n-1) > tol {
			return false
		}
	}
	return true
}

//Col returns a copy of the given component (0 for x, 1 for y, 2 for z) of all vectors.
func (F *Matrix) Col(c int) []float64 {
	return mat.Col(nil, c, F.Dense)
}

//Errors

//Error is the error type of the v3 package. It satisfies the neb.Error interface.
type Error struct {
	message  string
	deco     []string
	critical bool
}

//Error returns a string with an error message.
func (err *Error) Error() string {
	return "goneb/v3: " + err.message
}

//Decorate will add the dec string to the decoration slice of strings of the error,
//and return the resulting slice.
func (err *Error) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

//Critical return whether the error is critical or it can be ignored
func (err *Error) Critical() bool { return err.critical }

//PanicMsg is a message used for panics, even though it does satisfy the error interface.
//for errors use Error.
type PanicMsg string

func (v PanicMsg) Error() string { return string(v) }

const (
	ErrNotXx3Matrix      = PanicMsg("goneb/v3: A Matrix should have 3 columns")
	ErrShape             = PanicMsg("goneb/v3: Dimension mismatch")
)
