/*
 * interfaces.go, part of goneb.
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
	"context"

	v3 "github.com/rmera/goneb/v3"
)

//Decorator is implemented by the errors of this module. Decorate adds
//information to the error as it is passed up, without wrapping it: each
//call appends the name of a function in the calling stack (optionally
//followed by ": extra info") and returns the resulting trail. Passing an
//empty string returns the current trail unchanged.
type Decorator interface {
	Error() string
	Decorate(string) []string
}

//Engine is the micromagnetics code that relaxes states and energy bands.
//Both methods block until the engine finishes, fails, or ctx is done.
type Engine interface {

	//Relax minimizes the energy of a single spin configuration.
	Relax(ctx context.Context, job *RelaxJob) (*RelaxResult, error)

	//RelaxBand relaxes an image chain with the nudged elastic band method,
	//with the climbing image modification if the job requests it.
	RelaxBand(ctx context.Context, job *BandJob) (*BandResult, error)
}

//Manifest keeps track of checkpoints with explicit indexes, so
//the latest state of a run never has to be guessed from a file name.
type Manifest interface {
	Record(ctx context.Context, c Checkpoint) error
	Latest(ctx context.Context, series string) (Checkpoint, error)
}

//RelaxJob is everything the engine needs to relax one state.
type RelaxJob struct {
	Name        string
	Mesh        Mesh
	Material    Material
	Hamiltonian Hamiltonian
	Params      RelaxParams
	Initial     *v3.Matrix
}

//RelaxResult points to the files written by a relaxation.
type RelaxResult struct {
	Name        string
	Checkpoints []Checkpoint //sorted by index, the last one is the relaxed state
}

//Final returns the last checkpoint of the relaxation.
func (R *RelaxResult) Final() (Checkpoint, error) {
	if R == nil || len(R.Checkpoints) == 0 {
		return Checkpoint{}, ErrNoCheckpoint
	}
	return R.Checkpoints[len(R.Checkpoints)-1], nil
}

//BandJob is everything the engine needs to relax an energy band.
type BandJob struct {
	Name          string
	Mesh          Mesh
	Material      Material
	Hamiltonian   Hamiltonian
	Chain         *Chain
	Spring        float64
	MaxIterations int
	SaveEvery     int
	StoppingDYdt  float64

	//Indexes of climbing images. A negative index marks a falling image,
	//which descends instead of climbing. Empty for a plain band relaxation.
	ClimbingImages []int
}

//BandResult points to the files written by a band relaxation.
type BandResult struct {
	Name         string
	Images       int
	EnergyFile   string
	DistanceFile string
	Checkpoints  []Checkpoint //directories with one .npy per image, sorted by index
}

//Final returns the directory with the last saved band.
func (R *BandResult) Final() (Checkpoint, error) {
	if R == nil || len(R.Checkpoints) == 0 {
		return Checkpoint{}, ErrNoCheckpoint
	}
	return R.Checkpoints[len(R.Checkpoints)-1], nil
}
