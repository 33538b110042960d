/*
 * trace.go, part of goneb.
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
	"bufio"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
)

//MeV is the meV, in Joules, used to express band energies in the plots.
const MeV = 1e-3 * 1.602e-19

//Trace is a per-iteration record written by the engine: one row per saved
//iteration, with the iteration index taken out of the first column.
type Trace struct {
	Steps []int
	Rows  [][]float64
}

//ReadTrace reads a whitespace-delimited numeric file. Blank lines and lines
//starting with '#' are skipped. All rows must have the same number of columns.
func ReadTrace(path string) (*Trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, newError(err, path, "ReadTrace", "can't open trace")
	}
	defer f.Close()
	T := new(Trace)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	cols := -1
	for line := 1; scanner.Scan(); line++ {
		str := strings.TrimSpace(scanner.Text())
		if str == "" || strings.HasPrefix(str, "#") {
			continue
		}
		fields := strings.Fields(str)
		if cols < 0 {
			cols = len(fields)
		}
		if len(fields) != cols || cols < 2 {
			return nil, newError(nil, path, "ReadTrace", "line %d has %d columns, expected %d (at least 2)", line, len(fields), cols)
		}
		step, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, newError(err, path, "ReadTrace", "can't parse the step in line %d", line)
		}
		row := make([]float64, cols-1)
		for i, v := range fields[1:] {
			row[i], err = strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, newError(err, path, "ReadTrace", "can't parse column %d in line %d", i+1, line)
			}
		}
		T.Steps = append(T.Steps, int(step))
		T.Rows = append(T.Rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, newError(err, path, "ReadTrace", "can't read trace")
	}
	if len(T.Rows) == 0 {
		return nil, newError(nil, path, "ReadTrace", "empty trace")
	}
	return T, nil
}

//Len returns the number of rows in the trace.
func (T *Trace) Len() int { return len(T.Rows) }

//Row returns the ith row. A negative i counts from the end.
func (T *Trace) Row(i int) ([]float64, error) {
	if i < 0 {
		i += len(T.Rows)
	}
	if i < 0 || i >= len(T.Rows) {
		return nil, newError(ErrReference, "", "Trace.Row", "row %d requested from a %d row trace", i, len(T.Rows))
	}
	return T.Rows[i], nil
}

//Last returns the last row of the trace.
func (T *Trace) Last() []float64 { return T.Rows[len(T.Rows)-1] }

//Band is the state of the energy band at one iteration.
type Band struct {
	Step      int
	Energies  []float64 //one per image, Joules
	Distances []float64 //one per pair of neighbouring images
}

//BandAt combines row i of an energy trace and a distance trace. A negative i counts from the end.
//Both traces must have the same rows, with the same steps.
func BandAt(energy, distance *Trace, i int) (*Band, error) {
	if energy.Len() != distance.Len() {
		return nil, newError(ErrDimension, "", "BandAt", "%d energy rows and %d distance rows", energy.Len(), distance.Len())
	}
	e, err := energy.Row(i)
	if err != nil {
		return nil, errDecorate(err, "BandAt")
	}
	d, err := distance.Row(i)
	if err != nil {
		return nil, errDecorate(err, "BandAt")
	}
	if len(d) != len(e)-1 {
		return nil, newError(ErrDimension, "", "BandAt", "%d distances for %d images", len(d), len(e))
	}
	if i < 0 {
		i += energy.Len()
	}
	if energy.Steps[i] != distance.Steps[i] {
		return nil, newError(ErrDimension, "", "BandAt", "row %d is step %d in the energies and %d in the distances", i, energy.Steps[i], distance.Steps[i])
	}
	return &Band{Step: energy.Steps[i], Energies: e, Distances: d}, nil
}

//ReadBand reads the energy and distance traces and returns row i of both.
func ReadBand(energyPath, distancePath string, i int) (*Band, error) {
	e, err := ReadTrace(energyPath)
	if err != nil {
		return nil, errDecorate(err, "ReadBand")
	}
	d, err := ReadTrace(distancePath)
	if err != nil {
		return nil, errDecorate(err, "ReadBand")
	}
	return BandAt(e, d, i)
}

//Profile returns the cumulative distance of each image (scaled by scale) and
//its energy relative to image ref, in meV. These are the points of an energy band plot.
func (B *Band) Profile(ref int, scale float64) (x, y []float64, err error) {
	y, err = NormalizeEnergies(B.Energies, ref)
	if err != nil {
		return nil, nil, errDecorate(err, "Band.Profile")
	}
	y = ToMeV(y)
	d := make([]float64, len(B.Distances))
	floats.ScaleTo(d, scale, B.Distances)
	return CumulativeDistance(d), y, nil
}

//NormalizeEnergies returns the energies relative to the one of image ref,
//e.g. [5 8 5] with ref 0 gives [0 3 0].
func NormalizeEnergies(energies []float64, ref int) ([]float64, error) {
	if ref < 0 || ref >= len(energies) {
		return nil, newError(ErrReference, "", "NormalizeEnergies", "reference image %d for %d images", ref, len(energies))
	}
	ret := make([]float64, len(energies))
	copy(ret, energies)
	floats.AddConst(-energies[ref], ret)
	return ret, nil
}

//CumulativeDistance returns the distance of every image from the first
//one, given the distances between neighbouring images: [1 2 3] gives [0 1 3 6].
func CumulativeDistance(d []float64) []float64 {
	ret := make([]float64, len(d)+1)
	floats.CumSum(ret[1:], d)
	return ret
}

//ToMeV converts energies in Joules to meV.
func ToMeV(e []float64) []float64 {
	ret := make([]float64, len(e))
	floats.ScaleTo(ret, 1/MeV, e)
	return ret
}
