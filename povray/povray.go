/*
 * povray.go, part of goneb.
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

//Package povray writes spin configurations as POV-Ray include files, with
//one spins(x,y,z,mx,my,mz,r,g,b) statement per lattice site.
package povray

import (
	"bufio"
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	neb "github.com/rmera/goneb"
	"github.com/rmera/goneb/npy"
	v3 "github.com/rmera/goneb/v3"
	"github.com/skelterjohn/go.matrix"
	"gonum.org/v1/plot/palette/brewer"
)

//Adapter takes positions and spins from the simulation frame to the
//POV-Ray frame. Each matrix is 3x3 and acts on column vectors.
type Adapter struct {
	Position *matrix.DenseMatrix
	Spin     *matrix.DenseMatrix
}

//LeftHanded returns the adapter used for the published figures. Positions
//go to POV-Ray's left handed frame with (x,y,z) -> (-z,y,x). Spins, however,
//need (mx,my,mz) -> (-mz,-my,-mx) for the arrows to point the right way. The
//extra signs were found by trial and error and are not understood. Any other
//correction of this kind belongs here too.
func LeftHanded() Adapter {
	return Adapter{
		Position: matrix.MakeDenseMatrix([]float64{
			0, 0, -1,
			0, 1, 0,
			1, 0, 0,
		}, 3, 3),
		Spin: matrix.MakeDenseMatrix([]float64{
			0, 0, -1,
			0, -1, 0,
			-1, 0, 0,
		}, 3, 3),
	}
}

//Identity returns an adapter that leaves everything as it is.
func Identity() Adapter {
	return Adapter{Position: matrix.Eye(3), Spin: matrix.Eye(3)}
}

//apply returns the rows of M transformed by T, i.e. (T v^T)^T for each row v.
func apply(T *matrix.DenseMatrix, M *v3.Matrix) *matrix.DenseMatrix {
	in := matrix.MakeDenseMatrix(M.Data(), M.NVecs(), 3)
	return matrix.ParallelProduct(in, T.Transpose())
}

//RdYlBu maps v in [0,1] to the red-yellow-blue diverging map, returning
//r, g and b in [0,1]. 0 is dark red, 0.5 pale yellow and 1 dark blue. Values
//outside [0,1] are clamped. Colours between the 11 ColorBrewer anchors
//are linearly interpolated.
func RdYlBu(v float64) (r, g, b float64) {
	if math.IsNaN(v) {
		v = 0.5
	}
	v = math.Max(0, math.Min(1, v))
	anchors := rdylbu
	pos := v * float64(len(anchors)-1)
	i := int(math.Floor(pos))
	if i >= len(anchors)-1 {
		i = len(anchors) - 2
	}
	f := pos - float64(i)
	lo, hi := anchors[i], anchors[i+1]
	return lo[0] + f*(hi[0]-lo[0]), lo[1] + f*(hi[1]-lo[1]), lo[2] + f*(hi[2]-lo[2])
}

var rdylbu = mustPalette("RdYlBu", 11)

func mustPalette(name string, n int) [][3]float64 {
	p, err := brewer.GetPalette(brewer.TypeAny, name, n)
	if err != nil {
		panic(err)
	}
	ret := make([][3]float64, 0, n)
	for _, c := range p.Colors() {
		ret = append(ret, rgb(c))
	}
	return ret
}

func rgb(c color.Color) [3]float64 {
	r, g, b, _ := c.RGBA()
	return [3]float64{float64(r) / 0xffff, float64(g) / 0xffff, float64(b) / 0xffff}
}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

//Write writes one spins(x,y,z,mx,my,mz,r,g,b) line per site. Positions and
//spins go through the adapter; the colour is RdYlBu((mz+1)/2) of the untransformed spin.
func Write(w io.Writer, coords, spins *v3.Matrix, a Adapter) error {
	if coords.NVecs() != spins.NVecs() {
		return fmt.Errorf("%d positions for %d spins: %w", coords.NVecs(), spins.NVecs(), neb.ErrDimension)
	}
	pos := apply(a.Position, coords)
	m := apply(a.Spin, spins)
	mz := spins.Col(2)
	bw := bufio.NewWriter(w)
	for i := 0; i < spins.NVecs(); i++ {
		r, g, b := RdYlBu((mz[i] + 1) / 2)
		fmt.Fprintf(bw, "spins(%s,%s,%s,%s,%s,%s,%s,%s,%s)\n",
			ftoa(pos.Get(i, 0)), ftoa(pos.Get(i, 1)), ftoa(pos.Get(i, 2)),
			ftoa(m.Get(i, 0)), ftoa(m.Get(i, 1)), ftoa(m.Get(i, 2)),
			ftoa(r), ftoa(g), ftoa(b))
	}
	return bw.Flush()
}

//WriteFile writes the include file name.
func WriteFile(name string, coords, spins *v3.Matrix, a Adapter) error {
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("creating %s: %w", name, err)
	}
	if err := Write(f, coords, spins, a); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return f.Close()
}

//ExportStates reads, from the band directory dir, the image of each named
//state (image_%06d.npy, negative indexes count back from the last of images)
//and writes it to outdir as <name>.inc. It returns the files written, sorted.
func ExportStates(dir, outdir string, states map[string]int, images int, mesh neb.Mesh, a Adapter) ([]string, error) {
	if err := os.MkdirAll(outdir, 0755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", outdir, err)
	}
	coords := mesh.Coordinates()
	names := make([]string, 0, len(states))
	for name := range states {
		names = append(names, name)
	}
	sort.Strings(names)
	ret := make([]string, 0, len(names))
	for _, name := range names {
		i := states[name]
		if i < 0 {
			i += images
		}
		if i < 0 || i >= images {
			return nil, fmt.Errorf("state %s: image %d of a %d image band: %w", name, states[name], images, neb.ErrReference)
		}
		spins, err := npy.ReadFile(filepath.Join(dir, npy.ImageName(i)))
		if err != nil {
			return nil, fmt.Errorf("state %s: %w", name, err)
		}
		if err := mesh.Check(spins); err != nil {
			return nil, fmt.Errorf("state %s: %w", name, err)
		}
		out := filepath.Join(outdir, name+".inc")
		if err := WriteFile(out, coords, spins, a); err != nil {
			return nil, err
		}
		ret = append(ret, out)
	}
	return ret, nil
}
