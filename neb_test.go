/*
 * neb_test.go, part of goneb.
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
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/rmera/goneb/npy"
	v3 "github.com/rmera/goneb/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectLatest(Te *testing.T) {
	got, err := SelectLatest([]string{"m_3.npy", "m_15.npy", "m_2.npy"}, "m_", ".npy")
	require.NoError(Te, err)
	assert.Equal(Te, "m_15.npy", got)

	got, err = SelectLatest([]string{"m_3.npy", "notes.txt", "m_x.npy", "m_40.vtk"}, "m_", ".npy")
	require.NoError(Te, err)
	assert.Equal(Te, "m_3.npy", got)

	_, err = SelectLatest(nil, "m_", ".npy")
	assert.ErrorIs(Te, err, ErrNoCheckpoint)
	_, err = SelectLatest([]string{"README", "m_.npy"}, "m_", ".npy")
	assert.ErrorIs(Te, err, ErrNoCheckpoint)
}

func TestScanAndImportCheckpoints(Te *testing.T) {
	dir := Te.TempDir()
	for _, n := range []string{"m_100.npy", "m_7.npy", "m_20.npy", "junk.dat"} {
		require.NoError(Te, os.WriteFile(filepath.Join(dir, n), nil, 0644))
	}
	cps, err := ScanCheckpoints(dir, "relax_sk", "m_", ".npy")
	require.NoError(Te, err)
	require.Len(Te, cps, 3)
	assert.Equal(Te, []int{7, 20, 100}, []int{cps[0].Index, cps[1].Index, cps[2].Index})

	latest, err := LatestInDir(dir, "m_", ".npy")
	require.NoError(Te, err)
	assert.Equal(Te, filepath.Join(dir, "m_100.npy"), latest)

	m := newMemManifest()
	last, err := ImportCheckpoints(context.Background(), m, dir, "relax_sk", "m_", ".npy")
	require.NoError(Te, err)
	assert.Equal(Te, 100, last.Index)
	got, err := m.Latest(context.Background(), "relax_sk")
	require.NoError(Te, err)
	assert.Equal(Te, last, got)

	_, err = LatestInDir(Te.TempDir(), "m_", ".npy")
	assert.ErrorIs(Te, err, ErrNoCheckpoint)
}

func TestCumulativeDistance(Te *testing.T) {
	assert.Equal(Te, []float64{0, 1, 3, 6}, CumulativeDistance([]float64{1, 2, 3}))
	assert.Equal(Te, []float64{0}, CumulativeDistance(nil))
}

func TestToMeV(Te *testing.T) {
	assert.InDeltaSlice(Te, []float64{0, 1, -2.5}, ToMeV([]float64{0, MeV, -2.5 * MeV}), 1e-12)
}

func TestNormalizeEnergies(Te *testing.T) {
	e := []float64{5, 8, 5}
	got, err := NormalizeEnergies(e, 0)
	require.NoError(Te, err)
	assert.Equal(Te, []float64{0, 3, 0}, got)
	assert.Equal(Te, []float64{5, 8, 5}, e, "input modified")
	_, err = NormalizeEnergies(e, 3)
	assert.ErrorIs(Te, err, ErrReference)
}

func TestReadBand(Te *testing.T) {
	dir := Te.TempDir()
	energy := filepath.Join(dir, "band_energy.ndt")
	dys := filepath.Join(dir, "band_dYs.ndt")
	require.NoError(Te, os.WriteFile(energy, []byte("# step e0 e1 e2\n0 1e-20 2e-20 1e-20\n\n10 0 1.602e-22 0\n"), 0644))
	require.NoError(Te, os.WriteFile(dys, []byte("#\n0 1 1\n10 0.5 2\n"), 0644))

	b, err := ReadBand(energy, dys, -1)
	require.NoError(Te, err)
	assert.Equal(Te, 10, b.Step)
	x, y, err := b.Profile(0, 2)
	require.NoError(Te, err)
	assert.InDeltaSlice(Te, []float64{0, 1, 5}, x, 1e-12)
	assert.InDeltaSlice(Te, []float64{0, 1, 0}, y, 1e-9)

	first, err := ReadBand(energy, dys, 0)
	require.NoError(Te, err)
	assert.Equal(Te, 0, first.Step)

	_, err = ReadBand(energy, dys, 2)
	assert.ErrorIs(Te, err, ErrReference)

	//distances saved one step later than the energies
	shifted := filepath.Join(dir, "shifted_dYs.ndt")
	require.NoError(Te, os.WriteFile(shifted, []byte("0 1 1\n20 0.5 2\n"), 0644))
	_, err = ReadBand(energy, shifted, -1)
	assert.ErrorIs(Te, err, ErrDimension)
	short := filepath.Join(dir, "short_dYs.ndt")
	require.NoError(Te, os.WriteFile(short, []byte("0 1 1\n"), 0644))
	_, err = ReadBand(energy, short, 0)
	assert.ErrorIs(Te, err, ErrDimension)

	bad := filepath.Join(dir, "bad.ndt")
	require.NoError(Te, os.WriteFile(bad, []byte("0 1 2\n1 1\n"), 0644))
	_, err = ReadTrace(bad)
	assert.Error(Te, err)
}

func TestChain(Te *testing.T) {
	mesh := DefaultMesh()
	sk, err := Skyrmion(mesh, 2)
	require.NoError(Te, err)
	fm, err := Uniform(mesh, [3]float64{0, 0.8, 0.8})
	require.NoError(Te, err)

	c, err := NewChain([]*v3.Matrix{sk, fm}, nil)
	require.NoError(Te, err)
	assert.Equal(Te, 2, c.Len())
	assert.NoError(Te, c.Check(mesh))
	assert.Equal(Te, []Slot{{Anchor: 0}, {Anchor: 1}}, c.Layout())

	c, err = NewChain([]*v3.Matrix{sk, fm}, []int{16})
	require.NoError(Te, err)
	assert.Equal(Te, 18, c.Len())
	layout := c.Layout()
	require.Len(Te, layout, 18)
	assert.True(Te, layout[1].Synthetic)
	assert.Equal(Te, [2]int{0, 1}, layout[16].Between)
	assert.Equal(Te, 1, layout[17].Anchor)

	_, err = NewChain([]*v3.Matrix{sk, fm}, []int{1, 2})
	assert.ErrorIs(Te, err, ErrChainShape)
	_, err = NewChain([]*v3.Matrix{sk}, nil)
	assert.ErrorIs(Te, err, ErrChainShape)
	_, err = NewChain([]*v3.Matrix{sk, fm}, []int{-1})
	assert.ErrorIs(Te, err, ErrChainShape)
	_, err = NewChain([]*v3.Matrix{sk, v3.Zeros(4)}, nil)
	assert.ErrorIs(Te, err, ErrDimension)

	small := &Chain{Anchors: []*v3.Matrix{v3.Zeros(4), v3.Zeros(4)}}
	assert.NoError(Te, small.Validate())
	assert.ErrorIs(Te, small.Check(mesh), ErrDimension)
}

func TestCheckClimbing(Te *testing.T) {
	assert.NoError(Te, CheckClimbing([]int{12, -3}, 18))
	assert.NoError(Te, CheckClimbing(nil, 2))
	assert.ErrorIs(Te, CheckClimbing([]int{0}, 18), ErrReference)
	assert.ErrorIs(Te, CheckClimbing([]int{17}, 18), ErrReference)
	assert.ErrorIs(Te, CheckClimbing([]int{-17}, 18), ErrReference)
}

func TestStates(Te *testing.T) {
	mesh := DefaultMesh()
	fm, err := Uniform(mesh, [3]float64{0, 0.8, 0.8})
	require.NoError(Te, err)
	assert.Equal(Te, mesh.Sites(), fm.NVecs())
	assert.True(Te, fm.IsUnit(1e-12))
	assert.InDelta(Te, 0.7071067811865476, fm.At(7, 2), 1e-12)
	_, err = Uniform(mesh, [3]float64{})
	assert.Error(Te, err)

	sk, err := Skyrmion(mesh, 2)
	require.NoError(Te, err)
	assert.True(Te, sk.IsUnit(1e-9))
	centre := sk.Vec(mesh.Index(10, 10, 0))
	corner := sk.Vec(mesh.Index(0, 0, 0))
	assert.Less(Te, centre[2], -0.99)
	assert.Greater(Te, corner[2], 0.99)
	_, err = Skyrmion(mesh, 0)
	assert.ErrorIs(Te, err, ErrConfig)
}

func TestMesh(Te *testing.T) {
	mesh := DefaultMesh()
	assert.Equal(Te, 441, mesh.Sites())
	assert.Equal(Te, 22, mesh.Index(1, 1, 0))
	c := mesh.Coordinates()
	assert.Equal(Te, [3]float64{0.75, 0.25, 0.5}, c.Vec(1))
	assert.ErrorIs(Te, mesh.Check(v3.Zeros(3)), ErrDimension)
}

func TestErrorDecoration(Te *testing.T) {
	err := error(newError(ErrEngine, "x.out", "inner", "boom %d", 1))
	err = errDecorate(err, "outer")
	var e *Error
	require.True(Te, errors.As(err, &e))
	assert.Equal(Te, []string{"inner", "outer"}, e.Decorate(""))
	assert.Equal(Te, "x.out", e.FileName())
	assert.ErrorIs(Te, err, ErrEngine)
	assert.True(Te, strings.HasPrefix(err.Error(), "boom 1"))
}

//memManifest is an in-memory Manifest.
type memManifest struct {
	mu  sync.Mutex
	cps map[string][]Checkpoint
}

func newMemManifest() *memManifest {
	return &memManifest{cps: make(map[string][]Checkpoint)}
}

func (m *memManifest) Record(ctx context.Context, c Checkpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cps[c.Series] = append(m.cps[c.Series], c)
	sort.Slice(m.cps[c.Series], func(i, j int) bool { return m.cps[c.Series][i].Index < m.cps[c.Series][j].Index })
	return nil
}

func (m *memManifest) Latest(ctx context.Context, series string) (Checkpoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l := m.cps[series]
	if len(l) == 0 {
		return Checkpoint{}, ErrNoCheckpoint
	}
	return l[len(l)-1], nil
}

//fakeEngine writes band directories with copies of the anchors instead of relaxing anything.
type fakeEngine struct {
	dir   string
	bands []*BandJob
	fail  error
}

func (f *fakeEngine) Relax(ctx context.Context, job *RelaxJob) (*RelaxResult, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	dir := filepath.Join(f.dir, job.Name+"_npys")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	res := &RelaxResult{Name: job.Name}
	for _, i := range []int{0, 100} {
		p := filepath.Join(dir, "m_"+strconv.Itoa(i)+".npy")
		if err := npy.WriteFile(p, job.Initial); err != nil {
			return nil, err
		}
		res.Checkpoints = append(res.Checkpoints, Checkpoint{Series: job.Name, Index: i, Path: p})
	}
	return res, nil
}

func (f *fakeEngine) RelaxBand(ctx context.Context, job *BandJob) (*BandResult, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	f.bands = append(f.bands, job)
	res := &BandResult{Name: job.Name, Images: job.Chain.Len()}
	for _, step := range []int{0, 169} {
		dir := filepath.Join(f.dir, "npys", job.Name+"_"+strconv.Itoa(step))
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
		for i := 0; i < job.Chain.Len(); i++ {
			a := job.Chain.Anchors[0]
			if i == job.Chain.Len()-1 {
				a = job.Chain.Anchors[len(job.Chain.Anchors)-1]
			}
			if err := npy.WriteFile(filepath.Join(dir, npy.ImageName(i)), a); err != nil {
				return nil, err
			}
		}
		res.Checkpoints = append(res.Checkpoints, Checkpoint{Series: job.Name, Index: step, Path: dir})
	}
	return res, nil
}
