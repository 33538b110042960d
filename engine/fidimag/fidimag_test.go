/*
 * fidimag_test.go, part of goneb.
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

package fidimag

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	neb "github.com/rmera/goneb"
	"github.com/rmera/goneb/internal/logging"
	v3 "github.com/rmera/goneb/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//fakeFidimag creates the files fidimag would save, without relaxing anything.
const fakeFidimag = `#!/bin/sh
case "$1" in
*_relax.py)
	name=${1%_relax.py}
	mkdir -p "${name}_npys"
	cp "${name}_initial.npy" "${name}_npys/m_0.npy"
	cp "${name}_initial.npy" "${name}_npys/m_100.npy"
	;;
*_neb.py)
	name=${1%_neb.py}
	echo "0 1 2" > "${name}_energy.ndt"
	echo "0 1" > "${name}_dYs.ndt"
	mkdir -p "npys/${name}_0" "npys/${name}_12"
	;;
esac
echo "fidimag finished"
`

const failingFidimag = `#!/bin/sh
echo "Traceback (most recent call last):" >&2
exit 1
`

func fakeHandle(Te *testing.T, program string) *Handle {
	Te.Helper()
	if runtime.GOOS == "windows" {
		Te.Skip("needs a POSIX shell")
	}
	dir := Te.TempDir()
	bin := filepath.Join(Te.TempDir(), "fake-python")
	require.NoError(Te, os.WriteFile(bin, []byte(program), 0755))
	h := NewHandle(nil)
	h.SetCommand(bin)
	h.SetWorkDir(dir)
	return h
}

func testJobs(Te *testing.T) (*neb.RelaxJob, *neb.BandJob) {
	c := neb.Default()
	sk, err := neb.Skyrmion(c.Mesh, 2)
	require.NoError(Te, err)
	fm, err := neb.Uniform(c.Mesh, [3]float64{0, 0.8, 0.8})
	require.NoError(Te, err)
	chain, err := neb.NewChain([]*v3.Matrix{sk, fm}, c.NEB.Interpolations)
	require.NoError(Te, err)
	return c.RelaxJob("relax_sk", sk), c.BandJob(c.BandName(1e4), chain, 1e4)
}

func TestBandScript(Te *testing.T) {
	_, band := testJobs(Te)
	var buf bytes.Buffer
	require.NoError(Te, WriteBandScript(&buf, band, []string{"a/anchor_000.npy", "a/anchor_001.npy"}))
	s := buf.String()
	for _, want := range []string{
		"from fidimag.common.nebm_geodesic import NEBM_Geodesic",
		"mesh = CuboidMesh(nx=21, ny=21, nz=1,",
		"dx=0.5, dy=0.5, dz=1,",
		"unit_length=1e-09,",
		"periodicity=(True, True, False)",
		"sim.gamma = const.gamma",
		"sim.mu_s = 2 * const.mu_B",
		"sim.add(UniformExchange(10 * const.meV))",
		`sim.add(DMI(6 * const.meV, dmi_type="interfacial"))`,
		"sim.add(Zeeman((0, 0, 25)))",
		"    \"a/anchor_000.npy\",\n    \"a/anchor_001.npy\"\n]]",
		"interpolations=[16],",
		"spring_constant=10000,",
		`name="neb_21x21-spins_fm-sk_atomic_k1e4",`,
		"climbing_image=None",
		"neb.relax(max_iterations=2000,",
		"save_npys_every=10000,",
		"stopping_dYdt=0.01",
	} {
		assert.Contains(Te, s, want)
	}

	band.Chain.Interpolations = nil
	band.ClimbingImages = []int{12, -3}
	buf.Reset()
	require.NoError(Te, WriteBandScript(&buf, band, []string{"x.npy", "y.npy"}))
	assert.Contains(Te, buf.String(), "interpolations=None,")
	assert.Contains(Te, buf.String(), "climbing_image=[12, -3]")
}

func TestRelaxScript(Te *testing.T) {
	relax, _ := testJobs(Te)
	relax.Material.Gamma = 1.76e11
	var buf bytes.Buffer
	require.NoError(Te, WriteRelaxScript(&buf, relax, "relax_sk_initial.npy"))
	s := buf.String()
	assert.NotContains(Te, s, "NEBM_Geodesic")
	for _, want := range []string{
		"sim.gamma = 1.76e+11",
		`sim.set_m(np.load("relax_sk_initial.npy"))`,
		"sim.alpha = 0.5",
		"sim.do_precession = False",
		"sim.relax(dt=1e-13,",
		"stopping_dmdt=0.01,",
		"max_steps=5000,",
		"save_m_steps=100, save_vtk_steps=100)",
	} {
		assert.Contains(Te, s, want)
	}
}

func TestRelaxWithFakeEngine(Te *testing.T) {
	h := fakeHandle(Te, fakeFidimag)
	relax, _ := testJobs(Te)
	res, err := h.Relax(context.Background(), relax)
	require.NoError(Te, err)
	final, err := res.Final()
	require.NoError(Te, err)
	assert.Equal(Te, 100, final.Index)
	assert.Equal(Te, filepath.Join(h.WorkDir(), "relax_sk_npys", "m_100.npy"), final.Path)
	out, err := os.ReadFile(filepath.Join(h.WorkDir(), "relax_sk.out"))
	require.NoError(Te, err)
	assert.Contains(Te, string(out), "fidimag finished")
}

func TestRelaxBandWithFakeEngine(Te *testing.T) {
	h := fakeHandle(Te, fakeFidimag)
	_, band := testJobs(Te)
	res, err := h.RelaxBand(context.Background(), band)
	require.NoError(Te, err)
	assert.Equal(Te, 18, res.Images)
	require.Len(Te, res.Checkpoints, 2)
	assert.Equal(Te, 12, res.Checkpoints[1].Index)
	assert.Equal(Te, band.Name, res.Checkpoints[1].Series)
	assert.FileExists(Te, res.EnergyFile)
	assert.FileExists(Te, filepath.Join(h.WorkDir(), band.Name+"_anchors", "anchor_001.npy"))
	script, err := os.ReadFile(filepath.Join(h.WorkDir(), band.Name+"_neb.py"))
	require.NoError(Te, err)
	assert.True(Te, strings.Contains(string(script), "NEBM_Geodesic(sim,"))
}

func TestEngineFailure(Te *testing.T) {
	h := fakeHandle(Te, failingFidimag)
	relax, band := testJobs(Te)
	_, err := h.Relax(context.Background(), relax)
	require.Error(Te, err)
	assert.True(Te, errors.Is(err, neb.ErrEngine))
	out, rerr := os.ReadFile(filepath.Join(h.WorkDir(), "relax_sk.out"))
	require.NoError(Te, rerr)
	assert.Contains(Te, string(out), "Traceback")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = h.RelaxBand(ctx, band)
	assert.ErrorIs(Te, err, context.Canceled)
	assert.ErrorIs(Te, err, neb.ErrEngine)

	band.ClimbingImages = []int{17}
	_, err = h.RelaxBand(context.Background(), band)
	assert.ErrorIs(Te, err, neb.ErrReference)

	relax.Initial = v3.Zeros(3)
	_, err = h.Relax(context.Background(), relax)
	assert.ErrorIs(Te, err, neb.ErrDimension)
}

func TestErrorTrail(Te *testing.T) {
	h := fakeHandle(Te, failingFidimag)
	relax, _ := testJobs(Te)
	_, err := h.Relax(context.Background(), relax)
	var e *Error
	require.True(Te, errors.As(err, &e))
	assert.Equal(Te, []string{"exec.Run", "Run", "Relax"}, e.Decorate(""))
	assert.Equal(Te, relax.Name, e.InputName())
}

func TestOutputLoggedAtTrace(Te *testing.T) {
	var buf bytes.Buffer
	h := fakeHandle(Te, fakeFidimag)
	h.log = logging.NewLogger("trace", &buf)
	relax, _ := testJobs(Te)
	_, err := h.Relax(context.Background(), relax)
	require.NoError(Te, err)
	assert.Contains(Te, buf.String(), "level=TRACE")
	assert.Contains(Te, buf.String(), `tail="fidimag finished"`)

	buf.Reset()
	h.log = logging.NewLogger("debug", &buf)
	_, err = h.Relax(context.Background(), relax)
	require.NoError(Te, err)
	assert.NotContains(Te, buf.String(), "level=TRACE")
}

var _ neb.Engine = (*Handle)(nil)
