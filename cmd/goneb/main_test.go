package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	neb "github.com/rmera/goneb"
	"github.com/rmera/goneb/bandplot"
	"github.com/rmera/goneb/npy"
	"github.com/rmera/goneb/traj/stf"
	v3 "github.com/rmera/goneb/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//execute runs the root command with args and returns its standard output.
func execute(Te *testing.T, args ...string) (string, error) {
	Te.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func touch(Te *testing.T, name string) {
	Te.Helper()
	require.NoError(Te, os.MkdirAll(filepath.Dir(name), 0755))
	require.NoError(Te, os.WriteFile(name, nil, 0644))
}

func TestVersion(Te *testing.T) {
	out, err := execute(Te, "version")
	require.NoError(Te, err)
	assert.True(Te, strings.HasPrefix(out, "goneb version "+version))
}

func TestLatest(Te *testing.T) {
	dir := Te.TempDir()
	db := filepath.Join(dir, "manifest.db")
	for _, n := range []string{"m_3.npy", "m_15.npy", "m_2.npy", "notes.txt"} {
		touch(Te, filepath.Join(dir, "sk_npys", n))
	}
	out, err := execute(Te, "--manifest", db, "latest", "sk", "--dir", filepath.Join(dir, "sk_npys"))
	require.NoError(Te, err)
	assert.Equal(Te, "15 "+filepath.Join(dir, "sk_npys", "m_15.npy")+"\n", out)

	//Now from the manifest alone.
	out, err = execute(Te, "--manifest", db, "latest", "sk")
	require.NoError(Te, err)
	assert.Equal(Te, "15 "+filepath.Join(dir, "sk_npys", "m_15.npy")+"\n", out)

	_, err = execute(Te, "--manifest", db, "latest", "fm")
	assert.ErrorIs(Te, err, neb.ErrNoCheckpoint)
}

func TestBadConfig(Te *testing.T) {
	dir := Te.TempDir()
	conf := filepath.Join(dir, "bad.yaml")
	require.NoError(Te, os.WriteFile(conf, []byte("material:\n  mu_s: -1\n"), 0644))
	_, err := execute(Te, "--config", conf, "--manifest", filepath.Join(dir, "m.db"), "latest", "sk")
	assert.ErrorIs(Te, err, neb.ErrConfig)

	_, err = execute(Te, "--log-level", "loud", "--manifest", filepath.Join(dir, "m.db"), "latest", "sk")
	assert.ErrorIs(Te, err, neb.ErrConfig)

	_, err = execute(Te, "--config", filepath.Join(dir, "missing.yaml"), "latest", "sk")
	assert.Error(Te, err)
}

func writeTraces(Te *testing.T, dir string) (energy, distance string) {
	Te.Helper()
	energy = filepath.Join(dir, "band_energy.ndt")
	distance = filepath.Join(dir, "band_dYs.ndt")
	mev := neb.MeV
	e := "# step energies\n"
	d := ""
	for step := 0; step < 3; step++ {
		e += strings.Join([]string{
			ftoa(float64(step)), ftoa(0), ftoa(float64(10-step) * mev), ftoa(2 * mev), ftoa(20 * mev), ftoa(0),
		}, " ") + "\n"
		d += strings.Join([]string{ftoa(float64(step)), "1", "2", "1", "1"}, " ") + "\n"
	}
	require.NoError(Te, os.WriteFile(energy, []byte(e), 0644))
	require.NoError(Te, os.WriteFile(distance, []byte(d), 0644))
	return energy, distance
}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func TestPlot(Te *testing.T) {
	dir := Te.TempDir()
	energy, distance := writeTraces(Te, dir)
	out := filepath.Join(dir, "band.png")
	_, err := execute(Te, "--manifest", filepath.Join(dir, "m.db"), "plot", energy, distance, "-o", out)
	require.NoError(Te, err)
	info, err := os.Stat(out)
	require.NoError(Te, err)
	assert.Greater(Te, info.Size(), int64(0))

	_, err = execute(Te, "--manifest", filepath.Join(dir, "m.db"), "plot", energy, distance, "--step", "7", "-o", out)
	assert.ErrorIs(Te, err, neb.ErrReference)
}

func TestFrames(Te *testing.T) {
	dir := Te.TempDir()
	energy, distance := writeTraces(Te, dir)
	frames := filepath.Join(dir, "frames")
	gif := filepath.Join(dir, "band.gif")
	_, err := execute(Te, "--manifest", filepath.Join(dir, "m.db"), "frames", energy, distance,
		"--dir", frames, "--gif", gif, "--workers", "2")
	require.NoError(Te, err)
	for i := 0; i < 3; i++ {
		_, err := os.Stat(filepath.Join(frames, bandplot.FrameName(i)))
		assert.NoError(Te, err)
	}
	_, err = os.Stat(gif)
	assert.NoError(Te, err)
}

func TestPack(Te *testing.T) {
	dir := Te.TempDir()
	db := filepath.Join(dir, "m.db")
	band := filepath.Join(dir, "npys", "band_40")
	require.NoError(Te, os.MkdirAll(band, 0755))
	touch(Te, filepath.Join(dir, "npys", "band_20", npy.ImageName(0)))
	for i := 0; i < 3; i++ {
		m := v3.Zeros(4)
		for j := 0; j < 4; j++ {
			m.SetVec(j, [3]float64{0, 0, float64(i)})
		}
		require.NoError(Te, npy.WriteFile(filepath.Join(band, npy.ImageName(i)), m))
	}
	_, err := execute(Te, "--manifest", db, "latest", "band", "--dir", filepath.Join(dir, "npys"), "--prefix", "band_", "--suffix", "")
	require.NoError(Te, err)

	energy, _ := writeTraces(Te, dir)
	out := filepath.Join(dir, "band.stf")
	//the trace has 5 images, the band 3.
	_, err = execute(Te, "--manifest", db, "pack", "band", "--images", "3", "--energy", energy, "-o", out)
	assert.Error(Te, err)

	_, err = execute(Te, "--manifest", db, "pack", "band", "--images", "3", "-o", out)
	require.NoError(Te, err)
	images, energies, header, err := stf.ReadChain(out)
	require.NoError(Te, err)
	require.Len(Te, images, 3)
	assert.Equal(Te, "band", header["series"])
	assert.Equal(Te, "40", header["index"])
	for i, im := range images {
		assert.InDelta(Te, float64(i), im.At(2, 2), 1e-6)
		assert.True(Te, energies[i] != energies[i], "no energy expected for image %d", i)
	}
}

func TestPovray(Te *testing.T) {
	dir := Te.TempDir()
	db := filepath.Join(dir, "m.db")
	conf := filepath.Join(dir, "conf.yaml")
	require.NoError(Te, os.WriteFile(conf, []byte(`mesh:
  nx: 2
  ny: 2
povray:
  states:
    first: 0
    last: -1
`), 0644))
	band := filepath.Join(dir, "npys", "band_7")
	require.NoError(Te, os.MkdirAll(band, 0755))
	for i := 0; i < 3; i++ {
		m := v3.Zeros(4)
		for j := 0; j < 4; j++ {
			m.SetVec(j, [3]float64{0, 0, 1})
		}
		require.NoError(Te, npy.WriteFile(filepath.Join(band, npy.ImageName(i)), m))
	}
	_, err := execute(Te, "--manifest", db, "--config", conf, "latest", "band", "--dir", filepath.Join(dir, "npys"), "--prefix", "band_", "--suffix", "")
	require.NoError(Te, err)
	outdir := filepath.Join(dir, "pov")
	out, err := execute(Te, "--manifest", db, "--config", conf, "povray", "band", "--images", "3", "--out", outdir)
	require.NoError(Te, err)
	assert.Equal(Te, filepath.Join(outdir, "first.inc")+"\n"+filepath.Join(outdir, "last.inc")+"\n", out)
	data, err := os.ReadFile(filepath.Join(outdir, "last.inc"))
	require.NoError(Te, err)
	assert.Equal(Te, 4, strings.Count(string(data), "spins("))
}

func TestBandRejectsBadSpring(Te *testing.T) {
	dir := Te.TempDir()
	_, err := execute(Te, "--manifest", filepath.Join(dir, "m.db"), "band", "relax_sk", "relax_fm", "--spring", "1e4,0")
	assert.ErrorIs(Te, err, neb.ErrConfig)
	assert.NoFileExists(Te, filepath.Join(dir, "m.db"))
}

func TestClimbNeedsImages(Te *testing.T) {
	dir := Te.TempDir()
	_, err := execute(Te, "--manifest", filepath.Join(dir, "m.db"), "climb", "band")
	require.Error(Te, err)
	assert.Contains(Te, err.Error(), "climbing")
}
