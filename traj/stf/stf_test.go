/*
 * stf_test.go, part of goneb.
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

package stf

import (
	"errors"
	"io"
	"math"
	"path/filepath"
	"testing"

	v3 "github.com/rmera/goneb/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBand(images, spins int) []*v3.Matrix {
	ret := make([]*v3.Matrix, images)
	for i := range ret {
		ret[i] = v3.Zeros(spins)
		for j := 0; j < spins; j++ {
			t := math.Pi * float64(i) / float64(images-1) * float64(j+1) / float64(spins)
			ret[i].SetVec(j, [3]float64{math.Sin(t) * 0.6, math.Sin(t) * 0.8, math.Cos(t)})
		}
	}
	return ret
}

func TestRoundTrip(Te *testing.T) {
	band := testBand(5, 7)
	energies := []float64{0, 1.5e-20, 3.25e-20, 1e-20, -2e-21}
	for _, ext := range []string{".stf", ".stz", ".stl", ".str"} {
		name := filepath.Join(Te.TempDir(), "band"+ext)
		require.NoError(Te, WriteChain(name, band, energies, map[string]string{"name": "band_k1e4"}), ext)
		images, e, header, err := ReadChain(name)
		require.NoError(Te, err, ext)
		assert.Equal(Te, "6", header["prec"])
		assert.Equal(Te, "band_k1e4", header["name"])
		assert.Equal(Te, energies, e)
		require.Len(Te, images, len(band))
		for i := range band {
			assert.InDeltaSlice(Te, band[i].Data(), images[i].Data(), 1e-6, "image %d %s", i, ext)
		}
	}
}

func TestPrecisionFromHeader(Te *testing.T) {
	name := filepath.Join(Te.TempDir(), "p.stf")
	band := testBand(2, 3)
	require.NoError(Te, WriteChain(name, band, nil, map[string]string{"prec": "2"}))
	r, header, err := New(name)
	require.NoError(Te, err)
	defer r.Close()
	assert.Equal(Te, "2", header["prec"])
	assert.Equal(Te, 2, r.Prec())
	c := v3.Zeros(r.Len())
	e, err := r.Next(c)
	require.NoError(Te, err)
	assert.True(Te, math.IsNaN(e))
	assert.InDeltaSlice(Te, band[0].Data(), c.Data(), 0.005)
	_, err = r.Next(nil)
	require.NoError(Te, err)
	_, err = r.Next(c)
	assert.True(Te, errors.Is(err, io.EOF))
	assert.False(Te, r.Readable())

	_, err = NewWriter(name, 3, map[string]string{"prec": "x"})
	assert.Error(Te, err)
}

func TestWriterChecks(Te *testing.T) {
	name := filepath.Join(Te.TempDir(), "w.stf")
	w, err := NewWriter(name, 4, nil)
	require.NoError(Te, err)
	assert.Error(Te, w.WNext(v3.Zeros(3), 0))
	assert.Error(Te, w.WNext(nil, 0))
	require.NoError(Te, w.WNext(v3.Zeros(4), 0))
	assert.Equal(Te, 1, w.Frames())
	require.NoError(Te, w.Close())
	assert.Error(Te, w.WNext(v3.Zeros(4), 0))

	assert.Error(Te, WriteChain(name, testBand(2, 2), []float64{1}, nil))
}

func TestErrorTrail(Te *testing.T) {
	_, _, _, err := ReadChain(filepath.Join(Te.TempDir(), "missing.stf"))
	var e *Error
	require.True(Te, errors.As(err, &e))
	assert.Equal(Te, []string{"New", "ReadChain"}, e.Decorate(""))

	name := filepath.Join(Te.TempDir(), "short.stf")
	err = WriteChain(name, testBand(2, 2), nil, map[string]string{"bad=key": "x"})
	require.True(Te, errors.As(err, &e))
	assert.Equal(Te, []string{"NewWriter", "WriteChain"}, e.Decorate(""))
}
