/*
 * frames.go, part of goneb.
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

package bandplot

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	neb "github.com/rmera/goneb"
	"github.com/rmera/goneb/internal/logging"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
)

//FrameName returns the file name of frame i, snapshot_%06d.png.
func FrameName(i int) string {
	return fmt.Sprintf("snapshot_%06d.png", i)
}

//Frame returns the plot of row i of the energy and distance traces, labeled
//"Step NN", with the images joined by a line. Energies are relative to the reference image in the first row,
//so the frames of an animation share the same zero. Frame depends only on
//its arguments.
func Frame(energy, distance *neb.Trace, i int, params neb.PlotParams) (*plot.Plot, error) {
	band, err := neb.BandAt(energy, distance, i)
	if err != nil {
		return nil, fmt.Errorf("frame %d: %w", i, err)
	}
	first := energy.Rows[0]
	if params.ReferenceImage < 0 || params.ReferenceImage >= len(first) {
		return nil, fmt.Errorf("frame %d: reference image %d out of range: %w", i, params.ReferenceImage, neb.ErrReference)
	}
	y := make([]float64, len(band.Energies))
	for j, e := range band.Energies {
		y[j] = (e - first[params.ReferenceImage]) / neb.MeV
	}
	d := make([]float64, len(band.Distances))
	for j, v := range band.Distances {
		d[j] = v * params.DistanceScale
	}
	x := neb.CumulativeDistance(d)
	p, err := profilePlot(x, y, params, true)
	if err != nil {
		return nil, fmt.Errorf("frame %d: %w", i, err)
	}
	xmin, xmax, ymin, ymax := limits(x, y, params)
	step, err := plotter.NewLabels(plotter.XYLabels{
		XYs:    plotter.XYs{{X: xmin + 0.05*(xmax-xmin), Y: ymin + 0.9*(ymax-ymin)}},
		Labels: []string{fmt.Sprintf("Step %02d", i)},
	})
	if err != nil {
		return nil, err
	}
	step.TextStyle[0].XAlign = text.XLeft
	step.TextStyle[0].Font.Size = vg.Points(18)
	p.Add(step)
	return p, nil
}

//RenderFrame renders Frame(energy, distance, i, params) as a PNG.
func RenderFrame(energy, distance *neb.Trace, i int, params neb.PlotParams) ([]byte, error) {
	p, err := Frame(energy, distance, i, params)
	if err != nil {
		return nil, err
	}
	return Render(p, params.Width, params.Height)
}

//RenderFrames renders every row of the traces into dir, as FrameName(i), with
//up to workers frames rendered at the same time (runtime.NumCPU() if workers < 1).
//It returns the file names in order.
func RenderFrames(ctx context.Context, energy, distance *neb.Trace, dir string, params neb.PlotParams, workers int) ([]string, error) {
	if energy.Len() != distance.Len() {
		return nil, fmt.Errorf("%d energy rows and %d distance rows: %w", energy.Len(), distance.Len(), neb.ErrDimension)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating frame directory: %w", err)
	}
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	names := make([]string, energy.Len())
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range names {
		i := i
		names[i] = filepath.Join(dir, FrameName(i))
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := RenderFrame(energy, distance, i, params)
			if err != nil {
				return err
			}
			if err := os.WriteFile(names[i], data, 0644); err != nil {
				return err
			}
			slog.Log(ctx, logging.LevelTrace, "frame rendered", "frame", i, "step", energy.Steps[i], "file", names[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return names, nil
}

//WriteGIF writes an animation with the PNG frames given, in order.
//delay is the time between frames, in hundredths of a second.
func WriteGIF(w io.Writer, frames []string, delay int) error {
	if len(frames) == 0 {
		return fmt.Errorf("no frames to animate")
	}
	anim := &gif.GIF{}
	for _, name := range frames {
		data, err := os.ReadFile(name)
		if err != nil {
			return fmt.Errorf("reading frame: %w", err)
		}
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("decoding frame %s: %w", name, err)
		}
		anim.Image = append(anim.Image, paletted(img))
		anim.Delay = append(anim.Delay, delay)
	}
	return gif.EncodeAll(w, anim)
}

//paletted converts img to the web-safe palette, with dithering.
func paletted(img image.Image) *image.Paletted {
	b := img.Bounds()
	ret := image.NewPaletted(b, palette.WebSafe)
	draw.FloydSteinberg.Draw(ret, b, img, b.Min)
	return ret
}
