/*
 * bandplot.go, part of goneb.
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

//Package bandplot draws energy bands: the energy of each image against
//its distance along the band.
package bandplot

import (
	"bytes"
	"fmt"
	"image/color"
	"math"
	"strconv"

	neb "github.com/rmera/goneb"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

var (
	axesBackground = color.Gray{Y: 237} // 0.93
	gridColor      = color.Gray{Y: 250} // 0.98
	axisColor      = color.Gray{Y: 230} // 0.9
	splineColor    = color.RGBA{R: 0xFF, G: 0x59, B: 0x00, A: 0xFF}
)

//splinePoints is the number of points at which the spline is evaluated.
const splinePoints = 200

//Band returns the plot of a band, with energies relative to the
//reference image of the parameters. The images are drawn as bare markers.
func Band(band *neb.Band, params neb.PlotParams) (*plot.Plot, error) {
	x, y, err := band.Profile(params.ReferenceImage, params.DistanceScale)
	if err != nil {
		return nil, fmt.Errorf("band at step %d: %w", band.Step, err)
	}
	return profilePlot(x, y, params, false)
}

//profilePlot draws the points (x,y) in the style of all the band plots: grey
//axes background with light grid lines and no ticks, black circles (joined by
//a line if joined is true), the index of each image above it and, if
//requested, a cubic spline through the points.
func profilePlot(x, y []float64, params neb.PlotParams, joined bool) (*plot.Plot, error) {
	if len(x) != len(y) || len(x) == 0 {
		return nil, fmt.Errorf("%d distances for %d energies", len(x), len(y))
	}
	xmin, xmax, ymin, ymax := limits(x, y, params)
	p := plot.New()
	p.X.Label.Text = "Distance"
	p.Y.Label.Text = "Energy  [ meV ]"
	p.X.Min, p.X.Max = xmin, xmax
	p.Y.Min, p.Y.Max = ymin, ymax
	p.X.Padding, p.Y.Padding = 0, 0
	for _, a := range []*plot.Axis{&p.X, &p.Y} {
		a.Tick.Length = 0
		a.LineStyle.Color = axisColor
		a.LineStyle.Width = vg.Points(0.75)
		a.Label.TextStyle.Font.Size = vg.Points(16)
		a.Tick.Label.Font.Size = vg.Points(14)
	}

	bg, err := plotter.NewPolygon(plotter.XYs{{X: xmin, Y: ymin}, {X: xmax, Y: ymin}, {X: xmax, Y: ymax}, {X: xmin, Y: ymax}})
	if err != nil {
		return nil, err
	}
	bg.Color = axesBackground
	bg.LineStyle.Width = 0
	grid := plotter.NewGrid()
	grid.Vertical.Color = gridColor
	grid.Vertical.Width = vg.Points(2)
	grid.Horizontal.Color = gridColor
	grid.Horizontal.Width = vg.Points(2)
	p.Add(bg, grid)

	xys := make(plotter.XYs, len(x))
	for i := range x {
		xys[i].X, xys[i].Y = x[i], y[i]
	}
	if params.Spline {
		if s, ok := spline(x, y); ok {
			p.Add(s)
		}
	}
	images, err := markers(xys, joined)
	if err != nil {
		return nil, err
	}
	p.Add(images...)

	tags := make(plotter.XYs, len(xys))
	names := make([]string, len(xys))
	for i := range xys {
		tags[i].X, tags[i].Y = xys[i].X, xys[i].Y+params.LabelOffset
		names[i] = strconv.Itoa(i)
	}
	labels, err := plotter.NewLabels(plotter.XYLabels{XYs: tags, Labels: names})
	if err != nil {
		return nil, err
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].XAlign = text.XCenter
		labels.TextStyle[i].Font.Size = vg.Points(12)
	}
	p.Add(labels)
	return p, nil
}

//markers returns the black circles at each image, preceded by a black line
//through them if joined is true.
func markers(xys plotter.XYs, joined bool) ([]plot.Plotter, error) {
	var ret []plot.Plotter
	if joined {
		line, err := plotter.NewLine(xys)
		if err != nil {
			return nil, err
		}
		line.Color = color.Black
		line.Width = vg.Points(2)
		ret = append(ret, line)
	}
	points, err := plotter.NewScatter(xys)
	if err != nil {
		return nil, err
	}
	points.GlyphStyle.Shape = draw.CircleGlyph{}
	points.GlyphStyle.Color = color.Black
	points.GlyphStyle.Radius = vg.Points(4)
	return append(ret, points), nil
}

//limits returns the axis limits from the parameters or, for an axis
//with equal Min and Max, from the data.
func limits(x, y []float64, params neb.PlotParams) (xmin, xmax, ymin, ymax float64) {
	xmin, xmax, ymin, ymax = params.XMin, params.XMax, params.YMin, params.YMax
	if xmin >= xmax {
		xmin, xmax = floats.Min(x)-1, floats.Max(x)+1
	}
	if ymin >= ymax {
		pad := math.Max(math.Abs(params.LabelOffset)*2, 1)
		ymin, ymax = floats.Min(y)-pad, floats.Max(y)+pad
	}
	return xmin, xmax, ymin, ymax
}

//spline returns a natural cubic spline through the points, drawn as a line.
//ok is false if the distances are not strictly increasing.
func spline(x, y []float64) (line *plotter.Line, ok bool) {
	if len(x) < 3 {
		return nil, false
	}
	for i := 1; i < len(x); i++ {
		if x[i] <= x[i-1] {
			return nil, false
		}
	}
	var nc interp.NaturalCubic
	if err := nc.Fit(x, y); err != nil {
		return nil, false
	}
	xys := make(plotter.XYs, splinePoints)
	step := (x[len(x)-1] - x[0]) / float64(splinePoints-1)
	for i := range xys {
		xys[i].X = x[0] + float64(i)*step
		if i == splinePoints-1 {
			xys[i].X = x[len(x)-1]
		}
		xys[i].Y = nc.Predict(xys[i].X)
	}
	line, err := plotter.NewLine(xys)
	if err != nil {
		return nil, false
	}
	line.Color = splineColor
	line.Width = vg.Points(1.5)
	return line, true
}

//Render draws p into a PNG image of the given size, in inches.
func Render(p *plot.Plot, width, height float64) ([]byte, error) {
	c := vgimg.New(vg.Length(width)*vg.Inch, vg.Length(height)*vg.Inch)
	p.Draw(draw.New(c))
	var buf bytes.Buffer
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encoding png: %w", err)
	}
	return buf.Bytes(), nil
}

//SaveBand plots the band and saves it to filename. The format is given
//by the extension (png, svg, pdf, eps, ...).
func SaveBand(band *neb.Band, params neb.PlotParams, filename string) error {
	p, err := Band(band, params)
	if err != nil {
		return err
	}
	return p.Save(vg.Length(params.Width)*vg.Inch, vg.Length(params.Height)*vg.Inch, filename)
}
