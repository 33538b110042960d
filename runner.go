/*
 * runner.go, part of goneb.
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
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/rmera/goneb/npy"
	v3 "github.com/rmera/goneb/v3"
)

//TimingsFile is the file, in the work directory, where Sweep appends the
//wall time of each band relaxation.
const TimingsFile = "timings.dat"

//Runner carries out the studies of the package: relaxing the end states,
//relaxing bands for a set of spring constants, and refining a relaxed band
//with climbing images. Manifest and Log can be nil.
type Runner struct {
	Engine   Engine
	Manifest Manifest
	Config   *Config
	Log      *slog.Logger
}

func (R *Runner) log() *slog.Logger {
	if R.Log == nil {
		return slog.Default()
	}
	return R.Log
}

//RelaxState relaxes initial and records the saved states under the series name.
//It returns the last (relaxed) state.
func (R *Runner) RelaxState(ctx context.Context, name string, initial *v3.Matrix) (Checkpoint, error) {
	if err := R.Config.Mesh.Check(initial); err != nil {
		return Checkpoint{}, errDecorate(err, "Runner.RelaxState")
	}
	R.log().Info("relaxing state", "name", name, "sites", initial.NVecs())
	res, err := R.Engine.Relax(ctx, R.Config.RelaxJob(name, initial))
	if err != nil {
		return Checkpoint{}, newError(err, "", "Runner.RelaxState", "relaxation %s failed", name)
	}
	if err := recordAll(ctx, R.Manifest, res.Checkpoints); err != nil {
		return Checkpoint{}, errDecorate(err, "Runner.RelaxState")
	}
	final, err := res.Final()
	if err != nil {
		return Checkpoint{}, newError(err, "", "Runner.RelaxState", "relaxation %s saved nothing", name)
	}
	R.log().Debug("state relaxed", "name", name, "checkpoint", final.Path, "index", final.Index)
	return final, nil
}

//Sweep relaxes chain once for each spring constant, one after the other.
//The wall time of each run is appended to TimingsFile as "k<k> <seconds>".
//It stops at the first failure, returning the results obtained so far.
func (R *Runner) Sweep(ctx context.Context, chain *Chain, springs []float64) ([]*BandResult, error) {
	if err := chain.Check(R.Config.Mesh); err != nil {
		return nil, errDecorate(err, "Runner.Sweep")
	}
	if len(springs) == 0 {
		return nil, newError(ErrConfig, "", "Runner.Sweep", "no spring constants given")
	}
	if err := os.MkdirAll(R.Config.Engine.WorkDir, 0755); err != nil {
		return nil, newError(err, R.Config.Engine.WorkDir, "Runner.Sweep", "can't create work directory")
	}
	timings, err := os.OpenFile(filepath.Join(R.Config.Engine.WorkDir, TimingsFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, newError(err, TimingsFile, "Runner.Sweep", "can't open timings file")
	}
	defer timings.Close()
	ret := make([]*BandResult, 0, len(springs))
	for _, k := range springs {
		name := R.Config.BandName(k)
		R.log().Info("relaxing band", "name", name, "k", k, "images", chain.Len())
		start := time.Now()
		res, err := R.Engine.RelaxBand(ctx, R.Config.BandJob(name, chain, k))
		if err != nil {
			return ret, newError(err, "", "Runner.Sweep", "band %s failed", name)
		}
		elapsed := time.Since(start).Seconds()
		if _, err := fmt.Fprintf(timings, "k%s %g\n", FormatSpring(k), elapsed); err != nil {
			return ret, newError(err, TimingsFile, "Runner.Sweep", "can't write timings")
		}
		if err := recordAll(ctx, R.Manifest, res.Checkpoints); err != nil {
			return ret, errDecorate(err, "Runner.Sweep")
		}
		R.log().Info("band relaxed", "name", name, "seconds", elapsed, "checkpoints", len(res.Checkpoints))
		ret = append(ret, res)
	}
	return ret, nil
}

//Climb takes the latest saved band of series, with the given number of
//images, and relaxes it again as name, with the climbing (and falling)
//images of the configuration and no extra interpolations.
func (R *Runner) Climb(ctx context.Context, series string, images int, name string) (*BandResult, error) {
	if R.Manifest == nil {
		return nil, newError(ErrNoCheckpoint, "", "Runner.Climb", "no manifest to find the band %s", series)
	}
	if err := CheckClimbing(R.Config.NEB.ClimbingImages, images); err != nil {
		return nil, errDecorate(err, "Runner.Climb")
	}
	latest, err := R.Manifest.Latest(ctx, series)
	if err != nil {
		return nil, newError(err, "", "Runner.Climb", "can't find a band for %s", series)
	}
	R.log().Info("loading band", "series", series, "index", latest.Index, "path", latest.Path)
	anchors, err := LoadBand(latest.Path, images)
	if err != nil {
		return nil, errDecorate(err, "Runner.Climb")
	}
	chain, err := NewChain(anchors, nil)
	if err != nil {
		return nil, errDecorate(err, "Runner.Climb")
	}
	if err := chain.Check(R.Config.Mesh); err != nil {
		return nil, errDecorate(err, "Runner.Climb")
	}
	job := R.Config.BandJob(name, chain, R.Config.NEB.Springs[0])
	job.ClimbingImages = append([]int(nil), R.Config.NEB.ClimbingImages...)
	R.log().Info("relaxing band with climbing images", "name", name, "climbing", job.ClimbingImages)
	res, err := R.Engine.RelaxBand(ctx, job)
	if err != nil {
		return nil, newError(err, "", "Runner.Climb", "band %s failed", name)
	}
	if err := recordAll(ctx, R.Manifest, res.Checkpoints); err != nil {
		return nil, errDecorate(err, "Runner.Climb")
	}
	return res, nil
}

//LoadBand reads the images image_000000.npy to image_<n-1>.npy from dir.
func LoadBand(dir string, n int) ([]*v3.Matrix, error) {
	if n < 2 {
		return nil, newError(ErrChainShape, dir, "LoadBand", "a band needs at least 2 images, %d requested", n)
	}
	ret := make([]*v3.Matrix, n)
	for i := range ret {
		m, err := npy.ReadFile(filepath.Join(dir, npy.ImageName(i)))
		if err != nil {
			return nil, newError(err, dir, "LoadBand", "can't read image %d", i)
		}
		ret[i] = m
	}
	return ret, nil
}
