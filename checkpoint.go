/*
 * checkpoint.go, part of goneb.
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
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

//Checkpoint is a saved state (a .npy file, or a directory of them for a band)
//with an explicit, monotonically increasing index within its series.
type Checkpoint struct {
	Series string
	Index  int
	Path   string
}

//indexOf extracts the integer between prefix and suffix in name.
//ok is false if the name doesn't follow the convention.
func indexOf(name, prefix, suffix string) (index int, ok bool) {
	if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, suffix) || len(name) <= len(prefix)+len(suffix) {
		return 0, false
	}
	n, err := strconv.Atoi(name[len(prefix) : len(name)-len(suffix)])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

//SelectLatest returns the name with the largest integer embedded between
//prefix and suffix, e.g. m_15.npy out of m_3.npy, m_15.npy and m_2.npy.
//Names that don't follow the convention are ignored. If none does,
//an error wrapping ErrNoCheckpoint is returned.
func SelectLatest(names []string, prefix, suffix string) (string, error) {
	best := -1
	var ret string
	for _, name := range names {
		n, ok := indexOf(name, prefix, suffix)
		if ok && n > best {
			best = n
			ret = name
		}
	}
	if best < 0 {
		return "", newError(ErrNoCheckpoint, "", "SelectLatest", "no name matches %s<n>%s", prefix, suffix)
	}
	return ret, nil
}

//LatestInDir returns the full path of the latest checkpoint in dir.
func LatestInDir(dir, prefix, suffix string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", newError(err, dir, "LatestInDir", "can't list checkpoint directory")
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	latest, err := SelectLatest(names, prefix, suffix)
	if err != nil {
		err.(*Error).filename = dir
		return "", errDecorate(err, "LatestInDir")
	}
	return filepath.Join(dir, latest), nil
}

//ScanCheckpoints returns every entry of dir named prefix<n>suffix as a
//checkpoint of series, sorted by index. This is the only place
//where an index is read from a file name.
func ScanCheckpoints(dir, series, prefix, suffix string) ([]Checkpoint, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, newError(err, dir, "ScanCheckpoints", "can't list checkpoint directory")
	}
	ret := make([]Checkpoint, 0, len(entries))
	for _, e := range entries {
		n, ok := indexOf(e.Name(), prefix, suffix)
		if !ok {
			continue
		}
		ret = append(ret, Checkpoint{Series: series, Index: n, Path: filepath.Join(dir, e.Name())})
	}
	if len(ret) == 0 {
		return nil, newError(ErrNoCheckpoint, dir, "ScanCheckpoints", "no entry matches %s<n>%s", prefix, suffix)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].Index < ret[j].Index })
	return ret, nil
}

//ImportCheckpoints scans dir and records every checkpoint found in the manifest.
//It returns the latest one.
func ImportCheckpoints(ctx context.Context, m Manifest, dir, series, prefix, suffix string) (Checkpoint, error) {
	cps, err := ScanCheckpoints(dir, series, prefix, suffix)
	if err != nil {
		return Checkpoint{}, errDecorate(err, "ImportCheckpoints")
	}
	if err := recordAll(ctx, m, cps); err != nil {
		return Checkpoint{}, err
	}
	return cps[len(cps)-1], nil
}

func recordAll(ctx context.Context, m Manifest, cps []Checkpoint) error {
	if m == nil {
		return nil
	}
	for _, c := range cps {
		if err := m.Record(ctx, c); err != nil {
			return newError(err, c.Path, "recordAll", "can't record checkpoint %d of %s", c.Index, c.Series)
		}
	}
	return nil
}
