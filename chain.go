/*
 * chain.go, part of goneb.
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
	v3 "github.com/rmera/goneb/v3"
)

//Chain is the initial guess for an energy band: the anchor states given by the
//user and, for each pair of consecutive anchors, the number of images the
//engine must interpolate between them.
type Chain struct {
	Anchors []*v3.Matrix

	//Interpolations is either empty (no interpolated images at all) or has
	//exactly len(Anchors)-1 elements.
	Interpolations []int
}

//Slot describes one image of the band built from a Chain.
type Slot struct {
	Synthetic bool
	Anchor    int    //index of the anchor, if not synthetic
	Between   [2]int //anchors the image is interpolated between, if synthetic
}

//NewChain returns a validated chain. The anchors are not copied.
func NewChain(anchors []*v3.Matrix, interpolations []int) (*Chain, error) {
	C := &Chain{Anchors: anchors, Interpolations: interpolations}
	if err := C.Validate(); err != nil {
		return nil, errDecorate(err, "NewChain")
	}
	return C, nil
}

//Validate checks the shape of the chain. Errors wrap ErrChainShape or ErrDimension.
func (C *Chain) Validate() error {
	if len(C.Anchors) < 2 {
		return newError(ErrChainShape, "", "Chain.Validate", "%d anchor states given, at least 2 needed", len(C.Anchors))
	}
	if len(C.Interpolations) != 0 && len(C.Interpolations) != len(C.Anchors)-1 {
		return newError(ErrChainShape, "", "Chain.Validate", "%d interpolation counts given for %d anchors", len(C.Interpolations), len(C.Anchors))
	}
	for i, n := range C.Interpolations {
		if n < 0 {
			return newError(ErrChainShape, "", "Chain.Validate", "negative interpolation count %d between anchors %d and %d", n, i, i+1)
		}
	}
	var spins int
	for i, a := range C.Anchors {
		if a == nil {
			return newError(ErrChainShape, "", "Chain.Validate", "anchor %d is nil", i)
		}
		if i == 0 {
			spins = a.NVecs()
			continue
		}
		if a.NVecs() != spins {
			return newError(ErrDimension, "", "Chain.Validate", "anchor %d has %d spins, anchor 0 has %d", i, a.NVecs(), spins)
		}
	}
	return nil
}

//Check validates the chain and checks that every anchor matches the mesh.
func (C *Chain) Check(mesh Mesh) error {
	if err := C.Validate(); err != nil {
		return err
	}
	if err := mesh.Check(C.Anchors[0]); err != nil {
		return errDecorate(err, "Chain.Check")
	}
	return nil
}

//Len returns the total number of images in the band.
func (C *Chain) Len() int {
	n := len(C.Anchors)
	for _, i := range C.Interpolations {
		n += i
	}
	return n
}

//Layout returns the images of the band in order, telling which are anchors
//and which will be interpolated by the engine.
func (C *Chain) Layout() []Slot {
	ret := make([]Slot, 0, C.Len())
	for i := range C.Anchors {
		ret = append(ret, Slot{Anchor: i})
		if i < len(C.Interpolations) {
			for j := 0; j < C.Interpolations[i]; j++ {
				ret = append(ret, Slot{Synthetic: true, Anchor: -1, Between: [2]int{i, i + 1}})
			}
		}
	}
	return ret
}

//CheckClimbing checks that every climbing (or falling, if negative) image
//is an interior image of a band with n images.
func CheckClimbing(images []int, n int) error {
	for _, ci := range images {
		a := ci
		if a < 0 {
			a = -a
		}
		if a <= 0 || a >= n-1 {
			return newError(ErrReference, "", "CheckClimbing", "climbing image %d outside the interior of a %d image band", ci, n)
		}
	}
	return nil
}
