/*
Copyright © 2024 the SupervoxelLoss authors.
This file is part of SupervoxelLoss.

SupervoxelLoss is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

SupervoxelLoss is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with SupervoxelLoss.  If not, see <http://www.gnu.org/licenses/>.
*/

package supervoxel

import (
	"fmt"
	"math"

	"github.com/ctessum/sparse"
)

// An Edge is an affinity offset, one coordinate delta per grid dimension,
// e.g. {1, 0, 0} for affinities along the first axis of a rank-3 grid.
type Edge []int

// edgeRegion returns the valid-region shape for an edge on a grid of the
// given shape, along with the positive parts of the offset and its negation.
func edgeRegion(shape []int, edge Edge) (region, o1, o2 []int, err error) {
	if len(edge) != len(shape) {
		return nil, nil, nil, configErrorf("edge %v has %d offsets for a rank-%d grid",
			edge, len(edge), len(shape))
	}
	region = make([]int, len(shape))
	o1 = make([]int, len(shape))
	o2 = make([]int, len(shape))
	for d, e := range edge {
		if e > 0 {
			o1[d] = e
		} else {
			o2[d] = -e
		}
		region[d] = shape[d] - o1[d] - o2[d]
		if region[d] <= 0 {
			return nil, nil, nil, configErrorf("edge %v does not fit grid shape %v", edge, shape)
		}
	}
	return region, o1, o2, nil
}

// Affinities computes the affinity channel of a label grid for one edge: the
// output voxel is 1 where the two voxels joined by the edge carry the same
// nonzero label. The output covers the valid region, which is smaller than
// the input by the edge magnitude along each dimension.
func Affinities(labels *sparse.DenseArrayInt, edge Edge) (*sparse.DenseArray, error) {
	region, o1, o2, err := edgeRegion(labels.Shape, edge)
	if err != nil {
		return nil, err
	}
	strides := gridStrides(labels.Shape)
	out := sparse.ZerosDense(region...)
	coord := make([]int, len(region))
	c1 := make([]int, len(region))
	c2 := make([]int, len(region))
	for i := range out.Elements {
		unflatten(i, region, coord)
		for d := range coord {
			c1[d] = coord[d] + o1[d]
			c2[d] = coord[d] + o2[d]
		}
		l1 := labels.Elements[flatten(c1, strides)]
		l2 := labels.Elements[flatten(c2, strides)]
		if l1 != 0 && l1 == l2 {
			out.Elements[i] = 1
		}
	}
	return out, nil
}

// An AffinityLoss penalizes predicted affinity channels against affinities
// derived from the ground-truth labeling, up-weighting edges that lie inside
// critical supervoxels. Alpha blends the plain and structure-weighted terms;
// Beta weighs splits against merges inside the structure term.
type AffinityLoss struct {
	cfg   Config
	loss  *Loss
	edges []Edge
}

// NewAffinityLoss constructs an affinity loss for a fixed set of edges.
func NewAffinityLoss(cfg Config, edges []Edge) (*AffinityLoss, error) {
	if err := cfg.check(); err != nil {
		return nil, err
	}
	if len(edges) == 0 {
		return nil, configErrorf("affinity loss needs at least one edge")
	}
	inner, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return &AffinityLoss{cfg: cfg, loss: inner, edges: edges}, nil
}

// Edges returns the edge set the loss was constructed with.
func (a *AffinityLoss) Edges() []Edge { return a.edges }

// Evaluate computes the affinity loss for one sample. predAffs holds one
// predicted affinity channel per edge, each covering the full grid;
// predSeg is the externally decoded predicted segmentation (any nonzero
// voxel is predicted foreground) used for critical-component detection; and
// groundTruth is the instance labeling.
func (a *AffinityLoss) Evaluate(predAffs []*sparse.DenseArray, predSeg, groundTruth *sparse.DenseArrayInt) (float64, Stats, error) {
	if len(predAffs) != len(a.edges) {
		return 0, Stats{}, fmt.Errorf("supervoxel: %d affinity channels for %d edges",
			len(predAffs), len(a.edges))
	}
	if !sameShape(predSeg.Shape, groundTruth.Shape) {
		return 0, Stats{}, &ShapeMismatchError{Want: predSeg.Shape, Got: groundTruth.Shape}
	}
	for _, ch := range predAffs {
		if !sameShape(ch.Shape, groundTruth.Shape) {
			return 0, Stats{}, &ShapeMismatchError{Want: groundTruth.Shape, Got: ch.Shape}
		}
	}

	binary := sparse.ZerosDenseInt(predSeg.Shape...)
	for i, v := range predSeg.Elements {
		if v != 0 {
			binary.Elements[i] = 1
		}
	}
	fpMask, fnMask, err := ErrorMasks(binary, groundTruth)
	if err != nil {
		return 0, Stats{}, err
	}
	fp, _, err := labelComponents(fpMask, a.cfg.Connectivity, FalsePositive)
	if err != nil {
		return 0, Stats{}, err
	}
	fn, _, err := labelComponents(fnMask, a.cfg.Connectivity, FalseNegative)
	if err != nil {
		return 0, Stats{}, err
	}
	classifier, err := NewClassifier(a.cfg, groundTruth, binary)
	if err != nil {
		return 0, Stats{}, err
	}
	st, err := classifier.ClassifyAll(fp, fn)
	if err != nil {
		return 0, Stats{}, err
	}
	mask := CriticalMask(groundTruth.Shape, fp, fn, a.cfg.Beta)

	total := 0.
	for j, edge := range a.edges {
		lossJ, err := a.edgeLoss(predAffs[j], groundTruth, mask, edge)
		if err != nil {
			return 0, Stats{}, err
		}
		total += lossJ
	}
	return total, st, nil
}

// edgeLoss computes the blended cross-entropy for one edge over its valid
// region. The structure weight of an edge is the critical-mask value when
// both of its endpoints carry the same nonzero mask value, matching the
// affinity rule used for labels.
func (a *AffinityLoss) edgeLoss(predAff *sparse.DenseArray, groundTruth *sparse.DenseArrayInt, mask *sparse.DenseArray, edge Edge) (float64, error) {
	region, o1, o2, err := edgeRegion(groundTruth.Shape, edge)
	if err != nil {
		return 0, err
	}
	strides := gridStrides(groundTruth.Shape)
	coord := make([]int, len(region))
	c1 := make([]int, len(region))
	c2 := make([]int, len(region))
	n := 1
	for _, r := range region {
		n *= r
	}
	sum := 0.
	for i := 0; i < n; i++ {
		unflatten(i, region, coord)
		for d := range coord {
			c1[d] = coord[d] + o1[d]
			c2[d] = coord[d] + o2[d]
		}
		i1 := flatten(c1, strides)
		i2 := flatten(c2, strides)

		t := 0.
		if l := groundTruth.Elements[i1]; l != 0 && l == groundTruth.Elements[i2] {
			t = 1.
		}
		structure := 0.
		if m := mask.Elements[i1]; m != 0 && m == mask.Elements[i2] {
			structure = m
		}
		p := predAff.Elements[i1]
		if p < probEps {
			p = probEps
		} else if p > 1-probEps {
			p = 1 - probEps
		}
		bce := -(t*math.Log(p) + (1-t)*math.Log(1-p))
		sum += ((1 - a.cfg.Alpha) + a.cfg.Alpha*structure) * bce
	}
	return sum / float64(n), nil
}
