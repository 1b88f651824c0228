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
	"github.com/ctessum/sparse"
)

// Background is the pseudo-instance id used for true background when
// false-positive components are classified with background counted as a
// distinct instance.
const Background = 0

// A TopologyIndex answers "which ground-truth instances does this region
// touch" queries against a ground-truth instance labeling. It is built once
// per loss evaluation and queried once per supervoxel; each query is linear
// in the region size.
type TopologyIndex struct {
	labels  *sparse.DenseArrayInt
	offsets [][]int
	strides []int
	shape   []int
}

// NewTopologyIndex builds an index over the ground-truth labeling using the
// same neighborhood rule as component labeling.
func NewTopologyIndex(groundTruth *sparse.DenseArrayInt, conn Connectivity) (*TopologyIndex, error) {
	offsets, err := conn.Offsets(len(groundTruth.Shape))
	if err != nil {
		return nil, err
	}
	return &TopologyIndex{
		labels:  groundTruth,
		offsets: offsets,
		strides: gridStrides(groundTruth.Shape),
		shape:   groundTruth.Shape,
	}, nil
}

// InstancesTouching returns the set of distinct ground-truth instance ids
// relevant to the supervoxel. For a false-negative component these are the
// instance labels its own voxels hold. For a false-positive component these
// are the labels of its true-foreground neighbors, plus the Background
// pseudo-instance when backgroundAsInstance is set and the component touches
// exterior true background. The component's own voxels are ground-truth
// background by construction and do not count as background adjacency, so a
// hole fill strictly inside one instance stays non-critical at any size.
func (ix *TopologyIndex) InstancesTouching(sv *Supervoxel, kind MaskKind, backgroundAsInstance bool) map[int]struct{} {
	touched := make(map[int]struct{})
	if kind == FalseNegative {
		for _, v := range sv.Voxels {
			if l := ix.labels.Elements[v]; l != 0 {
				touched[l] = struct{}{}
			}
		}
		return touched
	}

	coord := make([]int, len(ix.shape))
	neighbor := make([]int, len(ix.shape))
	for _, v := range sv.Voxels {
		unflatten(v, ix.shape, coord)
		for _, off := range ix.offsets {
			inside := true
			for d := range coord {
				neighbor[d] = coord[d] + off[d]
				if neighbor[d] < 0 || neighbor[d] >= ix.shape[d] {
					inside = false
					break
				}
			}
			if !inside {
				continue
			}
			ni := flatten(neighbor, ix.strides)
			if l := ix.labels.Elements[ni]; l != 0 {
				touched[l] = struct{}{}
			} else if backgroundAsInstance && !sv.contains(ni) {
				touched[Background] = struct{}{}
			}
		}
	}
	return touched
}

// eachNeighbor visits every in-bounds neighbor of the supervoxel's voxels
// and reports, per neighbor, its flat index. Used by the classifier for
// split detection.
func (ix *TopologyIndex) eachNeighbor(sv *Supervoxel, visit func(flatIndex int)) {
	coord := make([]int, len(ix.shape))
	neighbor := make([]int, len(ix.shape))
	for _, v := range sv.Voxels {
		unflatten(v, ix.shape, coord)
		for _, off := range ix.offsets {
			inside := true
			for d := range coord {
				neighbor[d] = coord[d] + off[d]
				if neighbor[d] < 0 || neighbor[d] >= ix.shape[d] {
					inside = false
					break
				}
			}
			if inside {
				visit(flatten(neighbor, ix.strides))
			}
		}
	}
}
