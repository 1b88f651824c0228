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
	"sort"

	"github.com/ctessum/sparse"
)

// A Supervoxel is one maximal connected region of nonzero voxels within an
// error mask. Ids are assigned in row-major scan order of the first voxel
// encountered, so repeated labelings of the same mask produce identical ids.
// Ids are only meaningful within one evaluation.
type Supervoxel struct {
	// ID is the 1-based component id in scan order.
	ID int
	// Kind records which error mask the component came from.
	Kind MaskKind
	// Voxels holds the flat row-major indices of the member voxels, sorted
	// ascending. Never empty.
	Voxels []int
	// Min and Max are the inclusive per-dimension bounds of the component.
	Min, Max []int
	// Critical is set by the classifier before the weight map is built.
	Critical bool
}

// Size returns the number of member voxels.
func (s *Supervoxel) Size() int { return len(s.Voxels) }

// contains reports whether the flat index is a member voxel. Voxels are
// sorted ascending, so this is a binary search.
func (s *Supervoxel) contains(v int) bool {
	i := sort.SearchInts(s.Voxels, v)
	return i < len(s.Voxels) && s.Voxels[i] == v
}

// LabelComponents partitions the nonzero voxels of mask into connected
// components under the given neighborhood rule. Zero voxels are unlabeled.
// An all-zero mask yields an empty slice; single-voxel components are
// preserved. Time and memory are linear in the voxel count.
func LabelComponents(mask *sparse.DenseArrayInt, conn Connectivity) ([]*Supervoxel, error) {
	comps, _, err := labelComponents(mask, conn, FalsePositive)
	return comps, err
}

// labelComponents is LabelComponents plus the dense per-voxel component-id
// grid (0 for unlabeled voxels), which the classifier needs for adjacency
// queries against the predicted foreground.
func labelComponents(mask *sparse.DenseArrayInt, conn Connectivity, kind MaskKind) ([]*Supervoxel, []int32, error) {
	shape := mask.Shape
	offsets, err := conn.Offsets(len(shape))
	if err != nil {
		return nil, nil, err
	}
	strides := gridStrides(shape)
	labels := make([]int32, len(mask.Elements))
	coord := make([]int, len(shape))
	neighbor := make([]int, len(shape))
	var queue []int
	var comps []*Supervoxel

	for start := range mask.Elements {
		if mask.Elements[start] == 0 || labels[start] != 0 {
			continue
		}
		id := int32(len(comps) + 1)
		sv := &Supervoxel{
			ID:   int(id),
			Kind: kind,
			Min:  make([]int, len(shape)),
			Max:  make([]int, len(shape)),
		}
		unflatten(start, shape, coord)
		copy(sv.Min, coord)
		copy(sv.Max, coord)

		labels[start] = id
		queue = append(queue[:0], start)
		for len(queue) > 0 {
			v := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			sv.Voxels = append(sv.Voxels, v)
			unflatten(v, shape, coord)
			for d, c := range coord {
				if c < sv.Min[d] {
					sv.Min[d] = c
				}
				if c > sv.Max[d] {
					sv.Max[d] = c
				}
			}
			for _, off := range offsets {
				inside := true
				for d := range coord {
					neighbor[d] = coord[d] + off[d]
					if neighbor[d] < 0 || neighbor[d] >= shape[d] {
						inside = false
						break
					}
				}
				if !inside {
					continue
				}
				ni := flatten(neighbor, strides)
				if mask.Elements[ni] != 0 && labels[ni] == 0 {
					labels[ni] = id
					queue = append(queue, ni)
				}
			}
		}
		sort.Ints(sv.Voxels)
		comps = append(comps, sv)
	}
	return comps, labels, nil
}
