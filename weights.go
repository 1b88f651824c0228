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

// BuildWeights converts classified supervoxels into a dense per-voxel weight
// grid of the given shape. Voxels outside every supervoxel get
// cfg.BaselineWeight, voxels of critical supervoxels get cfg.CriticalWeight,
// and voxels of non-critical supervoxels get cfg.NoncriticalWeight. The two
// mask kinds are disjoint by construction, as are components within one
// mask, so no overlap resolution is needed.
func BuildWeights(shape []int, fp, fn []*Supervoxel, cfg Config) (*sparse.DenseArray, error) {
	if err := cfg.check(); err != nil {
		return nil, err
	}
	w := sparse.ZerosDense(shape...)
	for i := range w.Elements {
		w.Elements[i] = cfg.BaselineWeight
	}
	n := len(w.Elements)
	for _, comps := range [][]*Supervoxel{fp, fn} {
		for _, sv := range comps {
			if len(sv.Voxels) == 0 {
				return nil, &InvariantError{Reason: "empty supervoxel reached the weight builder"}
			}
			val := cfg.NoncriticalWeight
			if sv.Critical {
				val = cfg.CriticalWeight
			}
			for _, v := range sv.Voxels {
				if v < 0 || v >= n {
					return nil, &InvariantError{Reason: "supervoxel voxel index outside the grid"}
				}
				w.Elements[v] = val
			}
		}
	}
	return w, nil
}

// CriticalMask builds the split/merge-weighted structure mask used by the
// affinity loss: voxels of critical false-negative components (splits) get
// beta, voxels of critical false-positive components (merges) get 1-beta,
// and everything else is zero.
func CriticalMask(shape []int, fp, fn []*Supervoxel, beta float64) *sparse.DenseArray {
	m := sparse.ZerosDense(shape...)
	for _, sv := range fp {
		if !sv.Critical {
			continue
		}
		for _, v := range sv.Voxels {
			m.Elements[v] = 1 - beta
		}
	}
	for _, sv := range fn {
		if !sv.Critical {
			continue
		}
		for _, v := range sv.Voxels {
			m.Elements[v] = beta
		}
	}
	return m
}
