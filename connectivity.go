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

import "fmt"

// Connectivity is a voxel neighborhood rule: the number of neighbors each
// voxel has when deciding which voxels are adjacent during component
// labeling. Valid values are 4 and 8 for rank-2 grids and 6, 18, and 26 for
// rank-3 grids.
type Connectivity int

const (
	Connectivity4  Connectivity = 4
	Connectivity8  Connectivity = 8
	Connectivity6  Connectivity = 6
	Connectivity18 Connectivity = 18
	Connectivity26 Connectivity = 26
)

func (c Connectivity) String() string {
	return fmt.Sprintf("%d-connected", int(c))
}

func (c Connectivity) valid() bool {
	switch c {
	case Connectivity4, Connectivity8, Connectivity6, Connectivity18, Connectivity26:
		return true
	}
	return false
}

// Offsets returns the neighbor coordinate offsets for this connectivity on a
// grid of the given rank, in a fixed lexicographic order. It returns a
// ConfigurationError if the connectivity is not defined for the rank.
func (c Connectivity) Offsets(rank int) ([][]int, error) {
	switch rank {
	case 2:
		if c != Connectivity4 && c != Connectivity8 {
			return nil, configErrorf("connectivity %d is not valid for a rank-2 grid; use 4 or 8", int(c))
		}
		var offs [][]int
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dy == 0 && dx == 0 {
					continue
				}
				if c == Connectivity4 && dy != 0 && dx != 0 {
					continue
				}
				offs = append(offs, []int{dy, dx})
			}
		}
		return offs, nil
	case 3:
		if c != Connectivity6 && c != Connectivity18 && c != Connectivity26 {
			return nil, configErrorf("connectivity %d is not valid for a rank-3 grid; use 6, 18, or 26", int(c))
		}
		var offs [][]int
		for dz := -1; dz <= 1; dz++ {
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nonzero := 0
					for _, d := range []int{dz, dy, dx} {
						if d != 0 {
							nonzero++
						}
					}
					if nonzero == 0 {
						continue
					}
					if c == Connectivity6 && nonzero > 1 {
						continue
					}
					if c == Connectivity18 && nonzero > 2 {
						continue
					}
					offs = append(offs, []int{dz, dy, dx})
				}
			}
		}
		return offs, nil
	}
	return nil, configErrorf("grid rank must be 2 or 3, not %d", rank)
}

// gridStrides returns the row-major strides matching the flattening used by
// sparse.DenseArray.Index1d.
func gridStrides(shape []int) []int {
	s := make([]int, len(shape))
	stride := 1
	for i := len(shape) - 1; i >= 0; i-- {
		s[i] = stride
		stride *= shape[i]
	}
	return s
}

// unflatten decodes a flat row-major index into out, which must have
// length len(shape).
func unflatten(idx int, shape, out []int) {
	for i := len(shape) - 1; i >= 0; i-- {
		out[i] = idx % shape[i]
		idx /= shape[i]
	}
}

// flatten is the inverse of unflatten.
func flatten(coord, strides []int) int {
	idx := 0
	for i, c := range coord {
		idx += c * strides[i]
	}
	return idx
}
