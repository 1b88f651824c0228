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

// MaskKind distinguishes the two error masks derived from a prediction.
type MaskKind int

const (
	// FalsePositive marks voxels predicted foreground where the ground
	// truth is background.
	FalsePositive MaskKind = iota
	// FalseNegative marks voxels predicted background where the ground
	// truth is foreground.
	FalseNegative
)

func (k MaskKind) String() string {
	if k == FalsePositive {
		return "false-positive"
	}
	return "false-negative"
}

// Binarize converts a continuous prediction grid into a binary foreground
// mask: voxels with score strictly greater than threshold become 1.
func Binarize(pred *sparse.DenseArray, threshold float64) *sparse.DenseArrayInt {
	out := sparse.ZerosDenseInt(pred.Shape...)
	for i, v := range pred.Elements {
		if v > threshold {
			out.Elements[i] = 1
		}
	}
	return out
}

// ErrorMasks derives the false-positive and false-negative masks from a
// binarized prediction and a ground-truth instance labeling. The two masks
// are disjoint by construction. The grids must have identical shapes; no
// broadcasting is performed.
func ErrorMasks(pred, groundTruth *sparse.DenseArrayInt) (fp, fn *sparse.DenseArrayInt, err error) {
	if !sameShape(pred.Shape, groundTruth.Shape) {
		return nil, nil, &ShapeMismatchError{Want: pred.Shape, Got: groundTruth.Shape}
	}
	fp = sparse.ZerosDenseInt(pred.Shape...)
	fn = sparse.ZerosDenseInt(pred.Shape...)
	for i, p := range pred.Elements {
		t := groundTruth.Elements[i]
		switch {
		case p != 0 && t == 0:
			fp.Elements[i] = 1
		case p == 0 && t != 0:
			fn.Elements[i] = 1
		}
	}
	return fp, fn, nil
}
