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
	"github.com/GaryBoone/GoStats/stats"
)

// Stats summarizes one loss evaluation for training diagnostics.
type Stats struct {
	FPComponents int // supervoxels in the false-positive mask
	FNComponents int // supervoxels in the false-negative mask
	Critical     int
	NonCritical  int
	// CriticalVoxels is the total voxel count across critical supervoxels.
	CriticalVoxels int
	// Merges counts critical false-positive components; Splits counts
	// critical false-negative components.
	Merges int
	Splits int
}

// BatchStats aggregates per-sample Stats across a batch. The zero value is
// ready to use.
type BatchStats struct {
	Samples        int
	Splits         stats.Stats
	Merges         stats.Stats
	CriticalVoxels stats.Stats
}

// Add folds one sample's statistics into the aggregate.
func (b *BatchStats) Add(s Stats) {
	b.Samples++
	b.Splits.Update(float64(s.Splits))
	b.Merges.Update(float64(s.Merges))
	b.CriticalVoxels.Update(float64(s.CriticalVoxels))
}

// MeanSplits returns the average number of critical false-negative
// components per sample, or zero for an empty batch.
func (b *BatchStats) MeanSplits() float64 {
	if b.Samples == 0 {
		return 0
	}
	return b.Splits.Mean()
}

// MeanMerges returns the average number of critical false-positive
// components per sample, or zero for an empty batch.
func (b *BatchStats) MeanMerges() float64 {
	if b.Samples == 0 {
		return 0
	}
	return b.Merges.Mean()
}
