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

import "math"

// Config holds the penalty coefficients and connectivity rule for a loss
// instance. A Config is validated once when the loss is constructed and must
// not be changed afterward; it is shared read-only by every sample evaluated
// with that instance.
type Config struct {
	// Connectivity is the neighborhood rule used for component labeling and
	// adjacency queries: 4 or 8 for rank-2 grids, 6, 18, or 26 for rank-3
	// grids.
	Connectivity Connectivity

	// Threshold binarizes the prediction: a voxel is predicted foreground
	// when its score is strictly greater than Threshold.
	Threshold float64

	// BaselineWeight is assigned to every voxel that belongs to no
	// false-positive or false-negative supervoxel.
	BaselineWeight float64

	// CriticalWeight is assigned to voxels of critical supervoxels. It must
	// be strictly greater than BaselineWeight.
	CriticalWeight float64

	// NoncriticalWeight is assigned to voxels of non-critical supervoxels.
	// Setting it equal to BaselineWeight (the default) treats boundary noise
	// the same as correct voxels.
	NoncriticalWeight float64

	// MinCriticalSize forces supervoxels with fewer member voxels to be
	// non-critical, suppressing single-voxel noise. Zero disables
	// suppression.
	MinCriticalSize int

	// BackgroundAsInstance counts true background as a distinct
	// pseudo-instance when classifying false-positive supervoxels, so a
	// component joining one structure to background is critical.
	BackgroundAsInstance bool

	// Alpha blends the voxel-level and structure-level terms of the affinity
	// loss; it must lie in [0, 1].
	Alpha float64

	// Beta weighs split mistakes against merge mistakes in the affinity
	// loss critical mask; it must lie in [0, 1].
	Beta float64
}

// DefaultConfig returns the conservative defaults: 26-connectivity, no
// size suppression, background counted as an instance, and a critical
// penalty of twice the baseline.
func DefaultConfig() Config {
	return Config{
		Connectivity:         Connectivity26,
		Threshold:            0.5,
		BaselineWeight:       1,
		CriticalWeight:       2,
		NoncriticalWeight:    1,
		MinCriticalSize:      0,
		BackgroundAsInstance: true,
		Alpha:                0.5,
		Beta:                 0.5,
	}
}

// check validates the configuration. All failures are ConfigurationErrors
// and happen before any grid is touched.
func (c Config) check() error {
	if !c.Connectivity.valid() {
		return configErrorf("connectivity must be 4, 8, 6, 18, or 26, not %d", int(c.Connectivity))
	}
	for _, w := range []struct {
		name string
		val  float64
	}{
		{"BaselineWeight", c.BaselineWeight},
		{"CriticalWeight", c.CriticalWeight},
		{"NoncriticalWeight", c.NoncriticalWeight},
	} {
		if math.IsNaN(w.val) || math.IsInf(w.val, 0) {
			return configErrorf("%s must be finite, not %g", w.name, w.val)
		}
		if w.val < 0 {
			return configErrorf("%s must be non-negative, not %g", w.name, w.val)
		}
	}
	if c.CriticalWeight <= c.BaselineWeight {
		return configErrorf("CriticalWeight (%g) must be strictly greater than BaselineWeight (%g)",
			c.CriticalWeight, c.BaselineWeight)
	}
	if math.IsNaN(c.Threshold) || math.IsInf(c.Threshold, 0) {
		return configErrorf("Threshold must be finite, not %g", c.Threshold)
	}
	if c.MinCriticalSize < 0 {
		return configErrorf("MinCriticalSize must be non-negative, not %d", c.MinCriticalSize)
	}
	if c.Alpha < 0 || c.Alpha > 1 || math.IsNaN(c.Alpha) {
		return configErrorf("Alpha must be in [0, 1], not %g", c.Alpha)
	}
	if c.Beta < 0 || c.Beta > 1 || math.IsNaN(c.Beta) {
		return configErrorf("Beta must be in [0, 1], not %g", c.Beta)
	}
	return nil
}
