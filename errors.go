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

// ConfigurationError indicates an invalid configuration value, such as an
// unsupported connectivity or a non-finite weight coefficient. It is returned
// at construction time, never in the middle of a batch.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "supervoxel: invalid configuration: " + e.Reason
}

func configErrorf(format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

// ShapeMismatchError indicates that two grids that must have identical
// shapes do not. No broadcasting is ever attempted.
type ShapeMismatchError struct {
	Want, Got []int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("supervoxel: shape mismatch: %v != %v", e.Want, e.Got)
}

// InvariantError indicates an internal inconsistency, such as an empty
// supervoxel reaching the criticality classifier. It signals a defect in the
// connectivity engine and is never recoverable.
type InvariantError struct {
	Reason string
}

func (e *InvariantError) Error() string {
	return "supervoxel: invariant violated: " + e.Reason
}

func sameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i, v := range a {
		if b[i] != v {
			return false
		}
	}
	return true
}
