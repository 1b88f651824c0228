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

// Package supervoxel implements a topology-aware training signal for
// curvilinear-structure instance segmentation. Voxel-wise errors between a
// binarized prediction and a ground-truth instance labeling are grouped into
// connected components ("supervoxels"), each component is classified as
// critical (its correction would change the merge/split structure of the
// segmentation) or non-critical, and the result is turned into a dense
// per-voxel weight map that up-weights critical mistakes in a point-wise
// loss.
package supervoxel
