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

	"github.com/ctessum/sparse"
)

// A Classifier decides, per error-mask supervoxel, whether correcting the
// component would change the merge/split structure of the predicted
// segmentation relative to ground truth. It is pure and total over valid
// input: the only failure mode is an empty supervoxel, which indicates a
// defect upstream.
type Classifier struct {
	cfg        Config
	index      *TopologyIndex
	pred       *sparse.DenseArrayInt
	predLabels []int32 // predicted-foreground component id per voxel
}

// NewClassifier prepares a classifier for one evaluation. groundTruth is the
// instance labeling and pred the binarized prediction; the predicted
// foreground is component-labeled once here so that false-negative split
// detection needs no per-component relabeling.
func NewClassifier(cfg Config, groundTruth, pred *sparse.DenseArrayInt) (*Classifier, error) {
	if err := cfg.check(); err != nil {
		return nil, err
	}
	if !sameShape(groundTruth.Shape, pred.Shape) {
		return nil, &ShapeMismatchError{Want: groundTruth.Shape, Got: pred.Shape}
	}
	index, err := NewTopologyIndex(groundTruth, cfg.Connectivity)
	if err != nil {
		return nil, err
	}
	_, predLabels, err := labelComponents(pred, cfg.Connectivity, FalsePositive)
	if err != nil {
		return nil, err
	}
	return &Classifier{
		cfg:        cfg,
		index:      index,
		pred:       pred,
		predLabels: predLabels,
	}, nil
}

// Classify reports whether the supervoxel is critical.
//
// A false-positive component is critical when it touches at least two
// distinct instances, counting background as a pseudo-instance if
// configured: correcting it would undo a merge.
//
// A false-negative component is critical when it spans at least two
// instances, or when it is adjacent to at least two distinct
// predicted-foreground components of its single instance: correcting it
// would re-join a split.
func (c *Classifier) Classify(sv *Supervoxel, kind MaskKind) (bool, error) {
	if sv == nil || len(sv.Voxels) == 0 {
		return false, &InvariantError{Reason: fmt.Sprintf("empty %v supervoxel reached the classifier", kind)}
	}

	var critical bool
	switch kind {
	case FalsePositive:
		touched := c.index.InstancesTouching(sv, FalsePositive, c.cfg.BackgroundAsInstance)
		critical = len(touched) >= 2
	case FalseNegative:
		touched := c.index.InstancesTouching(sv, FalseNegative, false)
		if len(touched) >= 2 {
			critical = true
			break
		}
		if len(touched) == 0 {
			// Voxels carrying no instance label cannot re-join anything.
			break
		}
		var instance int
		for l := range touched {
			instance = l
		}
		critical = c.splitsInstance(sv, instance)
	}

	if critical && c.cfg.MinCriticalSize > 0 && sv.Size() < c.cfg.MinCriticalSize {
		critical = false
	}
	return critical, nil
}

// splitsInstance reports whether the false-negative component is adjacent to
// two or more distinct predicted-foreground components whose voxels belong
// to the given ground-truth instance. When it is, flipping the component to
// foreground would connect pieces that the prediction currently keeps apart.
func (c *Classifier) splitsInstance(sv *Supervoxel, instance int) bool {
	pieces := make(map[int32]struct{})
	c.index.eachNeighbor(sv, func(ni int) {
		if c.predLabels[ni] == 0 {
			return
		}
		if c.index.labels.Elements[ni] != instance {
			return
		}
		pieces[c.predLabels[ni]] = struct{}{}
	})
	return len(pieces) >= 2
}

// ClassifyAll labels every component of both error masks in place and
// accumulates per-evaluation statistics. Every supervoxel carries exactly
// one criticality label afterward.
func (c *Classifier) ClassifyAll(fp, fn []*Supervoxel) (Stats, error) {
	var s Stats
	s.FPComponents = len(fp)
	s.FNComponents = len(fn)
	for _, sv := range fp {
		critical, err := c.Classify(sv, FalsePositive)
		if err != nil {
			return Stats{}, err
		}
		sv.Critical = critical
		if critical {
			s.Critical++
			s.Merges++
			s.CriticalVoxels += sv.Size()
		} else {
			s.NonCritical++
		}
	}
	for _, sv := range fn {
		critical, err := c.Classify(sv, FalseNegative)
		if err != nil {
			return Stats{}, err
		}
		sv.Critical = critical
		if critical {
			s.Critical++
			s.Splits++
			s.CriticalVoxels += sv.Size()
		} else {
			s.NonCritical++
		}
	}
	return s, nil
}
