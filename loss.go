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
	"math"
	"runtime"
	"sync"

	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"
)

// probEps clamps probabilities away from 0 and 1 before taking logarithms.
const probEps = 1e-7

// A Loss computes the supervoxel-weighted binary cross-entropy between a
// predicted probability grid and a ground-truth instance labeling. A Loss is
// safe for concurrent use: its configuration is validated at construction
// and read-only afterward.
type Loss struct {
	cfg Config
}

// New constructs a Loss, validating the configuration. All configuration
// failures surface here, never mid-batch.
func New(cfg Config) (*Loss, error) {
	if err := cfg.check(); err != nil {
		return nil, err
	}
	return &Loss{cfg: cfg}, nil
}

// Config returns the configuration the loss was constructed with.
func (l *Loss) Config() Config { return l.cfg }

// A Result holds everything one evaluation produces: the scalar loss, the
// analytic gradient with respect to the prediction, the per-voxel weight
// map, the classified supervoxels, and summary statistics. Supervoxel ids
// are only valid within this evaluation.
type Result struct {
	Loss     float64
	Gradient *sparse.DenseArray
	Weights  *sparse.DenseArray
	FP, FN   []*Supervoxel
	Stats    Stats
}

// Evaluate computes the loss for a single sample. pred holds per-voxel
// foreground probabilities and groundTruth nonzero instance ids on an
// identically shaped grid. Everything is recomputed from scratch; nothing
// persists between calls.
func (l *Loss) Evaluate(pred *sparse.DenseArray, groundTruth *sparse.DenseArrayInt) (*Result, error) {
	if !sameShape(pred.Shape, groundTruth.Shape) {
		return nil, &ShapeMismatchError{Want: pred.Shape, Got: groundTruth.Shape}
	}

	binary := Binarize(pred, l.cfg.Threshold)
	fpMask, fnMask, err := ErrorMasks(binary, groundTruth)
	if err != nil {
		return nil, err
	}
	fp, _, err := labelComponents(fpMask, l.cfg.Connectivity, FalsePositive)
	if err != nil {
		return nil, err
	}
	fn, _, err := labelComponents(fnMask, l.cfg.Connectivity, FalseNegative)
	if err != nil {
		return nil, err
	}

	classifier, err := NewClassifier(l.cfg, groundTruth, binary)
	if err != nil {
		return nil, err
	}
	st, err := classifier.ClassifyAll(fp, fn)
	if err != nil {
		return nil, err
	}

	weights, err := BuildWeights(pred.Shape, fp, fn, l.cfg)
	if err != nil {
		return nil, err
	}

	loss, grad := weightedCrossEntropy(pred, groundTruth, weights)
	return &Result{
		Loss:     loss,
		Gradient: grad,
		Weights:  weights,
		FP:       fp,
		FN:       fn,
		Stats:    st,
	}, nil
}

// EvaluateBatch evaluates independent samples concurrently, one worker per
// processor striding across the batch. The samples share nothing but the
// read-only configuration. Results are returned in input order along with
// aggregate statistics.
func (l *Loss) EvaluateBatch(preds []*sparse.DenseArray, groundTruths []*sparse.DenseArrayInt) ([]*Result, *BatchStats, error) {
	if len(preds) != len(groundTruths) {
		return nil, nil, fmt.Errorf("supervoxel: batch size mismatch: %d predictions, %d ground truths",
			len(preds), len(groundTruths))
	}
	results := make([]*Result, len(preds))
	nprocs := runtime.GOMAXPROCS(0)
	errs := make([]error, nprocs)
	var wg sync.WaitGroup
	wg.Add(nprocs)
	for pp := 0; pp < nprocs; pp++ {
		go func(pp int) {
			defer wg.Done()
			for i := pp; i < len(preds); i += nprocs {
				r, err := l.Evaluate(preds[i], groundTruths[i])
				if err != nil {
					errs[pp] = fmt.Errorf("supervoxel: sample %d: %w", i, err)
					return
				}
				results[i] = r
			}
		}(pp)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, nil, err
		}
	}
	batch := new(BatchStats)
	for _, r := range results {
		batch.Add(r.Stats)
	}
	return results, batch, nil
}

// weightedCrossEntropy computes the mean weighted binary cross-entropy and
// its gradient with respect to the prediction. The target at each voxel is 1
// where the ground truth is foreground.
func weightedCrossEntropy(pred *sparse.DenseArray, groundTruth *sparse.DenseArrayInt, weights *sparse.DenseArray) (float64, *sparse.DenseArray) {
	grad := sparse.ZerosDense(pred.Shape...)
	terms := make([]float64, len(pred.Elements))
	n := float64(len(pred.Elements))
	for i, p := range pred.Elements {
		if p < probEps {
			p = probEps
		} else if p > 1-probEps {
			p = 1 - probEps
		}
		t := 0.
		if groundTruth.Elements[i] != 0 {
			t = 1.
		}
		w := weights.Elements[i]
		terms[i] = -w * (t*math.Log(p) + (1-t)*math.Log(1-p))
		grad.Elements[i] = w * (p - t) / (p * (1 - p)) / n
	}
	return floats.Sum(terms) / n, grad
}
