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
	"errors"
	"testing"

	"github.com/ctessum/sparse"
)

func testConfig2D() Config {
	cfg := DefaultConfig()
	cfg.Connectivity = Connectivity4
	return cfg
}

// classify2D labels the error masks between pred and groundTruth and runs
// the classifier, returning the classified components.
func classify2D(t *testing.T, cfg Config, pred, groundTruth *sparse.DenseArrayInt) (fp, fn []*Supervoxel, st Stats) {
	t.Helper()
	fpMask, fnMask, err := ErrorMasks(pred, groundTruth)
	if err != nil {
		t.Fatal(err)
	}
	fp, _, err = labelComponents(fpMask, cfg.Connectivity, FalsePositive)
	if err != nil {
		t.Fatal(err)
	}
	fn, _, err = labelComponents(fnMask, cfg.Connectivity, FalseNegative)
	if err != nil {
		t.Fatal(err)
	}
	c, err := NewClassifier(cfg, groundTruth, pred)
	if err != nil {
		t.Fatal(err)
	}
	st, err = c.ClassifyAll(fp, fn)
	if err != nil {
		t.Fatal(err)
	}
	return fp, fn, st
}

func TestFalsePositiveBridgeIsCritical(t *testing.T) {
	// Instance 2 along the top row, instance 1 along the middle row, and a
	// single false-positive voxel bridging them at column 2.
	groundTruth := labelsFromRows(
		"22222",
		".....",
		"11111",
		".....",
		".....",
	)
	pred := maskFromRows(
		"#####",
		"..#..",
		"#####",
		".....",
		".....",
	)
	fp, fn, st := classify2D(t, testConfig2D(), pred, groundTruth)
	if len(fn) != 0 {
		t.Fatalf("expected no false-negative components, got %d", len(fn))
	}
	if len(fp) != 1 {
		t.Fatalf("expected one false-positive component, got %d", len(fp))
	}
	if fp[0].Size() != 1 {
		t.Fatalf("expected a single-voxel component, got size %d", fp[0].Size())
	}
	if !fp[0].Critical {
		t.Fatal("bridging component not classified critical")
	}
	if st.Merges != 1 || st.Splits != 0 {
		t.Fatalf("wrong stats: %+v", st)
	}
}

func TestFalseNegativeInteriorIsNonCritical(t *testing.T) {
	// A 3x3 instance with two interior-adjacent voxels missing; the
	// remaining prediction stays connected, so no split occurs.
	groundTruth := labelsFromRows(
		".....",
		".111.",
		".111.",
		".111.",
		".....",
	)
	pred := maskFromRows(
		".....",
		".###.",
		"...#.",
		".###.",
		".....",
	)
	_, fn, st := classify2D(t, testConfig2D(), pred, groundTruth)
	if len(fn) != 1 {
		t.Fatalf("expected one false-negative component, got %d", len(fn))
	}
	if fn[0].Size() != 2 {
		t.Fatalf("expected a two-voxel component, got size %d", fn[0].Size())
	}
	if fn[0].Critical {
		t.Fatal("interior component wrongly classified critical")
	}
	if st.Splits != 0 {
		t.Fatalf("wrong stats: %+v", st)
	}
}

func TestFalseNegativeBreakIsCritical(t *testing.T) {
	// The prediction misses the center voxel of a one-voxel-wide bar,
	// splitting it in two.
	groundTruth := labelsFromRows(
		".....",
		".....",
		"11111",
		".....",
		".....",
	)
	pred := maskFromRows(
		".....",
		".....",
		"##.##",
		".....",
		".....",
	)
	_, fn, st := classify2D(t, testConfig2D(), pred, groundTruth)
	if len(fn) != 1 || fn[0].Size() != 1 {
		t.Fatalf("expected one single-voxel false-negative component, got %v", fn)
	}
	if !fn[0].Critical {
		t.Fatal("bar-breaking component not classified critical")
	}
	if st.Splits != 1 {
		t.Fatalf("wrong stats: %+v", st)
	}
}

func TestFalseNegativeSpanningTwoInstancesIsCritical(t *testing.T) {
	groundTruth := labelsFromRows(
		"11122",
		".....",
	)
	pred := maskFromRows(
		"##..#",
		".....",
	)
	_, fn, _ := classify2D(t, testConfig2D(), pred, groundTruth)
	if len(fn) != 1 {
		t.Fatalf("expected one false-negative component, got %d", len(fn))
	}
	if !fn[0].Critical {
		t.Fatal("component spanning two instances not classified critical")
	}
}

func TestFalsePositiveInBackgroundIsNonCritical(t *testing.T) {
	groundTruth := labelsFromRows(
		".....",
		".....",
		"11111",
		".....",
		".....",
	)
	pred := maskFromRows(
		"#....",
		".....",
		"#####",
		".....",
		".....",
	)
	fp, _, _ := classify2D(t, testConfig2D(), pred, groundTruth)
	if len(fp) != 1 {
		t.Fatalf("expected one false-positive component, got %d", len(fp))
	}
	if fp[0].Critical {
		t.Fatal("background-only component wrongly classified critical")
	}
}

func TestFalsePositiveHoleFillIsNonCritical(t *testing.T) {
	// Filling a hole strictly inside one instance touches that instance
	// only: the component's own voxels are not exterior background, so the
	// classification must not depend on the hole size.
	pred := maskFromRows(
		"#####",
		"#####",
		"#####",
	)
	for _, rows := range [][]string{
		{"11111", "11.11", "11111"},
		{"11111", "1..11", "11111"},
	} {
		groundTruth := labelsFromRows(rows...)
		fp, _, st := classify2D(t, testConfig2D(), pred, groundTruth)
		if len(fp) != 1 {
			t.Fatalf("expected one false-positive component, got %d", len(fp))
		}
		if fp[0].Critical {
			t.Errorf("hole fill of size %d wrongly classified critical", fp[0].Size())
		}
		if st.Merges != 0 {
			t.Errorf("hole fill of size %d counted as a merge: %+v", fp[0].Size(), st)
		}
	}
}

func TestClassifyFalseNegativeWithoutInstanceIsNonCritical(t *testing.T) {
	// A component carrying no ground-truth label cannot re-join an
	// instance, even when predicted foreground surrounds it on both sides.
	groundTruth := sparse.ZerosDenseInt(2, 3)
	pred := maskFromRows(
		"#.#",
		"...",
	)
	c, err := NewClassifier(testConfig2D(), groundTruth, pred)
	if err != nil {
		t.Fatal(err)
	}
	sv := &Supervoxel{ID: 1, Kind: FalseNegative, Voxels: []int{1}}
	critical, err := c.Classify(sv, FalseNegative)
	if err != nil {
		t.Fatal(err)
	}
	if critical {
		t.Fatal("background-only component classified critical")
	}
}

func TestBackgroundPseudoInstance(t *testing.T) {
	// A false-positive voxel touching one instance and true background:
	// critical when background counts as an instance, non-critical
	// otherwise.
	groundTruth := labelsFromRows(
		".....",
		".....",
		"11111",
		".....",
		".....",
	)
	pred := maskFromRows(
		".....",
		"..#..",
		"#####",
		".....",
		".....",
	)
	cfg := testConfig2D()

	cfg.BackgroundAsInstance = true
	fp, _, _ := classify2D(t, cfg, pred, groundTruth)
	if len(fp) != 1 || !fp[0].Critical {
		t.Fatal("expected a critical component with background counted as an instance")
	}

	cfg.BackgroundAsInstance = false
	fp, _, _ = classify2D(t, cfg, pred, groundTruth)
	if len(fp) != 1 || fp[0].Critical {
		t.Fatal("expected a non-critical component with background ignored")
	}
}

func TestMinCriticalSizeSuppression(t *testing.T) {
	groundTruth := labelsFromRows(
		".....",
		".....",
		"11111",
		".....",
		".....",
	)
	pred := maskFromRows(
		".....",
		".....",
		"##.##",
		".....",
		".....",
	)
	cfg := testConfig2D()
	cfg.MinCriticalSize = 2
	_, fn, st := classify2D(t, cfg, pred, groundTruth)
	if len(fn) != 1 {
		t.Fatalf("expected one false-negative component, got %d", len(fn))
	}
	if fn[0].Critical {
		t.Fatal("single-voxel component not suppressed by MinCriticalSize")
	}
	if st.Critical != 0 {
		t.Fatalf("wrong stats: %+v", st)
	}
}

func TestEmptySupervoxelIsInvariantError(t *testing.T) {
	groundTruth := labelsFromRows("111", "...")
	pred := maskFromRows("###", "...")
	c, err := NewClassifier(testConfig2D(), groundTruth, pred)
	if err != nil {
		t.Fatal(err)
	}
	_, err = c.Classify(&Supervoxel{ID: 1}, FalsePositive)
	var ierr *InvariantError
	if !errors.As(err, &ierr) {
		t.Fatalf("expected InvariantError, got %v", err)
	}
}

func TestInstancesTouching(t *testing.T) {
	groundTruth := labelsFromRows(
		"1.2",
		"...",
	)
	ix, err := NewTopologyIndex(groundTruth, Connectivity4)
	if err != nil {
		t.Fatal(err)
	}
	sv := &Supervoxel{ID: 1, Voxels: []int{1}} // between the two instances
	touched := ix.InstancesTouching(sv, FalsePositive, false)
	if len(touched) != 2 {
		t.Fatalf("expected 2 instances, got %v", touched)
	}
	touched = ix.InstancesTouching(sv, FalsePositive, true)
	if len(touched) != 3 { // instances 1 and 2 plus background below
		t.Fatalf("expected 3 instances with background, got %v", touched)
	}
}
