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
	"reflect"
	"testing"

	"github.com/ctessum/sparse"
)

const testTolerance = 1e-8

func different(a, b, tolerance float64) bool {
	if a-b > tolerance || b-a > tolerance {
		return true
	}
	return false
}

// maskFromRows builds a rank-2 mask from strings where '#' is foreground.
func maskFromRows(rows ...string) *sparse.DenseArrayInt {
	m := sparse.ZerosDenseInt(len(rows), len(rows[0]))
	for y, row := range rows {
		for x, c := range row {
			if c == '#' {
				m.Elements[y*len(row)+x] = 1
			}
		}
	}
	return m
}

// labelsFromRows builds a rank-2 label grid from strings of digits,
// where '.' is background.
func labelsFromRows(rows ...string) *sparse.DenseArrayInt {
	m := sparse.ZerosDenseInt(len(rows), len(rows[0]))
	for y, row := range rows {
		for x, c := range row {
			if c != '.' {
				m.Elements[y*len(row)+x] = int(c - '0')
			}
		}
	}
	return m
}

func TestLabelComponentsPartition(t *testing.T) {
	mask := maskFromRows(
		"##..#.#",
		".#..#..",
		"......#",
		"###..##",
	)
	for _, conn := range []Connectivity{Connectivity4, Connectivity8} {
		comps, err := LabelComponents(mask, conn)
		if err != nil {
			t.Fatal(err)
		}

		// The union of all memberships must equal the set of foreground
		// voxels and the components must be pairwise disjoint.
		seen := make(map[int]int)
		for _, sv := range comps {
			if sv.Size() == 0 {
				t.Fatalf("%v: component %d is empty", conn, sv.ID)
			}
			for _, v := range sv.Voxels {
				if prev, ok := seen[v]; ok {
					t.Fatalf("%v: voxel %d in components %d and %d", conn, v, prev, sv.ID)
				}
				seen[v] = sv.ID
			}
		}
		for i, v := range mask.Elements {
			_, labeled := seen[i]
			if (v != 0) != labeled {
				t.Fatalf("%v: voxel %d: foreground=%v, labeled=%v", conn, i, v != 0, labeled)
			}
		}

		// No two distinct components may be mutually reachable: adjacent
		// foreground voxels must share a component.
		offsets, err := conn.Offsets(2)
		if err != nil {
			t.Fatal(err)
		}
		strides := gridStrides(mask.Shape)
		coord := make([]int, 2)
		for i, v := range mask.Elements {
			if v == 0 {
				continue
			}
			unflatten(i, mask.Shape, coord)
			for _, off := range offsets {
				y, x := coord[0]+off[0], coord[1]+off[1]
				if y < 0 || y >= mask.Shape[0] || x < 0 || x >= mask.Shape[1] {
					continue
				}
				ni := flatten([]int{y, x}, strides)
				if mask.Elements[ni] != 0 && seen[i] != seen[ni] {
					t.Fatalf("%v: adjacent voxels %d and %d in different components", conn, i, ni)
				}
			}
		}
	}
}

func TestLabelComponentsIdempotent(t *testing.T) {
	mask := maskFromRows(
		"#.#.#",
		"##..#",
		"....#",
	)
	a, err := LabelComponents(mask, Connectivity4)
	if err != nil {
		t.Fatal(err)
	}
	b, err := LabelComponents(mask, Connectivity4)
	if err != nil {
		t.Fatal(err)
	}
	if len(a) != len(b) {
		t.Fatalf("component counts differ: %d != %d", len(a), len(b))
	}
	for i := range a {
		if a[i].ID != b[i].ID || !reflect.DeepEqual(a[i].Voxels, b[i].Voxels) {
			t.Fatalf("component %d differs between runs", i)
		}
	}
}

func TestLabelComponentsMonotonic(t *testing.T) {
	mask := maskFromRows(
		"#.#..",
		".#.#.",
		"#.#.#",
		".....",
		"##.##",
	)
	loose, err := LabelComponents(mask, Connectivity8)
	if err != nil {
		t.Fatal(err)
	}
	strict, err := LabelComponents(mask, Connectivity4)
	if err != nil {
		t.Fatal(err)
	}
	if len(loose) > len(strict) {
		t.Fatalf("increasing connectivity raised the component count: %d > %d",
			len(loose), len(strict))
	}

	// Every 4-connected component must lie entirely inside one 8-connected
	// component.
	owner := make(map[int]int)
	for _, sv := range loose {
		for _, v := range sv.Voxels {
			owner[v] = sv.ID
		}
	}
	for _, sv := range strict {
		id := owner[sv.Voxels[0]]
		for _, v := range sv.Voxels[1:] {
			if owner[v] != id {
				t.Fatalf("4-connected component %d spans 8-connected components %d and %d",
					sv.ID, id, owner[v])
			}
		}
	}
}

func TestLabelComponentsEmptyMask(t *testing.T) {
	mask := sparse.ZerosDenseInt(4, 4)
	comps, err := LabelComponents(mask, Connectivity4)
	if err != nil {
		t.Fatal(err)
	}
	if len(comps) != 0 {
		t.Fatalf("empty mask produced %d components", len(comps))
	}
}

func TestLabelComponentsSingleVoxel(t *testing.T) {
	mask := sparse.ZerosDenseInt(3, 3)
	mask.Elements[4] = 1 // center
	comps, err := LabelComponents(mask, Connectivity8)
	if err != nil {
		t.Fatal(err)
	}
	if len(comps) != 1 || comps[0].Size() != 1 {
		t.Fatalf("expected one single-voxel component, got %v", comps)
	}
	if !reflect.DeepEqual(comps[0].Min, []int{1, 1}) || !reflect.DeepEqual(comps[0].Max, []int{1, 1}) {
		t.Fatalf("wrong bounds: %v %v", comps[0].Min, comps[0].Max)
	}
}

func TestLabelComponents3D(t *testing.T) {
	// Two voxels sharing only an edge: separate under 6-connectivity,
	// joined under 18- and 26-connectivity.
	mask := sparse.ZerosDenseInt(2, 2, 2)
	mask.Set(1, 0, 0, 0)
	mask.Set(1, 0, 1, 1)
	counts := map[Connectivity]int{
		Connectivity6:  2,
		Connectivity18: 1,
		Connectivity26: 1,
	}
	for conn, want := range counts {
		comps, err := LabelComponents(mask, conn)
		if err != nil {
			t.Fatal(err)
		}
		if len(comps) != want {
			t.Errorf("%v: got %d components, want %d", conn, len(comps), want)
		}
	}
}

func TestLabelComponentsInvalidConnectivity(t *testing.T) {
	mask := sparse.ZerosDenseInt(3, 3)
	_, err := LabelComponents(mask, Connectivity(5))
	var cerr *ConfigurationError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
	// A valid value applied to the wrong rank must also fail.
	_, err = LabelComponents(mask, Connectivity26)
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ConfigurationError for 26-connectivity on a rank-2 grid, got %v", err)
	}
}

func TestConnectivityOffsetCounts(t *testing.T) {
	cases := []struct {
		conn Connectivity
		rank int
		want int
	}{
		{Connectivity4, 2, 4},
		{Connectivity8, 2, 8},
		{Connectivity6, 3, 6},
		{Connectivity18, 3, 18},
		{Connectivity26, 3, 26},
	}
	for _, c := range cases {
		offs, err := c.conn.Offsets(c.rank)
		if err != nil {
			t.Fatal(err)
		}
		if len(offs) != c.want {
			t.Errorf("%v rank %d: got %d offsets, want %d", c.conn, c.rank, len(offs), c.want)
		}
	}
}
