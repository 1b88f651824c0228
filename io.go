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
	"encoding/gob"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// dimNames returns NetCDF dimension names for a grid rank: y,x for rank 2
// and z,y,x for rank 3.
func dimNames(rank int) ([]string, error) {
	switch rank {
	case 2:
		return []string{"y", "x"}, nil
	case 3:
		return []string{"z", "y", "x"}, nil
	}
	return nil, configErrorf("grid rank must be 2 or 3, not %d", rank)
}

// WriteVolume writes a single named volume to f as a NetCDF file.
func WriteVolume(f *os.File, name, description string, data *sparse.DenseArray) error {
	dims, err := dimNames(len(data.Shape))
	if err != nil {
		return err
	}
	h := cdf.NewHeader(dims, data.Shape)
	h.AddAttribute("", "comment", "SupervoxelLoss volume file")
	h.AddVariable(name, dims, []float32{0})
	h.AddAttribute(name, "description", description)
	h.Define()

	ff, err := cdf.Create(f, h)
	if err != nil {
		return fmt.Errorf("supervoxel: creating netcdf file: %v", err)
	}
	if err := writeNCF(ff, name, data); err != nil {
		return fmt.Errorf("supervoxel: writing variable %s to netcdf file: %v", name, err)
	}
	if err := cdf.UpdateNumRecs(f); err != nil {
		return fmt.Errorf("supervoxel: finalizing netcdf file: %v", err)
	}
	return nil
}

func writeNCF(f *cdf.File, name string, data *sparse.DenseArray) error {
	n := 1
	for _, v := range data.Shape {
		n *= v
	}
	if len(data.Elements) != n {
		return fmt.Errorf("dims are %d but array length is %d", n, len(data.Elements))
	}
	data32 := make([]float32, len(data.Elements))
	for i, e := range data.Elements {
		data32[i] = float32(e)
	}
	end := f.Header.Lengths(name)
	start := make([]int, len(end))
	w := f.Writer(name, start, end)
	_, err := w.Write(data32)
	return err
}

// ReadVolume reads the named variable from a NetCDF file into a dense grid.
func ReadVolume(rw cdf.ReaderWriterAt, name string) (*sparse.DenseArray, error) {
	f, err := cdf.Open(rw)
	if err != nil {
		return nil, fmt.Errorf("supervoxel: opening netcdf file: %v", err)
	}
	dims := f.Header.Lengths(name)
	if len(dims) == 0 {
		return nil, fmt.Errorf("supervoxel: variable %s not found in netcdf file", name)
	}
	data := sparse.ZerosDense(dims...)
	tmp := make([]float32, len(data.Elements))
	r := f.Reader(name, nil, nil)
	if _, err := r.Read(tmp); err != nil {
		return nil, fmt.Errorf("supervoxel: reading variable %s: %v", name, err)
	}
	for i, v := range tmp {
		data.Elements[i] = float64(v)
	}
	return data, nil
}

// ReadLabelVolume reads the named variable and rounds it to an integer
// instance labeling.
func ReadLabelVolume(rw cdf.ReaderWriterAt, name string) (*sparse.DenseArrayInt, error) {
	data, err := ReadVolume(rw, name)
	if err != nil {
		return nil, err
	}
	labels := sparse.ZerosDenseInt(data.Shape...)
	for i, v := range data.Elements {
		labels.Elements[i] = int(math.Round(v))
	}
	return labels, nil
}

// Save writes the result to w in gob format.
func (r *Result) Save(w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(r); err != nil {
		return fmt.Errorf("supervoxel: Result.Save: %v", err)
	}
	return nil
}

// LoadResult reads a previously Saved result from rd.
func LoadResult(rd io.Reader) (*Result, error) {
	r := new(Result)
	if err := gob.NewDecoder(rd).Decode(r); err != nil {
		return nil, fmt.Errorf("supervoxel: LoadResult: %v", err)
	}
	// gob does not carry the arrays' unexported fields.
	if r.Gradient != nil {
		r.Gradient.Fix()
	}
	if r.Weights != nil {
		r.Weights.Fix()
	}
	return r, nil
}
