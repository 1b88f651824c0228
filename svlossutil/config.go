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

package svlossutil

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	supervoxel "github.com/AllenNeuralDynamics/supervoxel-loss"
)

// Config holds the configuration for one svloss invocation: the input
// volumes and the penalty coefficients. Values can come from a toml file,
// with individual fields overridable by command-line flags.
type Config struct {
	// Prediction is the path to a NetCDF file holding the predicted
	// probability volume. Can include environment variables.
	Prediction string
	// PredictionVar is the NetCDF variable name of the prediction.
	PredictionVar string
	// GroundTruth is the path to a NetCDF file holding the ground-truth
	// instance labeling. Can include environment variables.
	GroundTruth string
	// GroundTruthVar is the NetCDF variable name of the labeling.
	GroundTruthVar string
	// WeightsOut, if nonempty, is the path the computed weight map is
	// written to as NetCDF.
	WeightsOut string

	Connectivity         int
	Threshold            float64
	BaselineWeight       float64
	CriticalWeight       float64
	NoncriticalWeight    float64
	MinCriticalSize      int
	BackgroundAsInstance bool
	Alpha                float64
	Beta                 float64
}

// DefaultConfig mirrors the library defaults.
func DefaultConfig() *Config {
	lc := supervoxel.DefaultConfig()
	return &Config{
		PredictionVar:        "prediction",
		GroundTruthVar:       "labels",
		Connectivity:         int(lc.Connectivity),
		Threshold:            lc.Threshold,
		BaselineWeight:       lc.BaselineWeight,
		CriticalWeight:       lc.CriticalWeight,
		NoncriticalWeight:    lc.NoncriticalWeight,
		MinCriticalSize:      lc.MinCriticalSize,
		BackgroundAsInstance: lc.BackgroundAsInstance,
		Alpha:                lc.Alpha,
		Beta:                 lc.Beta,
	}
}

// ReadConfig reads and parses a toml configuration file, expanding
// environment variables in the path fields.
func ReadConfig(filename string) (*Config, error) {
	c := DefaultConfig()
	if _, err := toml.DecodeFile(filename, c); err != nil {
		return nil, fmt.Errorf("svlossutil: parsing configuration file %s: %v", filename, err)
	}
	c.Prediction = os.ExpandEnv(c.Prediction)
	c.GroundTruth = os.ExpandEnv(c.GroundTruth)
	c.WeightsOut = os.ExpandEnv(c.WeightsOut)
	return c, nil
}

// LossConfig converts the file configuration to the library configuration.
func (c *Config) LossConfig() supervoxel.Config {
	return supervoxel.Config{
		Connectivity:         supervoxel.Connectivity(c.Connectivity),
		Threshold:            c.Threshold,
		BaselineWeight:       c.BaselineWeight,
		CriticalWeight:       c.CriticalWeight,
		NoncriticalWeight:    c.NoncriticalWeight,
		MinCriticalSize:      c.MinCriticalSize,
		BackgroundAsInstance: c.BackgroundAsInstance,
		Alpha:                c.Alpha,
		Beta:                 c.Beta,
	}
}
