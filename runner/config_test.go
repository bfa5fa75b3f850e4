// Copyright (c) 2024-2025, The TSCH-JoinSim Authors.
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in the
//    documentation and/or other materials provided with the distribution.
// 3. Neither the name of the copyright holder nor the
//    names of its contributors may be used to endorse or promote products
//    derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

package runner

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultExperimentConfigIsValid(t *testing.T) {
	cfg := DefaultExperimentConfig()
	assert.NoError(t, cfg.Validate())
}

func TestLoadExperimentConfigLayersOverDefaults(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "exp.yaml")
	data := `
name: two-hops-mobile
trials: 50
seed: 7
scanDuration: 2s
scenario:
  kind: two-hops
  mobile: true
  coordTxPowerDbm: -20
schedule:
  method: ecfas-v
  atpEnabled: true
reception:
  model: fixed
  successProbability: 0.5
`
	require.NoError(t, os.WriteFile(fn, []byte(data), 0644))

	cfg, err := LoadExperimentConfig(fn)
	require.NoError(t, err)

	assert.Equal(t, "two-hops-mobile", cfg.Name)
	assert.Equal(t, 50, cfg.Trials)
	assert.Equal(t, int64(7), cfg.Seed)
	assert.Equal(t, 2*time.Second, time.Duration(cfg.ScanDuration))
	assert.Equal(t, "two-hops", cfg.Scenario.Kind)
	assert.True(t, cfg.Scenario.Mobile)
	require.NotNil(t, cfg.Scenario.CoordTxPowerDbm)
	assert.Equal(t, -20.0, *cfg.Scenario.CoordTxPowerDbm)
	assert.Equal(t, "ecfas-v", cfg.Schedule.Method)
	assert.True(t, cfg.Schedule.AtpEnabled)
	assert.Equal(t, "fixed", cfg.Reception.Model)
	assert.Equal(t, 0.5, cfg.Reception.SuccessProbability)

	// unspecified fields keep their defaults
	assert.Equal(t, 17.0, cfg.Scenario.CommRange)
	assert.Equal(t, 101, cfg.Schedule.SlotframeLength)
	assert.Equal(t, 16, cfg.Schedule.NumChannels)
	assert.Equal(t, 250000, cfg.Scenario.DataRateBps)
	assert.Equal(t, 200*time.Microsecond, time.Duration(cfg.Scenario.ChannelSwitchTime))
}

func TestLoadExperimentConfigBadDuration(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "exp.yaml")
	require.NoError(t, os.WriteFile(fn, []byte("scanDuration: soon\n"), 0644))

	_, err := LoadExperimentConfig(fn)
	assert.Error(t, err)
}

func TestLoadExperimentConfigMissingFile(t *testing.T) {
	_, err := LoadExperimentConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateRejections(t *testing.T) {
	mutations := map[string]func(*ExperimentConfig){
		"zero trials":      func(c *ExperimentConfig) { c.Trials = 0 },
		"bad scenario":     func(c *ExperimentConfig) { c.Scenario.Kind = "mesh" },
		"zero range":       func(c *ExperimentConfig) { c.Scenario.CommRange = 0 },
		"bad method":       func(c *ExperimentConfig) { c.Schedule.Method = "tasa" },
		"bad model":        func(c *ExperimentConfig) { c.Reception.Model = "disc" },
		"zero probability": func(c *ExperimentConfig) { c.Reception.Model = "fixed"; c.Reception.SuccessProbability = 0 },
		"zero scan":        func(c *ExperimentConfig) { c.ScanDuration = 0 },
	}
	for name, mutate := range mutations {
		cfg := DefaultExperimentConfig()
		mutate(cfg)
		assert.Error(t, cfg.Validate(), name)
	}
}
