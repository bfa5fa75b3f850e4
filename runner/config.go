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

// Package runner drives batches of independent joining-phase trials across a
// worker pool, builds the trial scenarios, and aggregates the results into
// bootstrap statistics, CSV samples and a JSON summary.
package runner

import (
	"os"
	"runtime"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/tschsim/joinsim/energy"
	"github.com/tschsim/joinsim/timeslot"
	"github.com/tschsim/joinsim/tsch"
)

// Duration wraps time.Duration for YAML configs, accepting values like
// "1010ms" or "2s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return errors.Wrapf(err, "invalid duration %q", s)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// ScenarioConfig describes the node placement geometry of a trial.
type ScenarioConfig struct {
	Kind              string   `yaml:"kind"`   // "one-hop" or "two-hops"
	Mobile            bool     `yaml:"mobile"` // the joining node follows a random waypoint walk
	CommRange         float64  `yaml:"commRange"`
	TxPowerDbm        float64  `yaml:"txPowerDbm"`
	CoordTxPowerDbm   *float64 `yaml:"coordTxPowerDbm"` // defaults to TxPowerDbm
	RxSensitivityDbm  float64  `yaml:"rxSensitivityDbm"`
	Width             float64  `yaml:"width"`
	Height            float64  `yaml:"height"`
	DataRateBps       int      `yaml:"dataRateBps"`
	ChannelSwitchTime Duration `yaml:"channelSwitchTime"`
}

// ScheduleConfig mirrors tsch.ScheduleConfig with a textual method name.
type ScheduleConfig struct {
	Method          string `yaml:"method"`
	SlotframeLength int    `yaml:"slotframeLength"`
	EbLengthBytes   int    `yaml:"ebLengthBytes"`
	NumChannels     int    `yaml:"numChannels"`
	Ebi             int    `yaml:"ebi"`
	AtpEnabled      bool   `yaml:"atpEnabled"`
}

// ReceptionConfig selects and parameterizes the reception model.
type ReceptionConfig struct {
	Model              string  `yaml:"model"` // "pathloss" or "fixed"
	SuccessProbability float64 `yaml:"successProbability"`
}

// ExperimentConfig is the complete description of one batch experiment.
type ExperimentConfig struct {
	Name    string `yaml:"name"`
	Trials  int    `yaml:"trials"`
	Seed    int64  `yaml:"seed"`
	Workers int    `yaml:"workers"` // 0 selects GOMAXPROCS
	MaxAsn  uint64 `yaml:"maxAsn"`  // 0 selects the default bound

	Scenario     ScenarioConfig       `yaml:"scenario"`
	Schedule     ScheduleConfig       `yaml:"schedule"`
	Timeslot     *timeslot.Attributes `yaml:"timeslot"` // nil selects the 2450 MHz default
	Reception    ReceptionConfig      `yaml:"reception"`
	ScanDuration Duration             `yaml:"scanDuration"`
	Energy       energy.Profile       `yaml:"energy"`
}

// DefaultExperimentConfig returns the configuration of the reference
// one-hop experiment: a 0 dBm coordinator with a 17 m communication range, a
// 101-slot slotframe advertised on 16 channels every 5 slotframes.
func DefaultExperimentConfig() *ExperimentConfig {
	return &ExperimentConfig{
		Name:    "one-hop",
		Trials:  1000,
		Seed:    1,
		Workers: runtime.GOMAXPROCS(0),
		Scenario: ScenarioConfig{
			Kind:              "one-hop",
			CommRange:         17.0,
			TxPowerDbm:        0,
			RxSensitivityDbm:  -100,
			Width:             100,
			Height:            100,
			DataRateBps:       250000,
			ChannelSwitchTime: Duration(200 * time.Microsecond),
		},
		Schedule: ScheduleConfig{
			Method:          tsch.Minimal6TiSCH.String(),
			SlotframeLength: 101,
			EbLengthBytes:   50,
			NumChannels:     16,
			Ebi:             5,
		},
		Reception: ReceptionConfig{
			Model: "pathloss",
		},
		ScanDuration: Duration(1010 * time.Millisecond),
		Energy:       energy.ZolertiaREMote(),
	}
}

// LoadExperimentConfig reads a YAML experiment file, layered over the
// defaults.
func LoadExperimentConfig(path string) (*ExperimentConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read experiment config %s", path)
	}
	cfg := DefaultExperimentConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "cannot parse experiment config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the cross-field constraints that YAML decoding cannot.
func (c *ExperimentConfig) Validate() error {
	if c.Trials <= 0 {
		return errors.New("trials must be positive")
	}
	if c.Scenario.Kind != "one-hop" && c.Scenario.Kind != "two-hops" {
		return errors.Errorf("unknown scenario kind %q", c.Scenario.Kind)
	}
	if c.Scenario.CommRange <= 0 {
		return errors.New("communication range must be positive")
	}
	if _, err := tsch.ParseSchedulingMethod(c.Schedule.Method); err != nil {
		return err
	}
	switch c.Reception.Model {
	case "pathloss":
	case "fixed":
		if c.Reception.SuccessProbability <= 0 || c.Reception.SuccessProbability > 1 {
			return errors.New("the fixed reception probability must be in (0, 1]")
		}
	default:
		return errors.Errorf("unknown reception model %q", c.Reception.Model)
	}
	if c.ScanDuration <= 0 {
		return errors.New("scan duration must be positive")
	}
	return nil
}
