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
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tschsim/joinsim/prng"
	. "github.com/tschsim/joinsim/types"
)

func TestBootstrapMeanCI(t *testing.T) {
	rng := prng.NewStream(1)
	samples := make([]float64, 1000)
	for i := range samples {
		samples[i] = rng.UniformFloat(0, 10)
	}

	ci := BootstrapMeanCI(samples, prng.NewStream(2))
	assert.InDelta(t, 5.0, ci.Mean, 0.5)
	assert.Less(t, ci.CiLow, ci.Mean)
	assert.Greater(t, ci.CiHigh, ci.Mean)
	// the CI of a 1000-sample uniform mean is narrow
	assert.Less(t, ci.CiHigh-ci.CiLow, 1.0)
}

func TestBootstrapMeanCIEmpty(t *testing.T) {
	ci := BootstrapMeanCI(nil, prng.NewStream(1))
	assert.Equal(t, MeanCI{}, ci)
}

func TestBootstrapMeanCIConstant(t *testing.T) {
	ci := BootstrapMeanCI([]float64{3, 3, 3, 3}, prng.NewStream(1))
	assert.Equal(t, 3.0, ci.Mean)
	assert.Equal(t, 3.0, ci.CiLow)
	assert.Equal(t, 3.0, ci.CiHigh)
}

func testExperimentResult() *ExperimentResult {
	return &ExperimentResult{
		Name: "test",
		Seed: 1,
		Trials: []TrialResult{
			{Trial: 0, Outcome: OutcomeReceived.String(), JoiningTimeSec: 1.0,
				FormationTimeSec: 0.5, FormationEnergyJ: 0.01, SyncAsn: 100},
			{Trial: 1, Outcome: OutcomeReceived.String(), JoiningTimeSec: 3.0,
				FormationTimeSec: 0.7, FormationEnergyJ: 0.02, SyncAsn: 300},
			{Trial: 2, Outcome: OutcomeUnresolved.String(),
				FormationTimeSec: 0.6, FormationEnergyJ: 0.03},
		},
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(testExperimentResult())

	assert.Equal(t, "test", s.Name)
	assert.Equal(t, 3, s.Trials)
	assert.Equal(t, 2, s.Received)
	assert.InDelta(t, 2.0/3.0, s.SuccessRatio, 1e-9)
	// the joining time mean covers received trials only
	assert.InDelta(t, 2.0, s.JoiningTime.Mean, 1e-9)
	assert.InDelta(t, 0.6, s.FormationTime.Mean, 1e-9)
	assert.InDelta(t, 0.02, s.Energy.Mean, 1e-9)
}

func TestSummarizeReproducible(t *testing.T) {
	s1 := Summarize(testExperimentResult())
	s2 := Summarize(testExperimentResult())
	assert.Equal(t, s1, s2)
}

func TestSaveCsv(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "trials.csv")
	require.NoError(t, SaveCsv(fn, testExperimentResult()))

	data, err := os.ReadFile(fn)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "trial;outcome;joiningTimeSec;syncAsn;formationTimeSec;formationAsn;formationEnergyJ;rejoinStartOffsetSec", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "0;received;1;100;"))
	assert.True(t, strings.HasPrefix(lines[3], "2;unresolved;0;0;"))
}

func TestSaveSummary(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "summary.json")
	require.NoError(t, SaveSummary(fn, Summarize(testExperimentResult())))

	data, err := os.ReadFile(fn)
	require.NoError(t, err)

	var got Summary
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, 3, got.Trials)
	assert.Equal(t, 2, got.Received)
}
