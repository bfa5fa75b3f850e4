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
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/tschsim/joinsim/types"
)

// a fast experiment: the fixed reception model with p = 1 joins every node at
// the first opportunity
func fastExperimentConfig(trials int) *ExperimentConfig {
	cfg := DefaultExperimentConfig()
	cfg.Name = "fast"
	cfg.Trials = trials
	cfg.Seed = 1
	cfg.Workers = 4
	cfg.Reception = ReceptionConfig{Model: "fixed", SuccessProbability: 1.0}
	return cfg
}

func TestRunExperimentAllReceived(t *testing.T) {
	cfg := fastExperimentConfig(16)
	res, err := RunExperiment(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, res.Trials, 16)

	for i, tr := range res.Trials {
		assert.Equal(t, i, tr.Trial)
		assert.Equal(t, OutcomeReceived.String(), tr.Outcome)
		assert.Greater(t, tr.JoiningTimeSec, 0.0)
		assert.Greater(t, tr.FormationEnergyJ, 0.0)
		assert.GreaterOrEqual(t, tr.SyncAsn, tr.FormationAsn)
	}
}

func TestRunExperimentDeterministicAcrossWorkerCounts(t *testing.T) {
	cfg1 := fastExperimentConfig(12)
	cfg1.Workers = 1
	res1, err := RunExperiment(context.Background(), cfg1)
	require.NoError(t, err)

	cfg2 := fastExperimentConfig(12)
	cfg2.Workers = 8
	res2, err := RunExperiment(context.Background(), cfg2)
	require.NoError(t, err)

	assert.Equal(t, res1.Trials, res2.Trials)
}

func TestRunExperimentSeedsDiffer(t *testing.T) {
	cfg1 := fastExperimentConfig(4)
	res1, err := RunExperiment(context.Background(), cfg1)
	require.NoError(t, err)

	cfg2 := fastExperimentConfig(4)
	cfg2.Seed = 2
	res2, err := RunExperiment(context.Background(), cfg2)
	require.NoError(t, err)

	assert.NotEqual(t, res1.Trials, res2.Trials)
}

func TestRunExperimentTwoHops(t *testing.T) {
	cfg := fastExperimentConfig(8)
	cfg.Scenario.Kind = "two-hops"
	res, err := RunExperiment(context.Background(), cfg)
	require.NoError(t, err)
	for _, tr := range res.Trials {
		assert.Equal(t, OutcomeReceived.String(), tr.Outcome)
		// with the relay placed outside the coordinator's range the network
		// needs at least two advertisement opportunities to form
		assert.Greater(t, tr.FormationAsn, uint64(0))
	}
}

func TestRunExperimentCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cfg := fastExperimentConfig(1000)
	_, err := RunExperiment(ctx, cfg)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunExperimentInvalidConfig(t *testing.T) {
	cfg := fastExperimentConfig(4)
	cfg.Schedule.Method = "unknown"
	_, err := RunExperiment(context.Background(), cfg)
	assert.Error(t, err)
}

func TestRunExperimentPathLossSmoke(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping the physical model batch in short mode")
	}
	cfg := DefaultExperimentConfig()
	cfg.Trials = 4
	cfg.Workers = 2
	cfg.Seed = 3
	res, err := RunExperiment(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, res.Trials, 4)
	for _, tr := range res.Trials {
		assert.Equal(t, OutcomeReceived.String(), tr.Outcome)
	}
}
