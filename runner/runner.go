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
	"runtime"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/tschsim/joinsim/logger"
	"github.com/tschsim/joinsim/prng"
	"github.com/tschsim/joinsim/radiomodel"
	"github.com/tschsim/joinsim/timeslot"
	"github.com/tschsim/joinsim/tsch"
	. "github.com/tschsim/joinsim/types"
)

// TrialResult records one independent trial: the formation of the network
// followed by the measured rejoining attempt of the scenario's joining node.
type TrialResult struct {
	Trial             int     `json:"trial"`
	FormationTimeSec  float64 `json:"formationTimeSec"`
	FormationAsn      uint64  `json:"formationAsn"`
	FormationEnergyJ  float64 `json:"formationEnergyJ"`
	Outcome           string  `json:"outcome"`
	JoiningTimeSec    float64 `json:"joiningTimeSec"`
	SyncAsn           uint64  `json:"syncAsn"`
	RejoinStartOffset float64 `json:"rejoinStartOffsetSec"`
}

// ExperimentResult collects the per-trial results of one experiment in trial
// order.
type ExperimentResult struct {
	Name    string        `json:"name"`
	Seed    int64         `json:"seed"`
	Trials  []TrialResult `json:"trials"`
	Elapsed time.Duration `json:"-"`
}

// RunExperiment executes the configured number of independent trials over a
// worker pool. Each trial builds a fresh scenario, forms the network, then
// measures one rejoining attempt started at a random offset within a
// multi-slotframe. Results are deterministic in the experiment seed
// regardless of the worker count.
func RunExperiment(ctx context.Context, cfg *ExperimentConfig) (*ExperimentResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > cfg.Trials {
		workers = cfg.Trials
	}

	root := prng.NewStream(prng.RandomSeed(cfg.Seed))
	started := time.Now()
	logger.Infof("experiment %s: %d trials on %d workers, seed %d",
		cfg.Name, cfg.Trials, workers, root.Seed())

	results := make([]TrialResult, cfg.Trials)
	jobs := make(chan int)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for trial := range jobs {
				res, err := runTrial(cfg, root.Child(uint64(trial)))
				if err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = errors.Wrapf(err, "trial %d", trial)
					}
					mu.Unlock()
					continue
				}
				res.Trial = trial
				results[trial] = *res
			}
		}()
	}

feed:
	for trial := 0; trial < cfg.Trials; trial++ {
		select {
		case jobs <- trial:
		case <-ctx.Done():
			mu.Lock()
			if firstErr == nil {
				firstErr = ctx.Err()
			}
			mu.Unlock()
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	elapsed := time.Since(started)
	logger.Infof("experiment %s: done in %v", cfg.Name, elapsed.Round(time.Millisecond))
	return &ExperimentResult{
		Name:    cfg.Name,
		Seed:    int64(root.Seed()),
		Trials:  results,
		Elapsed: elapsed,
	}, nil
}

// runTrial runs one independent trial on its own random stream.
func runTrial(cfg *ExperimentConfig, rng *prng.Stream) (*TrialResult, error) {
	group, joiner, err := BuildScenario(cfg.Scenario, rng.Child(1))
	if err != nil {
		return nil, err
	}

	tpl, err := trialTemplate(cfg)
	if err != nil {
		return nil, err
	}

	method, err := tsch.ParseSchedulingMethod(cfg.Schedule.Method)
	if err != nil {
		return nil, err
	}
	sched, err := tsch.NewSchedule(group, tpl, tsch.ScheduleConfig{
		Method:          method,
		SlotframeLength: cfg.Schedule.SlotframeLength,
		EbLengthBytes:   cfg.Schedule.EbLengthBytes,
		NumChannels:     cfg.Schedule.NumChannels,
		Ebi:             cfg.Schedule.Ebi,
		AtpEnabled:      cfg.Schedule.AtpEnabled,
	})
	if err != nil {
		return nil, err
	}

	var model tsch.ReceptionModel
	switch cfg.Reception.Model {
	case "pathloss":
		model = tsch.NewPathLossModel(radiomodel.SiteGeneralIndoorParams(), sched,
			time.Duration(cfg.ScanDuration), cfg.Scenario.DataRateBps)
	case "fixed":
		m := tsch.NewFixedProbabilityModel(cfg.Reception.SuccessProbability, cfg.Scenario.CommRange)
		m.RefTxPowerDbm = DbValue(cfg.Scenario.TxPowerDbm)
		model = m
	default:
		return nil, errors.Errorf("unknown reception model %q", cfg.Reception.Model)
	}

	sim, err := tsch.NewSimulator(group, sched, tpl, model, tsch.SimulatorConfig{
		ScanDuration:  time.Duration(cfg.ScanDuration),
		MaxAsn:        cfg.MaxAsn,
		EnergyProfile: cfg.Energy,
	})
	if err != nil {
		return nil, err
	}

	simRng := rng.Child(2)
	formation, err := sim.Execute(simRng)
	if err != nil {
		return nil, err
	}
	if !formation.Completed {
		return nil, errors.New("network formation did not complete within the ASN bound")
	}

	// the rejoining attempt starts at a uniform offset within one
	// multi-slotframe, decorrelating it from the slot structure
	msLength := time.Duration(sched.NumSlotsInMultiSlotframe()) * tpl.TimeslotLength
	startOffset := time.Duration(simRng.UnitRandom() * float64(msLength))

	join, err := sim.RejoinAttempt(simRng, joiner, startOffset)
	if err != nil {
		return nil, err
	}

	return &TrialResult{
		FormationTimeSec:  formation.FormationTime.Seconds(),
		FormationAsn:      formation.FormationAsn,
		FormationEnergyJ:  formation.EnergyJoules,
		Outcome:           join.Outcome.String(),
		JoiningTimeSec:    join.JoiningTime.Seconds(),
		SyncAsn:           join.SyncAsn,
		RejoinStartOffset: startOffset.Seconds(),
	}, nil
}

func trialTemplate(cfg *ExperimentConfig) (*timeslot.Template, error) {
	if cfg.Timeslot == nil {
		return timeslot.Default2450MHz(), nil
	}
	return timeslot.New(*cfg.Timeslot)
}
