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
	"encoding/csv"
	"encoding/json"
	"os"
	"sort"
	"strconv"

	"github.com/pkg/errors"

	"github.com/tschsim/joinsim/prng"
	. "github.com/tschsim/joinsim/types"
)

const bootstrapResamples = 1000

// bootstrapSeed keeps the confidence intervals of a given sample set
// reproducible across runs.
const bootstrapSeed prng.RandomSeed = 0x626f6f74

// MeanCI is a sample mean with its bootstrap 95% confidence interval.
type MeanCI struct {
	Mean   float64 `json:"mean"`
	CiLow  float64 `json:"ciLow"`
	CiHigh float64 `json:"ciHigh"`
}

// Summary aggregates an experiment into the headline statistics.
type Summary struct {
	Name          string  `json:"name"`
	Seed          int64   `json:"seed"`
	Trials        int     `json:"trials"`
	Received      int     `json:"received"`
	SuccessRatio  float64 `json:"successRatio"`
	JoiningTime   MeanCI  `json:"joiningTimeSec"`   // over received trials only
	FormationTime MeanCI  `json:"formationTimeSec"` // over all trials
	Energy        MeanCI  `json:"formationEnergyJ"` // over all trials
}

// BootstrapMeanCI estimates the mean of the samples with a percentile
// bootstrap 95% confidence interval over 1000 resamples.
func BootstrapMeanCI(samples []float64, rng *prng.Stream) MeanCI {
	if len(samples) == 0 {
		return MeanCI{}
	}
	means := make([]float64, bootstrapResamples)
	for r := 0; r < bootstrapResamples; r++ {
		sum := 0.0
		for i := 0; i < len(samples); i++ {
			sum += samples[rng.Intn(len(samples))]
		}
		means[r] = sum / float64(len(samples))
	}
	sort.Float64s(means)

	sum := 0.0
	for _, v := range samples {
		sum += v
	}
	return MeanCI{
		Mean:   sum / float64(len(samples)),
		CiLow:  means[int(0.025*bootstrapResamples)],
		CiHigh: means[int(0.975*bootstrapResamples)-1],
	}
}

// Summarize reduces an experiment result to its summary statistics.
func Summarize(res *ExperimentResult) *Summary {
	rng := prng.NewStream(bootstrapSeed)

	var joining, formation, energyJ []float64
	received := 0
	for _, t := range res.Trials {
		formation = append(formation, t.FormationTimeSec)
		energyJ = append(energyJ, t.FormationEnergyJ)
		if t.Outcome == OutcomeReceived.String() {
			received++
			joining = append(joining, t.JoiningTimeSec)
		}
	}

	s := &Summary{
		Name:          res.Name,
		Seed:          res.Seed,
		Trials:        len(res.Trials),
		Received:      received,
		JoiningTime:   BootstrapMeanCI(joining, rng),
		FormationTime: BootstrapMeanCI(formation, rng),
		Energy:        BootstrapMeanCI(energyJ, rng),
	}
	if len(res.Trials) > 0 {
		s.SuccessRatio = float64(received) / float64(len(res.Trials))
	}
	return s
}

// SaveCsv writes the per-trial samples as a semicolon-delimited CSV file.
func SaveCsv(fn string, res *ExperimentResult) error {
	f, err := os.Create(fn)
	if err != nil {
		return errors.Wrapf(err, "cannot create CSV file %s", fn)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = ';'
	header := []string{"trial", "outcome", "joiningTimeSec", "syncAsn",
		"formationTimeSec", "formationAsn", "formationEnergyJ", "rejoinStartOffsetSec"}
	if err := w.Write(header); err != nil {
		return errors.Wrap(err, "cannot write CSV header")
	}
	for _, t := range res.Trials {
		rec := []string{
			strconv.Itoa(t.Trial),
			t.Outcome,
			strconv.FormatFloat(t.JoiningTimeSec, 'g', -1, 64),
			strconv.FormatUint(t.SyncAsn, 10),
			strconv.FormatFloat(t.FormationTimeSec, 'g', -1, 64),
			strconv.FormatUint(t.FormationAsn, 10),
			strconv.FormatFloat(t.FormationEnergyJ, 'g', -1, 64),
			strconv.FormatFloat(t.RejoinStartOffset, 'g', -1, 64),
		}
		if err := w.Write(rec); err != nil {
			return errors.Wrap(err, "cannot write CSV record")
		}
	}
	w.Flush()
	return errors.Wrap(w.Error(), "cannot flush CSV file")
}

// SaveSummary writes the summary statistics as an indented JSON file.
func SaveSummary(fn string, s *Summary) error {
	data, err := json.MarshalIndent(s, "", "    ")
	if err != nil {
		return errors.Wrap(err, "cannot marshal summary")
	}
	if err := os.WriteFile(fn, data, 0644); err != nil {
		return errors.Wrapf(err, "cannot write summary file %s", fn)
	}
	return nil
}
