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

package tsch

import (
	"math"
	"sort"
	"time"

	"github.com/tschsim/joinsim/node"
	"github.com/tschsim/joinsim/prng"
	"github.com/tschsim/joinsim/radiomodel"
	. "github.com/tschsim/joinsim/types"
)

// CandidateEB is one EB transmission that reaches a scanning node during an
// advertisement subslot.
type CandidateEB struct {
	RxStartTime   time.Duration
	RxPowerDbm    DbValue
	ChannelOffset ChannelId
}

// ReceptionModel decides whether EB transmissions reach a scanning node and
// which one, if any, the node receives.
type ReceptionModel interface {
	// LinkBudget evaluates the link from an advertiser to a scanning node at
	// their current distance. It returns the received power and whether the
	// signal is perceivable at all.
	LinkBudget(rng *prng.Stream, tx, rx *node.Node) (DbValue, bool)

	// Capture decides which of the candidate EBs the scanning node receives
	// in an advertisement subslot, or nil. Candidates need not be sorted.
	// scanStart is the time the node started scanning; ssn is -1 when ATP is
	// disabled.
	Capture(rng *prng.Stream, rx *node.Node, cands []CandidateEB,
		scanStart time.Duration, asn uint64, ssn int) *CandidateEB
}

// FixedProbabilityModel abstracts the PHY away: every EB whose transmitter
// is within communication range reaches the scanning node independently with
// a fixed probability, regardless of channels. Transmitting below the
// reference power shrinks the effective range along the configured path loss
// exponent. Used for analytic validation of the slot loop.
type FixedProbabilityModel struct {
	SuccessProbability float64 // per reception opportunity, in (0, 1]
	CommRange          float64 // meters, at the reference tx power
	RefTxPowerDbm      DbValue
	RangeExponentDb    DbValue
}

// NewFixedProbabilityModel returns the model with the usual indoor range
// exponent of 40 dB/decade and a 0 dBm reference.
func NewFixedProbabilityModel(p, commRange float64) *FixedProbabilityModel {
	return &FixedProbabilityModel{
		SuccessProbability: p,
		CommRange:          commRange,
		RefTxPowerDbm:      0,
		RangeExponentDb:    40,
	}
}

func (m *FixedProbabilityModel) LinkBudget(rng *prng.Stream, tx, rx *node.Node) (DbValue, bool) {
	effRange := m.CommRange * math.Pow(10, (tx.TxPowerDbm-m.RefTxPowerDbm)/m.RangeExponentDb)
	if tx.Distance(rx) > effRange {
		return RssiMinusInfinity, false
	}
	return tx.TxPowerDbm, true
}

func (m *FixedProbabilityModel) Capture(rng *prng.Stream, rx *node.Node, cands []CandidateEB,
	scanStart time.Duration, asn uint64, ssn int) *CandidateEB {
	sort.Slice(cands, func(i, j int) bool { return cands[i].RxStartTime < cands[j].RxStartTime })
	for i := range cands {
		if rx.BootTime > cands[i].RxStartTime {
			continue
		}
		if rng.UnitRandom() < m.SuccessProbability {
			return &cands[i]
		}
	}
	return nil
}

// maximum clock deviation of a scanning (unsynchronized) node, caused by
// initial accuracy, temperature stability and aging
const maxClockDriftPpm = 30.0

// PathLossModel is the physical reception model: ITU-R P.1238 path loss with
// shadow fading, a serial channel scan, and the capture effect with a 3 dB
// co-channel threshold inside the SHR frame-sync window.
type PathLossModel struct {
	Params         *radiomodel.ModelParams
	NumChannels    int
	ScanDuration   time.Duration // time a scanning node stays on one channel
	EbAirtime      time.Duration
	ShrDuration    time.Duration
	ChannelHopping func(chOffset ChannelId, asn uint64, ssn int) ChannelId
}

// NewPathLossModel builds the physical model against a schedule, which
// supplies the EB airtime and the channel hopping function.
func NewPathLossModel(params *radiomodel.ModelParams, sched *Schedule,
	scanDuration time.Duration, dataRateBps int) *PathLossModel {
	return &PathLossModel{
		Params:         params,
		NumChannels:    sched.NumChannels(),
		ScanDuration:   scanDuration,
		EbAirtime:      sched.EbAirtime(),
		ShrDuration:    time.Duration(float64(ShrLenBytes*8) / float64(dataRateBps) * float64(time.Second)),
		ChannelHopping: sched.ChannelAt,
	}
}

func (m *PathLossModel) LinkBudget(rng *prng.Stream, tx, rx *node.Node) (DbValue, bool) {
	rxPower := radiomodel.RxPowerDbm(rng, tx.TxPowerDbm, tx.Distance(rx), m.Params)
	return rxPower, rxPower >= rx.RxSensitivityDbm
}

// Capture follows the physical reception of EBs during one advertisement
// subslot. The scanning node hops channels serially every
// ScanDuration + ChannelSwitchTime; an EB on the listening channel starts a
// frame synchronization attempt, and a later, stronger EB can still capture
// the receiver while the SHR is being synchronized.
func (m *PathLossModel) Capture(rng *prng.Stream, rx *node.Node, cands []CandidateEB,
	scanStart time.Duration, asn uint64, ssn int) *CandidateEB {
	sort.Slice(cands, func(i, j int) bool { return cands[i].RxStartTime < cands[j].RxStartTime })

	var captured *CandidateEB
	var frameSyncEnd time.Duration
	frameSyncValid := false

	interferingEbs := make([][]CandidateEB, m.NumChannels)
	interferenceMw := make([]float64, m.NumChannels)

	addInterferer := func(eb CandidateEB) {
		c := int(eb.ChannelOffset)
		interferingEbs[c] = append(interferingEbs[c], eb)
		interferenceMw[c] += radiomodel.MilliwattFromDbm(eb.RxPowerDbm)
	}
	// drop interferers whose transmission has ended by t
	updateInterferers := func(chOffset ChannelId, t time.Duration) {
		c := int(chOffset)
		kept := interferingEbs[c][:0]
		for _, eb := range interferingEbs[c] {
			if eb.RxStartTime+m.EbAirtime >= t {
				kept = append(kept, eb)
			} else {
				interferenceMw[c] -= radiomodel.MilliwattFromDbm(eb.RxPowerDbm)
			}
		}
		interferingEbs[c] = kept
		if len(kept) == 0 { // fix floating point errors
			interferenceMw[c] = 0
		}
	}

	clockDrift := rng.UnitRandom() * rng.Sign() * maxClockDriftPpm / 1e6

	for i := range cands {
		cand := cands[i]

		if captured != nil && captured.RxStartTime+m.EbAirtime < cand.RxStartTime {
			return captured // an EB has already been successfully received
		}

		// the node may not be active yet when the EB arrives
		if rx.BootTime > cand.RxStartTime {
			addInterferer(cand)
			continue
		}

		// the arrival time as seen by the drifting local clock
		localArrival := cand.RxStartTime + time.Duration(float64(cand.RxStartTime)*clockDrift)
		if localArrival < scanStart {
			addInterferer(cand)
			continue
		}

		// Check that the remaining time on the current channel suffices to
		// receive the whole EB; if so, the absolute channel number counts
		// how many channels the node has visited since the scan started.
		hopPeriod := m.ScanDuration + rx.ChannelSwitchTime
		if m.ScanDuration <= (localArrival-scanStart)%hopPeriod+m.EbAirtime {
			addInterferer(cand)
			continue
		}
		acn := uint64((localArrival - scanStart) / hopPeriod)
		listening := ChannelId(acn % uint64(m.NumChannels))

		if listening != m.ChannelHopping(cand.ChannelOffset, asn, ssn) {
			addInterferer(cand)
			continue
		}

		updateInterferers(cand.ChannelOffset, cand.RxStartTime)

		if captured == nil {
			if interferenceMw[cand.ChannelOffset] == 0 { // new frame synchronization attempt
				captured = &cands[i]
				frameSyncEnd = cand.RxStartTime + m.ShrDuration
				frameSyncValid = true
				continue
			}
			// frameSyncValid is false when the interfering transmissions
			// started before the node began listening on their channel
			if (frameSyncValid && frameSyncEnd < cand.RxStartTime) ||
				cand.RxPowerDbm-radiomodel.DbmFromMilliwatt(interferenceMw[cand.ChannelOffset]) <
					radiomodel.CaptureThresholdDb {
				addInterferer(cand)
			} else {
				captured = &cands[i]
				if !frameSyncValid {
					frameSyncEnd = cand.RxStartTime + m.ShrDuration
					frameSyncValid = true
				}
			}
			continue
		}

		// A frame is being captured on this same channel; the newcomer may
		// destroy the capture and possibly take its place.
		if captured.RxPowerDbm-radiomodel.DbmFromMilliwatt(
			interferenceMw[captured.ChannelOffset]+radiomodel.MilliwattFromDbm(cand.RxPowerDbm)) <
			radiomodel.CaptureThresholdDb {

			addInterferer(*captured)
			captured = nil

			if frameSyncEnd < cand.RxStartTime ||
				cand.RxPowerDbm-radiomodel.DbmFromMilliwatt(interferenceMw[cand.ChannelOffset]) <
					radiomodel.CaptureThresholdDb {
				addInterferer(cand)
			} else {
				captured = &cands[i]
			}
		}
	}
	return captured
}
