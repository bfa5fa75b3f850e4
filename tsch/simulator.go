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
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/tschsim/joinsim/energy"
	"github.com/tschsim/joinsim/node"
	"github.com/tschsim/joinsim/prng"
	"github.com/tschsim/joinsim/radiomodel"
	"github.com/tschsim/joinsim/timeslot"
	. "github.com/tschsim/joinsim/types"
)

// DefaultMaxAsn bounds a trial to about 2.8 hours of network time with the
// default 10 ms timeslot, far beyond any realistic joining time.
const DefaultMaxAsn uint64 = 1000000

// SimulatorConfig holds the per-simulation parameters beyond the schedule.
type SimulatorConfig struct {
	ScanDuration  time.Duration // time a scanning node stays on one channel
	MaxAsn        uint64        // per-run ASN bound; 0 selects DefaultMaxAsn
	EnergyProfile energy.Profile
}

// FormationResult is the outcome of one network formation run.
type FormationResult struct {
	Completed     bool          // false when the ASN bound was hit first
	FormationTime time.Duration // when the last node joined the network
	FormationAsn  uint64
	EnergyJoules  float64 // summed consumption of all accounted nodes
}

// JoinResult is the outcome of one (re)joining attempt.
type JoinResult struct {
	Outcome     JoinOutcome
	JoiningTime time.Duration // from scan start to EB reception
	SyncAsn     uint64        // the ASN of the received EB
}

// Simulator runs the TSCH joining phase on a node group: the network
// formation process, and rejoining attempts of individual nodes on the
// formed network.
type Simulator struct {
	group *node.Group
	sched *Schedule
	tpl   *timeslot.Template
	model ReceptionModel
	cfg   SimulatorConfig

	slot0    time.Duration // start time of the slot with ASN 0
	executed bool

	joined      map[NodeId]bool
	advertisers map[NodeId]bool
	unjoined    map[NodeId]bool
	syncAsn     map[NodeId]uint64
	ebTx        map[NodeId]int
	scanStart   map[NodeId]time.Duration

	formationAsn uint64
	msfIdx       uint64 // multi-slotframe index of the slot loop
}

// NewSimulator wires a simulator from a validated schedule and a reception
// model. The node group configuration must not change while the simulator is
// in use.
func NewSimulator(group *node.Group, sched *Schedule, tpl *timeslot.Template,
	model ReceptionModel, cfg SimulatorConfig) (*Simulator, error) {
	if cfg.ScanDuration <= 0 {
		return nil, errors.New("scan duration must be positive")
	}
	if cfg.MaxAsn == 0 {
		cfg.MaxAsn = DefaultMaxAsn
	}
	return &Simulator{
		group: group,
		sched: sched,
		tpl:   tpl,
		model: model,
		cfg:   cfg,
	}, nil
}

// Execute simulates the network formation process. The simulation restarts
// from scratch at each call.
func (s *Simulator) Execute(rng *prng.Stream) (*FormationResult, error) {
	coord := s.group.Coordinator()

	s.sched.Reset()
	s.sched.AllocateCoordinator()

	s.joined = map[NodeId]bool{coord.Id: true}
	s.advertisers = map[NodeId]bool{coord.Id: true}
	s.unjoined = map[NodeId]bool{}
	s.syncAsn = map[NodeId]uint64{coord.Id: 0}
	s.ebTx = map[NodeId]int{coord.Id: 0}
	s.scanStart = map[NodeId]time.Duration{}
	for _, n := range s.group.Nodes() {
		if n.Id != coord.Id {
			s.unjoined[n.Id] = true
			s.scanStart[n.Id] = n.BootTime
		}
	}

	// slot 0 starts when the coordinator boots
	s.slot0 = coord.BootTime
	s.advanceTime(s.slot0)
	s.msfIdx = 0
	s.executed = true

	formationTime, formationAsn, ok := s.runLoop(rng, 0, s.cfg.MaxAsn)
	if !ok {
		return &FormationResult{Completed: false}, nil
	}
	s.formationAsn = formationAsn
	return &FormationResult{
		Completed:     true,
		FormationTime: formationTime,
		FormationAsn:  formationAsn,
		EnergyJoules:  s.totalEnergy(),
	}, nil
}

// RejoinAttempt simulates the rejoining attempt of a node on the network
// formed by the last Execute call (which is run first if needed). The node
// detaches, loses its advertisement cells, and scans again starting
// startOffset after the current network time.
func (s *Simulator) RejoinAttempt(rng *prng.Stream, n *node.Node, startOffset time.Duration) (*JoinResult, error) {
	if !s.executed {
		if res, err := s.Execute(rng); err != nil {
			return nil, err
		} else if !res.Completed {
			return nil, errors.New("network formation did not complete within the ASN bound")
		}
	}
	if s.group.Node(n.Id) != n {
		return nil, errors.New("the node does not belong to the simulated group")
	}
	if !s.joined[n.Id] {
		return nil, errors.Errorf("node %d is not joined", n.Id)
	}

	delete(s.joined, n.Id)
	delete(s.advertisers, n.Id)
	s.sched.Deallocate(n)
	s.unjoined[n.Id] = true

	slotLen := s.tpl.TimeslotLength
	subslotLen := s.sched.SubslotLength()
	spa := s.sched.SubslotsPerAdvSlot()
	advPos := s.sched.AdvSlotsPosInMultiSlotframe()
	msLength := time.Duration(s.sched.NumSlotsInMultiSlotframe()) * slotLen

	startTime := s.group.Now() + startOffset
	s.msfIdx = uint64(startTime / msLength)
	offsetInMs := startTime % msLength

	// the position in the multi-slotframe of the slot holding the start time
	rsn := int(offsetInMs / slotLen)

	// first advertisement slot the node meets while listening for EBs
	advSlotIdx := sort.SearchInts(advPos, rsn)
	if advSlotIdx == len(advPos) {
		advSlotIdx = 0
	}

	var advSubslotIdx int
	if advPos[advSlotIdx] == rsn { // the start time falls inside an advertisement slot
		offsetInSlot := offsetInMs % slotLen
		subslotPos := int(offsetInSlot / subslotLen)
		elapsedInSubslot := offsetInSlot % subslotLen

		switch {
		case elapsedInSubslot <= s.tpl.TxOffset+s.tpl.RxWait/2:
			advSubslotIdx = advSlotIdx*spa + subslotPos
		case subslotPos < spa-1: // go to the next subslot
			advSubslotIdx = advSlotIdx*spa + subslotPos + 1
		default: // go to the first subslot of the next advertisement slot
			advSlotIdx = (advSlotIdx + 1) % len(advPos)
			advSubslotIdx = advSlotIdx * spa
			if advSlotIdx == 0 { // which is in the next multi-slotframe
				s.msfIdx++
			}
		}
	} else {
		if advSlotIdx == 0 { // the next advertisement slot is in the next multi-slotframe
			s.msfIdx++
		}
		advSubslotIdx = advSlotIdx * spa
	}

	s.scanStart[n.Id] = startTime

	startAsn := s.msfIdx*uint64(s.sched.NumSlotsInMultiSlotframe()) + uint64(advPos[advSlotIdx])
	finishTime, finishAsn, ok := s.runLoop(rng, advSubslotIdx, startAsn+s.cfg.MaxAsn)
	if !ok {
		return &JoinResult{Outcome: OutcomeUnresolved}, nil
	}
	return &JoinResult{
		Outcome:     OutcomeReceived,
		JoiningTime: finishTime - startTime,
		SyncAsn:     finishAsn,
	}, nil
}

// runLoop walks the advertisement subslots of successive multi-slotframes
// until every node has joined, starting at the given advertisement subslot
// of the current multi-slotframe. It returns the time just after the subslot
// in which the last node joined. Exceeding limitAsn aborts with ok = false.
func (s *Simulator) runLoop(rng *prng.Stream, startingAdvSubslot int, limitAsn uint64) (time.Duration, uint64, bool) {
	advPos := s.sched.AdvSlotsPosInMultiSlotframe()
	spa := s.sched.SubslotsPerAdvSlot()
	subslotLen := s.sched.SubslotLength()
	macd := s.tpl.MaxAllowedClockDrift()

	startI := startingAdvSubslot / spa
	startJ := startingAdvSubslot % spa

	for {
		for i := startI; i < len(advPos); i++ {
			// The ASN of a subslot is the ASN of its advertisement slot.
			asn := s.msfIdx*uint64(s.sched.NumSlotsInMultiSlotframe()) + uint64(advPos[i])
			if asn > limitAsn {
				return 0, 0, false
			}

			for j := startJ; j < spa; j++ {
				advSubslotIdx := i*spa + j
				ssn := s.sched.Ssn(advSubslotIdx)

				for _, adv := range s.group.Nodes() {
					if !s.advertisers[adv.Id] {
						continue
					}
					if _, ok := s.sched.ChannelOffsetAt(adv.Id, advSubslotIdx); ok {
						s.ebTx[adv.Id]++
					}
				}

				// Nominal EB transmission start in this subslot. The node
				// movement within a subslot is negligible, so the group time
				// is advanced once per subslot.
				subslotStart := s.tpl.SlotStart(s.slot0, asn) + time.Duration(j)*subslotLen
				s.advanceTime(subslotStart + s.tpl.TxOffset)

				var newJoined []*node.Node
				txStart := map[NodeId]time.Duration{}

				for _, n := range s.group.Nodes() {
					if !s.unjoined[n.Id] {
						continue
					}

					var cands []CandidateEB
					for _, adv := range s.group.Nodes() {
						if !s.advertisers[adv.Id] {
							continue
						}
						chOff, transmits := s.sched.ChannelOffsetAt(adv.Id, advSubslotIdx)
						if !transmits {
							continue
						}
						rxPower, perceivable := s.model.LinkBudget(rng, adv, n)
						if !perceivable {
							continue
						}
						ts, computed := txStart[adv.Id]
						if !computed {
							// a synchronized transmitter deviates from the
							// nominal start by at most the allowed drift
							ts = s.group.Now() + time.Duration(rng.UnitRandom()*rng.Sign()*float64(macd))
							txStart[adv.Id] = ts
						}
						rxStart := ts + radiomodel.PropagationDelay(adv.Distance(n))
						cands = append(cands, CandidateEB{
							RxStartTime:   rxStart,
							RxPowerDbm:    rxPower,
							ChannelOffset: chOff,
						})
					}

					if len(cands) == 0 {
						continue
					}
					if s.model.Capture(rng, n, cands, s.scanStart[n.Id], asn, ssn) == nil {
						continue
					}
					newJoined = append(newJoined, n)
				}

				for _, n := range newJoined {
					delete(s.unjoined, n.Id)
					s.joined[n.Id] = true
					if _, ok := s.syncAsn[n.Id]; !ok {
						s.syncAsn[n.Id] = asn
					}
					if n.Class == FFD {
						s.advertisers[n.Id] = true
						s.ebTx[n.Id] = 0
						s.sched.Allocate(n, rng)
					}
				}

				if len(s.unjoined) == 0 {
					finishTime := subslotStart + subslotLen
					s.advanceTime(finishTime)
					return finishTime, asn, true
				}
			}
			startJ = 0
		}
		startI = 0
		s.msfIdx++
	}
}

// totalEnergy sums the consumption of all nodes until network formation.
// With an enhanced method the coordinator is assumed mains-powered and is
// not accounted.
func (s *Simulator) totalEnergy() float64 {
	total := 0.0
	coord := s.group.Coordinator()
	for _, n := range s.group.Nodes() {
		if s.sched.Method().Enhanced() && n.Id == coord.Id {
			continue
		}
		total += energy.NodeConsumption(s.cfg.EnergyProfile, s.tpl.TimeslotLength,
			s.sched.EbAirtime(), s.syncAsn[n.Id], s.formationAsn, s.ebTx[n.Id])
	}
	return total
}

// advanceTime moves the group time forward; backward moves are ignored so
// repeated runs on the same group keep time monotonic.
func (s *Simulator) advanceTime(t time.Duration) {
	if t > s.group.Now() {
		_ = s.group.SetTime(t)
	}
}
