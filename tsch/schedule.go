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
	"time"

	"github.com/pkg/errors"

	"github.com/tschsim/joinsim/logger"
	"github.com/tschsim/joinsim/node"
	"github.com/tschsim/joinsim/prng"
	"github.com/tschsim/joinsim/timeslot"
	. "github.com/tschsim/joinsim/types"
)

// ScheduleConfig configures the EB advertisement schedule of a network.
type ScheduleConfig struct {
	Method          SchedulingMethod
	SlotframeLength int  // slots per slotframe
	EbLengthBytes   int  // EB frame length without the PHY overhead
	NumChannels     int  // channels used for network advertisement
	Ebi             int  // Enhanced Beacon Interval, in slotframes; also the multi-slotframe length
	AtpEnabled      bool // Advertisement Slot Partitioning: several EB subslots per advertisement slot
}

// Schedule maps advertisers to the advertisement cells (subslot, channel
// offset) in which they transmit EBs, over a multi-slotframe of
// SlotframeLength x Ebi slots.
type Schedule struct {
	cfg   ScheduleConfig
	group *node.Group

	ebAirtime          time.Duration
	subslotLength      time.Duration
	subslotsPerAdvSlot int
	numSlotsInMs       int   // slots in the multi-slotframe
	advSlotsPosInMs    []int // positions of the advertisement slots in the multi-slotframe
	ssn                []int // serial subslot number within the slotframe, per adv subslot; ATP only
	totalAdvSubslots   int

	// channel offset allocated to an advertiser per advertisement subslot
	allocations map[NodeId]map[int]ChannelId
}

// NewSchedule validates the configuration against the node group and the
// timeslot template and builds the schedule structure. No advertisement
// cells are allocated yet; see Reset and AllocateCoordinator.
func NewSchedule(group *node.Group, tpl *timeslot.Template, cfg ScheduleConfig) (*Schedule, error) {
	if group.Coordinator() == nil {
		return nil, errors.New("the node group does not have a PAN coordinator")
	}
	if cfg.SlotframeLength <= 0 {
		return nil, errors.New("slotframe length must be a positive integer")
	}
	if cfg.EbLengthBytes <= 0 || cfg.EbLengthBytes > MacFrameLenBytes {
		return nil, errors.Errorf("EB length must be in 1..%d bytes", MacFrameLenBytes)
	}
	if cfg.NumChannels <= 0 {
		return nil, errors.New("number of channels must be a positive integer")
	}
	if cfg.Ebi <= 0 {
		return nil, errors.New("EBI must be a positive integer")
	}
	if cfg.Method == Minimal6TiSCH && cfg.AtpEnabled {
		return nil, errors.New("ATP is not supported by the Minimal 6TiSCH configuration")
	}
	if cfg.Method.Enhanced() && cfg.NumChannels == 1 && countFfds(group) > 1 {
		return nil, errors.Errorf("%v requires more than one channel", cfg.Method)
	}

	s := &Schedule{
		cfg:         cfg,
		group:       group,
		allocations: make(map[NodeId]map[int]ChannelId),
	}

	// EB airtime including the six bytes of PHY overhead
	s.ebAirtime = time.Duration(
		float64(cfg.EbLengthBytes*8+PhyHeaderLenBytes*8) / float64(group.Props.DataRateBps) * float64(time.Second))

	// When ATP is disabled each advertisement slot counts as one subslot.
	s.subslotLength = tpl.TxOffset + s.ebAirtime
	s.subslotsPerAdvSlot = 1
	if cfg.AtpEnabled {
		s.subslotsPerAdvSlot = int(tpl.TimeslotLength / s.subslotLength)
		if s.subslotsPerAdvSlot < 1 {
			return nil, errors.New("the timeslot is too short for even one EB subslot")
		}
	}

	s.numSlotsInMs = cfg.SlotframeLength * cfg.Ebi

	if cfg.Method == Minimal6TiSCH {
		// one advertisement slot at the start of each slotframe
		for i := 0; i < s.numSlotsInMs; i += cfg.SlotframeLength {
			s.advSlotsPosInMs = append(s.advSlotsPosInMs, i)
		}
	} else {
		numRequired, err := s.requiredAdvSlots()
		if err != nil {
			return nil, err
		}
		for i := 0; i < s.numSlotsInMs; i += cfg.SlotframeLength {
			for j := i; j < i+numRequired; j++ {
				s.advSlotsPosInMs = append(s.advSlotsPosInMs, j)
			}
		}
	}
	s.totalAdvSubslots = len(s.advSlotsPosInMs) * s.subslotsPerAdvSlot

	if err := s.checkCollisionFree(); err != nil {
		return nil, err
	}

	s.precomputeSsn()

	if gcd(s.numSlotsInMs, cfg.NumChannels) != 1 {
		logger.Warnf("multi-slotframe length %d and channel count %d are not relatively prime; "+
			"advertisement cells will not rotate through all channels", s.numSlotsInMs, cfg.NumChannels)
	}
	return s, nil
}

// requiredAdvSlots derives the number of advertisement slots per slotframe
// needed for a collision-free EB schedule.
func (s *Schedule) requiredAdvSlots() (int, error) {
	numFfds := countFfds(s.group)
	cellsPerSlot := s.cfg.NumChannels * s.cfg.Ebi * s.subslotsPerAdvSlot
	var numRequired int
	if s.cfg.Method.Enhanced() {
		// channel offset 0 is reserved for the coordinator
		cellsPerSlot = (s.cfg.NumChannels - 1) * s.cfg.Ebi * s.subslotsPerAdvSlot
		numRequired = ceilDiv(numFfds-1, cellsPerSlot)
	} else {
		numRequired = ceilDiv(numFfds, cellsPerSlot)
	}
	if numRequired > s.cfg.SlotframeLength {
		return 0, errors.New("the slotframe has fewer slots than required for collision-free EB transmissions")
	}
	if numRequired < 1 {
		numRequired = 1
	}
	return numRequired, nil
}

// checkCollisionFree verifies that node IDs map one-to-one onto the
// available advertisement cells for the deterministic CFAS variants.
func (s *Schedule) checkCollisionFree() error {
	switch s.cfg.Method {
	case CFASV, CFASH:
		totalCells := s.totalAdvSubslots * s.cfg.NumChannels
		seen := map[int]bool{}
		for _, n := range s.group.Nodes() {
			if n.Class != FFD {
				continue
			}
			idx := n.Id % totalCells
			if seen[idx] {
				return errors.New("the node IDs do not map one-to-one onto the advertisement cells; " +
					"the EB schedule cannot be collision-free")
			}
			seen[idx] = true
		}
	case ECFASV, ECFASH:
		cellsNotForCoord := s.totalAdvSubslots * (s.cfg.NumChannels - 1)
		coord := s.group.Coordinator()
		seen := map[int]bool{}
		for _, n := range s.group.Nodes() {
			if n.Class != FFD || n.Id == coord.Id {
				continue
			}
			idx := n.Id % cellsNotForCoord
			if seen[idx] {
				return errors.New("the node IDs do not map one-to-one onto the advertisement cells; " +
					"the EB schedule cannot be collision-free")
			}
			seen[idx] = true
		}
	}
	return nil
}

// precomputeSsn fills the serial subslot number table. The ssn of a subslot
// is its serial number within the slotframe containing it; it is defined
// only when ATP yields more than one subslot per advertisement slot.
func (s *Schedule) precomputeSsn() {
	if s.subslotsPerAdvSlot <= 1 {
		return
	}
	for i := 0; i < s.subslotsPerAdvSlot; i++ {
		s.ssn = append(s.ssn, i)
	}
	for i := 1; i < len(s.advSlotsPosInMs); i++ {
		next := 0
		if s.advSlotsPosInMs[i-1]/s.cfg.SlotframeLength == s.advSlotsPosInMs[i]/s.cfg.SlotframeLength {
			next = s.ssn[len(s.ssn)-1] + 1
		}
		for j := 0; j < s.subslotsPerAdvSlot; j++ {
			s.ssn = append(s.ssn, next)
			next++
		}
	}
}

// Ssn returns the serial subslot number of the given advertisement subslot,
// or -1 when ATP is practically disabled.
func (s *Schedule) Ssn(advSubslotIdx int) int {
	if s.subslotsPerAdvSlot <= 1 {
		return -1
	}
	return s.ssn[advSubslotIdx]
}

// ChannelAt computes the physical channel of an advertisement cell at the
// given ASN. The ssn term participates only when ATP is active (ssn >= 0).
func (s *Schedule) ChannelAt(chOffset ChannelId, asn uint64, ssn int) ChannelId {
	if ssn >= 0 {
		return ChannelId((asn + uint64(ssn) + uint64(chOffset)) % uint64(s.cfg.NumChannels))
	}
	return ChannelId((asn + uint64(chOffset)) % uint64(s.cfg.NumChannels))
}

// Reset removes all allocations, keeping the schedule structure.
func (s *Schedule) Reset() {
	s.allocations = make(map[NodeId]map[int]ChannelId)
	for _, n := range s.group.Nodes() {
		if n.Class == FFD {
			s.allocations[n.Id] = make(map[int]ChannelId)
		}
	}
}

// AllocateCoordinator allocates the coordinator's advertisement cells. For
// the enhanced methods the coordinator is assumed to have no energy
// limitations and transmits in every advertisement subslot at channel
// offset 0.
func (s *Schedule) AllocateCoordinator() {
	coord := s.group.Coordinator()
	switch s.cfg.Method {
	case Minimal6TiSCH:
		s.allocations[coord.Id][0] = 0
	case CFASV:
		s.allocateCfasv(coord, false)
	case CFASH:
		s.allocateCfash(coord, false)
	case MacBasedAS:
		s.allocateMbas(coord, false)
	default:
		for idx := 0; idx < s.totalAdvSubslots; idx++ {
			s.allocations[coord.Id][idx] = 0
		}
	}
}

// Allocate assigns advertisement cells to a newly synchronized FFD.
func (s *Schedule) Allocate(n *node.Node, rng *prng.Stream) {
	switch s.cfg.Method {
	case CFASV:
		s.allocateCfasv(n, false)
	case CFASH:
		s.allocateCfash(n, false)
	case ECFASV:
		s.allocateCfasv(n, true)
	case ECFASH:
		s.allocateCfash(n, true)
	case MacBasedAS:
		s.allocateMbas(n, false)
	case EMacBasedAS:
		s.allocateMbas(n, true)
	case Minimal6TiSCH:
		// An advertiser starts transmitting EBs after completing the
		// association process, which can finish in any later slotframe, so
		// the starting slotframe is drawn at random.
		s.allocations[n.Id][rng.Intn(len(s.advSlotsPosInMs))] = 0
	}
}

// Deallocate removes all advertisement cells of a node, used when the node
// detaches before a rejoining attempt.
func (s *Schedule) Deallocate(n *node.Node) {
	if n.Class == FFD {
		s.allocations[n.Id] = make(map[int]ChannelId)
	}
}

// ChannelOffsetAt returns the channel offset the node uses in the given
// advertisement subslot, if any.
func (s *Schedule) ChannelOffsetAt(id NodeId, advSubslotIdx int) (ChannelId, bool) {
	cells, ok := s.allocations[id]
	if !ok {
		return 0, false
	}
	off, ok := cells[advSubslotIdx]
	return off, ok
}

func (s *Schedule) allocateCfasv(n *node.Node, enhanced bool) {
	numOffsets := s.cfg.NumChannels
	if enhanced {
		numOffsets--
	}
	cellIdx := n.Id % (s.totalAdvSubslots * numOffsets)
	advSubslotIdx := cellIdx / numOffsets
	chOffset := ChannelId(cellIdx % numOffsets)
	if enhanced {
		chOffset++
	}
	s.allocations[n.Id][advSubslotIdx] = chOffset
}

func (s *Schedule) allocateCfash(n *node.Node, enhanced bool) {
	numOffsets := s.cfg.NumChannels
	if enhanced {
		numOffsets--
	}
	cellIdx := n.Id % (s.totalAdvSubslots * numOffsets)
	advSubslotIdx := cellIdx % s.totalAdvSubslots
	chOffset := ChannelId(cellIdx / s.totalAdvSubslots)
	if enhanced {
		chOffset++
	}
	s.allocations[n.Id][advSubslotIdx] = chOffset
}

func (s *Schedule) allocateMbas(n *node.Node, enhanced bool) {
	numOffsets := s.cfg.NumChannels
	if enhanced {
		numOffsets--
	}
	cellIdx := int(saxHash(n.Eui)) % (s.totalAdvSubslots * numOffsets)
	advSubslotIdx := cellIdx / numOffsets
	chOffset := ChannelId(cellIdx % numOffsets)
	if enhanced {
		chOffset++
	}
	s.allocations[n.Id][advSubslotIdx] = chOffset
}

// saxHash is the SAX hash of the 6TiSCH scheduling function literature,
// applied to an EUI-48 and truncated to a 16-bit table size.
func saxHash(eui node.Eui48) uint16 {
	const leftShift = 5
	const rightShift = 2
	var h uint64
	for _, b := range eui {
		for _, v := range [2]uint64{0, uint64(b)} {
			h ^= (h << leftShift) + (h >> rightShift) + v
		}
	}
	return uint16(h & 0xffff)
}

// EbAirtime returns the on-air duration of one EB, PHY overhead included.
func (s *Schedule) EbAirtime() time.Duration {
	return s.ebAirtime
}

// SubslotLength returns the duration of one advertisement subslot.
func (s *Schedule) SubslotLength() time.Duration {
	return s.subslotLength
}

// SubslotsPerAdvSlot returns the number of EB subslots per advertisement
// slot (1 unless ATP is enabled).
func (s *Schedule) SubslotsPerAdvSlot() int {
	return s.subslotsPerAdvSlot
}

// NumSlotsInMultiSlotframe returns the number of slots in the
// multi-slotframe structure.
func (s *Schedule) NumSlotsInMultiSlotframe() int {
	return s.numSlotsInMs
}

// AdvSlotsPosInMultiSlotframe returns the positions of the advertisement
// slots within the multi-slotframe.
func (s *Schedule) AdvSlotsPosInMultiSlotframe() []int {
	return s.advSlotsPosInMs
}

// TotalAdvSubslots returns the number of advertisement subslots in the
// multi-slotframe.
func (s *Schedule) TotalAdvSubslots() int {
	return s.totalAdvSubslots
}

// NumChannels returns the number of advertisement channels.
func (s *Schedule) NumChannels() int {
	return s.cfg.NumChannels
}

// Method returns the configured scheduling method.
func (s *Schedule) Method() SchedulingMethod {
	return s.cfg.Method
}

func countFfds(g *node.Group) int {
	count := 0
	for _, n := range g.Nodes() {
		if n.Class == FFD {
			count++
		}
	}
	return count
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
