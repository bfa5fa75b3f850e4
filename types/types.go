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

// Package types holds the shared scalar types and IEEE 802.15.4 constants
// used throughout the simulator packages.
package types

import (
	"github.com/simonlingoogle/go-simplelogger"
)

type NodeId = int
type ChannelId = int

// DbValue is a dB or dBm value, used for Tx power, RSSI and path loss.
type DbValue = float64

const (
	InvalidNodeId NodeId = -1

	RssiInvalid       DbValue = 127.0
	RssiMinusInfinity DbValue = -127.0
)

// IEEE 802.15.4-2015 2.4 GHz O-QPSK PHY parameters.
const (
	TimeUsPerBit      = 4
	PhyHeaderLenBytes = 6 // SHR (5 bytes) + PHR (1 byte)
	ShrLenBytes       = 5
	MacFrameLenBytes  = 127
)

// DeviceClass is the 802.15.4 device class of a node.
type DeviceClass int

const (
	FFD DeviceClass = iota // Full Function Device; may advertise the network after joining.
	RFD                    // Reduced Function Device; joins but never advertises.
)

func (c DeviceClass) String() string {
	switch c {
	case FFD:
		return "FFD"
	case RFD:
		return "RFD"
	default:
		simplelogger.Panicf("invalid device class: %d", int(c))
		return "invalid"
	}
}

// NodeRole tags the role a node plays in a joining-phase scenario.
type NodeRole int

const (
	RoleCoordinator  NodeRole = iota // originates the network's schedule
	RoleSynchronized                 // already synchronized; may relay EBs if FFD
	RoleJoining                      // scanning for an EB
)

func (r NodeRole) String() string {
	switch r {
	case RoleCoordinator:
		return "coordinator"
	case RoleSynchronized:
		return "synchronized"
	case RoleJoining:
		return "joining"
	default:
		simplelogger.Panicf("invalid node role: %d", int(r))
		return "invalid"
	}
}

// HopClass classifies the topological distance between a scanning node and
// the PAN coordinator, derived from positions and the communication range.
type HopClass int

const (
	HopOne         HopClass = iota // within range of the coordinator
	HopTwo                         // reachable only via a synchronized neighbor
	HopUnreachable                 // out of range of every synchronized node
)

func (h HopClass) String() string {
	switch h {
	case HopOne:
		return "one-hop"
	case HopTwo:
		return "two-hops"
	case HopUnreachable:
		return "unreachable"
	default:
		simplelogger.Panicf("invalid hop class: %d", int(h))
		return "invalid"
	}
}

// JoinOutcome is the terminal state of one joining attempt.
type JoinOutcome int

const (
	OutcomeReceived   JoinOutcome = iota // an EB was successfully received
	OutcomeUnresolved                    // the per-trial ASN bound was exceeded
)

func (o JoinOutcome) String() string {
	switch o {
	case OutcomeReceived:
		return "received"
	case OutcomeUnresolved:
		return "unresolved"
	default:
		simplelogger.Panicf("invalid join outcome: %d", int(o))
		return "invalid"
	}
}
