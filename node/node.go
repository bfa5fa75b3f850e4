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

// Package node models IEEE 802.15.4 devices: identity, radio parameters,
// position and mobility, grouped into a NodeGroup with exactly one PAN
// coordinator.
package node

import (
	"fmt"
	"math"
	"time"

	"github.com/pkg/errors"

	"github.com/tschsim/joinsim/prng"
	. "github.com/tschsim/joinsim/types"
)

// Position is a 2D position in meters.
type Position struct {
	X float64
	Y float64
}

// Distance returns the Euclidean distance to another position, in meters.
func (p Position) Distance(q Position) float64 {
	dx := p.X - q.X
	dy := p.Y - q.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Eui48 is an EUI-48 hardware address.
type Eui48 [6]byte

func (e Eui48) String() string {
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x", e[0], e[1], e[2], e[3], e[4], e[5])
}

// Config holds the construction parameters of a Node.
type Config struct {
	Id                NodeId
	Role              NodeRole
	Class             DeviceClass
	Position          Position
	Mobile            bool
	TxPowerDbm        DbValue
	RxSensitivityDbm  DbValue
	BootTime          time.Duration
	ChannelSwitchTime time.Duration
}

// Node is one 802.15.4 device in a group. Its position is evaluated lazily
// against the group time when mobile.
type Node struct {
	Id                NodeId
	Role              NodeRole
	Class             DeviceClass
	Eui               Eui48
	TxPowerDbm        DbValue
	RxSensitivityDbm  DbValue
	BootTime          time.Duration
	ChannelSwitchTime time.Duration

	group    *Group
	mobility *randomWaypoint
	pos      Position
}

func newNode(cfg Config, group *Group, rng *prng.Stream) (*Node, error) {
	if cfg.Role == RoleCoordinator && cfg.Class != FFD {
		return nil, errors.Errorf("node %d: a coordinator must be an FFD", cfg.Id)
	}
	if cfg.TxPowerDbm <= cfg.RxSensitivityDbm {
		return nil, errors.Errorf("node %d: tx power %v dBm not above rx sensitivity %v dBm",
			cfg.Id, cfg.TxPowerDbm, cfg.RxSensitivityDbm)
	}
	n := &Node{
		Id:                cfg.Id,
		Role:              cfg.Role,
		Class:             cfg.Class,
		TxPowerDbm:        cfg.TxPowerDbm,
		RxSensitivityDbm:  cfg.RxSensitivityDbm,
		BootTime:          cfg.BootTime,
		ChannelSwitchTime: cfg.ChannelSwitchTime,
		group:             group,
		pos:               cfg.Position,
	}
	if cfg.Mobile {
		n.mobility = newRandomWaypoint(cfg.Position, group.Props.Width, group.Props.Height, rng)
	}
	return n, nil
}

// Position returns the node's position at the group's current time.
func (n *Node) Position() Position {
	if n.mobility == nil {
		return n.pos
	}
	return n.mobility.positionAt(n.group.Now())
}

// IsMobile reports whether the node follows a mobility process.
func (n *Node) IsMobile() bool {
	return n.mobility != nil
}

// Distance returns the current distance in meters to another node.
func (n *Node) Distance(other *Node) float64 {
	return n.Position().Distance(other.Position())
}

func (n *Node) String() string {
	return fmt.Sprintf("node %d (%s, %s)", n.Id, n.Role, n.Class)
}
