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

package node

import (
	"time"

	"github.com/pkg/errors"

	"github.com/tschsim/joinsim/prng"
	. "github.com/tschsim/joinsim/types"
)

// Props holds the shared physical properties of a node group.
type Props struct {
	DataRateBps int     `yaml:"dataRateBps"` // PHY data rate shared by all nodes
	Width       float64 `yaml:"width"`       // area width in meters
	Height      float64 `yaml:"height"`      // area height in meters
}

// Group is a set of nodes sharing an area, a PHY data rate and a common
// notion of time. It holds at most one PAN coordinator and hands out
// collision-free EUI-48 addresses.
type Group struct {
	Props Props

	nodes       map[NodeId]*Node
	order       []NodeId
	coordinator NodeId
	now         time.Duration
	rng         *prng.Stream
	usedEuis    map[Eui48]bool
}

// NewGroup creates an empty group. The stream seeds EUI assignment and the
// mobility processes of nodes added later.
func NewGroup(props Props, rng *prng.Stream) (*Group, error) {
	if props.DataRateBps <= 0 {
		return nil, errors.Errorf("invalid data rate: %d bps", props.DataRateBps)
	}
	if props.Width <= 0 || props.Height <= 0 {
		return nil, errors.Errorf("invalid area: %g x %g m", props.Width, props.Height)
	}
	return &Group{
		Props:       props,
		nodes:       make(map[NodeId]*Node),
		coordinator: InvalidNodeId,
		rng:         rng,
		usedEuis:    make(map[Eui48]bool),
	}, nil
}

// AddNode creates a node from cfg and adds it to the group.
func (g *Group) AddNode(cfg Config) (*Node, error) {
	if _, ok := g.nodes[cfg.Id]; ok {
		return nil, errors.Errorf("duplicate node id %d", cfg.Id)
	}
	if cfg.Position.X < 0 || cfg.Position.X > g.Props.Width ||
		cfg.Position.Y < 0 || cfg.Position.Y > g.Props.Height {
		return nil, errors.Errorf("node %d: position (%g, %g) outside area %g x %g m",
			cfg.Id, cfg.Position.X, cfg.Position.Y, g.Props.Width, g.Props.Height)
	}
	if cfg.Role == RoleCoordinator && g.coordinator != InvalidNodeId {
		return nil, errors.Errorf("node %d: group already has coordinator %d", cfg.Id, g.coordinator)
	}
	n, err := newNode(cfg, g, g.rng.Child(uint64(cfg.Id)))
	if err != nil {
		return nil, err
	}
	n.Eui = g.newEui48()
	g.nodes[cfg.Id] = n
	g.order = append(g.order, cfg.Id)
	if cfg.Role == RoleCoordinator {
		g.coordinator = cfg.Id
	}
	return n, nil
}

// newEui48 draws a fresh 00:8c:fa:xx:xx:xx address, unique within the group.
func (g *Group) newEui48() Eui48 {
	for {
		eui := Eui48{0x00, 0x8c, 0xfa,
			byte(g.rng.Intn(256)), byte(g.rng.Intn(256)), byte(g.rng.Intn(256))}
		if !g.usedEuis[eui] {
			g.usedEuis[eui] = true
			return eui
		}
	}
}

// Node returns the node with the given id, or nil.
func (g *Group) Node(id NodeId) *Node {
	return g.nodes[id]
}

// Nodes returns the group's nodes in insertion order.
func (g *Group) Nodes() []*Node {
	out := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id])
	}
	return out
}

// Coordinator returns the PAN coordinator, or nil when none was added yet.
func (g *Group) Coordinator() *Node {
	if g.coordinator == InvalidNodeId {
		return nil
	}
	return g.nodes[g.coordinator]
}

// Now returns the group time.
func (g *Group) Now() time.Duration {
	return g.now
}

// SetTime advances the group time. Time never moves backwards; mobility legs
// are advanced lazily on the next position query.
func (g *Group) SetTime(t time.Duration) error {
	if t < g.now {
		return errors.Errorf("group time cannot move backwards: %v < %v", t, g.now)
	}
	g.now = t
	return nil
}

// HopClass classifies the topological distance of node n to the coordinator
// using the given communication range. Positions are evaluated at the current
// group time on every call; results are never cached.
func (g *Group) HopClass(n *Node, commRange float64) HopClass {
	coord := g.Coordinator()
	if coord == nil || n.Id == coord.Id {
		return HopUnreachable
	}
	if n.Distance(coord) <= commRange {
		return HopOne
	}
	for _, other := range g.Nodes() {
		if other.Id == n.Id || other.Id == coord.Id {
			continue
		}
		if other.Role != RoleSynchronized || other.Class != FFD {
			continue
		}
		if n.Distance(other) <= commRange && other.Distance(coord) <= commRange {
			return HopTwo
		}
	}
	return HopUnreachable
}
