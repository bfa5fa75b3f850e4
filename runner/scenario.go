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
	"math"
	"time"

	"github.com/pkg/errors"

	"github.com/tschsim/joinsim/node"
	"github.com/tschsim/joinsim/prng"
	. "github.com/tschsim/joinsim/types"
)

// relayDistanceFactor places the relay of a two-hops scenario at this
// fraction of the communication range from the coordinator.
const relayDistanceFactor = 0.6

// minCoordDistanceFactor keeps the joining node of a two-hops scenario
// outside this fraction of the communication range from the coordinator, so
// the relay is its only way into the network.
const minCoordDistanceFactor = 1.1

const maxPlacementDraws = 10000

// BuildScenario places the nodes of one trial and returns the group together
// with the node whose rejoining attempt is measured. The coordinator sits at
// the center of the area.
func BuildScenario(cfg ScenarioConfig, rng *prng.Stream) (*node.Group, *node.Node, error) {
	g, err := node.NewGroup(node.Props{
		DataRateBps: cfg.DataRateBps,
		Width:       cfg.Width,
		Height:      cfg.Height,
	}, rng)
	if err != nil {
		return nil, nil, err
	}

	center := node.Position{X: cfg.Width / 2, Y: cfg.Height / 2}
	coordTxPower := cfg.TxPowerDbm
	if cfg.CoordTxPowerDbm != nil {
		coordTxPower = *cfg.CoordTxPowerDbm
	}
	_, err = g.AddNode(node.Config{
		Id:               0,
		Role:             RoleCoordinator,
		Class:            FFD,
		Position:         center,
		TxPowerDbm:       DbValue(coordTxPower),
		RxSensitivityDbm: DbValue(cfg.RxSensitivityDbm),
	})
	if err != nil {
		return nil, nil, err
	}

	switch cfg.Kind {
	case "one-hop":
		return buildOneHop(g, cfg, center, rng)
	case "two-hops":
		return buildTwoHops(g, cfg, center, rng)
	default:
		return nil, nil, errors.Errorf("unknown scenario kind %q", cfg.Kind)
	}
}

func buildOneHop(g *node.Group, cfg ScenarioConfig, center node.Position, rng *prng.Stream) (*node.Group, *node.Node, error) {
	pos, err := drawInDisc(cfg, center, cfg.CommRange, func(p node.Position) bool { return true }, rng)
	if err != nil {
		return nil, nil, err
	}
	joiner, err := g.AddNode(node.Config{
		Id:                1,
		Role:              RoleJoining,
		Class:             RFD,
		Position:          pos,
		Mobile:            cfg.Mobile,
		TxPowerDbm:        DbValue(cfg.TxPowerDbm),
		RxSensitivityDbm:  DbValue(cfg.RxSensitivityDbm),
		ChannelSwitchTime: time.Duration(cfg.ChannelSwitchTime),
	})
	if err != nil {
		return nil, nil, err
	}
	return g, joiner, nil
}

func buildTwoHops(g *node.Group, cfg ScenarioConfig, center node.Position, rng *prng.Stream) (*node.Group, *node.Node, error) {
	angle := rng.UnitRandom() * 2 * math.Pi
	relayPos := node.Position{
		X: center.X + relayDistanceFactor*cfg.CommRange*math.Cos(angle),
		Y: center.Y + relayDistanceFactor*cfg.CommRange*math.Sin(angle),
	}
	_, err := g.AddNode(node.Config{
		Id:                1,
		Role:              RoleJoining,
		Class:             FFD,
		Position:          relayPos,
		TxPowerDbm:        DbValue(cfg.TxPowerDbm),
		RxSensitivityDbm:  DbValue(cfg.RxSensitivityDbm),
		ChannelSwitchTime: time.Duration(cfg.ChannelSwitchTime),
	})
	if err != nil {
		return nil, nil, err
	}

	minCoordDistance := minCoordDistanceFactor * cfg.CommRange
	pos, err := drawInDisc(cfg, relayPos, cfg.CommRange, func(p node.Position) bool {
		return p.Distance(center) > minCoordDistance
	}, rng)
	if err != nil {
		return nil, nil, err
	}
	joiner, err := g.AddNode(node.Config{
		Id:                2,
		Role:              RoleJoining,
		Class:             RFD,
		Position:          pos,
		Mobile:            cfg.Mobile,
		TxPowerDbm:        DbValue(cfg.TxPowerDbm),
		RxSensitivityDbm:  DbValue(cfg.RxSensitivityDbm),
		ChannelSwitchTime: time.Duration(cfg.ChannelSwitchTime),
	})
	if err != nil {
		return nil, nil, err
	}
	return g, joiner, nil
}

// drawInDisc rejection-samples a position uniform over the disc around c that
// lies inside the area and satisfies accept.
func drawInDisc(cfg ScenarioConfig, c node.Position, radius float64,
	accept func(node.Position) bool, rng *prng.Stream) (node.Position, error) {
	for i := 0; i < maxPlacementDraws; i++ {
		r := radius * math.Sqrt(rng.UnitRandom())
		angle := rng.UnitRandom() * 2 * math.Pi
		p := node.Position{X: c.X + r*math.Cos(angle), Y: c.Y + r*math.Sin(angle)}
		if p.X < 0 || p.X > cfg.Width || p.Y < 0 || p.Y > cfg.Height {
			continue
		}
		if accept(p) {
			return p, nil
		}
	}
	return node.Position{}, errors.New("cannot place a node satisfying the scenario constraints")
}
