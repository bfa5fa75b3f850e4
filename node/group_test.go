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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tschsim/joinsim/prng"
	. "github.com/tschsim/joinsim/types"
)

func testProps() Props {
	return Props{DataRateBps: 250000, Width: 100, Height: 100}
}

func testGroup(t *testing.T) *Group {
	g, err := NewGroup(testProps(), prng.NewStream(42))
	require.NoError(t, err)
	return g
}

func coordCfg(id NodeId, pos Position) Config {
	return Config{
		Id: id, Role: RoleCoordinator, Class: FFD, Position: pos,
		TxPowerDbm: 0, RxSensitivityDbm: -100,
	}
}

func nodeCfg(id NodeId, role NodeRole, pos Position) Config {
	return Config{
		Id: id, Role: role, Class: FFD, Position: pos,
		TxPowerDbm: 0, RxSensitivityDbm: -100,
	}
}

func TestGroupValidation(t *testing.T) {
	_, err := NewGroup(Props{DataRateBps: 0, Width: 10, Height: 10}, prng.NewStream(1))
	assert.Error(t, err)
	_, err = NewGroup(Props{DataRateBps: 250000, Width: -1, Height: 10}, prng.NewStream(1))
	assert.Error(t, err)
}

func TestAddNodeValidation(t *testing.T) {
	g := testGroup(t)
	_, err := g.AddNode(coordCfg(1, Position{50, 50}))
	require.NoError(t, err)

	// duplicate id
	_, err = g.AddNode(nodeCfg(1, RoleJoining, Position{10, 10}))
	assert.Error(t, err)

	// second coordinator
	_, err = g.AddNode(coordCfg(2, Position{20, 20}))
	assert.Error(t, err)

	// outside area
	_, err = g.AddNode(nodeCfg(3, RoleJoining, Position{150, 10}))
	assert.Error(t, err)

	// RFD coordinator is rejected
	cfg := coordCfg(4, Position{30, 30})
	cfg.Class = RFD
	g2 := testGroup(t)
	_, err = g2.AddNode(cfg)
	assert.Error(t, err)
}

func TestEui48Assignment(t *testing.T) {
	g := testGroup(t)
	seen := map[Eui48]bool{}
	for id := NodeId(1); id <= 50; id++ {
		role := RoleJoining
		if id == 1 {
			role = RoleCoordinator
		}
		n, err := g.AddNode(nodeCfg(id, role, Position{10, 10}))
		require.NoError(t, err)
		assert.Equal(t, byte(0x00), n.Eui[0])
		assert.Equal(t, byte(0x8c), n.Eui[1])
		assert.Equal(t, byte(0xfa), n.Eui[2])
		assert.False(t, seen[n.Eui], "duplicate EUI %s", n.Eui)
		seen[n.Eui] = true
	}
}

func TestHopClass(t *testing.T) {
	g := testGroup(t)
	_, err := g.AddNode(coordCfg(1, Position{50, 50}))
	require.NoError(t, err)
	relay, err := g.AddNode(nodeCfg(2, RoleSynchronized, Position{60, 50}))
	require.NoError(t, err)
	near, err := g.AddNode(nodeCfg(3, RoleJoining, Position{55, 50}))
	require.NoError(t, err)
	far, err := g.AddNode(nodeCfg(4, RoleJoining, Position{72, 50}))
	require.NoError(t, err)
	out, err := g.AddNode(nodeCfg(5, RoleJoining, Position{95, 50}))
	require.NoError(t, err)

	const commRange = 17.0
	assert.Equal(t, HopOne, g.HopClass(near, commRange))
	assert.Equal(t, HopOne, g.HopClass(relay, commRange))
	assert.Equal(t, HopTwo, g.HopClass(far, commRange))
	assert.Equal(t, HopUnreachable, g.HopClass(out, commRange))
}

func TestHopClassIgnoresRfdRelay(t *testing.T) {
	g := testGroup(t)
	_, err := g.AddNode(coordCfg(1, Position{50, 50}))
	require.NoError(t, err)
	relayCfg := nodeCfg(2, RoleSynchronized, Position{60, 50})
	relayCfg.Class = RFD
	_, err = g.AddNode(relayCfg)
	require.NoError(t, err)
	far, err := g.AddNode(nodeCfg(3, RoleJoining, Position{72, 50}))
	require.NoError(t, err)

	// an RFD never advertises, so it cannot serve as a relay
	assert.Equal(t, HopUnreachable, g.HopClass(far, 17.0))
}

func TestGroupTime(t *testing.T) {
	g := testGroup(t)
	require.NoError(t, g.SetTime(5*time.Second))
	assert.Equal(t, 5*time.Second, g.Now())
	assert.Error(t, g.SetTime(4*time.Second))
}

func TestMobilityStaysInArea(t *testing.T) {
	g := testGroup(t)
	cfg := nodeCfg(1, RoleCoordinator, Position{50, 50})
	_, err := g.AddNode(cfg)
	require.NoError(t, err)
	mcfg := nodeCfg(2, RoleJoining, Position{50, 50})
	mcfg.Mobile = true
	n, err := g.AddNode(mcfg)
	require.NoError(t, err)
	assert.True(t, n.IsMobile())

	for i := 1; i <= 2000; i++ {
		require.NoError(t, g.SetTime(time.Duration(i)*250*time.Millisecond))
		p := n.Position()
		assert.GreaterOrEqual(t, p.X, 0.0)
		assert.LessOrEqual(t, p.X, g.Props.Width)
		assert.GreaterOrEqual(t, p.Y, 0.0)
		assert.LessOrEqual(t, p.Y, g.Props.Height)
	}
}

func TestMobilityDeterministic(t *testing.T) {
	mk := func() Position {
		g, err := NewGroup(testProps(), prng.NewStream(7))
		require.NoError(t, err)
		_, err = g.AddNode(coordCfg(1, Position{50, 50}))
		require.NoError(t, err)
		cfg := nodeCfg(2, RoleJoining, Position{10, 10})
		cfg.Mobile = true
		n, err := g.AddNode(cfg)
		require.NoError(t, err)
		require.NoError(t, g.SetTime(30*time.Second))
		return n.Position()
	}
	assert.Equal(t, mk(), mk())
}

func TestStaticNodePositionConstant(t *testing.T) {
	g := testGroup(t)
	n, err := g.AddNode(nodeCfg(1, RoleCoordinator, Position{42, 13}))
	require.NoError(t, err)
	require.NoError(t, g.SetTime(time.Hour))
	assert.Equal(t, Position{42, 13}, n.Position())
}
