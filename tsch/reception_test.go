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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tschsim/joinsim/node"
	"github.com/tschsim/joinsim/prng"
	"github.com/tschsim/joinsim/radiomodel"
	. "github.com/tschsim/joinsim/types"
)

func newScanningNode(t *testing.T, bootTime time.Duration) *node.Node {
	g, err := node.NewGroup(node.Props{DataRateBps: 250000, Width: 100, Height: 100}, prng.NewStream(1))
	require.NoError(t, err)
	_, err = g.AddNode(node.Config{Id: 0, Role: RoleCoordinator, Class: FFD,
		Position: node.Position{X: 50, Y: 50}, TxPowerDbm: 0, RxSensitivityDbm: -100})
	require.NoError(t, err)
	n, err := g.AddNode(node.Config{Id: 1, Role: RoleJoining, Class: RFD,
		Position: node.Position{X: 55, Y: 50}, TxPowerDbm: 0, RxSensitivityDbm: -100,
		BootTime: bootTime})
	require.NoError(t, err)
	return n
}

// capture-effect test fixture: a single channel, no hopping, and a scan
// window far longer than any arrival time
func newCaptureModel() *PathLossModel {
	return &PathLossModel{
		Params:         radiomodel.SiteGeneralIndoorParams(),
		NumChannels:    1,
		ScanDuration:   time.Hour,
		EbAirtime:      1792 * time.Microsecond,
		ShrDuration:    160 * time.Microsecond,
		ChannelHopping: func(chOffset ChannelId, asn uint64, ssn int) ChannelId { return 0 },
	}
}

func TestCaptureSingleEb(t *testing.T) {
	rx := newScanningNode(t, 0)
	m := newCaptureModel()
	rng := prng.NewStream(5)

	got := m.Capture(rng, rx, []CandidateEB{
		{RxStartTime: time.Millisecond, RxPowerDbm: -40, ChannelOffset: 0},
	}, 0, 0, -1)
	require.NotNil(t, got)
	assert.Equal(t, DbValue(-40), got.RxPowerDbm)
}

func TestCaptureStrongerFirstSurvives(t *testing.T) {
	rx := newScanningNode(t, 0)
	m := newCaptureModel()
	rng := prng.NewStream(5)

	got := m.Capture(rng, rx, []CandidateEB{
		{RxStartTime: time.Millisecond, RxPowerDbm: -40, ChannelOffset: 0},
		{RxStartTime: time.Millisecond + 50*time.Microsecond, RxPowerDbm: -60, ChannelOffset: 0},
	}, 0, 0, -1)
	require.NotNil(t, got)
	assert.Equal(t, DbValue(-40), got.RxPowerDbm)
}

func TestCaptureStrongerLaterTakesOver(t *testing.T) {
	rx := newScanningNode(t, 0)
	m := newCaptureModel()
	rng := prng.NewStream(5)

	// the stronger EB arrives while the weak one's SHR is still being synchronized
	got := m.Capture(rng, rx, []CandidateEB{
		{RxStartTime: time.Millisecond, RxPowerDbm: -60, ChannelOffset: 0},
		{RxStartTime: time.Millisecond + 50*time.Microsecond, RxPowerDbm: -40, ChannelOffset: 0},
	}, 0, 0, -1)
	require.NotNil(t, got)
	assert.Equal(t, DbValue(-40), got.RxPowerDbm)
}

func TestCaptureEqualPowersCollide(t *testing.T) {
	rx := newScanningNode(t, 0)
	m := newCaptureModel()
	rng := prng.NewStream(5)

	got := m.Capture(rng, rx, []CandidateEB{
		{RxStartTime: time.Millisecond, RxPowerDbm: -50, ChannelOffset: 0},
		{RxStartTime: time.Millisecond + 50*time.Microsecond, RxPowerDbm: -50, ChannelOffset: 0},
	}, 0, 0, -1)
	assert.Nil(t, got)
}

func TestCaptureAfterEarlierEbEnded(t *testing.T) {
	rx := newScanningNode(t, 0)
	m := newCaptureModel()
	rng := prng.NewStream(5)

	// the second EB starts after the first one ended; the first is received
	got := m.Capture(rng, rx, []CandidateEB{
		{RxStartTime: time.Millisecond, RxPowerDbm: -50, ChannelOffset: 0},
		{RxStartTime: 4 * time.Millisecond, RxPowerDbm: -40, ChannelOffset: 0},
	}, 0, 0, -1)
	require.NotNil(t, got)
	assert.Equal(t, DbValue(-50), got.RxPowerDbm)
}

func TestCaptureRespectsBootTime(t *testing.T) {
	rx := newScanningNode(t, 10*time.Millisecond)
	m := newCaptureModel()
	rng := prng.NewStream(5)

	// the only EB arrives before the node boots
	got := m.Capture(rng, rx, []CandidateEB{
		{RxStartTime: time.Millisecond, RxPowerDbm: -40, ChannelOffset: 0},
	}, 0, 0, -1)
	assert.Nil(t, got)
}

func TestCaptureChannelMismatch(t *testing.T) {
	rx := newScanningNode(t, 0)
	m := newCaptureModel()
	m.NumChannels = 2
	// the EB hops to channel 1 while the scan starts on channel 0
	m.ChannelHopping = func(chOffset ChannelId, asn uint64, ssn int) ChannelId { return 1 }
	rng := prng.NewStream(5)

	got := m.Capture(rng, rx, []CandidateEB{
		{RxStartTime: time.Millisecond, RxPowerDbm: -40, ChannelOffset: 1},
	}, 0, 0, -1)
	assert.Nil(t, got)
}

func TestFixedProbabilityLinkBudgetRange(t *testing.T) {
	g, err := node.NewGroup(node.Props{DataRateBps: 250000, Width: 100, Height: 100}, prng.NewStream(1))
	require.NoError(t, err)
	tx, err := g.AddNode(node.Config{Id: 0, Role: RoleCoordinator, Class: FFD,
		Position: node.Position{X: 50, Y: 50}, TxPowerDbm: 0, RxSensitivityDbm: -100})
	require.NoError(t, err)
	rxNear, err := g.AddNode(node.Config{Id: 1, Role: RoleJoining, Class: RFD,
		Position: node.Position{X: 60, Y: 50}, TxPowerDbm: 0, RxSensitivityDbm: -100})
	require.NoError(t, err)
	rxFar, err := g.AddNode(node.Config{Id: 2, Role: RoleJoining, Class: RFD,
		Position: node.Position{X: 70, Y: 50}, TxPowerDbm: 0, RxSensitivityDbm: -100})
	require.NoError(t, err)

	m := NewFixedProbabilityModel(1.0, 17.0)
	rng := prng.NewStream(5)

	_, ok := m.LinkBudget(rng, tx, rxNear)
	assert.True(t, ok)
	_, ok = m.LinkBudget(rng, tx, rxFar)
	assert.False(t, ok)
}

func TestFixedProbabilityEffectiveRangeShrinks(t *testing.T) {
	g, err := node.NewGroup(node.Props{DataRateBps: 250000, Width: 100, Height: 100}, prng.NewStream(1))
	require.NoError(t, err)
	// a -20 dBm transmitter over a 40 dB/decade exponent has a tenth of the range
	tx, err := g.AddNode(node.Config{Id: 0, Role: RoleCoordinator, Class: FFD,
		Position: node.Position{X: 50, Y: 50}, TxPowerDbm: -20, RxSensitivityDbm: -100})
	require.NoError(t, err)
	rx, err := g.AddNode(node.Config{Id: 1, Role: RoleJoining, Class: RFD,
		Position: node.Position{X: 55, Y: 50}, TxPowerDbm: 0, RxSensitivityDbm: -100})
	require.NoError(t, err)

	m := NewFixedProbabilityModel(1.0, 17.0)
	rng := prng.NewStream(5)
	_, ok := m.LinkBudget(rng, tx, rx) // 5 m > 1.7 m effective range
	assert.False(t, ok)
}

func TestFixedProbabilityCaptureAlways(t *testing.T) {
	rx := newScanningNode(t, 0)
	m := NewFixedProbabilityModel(1.0, 17.0)
	rng := prng.NewStream(5)
	got := m.Capture(rng, rx, []CandidateEB{
		{RxStartTime: time.Millisecond, RxPowerDbm: -40, ChannelOffset: 0},
	}, 0, 0, -1)
	assert.NotNil(t, got)
}

func TestFixedProbabilityCaptureNever(t *testing.T) {
	rx := newScanningNode(t, 0)
	m := NewFixedProbabilityModel(0.0, 17.0)
	rng := prng.NewStream(5)
	got := m.Capture(rng, rx, []CandidateEB{
		{RxStartTime: time.Millisecond, RxPowerDbm: -40, ChannelOffset: 0},
	}, 0, 0, -1)
	assert.Nil(t, got)
}
