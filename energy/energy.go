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

// Package energy accounts the energy spent by nodes during network
// formation: scan listening until synchronization, EB transmissions, and
// idle slots until the network is formed.
package energy

import (
	"time"
)

// Profile holds the current draw of a radio in its operating states.
type Profile struct {
	RxAmps   float64 `yaml:"rxAmps"`
	TxAmps   float64 `yaml:"txAmps"`
	IdleAmps float64 `yaml:"idleAmps"`
	Volts    float64 `yaml:"volts"`
}

// ZolertiaREMote returns the current draw of the Zolertia RE-Mote (rev. B)
// platform, taken from its datasheet.
func ZolertiaREMote() Profile {
	return Profile{
		RxAmps:   0.02,
		TxAmps:   0.024,
		IdleAmps: 1.3e-6,
		Volts:    3.7,
	}
}

// NodeConsumption computes the joules one node spends between boot and
// network formation: continuous listening for syncAsn slots, ebTxCount EB
// transmissions of ebAirtime each, and idling for the remaining slots.
func NodeConsumption(p Profile, slotLength, ebAirtime time.Duration,
	syncAsn, formationAsn uint64, ebTxCount int) float64 {

	syncSeconds := float64(syncAsn) * slotLength.Seconds()
	forSync := syncSeconds * p.RxAmps * p.Volts

	forEbs := float64(ebTxCount) * ebAirtime.Seconds() * p.TxAmps * p.Volts

	idleSlots := float64(formationAsn) - float64(syncAsn) - float64(ebTxCount)
	if idleSlots < 0 {
		idleSlots = 0
	}
	idle := idleSlots * slotLength.Seconds() * p.IdleAmps * p.Volts

	return forSync + forEbs + idle
}
