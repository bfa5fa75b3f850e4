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

// Package tsch implements the TSCH joining phase: Enhanced Beacon (EB)
// advertisement schedules, channel hopping, EB reception and the Monte Carlo
// simulation of network formation and (re)joining attempts.
package tsch

import (
	"github.com/pkg/errors"
	"github.com/simonlingoogle/go-simplelogger"
)

// SchedulingMethod selects how advertisers are assigned advertisement cells
// for their EB transmissions.
type SchedulingMethod int

const (
	Minimal6TiSCH SchedulingMethod = iota // single shared cell at channel offset 0
	CFASV                                 // Collision-Free Advertisement Scheduling, vertical filling
	CFASH                                 // Collision-Free Advertisement Scheduling, horizontal filling
	ECFASV                                // enhanced CFAS-V: channel offset 0 reserved for the coordinator
	ECFASH                                // enhanced CFAS-H: channel offset 0 reserved for the coordinator
	MacBasedAS                            // cell from a SAX hash of the EUI-48; not collision-free
	EMacBasedAS                           // enhanced MAC-based AS
)

// Enhanced reports whether the method reserves channel offset 0 for the
// coordinator, which then advertises in every advertisement subslot.
func (m SchedulingMethod) Enhanced() bool {
	switch m {
	case ECFASV, ECFASH, EMacBasedAS:
		return true
	default:
		return false
	}
}

func (m SchedulingMethod) String() string {
	switch m {
	case Minimal6TiSCH:
		return "minimal-6tisch"
	case CFASV:
		return "cfas-v"
	case CFASH:
		return "cfas-h"
	case ECFASV:
		return "ecfas-v"
	case ECFASH:
		return "ecfas-h"
	case MacBasedAS:
		return "mac-based-as"
	case EMacBasedAS:
		return "emac-based-as"
	default:
		simplelogger.Panicf("invalid scheduling method: %d", int(m))
		return "invalid"
	}
}

// ParseSchedulingMethod parses a method name as used in config files and on
// the command line.
func ParseSchedulingMethod(name string) (SchedulingMethod, error) {
	for _, m := range []SchedulingMethod{
		Minimal6TiSCH, CFASV, CFASH, ECFASV, ECFASH, MacBasedAS, EMacBasedAS,
	} {
		if m.String() == name {
			return m, nil
		}
	}
	return 0, errors.Errorf("unknown scheduling method %q", name)
}
