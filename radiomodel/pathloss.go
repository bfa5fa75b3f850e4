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

package radiomodel

import (
	"math"
	"time"

	"github.com/tschsim/joinsim/prng"
	. "github.com/tschsim/joinsim/types"
)

const minDistanceMeters = 0.01

// PathLossDb computes the deterministic site-general indoor path loss (dB)
// at the given distance, without fading.
func PathLossDb(params *ModelParams, distMeters float64) DbValue {
	if distMeters < minDistanceMeters {
		distMeters = minDistanceMeters
	}
	return params.FixedLossDb + params.ExponentDb*math.Log10(distMeters)
}

// ShadowFadingDb draws one truncated log-normal shadow fading sample (dB).
// Samples outside +/- ShadowFadingClipDb are redrawn, matching a truncated
// normal rather than a clamped one.
func ShadowFadingDb(rng *prng.Stream, params *ModelParams) DbValue {
	if params.ShadowFadingSigmaDb <= 0 {
		return 0
	}
	for {
		v := rng.NormFloat(0, params.ShadowFadingSigmaDb)
		if math.Abs(v) <= params.ShadowFadingClipDb {
			return v
		}
	}
}

// RxPowerDbm computes the received power of a transmission over the given
// distance, including one independent shadow fading draw.
func RxPowerDbm(rng *prng.Stream, txPowerDbm DbValue, distMeters float64, params *ModelParams) DbValue {
	return txPowerDbm - PathLossDb(params, distMeters) - ShadowFadingDb(rng, params)
}

// PropagationDelay returns the free-space propagation delay over the given
// distance.
func PropagationDelay(distMeters float64) time.Duration {
	return time.Duration(distMeters / SpeedOfLightMps * float64(time.Second))
}
