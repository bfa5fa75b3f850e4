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

// Package radiomodel computes RF link budgets between simulated 802.15.4
// nodes: path loss, log-normal shadow fading and the capture-effect
// threshold for co-channel reception.
package radiomodel

import (
	"math"

	. "github.com/tschsim/joinsim/types"
)

// CaptureThresholdDb is the co-channel power margin a frame needs over the
// sum of all interfering signals to be captured by the receiver.
const CaptureThresholdDb DbValue = 3.0

// SpeedOfLightMps is the propagation speed used for path delays.
const SpeedOfLightMps = 299792458.0

// ModelParams stores the path loss and fading parameters of a propagation
// model.
type ModelParams struct {
	FixedLossDb         DbValue `yaml:"fixedLossDb"`         // fixed loss (dB) term at the 1 m reference distance
	ExponentDb          DbValue `yaml:"exponentDb"`          // distance power loss coefficient (dB per decade)
	ShadowFadingSigmaDb DbValue `yaml:"shadowFadingSigmaDb"` // sigma (stddev) for log-normal shadow fading, in dB
	ShadowFadingClipDb  DbValue `yaml:"shadowFadingClipDb"`  // shadow fading samples are truncated to +/- this value
}

// SiteGeneralIndoorParams returns the ITU-R P.1238 site-general indoor
// parameters for the 2.4 GHz band.
func SiteGeneralIndoorParams() *ModelParams {
	return &ModelParams{
		FixedLossDb:         paround(20.0*math.Log10(2400) - 28.0),
		ExponentDb:          40.0,
		ShadowFadingSigmaDb: 4.0,
		ShadowFadingClipDb:  11.0,
	}
}

// paround is a custom parameter rounding function (2 digits)
func paround(param float64) float64 {
	return math.Round(param*100.0) / 100.0
}
