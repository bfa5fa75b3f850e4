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

	"github.com/tschsim/joinsim/prng"
)

// Random Waypoint speed bounds (m/s), zero pause time.
const (
	minWaypointSpeed = 0.1
	maxWaypointSpeed = 5.0
)

// randomWaypoint is a Random Waypoint mobility process over a rectangular
// area. Legs are advanced lazily when a position past the current leg's end
// is queried, so an idle node costs nothing.
type randomWaypoint struct {
	width  float64
	height float64
	rng    *prng.Stream

	origin   Position
	dest     Position
	speed    float64 // m/s
	legStart time.Duration
	legEnd   time.Duration
}

func newRandomWaypoint(start Position, width, height float64, rng *prng.Stream) *randomWaypoint {
	w := &randomWaypoint{
		width:  width,
		height: height,
		rng:    rng,
		origin: start,
		dest:   start,
	}
	w.nextLeg(0)
	return w
}

// nextLeg draws a new waypoint and speed, starting from the current
// destination at the given time.
func (w *randomWaypoint) nextLeg(t time.Duration) {
	w.origin = w.dest
	w.dest = Position{
		X: w.rng.UniformFloat(0, w.width),
		Y: w.rng.UniformFloat(0, w.height),
	}
	w.speed = w.rng.UniformFloat(minWaypointSpeed, maxWaypointSpeed)
	w.legStart = t
	dist := w.origin.Distance(w.dest)
	w.legEnd = t + time.Duration(dist/w.speed*float64(time.Second))
}

// positionAt returns the position at time t, advancing legs as needed.
// Queries must use non-decreasing t; the group time only moves forward.
func (w *randomWaypoint) positionAt(t time.Duration) Position {
	for t >= w.legEnd {
		w.nextLeg(w.legEnd)
	}
	if t <= w.legStart {
		return w.origin
	}
	frac := float64(t-w.legStart) / float64(w.legEnd-w.legStart)
	return Position{
		X: w.origin.X + frac*(w.dest.X-w.origin.X),
		Y: w.origin.Y + frac*(w.dest.Y-w.origin.Y),
	}
}
