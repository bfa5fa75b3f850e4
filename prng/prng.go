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

// Package prng provides explicit, seedable random streams. Every random draw
// in the simulator goes through a Stream passed in by the caller, so that a
// trial is fully reproducible from its seed and trials running on parallel
// workers never share generator state.
package prng

import (
	"math/rand"
	"time"
)

type RandomSeed int64

// Stream is a deterministic source of random draws. It is not safe for
// concurrent use; derive a Child per goroutine instead.
type Stream struct {
	seed RandomSeed
	rnd  *rand.Rand
}

// NewStream creates a stream from the given seed. A zero seed selects a
// time-based seed for non-reproducible runs.
func NewStream(seed RandomSeed) *Stream {
	if seed == 0 {
		seed = RandomSeed(time.Now().UnixNano())
	}
	return &Stream{
		seed: seed,
		rnd:  rand.New(rand.NewSource(int64(seed))),
	}
}

// Seed returns the seed this stream was created from.
func (s *Stream) Seed() RandomSeed {
	return s.seed
}

// Child derives an independent stream from this stream's seed and an index,
// without consuming any draws from the parent. Equal (seed, index) pairs
// always yield identical child streams.
func (s *Stream) Child(index uint64) *Stream {
	x := splitmix64(uint64(s.seed) ^ splitmix64(index))
	if x == 0 {
		x = 1
	}
	return NewStream(RandomSeed(x))
}

// splitmix64 is the mixing function of the SplitMix64 generator, used here
// only to spread (seed, index) pairs over the full 64-bit space.
func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// UnitRandom draws a unit [0, 1) float, usable as a random probability.
func (s *Stream) UnitRandom() float64 {
	return s.rnd.Float64()
}

// Intn draws a uniform int in [0, n).
func (s *Stream) Intn(n int) int {
	return s.rnd.Intn(n)
}

// UniformFloat draws a uniform float in [lo, hi).
func (s *Stream) UniformFloat(lo, hi float64) float64 {
	return lo + (hi-lo)*s.rnd.Float64()
}

// NormFloat draws from a normal distribution with the given mean and
// standard deviation.
func (s *Stream) NormFloat(mean, sigma float64) float64 {
	return mean + sigma*s.rnd.NormFloat64()
}

// Sign draws +1 or -1 with equal probability.
func (s *Stream) Sign() float64 {
	if s.rnd.Intn(2) == 0 {
		return 1.0
	}
	return -1.0
}

// Perm returns a random permutation of [0, n).
func (s *Stream) Perm(n int) []int {
	return s.rnd.Perm(n)
}
