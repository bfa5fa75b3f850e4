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

package prng

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStreamDeterminism(t *testing.T) {
	s1 := NewStream(42)
	s2 := NewStream(42)
	for i := 0; i < 100; i++ {
		assert.Equal(t, s1.UnitRandom(), s2.UnitRandom())
	}
}

func TestStreamSeedsDiffer(t *testing.T) {
	s1 := NewStream(42)
	s2 := NewStream(43)
	same := true
	for i := 0; i < 10; i++ {
		if s1.UnitRandom() != s2.UnitRandom() {
			same = false
		}
	}
	assert.False(t, same)
}

func TestChildDerivation(t *testing.T) {
	root := NewStream(1234)
	c1 := root.Child(7)
	c2 := NewStream(1234).Child(7)
	assert.Equal(t, c1.Seed(), c2.Seed())
	for i := 0; i < 50; i++ {
		assert.Equal(t, c1.UnitRandom(), c2.UnitRandom())
	}

	// child derivation must not consume draws from the parent
	r1 := NewStream(1234)
	r2 := NewStream(1234)
	_ = r1.Child(0)
	assert.Equal(t, r2.UnitRandom(), r1.UnitRandom())
}

func TestChildrenIndependent(t *testing.T) {
	root := NewStream(99)
	seen := map[RandomSeed]bool{}
	for i := uint64(0); i < 1000; i++ {
		seed := root.Child(i).Seed()
		assert.False(t, seen[seed], "duplicate child seed at index %d", i)
		seen[seed] = true
	}
}

func TestUniformFloatRange(t *testing.T) {
	s := NewStream(5)
	for i := 0; i < 1000; i++ {
		v := s.UniformFloat(0.1, 5.0)
		assert.GreaterOrEqual(t, v, 0.1)
		assert.Less(t, v, 5.0)
	}
}

func TestSign(t *testing.T) {
	s := NewStream(5)
	plus, minus := 0, 0
	for i := 0; i < 1000; i++ {
		if s.Sign() > 0 {
			plus++
		} else {
			minus++
		}
	}
	assert.Greater(t, plus, 400)
	assert.Greater(t, minus, 400)
}
