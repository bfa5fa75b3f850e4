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

// Package timeslot implements the TSCH Timeslot Template of
// IEEE Std 802.15.4-2015, section 8.4.2.2.3.
package timeslot

import (
	"time"

	"github.com/pkg/errors"
)

// Attributes holds the macTs* timing attributes of a timeslot template, in
// microseconds. Each attribute must fit in 0..65535 us as mandated by the
// standard's 16-bit encoding.
type Attributes struct {
	CcaOffset      int `yaml:"ccaOffset"`
	Cca            int `yaml:"cca"`
	TxOffset       int `yaml:"txOffset"`
	RxOffset       int `yaml:"rxOffset"`
	RxAckDelay     int `yaml:"rxAckDelay"`
	TxAckDelay     int `yaml:"txAckDelay"`
	RxWait         int `yaml:"rxWait"`
	RxTx           int `yaml:"rxTx"`
	MaxAck         int `yaml:"maxAck"`
	MaxTx          int `yaml:"maxTx"`
	TimeslotLength int `yaml:"timeslotLength"`
	AckWait        int `yaml:"ackWait"`
}

// Default2450MHzAttributes returns the standard's default timing values for
// the 2450 MHz O-QPSK PHY (10 ms timeslot).
func Default2450MHzAttributes() Attributes {
	return Attributes{
		CcaOffset:      1800,
		Cca:            128,
		TxOffset:       2120,
		RxOffset:       1020,
		RxAckDelay:     800,
		TxAckDelay:     1000,
		RxWait:         2200,
		RxTx:           192,
		MaxAck:         2400,
		MaxTx:          4256,
		TimeslotLength: 10000,
		AckWait:        400,
	}
}

// Template is a validated timeslot template. All fields are durations derived
// from the microsecond attributes.
type Template struct {
	CcaOffset      time.Duration
	Cca            time.Duration
	TxOffset       time.Duration
	RxOffset       time.Duration
	RxAckDelay     time.Duration
	TxAckDelay     time.Duration
	RxWait         time.Duration
	RxTx           time.Duration
	MaxAck         time.Duration
	MaxTx          time.Duration
	TimeslotLength time.Duration
	AckWait        time.Duration
}

// New validates the attributes against the standard's consistency rules and
// returns the template. Violations are configuration errors, never corrected
// silently.
func New(a Attributes) (*Template, error) {
	if err := check(a); err != nil {
		return nil, err
	}
	us := func(v int) time.Duration { return time.Duration(v) * time.Microsecond }
	return &Template{
		CcaOffset:      us(a.CcaOffset),
		Cca:            us(a.Cca),
		TxOffset:       us(a.TxOffset),
		RxOffset:       us(a.RxOffset),
		RxAckDelay:     us(a.RxAckDelay),
		TxAckDelay:     us(a.TxAckDelay),
		RxWait:         us(a.RxWait),
		RxTx:           us(a.RxTx),
		MaxAck:         us(a.MaxAck),
		MaxTx:          us(a.MaxTx),
		TimeslotLength: us(a.TimeslotLength),
		AckWait:        us(a.AckWait),
	}, nil
}

// Default2450MHz returns the validated default 2450 MHz template.
func Default2450MHz() *Template {
	tpl, err := New(Default2450MHzAttributes())
	if err != nil {
		panic(err) // the standard's own defaults always validate
	}
	return tpl
}

func check(a Attributes) error {
	for _, attr := range []struct {
		name  string
		value int
	}{
		{"macTsCcaOffset", a.CcaOffset},
		{"macTsCca", a.Cca},
		{"macTsTxOffset", a.TxOffset},
		{"macTsRxOffset", a.RxOffset},
		{"macTsRxAckDelay", a.RxAckDelay},
		{"macTsTxAckDelay", a.TxAckDelay},
		{"macTsRxWait", a.RxWait},
		{"macTsRxTx", a.RxTx},
		{"macTsMaxAck", a.MaxAck},
		{"macTsMaxTx", a.MaxTx},
		{"macTsTimeslotLength", a.TimeslotLength},
		{"macTsAckWait", a.AckWait},
	} {
		if attr.value < 0 || attr.value > 65535 {
			return errors.Errorf("%s = %d us out of range [0, 65535]", attr.name, attr.value)
		}
	}

	if a.TxOffset != a.CcaOffset+a.Cca+a.RxTx {
		return errors.Errorf("macTsTxOffset (%d) != macTsCcaOffset + macTsCca + macTsRxTx (%d)",
			a.TxOffset, a.CcaOffset+a.Cca+a.RxTx)
	}
	if 2*a.TxOffset != 2*a.RxOffset+a.RxWait {
		return errors.Errorf("macTsTxOffset (%d) != macTsRxOffset + macTsRxWait/2 (%g)",
			a.TxOffset, float64(a.RxOffset)+float64(a.RxWait)/2)
	}
	if a.RxAckDelay > a.TxAckDelay {
		return errors.Errorf("macTsRxAckDelay (%d) > macTsTxAckDelay (%d)", a.RxAckDelay, a.TxAckDelay)
	}
	if a.RxAckDelay+a.AckWait <= a.TxAckDelay {
		return errors.Errorf("macTsRxAckDelay + macTsAckWait (%d) <= macTsTxAckDelay (%d)",
			a.RxAckDelay+a.AckWait, a.TxAckDelay)
	}
	if a.TxOffset+a.MaxTx+a.RxAckDelay+a.AckWait > a.TimeslotLength {
		return errors.Errorf("ack wait window exceeds timeslot: macTsTxOffset + macTsMaxTx + macTsRxAckDelay + macTsAckWait (%d) > macTsTimeslotLength (%d)",
			a.TxOffset+a.MaxTx+a.RxAckDelay+a.AckWait, a.TimeslotLength)
	}
	if a.TxOffset+a.MaxTx+a.TxAckDelay+a.MaxAck > a.TimeslotLength {
		return errors.Errorf("ack transmission exceeds timeslot: macTsTxOffset + macTsMaxTx + macTsTxAckDelay + macTsMaxAck (%d) > macTsTimeslotLength (%d)",
			a.TxOffset+a.MaxTx+a.TxAckDelay+a.MaxAck, a.TimeslotLength)
	}
	if a.RxOffset+a.RxWait+a.MaxTx+a.TxAckDelay+a.MaxAck > a.TimeslotLength+a.CcaOffset {
		return errors.Errorf("receiver ack window exceeds next slot's CCA offset: %d > %d",
			a.RxOffset+a.RxWait+a.MaxTx+a.TxAckDelay+a.MaxAck, a.TimeslotLength+a.CcaOffset)
	}
	if a.RxWait > 2*(a.RxOffset+a.TimeslotLength-a.TxOffset-a.MaxTx-a.TxAckDelay-a.MaxAck) {
		return errors.Errorf("macTsRxWait/2 (%g) exceeds the slack before the next slot's Rx window",
			float64(a.RxWait)/2)
	}
	return nil
}

// SlotStart returns the absolute start time of the slot with the given ASN,
// relative to the start time of slot 0.
func (t *Template) SlotStart(slot0 time.Duration, asn uint64) time.Duration {
	return slot0 + time.Duration(asn)*t.TimeslotLength
}

// MaxAllowedClockDrift is the largest clock offset between a transmitter and
// a receiver that still lets a frame start inside the Rx wait window.
func (t *Template) MaxAllowedClockDrift() time.Duration {
	return t.RxWait / 2
}
