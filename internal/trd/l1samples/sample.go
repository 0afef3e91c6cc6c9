package l1samples

import (
	"fmt"

	"github.com/banshee-data/trd.reco/internal/units"
)

// AsicKind identifies the front-end chip that produced a sample.
type AsicKind uint8

const (
	// AsicSpadic reads rectangular pads, one charge per pad.
	AsicSpadic AsicKind = iota
	// AsicFasp reads triangular pad pairs, one tilt and one rect charge per pad.
	AsicFasp
)

func (a AsicKind) String() string {
	switch a {
	case AsicSpadic:
		return units.SPADIC
	case AsicFasp:
		return units.FASP
	default:
		return fmt.Sprintf("asic(%d)", uint8(a))
	}
}

// MarshalText encodes the ASIC by name.
func (a AsicKind) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText decodes an ASIC name.
func (a *AsicKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case units.SPADIC:
		*a = AsicSpadic
	case units.FASP:
		*a = AsicFasp
	default:
		return fmt.Errorf("unknown asic %q", string(b))
	}
	return nil
}

// ClockPeriod returns the sampling clock period of the ASIC in ns.
func (a AsicKind) ClockPeriod() float64 {
	return units.ClockPeriod(a.String())
}

// TriggerKind records why a rectangular-pad channel was read out.
type TriggerKind uint8

const (
	// TriggerSelf means the channel crossed its own threshold.
	TriggerSelf TriggerKind = iota
	// TriggerNeighbor means the channel was read because a neighbour fired.
	TriggerNeighbor
)

func (k TriggerKind) String() string {
	if k == TriggerNeighbor {
		return "neighbor"
	}
	return "self"
}

// MarshalText encodes the trigger kind by name.
func (k TriggerKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a trigger kind name.
func (k *TriggerKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "self":
		*k = TriggerSelf
	case "neighbor":
		*k = TriggerNeighbor
	default:
		return fmt.Errorf("unknown trigger %q", string(b))
	}
	return nil
}

// ChannelSample is one digitised reading of one pad.
//
// Channel is the pad address inside the module, row*nCols + col.
// Rectangular samples carry Charge, Trigger and the error/mode flags;
// triangular samples carry raw TiltCharge/RectCharge in ADC units and the
// rect readout delay relative to the tilt one. Time is in ns for both;
// TimeDAQ is the same instant in ASIC clock ticks.
type ChannelSample struct {
	Module  int      `json:"module"`
	Channel int      `json:"channel"`
	Asic    AsicKind `json:"asic"`
	Time    float64  `json:"time_ns"`
	TimeDAQ int64    `json:"time_daq,omitempty"`

	Charge            float64     `json:"charge,omitempty"`
	Trigger           TriggerKind `json:"trigger"`
	ErrorClass        int         `json:"error_class,omitempty"`
	EventBased        bool        `json:"event_based,omitempty"`
	EventBasedPrecise bool        `json:"event_based_precise,omitempty"`

	TiltCharge float64 `json:"tilt_charge,omitempty"`
	RectCharge float64 `json:"rect_charge,omitempty"`
	RectDelay  int64   `json:"rect_delay,omitempty"`
}

// NewSpadicSample builds a rectangular-pad sample at time t (ns).
func NewSpadicSample(module, channel int, charge, t float64, trigger TriggerKind) ChannelSample {
	return ChannelSample{
		Module:  module,
		Channel: channel,
		Asic:    AsicSpadic,
		Time:    t,
		TimeDAQ: units.NsToClock(t, units.SpadicClockNs),
		Charge:  charge,
		Trigger: trigger,
	}
}

// NewFaspSample builds a triangular-pad sample at clock tick timeDAQ.
func NewFaspSample(module, channel int, tilt, rect float64, timeDAQ, rectDelay int64) ChannelSample {
	return ChannelSample{
		Module:     module,
		Channel:    channel,
		Asic:       AsicFasp,
		Time:       units.ClockToNs(timeDAQ, units.FaspClockNs),
		TimeDAQ:    timeDAQ,
		TiltCharge: tilt,
		RectCharge: rect,
		RectDelay:  rectDelay,
	}
}

// IsFasp reports whether the sample comes from a triangular-pad module.
func (s ChannelSample) IsFasp() bool { return s.Asic == AsicFasp }

// ClockPeriod returns the ASIC clock period in ns.
func (s ChannelSample) ClockPeriod() float64 { return s.Asic.ClockPeriod() }

// IsSelfTriggered reports whether the channel fired on its own threshold.
func (s ChannelSample) IsSelfTriggered() bool { return s.Trigger == TriggerSelf }

// Row returns the pad row for a module with nCols columns.
func (s ChannelSample) Row(nCols int) int { return s.Channel / nCols }

// Col returns the pad column for a module with nCols columns.
func (s ChannelSample) Col(nCols int) int { return s.Channel % nCols }

// RectTimeDAQ is the clock tick of the rect readout.
func (s ChannelSample) RectTimeDAQ() int64 { return s.TimeDAQ + s.RectDelay }

// EarliestTimeDAQ is the earlier of the tilt and rect readout ticks.
func (s ChannelSample) EarliestTimeDAQ() int64 {
	if s.RectDelay < 0 {
		return s.TimeDAQ + s.RectDelay
	}
	return s.TimeDAQ
}

// IndexedSample pairs a sample with its position in the timeslice input.
type IndexedSample struct {
	Sample ChannelSample
	Index  int32
}

// Index wraps samples with their slice positions.
func Index(samples []ChannelSample) []IndexedSample {
	out := make([]IndexedSample, len(samples))
	for i, s := range samples {
		out[i] = IndexedSample{Sample: s, Index: int32(i)}
	}
	return out
}
