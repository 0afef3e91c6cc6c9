package l1samples

// FaspSaturationADC is the raw ADC value at which a FASP channel overflows.
const FaspSaturationADC = 4095

// FEECalibration holds the front-end gain and time-walk model of a module.
//
// The time-walk shift of a signal s, in clock ticks, is
// Timewalk[0]*(s-Timewalk[1])^2 / clockNs. Timewalk[2] is the shaping
// time of the amplifier and is carried for bookkeeping only.
type FEECalibration struct {
	GainTilt   float64    `json:"gain_tilt" yaml:"gain_tilt"`
	GainRect   float64    `json:"gain_rect" yaml:"gain_rect"`
	Timewalk   [3]float64 `json:"timewalk" yaml:"timewalk"`
	Saturation float64    `json:"saturation" yaml:"saturation"`
}

// DefaultFEECalibration returns unit gains and the nominal FASP time-walk.
func DefaultFEECalibration() FEECalibration {
	return FEECalibration{
		GainTilt:   1,
		GainRect:   1,
		Timewalk:   [3]float64{4.181e-6, 1586, 24},
		Saturation: FaspSaturationADC,
	}
}

// TimewalkClk returns the time-walk shift for signal s in clock ticks.
func (f FEECalibration) TimewalkClk(s, clockNs float64) float64 {
	if clockNs <= 0 {
		return 0
	}
	d := s - f.Timewalk[1]
	return f.Timewalk[0] * d * d / clockNs
}

// CalibratedSample is the reconstruction view of one triangular pad: the
// tilt and rect halves combined from one or two raw samples, with gains
// applied and overflow recorded per half.
type CalibratedSample struct {
	channel  int
	timeDAQ  int64
	tilt     float64
	rect     float64
	tiltTime int64
	rectTime int64
	tiltOn   bool
	rectOn   bool
	tiltOvf  bool
	rectOvf  bool
	fee      FEECalibration
}

// NewCalibratedSample builds the calibrated view of a single raw sample.
func NewCalibratedSample(fee FEECalibration, s ChannelSample) CalibratedSample {
	c := CalibratedSample{
		channel:  s.Channel,
		timeDAQ:  s.EarliestTimeDAQ(),
		tiltTime: s.TimeDAQ,
		rectTime: s.RectTimeDAQ(),
		fee:      fee,
	}
	c.setTilt(s.TiltCharge)
	c.setRect(s.RectCharge)
	return c
}

// NewCalibratedPair combines two raw samples of the same pad, one usually
// carrying the tilt half and the other the rect half. The first sample
// wins when both carry the same half.
func NewCalibratedPair(fee FEECalibration, a, b ChannelSample) CalibratedSample {
	c := NewCalibratedSample(fee, a)
	if !c.tiltOn && b.TiltCharge > 0 {
		c.setTilt(b.TiltCharge)
		c.tiltTime = b.TimeDAQ
	}
	if !c.rectOn && b.RectCharge > 0 {
		c.setRect(b.RectCharge)
		c.rectTime = b.RectTimeDAQ()
	}
	if t := b.EarliestTimeDAQ(); t < c.timeDAQ {
		c.timeDAQ = t
	}
	return c
}

func (c *CalibratedSample) setTilt(raw float64) {
	c.tiltOn = raw > 0
	c.tiltOvf = c.fee.Saturation > 0 && raw >= c.fee.Saturation
	c.tilt = 0
	if c.tiltOn {
		c.tilt = raw * c.fee.GainTilt
	}
}

func (c *CalibratedSample) setRect(raw float64) {
	c.rectOn = raw > 0
	c.rectOvf = c.fee.Saturation > 0 && raw >= c.fee.Saturation
	c.rect = 0
	if c.rectOn {
		c.rect = raw * c.fee.GainRect
	}
}

// Channel returns the pad address inside the module.
func (c CalibratedSample) Channel() int { return c.channel }

// TimeDAQ returns the earliest clock tick of the two halves.
func (c CalibratedSample) TimeDAQ() int64 { return c.timeDAQ }

// TiltCharge returns the calibrated tilt signal and whether it was read out.
func (c CalibratedSample) TiltCharge() (float64, bool) { return c.tilt, c.tiltOn }

// RectCharge returns the calibrated rect signal and whether it was read out.
func (c CalibratedSample) RectCharge() (float64, bool) { return c.rect, c.rectOn }

// TiltTime returns the clock tick of the tilt half.
func (c CalibratedSample) TiltTime() int64 { return c.tiltTime }

// RectTime returns the clock tick of the rect half.
func (c CalibratedSample) RectTime() int64 { return c.rectTime }

// HasTiltOverflow reports a saturated tilt readout.
func (c CalibratedSample) HasTiltOverflow() bool { return c.tiltOvf }

// HasRectOverflow reports a saturated rect readout.
func (c CalibratedSample) HasRectOverflow() bool { return c.rectOvf }

// TimewalkClk applies the module time-walk model to signal s.
func (c CalibratedSample) TimewalkClk(s, clockNs float64) float64 {
	return c.fee.TimewalkClk(s, clockNs)
}
