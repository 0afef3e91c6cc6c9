package setup

// CorrXBins is the number of bins of each x-correction lookup table.
const CorrXBins = 50

// HitErrorTable holds rectangular-pad hit variances indexed by
// [readout mode][error class]. Mode 0 is event-based, mode 1 time-based.
// The hit finder reports the entries as position errors unchanged.
type HitErrorTable struct {
	XVar [2][5]float64 `json:"x_var" yaml:"x_var"`
	YVar [2][5]float64 `json:"y_var" yaml:"y_var"`
}

var defaultHitErrors = HitErrorTable{
	XVar: [2][5]float64{
		{0.0258725, 0.0267693, 0.0344325, 0.0260322, 0.040115},
		{0.0426313, 0.0426206, 0.0636962, 0.038981, 0.0723851},
	},
	YVar: [2][5]float64{
		{0.024549, 0.025957, 0.0250164, 0.0302381, 0.0291947},
		{0.0401124, 0.0400722, 0.0571505, 0.0371142, 0.0546578},
	},
}

// DefaultHitErrorTable returns the nominal rectangular-pad variances.
func DefaultHitErrorTable() *HitErrorTable {
	t := defaultHitErrors
	return &t
}

// Variance returns the (x, y) variance for a readout mode and error class.
// Error classes outside the table are clamped to its edges.
func (t *HitErrorTable) Variance(eventBased bool, errorClass int) (float64, float64) {
	mode := 1
	if eventBased {
		mode = 0
	}
	if errorClass < 0 {
		errorClass = 0
	} else if errorClass > 4 {
		errorClass = 4
	}
	return t.XVar[mode][errorClass], t.YVar[mode][errorClass]
}

// CorrectionTables are the empirical position corrections for triangular
// pads. X tables are binned in pad widths with step XStep; Y holds
// (slope, offset) pairs per cluster-size class.
type CorrectionTables struct {
	XStep   float64               `json:"x_step" yaml:"x_step"`
	X       [3][CorrXBins]float64 `json:"x" yaml:"x"`
	RcX     [2][CorrXBins]float64 `json:"rc_x" yaml:"rc_x"`
	RcXBias [3][CorrXBins]float64 `json:"rc_x_bias" yaml:"rc_x_bias"`
	Y       [4][2]float64         `json:"y" yaml:"y"`
}

// DefaultCorrectionTables returns a copy of the nominal correction tables.
func DefaultCorrectionTables() *CorrectionTables {
	t := defaultCorrections
	return &t
}

// XRow returns the x-correction row for hit type typ and table class cls:
// 0 single-row hits, 1 row-cross hits, 2 biased row-cross hits. The
// row-cross table has no type-2 row; that request falls back to the
// single-row table.
func (t *CorrectionTables) XRow(typ, cls int) ([]float64, bool) {
	if typ < 0 || typ > 2 {
		return nil, false
	}
	switch {
	case cls == 1 && typ < len(t.RcX):
		return t.RcX[typ][:], true
	case cls == 2:
		return t.RcXBias[typ][:], true
	default:
		return t.X[typ][:], true
	}
}

var defaultCorrections = CorrectionTables{
	XStep: 0.01,
	X: [3][CorrXBins]float64{
		{-0.001, -0.001, -0.002, -0.002, -0.003, -0.003, -0.003, -0.004, -0.004, -0.006, -0.006, -0.006, -0.007,
			-0.007, -0.008, -0.008, -0.008, -0.009, -0.009, -0.011, -0.011, -0.011, -0.012, -0.012, -0.012, -0.012,
			-0.013, -0.013, -0.013, -0.013, -0.014, -0.014, -0.014, -0.014, -0.014, -0.016, -0.016, -0.016, -0.016,
			-0.017, -0.017, -0.017, -0.018, -0.018, -0.018, -0.018, -0.018, 0.000, 0.000, 0.000},
		{0.467, 0.430, 0.396, 0.364, 0.335, 0.312, 0.291, 0.256, 0.234, 0.219, 0.207, 0.191, 0.172,
			0.154, 0.147, 0.134, 0.123, 0.119, 0.109, 0.122, 0.113, 0.104, 0.093, 0.087, 0.079, 0.073,
			0.067, 0.063, 0.058, 0.053, 0.049, 0.046, 0.042, 0.038, 0.036, 0.032, 0.029, 0.027, 0.024,
			0.022, 0.019, 0.017, 0.014, 0.013, 0.011, 0.009, 0.007, 0.004, 0.003, 0.001},
		{0.001, 0.001, 0.001, 0.001, 0.002, 0.002, 0.001, 0.002, 0.004, 0.003, 0.002, 0.002, 0.002,
			0.002, 0.002, 0.002, 0.003, 0.004, 0.003, 0.004, 0.004, 0.007, 0.003, 0.004, 0.002, 0.002,
			-0.011, -0.011, -0.012, -0.012, -0.012, -0.013, -0.013, -0.013, -0.014, -0.014, -0.014, -0.016, -0.016,
			-0.016, -0.017, -0.017, -0.017, -0.018, -0.018, -0.018, -0.019, 0.029, 0.018, 0.001},
	},
	RcX: [2][CorrXBins]float64{
		{-0.00050, -0.00050, -0.00150, -0.00250, -0.00250, -0.00350, -0.00450, -0.00450, -0.00550, -0.00650,
			-0.00650, -0.00750, -0.00850, -0.00850, -0.00850, -0.00950, -0.00950, -0.00950, -0.01050, -0.01150,
			-0.01150, -0.01150, -0.01250, -0.01250, -0.01250, -0.01250, -0.01350, -0.01350, -0.01350, -0.01350,
			-0.01450, -0.01450, -0.01450, -0.01550, -0.01550, -0.01550, -0.01550, -0.01650, -0.01650, -0.01550,
			-0.01650, -0.01614, -0.01620, -0.01624, -0.01626, -0.01627, -0.01626, -0.01624, -0.01620, -0.01615},
		{0.36412, 0.34567, 0.32815, 0.31152, 0.29574, 0.28075, 0.26652, 0.25302, 0.24020, 0.22803,
			0.21647, 0.21400, 0.19400, 0.18520, 0.17582, 0.16600, 0.14600, 0.13800, 0.14280, 0.14200,
			0.13400, 0.12600, 0.12200, 0.11000, 0.10200, 0.09400, 0.09000, 0.08600, 0.08200, 0.07400,
			0.07000, 0.06600, 0.06600, 0.06200, 0.05800, 0.05400, 0.05400, 0.05000, 0.04600, 0.04600,
			0.04200, 0.03800, 0.03800, 0.03400, 0.03400, 0.03000, 0.03000, 0.02600, 0.02200, 0.02200},
	},
	RcXBias: [3][CorrXBins]float64{
		{0.00100, 0.00260, 0.00540, 0.00740, 0.00900, 0.01060, 0.01300, 0.01460, 0.01660, 0.01900,
			0.02060, 0.02260, 0.02420, 0.02700, 0.02860, 0.02980, 0.03220, 0.03340, 0.03540, 0.03620,
			0.03820, 0.04020, 0.04180, 0.04340, 0.04460, 0.04620, 0.04740, 0.04941, 0.05088, 0.05233,
			0.05375, 0.05515, 0.05653, 0.05788, 0.05921, 0.06052, 0.06180, 0.06306, 0.06430, 0.06551,
			0.06670, 0.06786, 0.06901, 0.07012, 0.07122, 0.07229, 0.07334, 0.07436, 0.07536, 0.07634},
		{0.00100, 0.00380, 0.00780, 0.00900, 0.01220, 0.01460, 0.01860, 0.01940, 0.02260, 0.02540,
			0.02820, 0.03060, 0.03220, 0.03660, 0.03980, 0.04094, 0.04420, 0.04620, 0.04824, 0.04980,
			0.05298, 0.05532, 0.05740, 0.05991, 0.06217, 0.06500, 0.06540, 0.06900, 0.07096, 0.07310,
			0.07380, 0.07729, 0.07935, 0.08139, 0.08340, 0.08538, 0.08734, 0.08928, 0.08900, 0.09307,
			0.09493, 0.09340, 0.09858, 0.09620, 0.09740, 0.10386, 0.09980, 0.10726, 0.10892, 0.11056},
		{0.00011, 0.00140, 0.00340, 0.00420, 0.00500, 0.00620, 0.00820, 0.00860, 0.01060, 0.01100,
			0.01220, 0.01340, 0.01500, 0.01540, 0.01700, 0.01820, 0.01900, 0.02060, 0.02180, 0.02260,
			0.02340, 0.02420, 0.02500, 0.02500, 0.02660, 0.02740, 0.02820, 0.02900, 0.03020, 0.03180,
			0.03300, 0.03260, 0.03380, 0.03460, 0.03500, 0.03580, 0.03780, 0.03820, 0.03860, 0.03900,
			0.04100, 0.04180, 0.04060, 0.04300, 0.04340, 0.04340, 0.04380, 0.04460, 0.04580, 0.04540},
	},
	Y: [4][2]float64{
		{2.421729, 0},
		{0.629389, -0.215285},
		{0.23958, 0},
		{0.151913, 0.054404},
	},
}
