package indicator

// Kind identifies one indicator formula family. The set is closed: every
// kind maps to a pure compute function in the static registry, so dispatch
// is exhaustive at compile time rather than matched on strings at runtime.
type Kind int

const (
	KindMovingAverage Kind = iota
	KindRSI
	KindMACD
	KindBollinger
	KindKDJ
	KindVolumeRatio
	KindPriceAngle
	KindVolatility
	KindExtremes
	KindCapitalFlow

	kindCount
)

var kindStrings = [kindCount]string{
	KindMovingAverage: "ma",
	KindRSI:           "rsi",
	KindMACD:          "macd",
	KindBollinger:     "boll",
	KindKDJ:           "kdj",
	KindVolumeRatio:   "volume_ratio",
	KindPriceAngle:    "price_angle",
	KindVolatility:    "volatility",
	KindExtremes:      "extremes",
	KindCapitalFlow:   "capital_flow",
}

func (k Kind) String() string {
	if k < 0 || k >= kindCount {
		return "unknown"
	}
	return kindStrings[k]
}

var kindByName = func() map[string]Kind {
	m := make(map[string]Kind, kindCount)
	for k, s := range kindStrings {
		m[s] = Kind(k)
	}
	return m
}()

// ParseKind resolves an indicator name to its kind. Unknown names are a
// caller concern: the engine skips them with a warning, never an error.
func ParseKind(name string) (Kind, bool) {
	k, ok := kindByName[name]
	return k, ok
}

// AllKinds returns every defined kind, in registry order.
func AllKinds() []Kind {
	out := make([]Kind, kindCount)
	for i := range out {
		out[i] = Kind(i)
	}
	return out
}

// AllNames returns every defined indicator name, in registry order.
func AllNames() []string {
	out := make([]string, kindCount)
	copy(out, kindStrings[:])
	return out
}

// Field names emitted by the registry. Scoring reads these by name.
const (
	FieldSMA5  = "sma5"
	FieldSMA10 = "sma10"
	FieldSMA20 = "sma20"
	FieldSMA60 = "sma60"
	FieldEMA12 = "ema12"
	FieldEMA26 = "ema26"

	FieldRSI6  = "rsi6"
	FieldRSI12 = "rsi12"
	FieldRSI24 = "rsi24"

	FieldMACDDif  = "macd_dif"
	FieldMACDDea  = "macd_dea"
	FieldMACDHist = "macd_hist"

	FieldBollMid   = "boll_mid"
	FieldBollUpper = "boll_upper"
	FieldBollLower = "boll_lower"

	FieldKDJK = "kdj_k"
	FieldKDJD = "kdj_d"
	FieldKDJJ = "kdj_j"

	FieldVolumeRatio = "volume_ratio"
	FieldMA10Angle   = "ma10_angle"
	FieldVol20       = "volatility_20d"

	FieldHigh52  = "high_52"
	FieldLow52   = "low_52"
	FieldSupport = "support_level"

	FieldNetInflowRatio  = "net_inflow_ratio"
	FieldLargeOrderRatio = "large_order_ratio"
	FieldVPCorr          = "vp_corr"
	FieldVolumeTrend     = "volume_trend_code"
)

// Volume-trend classes carried in FieldVolumeTrend.
const (
	VolumeTrendOther        = 0.0
	VolumeTrendIntermittent = 1.0
	VolumeTrendStable       = 2.0
	VolumeTrendIncreasing   = 3.0
)
