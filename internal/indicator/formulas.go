package indicator

import (
	"math"

	"FinRank/internal/domain/models"
)

// column is one named output series aligned with the input bars. ok[i]
// marks whether the value at i is defined; warm-up rows stay absent.
type column struct {
	name string
	vals []float64
	ok   []bool
}

func newColumn(name string, n int) column {
	return column{name: name, vals: make([]float64, n), ok: make([]bool, n)}
}

func (c *column) set(i int, v float64) {
	c.vals[i] = v
	c.ok[i] = true
}

// computeFunc is a pure formula: bars in, aligned columns out. No I/O,
// no shared state.
type computeFunc func(cfg Config, bars []models.Bar) []column

// registry maps each Kind to its formula. Indexing by Kind keeps the
// dispatch closed over the enum.
var registry = [kindCount]computeFunc{
	KindMovingAverage: computeMovingAverages,
	KindRSI:           computeRSI,
	KindMACD:          computeMACD,
	KindBollinger:     computeBollinger,
	KindKDJ:           computeKDJ,
	KindVolumeRatio:   computeVolumeRatio,
	KindPriceAngle:    computePriceAngle,
	KindVolatility:    computeVolatility,
	KindExtremes:      computeExtremes,
	KindCapitalFlow:   computeCapitalFlow,
}

func closes(bars []models.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// sma computes a simple windowed mean; the first n-1 values are absent.
func sma(vals []float64, n int) column {
	c := newColumn("", len(vals))
	if n <= 0 || len(vals) < n {
		return c
	}
	sum := 0.0
	for i, v := range vals {
		sum += v
		if i >= n {
			sum -= vals[i-n]
		}
		if i >= n-1 {
			c.set(i, sum/float64(n))
		}
	}
	return c
}

// ema computes exponential smoothing with factor 2/(n+1), seeded with the
// simple mean of the first n values; the first n-1 values are absent.
func ema(vals []float64, n int) column {
	c := newColumn("", len(vals))
	if n <= 0 || len(vals) < n {
		return c
	}
	k := 2.0 / float64(n+1)
	seed := 0.0
	for i := 0; i < n; i++ {
		seed += vals[i]
	}
	prev := seed / float64(n)
	c.set(n-1, prev)
	for i := n; i < len(vals); i++ {
		prev = vals[i]*k + prev*(1-k)
		c.set(i, prev)
	}
	return c
}

// emaOfColumn applies ema over the defined suffix of an input column,
// preserving alignment.
func emaOfColumn(in column, n int) column {
	out := newColumn("", len(in.vals))
	start := -1
	for i, ok := range in.ok {
		if ok {
			start = i
			break
		}
	}
	if start < 0 || len(in.vals)-start < n {
		return out
	}
	sub := ema(in.vals[start:], n)
	for i := range sub.vals {
		if sub.ok[i] {
			out.set(start+i, sub.vals[i])
		}
	}
	return out
}

// rollingStd computes the sample standard deviation over a trailing window.
func rollingStd(vals []float64, n int) column {
	c := newColumn("", len(vals))
	if n <= 1 || len(vals) < n {
		return c
	}
	for i := n - 1; i < len(vals); i++ {
		win := vals[i-n+1 : i+1]
		mean := 0.0
		for _, v := range win {
			mean += v
		}
		mean /= float64(n)
		ss := 0.0
		for _, v := range win {
			d := v - mean
			ss += d * d
		}
		c.set(i, math.Sqrt(ss/float64(n-1)))
	}
	return c
}

func computeMovingAverages(_ Config, bars []models.Bar) []column {
	cl := closes(bars)
	specs := []struct {
		name string
		n    int
		exp  bool
	}{
		{FieldSMA5, 5, false},
		{FieldSMA10, 10, false},
		{FieldSMA20, 20, false},
		{FieldSMA60, 60, false},
		{FieldEMA12, 12, true},
		{FieldEMA26, 26, true},
	}
	out := make([]column, 0, len(specs))
	for _, s := range specs {
		var c column
		if s.exp {
			c = ema(cl, s.n)
		} else {
			c = sma(cl, s.n)
		}
		c.name = s.name
		out = append(out, c)
	}
	return out
}

// rsi maps the ratio of average gain to average loss over a trailing
// window through 100 - 100/(1+RS). A window with zero average loss is
// defined as 100.
func rsi(cl []float64, n int) column {
	c := newColumn("", len(cl))
	if n <= 0 || len(cl) <= n {
		return c
	}
	for i := n; i < len(cl); i++ {
		gain, loss := 0.0, 0.0
		for j := i - n + 1; j <= i; j++ {
			d := cl[j] - cl[j-1]
			if d > 0 {
				gain += d
			} else {
				loss -= d
			}
		}
		if loss == 0 {
			c.set(i, 100)
			continue
		}
		rs := gain / loss
		c.set(i, 100-100/(1+rs))
	}
	return c
}

func computeRSI(_ Config, bars []models.Bar) []column {
	cl := closes(bars)
	out := make([]column, 0, 3)
	for _, s := range []struct {
		name string
		n    int
	}{{FieldRSI6, 6}, {FieldRSI12, 12}, {FieldRSI24, 24}} {
		c := rsi(cl, s.n)
		c.name = s.name
		out = append(out, c)
	}
	return out
}

// computeMACD derives the convergence-divergence lines: dif is the fast
// minus slow EMA, dea is an EMA of dif, and the histogram is twice their
// difference.
func computeMACD(_ Config, bars []models.Bar) []column {
	cl := closes(bars)
	fast := ema(cl, 12)
	slow := ema(cl, 26)
	dif := newColumn(FieldMACDDif, len(cl))
	for i := range cl {
		if fast.ok[i] && slow.ok[i] {
			dif.set(i, fast.vals[i]-slow.vals[i])
		}
	}
	dea := emaOfColumn(dif, 9)
	dea.name = FieldMACDDea
	hist := newColumn(FieldMACDHist, len(cl))
	for i := range cl {
		if dif.ok[i] && dea.ok[i] {
			hist.set(i, 2*(dif.vals[i]-dea.vals[i]))
		}
	}
	return []column{dif, dea, hist}
}

func computeBollinger(cfg Config, bars []models.Bar) []column {
	cl := closes(bars)
	n := cfg.BollWindow
	mid := sma(cl, n)
	mid.name = FieldBollMid
	std := rollingStd(cl, n)
	upper := newColumn(FieldBollUpper, len(cl))
	lower := newColumn(FieldBollLower, len(cl))
	for i := range cl {
		if mid.ok[i] && std.ok[i] {
			upper.set(i, mid.vals[i]+cfg.BollMultiplier*std.vals[i])
			lower.set(i, mid.vals[i]-cfg.BollMultiplier*std.vals[i])
		}
	}
	return []column{mid, upper, lower}
}

// computeKDJ derives the stochastic K/D/J lines from a 9-window RSV with
// 1/3 smoothing, K and D seeded at 50.
func computeKDJ(_ Config, bars []models.Bar) []column {
	const n = 9
	k := newColumn(FieldKDJK, len(bars))
	d := newColumn(FieldKDJD, len(bars))
	j := newColumn(FieldKDJJ, len(bars))
	if len(bars) < n {
		return []column{k, d, j}
	}
	prevK, prevD := 50.0, 50.0
	for i := n - 1; i < len(bars); i++ {
		hh, ll := bars[i].High, bars[i].Low
		for m := i - n + 1; m < i; m++ {
			if bars[m].High > hh {
				hh = bars[m].High
			}
			if bars[m].Low < ll {
				ll = bars[m].Low
			}
		}
		rsv := 50.0
		if hh > ll {
			rsv = (bars[i].Close - ll) / (hh - ll) * 100
		}
		prevK = prevK*2/3 + rsv/3
		prevD = prevD*2/3 + prevK/3
		k.set(i, prevK)
		d.set(i, prevD)
		j.set(i, 3*prevK-2*prevD)
	}
	return []column{k, d, j}
}

func computeVolumeRatio(cfg Config, bars []models.Bar) []column {
	n := cfg.VolumeRatioWindow
	vols := make([]float64, len(bars))
	for i, b := range bars {
		vols[i] = float64(b.Volume)
	}
	mean := sma(vols, n)
	c := newColumn(FieldVolumeRatio, len(bars))
	for i := range bars {
		if mean.ok[i] && mean.vals[i] > 0 {
			c.set(i, vols[i]/mean.vals[i])
		}
	}
	return []column{c}
}

// computePriceAngle compresses the relative change of the mid moving
// average into a stable [-90,90] degree range via
// atan(change * scale) * 180/pi.
func computePriceAngle(cfg Config, bars []models.Bar) []column {
	cl := closes(bars)
	ma := sma(cl, 10)
	c := newColumn(FieldMA10Angle, len(bars))
	for i := 1; i < len(bars); i++ {
		if !ma.ok[i] || !ma.ok[i-1] || ma.vals[i-1] == 0 {
			continue
		}
		rel := (ma.vals[i] - ma.vals[i-1]) / ma.vals[i-1]
		deg := math.Atan(rel*cfg.AngleScale) * 180 / math.Pi
		if deg > 90 {
			deg = 90
		} else if deg < -90 {
			deg = -90
		}
		c.set(i, deg)
	}
	return []column{c}
}

func computeVolatility(_ Config, bars []models.Bar) []column {
	const n = 20
	cl := closes(bars)
	c := newColumn(FieldVol20, len(bars))
	if len(cl) <= n {
		return []column{c}
	}
	rets := make([]float64, len(cl)-1)
	for i := 1; i < len(cl); i++ {
		if cl[i-1] != 0 {
			rets[i-1] = cl[i]/cl[i-1] - 1
		}
	}
	std := rollingStd(rets, n)
	for i := range rets {
		if std.ok[i] {
			c.set(i+1, std.vals[i])
		}
	}
	return []column{c}
}

// computeExtremes produces the trailing high/low over the position window
// plus the shorter-window support level used by risk scoring.
func computeExtremes(cfg Config, bars []models.Bar) []column {
	n := cfg.PositionWindow
	hi := newColumn(FieldHigh52, len(bars))
	lo := newColumn(FieldLow52, len(bars))
	for i := n - 1; i < len(bars); i++ {
		hh, ll := bars[i].High, bars[i].Low
		for m := i - n + 1; m < i; m++ {
			if bars[m].High > hh {
				hh = bars[m].High
			}
			if bars[m].Low < ll {
				ll = bars[m].Low
			}
		}
		hi.set(i, hh)
		lo.set(i, ll)
	}
	const supportWindow = 20
	sup := newColumn(FieldSupport, len(bars))
	for i := supportWindow - 1; i < len(bars); i++ {
		ll := bars[i].Low
		for m := i - supportWindow + 1; m < i; m++ {
			if bars[m].Low < ll {
				ll = bars[m].Low
			}
		}
		sup.set(i, ll)
	}
	return []column{hi, lo, sup}
}

// computeCapitalFlow derives per-bar capital proxies from price, volume
// and turnover amount: a smoothed close-location value as the net-inflow
// ratio, the share of turnover in outsized-amount days as large-order
// participation, volume/price co-movement, and a coarse volume-trend
// class.
func computeCapitalFlow(_ Config, bars []models.Bar) []column {
	const win = 10
	n := len(bars)

	clv := make([]float64, n)
	for i, b := range bars {
		if b.High > b.Low {
			clv[i] = ((b.Close - b.Low) - (b.High - b.Close)) / (b.High - b.Low)
		}
	}
	nir := sma(clv, 5)
	nir.name = FieldNetInflowRatio

	lor := newColumn(FieldLargeOrderRatio, n)
	for i := win - 1; i < n; i++ {
		total, mean := 0.0, 0.0
		for m := i - win + 1; m <= i; m++ {
			total += bars[m].Amount
		}
		mean = total / win
		if total == 0 {
			lor.set(i, 0)
			continue
		}
		big := 0.0
		for m := i - win + 1; m <= i; m++ {
			if bars[m].Amount >= 2*mean {
				big += bars[m].Amount
			}
		}
		lor.set(i, big/total)
	}

	corr := newColumn(FieldVPCorr, n)
	for i := win; i < n; i++ {
		var dp, dv [win]float64
		for m := 0; m < win; m++ {
			j := i - win + 1 + m
			dp[m] = bars[j].Close - bars[j-1].Close
			dv[m] = float64(bars[j].Volume - bars[j-1].Volume)
		}
		corr.set(i, pearson(dp[:], dv[:]))
	}

	trend := newColumn(FieldVolumeTrend, n)
	for i := win - 1; i < n; i++ {
		trend.set(i, classifyVolumeTrend(bars[i-win+1:i+1]))
	}

	return []column{nir, lor, corr, trend}
}

func pearson(x, y []float64) float64 {
	n := float64(len(x))
	if n == 0 {
		return 0
	}
	var sx, sy float64
	for i := range x {
		sx += x[i]
		sy += y[i]
	}
	mx, my := sx/n, sy/n
	var cov, vx, vy float64
	for i := range x {
		dx, dy := x[i]-mx, y[i]-my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	}
	if vx == 0 || vy == 0 {
		return 0
	}
	return cov / math.Sqrt(vx*vy)
}

// classifyVolumeTrend buckets a trailing volume window: rising recent
// mean marks an increasing trend, a high coefficient of variation marks
// intermittent bursts, a low one marks stable turnover.
func classifyVolumeTrend(win []models.Bar) float64 {
	half := len(win) / 2
	var early, late float64
	for i, b := range win {
		if i < half {
			early += float64(b.Volume)
		} else {
			late += float64(b.Volume)
		}
	}
	early /= float64(half)
	late /= float64(len(win) - half)

	mean, ss := 0.0, 0.0
	for _, b := range win {
		mean += float64(b.Volume)
	}
	mean /= float64(len(win))
	for _, b := range win {
		d := float64(b.Volume) - mean
		ss += d * d
	}
	cv := 0.0
	if mean > 0 {
		cv = math.Sqrt(ss/float64(len(win))) / mean
	}

	switch {
	case early > 0 && late > early*1.2:
		return VolumeTrendIncreasing
	case cv > 0.8:
		return VolumeTrendIntermittent
	case cv < 0.3:
		return VolumeTrendStable
	default:
		return VolumeTrendOther
	}
}
