package scoring

import (
	"context"
	"fmt"

	"FinRank/internal/domain/models"
	domrepo "FinRank/internal/domain/repository"
	"FinRank/internal/indicator"
	applogger "FinRank/pkg/logger"
)

// requiredFields are the indicator fields the dimension scorers read.
// Absence is tolerated per record; the pre-check only surfaces batch-wide
// null ratios as advisory warnings.
var requiredFields = []string{
	indicator.FieldSMA5,
	indicator.FieldSMA10,
	indicator.FieldSMA20,
	indicator.FieldMA10Angle,
	indicator.FieldHigh52,
	indicator.FieldLow52,
	indicator.FieldVol20,
	indicator.FieldRSI12,
	indicator.FieldMACDDif,
	indicator.FieldKDJK,
	indicator.FieldBollMid,
}

// precheck inspects the batch for missing required fields, excessive null
// ratios and unknown industry labels, collecting advisory warnings. It
// never blocks computation.
func (e *Engine) precheck(ctx context.Context, recs []models.IndicatorRecord, cls domrepo.ClassificationSource) {
	if len(recs) == 0 {
		return
	}

	missing := make(map[string]int, len(requiredFields))
	for _, r := range recs {
		for _, f := range requiredFields {
			if _, ok := r.Fields[f]; !ok {
				missing[f]++
			}
		}
	}
	for _, f := range requiredFields {
		ratio := float64(missing[f]) / float64(len(recs))
		if ratio > e.cfg.NullRatioWarn {
			e.warnings.Add("null_ratio",
				fmt.Sprintf("field %s absent in %.0f%% of records", f, ratio*100))
		}
	}

	if cls == nil {
		return
	}
	known := make(map[string]bool)
	for _, ind := range cls.KnownIndustries(ctx) {
		known[ind] = true
	}
	if len(known) == 0 {
		return
	}
	seen := make(map[string]bool)
	for _, r := range recs {
		if seen[r.InstrumentID] {
			continue
		}
		seen[r.InstrumentID] = true
		c, ok := cls.Lookup(ctx, r.InstrumentID)
		if ok && c.Industry != "" && !known[c.Industry] {
			e.warnings.Add("unknown_industry",
				fmt.Sprintf("instrument %s: industry %q not in reference set", r.InstrumentID, c.Industry))
			if e.log != nil {
				e.log.Warn("industry label outside reference set",
					applogger.String("instrument", r.InstrumentID),
					applogger.String("industry", c.Industry))
			}
		}
	}
}
