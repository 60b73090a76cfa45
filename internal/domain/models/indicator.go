package models

// IndicatorRecord is a bar extended with named numeric indicator fields.
// A field that cannot be computed yet (insufficient history) is simply
// absent from the map; absent is never encoded as zero.
type IndicatorRecord struct {
	Bar
	Fields map[string]float64
}

// NewIndicatorRecord wraps a bar with an empty field set.
func NewIndicatorRecord(b Bar) IndicatorRecord {
	return IndicatorRecord{Bar: b, Fields: make(map[string]float64)}
}

// Field returns the named field and whether it is present.
func (r IndicatorRecord) Field(name string) (float64, bool) {
	v, ok := r.Fields[name]
	return v, ok
}

// FieldOr returns the named field or the given default when absent.
func (r IndicatorRecord) FieldOr(name string, def float64) float64 {
	if v, ok := r.Fields[name]; ok {
		return v
	}
	return def
}

// Has reports whether every named field is present.
func (r IndicatorRecord) Has(names ...string) bool {
	for _, n := range names {
		if _, ok := r.Fields[n]; !ok {
			return false
		}
	}
	return true
}
