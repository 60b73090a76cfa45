package models

import "time"

// CompletionReport describes the outcome of gap completion for one instrument.
// Success=false marks fill quality below the caller's threshold; the caller
// may then re-fetch instead of trusting filled data.
type CompletionReport struct {
	InstrumentID  string
	Success       bool
	OriginalCount int
	FilledCount   int
	QualityScore  float64 // 0..1
	MissingDates  []time.Time
	FilledDates   []time.Time
}

// ChunkError records one failed chunk.
type ChunkError struct {
	ChunkID int
	Attempt int
	Err     string
}

// ProcessingResult is produced by one worker for one chunk.
type ProcessingResult struct {
	ChunkID  int
	Success  bool
	RowCount int
	Errors   []ChunkError
	Duration time.Duration
}

// RunSummary aggregates chunk results for one parallel run. It is always
// returned, even on partial failure; callers inspect Failed/Errors instead
// of relying on an error value.
type RunSummary struct {
	ChunksAttempted int
	ChunksSucceeded int
	ChunksFailed    int
	Rows            int
	RowsPerSecond   float64
	Duration        time.Duration
	Errors          []ChunkError
	Warnings        []Warning
}

// Warning is an advisory data-quality note attached to run metadata.
// Warnings never block computation.
type Warning struct {
	Kind    string
	Message string
	Count   int
}
