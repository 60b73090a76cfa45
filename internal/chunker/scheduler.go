package chunker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"FinRank/internal/domain/models"
	domrepo "FinRank/internal/domain/repository"
	applogger "FinRank/pkg/logger"
)

// ErrorPolicy controls how the scheduler reacts to a failed chunk.
type ErrorPolicy string

const (
	// PolicyContinue records the failure and keeps dispatching.
	PolicyContinue ErrorPolicy = "continue"
	// PolicyStop lets already-dispatched chunks finish but dispatches no
	// further ones.
	PolicyStop ErrorPolicy = "stop"
	// PolicyRetry retries a failed chunk with fixed backoff before giving
	// up on it; dispatch continues either way.
	PolicyRetry ErrorPolicy = "retry"
)

// Config bounds one parallel run.
type Config struct {
	Workers      int           `yaml:"workers" default:"4" validate:"gte=1"`
	ChunkSize    int           `yaml:"chunk_size" default:"10000" validate:"gte=1"`
	WaveSize     int           `yaml:"wave_size" default:"50" validate:"gte=1"`
	ChunkTimeout time.Duration `yaml:"chunk_timeout" default:"300s"`
	ErrorPolicy  ErrorPolicy   `yaml:"error_policy" default:"continue" validate:"oneof=continue stop retry"`
	RetryMax     int           `yaml:"retry_max" default:"2" validate:"gte=0"`
	RetryBackoff time.Duration `yaml:"retry_backoff" default:"1s"`
}

// DefaultConfig returns the standard pool parameters.
func DefaultConfig() Config {
	return Config{
		Workers:      4,
		ChunkSize:    10000,
		WaveSize:     50,
		ChunkTimeout: 300 * time.Second,
		ErrorPolicy:  PolicyContinue,
		RetryMax:     2,
		RetryBackoff: time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Workers <= 0 {
		c.Workers = d.Workers
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = d.ChunkSize
	}
	if c.WaveSize <= 0 {
		c.WaveSize = d.WaveSize
	}
	if c.ChunkTimeout <= 0 {
		c.ChunkTimeout = d.ChunkTimeout
	}
	if c.ErrorPolicy == "" {
		c.ErrorPolicy = d.ErrorPolicy
	}
	if c.RetryMax < 0 {
		c.RetryMax = d.RetryMax
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = d.RetryBackoff
	}
	return c
}

// Operation transforms one chunk of rows into output rows. It must not
// retain or mutate the input slice beyond the call; each worker owns its
// chunk copy.
type Operation[T any] func(ctx context.Context, rows []T) ([]T, error)

// Scheduler partitions a dataset into chunks, dispatches them to a
// bounded worker pool in waves, and merges results preserving chunk
// order. Chunk failures never fail the run: the chunk's original rows are
// substituted and the error recorded on the summary.
type Scheduler[T any] struct {
	cfg     Config
	log     *applogger.Logger
	metrics domrepo.Metrics
}

// NewScheduler creates a scheduler. log and metrics may be nil.
func NewScheduler[T any](cfg Config, log *applogger.Logger, metrics domrepo.Metrics) *Scheduler[T] {
	return &Scheduler[T]{cfg: cfg.withDefaults(), log: log, metrics: metrics}
}

type chunk[T any] struct {
	id   int
	rows []T
}

type chunkOutcome[T any] struct {
	dispatched bool
	result     models.ProcessingResult
	rows       []T
}

// Run executes op over rows. keyFn, when non-nil, groups rows so that no
// chunk ever splits one key's rows (window-based transforms would be
// wrong at a split); group order follows first appearance. A nil op is a
// contract error; everything else surfaces through the summary.
func (s *Scheduler[T]) Run(ctx context.Context, rows []T, keyFn func(T) string, op Operation[T]) ([]T, models.RunSummary, error) {
	summary := models.RunSummary{}
	if op == nil {
		return nil, summary, fmt.Errorf("chunker: nil operation")
	}
	if len(rows) == 0 {
		return nil, summary, nil
	}

	chunks := s.partition(rows, keyFn)

	start := time.Now()
	outcomes := make([]chunkOutcome[T], len(chunks))
	var stopped atomic.Bool

	for wave := 0; wave < len(chunks); wave += s.cfg.WaveSize {
		end := wave + s.cfg.WaveSize
		if end > len(chunks) {
			end = len(chunks)
		}
		s.runWave(ctx, chunks[wave:end], op, outcomes, &stopped)
	}
	summary.Duration = time.Since(start)

	// Merge preserves chunk order. Chunks never dispatched under the stop
	// policy pass their rows through untouched and do not count as
	// attempted.
	merged := make([]T, 0, len(rows))
	for i := range outcomes {
		o := outcomes[i]
		merged = append(merged, o.rows...)
		summary.Rows += o.result.RowCount
		if !o.dispatched {
			continue
		}
		summary.ChunksAttempted++
		if o.result.Success {
			summary.ChunksSucceeded++
		} else {
			summary.ChunksFailed++
			summary.Errors = append(summary.Errors, o.result.Errors...)
		}
	}
	if secs := summary.Duration.Seconds(); secs > 0 {
		summary.RowsPerSecond = float64(summary.Rows) / secs
	}

	if s.metrics != nil {
		s.metrics.RecordRows(summary.Rows)
		s.metrics.RecordThroughput(summary.RowsPerSecond)
	}
	if s.log != nil {
		s.log.Info("parallel run complete",
			applogger.Int("chunks", summary.ChunksAttempted),
			applogger.Int("failed", summary.ChunksFailed),
			applogger.Int("rows", summary.Rows),
			applogger.Duration("duration", summary.Duration))
	}
	return merged, summary, nil
}

// partition groups rows by key (first-seen order) and packs whole groups
// into chunks of roughly ChunkSize rows. A group larger than ChunkSize
// becomes its own oversized chunk rather than being split.
func (s *Scheduler[T]) partition(rows []T, keyFn func(T) string) []chunk[T] {
	var groups [][]T
	if keyFn == nil {
		for i := 0; i < len(rows); i += s.cfg.ChunkSize {
			end := i + s.cfg.ChunkSize
			if end > len(rows) {
				end = len(rows)
			}
			groups = append(groups, rows[i:end])
		}
	} else {
		index := make(map[string]int)
		for _, r := range rows {
			k := keyFn(r)
			i, ok := index[k]
			if !ok {
				i = len(groups)
				index[k] = i
				groups = append(groups, nil)
			}
			groups[i] = append(groups[i], r)
		}
	}

	var chunks []chunk[T]
	var cur []T
	flush := func() {
		if len(cur) > 0 {
			chunks = append(chunks, chunk[T]{id: len(chunks), rows: cur})
			cur = nil
		}
	}
	for _, g := range groups {
		if len(cur) > 0 && len(cur)+len(g) > s.cfg.ChunkSize {
			flush()
		}
		cur = append(cur, g...)
		if len(cur) >= s.cfg.ChunkSize {
			flush()
		}
	}
	flush()
	return chunks
}

func (s *Scheduler[T]) runWave(ctx context.Context, wave []chunk[T], op Operation[T], outcomes []chunkOutcome[T], stopped *atomic.Bool) {
	pending := make(chan chunk[T])
	var wg sync.WaitGroup

	workers := s.cfg.Workers
	if workers > len(wave) {
		workers = len(wave)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range pending {
				o := s.runChunk(ctx, c, op)
				o.dispatched = true
				outcomes[c.id] = o
				if !o.result.Success && s.cfg.ErrorPolicy == PolicyStop {
					stopped.Store(true)
				}
			}
		}()
	}

	for _, c := range wave {
		if stopped.Load() {
			// Not dispatched: pass the original rows through untouched.
			outcomes[c.id] = chunkOutcome[T]{
				result: models.ProcessingResult{ChunkID: c.id, RowCount: len(c.rows)},
				rows:   c.rows,
			}
			continue
		}
		pending <- c
	}
	close(pending)
	wg.Wait()
}

// runChunk executes one chunk with a per-chunk timeout and, under the
// retry policy, bounded retries with fixed backoff. On final failure the
// chunk's original unprocessed rows are substituted so nothing is
// silently dropped.
func (s *Scheduler[T]) runChunk(ctx context.Context, c chunk[T], op Operation[T]) chunkOutcome[T] {
	started := time.Now()
	result := models.ProcessingResult{ChunkID: c.id}

	attempts := 1
	if s.cfg.ErrorPolicy == PolicyRetry {
		attempts += s.cfg.RetryMax
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		out, err := s.attempt(ctx, c.rows, op)
		if err == nil {
			result.Success = true
			result.RowCount = len(out)
			result.Duration = time.Since(started)
			s.recordChunk("ok")
			return chunkOutcome[T]{result: result, rows: out}
		}
		result.Errors = append(result.Errors, models.ChunkError{ChunkID: c.id, Attempt: attempt, Err: err.Error()})
		if s.log != nil {
			s.log.Warn("chunk attempt failed",
				applogger.Int("chunk", c.id),
				applogger.Int("attempt", attempt),
				applogger.Error(err))
		}
		if attempt < attempts {
			select {
			case <-time.After(s.cfg.RetryBackoff):
			case <-ctx.Done():
				attempt = attempts
			}
		}
	}

	result.Success = false
	result.RowCount = len(c.rows)
	result.Duration = time.Since(started)
	s.recordChunk("failed")
	return chunkOutcome[T]{result: result, rows: c.rows}
}

// attempt runs op once with panic isolation and the chunk timeout.
func (s *Scheduler[T]) attempt(ctx context.Context, rows []T, op Operation[T]) ([]T, error) {
	type reply struct {
		rows []T
		err  error
	}
	done := make(chan reply, 1)
	cctx, cancel := context.WithTimeout(ctx, s.cfg.ChunkTimeout)
	defer cancel()

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- reply{err: fmt.Errorf("chunk panic: %v", r)}
			}
		}()
		out, err := op(cctx, rows)
		done <- reply{rows: out, err: err}
	}()

	select {
	case r := <-done:
		return r.rows, r.err
	case <-cctx.Done():
		if ctx.Err() != nil {
			return nil, fmt.Errorf("chunk canceled: %w", ctx.Err())
		}
		return nil, fmt.Errorf("chunk timeout after %s", s.cfg.ChunkTimeout)
	}
}

func (s *Scheduler[T]) recordChunk(status string) {
	if s.metrics != nil {
		s.metrics.RecordChunk(status)
	}
}
