package chunker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type row struct {
	key string
	val int
}

func rowsFor(n int) []row {
	out := make([]row, n)
	for i := range out {
		out[i] = row{key: fmt.Sprintf("K%d", i/10), val: i}
	}
	return out
}

func double(_ context.Context, rows []row) ([]row, error) {
	out := make([]row, len(rows))
	for i, r := range rows {
		out[i] = row{key: r.key, val: r.val * 2}
	}
	return out, nil
}

func TestRunNilOperationIsContractError(t *testing.T) {
	s := NewScheduler[row](DefaultConfig(), nil, nil)
	if _, _, err := s.Run(context.Background(), rowsFor(5), nil, nil); err == nil {
		t.Fatalf("expected error for nil operation")
	}
}

func TestRunPoolSizeDoesNotChangeOutput(t *testing.T) {
	in := rowsFor(250)

	run := func(workers int) []row {
		cfg := DefaultConfig()
		cfg.Workers = workers
		cfg.ChunkSize = 17
		s := NewScheduler[row](cfg, nil, nil)
		out, summary, err := s.Run(context.Background(), in, nil, double)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if summary.ChunksFailed != 0 {
			t.Fatalf("unexpected failures: %+v", summary)
		}
		return out
	}

	one := run(1)
	eight := run(8)
	if len(one) != len(in) || len(eight) != len(in) {
		t.Fatalf("row counts changed: %d / %d, want %d", len(one), len(eight), len(in))
	}
	for i := range one {
		if one[i] != eight[i] {
			t.Fatalf("row %d differs between pool sizes: %+v vs %+v", i, one[i], eight[i])
		}
	}
}

func TestRunFailedChunkIsContained(t *testing.T) {
	in := rowsFor(100)
	cfg := DefaultConfig()
	cfg.ChunkSize = 10
	s := NewScheduler[row](cfg, nil, nil)

	var calls atomic.Int32
	op := func(_ context.Context, rows []row) ([]row, error) {
		if calls.Add(1) == 3 {
			return nil, errors.New("boom")
		}
		out := make([]row, len(rows))
		for i, r := range rows {
			out[i] = row{key: r.key, val: r.val + 1000}
		}
		return out, nil
	}

	out, summary, err := s.Run(context.Background(), in, nil, op)
	if err != nil {
		t.Fatalf("run must not fail on a chunk error: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("rows dropped: got %d, want %d", len(out), len(in))
	}
	if summary.ChunksAttempted != 10 || summary.ChunksFailed != 1 || summary.ChunksSucceeded != 9 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if len(summary.Errors) != 1 {
		t.Fatalf("got %d errors, want 1", len(summary.Errors))
	}
	// the failed chunk passes its original rows through
	untouched := 0
	for i, r := range out {
		if r.val == in[i].val {
			untouched++
		}
	}
	if untouched != 10 {
		t.Fatalf("%d untouched rows, want the failed chunk's 10", untouched)
	}
}

func TestRunStopPolicyHaltsDispatch(t *testing.T) {
	in := rowsFor(50)
	cfg := DefaultConfig()
	cfg.Workers = 1
	cfg.WaveSize = 1
	cfg.ChunkSize = 10
	cfg.ErrorPolicy = PolicyStop
	s := NewScheduler[row](cfg, nil, nil)

	var calls atomic.Int32
	op := func(ctx context.Context, rows []row) ([]row, error) {
		if calls.Add(1) == 2 {
			return nil, errors.New("boom")
		}
		return double(ctx, rows)
	}

	out, summary, err := s.Run(context.Background(), in, nil, op)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.ChunksAttempted != 2 {
		t.Fatalf("attempted %d chunks after stop, want 2", summary.ChunksAttempted)
	}
	if len(out) != len(in) {
		t.Fatalf("undispatched rows dropped: got %d, want %d", len(out), len(in))
	}
	// chunks 3..5 pass through untouched
	for i := 20; i < 50; i++ {
		if out[i].val != in[i].val {
			t.Fatalf("undispatched row %d was modified", i)
		}
	}
}

func TestRunRetryPolicyRecovers(t *testing.T) {
	in := rowsFor(20)
	cfg := DefaultConfig()
	cfg.ChunkSize = 10
	cfg.ErrorPolicy = PolicyRetry
	cfg.RetryMax = 2
	cfg.RetryBackoff = time.Millisecond
	s := NewScheduler[row](cfg, nil, nil)

	var firstChunkTries atomic.Int32
	op := func(ctx context.Context, rows []row) ([]row, error) {
		if rows[0].val == 0 && firstChunkTries.Add(1) == 1 {
			return nil, errors.New("transient")
		}
		return double(ctx, rows)
	}

	out, summary, err := s.Run(context.Background(), in, nil, op)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.ChunksFailed != 0 || summary.ChunksSucceeded != 2 {
		t.Fatalf("retry did not recover: %+v", summary)
	}
	for i, r := range out {
		if r.val != in[i].val*2 {
			t.Fatalf("row %d not processed after retry", i)
		}
	}
}

func TestRunChunkTimeout(t *testing.T) {
	in := rowsFor(10)
	cfg := DefaultConfig()
	cfg.ChunkTimeout = 20 * time.Millisecond
	s := NewScheduler[row](cfg, nil, nil)

	op := func(ctx context.Context, rows []row) ([]row, error) {
		select {
		case <-time.After(time.Second):
			return rows, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	out, summary, err := s.Run(context.Background(), in, nil, op)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.ChunksFailed != 1 {
		t.Fatalf("timeout not recorded as failure: %+v", summary)
	}
	if len(out) != len(in) {
		t.Fatalf("rows dropped on timeout: got %d, want %d", len(out), len(in))
	}
}

func TestRunPanicIsolated(t *testing.T) {
	in := rowsFor(20)
	cfg := DefaultConfig()
	cfg.ChunkSize = 10
	s := NewScheduler[row](cfg, nil, nil)

	op := func(ctx context.Context, rows []row) ([]row, error) {
		if rows[0].val == 0 {
			panic("kaput")
		}
		return double(ctx, rows)
	}

	out, summary, err := s.Run(context.Background(), in, nil, op)
	if err != nil {
		t.Fatalf("panic escaped the worker: %v", err)
	}
	if summary.ChunksFailed != 1 || summary.ChunksSucceeded != 1 {
		t.Fatalf("unexpected summary after panic: %+v", summary)
	}
	if len(out) != len(in) {
		t.Fatalf("rows dropped after panic: got %d, want %d", len(out), len(in))
	}
}

func TestPartitionNeverSplitsAKey(t *testing.T) {
	in := rowsFor(100) // keys K0..K9, 10 rows each
	cfg := DefaultConfig()
	cfg.ChunkSize = 25
	s := NewScheduler[row](cfg, nil, nil)

	var mu sync.Mutex
	seen := make(map[string]int) // key -> number of chunks carrying it
	op := func(ctx context.Context, rows []row) ([]row, error) {
		keys := make(map[string]bool)
		for _, r := range rows {
			keys[r.key] = true
		}
		mu.Lock()
		for k := range keys {
			seen[k]++
		}
		mu.Unlock()
		return rows, nil
	}

	if _, _, err := s.Run(context.Background(), in, func(r row) string { return r.key }, op); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for k, n := range seen {
		if n != 1 {
			t.Fatalf("key %s appears in %d chunks, want 1", k, n)
		}
	}
}

func TestPartitionOversizedGroupKeptWhole(t *testing.T) {
	in := make([]row, 30)
	for i := range in {
		in[i] = row{key: "ONE", val: i}
	}
	cfg := DefaultConfig()
	cfg.ChunkSize = 10
	s := NewScheduler[row](cfg, nil, nil)

	chunks := s.partition(in, func(r row) string { return r.key })
	if len(chunks) != 1 {
		t.Fatalf("oversized group split into %d chunks", len(chunks))
	}
	if len(chunks[0].rows) != 30 {
		t.Fatalf("chunk holds %d rows, want 30", len(chunks[0].rows))
	}
}

func TestRunEmptyInput(t *testing.T) {
	s := NewScheduler[row](DefaultConfig(), nil, nil)
	out, summary, err := s.Run(context.Background(), nil, nil, double)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 0 || summary.ChunksAttempted != 0 {
		t.Fatalf("empty input produced work: %+v", summary)
	}
}
