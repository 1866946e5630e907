package keepalive

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

func TestSettleRunsEveryOperation(t *testing.T) {
	var ran int32
	boom := errors.New("boom")

	ops := []operation{
		{name: "ok-1", run: func(ctx context.Context) error { atomic.AddInt32(&ran, 1); return nil }},
		{name: "fails", run: func(ctx context.Context) error { atomic.AddInt32(&ran, 1); return boom }},
		{name: "ok-2", run: func(ctx context.Context) error { atomic.AddInt32(&ran, 1); return nil }},
	}

	results := settle(context.Background(), ops)

	if ran != 3 {
		t.Errorf("ran %d operations, want 3 (a failure must not abort siblings)", ran)
	}
	if len(results) != 3 {
		t.Fatalf("results length = %d, want 3", len(results))
	}
	for i, res := range results {
		if res.Index != i || res.Name != ops[i].name {
			t.Errorf("result %d out of order: %+v", i, res)
		}
	}
	if results[1].OK || results[1].Error != "boom" {
		t.Errorf("failing op result = %+v", results[1])
	}

	tl := tally(results)
	if tl.Total != 3 || tl.Successful != 2 || tl.Failed != 1 {
		t.Errorf("tally = %+v", tl)
	}
}
