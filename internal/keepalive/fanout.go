package keepalive

import (
	"context"
	"sync"
)

// operation is one independent store interaction inside a batch.
type operation struct {
	name string
	run  func(ctx context.Context) error
}

// OpResult is the recorded outcome of one operation in a batch.
type OpResult struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// OpTally summarizes a settled batch.
type OpTally struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

// settle dispatches every operation in its own goroutine and waits for the
// whole batch. A failing operation never aborts its siblings; each outcome is
// recorded in order. There are no retries: one best-effort pass.
func settle(ctx context.Context, ops []operation) []OpResult {
	results := make([]OpResult, len(ops))

	var wg sync.WaitGroup
	wg.Add(len(ops))
	for i, op := range ops {
		go func(i int, op operation) {
			defer wg.Done()
			res := OpResult{Index: i, Name: op.name, OK: true}
			if err := op.run(ctx); err != nil {
				res.OK = false
				res.Error = err.Error()
			}
			results[i] = res
		}(i, op)
	}
	wg.Wait()

	return results
}

// tally counts outcomes of a settled batch.
func tally(results []OpResult) OpTally {
	t := OpTally{Total: len(results)}
	for _, r := range results {
		if r.OK {
			t.Successful++
		} else {
			t.Failed++
		}
	}
	return t
}
