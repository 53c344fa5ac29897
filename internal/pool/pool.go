// Package pool runs a bounded worker pool that applies a function to a
// sequence of lines in parallel while preserving input order in the result.
package pool

import (
	"context"
	"errors"
	"io"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
)

// item carries one line through the pool together with its input position.
type item struct {
	seq  int
	line string
}

// result pairs the outcome of one apply call with its input position.
type result struct {
	seq    int
	record []string
}

// MapOrdered pulls lines from next until it reports io.EOF and applies apply
// to each of them on the given number of workers. Records come back in input
// order; nil records are passed through unchanged so callers can filter them.
//
// The first error from either next or apply cancels all in-flight work and is
// returned with no records. Later errors are discarded, so with parallel
// workers which of several failing lines is reported is not deterministic.
func MapOrdered(ctx context.Context, workers int,
	next func() (string, error), apply func(string) ([]string, error)) ([][]string, error) {

	if workers < 1 {
		workers = runtime.NumCPU()
	}

	g, ctx := errgroup.WithContext(ctx)
	items := make(chan item, workers)
	results := make(chan result, workers)

	// Producer. The single goroutine calling next preserves the sequence
	// numbering of the input.
	g.Go(func() error {
		defer close(items)
		for seq := 0; ; seq++ {
			line, err := next()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return err
			}
			select {
			case items <- item{seq: seq, line: line}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for it := range items {
				record, err := apply(it.line)
				if err != nil {
					return err
				}
				select {
				case results <- result{seq: it.seq, record: record}:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			return nil
		})
	}

	// The collector drains until the workers are done so that no worker
	// blocks on the results channel.
	collected := make([]result, 0, workers)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for res := range results {
			collected = append(collected, res)
		}
	}()

	err := g.Wait()
	close(results)
	<-done

	if err != nil {
		return nil, err
	}

	sort.Slice(collected, func(i, j int) bool {
		return collected[i].seq < collected[j].seq
	})
	records := make([][]string, len(collected))
	for i, res := range collected {
		records[i] = res.record
	}
	return records, nil
}
