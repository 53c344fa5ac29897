package dataparser

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/zhiyong9654/data-parser/internal/pool"
	"github.com/zhiyong9654/data-parser/internal/source"
)

// localBackend runs the parse stages in-process on a bounded goroutine
// pool. Rows come back in input line order.
type localBackend struct{}

// localRecords is the intermediate handle between mapFilter and
// collectTable: the surviving records plus the counts gathered while
// filtering.
type localRecords struct {
	records [][]string
	stats   ParseStats
}

func (b *localBackend) resolveLines(ctx context.Context, run *parseRun) (interface{}, error) {
	reader := run.src.reader
	run.logger.WithFields(logrus.Fields{
		"files": len(reader.Paths()),
	}).Debug("resolved input files")
	return reader, nil
}

func (b *localBackend) mapFilter(ctx context.Context, run *parseRun, lines interface{}) (interface{}, error) {
	reader := lines.(*source.Reader)

	// The map stage. A nil record is the absent marker of a non-matching
	// line under Ignore; under Raise the first such line fails the pool.
	apply := func(line string) ([]string, error) {
		groups, ok := run.pattern.Apply(line)
		if !ok {
			if run.onError == Raise {
				return nil, &ParseError{Line: line}
			}
			return nil, nil
		}
		return groups, nil
	}

	mapped, err := pool.MapOrdered(ctx, run.src.workers, reader.Next, apply)
	reader.Close()
	if err != nil {
		return nil, err
	}

	// The filter stage removes the absent markers before table assembly.
	records := make([][]string, 0, len(mapped))
	dropped := 0
	for _, record := range mapped {
		if record == nil {
			dropped++
			continue
		}
		records = append(records, record)
	}
	if dropped > 0 {
		run.logger.WithFields(logrus.Fields{
			"dropped": dropped,
		}).Debug("dropped non-matching lines")
	}

	return &localRecords{
		records: records,
		stats: ParseStats{
			LinesRead: len(mapped),
			Rows:      len(records),
			Dropped:   dropped,
		},
	}, nil
}

func (b *localBackend) collectTable(ctx context.Context, run *parseRun, records interface{}) (Table, error) {
	lr := records.(*localRecords)

	frame, err := newFrame(lr.records, run.columns, lr.stats)
	if err != nil {
		return nil, err
	}
	run.logger.WithFields(logrus.Fields{
		"lines":   lr.stats.LinesRead,
		"rows":    lr.stats.Rows,
		"dropped": lr.stats.Dropped,
	}).Info("parse complete")
	return frame, nil
}
