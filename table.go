package dataparser

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// Table is the backend-independent result of a Parse call. Each cell holds
// the raw captured substring of one group; no type coercion is applied.
// The local backend returns a *Frame, the distributed backend a *Dataset.
type Table interface {
	// Columns returns the column names in declaration order.
	Columns() []string
	// Mode reports which backend produced the table.
	Mode() Mode
}

// ParseStats summarizes one local parse run. Lines dropped under the Ignore
// policy do not appear in the table but are counted here; the distributed
// backend reports the equivalent numbers through engine counters instead.
type ParseStats struct {
	// LinesRead is the number of input lines inspected.
	LinesRead int
	// Rows is the number of lines that matched and became table rows.
	Rows int
	// Dropped is the number of non-matching lines discarded under Ignore.
	Dropped int
}

func (s ParseStats) String() string {
	return fmt.Sprintf("read %s lines, kept %s rows, dropped %s",
		humanize.Comma(int64(s.LinesRead)),
		humanize.Comma(int64(s.Rows)),
		humanize.Comma(int64(s.Dropped)))
}
