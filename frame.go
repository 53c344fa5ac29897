package dataparser

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Frame is the Table produced by the local backend. It wraps a gota
// DataFrame holding one string series per requested column, with rows in
// input line order.
type Frame struct {
	df      dataframe.DataFrame
	columns []string
	stats   ParseStats
}

// newFrame builds the dataframe column-wise so that a parse yielding zero
// rows still produces a well-formed table with the requested columns.
func newFrame(records [][]string, columns []string, stats ParseStats) (*Frame, error) {
	ss := make([]series.Series, len(columns))
	for i, name := range columns {
		vals := make([]string, len(records))
		for j, record := range records {
			vals[j] = record[i]
		}
		ss[i] = series.New(vals, series.String, name)
	}

	df := dataframe.New(ss...)
	if df.Err != nil {
		return nil, fmt.Errorf("assembling dataframe: %w", df.Err)
	}
	return &Frame{df: df, columns: columns, stats: stats}, nil
}

// Columns returns the column names in declaration order.
func (f *Frame) Columns() []string {
	columns := make([]string, len(f.columns))
	copy(columns, f.columns)
	return columns
}

// Mode returns Local.
func (f *Frame) Mode() Mode {
	return Local
}

// DataFrame exposes the underlying gota dataframe for further analysis.
func (f *Frame) DataFrame() dataframe.DataFrame {
	return f.df
}

// NumRows returns the number of data rows.
func (f *Frame) NumRows() int {
	return f.df.Nrow()
}

// Records returns the data rows in input line order. The header row of the
// underlying dataframe is excluded.
func (f *Frame) Records() [][]string {
	records := f.df.Records()
	if len(records) <= 1 {
		return nil
	}
	return records[1:]
}

// WriteCSV writes the table to w, header row first.
func (f *Frame) WriteCSV(w io.Writer) error {
	return f.df.WriteCSV(w)
}

// Stats returns the diagnostic counts of the parse run that built the Frame.
func (f *Frame) Stats() ParseStats {
	return f.stats
}

func (f *Frame) String() string {
	return fmt.Sprintf("Frame(%s rows x %d columns)",
		humanize.Comma(int64(f.df.Nrow())), len(f.columns))
}
