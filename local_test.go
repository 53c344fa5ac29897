package dataparser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/zhiyong9654/data-parser/internal/testutil"
)

// parseFrame runs a local parse and unwraps the Frame.
func parseFrame(t *testing.T, src *Source, pattern string, columns []string, onError ErrorPolicy) *Frame {
	t.Helper()

	table, err := src.Parse(context.Background(), pattern, columns, onError)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	frame, ok := table.(*Frame)
	if !ok {
		t.Fatalf("expected a *Frame, got %T", table)
	}
	return frame
}

func TestParseZeroMatchingFiles(t *testing.T) {
	dir := testutil.TempDir(t)

	src, err := New(filepath.Join(dir, "*.log"), Local, WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	frame := parseFrame(t, src, `(\d+)`, []string{"n"}, Raise)

	if frame.NumRows() != 0 {
		t.Errorf("expected 0 rows, got %d", frame.NumRows())
	}
	if diff := cmp.Diff([]string{"n"}, frame.Columns()); diff != "" {
		t.Errorf("columns mismatch (-expected +actual):\n%s", diff)
	}
}

func TestParseConcreteScenario(t *testing.T) {
	src := localSource(t, "2024-01-01 ERROR boom\n2024-01-02 INFO ok\n")

	frame := parseFrame(t, src,
		`(\d{4}-\d{2}-\d{2}) (\w+) (.*)`, []string{"date", "level", "msg"}, Raise)

	expected := [][]string{
		{"2024-01-01", "ERROR", "boom"},
		{"2024-01-02", "INFO", "ok"},
	}
	if diff := cmp.Diff(expected, frame.Records()); diff != "" {
		t.Errorf("records mismatch (-expected +actual):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"date", "level", "msg"}, frame.Columns()); diff != "" {
		t.Errorf("columns mismatch (-expected +actual):\n%s", diff)
	}
	if frame.Mode() != Local {
		t.Errorf("expected mode %q, got %q", Local, frame.Mode())
	}
}

func TestParseSearchesAnywhereInLine(t *testing.T) {
	src := localSource(t, "request done latency=123ms status=200\n")

	frame := parseFrame(t, src, `latency=(\d+)ms`, []string{"latency"}, Raise)

	expected := [][]string{{"123"}}
	if diff := cmp.Diff(expected, frame.Records()); diff != "" {
		t.Errorf("records mismatch (-expected +actual):\n%s", diff)
	}
}

func TestParseEmptyCaptureBecomesEmptyCell(t *testing.T) {
	src := localSource(t, "12\n34 extra\n")

	frame := parseFrame(t, src, `(\d+)( extra)?`, []string{"n", "suffix"}, Raise)

	expected := [][]string{
		{"12", ""},
		{"34", " extra"},
	}
	if diff := cmp.Diff(expected, frame.Records()); diff != "" {
		t.Errorf("records mismatch (-expected +actual):\n%s", diff)
	}
}

func TestParseRaiseFailsFast(t *testing.T) {
	var content strings.Builder
	for i := 0; i < 99; i++ {
		fmt.Fprintf(&content, "%d ok\n", i)
	}
	content.WriteString("this line has no number prefix\n")

	src := localSource(t, content.String())

	table, err := src.Parse(context.Background(), `^(\d+) (\w+)`, []string{"n", "status"}, Raise)
	if table != nil {
		t.Errorf("expected no partial table, got %d rows", table.(*Frame).NumRows())
	}

	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if parseErr.Line != "this line has no number prefix" {
		t.Errorf("expected the offending line, got %q", parseErr.Line)
	}
}

func TestParseIgnoreDropsOnlyNonMatching(t *testing.T) {
	var content strings.Builder
	for i := 0; i < 50; i++ {
		fmt.Fprintf(&content, "%d ok\n", i)
	}
	content.WriteString("garbage in the middle\n")
	for i := 50; i < 100; i++ {
		fmt.Fprintf(&content, "%d ok\n", i)
	}

	src := localSource(t, content.String())

	frame := parseFrame(t, src, `^(\d+) (\w+)`, []string{"n", "status"}, Ignore)

	if frame.NumRows() != 100 {
		t.Fatalf("expected 100 rows, got %d", frame.NumRows())
	}
	for i, record := range frame.Records() {
		if record[0] != fmt.Sprintf("%d", i) {
			t.Fatalf("row %d out of order: got %q", i, record[0])
		}
	}

	stats := frame.Stats()
	if stats.LinesRead != 101 || stats.Rows != 100 || stats.Dropped != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestParseIdempotenceAcrossSources(t *testing.T) {
	path := testutil.TempFile(t, "1 a\nnope\n2 b\n3 c\n")

	parse := func() [][]string {
		src, err := New(path, Local, WithLogger(quietLogger()))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return parseFrame(t, src, `^(\d+) (\w+)$`, []string{"n", "v"}, Ignore).Records()
	}

	first := parse()
	second := parse()
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("parses differ (-first +second):\n%s", diff)
	}
}

func TestParsePreservesOrderAcrossFiles(t *testing.T) {
	dir := testutil.TempDir(t)
	testutil.CreateFileTree(t, dir, map[string]string{
		"a.log": "1 one\n2 two\n",
		"b.log": "3 three\n",
		"c.log": "4 four\n5 five\n",
	})

	src, err := New(filepath.Join(dir, "*.log"), Local,
		WithLogger(quietLogger()), WithWorkers(4))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	frame := parseFrame(t, src, `^(\d+) (\w+)$`, []string{"n", "word"}, Raise)

	expected := [][]string{
		{"1", "one"}, {"2", "two"}, {"3", "three"}, {"4", "four"}, {"5", "five"},
	}
	if diff := cmp.Diff(expected, frame.Records()); diff != "" {
		t.Errorf("records mismatch (-expected +actual):\n%s", diff)
	}
}

func TestParseManyLinesKeepOrderWithWorkers(t *testing.T) {
	var content strings.Builder
	for i := 0; i < 500; i++ {
		fmt.Fprintf(&content, "%d value-%d\n", i, i)
	}

	path := testutil.TempFile(t, content.String())
	src, err := New(path, Local, WithLogger(quietLogger()), WithWorkers(8))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	frame := parseFrame(t, src, `^(\d+) (\S+)$`, []string{"n", "value"}, Raise)

	if frame.NumRows() != 500 {
		t.Fatalf("expected 500 rows, got %d", frame.NumRows())
	}
	for i, record := range frame.Records() {
		if record[0] != fmt.Sprintf("%d", i) || record[1] != fmt.Sprintf("value-%d", i) {
			t.Fatalf("row %d out of order: %v", i, record)
		}
	}
}

func TestParseSecondParseSeesExhaustedSource(t *testing.T) {
	src := localSource(t, "1 a\n2 b\n")

	first := parseFrame(t, src, `^(\d+) (\w+)$`, []string{"n", "v"}, Raise)
	if first.NumRows() != 2 {
		t.Fatalf("expected 2 rows on first parse, got %d", first.NumRows())
	}

	second := parseFrame(t, src, `^(\d+) (\w+)$`, []string{"n", "v"}, Raise)
	if second.NumRows() != 0 {
		t.Errorf("expected 0 rows on second parse, got %d", second.NumRows())
	}
	if diff := cmp.Diff([]string{"n", "v"}, second.Columns()); diff != "" {
		t.Errorf("columns mismatch (-expected +actual):\n%s", diff)
	}
}

func TestParseCompressedSourcesMatchPlain(t *testing.T) {
	content := "2024-01-01 ERROR boom\n2024-01-02 INFO ok\n"
	pattern := `(\d{4}-\d{2}-\d{2}) (\w+) (.*)`
	columns := []string{"date", "level", "msg"}

	dir := testutil.TempDir(t)
	testutil.CreateFileTree(t, dir, map[string]string{"plain.log": content})
	testutil.WriteGzipFile(t, filepath.Join(dir, "gzip.log.gz"), content)
	testutil.WriteZstdFile(t, filepath.Join(dir, "zstd.log.zst"), content)

	var frames []*Frame
	for _, glob := range []string{"plain.log", "gzip.log.gz", "zstd.log.zst"} {
		src, err := New(filepath.Join(dir, glob), Local, WithLogger(quietLogger()))
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", glob, err)
		}
		frames = append(frames, parseFrame(t, src, pattern, columns, Raise))
	}

	for i := 1; i < len(frames); i++ {
		if diff := cmp.Diff(frames[0].Records(), frames[i].Records()); diff != "" {
			t.Errorf("records mismatch between plain and compressed (-plain +compressed):\n%s", diff)
		}
	}
}

func TestFrameWriteCSV(t *testing.T) {
	src := localSource(t, "2024-01-01 ERROR boom\n2024-01-02 INFO ok\n")

	frame := parseFrame(t, src,
		`(\d{4}-\d{2}-\d{2}) (\w+) (.*)`, []string{"date", "level", "msg"}, Raise)

	var buf bytes.Buffer
	if err := frame.WriteCSV(&buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := "date,level,msg\n2024-01-01,ERROR,boom\n2024-01-02,INFO,ok\n"
	if buf.String() != expected {
		t.Errorf("csv mismatch:\nexpected: %q\nactual: %q", expected, buf.String())
	}
}
