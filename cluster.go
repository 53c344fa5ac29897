package dataparser

import (
	"context"
	"encoding/csv"
	"strings"
	"sync"

	"github.com/apache/beam/sdks/v2/go/pkg/beam"
	"github.com/apache/beam/sdks/v2/go/pkg/beam/io/textio"
	"github.com/apache/beam/sdks/v2/go/pkg/beam/log"
	"github.com/apache/beam/sdks/v2/go/pkg/beam/register"
	"github.com/apache/beam/sdks/v2/go/pkg/beam/transforms/filter"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/zhiyong9654/data-parser/internal/config"
	"github.com/zhiyong9654/data-parser/internal/lineparse"

	// Preregistered runners and the local filesystem for textio. Other
	// runners (dataflow, prism, ...) register through their own package
	// import in the caller's binary.
	_ "github.com/apache/beam/sdks/v2/go/pkg/beam/io/filesystem/local"
	_ "github.com/apache/beam/sdks/v2/go/pkg/beam/runners/direct"
	_ "github.com/apache/beam/sdks/v2/go/pkg/beam/runners/flink"
	_ "github.com/apache/beam/sdks/v2/go/pkg/beam/runners/spark"
	_ "github.com/apache/beam/sdks/v2/go/pkg/beam/runners/universal"
)

// Counter names of the distributed backend, queryable from a run's
// PipelineResult.
const (
	counterNamespace   = "dataparser"
	matchedCounterName = "lines_matched"
	droppedCounterName = "lines_dropped"
)

func init() {
	register.DoFn3x1[context.Context, string, func([]string), error](&extractGroupsFn{})
	register.Emitter1[[]string]()
	register.Function1x1(isAbsentRecord)
	register.Function1x1(formatCSVRecord)
}

// Session owns one distributed pipeline and the runner it executes on. All
// distributed Sources bound to the same Session declare their stages on the
// same pipeline, which runs as a whole.
//
// Programs using distributed mode must call beam.Init in main before
// constructing Sessions, per Beam convention (tests use ptest.Main).
type Session struct {
	id       string
	runner   string
	pipeline *beam.Pipeline
	scope    beam.Scope
}

// NewSession creates an independent session on the given runner. An empty
// runner name selects the configured default ("direct", overridable through
// DATAPARSER_RUNNER).
func NewSession(runner string) *Session {
	if runner == "" {
		runner = config.Default().Runner
	}
	pipeline := beam.NewPipeline()
	return &Session{
		id:       uuid.NewString(),
		runner:   runner,
		pipeline: pipeline,
		scope:    pipeline.Root(),
	}
}

var (
	defaultSessionOnce sync.Once
	defaultSession     *Session
)

// DefaultSession returns the lazily created process-wide session used by
// distributed Sources constructed without WithSession.
func DefaultSession() *Session {
	defaultSessionOnce.Do(func() {
		defaultSession = NewSession(config.Default().Runner)
	})
	return defaultSession
}

// ID returns the unique identifier of the session.
func (s *Session) ID() string {
	return s.id
}

// Runner returns the name of the runner the session executes on.
func (s *Session) Runner() string {
	return s.runner
}

// Pipeline returns the session's pipeline.
func (s *Session) Pipeline() *beam.Pipeline {
	return s.pipeline
}

// Scope returns the root scope of the session's pipeline.
func (s *Session) Scope() beam.Scope {
	return s.scope
}

// Run executes everything declared on the session's pipeline so far. A
// DoFn failure, such as a *ParseError under the Raise policy, surfaces as
// the returned error.
func (s *Session) Run(ctx context.Context) (beam.PipelineResult, error) {
	return beam.Run(ctx, s.runner, s.pipeline)
}

// extractGroupsFn applies the parse pattern to each line of the input
// collection. The exported fields travel with the serialized pipeline; the
// compiled pattern is rebuilt per worker in Setup.
type extractGroupsFn struct {
	Pattern string      `json:"pattern"`
	OnError ErrorPolicy `json:"onError"`

	pattern *lineparse.Pattern
	matched beam.Counter
	dropped beam.Counter
}

func (fn *extractGroupsFn) Setup() error {
	pattern, err := lineparse.Compile(fn.Pattern)
	if err != nil {
		return err
	}
	fn.pattern = pattern
	fn.matched = beam.NewCounter(counterNamespace, matchedCounterName)
	fn.dropped = beam.NewCounter(counterNamespace, droppedCounterName)
	return nil
}

func (fn *extractGroupsFn) ProcessElement(ctx context.Context, line string, emit func([]string)) error {
	groups, ok := fn.pattern.Apply(line)
	if !ok {
		if fn.OnError == Raise {
			return &ParseError{Line: line}
		}
		fn.dropped.Inc(ctx, 1)
		log.Debugf(ctx, "dropping non-matching line: %q", line)
		// Emit the absent marker; the filter stage removes it.
		emit([]string{})
		return nil
	}
	fn.matched.Inc(ctx, 1)
	emit(groups)
	return nil
}

// isAbsentRecord identifies the markers emitted for non-matching lines.
func isAbsentRecord(record []string) bool {
	return len(record) == 0
}

// formatCSVRecord renders one record as a CSV line without the trailing
// newline, which the sink adds per element.
func formatCSVRecord(record []string) string {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	w.Write(record)
	w.Flush()
	return strings.TrimSuffix(sb.String(), "\n")
}

// clusterBackend declares the parse stages on the session's Beam pipeline.
// Nothing executes until the session runs.
type clusterBackend struct{}

func (b *clusterBackend) resolveLines(ctx context.Context, run *parseRun) (interface{}, error) {
	scope := run.src.session.scope.Scope("ParseLogLines")
	lines := textio.Read(scope, run.src.path)
	run.logger.WithFields(logrus.Fields{
		"session": run.src.session.ID(),
		"runner":  run.src.session.Runner(),
	}).Debug("declared read stage")
	return stagedLines{scope: scope, lines: lines}, nil
}

func (b *clusterBackend) mapFilter(ctx context.Context, run *parseRun, lines interface{}) (interface{}, error) {
	staged := lines.(stagedLines)

	mapped := beam.ParDo(staged.scope, &extractGroupsFn{
		Pattern: run.pattern.Expr(),
		OnError: run.onError,
	}, staged.lines)
	rows := filter.Exclude(staged.scope, mapped, isAbsentRecord)

	return stagedRows{scope: staged.scope, rows: rows}, nil
}

func (b *clusterBackend) collectTable(ctx context.Context, run *parseRun, records interface{}) (Table, error) {
	staged := records.(stagedRows)

	return &Dataset{
		session: run.src.session,
		scope:   staged.scope,
		rows:    staged.rows,
		columns: run.columns,
	}, nil
}

// stagedLines and stagedRows are the intermediate handles between the
// cluster backend's stages.
type stagedLines struct {
	scope beam.Scope
	lines beam.PCollection
}

type stagedRows struct {
	scope beam.Scope
	rows  beam.PCollection
}

// Dataset is the Table produced by the distributed backend: a deferred
// collection of records declared on a session's pipeline. Rows materialize,
// in no guaranteed order, when the session runs.
type Dataset struct {
	session *Session
	scope   beam.Scope
	rows    beam.PCollection
	columns []string
}

// Columns returns the column names in declaration order.
func (d *Dataset) Columns() []string {
	columns := make([]string, len(d.columns))
	copy(columns, d.columns)
	return columns
}

// Mode returns Distributed.
func (d *Dataset) Mode() Mode {
	return Distributed
}

// PCollection returns the rows collection for further pipeline stages.
func (d *Dataset) PCollection() beam.PCollection {
	return d.rows
}

// Session returns the session whose pipeline holds the dataset's stages.
func (d *Dataset) Session() *Session {
	return d.session
}

// WriteCSV declares a sink stage writing the dataset's records to path as
// CSV data rows. The engine shards and orders the output as it sees fit
// and writes no header row.
func (d *Dataset) WriteCSV(path string) {
	scope := d.scope.Scope("WriteCSV")
	formatted := beam.ParDo(scope, formatCSVRecord, d.rows)
	textio.Write(scope, path, formatted)
}

// Run executes the dataset's session. Shorthand for d.Session().Run(ctx).
func (d *Dataset) Run(ctx context.Context) (beam.PipelineResult, error) {
	return d.session.Run(ctx)
}

// MatchedLines sums the matched-line counters of a finished run.
func MatchedLines(result beam.PipelineResult) int64 {
	return counterTotal(result, matchedCounterName)
}

// DroppedLines sums the dropped-line counters of a finished run.
func DroppedLines(result beam.PipelineResult) int64 {
	return counterTotal(result, droppedCounterName)
}

func counterTotal(result beam.PipelineResult, name string) int64 {
	query := result.Metrics().Query(func(r beam.MetricResult) bool {
		return r.Namespace() == counterNamespace && r.Name() == name
	})
	var total int64
	for _, counter := range query.Counters() {
		total += counter.Result()
	}
	return total
}
