// Package dataparser turns plain text log files into tabular datasets.
//
// A Source selects input lines through a filesystem glob pattern and an
// execution mode. Parse applies a regular expression with capturing groups
// to every line and assembles the captured substrings into a table whose
// columns the caller names. The same per-line contract runs on two
// backends: Local parses in-process on a bounded goroutine pool,
// Distributed declares the equivalent map and filter stages on an Apache
// Beam pipeline for cluster execution.
//
//	src, err := dataparser.New("/var/log/app/*.log", dataparser.Local)
//	if err != nil {
//		return err
//	}
//	table, err := src.Parse(ctx, `(\d{4}-\d{2}-\d{2}) (\w+) (.*)`,
//		[]string{"date", "level", "msg"}, dataparser.Raise)
//
// Lines the pattern does not match either fail the parse (Raise, the
// default) or are dropped (Ignore).
package dataparser

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/zhiyong9654/data-parser/internal/config"
	"github.com/zhiyong9654/data-parser/internal/lineparse"
	"github.com/zhiyong9654/data-parser/internal/source"
	"github.com/zhiyong9654/data-parser/internal/version"
)

// Mode selects the execution backend of a Source.
type Mode string

const (
	// Local parses in-process on a goroutine pool.
	Local Mode = "local"
	// Distributed declares the parse on an Apache Beam pipeline.
	Distributed Mode = "distributed"
)

// ErrorPolicy controls what happens to input lines the pattern does not
// match.
type ErrorPolicy string

const (
	// Raise fails the whole parse on the first non-matching line. No
	// partial table is returned.
	Raise ErrorPolicy = "raise"
	// Ignore drops non-matching lines and keeps parsing.
	Ignore ErrorPolicy = "ignore"
)

// parseRun carries the validated arguments of one Parse call through the
// backend capabilities.
type parseRun struct {
	src     *Source
	logger  *logrus.Entry
	pattern *lineparse.Pattern
	columns []string
	onError ErrorPolicy
}

// backend is the capability set a Parse run needs from an execution engine.
// The collection values flowing between the stages are backend-specific
// (a line reader and record slices locally, PCollections on a cluster), so
// they travel as opaque handles; an implementation only ever receives the
// handles it produced itself.
type backend interface {
	// resolveLines prepares the line sequence of the source.
	resolveLines(ctx context.Context, run *parseRun) (interface{}, error)
	// mapFilter applies the pattern to every line under the run's error
	// policy and removes the absent markers of non-matching lines.
	mapFilter(ctx context.Context, run *parseRun, lines interface{}) (interface{}, error)
	// collectTable materializes the surviving records into a Table.
	collectTable(ctx context.Context, run *parseRun, records interface{}) (Table, error)
}

// Source is a handle on the log files matched by a glob pattern, bound to
// the backend that will parse them. Sources are safe to configure once and
// parse; the local line sequence is single-pass, so a second local Parse
// sees it exhausted and returns an empty table.
type Source struct {
	path    string
	mode    Mode
	backend backend
	workers int
	logger  *logrus.Logger

	// session is set in Distributed mode only.
	session *Session
	// reader is set in Local mode only and consumed by the first Parse.
	reader *source.Reader
}

// Option configures a Source beyond its path and mode.
type Option func(*Source)

// WithSession binds a distributed Source to the given session instead of
// the process-wide default one. Local mode ignores it.
func WithSession(session *Session) Option {
	return func(s *Source) {
		s.session = session
	}
}

// WithWorkers sets the size of the local parse pool. Values below one
// select the configured default. Distributed mode ignores it, the engine
// sizes its own workers.
func WithWorkers(workers int) Option {
	return func(s *Source) {
		if workers > 0 {
			s.workers = workers
		}
	}
}

// WithLogger routes the Source's log output to the given logger instead of
// the logrus standard logger.
func WithLogger(logger *logrus.Logger) Option {
	return func(s *Source) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New builds a Source for all files matched by the glob pattern path.
//
// In Local mode the glob resolves immediately (a pattern matching zero
// files is valid and parses to an empty table), but file handles are only
// opened while their lines are being parsed and are released as soon as
// each file is consumed.
//
// In Distributed mode the glob is handed to the engine unresolved and
// expands on the cluster at run time.
func New(path string, mode Mode, opts ...Option) (*Source, error) {
	src := &Source{
		path:    path,
		mode:    mode,
		workers: config.Default().Workers,
		logger:  logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(src)
	}

	switch mode {
	case Local:
		reader, err := source.Open(path)
		if err != nil {
			return nil, invalidConfigf("bad glob pattern %q: %v", path, err)
		}
		src.reader = reader
		src.backend = &localBackend{}
	case Distributed:
		if src.session == nil {
			src.session = DefaultSession()
		}
		src.backend = &clusterBackend{}
	default:
		return nil, invalidConfigf("unknown mode %q: expected %q or %q", mode, Local, Distributed)
	}

	src.logger.WithFields(logrus.Fields{
		"version": version.String(),
		"mode":    mode,
		"path":    path,
	}).Debug("source created")
	return src, nil
}

// Path returns the glob pattern the Source was built with.
func (s *Source) Path() string {
	return s.path
}

// Mode returns the execution mode of the Source.
func (s *Source) Mode() Mode {
	return s.mode
}

// Session returns the session a distributed Source is bound to, nil for
// local Sources.
func (s *Source) Session() *Session {
	return s.session
}

// Parse applies pattern to every line of the Source and returns the table
// of captured groups, one column per name in columns.
//
// The pattern matches in search mode: the first match anywhere in the line
// counts, and each capturing group contributes the cell of its column, in
// group order. The number of capturing groups must equal len(columns).
// Lines without a match are handled per onError: Raise (also selected by
// the zero value) fails the parse with a *ParseError and returns no table,
// Ignore drops them. Argument problems are reported as
// ErrInvalidConfiguration before any line is read.
//
// Local tables preserve input line order. Distributed tables carry no row
// order guarantee; the returned *Dataset only declares the work, which
// executes when its session runs.
func (s *Source) Parse(ctx context.Context, pattern string, columns []string, onError ErrorPolicy) (Table, error) {
	policy, err := normalizePolicy(onError)
	if err != nil {
		return nil, err
	}
	compiled, err := lineparse.Compile(pattern)
	if err != nil {
		return nil, invalidConfigf("bad pattern %q: %v", pattern, err)
	}
	if err := validateColumns(columns); err != nil {
		return nil, err
	}
	if got, want := compiled.Groups(), len(columns); got != want {
		return nil, invalidConfigf("pattern %q captures %d groups but %d columns were requested",
			pattern, got, want)
	}

	names := make([]string, len(columns))
	copy(names, columns)

	run := &parseRun{
		src: s,
		logger: s.logger.WithFields(logrus.Fields{
			"run":  uuid.NewString(),
			"mode": s.mode,
			"path": s.path,
		}),
		pattern: compiled,
		columns: names,
		onError: policy,
	}
	run.logger.WithFields(logrus.Fields{
		"pattern": pattern,
		"columns": columns,
		"onError": policy,
	}).Debug("starting parse run")

	lines, err := s.backend.resolveLines(ctx, run)
	if err != nil {
		return nil, err
	}
	records, err := s.backend.mapFilter(ctx, run, lines)
	if err != nil {
		return nil, err
	}
	return s.backend.collectTable(ctx, run, records)
}

func normalizePolicy(onError ErrorPolicy) (ErrorPolicy, error) {
	switch onError {
	case "":
		return Raise, nil
	case Raise, Ignore:
		return onError, nil
	default:
		return "", invalidConfigf("unknown error policy %q: expected %q or %q",
			onError, Raise, Ignore)
	}
}

func validateColumns(columns []string) error {
	if len(columns) == 0 {
		return invalidConfigf("columns must not be empty")
	}
	seen := make(map[string]struct{}, len(columns))
	for i, name := range columns {
		if name == "" {
			return invalidConfigf("column %d has an empty name", i)
		}
		if _, ok := seen[name]; ok {
			return invalidConfigf("duplicate column name %q", name)
		}
		seen[name] = struct{}{}
	}
	return nil
}
