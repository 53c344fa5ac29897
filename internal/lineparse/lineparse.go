// Package lineparse compiles the user-supplied expression that is applied to
// every input line and extracts its capture group values.
package lineparse

import (
	"fmt"
	"regexp"
)

// Pattern is a compiled expression whose capture groups become the columns of
// a parsed table. Obtain one via Compile; the zero value is not usable.
// A Pattern is immutable and safe for concurrent use by multiple goroutines.
type Pattern struct {
	// The original expression string.
	expr string
	// The compiled Golang regexp object.
	re *regexp.Regexp
}

func (p *Pattern) String() string {
	return fmt.Sprintf("Pattern(expr:%s,groups:%d)", p.expr, p.Groups())
}

// Compile parses the expression.
func Compile(expr string) (*Pattern, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &Pattern{expr: expr, re: re}, nil
}

// Expr returns the original expression string.
func (p *Pattern) Expr() string {
	return p.expr
}

// Groups returns the number of capturing groups in the expression.
func (p *Pattern) Groups() int {
	return p.re.NumSubexp()
}

// Apply matches one line using search semantics: the first match anywhere in
// the line, not anchored to the full line. It returns the captured group
// values in group order, or ok=false when the line does not match. A group
// that took part in no match captures the empty string.
func (p *Pattern) Apply(line string) (groups []string, ok bool) {
	m := p.re.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}
	return m[1:], true
}
