// Package version identifies the library in diagnostic output.
package version

import "fmt"

const (
	// Name of the library.
	Name string = "data-parser"
	// Version of the library.
	Version string = "1.0.0"
)

// String returns the identifier added to diagnostic log fields.
func String() string {
	return fmt.Sprintf("%s %s", Name, Version)
}
