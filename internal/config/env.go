package config

import (
	"os"
	"strconv"
)

// envStr looks up a non-empty environment variable.
func envStr(name string) (string, bool) {
	v := os.Getenv(name)
	if v == "" {
		return "", false
	}
	return v, true
}

// envInt looks up an integer environment variable. Unparsable values are
// treated as unset.
func envInt(name string) (int, bool) {
	v, ok := envStr(name)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
