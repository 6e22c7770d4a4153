//go:build !cgo_sqlite

package store

// This file is compiled by default. It uses the pure Go SQLite
// implementation so the binary cross-compiles without a C toolchain.
//
// Driver used: modernc.org/sqlite

import (
	_ "modernc.org/sqlite"
)

const (
	// DriverName is the SQLite driver to use.
	DriverName = "sqlite"

	// BuildMode describes the current build configuration.
	BuildMode = "purego"
)
