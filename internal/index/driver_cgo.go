//go:build !purego

package index

// Default build: cgo driver.
//
//	CGO_ENABLED=1 go build ./...

import (
	_ "github.com/mattn/go-sqlite3"
)

const (
	// DriverName is the database/sql driver used for the link index.
	DriverName = "sqlite3"

	dsnOptions = "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"
)
