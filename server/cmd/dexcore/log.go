// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"decred.org/dexcore/dex"
	"decred.org/dexcore/server/asset"
	"decred.org/dexcore/server/book"
	"decred.org/dexcore/server/db"
	"decred.org/dexcore/server/feed"
	"decred.org/dexcore/server/stats"
	"github.com/jrick/logrotate/rotator"
)

// logWriter implements an io.Writer that outputs to both standard error and
// the write-end pipe of an initialized log rotator. Standard output is left
// for command results.
type logWriter struct{}

// Write writes the data in p to standard error and the log rotator.
func (logWriter) Write(p []byte) (n int, err error) {
	if logRotator == nil {
		return os.Stderr.Write(p)
	}
	os.Stderr.Write(p)
	return logRotator.Write(p) // not safe concurrent writes, so only one logWriter{} allowed!
}

// Loggers per subsystem. A single backend logger is created and all subsystem
// loggers created from it will write to the backend. When adding new
// subsystems, define it in the subsystemLoggers map.
//
// Loggers should not be used before the log rotator has been initialized with a
// log file. This must be performed early during application startup by calling
// initLogRotator.
var (
	// logRotator is one of the logging outputs. Use initLogRotator to set it.
	// It should be closed on application shutdown.
	logRotator *rotator.Rotator

	// package main's Logger.
	log = dex.Disabled

	// subsystemLoggers maps each subsystem identifier to the function that
	// sets the subsystem's package logger.
	subsystemLoggers = map[string]func(dex.Logger){
		"MAIN": func(l dex.Logger) { log = l },
		"BOOK": book.UseLogger,
		"STAT": stats.UseLogger,
		"FEED": feed.UseLogger,
		"DB":   db.UseLogger,
		// Individual proxies get sub-loggers of ASET.
		"ASET": asset.UseLogger,
	}
)

// initLogRotator initializes the logging rotater to write logs to logFile and
// create roll files in the same directory. It must be called before the
// package-global log rotater variables are used.
func initLogRotator(logFile string, maxRolls int) error {
	logDir, _ := filepath.Split(logFile)
	err := os.MkdirAll(logDir, 0700)
	if err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	logRotator, err = rotator.New(logFile, 32*1024, false, maxRolls)
	if err != nil {
		return fmt.Errorf("failed to create file rotator: %w", err)
	}
	return nil
}

// setLogLevels creates a logger for every subsystem at its configured level.
func setLogLevels(lm *dex.LoggerMaker) {
	for subsysID, useLogger := range subsystemLoggers {
		useLogger(lm.NewLogger(subsysID))
	}
}
