package main

import (
	"log"
	"strings"
	"sync/atomic"
)

var debugLogging atomic.Bool

// configureLogging applies APP_LOG_LEVEL to the process logger
func configureLogging(level string) {
	debugLogging.Store(strings.EqualFold(level, "debug"))
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
}

func debugEnabled() bool {
	return debugLogging.Load()
}

// logDebugf logs only when APP_LOG_LEVEL=debug
func logDebugf(format string, args ...any) {
	if debugLogging.Load() {
		log.Printf("[DEBUG] "+format, args...)
	}
}
