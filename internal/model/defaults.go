package model

import "time"

// Shared defaults used by both the TUI and dev-server binaries.
const (
	// DefaultPrefetchThreshold is the remaining-card count at which the
	// deck requests the next page ahead of the cursor.
	DefaultPrefetchThreshold = 2

	DefaultAPIBaseURL     = "http://localhost:5000"
	DefaultRequestTimeout = 15 * time.Second
	DefaultDevListenAddr  = "0.0.0.0:5000"
)
