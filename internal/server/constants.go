// Package server provides HTTP and WebSocket handlers
package server

import "time"

// Server configuration constants
const (
	// Per-connection WebSocket command rate limiting
	RateLimitMessages = 30          // Max messages per connection per window
	RateLimitWindow   = time.Second // Sliding window duration

	// How often the preview broadcaster samples the latest frame
	PreviewPushInterval = 500 * time.Millisecond

	// Upper bound on history entries returned by the REST endpoint
	HistoryLimit = 100
)
