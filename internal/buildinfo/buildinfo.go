package buildinfo

import "time"

// Version is the API version reported to mobile clients; bump together with
// the minimum supported app version below.
const (
	Version       = "1.1.0"
	MinAppVersion = "1.0.0"
)

// Set via -ldflags at build time
var (
	BuildTime  string // when the binary was compiled
	CommitHash string // short git commit hash
)

// StartTime is recorded when the process starts
var StartTime = time.Now().UTC()
