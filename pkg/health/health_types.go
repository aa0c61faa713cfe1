package health

import (
	"sync"
	"time"
)

// Status represents the health status of a component
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// Probe selects which set of checks to run
type Probe int

const (
	// ProbeHealth is the full report served on /healthz
	ProbeHealth Probe = iota
	// ProbeReady answers whether the session accepts actions
	ProbeReady
	// ProbeLive answers whether the tick loop is still turning
	ProbeLive
)

// Check represents a health check for a specific component
type Check struct {
	Name        string         `json:"name"`
	Status      Status         `json:"status"`
	Message     string         `json:"message,omitempty"`
	Details     map[string]any `json:"details,omitempty"`
	LastChecked time.Time      `json:"last_checked"`
	Duration    time.Duration  `json:"duration_ms"`
}

// CheckFunc is a function that performs a health check
type CheckFunc func() Check

// Checker holds the registered checks per probe
type Checker struct {
	mu      sync.RWMutex
	checks  map[Probe]map[string]CheckFunc
	started time.Time
	now     func() time.Time
}

// Response represents the overall health response
type Response struct {
	Status    Status           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Checks    map[string]Check `json:"checks"`
	Uptime    time.Duration    `json:"uptime_seconds"`
}
