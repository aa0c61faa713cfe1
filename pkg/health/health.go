// Package health runs named checks for the health, readiness and liveness
// probes and serves them over HTTP.
package health

import (
	"time"
)

// NewChecker creates a checker. now defaults to time.Now.
func NewChecker(now func() time.Time) *Checker {
	if now == nil {
		now = time.Now
	}
	return &Checker{
		checks: map[Probe]map[string]CheckFunc{
			ProbeHealth: {},
			ProbeReady:  {},
			ProbeLive:   {},
		},
		started: now(),
		now:     now,
	}
}

// Register adds check to every listed probe, or to ProbeHealth when none
// are given. Registering a name twice replaces the earlier check.
func (c *Checker) Register(name string, check CheckFunc, probes ...Probe) {
	if len(probes) == 0 {
		probes = []Probe{ProbeHealth}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range probes {
		c.checks[p][name] = check
	}
}

// Run performs every check registered for probe. The worst status wins.
func (c *Checker) Run(probe Probe) Response {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	resp := Response{
		Status:    StatusHealthy,
		Timestamp: now,
		Checks:    make(map[string]Check, len(c.checks[probe])),
		Uptime:    now.Sub(c.started),
	}

	for name, fn := range c.checks[probe] {
		start := time.Now()
		check := fn()
		check.Duration = time.Since(start)
		check.LastChecked = now
		if check.Name == "" {
			check.Name = name
		}
		resp.Checks[name] = check

		switch {
		case check.Status == StatusUnhealthy:
			resp.Status = StatusUnhealthy
		case check.Status == StatusDegraded && resp.Status != StatusUnhealthy:
			resp.Status = StatusDegraded
		}
	}
	return resp
}
