package health

import (
	"fmt"
	"runtime"
)

// SessionState is the subset of session state the checks read.
type SessionState struct {
	Running       bool
	Mode          string
	TickPanics    int
	DroppedEvents uint64
}

// SessionCheck is unhealthy once the session has stopped ticking.
func SessionCheck(state func() SessionState) CheckFunc {
	return func() Check {
		st := state()
		check := Check{
			Name:    "session",
			Details: map[string]any{"mode": st.Mode, "running": st.Running},
		}
		if !st.Running {
			check.Status = StatusUnhealthy
			check.Message = "Session stopped"
			return check
		}
		check.Status = StatusHealthy
		check.Message = "Session running"
		return check
	}
}

// TickCheck degrades after any tick has panicked. Panics are recovered, so
// the session keeps running, but state may have been left half-updated.
func TickCheck(state func() SessionState) CheckFunc {
	return func() Check {
		st := state()
		check := Check{
			Name:    "ticks",
			Details: map[string]any{"panics": st.TickPanics},
			Status:  StatusHealthy,
		}
		if st.TickPanics > 0 {
			check.Status = StatusDegraded
			check.Message = fmt.Sprintf("%d tick(s) panicked", st.TickPanics)
		}
		return check
	}
}

// EventBusCheck degrades once more than maxDropped events have been dropped
// on full subscriber buffers.
func EventBusCheck(state func() SessionState, maxDropped uint64) CheckFunc {
	return func() Check {
		st := state()
		check := Check{
			Name:    "event_bus",
			Details: map[string]any{"dropped": st.DroppedEvents},
			Status:  StatusHealthy,
		}
		if st.DroppedEvents > maxDropped {
			check.Status = StatusDegraded
			check.Message = "Subscribers are falling behind"
		}
		return check
	}
}

// MemoryCheck creates a health check for memory usage. A nil getUsage
// reads the Go runtime.
func MemoryCheck(getUsage func() (alloc, sys uint64)) CheckFunc {
	if getUsage == nil {
		getUsage = runtimeMemory
	}
	return func() Check {
		check := Check{
			Name:    "memory",
			Details: make(map[string]any),
		}

		alloc, sys := getUsage()
		check.Details["alloc_bytes"] = alloc
		check.Details["sys_bytes"] = sys

		if sys > 0 && float64(alloc)/float64(sys) > 0.9 {
			check.Status = StatusDegraded
			check.Message = "High memory usage"
		} else {
			check.Status = StatusHealthy
			check.Message = "Memory usage normal"
		}
		return check
	}
}

func runtimeMemory() (alloc, sys uint64) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ms.Alloc, ms.Sys
}
