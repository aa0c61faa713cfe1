package logging

import (
	"time"
)

func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

func Any(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Domain helpers

func Component(name string) Field {
	return String("component", name)
}

func NodeID(id int) Field {
	return Int("node_id", id)
}

// Action takes anything with a String method so callers can pass model.Action directly
func Action(a interface{ String() string }) Field {
	return String("action", a.String())
}

func Faction(f interface{ String() string }) Field {
	return String("faction", f.String())
}

func Status(s string) Field {
	return String("status", s)
}

func ThreatID(id string) Field {
	return String("threat_id", id)
}

func ObjectiveID(id string) Field {
	return String("objective_id", id)
}

func Epoch(e uint64) Field {
	return Field{Key: "epoch", Value: e}
}

func Tick(name string) Field {
	return String("tick", name)
}
