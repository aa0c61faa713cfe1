package game

import "time"

// LogCapacity is the number of action log lines kept.
const LogCapacity = 50

// ActionLog is a newest-first feed of timestamped lines.
type ActionLog struct {
	lines []string
}

// Add prepends "[HH:MM:SS] msg" and drops the oldest line past LogCapacity.
func (l *ActionLog) Add(at time.Time, msg string) string {
	line := "[" + at.Format("15:04:05") + "] " + msg
	if len(l.lines) < LogCapacity {
		l.lines = append(l.lines, "")
	}
	copy(l.lines[1:], l.lines)
	l.lines[0] = line
	return line
}

// Lines returns a copy, newest first.
func (l *ActionLog) Lines() []string {
	return append([]string(nil), l.lines...)
}

// Clear empties the log.
func (l *ActionLog) Clear() { l.lines = l.lines[:0] }
