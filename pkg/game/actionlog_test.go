package game

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionLog_NewestFirstAndCapped(t *testing.T) {
	var l ActionLog
	for i := 0; i < LogCapacity+5; i++ {
		l.Add(t0.Add(time.Duration(i)*time.Second), fmt.Sprintf("msg %d", i))
	}

	lines := l.Lines()
	require.Len(t, lines, LogCapacity)
	assert.Equal(t, "[12:00:54] msg 54", lines[0])
	assert.Equal(t, "[12:00:05] msg 5", lines[LogCapacity-1])
}

func TestActionLog_LinesIsACopy(t *testing.T) {
	var l ActionLog
	assert.Equal(t, "[12:00:00] hello", l.Add(t0, "hello"))

	lines := l.Lines()
	lines[0] = "mutated"
	assert.Equal(t, "[12:00:00] hello", l.Lines()[0])

	l.Clear()
	assert.Empty(t, l.Lines())
}
