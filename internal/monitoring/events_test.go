package monitoring

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_KeepsEventsInOrder(t *testing.T) {
	r := NewRecorder(0)
	for _, stage := range []string{"collect", "vision", "patterns"} {
		r.StageCompleted(StageEvent{RunID: "run-1", Stage: stage})
	}

	events := r.Events()
	require.Len(t, events, 3)
	assert.Equal(t, "collect", events[0].Stage)
	assert.Equal(t, "patterns", events[2].Stage)
}

func TestRecorder_EvictsOldestBeyondCap(t *testing.T) {
	r := NewRecorder(3)
	for i := 0; i < 5; i++ {
		r.StageCompleted(StageEvent{Stage: fmt.Sprintf("stage-%d", i)})
	}

	events := r.Events()
	require.Len(t, events, 3)
	assert.Equal(t, "stage-2", events[0].Stage)
	assert.Equal(t, "stage-4", events[2].Stage)
}

func TestRecorder_EventsReturnsCopy(t *testing.T) {
	r := NewRecorder(0)
	r.StageCompleted(StageEvent{Stage: "collect"})

	events := r.Events()
	events[0].Stage = "mutated"

	assert.Equal(t, "collect", r.Events()[0].Stage)
}

func TestMulti_FansOut(t *testing.T) {
	a := NewRecorder(0)
	b := NewRecorder(0)
	m := Multi{a, b}

	m.StageCompleted(StageEvent{Stage: "evidence"})

	require.Len(t, a.Events(), 1)
	require.Len(t, b.Events(), 1)
	assert.Equal(t, "evidence", b.Events()[0].Stage)
}
