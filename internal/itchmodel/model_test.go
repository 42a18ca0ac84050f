package itchmodel

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEventTypeString(t *testing.T) {
	require.Equal(t, "ADD", EventAdd.String())
	require.Equal(t, "REPLACE", EventReplace.String())
	require.Equal(t, "UNKNOWN", EventType(99).String())
}

func TestClosedOnlyForExhaustedExecOrCancel(t *testing.T) {
	add := &Event{Type: EventAdd, RemainShares: 100}
	require.False(t, add.Closed())

	exec := &Event{Type: EventExec, PrevEvent: add, RemainShares: 0}
	require.True(t, exec.Closed())

	partialExec := &Event{Type: EventExec, PrevEvent: add, RemainShares: 50}
	require.False(t, partialExec.Closed())

	replace := &Event{Type: EventReplace, PrevEvent: add, RemainShares: 0}
	require.False(t, replace.Closed(), "replace starts a new chain rather than closing")
}

func TestStatsRecordIncrementsCorrectCounter(t *testing.T) {
	var s Stats
	s.Record(EventAdd)
	s.Record(EventAdd)
	s.Record(EventExec)
	s.Record(EventCancel)
	s.Record(EventReplace)
	s.Record(EventTimestamp)

	require.EqualValues(t, 2, s.Orders)
	require.EqualValues(t, 1, s.Execs)
	require.EqualValues(t, 1, s.Cancels)
	require.EqualValues(t, 1, s.Replaces)
	require.EqualValues(t, 1, s.Timestamps)
}

func TestChainWalkBackToAdd(t *testing.T) {
	add := &Event{Type: EventAdd, RefNum: 1}
	exec := &Event{Type: EventExec, PrevEvent: add, RefNum: 1}
	cancel := &Event{Type: EventCancel, PrevEvent: exec, RefNum: 1}

	count := 0
	for e := cancel; e != nil; e = e.PrevEvent {
		count++
	}
	require.Equal(t, 3, count)
}
