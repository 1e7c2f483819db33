package audit

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ferrall/leasehold/pkg/types"
)

// TestAppendAndRecent tests sequencing and newest-first retrieval
func TestAppendAndRecent(t *testing.T) {
	log, err := Open(t.TempDir())
	require.NoError(t, err)
	defer log.Close()

	holder := uuid.New()
	for i, kind := range []Kind{KindGrant, KindDeniedForeign, KindReclaim} {
		err := log.Append(Event{
			Kind:     kind,
			Resource: "payroll",
			Holder:   holder,
			LeaseID:  uuid.New(),
			Epoch:    types.Epoch(i + 1),
			At:       time.Now(),
		})
		require.NoError(t, err)
	}

	events, err := log.Recent(10)
	require.NoError(t, err)
	require.Len(t, events, 3)

	// newest first, strictly increasing seq underneath
	assert.Equal(t, KindReclaim, events[0].Kind)
	assert.Equal(t, KindDeniedForeign, events[1].Kind)
	assert.Equal(t, KindGrant, events[2].Kind)
	assert.Greater(t, events[0].Seq, events[1].Seq)
	assert.Greater(t, events[1].Seq, events[2].Seq)
	assert.Equal(t, holder, events[0].Holder)
}

// TestRecentLimit tests that Recent caps the result at n
func TestRecentLimit(t *testing.T) {
	log, err := Open(t.TempDir())
	require.NoError(t, err)
	defer log.Close()

	for i := 0; i < 5; i++ {
		require.NoError(t, log.Append(Event{Kind: KindGrant, Resource: "r", At: time.Now()}))
	}

	events, err := log.Recent(2)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

// TestEmptyLog tests reading an empty log
func TestEmptyLog(t *testing.T) {
	log, err := Open(t.TempDir())
	require.NoError(t, err)
	defer log.Close()

	events, err := log.Recent(10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

// TestReopen tests that events survive a close and reopen
func TestReopen(t *testing.T) {
	dir := t.TempDir()

	log, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, log.Append(Event{Kind: KindGrant, Resource: "r", At: time.Now()}))
	require.NoError(t, log.Close())

	log, err = Open(dir)
	require.NoError(t, err)
	defer log.Close()

	events, err := log.Recent(10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, KindGrant, events[0].Kind)
}
