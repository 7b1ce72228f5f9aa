package signal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJournalRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signals.db")

	j, err := OpenJournal(path)
	require.NoError(t, err)

	now := time.Now().Truncate(time.Second)
	rec := Record{
		Signal: Signal{
			ID:        "sig-1",
			Session:   "jat-nux",
			Type:      "review",
			Timestamp: now.Format(time.RFC3339),
			Data:      map[string]interface{}{"task_id": "jat-42"},
		},
		ReceivedAt: now,
	}
	require.NoError(t, j.Save(rec))
	require.NoError(t, j.Close())

	j2, err := OpenJournal(path)
	require.NoError(t, err)
	defer j2.Close()

	restored, err := j2.LoadAll()
	require.NoError(t, err)
	require.Len(t, restored, 1)
	assert.Equal(t, "jat-nux", restored[0].Signal.Session)
	assert.Equal(t, "review", restored[0].Signal.Type)
	assert.Equal(t, "jat-42", restored[0].Signal.TaskID())
	assert.True(t, restored[0].ReceivedAt.Equal(now))
}

func TestJournalUpsertsPerSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signals.db")
	j, err := OpenJournal(path)
	require.NoError(t, err)
	defer j.Close()

	now := time.Now()
	require.NoError(t, j.Save(Record{
		Signal:     Signal{ID: "a", Session: "jat-nux", Type: "working", Timestamp: now.Format(time.RFC3339)},
		ReceivedAt: now,
	}))
	require.NoError(t, j.Save(Record{
		Signal:     Signal{ID: "b", Session: "jat-nux", Type: "completed", Timestamp: now.Add(time.Second).Format(time.RFC3339)},
		ReceivedAt: now.Add(time.Second),
	}))

	restored, err := j.LoadAll()
	require.NoError(t, err)
	require.Len(t, restored, 1, "journal keeps only the latest record per session")
	assert.Equal(t, "completed", restored[0].Signal.Type)
}

func TestJournalDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signals.db")
	j, err := OpenJournal(path)
	require.NoError(t, err)
	defer j.Close()

	now := time.Now()
	require.NoError(t, j.Save(Record{
		Signal:     Signal{ID: "a", Session: "jat-nux", Type: "working", Timestamp: now.Format(time.RFC3339)},
		ReceivedAt: now,
	}))
	require.NoError(t, j.Delete("jat-nux"))

	restored, err := j.LoadAll()
	require.NoError(t, err)
	assert.Empty(t, restored)
}

func TestStoreAttachJournalRestores(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signals.db")
	now := time.Now()

	// First store journals a signal, then shuts down.
	j, err := OpenJournal(path)
	require.NoError(t, err)
	store := NewStore()
	require.NoError(t, store.AttachJournal(j))
	accepted, err := store.Ingest(mkSignal("jat-nux", "needs_input", now))
	require.NoError(t, err)
	require.True(t, accepted)
	require.NoError(t, j.Close())

	// A fresh store restores the last-known signal.
	j2, err := OpenJournal(path)
	require.NoError(t, err)
	defer j2.Close()
	store2 := NewStore()
	require.NoError(t, store2.AttachJournal(j2))

	rec, ok := store2.Latest("jat-nux")
	require.True(t, ok, "last-known signal should survive a restart")
	assert.Equal(t, "needs_input", rec.Signal.Type)

	// Restored records still lose to fresher live signals.
	accepted, err = store2.Ingest(mkSignal("jat-nux", "completed", now.Add(time.Minute)))
	require.NoError(t, err)
	require.True(t, accepted)
	rec, _ = store2.Latest("jat-nux")
	assert.Equal(t, "completed", rec.Signal.Type)
}
