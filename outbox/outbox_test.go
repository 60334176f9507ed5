package outbox

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trucoapp/tournament-manager/models"
)

func testQueue(t *testing.T) Queue {
	t.Helper()
	q, err := NewFileQueue(filepath.Join(t.TempDir(), "outbox.jsonl"))
	require.NoError(t, err)
	return q
}

func record(ticketID string) *models.PaymentRecord {
	return &models.PaymentRecord{
		TicketID:       ticketID,
		TournamentName: "Torneo de Verano",
		Amount:         1500,
		PlayerName:     "Juan Pérez",
		Status:         models.RecordStatusPendingConfirmation,
	}
}

func TestEnqueueAndDrain(t *testing.T) {
	q := testQueue(t)

	require.NoError(t, q.Enqueue(record("TRU-1-AAAAAAAAA")))
	require.NoError(t, q.Enqueue(record("TRU-2-BBBBBBBBB")))

	n, err := q.Len()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var submitted []string
	drained, err := q.Drain(func(rec *models.PaymentRecord) error {
		submitted = append(submitted, rec.TicketID)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, drained)
	assert.Equal(t, []string{"TRU-1-AAAAAAAAA", "TRU-2-BBBBBBBBB"}, submitted)

	n, err = q.Len()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDrainKeepsFailedEntries(t *testing.T) {
	q := testQueue(t)

	require.NoError(t, q.Enqueue(record("TRU-1-AAAAAAAAA")))
	require.NoError(t, q.Enqueue(record("TRU-2-BBBBBBBBB")))

	drained, err := q.Drain(func(rec *models.PaymentRecord) error {
		if rec.TicketID == "TRU-2-BBBBBBBBB" {
			return errors.New("still down")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, drained)

	// The failed entry survives for the next drain.
	drained, err = q.Drain(func(rec *models.PaymentRecord) error {
		assert.Equal(t, "TRU-2-BBBBBBBBB", rec.TicketID)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, drained)
}

func TestQueueSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "outbox.jsonl")

	q1, err := NewFileQueue(path)
	require.NoError(t, err)
	require.NoError(t, q1.Enqueue(record("TRU-1-AAAAAAAAA")))

	q2, err := NewFileQueue(path)
	require.NoError(t, err)
	n, err := q2.Len()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCorruptLineIsSkipped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "outbox.jsonl")
	q, err := NewFileQueue(path)
	require.NoError(t, err)

	require.NoError(t, q.Enqueue(record("TRU-1-AAAAAAAAA")))

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("{broken json\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, q.Enqueue(record("TRU-2-BBBBBBBBB")))

	n, err := q.Len()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestEmptyQueueDrain(t *testing.T) {
	q := testQueue(t)

	drained, err := q.Drain(func(rec *models.PaymentRecord) error {
		t.Fatal("submit should not be called")
		return nil
	})
	require.NoError(t, err)
	assert.Zero(t, drained)
}
