package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taxilog/taxilog/internal/models"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close(context.Background()) })
	return st
}

func testOp(id string, typ models.OpType) models.SyncOp {
	return models.SyncOp{
		ID:       id,
		Type:     typ,
		Username: "anna",
		Payload:  []byte(`{"id":"` + id + `"}`),
		QueuedAt: time.Now().UTC(),
	}
}

func TestSQLiteStore_QueueOrder(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	seq1, err := st.AppendOp(ctx, testOp("a", models.OpTrip))
	require.NoError(t, err)
	seq2, err := st.AppendOp(ctx, testOp("b", models.OpExpense))
	require.NoError(t, err)
	assert.Greater(t, seq2, seq1)

	ops, err := st.ListOps(ctx)
	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.Equal(t, "a", ops[0].ID)
	assert.Equal(t, "b", ops[1].ID)
	assert.Equal(t, models.OpTrip, ops[0].Type)
	assert.Equal(t, seq1, ops[0].Seq)
}

func TestSQLiteStore_FirstOp(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	seq1, _ := st.AppendOp(ctx, testOp("x", models.OpTrip))
	_, _ = st.AppendOp(ctx, testOp("x", models.OpTrip))

	first, err := st.FirstOp(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, seq1, first.Seq)

	_, err = st.FirstOp(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore_RemoveOp(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	seq, _ := st.AppendOp(ctx, testOp("a", models.OpTrip))
	n, err := st.OpCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, st.RemoveOp(ctx, seq))
	n, _ = st.OpCount(ctx)
	assert.Equal(t, 0, n)
}

func TestSQLiteStore_Status(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	_, ok, err := st.GetStatus(ctx, models.RecordTrip, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, st.SetStatus(ctx, models.RecordTrip, "a", models.StatePending))
	state, ok, err := st.GetStatus(ctx, models.RecordTrip, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, models.StatePending, state)

	// Upsert flips the state in place
	require.NoError(t, st.SetStatus(ctx, models.RecordTrip, "a", models.StateSynced))
	state, _, _ = st.GetStatus(ctx, models.RecordTrip, "a")
	assert.Equal(t, models.StateSynced, state)
}

func TestSQLiteStore_PendingIDs(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	_ = st.SetStatus(ctx, models.RecordTrip, "a", models.StatePending)
	_ = st.SetStatus(ctx, models.RecordTrip, "b", models.StateSynced)
	_ = st.SetStatus(ctx, models.RecordExpense, "c", models.StatePending)

	ids, err := st.PendingIDs(ctx, models.RecordTrip)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"a": true}, ids)
}

func TestSQLiteStore_Snapshots(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.SaveRecord(ctx, "anna", models.RecordTrip, "a", []byte(`{"id":"a"}`)))
	require.NoError(t, st.SaveRecord(ctx, "anna", models.RecordTrip, "a", []byte(`{"id":"a","edited":true}`)))
	require.NoError(t, st.SaveRecord(ctx, "ben", models.RecordTrip, "b", []byte(`{"id":"b"}`)))

	rows, err := st.ListRecords(ctx, "anna", models.RecordTrip)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.JSONEq(t, `{"id":"a","edited":true}`, string(rows[0]))

	require.NoError(t, st.DeleteRecord(ctx, "anna", models.RecordTrip, "a"))
	rows, _ = st.ListRecords(ctx, "anna", models.RecordTrip)
	assert.Empty(t, rows)
}

func TestSQLiteStore_Credentials(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	_, err := st.GetCredential(ctx, "anna")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, st.SaveCredential(ctx, "anna", "hash-1"))
	require.NoError(t, st.SaveCredential(ctx, "anna", "hash-2"))

	hash, err := st.GetCredential(ctx, "anna")
	require.NoError(t, err)
	assert.Equal(t, "hash-2", hash)
}

func TestSQLiteStore_DeviceID(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	id, err := st.DeviceID(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	again, err := st.DeviceID(ctx)
	require.NoError(t, err)
	assert.Equal(t, id, again)
}
