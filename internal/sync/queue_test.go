package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taxilog/taxilog/internal/models"
	"github.com/taxilog/taxilog/internal/store"
)

// fakeSender records delivery attempts and fails on demand.
type fakeSender struct {
	failAll bool
	failIDs map[string]bool
	sent    []models.SyncOp
}

func (f *fakeSender) SubmitOp(ctx context.Context, op models.SyncOp) error {
	if f.failAll || f.failIDs[op.ID] {
		return errors.New("connection refused")
	}
	f.sent = append(f.sent, op)
	return nil
}

func newTestService(t *testing.T, sender Sender) (*Service, *store.SQLiteStore) {
	t.Helper()
	st, err := store.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close(context.Background()) })
	return NewService(st, sender), st
}

func tripOp(t *testing.T, id string) models.SyncOp {
	t.Helper()
	op, err := models.NewSyncOp(id, models.OpTrip, "anna", models.Trip{ID: id})
	require.NoError(t, err)
	return op
}

func TestEnqueue_DeliversImmediately(t *testing.T) {
	sender := &fakeSender{}
	svc, st := newTestService(t, sender)
	ctx := context.Background()

	delivered, err := svc.Enqueue(ctx, tripOp(t, "t1"))
	require.NoError(t, err)
	assert.True(t, delivered)
	assert.Len(t, sender.sent, 1)

	n, _ := st.OpCount(ctx)
	assert.Equal(t, 0, n)

	state, ok, _ := st.GetStatus(ctx, models.RecordTrip, "t1")
	assert.True(t, ok)
	assert.Equal(t, models.StateSynced, state)
}

func TestEnqueue_OfflineKeepsOpQueued(t *testing.T) {
	sender := &fakeSender{failAll: true}
	svc, st := newTestService(t, sender)
	ctx := context.Background()

	delivered, err := svc.Enqueue(ctx, tripOp(t, "t1"))
	require.NoError(t, err)
	assert.False(t, delivered)

	n, _ := st.OpCount(ctx)
	assert.Equal(t, 1, n)

	state, ok, _ := st.GetStatus(ctx, models.RecordTrip, "t1")
	assert.True(t, ok)
	assert.Equal(t, models.StatePending, state)
}

func TestEnqueue_SkipsSendWhenEarlierOpQueued(t *testing.T) {
	sender := &fakeSender{failAll: true}
	svc, _ := newTestService(t, sender)
	ctx := context.Background()

	_, err := svc.Enqueue(ctx, tripOp(t, "t1"))
	require.NoError(t, err)

	// Backend is back, but the edit must not overtake the queued create
	sender.failAll = false
	delivered, err := svc.Enqueue(ctx, tripOp(t, "t1"))
	require.NoError(t, err)
	assert.False(t, delivered)
	assert.Empty(t, sender.sent)
}

func TestDrainAll_EmptiesQueueInOrder(t *testing.T) {
	sender := &fakeSender{failAll: true}
	svc, _ := newTestService(t, sender)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		_, err := svc.Enqueue(ctx, tripOp(t, id))
		require.NoError(t, err)
	}

	sender.failAll = false
	delivered, remaining, err := svc.DrainAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, delivered)
	assert.Equal(t, 0, remaining)

	require.Len(t, sender.sent, 3)
	assert.Equal(t, "a", sender.sent[0].ID)
	assert.Equal(t, "c", sender.sent[2].ID)
}

func TestDrainAll_SkipsLaterOpsForFailedRecord(t *testing.T) {
	sender := &fakeSender{failAll: true}
	svc, _ := newTestService(t, sender)
	ctx := context.Background()

	_, _ = svc.Enqueue(ctx, tripOp(t, "x"))
	_, _ = svc.Enqueue(ctx, tripOp(t, "x"))
	_, _ = svc.Enqueue(ctx, tripOp(t, "y"))

	sender.failAll = false
	sender.failIDs = map[string]bool{"x": true}

	delivered, remaining, err := svc.DrainAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, delivered)
	assert.Equal(t, 2, remaining)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "y", sender.sent[0].ID)

	// Next pass delivers both x ops in order
	sender.failIDs = nil
	delivered, remaining, err = svc.DrainAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, delivered)
	assert.Equal(t, 0, remaining)
}

func TestDrainAll_RetriesUntilSuccess(t *testing.T) {
	sender := &fakeSender{failAll: true}
	svc, st := newTestService(t, sender)
	ctx := context.Background()

	_, _ = svc.Enqueue(ctx, tripOp(t, "t1"))

	// Still offline: the op survives any number of failed passes
	for i := 0; i < 3; i++ {
		delivered, remaining, err := svc.DrainAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, delivered)
		assert.Equal(t, 1, remaining)
	}

	sender.failAll = false
	delivered, remaining, err := svc.DrainAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, delivered)
	assert.Equal(t, 0, remaining)

	state, _, _ := st.GetStatus(ctx, models.RecordTrip, "t1")
	assert.Equal(t, models.StateSynced, state)
}

func TestDrainOne_DeliversQueuedOp(t *testing.T) {
	sender := &fakeSender{failAll: true}
	svc, st := newTestService(t, sender)
	ctx := context.Background()

	_, _ = svc.Enqueue(ctx, tripOp(t, "t1"))

	sender.failAll = false
	done, err := svc.DrainOne(ctx, "t1")
	require.NoError(t, err)
	assert.True(t, done)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "t1", sender.sent[0].ID)

	state, _, _ := st.GetStatus(ctx, models.RecordTrip, "t1")
	assert.Equal(t, models.StateSynced, state)
}

func TestDrainOne_AbsentOpCountsAsDelivered(t *testing.T) {
	sender := &fakeSender{}
	svc, _ := newTestService(t, sender)

	// Nothing queued for the id, so there is nothing left to do
	done, err := svc.DrainOne(context.Background(), "gone")
	require.NoError(t, err)
	assert.True(t, done)
	assert.Empty(t, sender.sent)
}

func TestDrainOne_FailureKeepsOpQueued(t *testing.T) {
	sender := &fakeSender{failAll: true}
	svc, st := newTestService(t, sender)
	ctx := context.Background()

	_, _ = svc.Enqueue(ctx, tripOp(t, "t1"))

	done, err := svc.DrainOne(ctx, "t1")
	require.NoError(t, err)
	assert.False(t, done)

	n, _ := st.OpCount(ctx)
	assert.Equal(t, 1, n)
}

func TestDiscard_DropsAllOpsForRecord(t *testing.T) {
	sender := &fakeSender{failAll: true}
	svc, st := newTestService(t, sender)
	ctx := context.Background()

	_, _ = svc.Enqueue(ctx, tripOp(t, "x"))
	_, _ = svc.Enqueue(ctx, tripOp(t, "x"))
	_, _ = svc.Enqueue(ctx, tripOp(t, "y"))

	dropped, err := svc.Discard(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, 2, dropped)

	n, _ := st.OpCount(ctx)
	assert.Equal(t, 1, n)
}

func TestRunner_DrainsOnOnlineEvent(t *testing.T) {
	sender := &fakeSender{failAll: true}
	svc, st := newTestService(t, sender)
	ctx := context.Background()

	_, _ = svc.Enqueue(ctx, tripOp(t, "t1"))

	online := make(chan struct{}, 1)
	runner := NewRunner(svc, time.Hour, online)
	runner.Start(ctx)
	defer runner.Stop()

	sender.failAll = false
	online <- struct{}{}

	assert.Eventually(t, func() bool {
		n, err := st.OpCount(context.Background())
		return err == nil && n == 0
	}, 2*time.Second, 10*time.Millisecond)
}
