package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/taxilog/taxilog/internal/models"
)

func TestQueueDoc_ToOp(t *testing.T) {
	queued := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	doc := queueDoc{
		Seq:      7,
		RecordID: "t1",
		OpType:   "trip",
		Username: "anna",
		Payload:  `{"id":"t1"}`,
		QueuedAt: queued,
	}

	op := doc.toOp()
	assert.Equal(t, int64(7), op.Seq)
	assert.Equal(t, "t1", op.ID)
	assert.Equal(t, models.OpTrip, op.Type)
	assert.Equal(t, "anna", op.Username)
	assert.JSONEq(t, `{"id":"t1"}`, string(op.Payload))
	assert.True(t, queued.Equal(op.QueuedAt))
}

// Store conformance is covered against SQLite; the Mongo implementation
// mirrors it query for query and needs a running server to exercise.
var _ Store = (*MongoStore)(nil)
var _ Store = (*SQLiteStore)(nil)
