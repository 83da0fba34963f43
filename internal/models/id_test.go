package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewRecordID(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 26, 53, 589793000, time.UTC)
	id := NewRecordID(now)

	assert.Len(t, id, len(now.Format(time.RFC3339Nano))+1+9)
	assert.True(t, now.Equal(CreationTime(id)), "id prefix should round-trip the creation time")
}

func TestNewRecordID_Unique(t *testing.T) {
	now := time.Now()
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewRecordID(now)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestCreationTime_BadID(t *testing.T) {
	assert.True(t, CreationTime("not-a-timestamp").IsZero())
	assert.True(t, CreationTime("").IsZero())
}

func TestRecordIDs_SortChronologically(t *testing.T) {
	earlier := NewRecordID(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	later := NewRecordID(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))
	assert.Less(t, earlier, later)
}
