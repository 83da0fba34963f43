package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// OpType names a write operation the backend accepts as a POST dataType.
type OpType string

const (
	OpTrip               OpType = "trip"
	OpExpense            OpType = "expense"
	OpCarRental          OpType = "car_rental"
	OpAssignedTripStatus OpType = "update_assigned_trip_status"
	OpSupportTicket      OpType = "support_ticket"
	OpAddPlate           OpType = "add_plate"
	OpDeletePlate        OpType = "delete_plate"
)

// SyncState marks how far a locally written record has travelled.
type SyncState string

const (
	StatePending SyncState = "pending"
	StateSynced  SyncState = "synced"
)

// SyncOp is one pending write awaiting delivery to the backend. ID mirrors
// the owning record's id where the operation targets a record; Seq is
// assigned by the store and fixes the enqueue order.
type SyncOp struct {
	Seq      int64           `json:"-"`
	ID       string          `json:"id"`
	Type     OpType          `json:"type"`
	Username string          `json:"username"`
	Payload  json.RawMessage `json:"payload"`
	QueuedAt time.Time       `json:"queuedAt"`
}

// NewSyncOp marshals the record into an operation payload.
func NewSyncOp(id string, typ OpType, username string, record any) (SyncOp, error) {
	payload, err := json.Marshal(record)
	if err != nil {
		return SyncOp{}, fmt.Errorf("marshal %s payload: %w", typ, err)
	}
	return SyncOp{
		ID:       id,
		Type:     typ,
		Username: username,
		Payload:  payload,
		QueuedAt: time.Now().UTC(),
	}, nil
}

// Body flattens the operation into the JSON object the backend expects:
// the payload fields at the top level plus dataType and username.
func (op SyncOp) Body() ([]byte, error) {
	fields := map[string]any{}
	if len(op.Payload) > 0 {
		if err := json.Unmarshal(op.Payload, &fields); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", op.Type, err)
		}
	}
	fields["dataType"] = string(op.Type)
	fields["username"] = op.Username
	return json.Marshal(fields)
}

// RecordType returns the sync-status record type for operations that carry
// one, and "" for operation types without a per-record status flag.
func (op SyncOp) RecordType() string {
	switch op.Type {
	case OpTrip:
		return RecordTrip
	case OpExpense:
		return RecordExpense
	case OpCarRental:
		return RecordCarRental
	default:
		return ""
	}
}

// Record types used as keys in the sync-status map and pending snapshots.
const (
	RecordTrip      = "trip"
	RecordExpense   = "expense"
	RecordCarRental = "car_rental"
)
