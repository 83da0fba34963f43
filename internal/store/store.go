package store

import (
	"context"
	"errors"

	"github.com/taxilog/taxilog/internal/models"
)

// ErrNotFound is returned when a queue operation, credential or status entry
// does not exist in the store.
var ErrNotFound = errors.New("not found")

// QueueStore persists the ordered list of pending write operations.
type QueueStore interface {
	// AppendOp appends op to the queue and returns its assigned sequence.
	AppendOp(ctx context.Context, op models.SyncOp) (int64, error)
	// ListOps returns all queued operations in enqueue order.
	ListOps(ctx context.Context) ([]models.SyncOp, error)
	// FirstOp returns the earliest queued operation for the record id,
	// or ErrNotFound when none is queued.
	FirstOp(ctx context.Context, recordID string) (*models.SyncOp, error)
	// RemoveOp removes the operation with the given sequence.
	RemoveOp(ctx context.Context, seq int64) error
	// OpCount returns the number of queued operations.
	OpCount(ctx context.Context) (int, error)
}

// StatusStore persists the per-record sync-status flags.
type StatusStore interface {
	SetStatus(ctx context.Context, recordType, recordID string, state models.SyncState) error
	GetStatus(ctx context.Context, recordType, recordID string) (models.SyncState, bool, error)
	// PendingIDs returns the set of record ids currently marked pending
	// for the record type.
	PendingIDs(ctx context.Context, recordType string) (map[string]bool, error)
}

// SnapshotStore persists the pending-only per-user record snapshots that
// survive between sessions. Synced records are dropped; the backend is their
// source of truth on the next load.
type SnapshotStore interface {
	SaveRecord(ctx context.Context, username, recordType, recordID string, payload []byte) error
	DeleteRecord(ctx context.Context, username, recordType, recordID string) error
	ListRecords(ctx context.Context, username, recordType string) ([][]byte, error)
}

// CredentialStore caches login material for offline sign-in.
type CredentialStore interface {
	SaveCredential(ctx context.Context, username, passwordHash string) error
	// GetCredential returns the stored bcrypt hash, or ErrNotFound.
	GetCredential(ctx context.Context, username string) (string, error)
}

// MetaStore holds per-installation metadata.
type MetaStore interface {
	// DeviceID returns the installation's stable device id, generating and
	// persisting one on first use.
	DeviceID(ctx context.Context) (string, error)
}

// Store is the full local persistence surface of the client. It is an
// explicit dependency passed to whoever needs it; there is no package-level
// instance, so tests can run independent stores side by side.
type Store interface {
	QueueStore
	StatusStore
	SnapshotStore
	CredentialStore
	MetaStore
	Close(ctx context.Context) error
}
