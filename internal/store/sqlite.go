package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/taxilog/taxilog/internal/models"
)

// SQLiteStore is the default Store implementation, a single database file on
// the driver's device.
type SQLiteStore struct {
	db *sql.DB
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS sync_queue (
		seq        INTEGER PRIMARY KEY AUTOINCREMENT,
		record_id  TEXT NOT NULL,
		op_type    TEXT NOT NULL,
		username   TEXT NOT NULL,
		payload    TEXT,
		queued_at  TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sync_status (
		record_type TEXT NOT NULL,
		record_id   TEXT NOT NULL,
		state       TEXT NOT NULL,
		PRIMARY KEY (record_type, record_id)
	)`,
	`CREATE TABLE IF NOT EXISTS snapshots (
		username    TEXT NOT NULL,
		record_type TEXT NOT NULL,
		record_id   TEXT NOT NULL,
		payload     TEXT NOT NULL,
		PRIMARY KEY (username, record_type, record_id)
	)`,
	`CREATE TABLE IF NOT EXISTS credentials (
		username      TEXT PRIMARY KEY,
		password_hash TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS client_info (
		id        INTEGER PRIMARY KEY CHECK (id = 1),
		device_id TEXT NOT NULL
	)`,
}

// OpenSQLite opens (and if needed initializes) the store at path. Use
// ":memory:" for a throwaway store in tests.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	// One connection keeps in-memory stores coherent and sidesteps
	// writer lock contention on the single database file.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.Exec(`PRAGMA busy_timeout=5000`); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	for _, stmt := range sqliteSchema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("create store schema: %w", err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close(ctx context.Context) error {
	return s.db.Close()
}

// AppendOp appends op to the queue and returns its assigned sequence.
func (s *SQLiteStore) AppendOp(ctx context.Context, op models.SyncOp) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_queue (record_id, op_type, username, payload, queued_at)
		VALUES (?, ?, ?, ?, ?)`,
		op.ID, string(op.Type), op.Username, string(op.Payload),
		op.QueuedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("append op: %w", err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("append op: %w", err)
	}
	return seq, nil
}

// ListOps returns all queued operations in enqueue order.
func (s *SQLiteStore) ListOps(ctx context.Context) ([]models.SyncOp, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, record_id, op_type, username, payload, queued_at
		FROM sync_queue ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list ops: %w", err)
	}
	defer rows.Close()

	var ops []models.SyncOp
	for rows.Next() {
		op, err := scanOp(rows)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, rows.Err()
}

// FirstOp returns the earliest queued operation for the record id.
func (s *SQLiteStore) FirstOp(ctx context.Context, recordID string) (*models.SyncOp, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT seq, record_id, op_type, username, payload, queued_at
		FROM sync_queue WHERE record_id = ? ORDER BY seq LIMIT 1`, recordID)
	op, err := scanOp(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &op, nil
}

// RemoveOp removes the operation with the given sequence.
func (s *SQLiteStore) RemoveOp(ctx context.Context, seq int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sync_queue WHERE seq = ?`, seq)
	if err != nil {
		return fmt.Errorf("remove op %d: %w", seq, err)
	}
	return nil
}

// OpCount returns the number of queued operations.
func (s *SQLiteStore) OpCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sync_queue`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count ops: %w", err)
	}
	return n, nil
}

// SetStatus upserts the sync state for a record.
func (s *SQLiteStore) SetStatus(ctx context.Context, recordType, recordID string, state models.SyncState) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_status (record_type, record_id, state) VALUES (?, ?, ?)
		ON CONFLICT (record_type, record_id) DO UPDATE SET state = excluded.state`,
		recordType, recordID, string(state))
	if err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	return nil
}

// GetStatus returns the sync state for a record and whether one is set.
func (s *SQLiteStore) GetStatus(ctx context.Context, recordType, recordID string) (models.SyncState, bool, error) {
	var state string
	err := s.db.QueryRowContext(ctx, `
		SELECT state FROM sync_status WHERE record_type = ? AND record_id = ?`,
		recordType, recordID).Scan(&state)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get status: %w", err)
	}
	return models.SyncState(state), true, nil
}

// PendingIDs returns the set of record ids marked pending for the type.
func (s *SQLiteStore) PendingIDs(ctx context.Context, recordType string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT record_id FROM sync_status WHERE record_type = ? AND state = ?`,
		recordType, string(models.StatePending))
	if err != nil {
		return nil, fmt.Errorf("pending ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("pending ids: %w", err)
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

// SaveRecord upserts a pending record snapshot.
func (s *SQLiteStore) SaveRecord(ctx context.Context, username, recordType, recordID string, payload []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO snapshots (username, record_type, record_id, payload) VALUES (?, ?, ?, ?)
		ON CONFLICT (username, record_type, record_id) DO UPDATE SET payload = excluded.payload`,
		username, recordType, recordID, string(payload))
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// DeleteRecord removes a record snapshot.
func (s *SQLiteStore) DeleteRecord(ctx context.Context, username, recordType, recordID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM snapshots WHERE username = ? AND record_type = ? AND record_id = ?`,
		username, recordType, recordID)
	if err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}

// ListRecords returns the snapshot payloads for a user and record type.
func (s *SQLiteStore) ListRecords(ctx context.Context, username, recordType string) ([][]byte, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT payload FROM snapshots WHERE username = ? AND record_type = ? ORDER BY record_id`,
		username, recordType)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var payloads [][]byte
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("list snapshots: %w", err)
		}
		payloads = append(payloads, []byte(payload))
	}
	return payloads, rows.Err()
}

// SaveCredential upserts the cached bcrypt hash for a username.
func (s *SQLiteStore) SaveCredential(ctx context.Context, username, passwordHash string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO credentials (username, password_hash) VALUES (?, ?)
		ON CONFLICT (username) DO UPDATE SET password_hash = excluded.password_hash`,
		username, passwordHash)
	if err != nil {
		return fmt.Errorf("save credential: %w", err)
	}
	return nil
}

// GetCredential returns the cached bcrypt hash for a username.
func (s *SQLiteStore) GetCredential(ctx context.Context, username string) (string, error) {
	var hash string
	err := s.db.QueryRowContext(ctx, `
		SELECT password_hash FROM credentials WHERE username = ?`, username).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get credential: %w", err)
	}
	return hash, nil
}

// DeviceID returns the installation's device id, generating one on first use.
func (s *SQLiteStore) DeviceID(ctx context.Context) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT device_id FROM client_info WHERE id = 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		id = uuid.New().String()
		if _, err := s.db.ExecContext(ctx, `
			INSERT INTO client_info (id, device_id) VALUES (1, ?)`, id); err != nil {
			return "", fmt.Errorf("persist device id: %w", err)
		}
		return id, nil
	}
	if err != nil {
		return "", fmt.Errorf("device id: %w", err)
	}
	return id, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOp(row rowScanner) (models.SyncOp, error) {
	var (
		op       models.SyncOp
		opType   string
		payload  string
		queuedAt string
	)
	if err := row.Scan(&op.Seq, &op.ID, &opType, &op.Username, &payload, &queuedAt); err != nil {
		return models.SyncOp{}, err
	}
	op.Type = models.OpType(opType)
	op.Payload = []byte(payload)
	if t, err := time.Parse(time.RFC3339Nano, queuedAt); err == nil {
		op.QueuedAt = t
	}
	return op, nil
}
