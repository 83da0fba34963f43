package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/taxilog/taxilog/internal/models"
)

// MongoStore implements Store on MongoDB. It exists for depot installs where
// several dispatch terminals share one local database instead of a per-device
// file; the semantics are identical to the SQLite store.
type MongoStore struct {
	client *mongo.Client

	queue       *mongo.Collection
	status      *mongo.Collection
	snapshots   *mongo.Collection
	credentials *mongo.Collection
	meta        *mongo.Collection
	counters    *mongo.Collection
}

type queueDoc struct {
	Seq      int64     `bson:"seq"`
	RecordID string    `bson:"record_id"`
	OpType   string    `bson:"op_type"`
	Username string    `bson:"username"`
	Payload  string    `bson:"payload"`
	QueuedAt time.Time `bson:"queued_at"`
}

type statusDoc struct {
	RecordType string `bson:"record_type"`
	RecordID   string `bson:"record_id"`
	State      string `bson:"state"`
}

type snapshotDoc struct {
	Username   string `bson:"username"`
	RecordType string `bson:"record_type"`
	RecordID   string `bson:"record_id"`
	Payload    string `bson:"payload"`
}

// ConnectMongo connects to MongoDB and returns a store backed by the named
// database.
func ConnectMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect error: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		return nil, fmt.Errorf("mongo.Ping error: %w", err)
	}
	db := client.Database(database)
	return &MongoStore{
		client:      client,
		queue:       db.Collection("sync_queue"),
		status:      db.Collection("sync_status"),
		snapshots:   db.Collection("snapshots"),
		credentials: db.Collection("credentials"),
		meta:        db.Collection("client_info"),
		counters:    db.Collection("counters"),
	}, nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) nextSeq(ctx context.Context) (int64, error) {
	var doc struct {
		Value int64 `bson:"value"`
	}
	err := s.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": "sync_queue"},
		bson.M{"$inc": bson.M{"value": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("next seq: %w", err)
	}
	return doc.Value, nil
}

// AppendOp appends op to the queue and returns its assigned sequence.
func (s *MongoStore) AppendOp(ctx context.Context, op models.SyncOp) (int64, error) {
	seq, err := s.nextSeq(ctx)
	if err != nil {
		return 0, err
	}
	_, err = s.queue.InsertOne(ctx, queueDoc{
		Seq:      seq,
		RecordID: op.ID,
		OpType:   string(op.Type),
		Username: op.Username,
		Payload:  string(op.Payload),
		QueuedAt: op.QueuedAt.UTC(),
	})
	if err != nil {
		return 0, fmt.Errorf("append op: %w", err)
	}
	return seq, nil
}

// ListOps returns all queued operations in enqueue order.
func (s *MongoStore) ListOps(ctx context.Context) ([]models.SyncOp, error) {
	cursor, err := s.queue.Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"seq": 1}))
	if err != nil {
		return nil, fmt.Errorf("list ops: %w", err)
	}
	var docs []queueDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list ops: %w", err)
	}
	ops := make([]models.SyncOp, 0, len(docs))
	for _, d := range docs {
		ops = append(ops, d.toOp())
	}
	return ops, nil
}

// FirstOp returns the earliest queued operation for the record id.
func (s *MongoStore) FirstOp(ctx context.Context, recordID string) (*models.SyncOp, error) {
	var doc queueDoc
	err := s.queue.FindOne(ctx, bson.M{"record_id": recordID},
		options.FindOne().SetSort(bson.M{"seq": 1})).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("first op: %w", err)
	}
	op := doc.toOp()
	return &op, nil
}

// RemoveOp removes the operation with the given sequence.
func (s *MongoStore) RemoveOp(ctx context.Context, seq int64) error {
	_, err := s.queue.DeleteOne(ctx, bson.M{"seq": seq})
	if err != nil {
		return fmt.Errorf("remove op %d: %w", seq, err)
	}
	return nil
}

// OpCount returns the number of queued operations.
func (s *MongoStore) OpCount(ctx context.Context) (int, error) {
	n, err := s.queue.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count ops: %w", err)
	}
	return int(n), nil
}

// SetStatus upserts the sync state for a record.
func (s *MongoStore) SetStatus(ctx context.Context, recordType, recordID string, state models.SyncState) error {
	_, err := s.status.UpdateOne(ctx,
		bson.M{"record_type": recordType, "record_id": recordID},
		bson.M{"$set": bson.M{"state": string(state)}},
		options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	return nil
}

// GetStatus returns the sync state for a record and whether one is set.
func (s *MongoStore) GetStatus(ctx context.Context, recordType, recordID string) (models.SyncState, bool, error) {
	var doc statusDoc
	err := s.status.FindOne(ctx, bson.M{"record_type": recordType, "record_id": recordID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get status: %w", err)
	}
	return models.SyncState(doc.State), true, nil
}

// PendingIDs returns the set of record ids marked pending for the type.
func (s *MongoStore) PendingIDs(ctx context.Context, recordType string) (map[string]bool, error) {
	cursor, err := s.status.Find(ctx, bson.M{
		"record_type": recordType,
		"state":       string(models.StatePending),
	})
	if err != nil {
		return nil, fmt.Errorf("pending ids: %w", err)
	}
	var docs []statusDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("pending ids: %w", err)
	}
	ids := make(map[string]bool, len(docs))
	for _, d := range docs {
		ids[d.RecordID] = true
	}
	return ids, nil
}

// SaveRecord upserts a pending record snapshot.
func (s *MongoStore) SaveRecord(ctx context.Context, username, recordType, recordID string, payload []byte) error {
	_, err := s.snapshots.UpdateOne(ctx,
		bson.M{"username": username, "record_type": recordType, "record_id": recordID},
		bson.M{"$set": bson.M{"payload": string(payload)}},
		options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// DeleteRecord removes a record snapshot.
func (s *MongoStore) DeleteRecord(ctx context.Context, username, recordType, recordID string) error {
	_, err := s.snapshots.DeleteOne(ctx,
		bson.M{"username": username, "record_type": recordType, "record_id": recordID})
	if err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}

// ListRecords returns the snapshot payloads for a user and record type.
func (s *MongoStore) ListRecords(ctx context.Context, username, recordType string) ([][]byte, error) {
	cursor, err := s.snapshots.Find(ctx,
		bson.M{"username": username, "record_type": recordType},
		options.Find().SetSort(bson.M{"record_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	var docs []snapshotDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	payloads := make([][]byte, 0, len(docs))
	for _, d := range docs {
		payloads = append(payloads, []byte(d.Payload))
	}
	return payloads, nil
}

// SaveCredential upserts the cached bcrypt hash for a username.
func (s *MongoStore) SaveCredential(ctx context.Context, username, passwordHash string) error {
	_, err := s.credentials.UpdateOne(ctx,
		bson.M{"username": username},
		bson.M{"$set": bson.M{"password_hash": passwordHash}},
		options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save credential: %w", err)
	}
	return nil
}

// GetCredential returns the cached bcrypt hash for a username.
func (s *MongoStore) GetCredential(ctx context.Context, username string) (string, error) {
	var doc struct {
		PasswordHash string `bson:"password_hash"`
	}
	err := s.credentials.FindOne(ctx, bson.M{"username": username}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get credential: %w", err)
	}
	return doc.PasswordHash, nil
}

// DeviceID returns the installation's device id, generating one on first use.
func (s *MongoStore) DeviceID(ctx context.Context) (string, error) {
	var doc struct {
		DeviceID string `bson:"device_id"`
	}
	err := s.meta.FindOneAndUpdate(ctx,
		bson.M{"_id": "device"},
		bson.M{"$setOnInsert": bson.M{"device_id": uuid.New().String()}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return "", fmt.Errorf("device id: %w", err)
	}
	return doc.DeviceID, nil
}

func (d queueDoc) toOp() models.SyncOp {
	return models.SyncOp{
		Seq:      d.Seq,
		ID:       d.RecordID,
		Type:     models.OpType(d.OpType),
		Username: d.Username,
		Payload:  []byte(d.Payload),
		QueuedAt: d.QueuedAt,
	}
}
