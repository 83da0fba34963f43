// Package sync owns the outgoing operation queue. Writes are appended
// locally first and delivered to the backend as connectivity allows; an
// operation leaves the queue only after the backend acknowledged it.
package sync

import (
	"context"
	"errors"
	gosync "sync"

	log "github.com/sirupsen/logrus"

	"github.com/taxilog/taxilog/internal/models"
	"github.com/taxilog/taxilog/internal/store"
)

// Sender delivers one operation to the backend.
type Sender interface {
	SubmitOp(ctx context.Context, op models.SyncOp) error
}

// Store is the part of the local store the queue needs.
type Store interface {
	store.QueueStore
	store.StatusStore
	store.SnapshotStore
}

// Service persists write operations and drains them to the backend.
type Service struct {
	store  Store
	sender Sender
	mu     gosync.Mutex
	log    *log.Entry
}

// NewService creates a queue service on top of the given store and sender.
func NewService(st Store, sender Sender) *Service {
	return &Service{
		store:  st,
		sender: sender,
		log:    log.WithField("component", "sync"),
	}
}

// Enqueue persists the operation and tries to deliver it right away. The
// boolean reports whether the operation reached the backend on this call;
// false with a nil error means it stays queued for a later drain.
//
// When an earlier operation for the same record id is still queued the
// immediate attempt is skipped, so edits to one record never arrive out of
// order.
func (s *Service) Enqueue(ctx context.Context, op models.SyncOp) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seq, err := s.store.AppendOp(ctx, op)
	if err != nil {
		return false, err
	}
	op.Seq = seq
	if rt := op.RecordType(); rt != "" {
		if err := s.store.SetStatus(ctx, rt, op.ID, models.StatePending); err != nil {
			return false, err
		}
	}

	if op.ID != "" {
		first, err := s.store.FirstOp(ctx, op.ID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return false, err
		}
		if first != nil && first.Seq != seq {
			s.log.WithFields(log.Fields{"type": op.Type, "id": op.ID}).
				Debug("Earlier operation queued for record, deferring delivery")
			return false, nil
		}
	}

	if err := s.sender.SubmitOp(ctx, op); err != nil {
		s.log.WithError(err).WithFields(log.Fields{"type": op.Type, "id": op.ID}).
			Info("Delivery failed, operation stays queued")
		return false, nil
	}
	if err := s.complete(ctx, op); err != nil {
		return true, err
	}
	return true, nil
}

// DrainAll walks the queue in enqueue order and delivers what it can.
// Once one operation for a record fails, later operations for the same
// record are skipped until the next pass. Returns the number delivered and
// the number still queued.
func (s *Service) DrainAll(ctx context.Context) (delivered, remaining int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ops, err := s.store.ListOps(ctx)
	if err != nil {
		return 0, 0, err
	}
	failed := map[string]bool{}
	for _, op := range ops {
		if err := ctx.Err(); err != nil {
			break
		}
		if op.ID != "" && failed[op.ID] {
			continue
		}
		if err := s.sender.SubmitOp(ctx, op); err != nil {
			if op.ID != "" {
				failed[op.ID] = true
			}
			s.log.WithError(err).WithFields(log.Fields{"type": op.Type, "id": op.ID}).
				Info("Delivery failed, operation stays queued")
			continue
		}
		if err := s.complete(ctx, op); err != nil {
			return delivered, 0, err
		}
		delivered++
	}
	remaining, err = s.store.OpCount(ctx)
	if err != nil {
		return delivered, 0, err
	}
	if delivered > 0 || remaining > 0 {
		s.log.WithFields(log.Fields{"delivered": delivered, "remaining": remaining}).
			Info("Queue drained")
	}
	return delivered, remaining, nil
}

// DrainOne delivers the earliest queued operation for a record id. A record
// with nothing queued counts as already delivered, so retrying a drain after
// a lost acknowledgement is safe. False with a nil error means delivery
// failed and the operation stays queued.
func (s *Service) DrainOne(ctx context.Context, recordID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	op, err := s.store.FirstOp(ctx, recordID)
	if errors.Is(err, store.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	if err := s.sender.SubmitOp(ctx, *op); err != nil {
		s.log.WithError(err).WithFields(log.Fields{"type": op.Type, "id": op.ID}).
			Info("Delivery failed, operation stays queued")
		return false, nil
	}
	if err := s.complete(ctx, *op); err != nil {
		return false, err
	}
	return true, nil
}

// Pending returns the number of queued operations.
func (s *Service) Pending(ctx context.Context) (int, error) {
	return s.store.OpCount(ctx)
}

// Discard drops every queued operation for a record id without delivering
// it. Used when a still-pending record is deleted locally.
func (s *Service) Discard(ctx context.Context, recordID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dropped := 0
	for {
		op, err := s.store.FirstOp(ctx, recordID)
		if errors.Is(err, store.ErrNotFound) {
			return dropped, nil
		}
		if err != nil {
			return dropped, err
		}
		if err := s.store.RemoveOp(ctx, op.Seq); err != nil {
			return dropped, err
		}
		dropped++
	}
}

// complete removes a delivered operation and settles its record state.
func (s *Service) complete(ctx context.Context, op models.SyncOp) error {
	if err := s.store.RemoveOp(ctx, op.Seq); err != nil {
		return err
	}
	rt := op.RecordType()
	if rt == "" {
		return nil
	}
	if err := s.store.SetStatus(ctx, rt, op.ID, models.StateSynced); err != nil {
		return err
	}
	if err := s.store.DeleteRecord(ctx, op.Username, rt, op.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	return nil
}
