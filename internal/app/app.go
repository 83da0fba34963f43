// Package app wires store, backend and queue into the user-facing flows.
// Every write follows the same path: validate, persist the pending snapshot,
// enqueue, and report whether the backend saw it immediately or whether the
// record was saved offline.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/taxilog/taxilog/internal/auth"
	"github.com/taxilog/taxilog/internal/backend"
	"github.com/taxilog/taxilog/internal/config"
	"github.com/taxilog/taxilog/internal/models"
	"github.com/taxilog/taxilog/internal/stats"
	"github.com/taxilog/taxilog/internal/store"
	syncq "github.com/taxilog/taxilog/internal/sync"
)

// ErrRecordSynced is returned when a local delete targets a record the
// backend already confirmed. Synced records can only be changed remotely.
var ErrRecordSynced = errors.New("record already synced")

// Backend is the remote endpoint surface the app depends on.
type Backend interface {
	Login(ctx context.Context, user, pass string) (bool, error)
	GetData(ctx context.Context, user string) (*backend.UserData, error)
	GetCockpitData(ctx context.Context) (*backend.CockpitData, error)
	GetCarRentals(ctx context.Context) ([]models.CarRental, error)
	SubmitOp(ctx context.Context, op models.SyncOp) error
}

// App orchestrates the user-facing flows.
type App struct {
	cfg   config.Config
	store store.Store
	be    Backend
	queue *syncq.Service
	auth  *auth.Service
	log   *log.Entry
}

// New builds the app on top of an opened store and backend client.
func New(cfg config.Config, st store.Store, be Backend) *App {
	return &App{
		cfg:   cfg,
		store: st,
		be:    be,
		queue: syncq.NewService(st, be),
		auth:  auth.NewService(cfg.JWTSecret, cfg.SessionExpiry),
		log:   log.WithField("component", "app"),
	}
}

// Queue exposes the sync service for the background runner.
func (a *App) Queue() *syncq.Service {
	return a.queue
}

// Login verifies credentials. When the backend is reachable it decides; a
// successful online login refreshes the cached credential. When it is not,
// the cached bcrypt hash from the last online login allows an offline
// session, flagged as such in the returned token.
func (a *App) Login(ctx context.Context, user, pass string) (token string, offline bool, err error) {
	ok, err := a.be.Login(ctx, user, pass)
	if err != nil {
		hash, gerr := a.store.GetCredential(ctx, user)
		if gerr != nil {
			return "", false, fmt.Errorf("backend unreachable and no cached credentials: %w", err)
		}
		if cerr := auth.CheckPassword(hash, pass); cerr != nil {
			return "", false, cerr
		}
		a.log.WithField("user", user).Info("Offline login from cached credentials")
		token, err = a.auth.GenerateToken(user, true)
		return token, true, err
	}
	if !ok {
		return "", false, auth.ErrInvalidCredentials
	}
	hash, herr := auth.HashPassword(pass)
	if herr == nil {
		herr = a.store.SaveCredential(ctx, user, hash)
	}
	if herr != nil {
		a.log.WithError(herr).Warn("Could not cache credentials for offline login")
	}
	token, err = a.auth.GenerateToken(user, false)
	return token, false, err
}

// ValidateSession checks a session token.
func (a *App) ValidateSession(token string) (*models.Claims, error) {
	return a.auth.ValidateToken(token)
}

// Data is one driver's loaded record set.
type Data struct {
	Trips         []models.Trip
	Expenses      []models.Expense
	AssignedTrips []models.AssignedTrip
	Plates        []string
	Offline       bool
}

// Load fetches the driver's records from the backend and folds in local
// pending work. When the backend is unreachable only the locally persisted
// pending records are returned and Offline is set.
func (a *App) Load(ctx context.Context, user string) (*Data, error) {
	localTrips, err := a.localTrips(ctx, user)
	if err != nil {
		return nil, err
	}
	localExpenses, err := a.localExpenses(ctx, user)
	if err != nil {
		return nil, err
	}

	remote, err := a.be.GetData(ctx, user)
	if err != nil {
		a.log.WithError(err).Info("Backend unreachable, loading local records only")
		return &Data{Trips: localTrips, Expenses: localExpenses, Offline: true}, nil
	}
	for i := range remote.Trips {
		remote.Trips[i].NormalizeLegacy()
	}

	pendingTrips, err := a.store.PendingIDs(ctx, models.RecordTrip)
	if err != nil {
		return nil, err
	}
	pendingExpenses, err := a.store.PendingIDs(ctx, models.RecordExpense)
	if err != nil {
		return nil, err
	}

	trips := syncq.Merge(remote.Trips, localTrips, func(t models.Trip) string { return t.ID }, pendingTrips)
	for i := range trips {
		trips[i].SyncStatus = syncState(pendingTrips[trips[i].ID])
	}
	expenses := syncq.Merge(remote.Expenses, localExpenses, func(e models.Expense) string { return e.ID }, pendingExpenses)
	for i := range expenses {
		expenses[i].SyncStatus = syncState(pendingExpenses[expenses[i].ID])
	}

	return &Data{
		Trips:         trips,
		Expenses:      expenses,
		AssignedTrips: remote.AssignedTrips,
		Plates:        remote.Plates,
	}, nil
}

func syncState(pending bool) models.SyncState {
	if pending {
		return models.StatePending
	}
	return models.StateSynced
}

// AddTrip validates and saves a new trip. The returned boolean reports
// whether the backend confirmed it immediately.
func (a *App) AddTrip(ctx context.Context, t models.Trip) (models.Trip, bool, error) {
	if t.ID == "" {
		t.ID = models.NewRecordID(time.Now())
	}
	if t.Username == "" {
		t.Username = a.cfg.Username
	}
	if err := t.Validate(); err != nil {
		return t, false, err
	}
	return a.submitTrip(ctx, t)
}

// EditTrip applies new route and amount values. The first edit snapshots
// the original values for the audit trail; the operation reuses the trip's
// id so the backend upserts in place.
func (a *App) EditTrip(ctx context.Context, t models.Trip, start, destination string, amount float64) (models.Trip, bool, error) {
	if t.Original == nil {
		t.Original = &models.TripValues{
			Start:       t.Start,
			Destination: t.Destination,
			Amount:      t.Payment.Amount,
		}
	}
	t.Start = start
	t.Destination = destination
	t.Payment.Amount = amount
	t.Edited = true
	now := time.Now().UTC()
	t.EditedAt = &now
	if err := t.Validate(); err != nil {
		return t, false, err
	}
	return a.submitTrip(ctx, t)
}

// SettleTrip marks the trip as settled with the owner.
func (a *App) SettleTrip(ctx context.Context, t models.Trip) (models.Trip, bool, error) {
	t.Settled = true
	return a.submitTrip(ctx, t)
}

// SettleAll settles every open trip in the list. Returns how many were
// settled and how many of those reached the backend immediately.
func (a *App) SettleAll(ctx context.Context, trips []models.Trip) (settled, delivered int, err error) {
	for _, t := range trips {
		if t.Settled {
			continue
		}
		_, ok, serr := a.SettleTrip(ctx, t)
		if serr != nil {
			return settled, delivered, serr
		}
		settled++
		if ok {
			delivered++
		}
	}
	return settled, delivered, nil
}

// DeleteTrip removes a still-pending trip locally, dropping its queued
// operations. A trip the backend already confirmed cannot be deleted here.
func (a *App) DeleteTrip(ctx context.Context, t models.Trip) error {
	return a.deleteLocal(ctx, models.RecordTrip, t.Username, t.ID)
}

// AddExpense validates and saves a new expense.
func (a *App) AddExpense(ctx context.Context, e models.Expense) (models.Expense, bool, error) {
	if e.ID == "" {
		e.ID = models.NewRecordID(time.Now())
	}
	if e.Username == "" {
		e.Username = a.cfg.Username
	}
	if err := e.Validate(); err != nil {
		return e, false, err
	}
	return a.submitExpense(ctx, e)
}

// ReimburseExpense marks the expense as paid back by the owner.
func (a *App) ReimburseExpense(ctx context.Context, e models.Expense) (models.Expense, bool, error) {
	e.Reimbursed = true
	return a.submitExpense(ctx, e)
}

// DeleteExpense removes a still-pending expense locally.
func (a *App) DeleteExpense(ctx context.Context, e models.Expense) error {
	return a.deleteLocal(ctx, models.RecordExpense, e.Username, e.ID)
}

// AddRental validates and saves a new car rental record.
func (a *App) AddRental(ctx context.Context, r models.CarRental) (models.CarRental, bool, error) {
	if r.ID == "" {
		r.ID = models.NewRecordID(time.Now())
	}
	if r.Username == "" {
		r.Username = a.cfg.Username
	}
	if err := r.Validate(); err != nil {
		return r, false, err
	}
	op, err := models.NewSyncOp(r.ID, models.OpCarRental, r.Username, r)
	if err != nil {
		return r, false, err
	}
	delivered, err := a.submit(ctx, op)
	r.SyncStatus = syncState(!delivered)
	return r, delivered, err
}

// Rentals returns all rental records, folding in the driver's pending ones.
func (a *App) Rentals(ctx context.Context, user string) ([]models.CarRental, error) {
	local, err := a.localRentals(ctx, user)
	if err != nil {
		return nil, err
	}
	remote, err := a.be.GetCarRentals(ctx)
	if err != nil {
		a.log.WithError(err).Info("Backend unreachable, loading local rentals only")
		return local, nil
	}
	pending, err := a.store.PendingIDs(ctx, models.RecordCarRental)
	if err != nil {
		return nil, err
	}
	return syncq.Merge(remote, local, func(r models.CarRental) string { return r.ID }, pending), nil
}

// UpdateAssignedTripStatus accepts or declines an assigned trip. The trip
// itself stays authoritative on the backend; only the status change is
// queued.
func (a *App) UpdateAssignedTripStatus(ctx context.Context, id string, status models.AssignedTripStatus) (bool, error) {
	if !models.ValidAssignedStatus(status) {
		return false, models.ErrInvalidStatus
	}
	payload := struct {
		ID     string                    `json:"id"`
		Status models.AssignedTripStatus `json:"status"`
	}{ID: id, Status: status}
	op, err := models.NewSyncOp(id, models.OpAssignedTripStatus, a.cfg.Username, payload)
	if err != nil {
		return false, err
	}
	return a.submit(ctx, op)
}

// CreateSupportTicket queues a support message for the owner.
func (a *App) CreateSupportTicket(ctx context.Context, subject, message string) (bool, error) {
	ticket := models.SupportTicket{
		ID:       models.NewRecordID(time.Now()),
		Username: a.cfg.Username,
		Subject:  subject,
		Message:  message,
	}
	if err := ticket.Validate(); err != nil {
		return false, err
	}
	op, err := models.NewSyncOp(ticket.ID, models.OpSupportTicket, ticket.Username, ticket)
	if err != nil {
		return false, err
	}
	return a.submit(ctx, op)
}

// AddPlate registers a vehicle plate. The plate doubles as the operation's
// record id so an add and a later delete of the same plate keep their order.
func (a *App) AddPlate(ctx context.Context, plate string) (bool, error) {
	return a.submitPlate(ctx, models.OpAddPlate, plate)
}

// DeletePlate removes a vehicle plate.
func (a *App) DeletePlate(ctx context.Context, plate string) (bool, error) {
	return a.submitPlate(ctx, models.OpDeletePlate, plate)
}

func (a *App) submitPlate(ctx context.Context, typ models.OpType, plate string) (bool, error) {
	if plate == "" {
		return false, models.ErrMissingField
	}
	payload := struct {
		LicensePlate string `json:"licensePlate"`
	}{LicensePlate: plate}
	op, err := models.NewSyncOp(plate, typ, a.cfg.Username, payload)
	if err != nil {
		return false, err
	}
	return a.submit(ctx, op)
}

// OpenSummary loads the driver's records and computes the open figures.
func (a *App) OpenSummary(ctx context.Context, user string) (stats.OpenSummary, bool, error) {
	data, err := a.Load(ctx, user)
	if err != nil {
		return stats.OpenSummary{}, false, err
	}
	return stats.Summarize(data.Trips, data.Expenses, a.cfg.SplitRatio), data.Offline, nil
}

// CockpitSummary fetches the owner overview and computes per-driver and
// per-plate figures. Owner figures are backend-only; there is no offline
// fallback.
func (a *App) CockpitSummary(ctx context.Context) (stats.CockpitSummary, error) {
	cd, err := a.be.GetCockpitData(ctx)
	if err != nil {
		return stats.CockpitSummary{}, err
	}
	for i := range cd.Trips {
		cd.Trips[i].NormalizeLegacy()
	}
	return stats.Cockpit(cd.Trips, cd.Expenses, cd.Rentals, a.cfg.SplitRatio), nil
}

func (a *App) submitTrip(ctx context.Context, t models.Trip) (models.Trip, bool, error) {
	op, err := models.NewSyncOp(t.ID, models.OpTrip, t.Username, t)
	if err != nil {
		return t, false, err
	}
	delivered, err := a.submit(ctx, op)
	t.SyncStatus = syncState(!delivered)
	return t, delivered, err
}

func (a *App) submitExpense(ctx context.Context, e models.Expense) (models.Expense, bool, error) {
	op, err := models.NewSyncOp(e.ID, models.OpExpense, e.Username, e)
	if err != nil {
		return e, false, err
	}
	delivered, err := a.submit(ctx, op)
	e.SyncStatus = syncState(!delivered)
	return e, delivered, err
}

// submit persists the pending snapshot for record-bearing operations and
// hands the operation to the queue.
func (a *App) submit(ctx context.Context, op models.SyncOp) (bool, error) {
	if rt := op.RecordType(); rt != "" {
		if err := a.store.SaveRecord(ctx, op.Username, rt, op.ID, op.Payload); err != nil {
			return false, err
		}
	}
	delivered, err := a.queue.Enqueue(ctx, op)
	if err != nil {
		return delivered, err
	}
	if !delivered {
		a.log.WithFields(log.Fields{"type": op.Type, "id": op.ID}).Info("Saved offline")
	}
	return delivered, nil
}

func (a *App) deleteLocal(ctx context.Context, recordType, user, id string) error {
	state, ok, err := a.store.GetStatus(ctx, recordType, id)
	if err != nil {
		return err
	}
	if ok && state == models.StateSynced {
		return ErrRecordSynced
	}
	if _, err := a.queue.Discard(ctx, id); err != nil {
		return err
	}
	if err := a.store.DeleteRecord(ctx, user, recordType, id); err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	a.log.WithFields(log.Fields{"type": recordType, "id": id}).Info("Deleted local record")
	return nil
}

func (a *App) localTrips(ctx context.Context, user string) ([]models.Trip, error) {
	rows, err := a.store.ListRecords(ctx, user, models.RecordTrip)
	if err != nil {
		return nil, err
	}
	trips := make([]models.Trip, 0, len(rows))
	for _, raw := range rows {
		var t models.Trip
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, fmt.Errorf("decode stored trip: %w", err)
		}
		t.SyncStatus = models.StatePending
		trips = append(trips, t)
	}
	return trips, nil
}

func (a *App) localExpenses(ctx context.Context, user string) ([]models.Expense, error) {
	rows, err := a.store.ListRecords(ctx, user, models.RecordExpense)
	if err != nil {
		return nil, err
	}
	expenses := make([]models.Expense, 0, len(rows))
	for _, raw := range rows {
		var e models.Expense
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, fmt.Errorf("decode stored expense: %w", err)
		}
		e.SyncStatus = models.StatePending
		expenses = append(expenses, e)
	}
	return expenses, nil
}

func (a *App) localRentals(ctx context.Context, user string) ([]models.CarRental, error) {
	rows, err := a.store.ListRecords(ctx, user, models.RecordCarRental)
	if err != nil {
		return nil, err
	}
	rentals := make([]models.CarRental, 0, len(rows))
	for _, raw := range rows {
		var r models.CarRental
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, fmt.Errorf("decode stored rental: %w", err)
		}
		r.SyncStatus = models.StatePending
		rentals = append(rentals, r)
	}
	return rentals, nil
}
