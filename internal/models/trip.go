package models

import (
	"errors"
	"strings"
	"time"
)

// PaymentType distinguishes how a trip was paid.
type PaymentType string

const (
	PaymentCash    PaymentType = "cash"
	PaymentInvoice PaymentType = "invoice"
)

// Payment holds the payment details of a trip.
type Payment struct {
	Type   PaymentType `json:"type"`
	Amount float64     `json:"amount"`
}

// ownAccountNotePrefix is the sentinel older deployments stored at the front
// of the notes field to mark a trip driven on the driver's own account. New
// records carry the explicit OwnAccount flag instead; the sentinel is only
// recognized when ingesting backend rows.
const ownAccountNotePrefix = "[eigene Rechnung]"

// Trip is a single billable drive record.
type Trip struct {
	ID               string      `json:"id"`
	Username         string      `json:"username,omitempty"`
	LicensePlate     string      `json:"licensePlate"`
	Start            string      `json:"start"`
	Destination      string      `json:"destination"`
	Payment          Payment     `json:"payment"`
	NumberOfDrivers  int         `json:"numberOfDrivers"`
	CollectedPayment bool        `json:"iCollectedPayment"`
	Settled          bool        `json:"isSettled"`
	OwnAccount       bool        `json:"ownAccount,omitempty"`
	Notes            string      `json:"notes,omitempty"`
	Edited           bool        `json:"edited,omitempty"`
	EditedAt         *time.Time  `json:"editedAt,omitempty"`
	Original         *TripValues `json:"original,omitempty"`
	SyncStatus       SyncState   `json:"syncStatus,omitempty"`
}

// TripValues snapshots the fields an edit may change, kept for the audit
// trail on edited trips.
type TripValues struct {
	Start       string  `json:"start"`
	Destination string  `json:"destination"`
	Amount      float64 `json:"amount"`
}

var (
	ErrMissingField    = errors.New("required field missing")
	ErrInvalidAmount   = errors.New("amount must be greater than zero")
	ErrInvalidDrivers  = errors.New("number of drivers must be at least 1")
	ErrInvalidPayment  = errors.New("payment type must be cash or invoice")
	ErrInvalidStatus   = errors.New("invalid status value")
	ErrInvalidDuration = errors.New("end time must be after start time")
)

// Validate checks the trip before it may be stored or queued. A single-driver
// trip always counts as collected by the driver, matching the entry form.
func (t *Trip) Validate() error {
	if t.ID == "" || t.LicensePlate == "" || t.Start == "" || t.Destination == "" {
		return ErrMissingField
	}
	if t.Payment.Amount <= 0 {
		return ErrInvalidAmount
	}
	if t.Payment.Type != PaymentCash && t.Payment.Type != PaymentInvoice {
		return ErrInvalidPayment
	}
	if t.NumberOfDrivers < 1 {
		return ErrInvalidDrivers
	}
	if t.NumberOfDrivers == 1 {
		t.CollectedPayment = true
	}
	return nil
}

// NormalizeLegacy converts a backend row written by an older app version:
// a note starting with the own-account sentinel becomes the explicit flag,
// and zero-value fields get the defaults the entry form would have applied.
func (t *Trip) NormalizeLegacy() {
	if strings.HasPrefix(t.Notes, ownAccountNotePrefix) {
		t.OwnAccount = true
		t.Notes = strings.TrimSpace(strings.TrimPrefix(t.Notes, ownAccountNotePrefix))
	}
	if t.NumberOfDrivers < 1 {
		t.NumberOfDrivers = 1
	}
	if t.NumberOfDrivers == 1 {
		t.CollectedPayment = true
	}
}
