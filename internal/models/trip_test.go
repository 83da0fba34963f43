package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validTrip() Trip {
	return Trip{
		ID:              NewRecordID(time.Now()),
		Username:        "anna",
		LicensePlate:    "B-TX 1234",
		Start:           "Hauptbahnhof",
		Destination:     "Flughafen",
		Payment:         Payment{Type: PaymentCash, Amount: 42.50},
		NumberOfDrivers: 1,
	}
}

func TestTrip_Validate(t *testing.T) {
	trip := validTrip()
	assert.NoError(t, trip.Validate())

	// Single driver always counts as having collected the payment
	assert.True(t, trip.CollectedPayment)
}

func TestTrip_Validate_MissingFields(t *testing.T) {
	trip := validTrip()
	trip.Destination = ""
	assert.ErrorIs(t, trip.Validate(), ErrMissingField)
}

func TestTrip_Validate_BadAmount(t *testing.T) {
	trip := validTrip()
	trip.Payment.Amount = 0
	assert.ErrorIs(t, trip.Validate(), ErrInvalidAmount)

	trip = validTrip()
	trip.Payment.Amount = -5
	assert.ErrorIs(t, trip.Validate(), ErrInvalidAmount)
}

func TestTrip_Validate_BadPaymentType(t *testing.T) {
	trip := validTrip()
	trip.Payment.Type = "check"
	assert.ErrorIs(t, trip.Validate(), ErrInvalidPayment)
}

func TestTrip_Validate_BadDriverCount(t *testing.T) {
	trip := validTrip()
	trip.NumberOfDrivers = 0
	assert.ErrorIs(t, trip.Validate(), ErrInvalidDrivers)
}

func TestTrip_NormalizeLegacy_Sentinel(t *testing.T) {
	trip := validTrip()
	trip.Notes = "[eigene Rechnung] Familienfahrt"
	trip.NormalizeLegacy()

	assert.True(t, trip.OwnAccount)
	assert.Equal(t, "Familienfahrt", trip.Notes)
}

func TestTrip_NormalizeLegacy_Defaults(t *testing.T) {
	trip := validTrip()
	trip.NumberOfDrivers = 0
	trip.CollectedPayment = false
	trip.NormalizeLegacy()

	assert.Equal(t, 1, trip.NumberOfDrivers)
	assert.True(t, trip.CollectedPayment)
}

func TestTrip_NormalizeLegacy_PlainNoteUntouched(t *testing.T) {
	trip := validTrip()
	trip.Notes = "Stammkunde"
	trip.NormalizeLegacy()

	assert.False(t, trip.OwnAccount)
	assert.Equal(t, "Stammkunde", trip.Notes)
}
