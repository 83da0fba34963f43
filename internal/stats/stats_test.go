package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taxilog/taxilog/internal/models"
)

func cashTrip(id, user string, amount float64, drivers int, collected bool) models.Trip {
	return models.Trip{
		ID:               id,
		Username:         user,
		LicensePlate:     "B-TX 1234",
		Payment:          models.Payment{Type: models.PaymentCash, Amount: amount},
		NumberOfDrivers:  drivers,
		CollectedPayment: collected,
	}
}

func TestSummarize_SplitCashTrip(t *testing.T) {
	trips := []models.Trip{cashTrip("t1", "anna", 100, 2, true)}

	s := Summarize(trips, nil, 0.5)

	assert.Equal(t, 1, s.TripCount)
	assert.Equal(t, 25.00, s.Earnings)
	assert.Equal(t, 100.00, s.CashCollected)
	assert.Equal(t, 75.00, s.OwedToBoss)
	assert.Equal(t, 0.00, s.InvoiceTotal)
}

func TestSummarize_OwnAccountTrip(t *testing.T) {
	trip := cashTrip("t1", "anna", 80, 1, true)
	trip.OwnAccount = true

	s := Summarize([]models.Trip{trip}, nil, 0.5)

	// Full amount to the driver, nothing owed to the owner
	assert.Equal(t, 80.00, s.Earnings)
	assert.Equal(t, 80.00, s.OwnAccountTotal)
	assert.Equal(t, 0.00, s.CashCollected)
	assert.Equal(t, 0.00, s.OwedToBoss)
}

func TestSummarize_MixedTrips(t *testing.T) {
	own := cashTrip("t2", "anna", 80, 1, true)
	own.OwnAccount = true
	trips := []models.Trip{cashTrip("t1", "anna", 100, 2, true), own}

	s := Summarize(trips, nil, 0.5)

	assert.Equal(t, 2, s.TripCount)
	assert.Equal(t, 105.00, s.Earnings)
	assert.Equal(t, 100.00, s.CashCollected)
	// Own-account proceeds never enter the settlement
	assert.Equal(t, 75.00, s.OwedToBoss)
}

func TestSummarize_SettledTripsExcluded(t *testing.T) {
	settled := cashTrip("t1", "anna", 100, 1, true)
	settled.Settled = true

	s := Summarize([]models.Trip{settled}, nil, 0.5)

	assert.Equal(t, 0, s.TripCount)
	assert.Equal(t, 0.00, s.Earnings)
	assert.Equal(t, 0.00, s.OwedToBoss)
}

func TestSummarize_InvoiceTrip(t *testing.T) {
	trip := cashTrip("t1", "anna", 60, 1, true)
	trip.Payment.Type = models.PaymentInvoice

	s := Summarize([]models.Trip{trip}, nil, 0.5)

	// Invoiced money never passed through the driver's hands
	assert.Equal(t, 60.00, s.InvoiceTotal)
	assert.Equal(t, 0.00, s.CashCollected)
	assert.Equal(t, 30.00, s.Earnings)
	assert.Equal(t, -30.00, s.OwedToBoss)
}

func TestSummarize_UncollectedInvoiceExcluded(t *testing.T) {
	trip := cashTrip("t1", "anna", 60, 1, false)
	trip.Payment.Type = models.PaymentInvoice

	s := Summarize([]models.Trip{trip}, nil, 0.5)

	// A colleague issued the invoice; it shows up on their figures only
	assert.Equal(t, 0.00, s.InvoiceTotal)
	assert.Equal(t, 30.00, s.Earnings)
	assert.Equal(t, -30.00, s.OwedToBoss)
}

func TestSummarize_UncollectedCashExcluded(t *testing.T) {
	s := Summarize([]models.Trip{cashTrip("t1", "anna", 100, 2, false)}, nil, 0.5)

	// The colleague holds the cash; this driver still earned the share
	assert.Equal(t, 0.00, s.CashCollected)
	assert.Equal(t, 25.00, s.Earnings)
	assert.Equal(t, -25.00, s.OwedToBoss)
}

func TestSummarize_Expenses(t *testing.T) {
	trips := []models.Trip{cashTrip("t1", "anna", 100, 2, true)}
	expenses := []models.Expense{
		{ID: "e1", Amount: 10},
		{ID: "e2", Amount: 5, Reimbursed: true},
	}

	s := Summarize(trips, expenses, 0.5)

	assert.Equal(t, 10.00, s.ExpenseTotal)
	assert.Equal(t, 65.00, s.OwedToBoss)
}

func TestCockpit_GroupsByDriverAndPlate(t *testing.T) {
	t1 := cashTrip("t1", "anna", 100, 2, true)
	t2 := cashTrip("t2", "ben", 50, 1, true)
	t2.LicensePlate = "B-TX 5678"
	own := cashTrip("t3", "ben", 80, 1, true)
	own.OwnAccount = true

	c := Cockpit([]models.Trip{t1, t2, own}, nil, nil, 0.5)

	assert.Equal(t, 150.00, c.Revenue)
	assert.Equal(t, 100.00, c.Plates["B-TX 1234"])
	assert.Equal(t, 50.00, c.Plates["B-TX 5678"])

	anna := c.Drivers["anna"]
	assert.Equal(t, 1, anna.TripCount)
	assert.Equal(t, 100.00, anna.Revenue)
	assert.Equal(t, 25.00, anna.DriverShare)
	assert.Equal(t, 75.00, anna.Outstanding)

	ben := c.Drivers["ben"]
	assert.Equal(t, 2, ben.TripCount)
	// Own-account trip counts for the driver but not for owner revenue
	assert.Equal(t, 50.00, ben.Revenue)
	assert.Equal(t, 25.00, ben.DriverShare)
	assert.Equal(t, 25.00, ben.Outstanding)
}

func TestCockpit_ExpensesAndRentals(t *testing.T) {
	expenses := []models.Expense{{ID: "e1", Username: "anna", Amount: 12}}
	rentals := []models.CarRental{{ID: "r1", Amount: 60}, {ID: "r2", Amount: 40}}

	c := Cockpit(nil, expenses, rentals, 0.5)

	assert.Equal(t, 12.00, c.Drivers["anna"].ExpenseTotal)
	assert.Equal(t, -12.00, c.Drivers["anna"].Outstanding)
	assert.Equal(t, 100.00, c.RentalTotal)
}
