// Package stats derives settlement figures from trip and expense lists.
// All figures are computed over open records only: unsettled trips and
// unreimbursed expenses. Settling clears a record from every figure here.
package stats

import (
	"math"

	"github.com/taxilog/taxilog/internal/models"
)

// OpenSummary is the driver's view of everything still open.
type OpenSummary struct {
	TripCount       int     `json:"tripCount"`
	Earnings        float64 `json:"earnings"`
	CashCollected   float64 `json:"cashCollected"`
	InvoiceTotal    float64 `json:"invoiceTotal"`
	OwnAccountTotal float64 `json:"ownAccountTotal"`
	ExpenseTotal    float64 `json:"expenseTotal"`
	OwedToBoss      float64 `json:"owedToBoss"`
}

// DriverFigures is one driver's slice of the owner overview.
type DriverFigures struct {
	TripCount     int     `json:"tripCount"`
	Revenue       float64 `json:"revenue"`
	DriverShare   float64 `json:"driverShare"`
	CashCollected float64 `json:"cashCollected"`
	ExpenseTotal  float64 `json:"expenseTotal"`
	Outstanding   float64 `json:"outstanding"`
}

// CockpitSummary is the owner's overview across all drivers.
type CockpitSummary struct {
	Drivers     map[string]*DriverFigures `json:"drivers"`
	Plates      map[string]float64        `json:"plates"`
	Revenue     float64                   `json:"revenue"`
	RentalTotal float64                   `json:"rentalTotal"`
}

// share is what the driver keeps from a split trip.
func share(t models.Trip, ratio float64) float64 {
	return t.Payment.Amount * ratio / float64(t.NumberOfDrivers)
}

// Summarize computes the driver's open figures. Own-account trips pay the
// driver in full and take no part in the settlement with the owner.
func Summarize(trips []models.Trip, expenses []models.Expense, ratio float64) OpenSummary {
	var s OpenSummary
	for _, t := range trips {
		if t.Settled {
			continue
		}
		s.TripCount++
		if t.OwnAccount {
			s.Earnings += t.Payment.Amount
			s.OwnAccountTotal += t.Payment.Amount
			continue
		}
		s.Earnings += share(t, ratio)
		switch t.Payment.Type {
		case models.PaymentCash:
			if t.CollectedPayment {
				s.CashCollected += t.Payment.Amount
			}
		case models.PaymentInvoice:
			if t.CollectedPayment {
				s.InvoiceTotal += t.Payment.Amount
			}
		}
	}
	for _, e := range expenses {
		if e.Reimbursed {
			continue
		}
		s.ExpenseTotal += e.Amount
	}
	s.OwedToBoss = s.CashCollected - (s.Earnings - s.OwnAccountTotal) - s.ExpenseTotal
	return roundSummary(s)
}

// Cockpit computes the owner's overview. Trip and expense slices span all
// drivers; figures are grouped by the record's username. Own-account trips
// never count towards owner revenue or plate figures.
func Cockpit(trips []models.Trip, expenses []models.Expense, rentals []models.CarRental, ratio float64) CockpitSummary {
	c := CockpitSummary{
		Drivers: map[string]*DriverFigures{},
		Plates:  map[string]float64{},
	}
	figuresFor := func(user string) *DriverFigures {
		f, ok := c.Drivers[user]
		if !ok {
			f = &DriverFigures{}
			c.Drivers[user] = f
		}
		return f
	}
	for _, t := range trips {
		if t.Settled {
			continue
		}
		f := figuresFor(t.Username)
		f.TripCount++
		if t.OwnAccount {
			continue
		}
		f.Revenue += t.Payment.Amount
		f.DriverShare += share(t, ratio)
		if t.Payment.Type == models.PaymentCash && t.CollectedPayment {
			f.CashCollected += t.Payment.Amount
		}
		c.Revenue += t.Payment.Amount
		c.Plates[t.LicensePlate] += t.Payment.Amount
	}
	for _, e := range expenses {
		if e.Reimbursed {
			continue
		}
		figuresFor(e.Username).ExpenseTotal += e.Amount
	}
	for _, r := range rentals {
		c.RentalTotal += r.Amount
	}
	for user, f := range c.Drivers {
		f.Outstanding = round(f.CashCollected - f.DriverShare - f.ExpenseTotal)
		f.Revenue = round(f.Revenue)
		f.DriverShare = round(f.DriverShare)
		f.CashCollected = round(f.CashCollected)
		f.ExpenseTotal = round(f.ExpenseTotal)
		c.Drivers[user] = f
	}
	for plate, v := range c.Plates {
		c.Plates[plate] = round(v)
	}
	c.Revenue = round(c.Revenue)
	c.RentalTotal = round(c.RentalTotal)
	return c
}

func roundSummary(s OpenSummary) OpenSummary {
	s.Earnings = round(s.Earnings)
	s.CashCollected = round(s.CashCollected)
	s.InvoiceTotal = round(s.InvoiceTotal)
	s.OwnAccountTotal = round(s.OwnAccountTotal)
	s.ExpenseTotal = round(s.ExpenseTotal)
	s.OwedToBoss = round(s.OwedToBoss)
	return s
}

// round clips a euro amount to cents.
func round(v float64) float64 {
	return math.Round(v*100) / 100
}
