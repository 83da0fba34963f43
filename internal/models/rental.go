package models

import "time"

// CarRental records a vehicle lent out for a period, for example one of the
// spare cars handed to a guest or another business.
type CarRental struct {
	ID           string    `json:"id"`
	Username     string    `json:"username,omitempty"`
	LicensePlate string    `json:"licensePlate"`
	StartTime    time.Time `json:"startTime"`
	EndTime      time.Time `json:"endTime"`
	Amount       float64   `json:"amount"`
	SyncStatus   SyncState `json:"syncStatus,omitempty"`
}

// Validate checks the rental before it may be stored or queued.
func (r *CarRental) Validate() error {
	if r.ID == "" || r.LicensePlate == "" {
		return ErrMissingField
	}
	if r.Amount <= 0 {
		return ErrInvalidAmount
	}
	if !r.EndTime.After(r.StartTime) {
		return ErrInvalidDuration
	}
	return nil
}
