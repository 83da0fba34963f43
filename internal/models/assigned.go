package models

import "time"

// AssignedTripStatus tracks a driver's response to a dispatched trip.
type AssignedTripStatus string

const (
	AssignedPending  AssignedTripStatus = "pending"
	AssignedAccepted AssignedTripStatus = "accepted"
	AssignedDeclined AssignedTripStatus = "declined"
)

// AssignedTrip is a trip the owner dispatched to a driver. The backend is the
// only authority for these records: they are never snapshotted locally and
// never merged, so a removed assignment cannot be resurrected from a stale
// local copy. Only the status update travels through the sync queue.
type AssignedTrip struct {
	ID          string             `json:"id"`
	AssignedTo  string             `json:"assignedTo"`
	Start       string             `json:"start"`
	Destination string             `json:"destination"`
	Amount      float64            `json:"amount"`
	Note        string             `json:"note,omitempty"`
	PickupTime  time.Time          `json:"pickupTime"`
	Status      AssignedTripStatus `json:"status"`
}

// ValidAssignedStatus reports whether s is a status a driver may set.
func ValidAssignedStatus(s AssignedTripStatus) bool {
	return s == AssignedAccepted || s == AssignedDeclined
}
