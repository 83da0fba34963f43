package models

// Expense is an out-of-pocket cost a driver expects the owner to reimburse.
type Expense struct {
	ID          string    `json:"id"`
	Username    string    `json:"username,omitempty"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	Reimbursed  bool      `json:"isReimbursed"`
	SyncStatus  SyncState `json:"syncStatus,omitempty"`
}

// Validate checks the expense before it may be stored or queued.
func (e *Expense) Validate() error {
	if e.ID == "" || e.Description == "" {
		return ErrMissingField
	}
	if e.Amount <= 0 {
		return ErrInvalidAmount
	}
	return nil
}
