package models

// SupportTicket is a free-form message a driver sends to the operator of the
// deployment, delivered through the same write queue as the record types.
type SupportTicket struct {
	ID       string `json:"id"`
	Username string `json:"username,omitempty"`
	Subject  string `json:"subject"`
	Message  string `json:"message"`
}

// Validate checks the ticket before it may be queued.
func (t *SupportTicket) Validate() error {
	if t.ID == "" || t.Subject == "" || t.Message == "" {
		return ErrMissingField
	}
	return nil
}
