package domain

import "time"

type Status string

const (
	StatusInitialized Status = "initialized"
	StatusSucceeded   Status = "succeeded"
	StatusFailed      Status = "failed"
)

// Payment is one gateway transaction for a placed order. Amount is in major units.
type Payment struct {
	Reference        string
	OrderID          string
	SessionID        string
	Email            string
	Amount           int64
	Status           Status
	AuthorizationURL string
	AccessCode       string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (p Payment) WithStatus(s Status, at time.Time) Payment {
	p.Status = s
	p.UpdatedAt = at.UTC()
	return p
}
