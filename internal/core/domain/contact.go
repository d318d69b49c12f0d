// internal/core/domain/contact.go
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Client is a customer contact record. Plain field storage, no invariants
// beyond referential existence.
type Client struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks required client fields
func (c *Client) Validate() error {
	if c.Name == "" {
		return NewValidationError("name", "is required")
	}
	return nil
}

// PrepareForStorage assigns an id and timestamps
func (c *Client) PrepareForStorage() {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	now := time.Now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
}

// Supplier is a parts supplier contact record.
type Supplier struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks required supplier fields
func (s *Supplier) Validate() error {
	if s.Name == "" {
		return NewValidationError("name", "is required")
	}
	return nil
}

// PrepareForStorage assigns an id and timestamps
func (s *Supplier) PrepareForStorage() {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	now := time.Now()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
}

// Device is a customer's device brought in for repair.
type Device struct {
	ID           uuid.UUID `json:"id"`
	ClientID     uuid.UUID `json:"client_id"`
	Brand        string    `json:"brand"`
	Model        string    `json:"model"`
	SerialNumber string    `json:"serial_number,omitempty"`
	Fault        string    `json:"fault,omitempty"`
	IntakeDate   time.Time `json:"intake_date"`
	CreatedAt    time.Time `json:"created_at"`
}

// Validate checks required device fields
func (d *Device) Validate() error {
	if d.ClientID == uuid.Nil {
		return NewValidationError("client_id", "is required")
	}
	if d.Brand == "" {
		return NewValidationError("brand", "is required")
	}
	if d.Model == "" {
		return NewValidationError("model", "is required")
	}
	return nil
}

// PrepareForStorage assigns an id and timestamps
func (d *Device) PrepareForStorage() {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	now := time.Now()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	if d.IntakeDate.IsZero() {
		d.IntakeDate = now
	}
}
