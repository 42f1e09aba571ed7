package device

import (
	"errors"
	"time"
)

// Sentinel errors for controller operations.
var (
	ErrNotFound = errors.New("device: controller not found")
	ErrExists   = errors.New("device: controller already exists")
	ErrInvalid  = errors.New("device: invalid controller")
)

// Controller is one registered lighting controller.
type Controller struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	ProfileID string     `json:"profileId,omitempty"`
	Online    bool       `json:"online"`
	LastSeen  *time.Time `json:"lastSeen,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Validate checks required fields before persistence.
func (c *Controller) Validate() error {
	if c.ID == "" {
		return ErrInvalid
	}
	if c.Name == "" {
		return ErrInvalid
	}
	return nil
}
