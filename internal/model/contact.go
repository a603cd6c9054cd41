// internal/model/contact.go
package model

import "time"

type Contact struct {
	ID           string            `db:"id" json:"id"`
	Email        string            `db:"email" json:"email" validate:"required,email"`
	FirstName    string            `db:"first_name" json:"first_name"`
	LastName     string            `db:"last_name" json:"last_name"`
	Company      string            `db:"company" json:"company"`
	CustomFields map[string]string `db:"custom_fields" json:"custom_fields"`
	CreatedAt    time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt    *time.Time        `db:"updated_at" json:"updated_at,omitempty"`
}

// ContactPatch carries the fields of an update; nil means unchanged.
type ContactPatch struct {
	FirstName    *string           `json:"first_name"`
	LastName     *string           `json:"last_name"`
	Company      *string           `json:"company"`
	CustomFields map[string]string `json:"custom_fields"`
}

type ContactList struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	ContactIDs  []string  `db:"-" json:"contact_ids"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
