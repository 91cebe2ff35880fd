package model

import "time"

// Unit is an organizational sub-division that owns assets and scopes access.
type Unit struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"created_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}
