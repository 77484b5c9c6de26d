package entity

import (
	"time"

	"github.com/google/uuid"
)

// Store is a retail location records may be attributed to.
type Store struct {
	ID        uuid.UUID `json:"id"`
	StoreName string    `json:"store_name"`
	Channel   *string   `json:"channel,omitempty"`
	Branch    *string   `json:"branch,omitempty"`
	Manager   *string   `json:"manager,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StoreFilter narrows store listings; matching is case-insensitive substring.
type StoreFilter struct {
	StoreName string
	Channel   string
	Branch    string
}

// StoreUpdate carries the fields to overwrite; nil leaves a field untouched.
type StoreUpdate struct {
	StoreName *string
	Channel   *string
	Branch    *string
	Manager   *string
}
