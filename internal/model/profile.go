package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Profile represents a user's public profile. Profiles are owned by the
// account they describe and are never deleted by this service.
type Profile struct {
	ID            uuid.UUID `db:"id" json:"id"`
	DisplayName   string    `db:"display_name" json:"display_name"`
	PhotoURL      *string   `db:"photo_url" json:"photo_url"`
	StatusMessage *string   `db:"status_message" json:"status_message"`
	Location      *string   `db:"location" json:"location"`
	Bio           *string   `db:"bio" json:"bio"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

var (
	// ErrProfileNotFound is returned when the viewer has no profile yet.
	// Callers should route to profile creation rather than treat it as a hard failure.
	ErrProfileNotFound = errors.New("profile not found")
)
