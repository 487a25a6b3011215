package model

import (
	"errors"
	"time"
)

// SignedURLLifetime is the fixed lifetime of every signed media link.
// This value is a contract with clients, not a per-call tunable.
const SignedURLLifetime = 24 * time.Hour

// Storage folders, matching the upload path conventions
// posts/<owner_id>-<epoch_millis>.<ext> and images/<owner_id>-<epoch_millis>.<ext>.
const (
	PostMediaFolder    = "posts"
	ProfileMediaFolder = "images"
)

// ResolvedMediaLink maps a stored reference to a time-boxed signed URL.
// Derived, never persisted. A link past ExpiresAt must not be served;
// callers re-resolve instead of reusing a stored result.
type ResolvedMediaLink struct {
	SignedURL string    `json:"signed_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the link is past its lifetime at the given instant.
func (l ResolvedMediaLink) Expired(now time.Time) bool {
	return !now.Before(l.ExpiresAt)
}

// MediaUpload is an in-memory media attachment for a create/update.
type MediaUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Upload constraints
const (
	MaxMediaSizeBytes = 10 * 1024 * 1024 // 10MB

	ProfilePhotoWidth   = 200
	ProfilePhotoHeight  = 200
	ProfilePhotoQuality = 85

	ContentTypeJPEG = "image/jpeg"
	ContentTypePNG  = "image/png"
	ContentTypeGIF  = "image/gif"
	ContentTypeWebP = "image/webp"
)

var allowedImageTypes = map[string]struct{}{
	ContentTypeJPEG: {},
	ContentTypePNG:  {},
	ContentTypeGIF:  {},
	ContentTypeWebP: {},
}

// IsAllowedImageType reports if the provided content type is supported.
func IsAllowedImageType(contentType string) bool {
	_, ok := allowedImageTypes[contentType]
	return ok
}

// Media errors
var (
	ErrFileTooLarge     = errors.New("file too large")
	ErrInvalidImageType = errors.New("invalid image type")
)
