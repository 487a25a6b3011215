package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Post represents a feed post. The author profile is joined at read time
// and is not stored on the posts table.
type Post struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Title     string    `db:"title" json:"title"`
	Slug      string    `db:"slug" json:"slug"`
	Content   *string   `db:"content" json:"content"`
	ImageURL  *string   `db:"image_url" json:"image_url"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	Author *Profile `json:"author,omitempty"` // Joined field
}

// CreatePostInput carries a validated post creation request.
// Image, when present, is uploaded before the record write.
type CreatePostInput struct {
	Title   string `validate:"required,max=200"`
	Content string `validate:"required,max=5000"`
	Image   *MediaUpload
}

// UpdatePostInput carries a post edit. Only the owner may update, and only
// title, content and image change; a nil Image keeps the stored one.
type UpdatePostInput struct {
	Title   string `validate:"required,max=200"`
	Content string `validate:"required,max=5000"`
	Image   *MediaUpload
}

// Post constraints
const (
	MaxPostTitleLength   = 200
	MaxPostContentLength = 5000
)

// Post errors
var (
	ErrPostNotFound    = errors.New("post not found")
	ErrNotPostOwner    = errors.New("not the owner of this post")
	ErrTitleRequired   = errors.New("post title is required")
	ErrTitleTooLong    = errors.New("post title too long")
	ErrContentRequired = errors.New("content is required")
	ErrContentTooLong  = errors.New("content too long")
)
