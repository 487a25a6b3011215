package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Comment represents a comment on a post. ParentCommentID is nil for
// top-level comments and must reference a comment on the same post when set.
// Children is populated only by the thread builder and never persisted.
type Comment struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	PostID          uuid.UUID  `db:"post_id" json:"post_id"`
	UserID          uuid.UUID  `db:"user_id" json:"user_id"`
	ParentCommentID *uuid.UUID `db:"parent_comment_id" json:"parent_comment_id,omitempty"`
	Content         string     `db:"content" json:"content"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`

	Author   *Profile  `json:"author,omitempty"`   // Joined field
	Children []Comment `json:"children,omitempty"` // Built by thread.Build, not stored
}

// CreateCommentRequest is the request body for creating a comment.
type CreateCommentRequest struct {
	Content         string     `json:"content" validate:"required,max=2200"`
	ParentCommentID *uuid.UUID `json:"parent_comment_id,omitempty"`
}

// Comment constraints
const (
	MaxCommentLength = 2200
)

// Comment errors
var (
	ErrCommentNotFound = errors.New("comment not found")
	ErrNotCommentOwner = errors.New("not allowed to delete this comment")
	ErrCommentEmpty    = errors.New("comment content is required")
	ErrCommentTooLong  = errors.New("comment content too long")
	ErrParentMismatch  = errors.New("parent comment belongs to a different post")
	ErrParentNotFound  = errors.New("parent comment not found")
)
