package repository

import (
	"context"

	"github.com/google/uuid"

	"orkutbook/internal/model"
)

type ProfileRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Profile, error)
	// UpdatePhoto stores the new photo reference and returns the updated row.
	UpdatePhoto(ctx context.Context, id uuid.UUID, photoURL string) (*model.Profile, error)
	// GetSuggestions returns the profiles suggested to a user, read-only.
	GetSuggestions(ctx context.Context, userID uuid.UUID) ([]model.Profile, error)
}

type PostRepository interface {
	Create(ctx context.Context, userID uuid.UUID, title, slug string, content, imageURL *string) (*model.Post, error)
	// Update edits title/content/image. Ownership is enforced here; a nil
	// imageURL keeps the stored one.
	Update(ctx context.Context, postID, userID uuid.UUID, title string, content, imageURL *string) (*model.Post, error)
	// Delete removes a post. Comments are left in place; the read path
	// excludes them once their post is gone.
	Delete(ctx context.Context, postID, userID uuid.UUID) error
	GetByID(ctx context.Context, postID uuid.UUID) (*model.Post, error)
	// ListNewestFirst returns all posts with their author profile joined,
	// ordered by created_at descending (id descending on ties).
	ListNewestFirst(ctx context.Context) ([]model.Post, error)
	// ListByIDs returns the named posts author-joined, newest first.
	// Ids that no longer exist are simply absent from the result.
	ListByIDs(ctx context.Context, postIDs []uuid.UUID) ([]model.Post, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
}

type CommentRepository interface {
	Create(ctx context.Context, postID, userID uuid.UUID, content string, parentID *uuid.UUID) (*model.Comment, error)
	// Delete removes a single comment; replies stay and surface as roots.
	Delete(ctx context.Context, commentID uuid.UUID) error
	GetByID(ctx context.Context, commentID uuid.UUID) (*model.Comment, error)
	// ListByPostIDs returns the flat comment set for the given posts with
	// author profiles joined, ordered by created_at ascending (id on ties).
	ListByPostIDs(ctx context.Context, postIDs []uuid.UUID) ([]model.Comment, error)
}
