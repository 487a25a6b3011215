package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"orkutbook/internal/model"
)

type postRepository struct {
	db *sqlx.DB
}

func NewPostRepository(db *sqlx.DB) PostRepository {
	return &postRepository{db: db}
}

// postRow scans a post with its joined author profile.
type postRow struct {
	ID        uuid.UUID `db:"id"`
	UserID    uuid.UUID `db:"user_id"`
	Title     string    `db:"title"`
	Slug      string    `db:"slug"`
	Content   *string   `db:"content"`
	ImageURL  *string   `db:"image_url"`
	CreatedAt time.Time `db:"created_at"`

	AuthorID       uuid.UUID `db:"author.id"`
	AuthorName     string    `db:"author.display_name"`
	AuthorPhoto    *string   `db:"author.photo_url"`
	AuthorStatus   *string   `db:"author.status_message"`
	AuthorLocation *string   `db:"author.location"`
}

func (row postRow) toPost() model.Post {
	return model.Post{
		ID:        row.ID,
		UserID:    row.UserID,
		Title:     row.Title,
		Slug:      row.Slug,
		Content:   row.Content,
		ImageURL:  row.ImageURL,
		CreatedAt: row.CreatedAt,
		Author: &model.Profile{
			ID:            row.AuthorID,
			DisplayName:   row.AuthorName,
			PhotoURL:      row.AuthorPhoto,
			StatusMessage: row.AuthorStatus,
			Location:      row.AuthorLocation,
		},
	}
}

const postSelectColumns = `
	p.id, p.user_id, p.title, p.slug, p.content, p.image_url, p.created_at,
	pr.id AS "author.id", pr.display_name AS "author.display_name",
	pr.photo_url AS "author.photo_url", pr.status_message AS "author.status_message",
	pr.location AS "author.location"
`

func (r *postRepository) Create(ctx context.Context, userID uuid.UUID, title, slug string, content, imageURL *string) (*model.Post, error) {
	query := `
		INSERT INTO posts (user_id, title, slug, content, image_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, user_id, title, slug, content, image_url, created_at
	`
	var post model.Post
	err := r.db.GetContext(ctx, &post, query, userID, title, slug, content, imageURL)
	if err != nil {
		return nil, fmt.Errorf("insert post: %w", err)
	}
	return &post, nil
}

func (r *postRepository) Update(ctx context.Context, postID, userID uuid.UUID, title string, content, imageURL *string) (*model.Post, error) {
	query := `
		UPDATE posts
		SET title = $1, content = $2, image_url = COALESCE($3, image_url)
		WHERE id = $4 AND user_id = $5
		RETURNING id, user_id, title, slug, content, image_url, created_at
	`
	var post model.Post
	err := r.db.GetContext(ctx, &post, query, title, content, imageURL, postID, userID)
	if err == sql.ErrNoRows {
		// Distinguish a missing post from someone else's post.
		var exists bool
		r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM posts WHERE id = $1)`, postID)
		if exists {
			return nil, model.ErrNotPostOwner
		}
		return nil, model.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}
	return &post, nil
}

// Delete removes the post record. There is deliberately no cascade onto
// post_comments; orphaned comments are excluded at read time instead.
func (r *postRepository) Delete(ctx context.Context, postID, userID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1 AND user_id = $2`, postID, userID)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete post rows affected: %w", err)
	}
	if rows == 0 {
		var exists bool
		r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM posts WHERE id = $1)`, postID)
		if exists {
			return model.ErrNotPostOwner
		}
		return model.ErrPostNotFound
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, postID uuid.UUID) (*model.Post, error) {
	query := `
		SELECT id, user_id, title, slug, content, image_url, created_at
		FROM posts
		WHERE id = $1
	`
	var post model.Post
	err := r.db.GetContext(ctx, &post, query, postID)
	if err == sql.ErrNoRows {
		return nil, model.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	return &post, nil
}

func (r *postRepository) ListNewestFirst(ctx context.Context) ([]model.Post, error) {
	query := `
		SELECT ` + postSelectColumns + `
		FROM posts p
		JOIN profiles pr ON pr.id = p.user_id
		ORDER BY p.created_at DESC, p.id DESC
	`
	var rows []postRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	posts := make([]model.Post, len(rows))
	for i, row := range rows {
		posts[i] = row.toPost()
	}
	return posts, nil
}

func (r *postRepository) ListByIDs(ctx context.Context, postIDs []uuid.UUID) ([]model.Post, error) {
	if len(postIDs) == 0 {
		return []model.Post{}, nil
	}

	ids := make([]string, len(postIDs))
	for i, id := range postIDs {
		ids[i] = id.String()
	}

	query := `
		SELECT ` + postSelectColumns + `
		FROM posts p
		JOIN profiles pr ON pr.id = p.user_id
		WHERE p.id = ANY($1)
		ORDER BY p.created_at DESC, p.id DESC
	`
	var rows []postRow
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("list posts by ids: %w", err)
	}

	posts := make([]model.Post, len(rows))
	for i, row := range rows {
		posts[i] = row.toPost()
	}
	return posts, nil
}

func (r *postRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM posts WHERE slug = $1)`, slug)
	if err != nil {
		return false, fmt.Errorf("check slug: %w", err)
	}
	return exists, nil
}
