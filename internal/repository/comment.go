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

type commentRepository struct {
	db *sqlx.DB
}

func NewCommentRepository(db *sqlx.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, postID, userID uuid.UUID, content string, parentID *uuid.UUID) (*model.Comment, error) {
	query := `
		INSERT INTO post_comments (post_id, user_id, content, parent_comment_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, post_id, user_id, content, parent_comment_id, created_at
	`
	var comment model.Comment
	err := r.db.GetContext(ctx, &comment, query, postID, userID, content, parentID)
	if err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}
	return &comment, nil
}

// Delete removes a single comment. Replies are left in place; the thread
// builder surfaces them as roots on the next read. Ownership rules live in
// the service layer because post owners may also delete.
func (r *commentRepository) Delete(ctx context.Context, commentID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM post_comments WHERE id = $1`, commentID)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete comment rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrCommentNotFound
	}
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, commentID uuid.UUID) (*model.Comment, error) {
	query := `
		SELECT id, post_id, user_id, content, parent_comment_id, created_at
		FROM post_comments
		WHERE id = $1
	`
	var comment model.Comment
	err := r.db.GetContext(ctx, &comment, query, commentID)
	if err == sql.ErrNoRows {
		return nil, model.ErrCommentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get comment: %w", err)
	}
	return &comment, nil
}

func (r *commentRepository) ListByPostIDs(ctx context.Context, postIDs []uuid.UUID) ([]model.Comment, error) {
	if len(postIDs) == 0 {
		return []model.Comment{}, nil
	}

	ids := make([]string, len(postIDs))
	for i, id := range postIDs {
		ids[i] = id.String()
	}

	// The flat set is ordered the way the thread builder expects siblings:
	// created_at ascending with id as a deterministic tiebreak.
	query := `
		SELECT c.id, c.post_id, c.user_id, c.content, c.parent_comment_id, c.created_at,
		       pr.id AS "author.id", pr.display_name AS "author.display_name",
		       pr.photo_url AS "author.photo_url", pr.status_message AS "author.status_message",
		       pr.location AS "author.location"
		FROM post_comments c
		JOIN profiles pr ON pr.id = c.user_id
		WHERE c.post_id = ANY($1)
		ORDER BY c.created_at ASC, c.id ASC
	`

	type commentRow struct {
		ID              uuid.UUID  `db:"id"`
		PostID          uuid.UUID  `db:"post_id"`
		UserID          uuid.UUID  `db:"user_id"`
		Content         string     `db:"content"`
		ParentCommentID *uuid.UUID `db:"parent_comment_id"`
		CreatedAt       time.Time  `db:"created_at"`

		AuthorID       uuid.UUID `db:"author.id"`
		AuthorName     string    `db:"author.display_name"`
		AuthorPhoto    *string   `db:"author.photo_url"`
		AuthorStatus   *string   `db:"author.status_message"`
		AuthorLocation *string   `db:"author.location"`
	}

	var rows []commentRow
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	comments := make([]model.Comment, len(rows))
	for i, row := range rows {
		comments[i] = model.Comment{
			ID:              row.ID,
			PostID:          row.PostID,
			UserID:          row.UserID,
			Content:         row.Content,
			ParentCommentID: row.ParentCommentID,
			CreatedAt:       row.CreatedAt,
			Author: &model.Profile{
				ID:            row.AuthorID,
				DisplayName:   row.AuthorName,
				PhotoURL:      row.AuthorPhoto,
				StatusMessage: row.AuthorStatus,
				Location:      row.AuthorLocation,
			},
		}
	}
	return comments, nil
}
