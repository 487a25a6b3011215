package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"orkutbook/internal/model"
)

type profileRepository struct {
	db *sqlx.DB
}

func NewProfileRepository(db *sqlx.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	query := `
		SELECT id, display_name, photo_url, status_message, location, bio, created_at
		FROM profiles
		WHERE id = $1
	`
	var profile model.Profile
	err := r.db.GetContext(ctx, &profile, query, id)
	if err == sql.ErrNoRows {
		return nil, model.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &profile, nil
}

func (r *profileRepository) UpdatePhoto(ctx context.Context, id uuid.UUID, photoURL string) (*model.Profile, error) {
	query := `
		UPDATE profiles
		SET photo_url = $1
		WHERE id = $2
		RETURNING id, display_name, photo_url, status_message, location, bio, created_at
	`
	var profile model.Profile
	err := r.db.GetContext(ctx, &profile, query, photoURL, id)
	if err == sql.ErrNoRows {
		return nil, model.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update profile photo: %w", err)
	}
	return &profile, nil
}

// GetSuggestions returns the suggested profiles for a user in suggestion order.
func (r *profileRepository) GetSuggestions(ctx context.Context, userID uuid.UUID) ([]model.Profile, error) {
	query := `
		SELECT p.id, p.display_name, p.photo_url, p.status_message, p.location, p.bio, p.created_at
		FROM suggestions s
		JOIN profiles p ON p.id = s.suggested_user_id
		WHERE s.user_id = $1
		ORDER BY p.display_name ASC
	`
	profiles := []model.Profile{}
	if err := r.db.SelectContext(ctx, &profiles, query, userID); err != nil {
		return nil, fmt.Errorf("get suggestions: %w", err)
	}
	return profiles, nil
}
