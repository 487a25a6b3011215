package service

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"orkutbook/internal/model"
	"orkutbook/internal/repository"
)

// PhotoUploader uploads a profile photo and invalidates the previous link.
// Implemented by MediaService.
type PhotoUploader interface {
	UploadProfilePhoto(ctx context.Context, ownerID uuid.UUID, upload model.MediaUpload) (string, error)
	InvalidateLink(ctx context.Context, storedReference string) error
}

// ProfileService coordinates profile mutations. The only mutable surface is
// the photo: normalize, upload, then swap the stored reference.
type ProfileService struct {
	profileRepo repository.ProfileRepository
	media       PhotoUploader
}

func NewProfileService(profileRepo repository.ProfileRepository, media PhotoUploader) *ProfileService {
	return &ProfileService{
		profileRepo: profileRepo,
		media:       media,
	}
}

// SetPhoto uploads a new profile photo for the viewer and records its
// reference. The previous photo's cached link is invalidated so stale
// signed URLs stop serving; the old object itself is left for the
// maintenance worker to reclaim.
func (s *ProfileService) SetPhoto(ctx context.Context, viewerID uuid.UUID, upload model.MediaUpload) (*model.Profile, error) {
	existing, err := s.profileRepo.GetByID(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	oldPhoto := existing.PhotoURL

	photoURL, err := s.media.UploadProfilePhoto(ctx, viewerID, upload)
	if err != nil {
		return nil, fmt.Errorf("upload profile photo: %w", err)
	}

	profile, err := s.profileRepo.UpdatePhoto(ctx, viewerID, photoURL)
	if err != nil {
		return nil, err
	}

	if oldPhoto != nil && *oldPhoto != "" {
		if err := s.media.InvalidateLink(ctx, *oldPhoto); err != nil {
			log.Printf("[ProfileService] Invalidate old photo link failed: ref=%s err=%v", *oldPhoto, err)
		}
	}

	log.Printf("[ProfileService] User %s updated profile photo", viewerID)
	return profile, nil
}
