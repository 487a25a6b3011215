package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"orkutbook/internal/model"
	"orkutbook/internal/queue"
	"orkutbook/internal/repository"
)

// FeedRefresher re-derives the read model for a post scope after a mutation.
// Implemented by FeedService.
type FeedRefresher interface {
	Refresh(ctx context.Context, viewerID uuid.UUID, postIDs []uuid.UUID) (*model.Feed, error)
}

// MediaUploader uploads media objects ahead of record writes.
// Implemented by MediaService.
type MediaUploader interface {
	UploadPostImage(ctx context.Context, ownerID uuid.UUID, upload model.MediaUpload) (string, error)
}

// PostService coordinates post mutations: validate, upload media, write the
// record, then ask the aggregator to refresh the affected scope. A failed
// write triggers no refresh and surfaces to the caller.
type PostService struct {
	postRepo  repository.PostRepository
	media     MediaUploader
	feed      FeedRefresher
	publisher queue.Publisher // may be nil when no stream is configured
	slugs     slugClock
}

func NewPostService(
	postRepo repository.PostRepository,
	media MediaUploader,
	feed FeedRefresher,
	publisher queue.Publisher,
) *PostService {
	return &PostService{
		postRepo:  postRepo,
		media:     media,
		feed:      feed,
		publisher: publisher,
	}
}

// Create validates the input, uploads the attached image (if any) before the
// record write, derives the unique slug, inserts the post, and refreshes the
// feed scoped to the new post. An upload that succeeds before a failed
// record write leaves an orphaned object behind; that narrow window is a
// documented limitation, not something this service cleans up.
func (s *PostService) Create(ctx context.Context, viewerID uuid.UUID, input model.CreatePostInput) (*model.Post, *model.Feed, error) {
	if err := validatePostInput(input.Title, input.Content); err != nil {
		return nil, nil, err
	}

	var imageURL *string
	if input.Image != nil {
		url, err := s.media.UploadPostImage(ctx, viewerID, *input.Image)
		if err != nil {
			return nil, nil, fmt.Errorf("upload post image: %w", err)
		}
		imageURL = &url
	}

	slug := s.slugs.generateSlug(input.Title, time.Now())
	// The clock guarantees in-process uniqueness; another instance could
	// still land on the same millisecond, so check and bump once.
	if exists, err := s.postRepo.SlugExists(ctx, slug); err == nil && exists {
		slug = s.slugs.generateSlug(input.Title, time.Now())
	}
	content := strings.TrimSpace(input.Content)

	post, err := s.postRepo.Create(ctx, viewerID, strings.TrimSpace(input.Title), slug, &content, imageURL)
	if err != nil {
		if imageURL != nil {
			log.Printf("[PostService] Create: record write failed after upload, object orphaned: ref=%s", *imageURL)
		}
		return nil, nil, fmt.Errorf("create post: %w", err)
	}

	log.Printf("[PostService] User %s created post %s slug=%s", viewerID, post.ID, post.Slug)

	s.publish(ctx, queue.NewPostCreatedEvent(post.ID, viewerID, refSlice(imageURL)))

	feed := s.refresh(ctx, viewerID, post.ID)
	return post, feed, nil
}

// Update edits title/content/image on an owned post. A replacement image is
// uploaded before the record write; the previous object stays in storage but
// its cached signed link is retired.
func (s *PostService) Update(ctx context.Context, viewerID, postID uuid.UUID, input model.UpdatePostInput) (*model.Post, *model.Feed, error) {
	if err := validatePostInput(input.Title, input.Content); err != nil {
		return nil, nil, err
	}

	existing, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, nil, err
	}
	// Reject non-owners before the upload so they cannot orphan objects
	// into storage; the UPDATE re-checks under the same transaction.
	if existing.UserID != viewerID {
		return nil, nil, model.ErrNotPostOwner
	}

	var imageURL *string
	if input.Image != nil {
		url, err := s.media.UploadPostImage(ctx, viewerID, *input.Image)
		if err != nil {
			return nil, nil, fmt.Errorf("upload post image: %w", err)
		}
		imageURL = &url
	}

	content := strings.TrimSpace(input.Content)
	post, err := s.postRepo.Update(ctx, postID, viewerID, strings.TrimSpace(input.Title), &content, imageURL)
	if err != nil {
		if imageURL != nil {
			log.Printf("[PostService] Update: record write failed after upload, object orphaned: ref=%s", *imageURL)
		}
		return nil, nil, err
	}

	log.Printf("[PostService] User %s updated post %s", viewerID, postID)

	var stale []string
	if imageURL != nil && existing.ImageURL != nil {
		stale = []string{*existing.ImageURL}
	}
	s.publish(ctx, queue.NewPostUpdatedEvent(postID, viewerID, refSlice(imageURL), stale))

	feed := s.refresh(ctx, viewerID, postID)
	return post, feed, nil
}

// Delete removes an owned post. Its comments are not cascaded; they simply
// stop being reachable from the feed because comments are only fetched for
// posts that still exist.
func (s *PostService) Delete(ctx context.Context, viewerID, postID uuid.UUID) (*model.Feed, error) {
	existing, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	if err := s.postRepo.Delete(ctx, postID, viewerID); err != nil {
		return nil, err
	}

	log.Printf("[PostService] User %s deleted post %s", viewerID, postID)

	s.publish(ctx, queue.NewPostDeletedEvent(postID, viewerID, refSlice(existing.ImageURL)))

	feed := s.refresh(ctx, viewerID, postID)
	return feed, nil
}

// validatePostInput rejects incomplete or oversized posts before any
// network call.
func validatePostInput(title, content string) error {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" {
		return model.ErrTitleRequired
	}
	if utf8.RuneCountInString(title) > model.MaxPostTitleLength {
		return model.ErrTitleTooLong
	}
	if content == "" {
		return model.ErrContentRequired
	}
	if utf8.RuneCountInString(content) > model.MaxPostContentLength {
		return model.ErrContentTooLong
	}
	return nil
}

// refresh asks the aggregator to recompute the affected scope. The write
// already committed, so a refresh failure degrades to a stale view rather
// than failing the mutation.
func (s *PostService) refresh(ctx context.Context, viewerID, postID uuid.UUID) *model.Feed {
	feed, err := s.feed.Refresh(ctx, viewerID, []uuid.UUID{postID})
	if err != nil {
		log.Printf("[PostService] Refresh failed after mutation: post=%s err=%v", postID, err)
		return nil
	}
	return feed
}

func (s *PostService) publish(ctx context.Context, event queue.FeedEvent) {
	if s.publisher == nil {
		return
	}
	if _, err := s.publisher.Publish(ctx, queue.StreamFeed, event); err != nil {
		log.Printf("[PostService] Failed to publish %s event: %v", event.Type, err)
	}
}

func refSlice(ref *string) []string {
	if ref == nil {
		return nil
	}
	return []string{*ref}
}
