package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"orkutbook/internal/model"
	"orkutbook/internal/repository"
	"orkutbook/internal/thread"
)

// resolveConcurrency caps how many media resolutions run at once per load.
const resolveConcurrency = 8

// LinkResolver resolves stored media references to signed links.
// Implemented by MediaService; resolution never fails, it degrades.
type LinkResolver interface {
	ResolveLink(ctx context.Context, storedReference string) *model.ResolvedMediaLink
}

// FeedService assembles the client-visible feed: posts with joined authors
// and resolved media, one comment forest per post, and suggestions for the
// viewer. Reads flow one way through here; mutations trigger a re-read via
// Refresh so the visible feed tracks storage state.
type FeedService struct {
	profileRepo repository.ProfileRepository
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	resolver    LinkResolver
}

func NewFeedService(
	profileRepo repository.ProfileRepository,
	postRepo repository.PostRepository,
	commentRepo repository.CommentRepository,
	resolver LinkResolver,
) *FeedService {
	return &FeedService{
		profileRepo: profileRepo,
		postRepo:    postRepo,
		commentRepo: commentRepo,
		resolver:    resolver,
	}
}

// Load composes the full feed for a viewer. A viewer without a profile gets
// model.ErrProfileNotFound so the caller can route to profile creation
// instead of rendering an empty feed. The returned Feed is complete: every
// media reference has been through the resolver and every post's comments
// are threaded before the value is handed back.
func (s *FeedService) Load(ctx context.Context, viewerID uuid.UUID) (*model.Feed, error) {
	startTime := time.Now()

	if _, err := s.profileRepo.GetByID(ctx, viewerID); err != nil {
		return nil, err
	}

	posts, err := s.postRepo.ListNewestFirst(ctx)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	feed, err := s.assemble(ctx, posts)
	if err != nil {
		return nil, err
	}

	suggestions, err := s.profileRepo.GetSuggestions(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("load suggestions: %w", err)
	}
	feed.Suggestions = suggestions

	log.Printf("[FeedService] Load OK: viewer=%s posts=%d duration=%v",
		viewerID, len(feed.Posts), time.Since(startTime))
	return feed, nil
}

// Refresh re-derives the read model for the given posts after a mutation.
// An empty scope means a full reload. Posts deleted since the scope was
// captured are absent from the result, along with their comments.
func (s *FeedService) Refresh(ctx context.Context, viewerID uuid.UUID, postIDs []uuid.UUID) (*model.Feed, error) {
	if len(postIDs) == 0 {
		return s.Load(ctx, viewerID)
	}

	startTime := time.Now()

	posts, err := s.postRepo.ListByIDs(ctx, postIDs)
	if err != nil {
		return nil, fmt.Errorf("list posts by ids: %w", err)
	}

	feed, err := s.assemble(ctx, posts)
	if err != nil {
		return nil, err
	}

	log.Printf("[FeedService] Refresh OK: viewer=%s scope=%d posts=%d duration=%v",
		viewerID, len(postIDs), len(feed.Posts), time.Since(startTime))
	return feed, nil
}

// assemble resolves media and threads comments for an already-ordered post
// set, returning a complete Feed value or an error. Nothing partial escapes.
func (s *FeedService) assemble(ctx context.Context, posts []model.Post) (*model.Feed, error) {
	postIDs := make([]uuid.UUID, len(posts))
	for i, p := range posts {
		postIDs[i] = p.ID
	}

	comments, err := s.commentRepo.ListByPostIDs(ctx, postIDs)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	// Deduplicate authors by pointer before fanning out: a profile shared
	// between a post and its comments is resolved exactly once, so no
	// reference is ever signed twice within one assemble and no two
	// goroutines touch the same profile.
	authors := make(map[*model.Profile]struct{})
	for i := range posts {
		if posts[i].Author != nil {
			authors[posts[i].Author] = struct{}{}
		}
	}
	for i := range comments {
		if comments[i].Author != nil {
			authors[comments[i].Author] = struct{}{}
		}
	}

	// Resolutions are independent; fan out and join before composing so
	// the feed is never shown half-resolved.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(resolveConcurrency)
	for i := range posts {
		g.Go(func() error {
			s.resolvePostImage(gctx, &posts[i])
			return nil
		})
	}
	for author := range authors {
		g.Go(func() error {
			s.resolveAuthorPhoto(gctx, author)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byPost := make(map[uuid.UUID][]model.Comment)
	for _, c := range comments {
		byPost[c.PostID] = append(byPost[c.PostID], c)
	}

	forest := make(map[uuid.UUID][]model.Comment, len(byPost))
	for postID, flat := range byPost {
		forest[postID] = thread.Build(flat)
	}

	return &model.Feed{
		Posts:          posts,
		CommentsByPost: forest,
	}, nil
}

func (s *FeedService) resolvePostImage(ctx context.Context, post *model.Post) {
	if post.ImageURL == nil {
		return
	}
	if link := s.resolver.ResolveLink(ctx, *post.ImageURL); link != nil {
		post.ImageURL = &link.SignedURL
	}
}

func (s *FeedService) resolveAuthorPhoto(ctx context.Context, author *model.Profile) {
	if author == nil || author.PhotoURL == nil {
		return
	}
	if link := s.resolver.ResolveLink(ctx, *author.PhotoURL); link != nil {
		author.PhotoURL = &link.SignedURL
	}
}
