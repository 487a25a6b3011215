package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"orkutbook/internal/model"
)

func strPtr(s string) *string { return &s }

func TestFeedService_Load_ComposesCompleteFeed(t *testing.T) {
	viewerID := uuid.New()
	alice := model.Profile{ID: uuid.New(), DisplayName: "Alice", PhotoURL: strPtr("ref:alice.jpg")}
	bob := model.Profile{ID: uuid.New(), DisplayName: "Bob"}

	newer := model.Post{ID: uuid.New(), UserID: alice.ID, Title: "newer", ImageURL: strPtr("ref:newer.jpg"), CreatedAt: time.Now(), Author: &alice}
	older := model.Post{ID: uuid.New(), UserID: bob.ID, Title: "older", CreatedAt: time.Now().Add(-time.Hour), Author: &bob}

	root := model.Comment{ID: uuid.New(), PostID: older.ID, UserID: alice.ID, Content: "first", CreatedAt: time.Now().Add(-30 * time.Minute), Author: &alice}
	reply := model.Comment{ID: uuid.New(), PostID: older.ID, UserID: bob.ID, ParentCommentID: &root.ID, Content: "second", CreatedAt: time.Now().Add(-20 * time.Minute), Author: &bob}

	mockProfiles := &mockProfileRepository{
		getByIDFn: func(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
			return &model.Profile{ID: id, DisplayName: "viewer"}, nil
		},
		getSuggestionsFn: func(ctx context.Context, userID uuid.UUID) ([]model.Profile, error) {
			return []model.Profile{bob}, nil
		},
	}
	mockPosts := &mockPostRepository{
		listNewestFirstFn: func(ctx context.Context) ([]model.Post, error) {
			return []model.Post{newer, older}, nil
		},
	}
	mockComments := &mockCommentRepository{
		listByPostIDsFn: func(ctx context.Context, postIDs []uuid.UUID) ([]model.Comment, error) {
			if len(postIDs) != 2 {
				t.Errorf("comment fetch scoped to %d posts, want 2", len(postIDs))
			}
			return []model.Comment{root, reply}, nil
		},
	}
	resolver := &stubResolver{
		resolveFn: func(ctx context.Context, ref string) *model.ResolvedMediaLink {
			return &model.ResolvedMediaLink{SignedURL: "signed:" + ref, ExpiresAt: time.Now().Add(model.SignedURLLifetime)}
		},
	}
	svc := NewFeedService(mockProfiles, mockPosts, mockComments, resolver)

	feed, err := svc.Load(context.Background(), viewerID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Ordering is preserved from the repository, newest first.
	if len(feed.Posts) != 2 || feed.Posts[0].ID != newer.ID || feed.Posts[1].ID != older.ID {
		t.Fatalf("posts out of order: %v", feed.Posts)
	}

	// Every stored reference went through the resolver.
	if got := *feed.Posts[0].ImageURL; got != "signed:ref:newer.jpg" {
		t.Errorf("post image = %q, want resolved link", got)
	}
	if got := *feed.Posts[0].Author.PhotoURL; got != "signed:ref:alice.jpg" {
		t.Errorf("author photo = %q, want resolved link", got)
	}

	// Comments come back threaded under their post.
	forest := feed.CommentsByPost[older.ID]
	if len(forest) != 1 {
		t.Fatalf("comment roots = %d, want 1", len(forest))
	}
	if forest[0].ID != root.ID || len(forest[0].Children) != 1 || forest[0].Children[0].ID != reply.ID {
		t.Errorf("thread shape wrong: %+v", forest)
	}

	if len(feed.Suggestions) != 1 || feed.Suggestions[0].ID != bob.ID {
		t.Errorf("suggestions = %v, want [bob]", feed.Suggestions)
	}
}

func TestFeedService_Load_SharedAuthorResolvedOnce(t *testing.T) {
	// The same Profile value backs both the post's author and the comment's
	// author. Resolution must go through that pointer exactly once, or the
	// photo ends up signed twice.
	alice := model.Profile{ID: uuid.New(), DisplayName: "Alice", PhotoURL: strPtr("ref:alice.jpg")}
	post := model.Post{ID: uuid.New(), UserID: alice.ID, Author: &alice}
	comment := model.Comment{ID: uuid.New(), PostID: post.ID, UserID: alice.ID, Content: "self reply", Author: &alice}

	mockPosts := &mockPostRepository{
		listNewestFirstFn: func(ctx context.Context) ([]model.Post, error) {
			return []model.Post{post}, nil
		},
	}
	mockComments := &mockCommentRepository{
		listByPostIDsFn: func(ctx context.Context, postIDs []uuid.UUID) ([]model.Comment, error) {
			return []model.Comment{comment}, nil
		},
	}
	var mu sync.Mutex
	calls := make(map[string]int)
	resolver := &stubResolver{
		resolveFn: func(ctx context.Context, ref string) *model.ResolvedMediaLink {
			mu.Lock()
			calls[ref]++
			mu.Unlock()
			return &model.ResolvedMediaLink{SignedURL: "signed:" + ref, ExpiresAt: time.Now().Add(model.SignedURLLifetime)}
		},
	}
	svc := NewFeedService(&mockProfileRepository{}, mockPosts, mockComments, resolver)

	feed, err := svc.Load(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := calls["ref:alice.jpg"]; got != 1 {
		t.Errorf("shared author photo resolved %d times, want 1", got)
	}
	if got := *feed.Posts[0].Author.PhotoURL; got != "signed:ref:alice.jpg" {
		t.Errorf("author photo = %q, want singly signed link", got)
	}
}

func TestFeedService_Load_ViewerWithoutProfile(t *testing.T) {
	mockProfiles := &mockProfileRepository{
		getByIDFn: func(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
			return nil, model.ErrProfileNotFound
		},
	}
	mockPosts := &mockPostRepository{
		listNewestFirstFn: func(ctx context.Context) ([]model.Post, error) {
			t.Error("posts fetched for a viewer with no profile")
			return nil, nil
		},
	}
	svc := NewFeedService(mockProfiles, mockPosts, &mockCommentRepository{}, &stubResolver{})

	_, err := svc.Load(context.Background(), uuid.New())
	if !errors.Is(err, model.ErrProfileNotFound) {
		t.Fatalf("error = %v, want ErrProfileNotFound", err)
	}
}

func TestFeedService_Load_RepoErrorSurfaces(t *testing.T) {
	dbErr := errors.New("connection reset")
	mockPosts := &mockPostRepository{
		listNewestFirstFn: func(ctx context.Context) ([]model.Post, error) {
			return nil, dbErr
		},
	}
	svc := NewFeedService(&mockProfileRepository{}, mockPosts, &mockCommentRepository{}, &stubResolver{})

	_, err := svc.Load(context.Background(), uuid.New())
	if !errors.Is(err, dbErr) {
		t.Fatalf("error = %v, want wrapped %v", err, dbErr)
	}
}

func TestFeedService_Load_DegradedResolutionKeepsReference(t *testing.T) {
	post := model.Post{ID: uuid.New(), ImageURL: strPtr("ref:unreachable.jpg")}
	mockPosts := &mockPostRepository{
		listNewestFirstFn: func(ctx context.Context) ([]model.Post, error) {
			return []model.Post{post}, nil
		},
	}
	// stubResolver with no resolveFn returns nil: resolution degraded.
	svc := NewFeedService(&mockProfileRepository{}, mockPosts, &mockCommentRepository{}, &stubResolver{})

	feed, err := svc.Load(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("degraded resolution must not fail the load: %v", err)
	}
	if got := *feed.Posts[0].ImageURL; got != "ref:unreachable.jpg" {
		t.Errorf("image = %q, want original reference preserved", got)
	}
}

func TestFeedService_Refresh_ScopedToPosts(t *testing.T) {
	keptID := uuid.New()
	mockPosts := &mockPostRepository{
		listByIDsFn: func(ctx context.Context, postIDs []uuid.UUID) ([]model.Post, error) {
			return []model.Post{{ID: keptID, Title: "kept"}}, nil
		},
	}
	var commentScope []uuid.UUID
	mockComments := &mockCommentRepository{
		listByPostIDsFn: func(ctx context.Context, postIDs []uuid.UUID) ([]model.Comment, error) {
			commentScope = postIDs
			return nil, nil
		},
	}
	svc := NewFeedService(&mockProfileRepository{}, mockPosts, mockComments, &stubResolver{})

	feed, err := svc.Refresh(context.Background(), uuid.New(), []uuid.UUID{keptID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(feed.Posts) != 1 || feed.Posts[0].ID != keptID {
		t.Errorf("refresh returned %v, want the scoped post", feed.Posts)
	}
	if len(commentScope) != 1 || commentScope[0] != keptID {
		t.Errorf("comment scope = %v, want [%s]", commentScope, keptID)
	}
}

func TestFeedService_Refresh_DeletedPostAbsent(t *testing.T) {
	deletedID := uuid.New()
	mockPosts := &mockPostRepository{
		listByIDsFn: func(ctx context.Context, postIDs []uuid.UUID) ([]model.Post, error) {
			return nil, nil // the scoped post no longer exists
		},
	}
	mockComments := &mockCommentRepository{
		listByPostIDsFn: func(ctx context.Context, postIDs []uuid.UUID) ([]model.Comment, error) {
			if len(postIDs) != 0 {
				t.Errorf("comments fetched for vanished posts: %v", postIDs)
			}
			return nil, nil
		},
	}
	svc := NewFeedService(&mockProfileRepository{}, mockPosts, mockComments, &stubResolver{})

	feed, err := svc.Refresh(context.Background(), uuid.New(), []uuid.UUID{deletedID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(feed.Posts) != 0 {
		t.Errorf("deleted post still present: %v", feed.Posts)
	}
	if len(feed.CommentsByPost) != 0 {
		t.Errorf("comments for deleted post still present: %v", feed.CommentsByPost)
	}
}

func TestFeedService_Refresh_EmptyScopeFallsBackToLoad(t *testing.T) {
	loaded := false
	mockPosts := &mockPostRepository{
		listNewestFirstFn: func(ctx context.Context) ([]model.Post, error) {
			loaded = true
			return nil, nil
		},
	}
	svc := NewFeedService(&mockProfileRepository{}, mockPosts, &mockCommentRepository{}, &stubResolver{})

	if _, err := svc.Refresh(context.Background(), uuid.New(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !loaded {
		t.Error("empty scope did not fall back to a full load")
	}
}
