package service

import (
	"context"

	"github.com/google/uuid"

	"orkutbook/internal/model"
	"orkutbook/internal/queue"
)

// =============================================================================
// MOCK REPOSITORIES
// =============================================================================
//
// The services depend on the repository INTERFACES, so tests swap in mocks
// with per-test function fields instead of touching a real database.

type mockProfileRepository struct {
	getByIDFn        func(ctx context.Context, id uuid.UUID) (*model.Profile, error)
	updatePhotoFn    func(ctx context.Context, id uuid.UUID, photoURL string) (*model.Profile, error)
	getSuggestionsFn func(ctx context.Context, userID uuid.UUID) ([]model.Profile, error)

	updatePhotoCalls int
}

func (m *mockProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return &model.Profile{ID: id, DisplayName: "someone"}, nil
}

func (m *mockProfileRepository) UpdatePhoto(ctx context.Context, id uuid.UUID, photoURL string) (*model.Profile, error) {
	m.updatePhotoCalls++
	if m.updatePhotoFn != nil {
		return m.updatePhotoFn(ctx, id, photoURL)
	}
	return &model.Profile{ID: id, DisplayName: "someone", PhotoURL: &photoURL}, nil
}

func (m *mockProfileRepository) GetSuggestions(ctx context.Context, userID uuid.UUID) ([]model.Profile, error) {
	if m.getSuggestionsFn != nil {
		return m.getSuggestionsFn(ctx, userID)
	}
	return nil, nil
}

type mockPostRepository struct {
	createFn          func(ctx context.Context, userID uuid.UUID, title, slug string, content, imageURL *string) (*model.Post, error)
	updateFn          func(ctx context.Context, postID, userID uuid.UUID, title string, content, imageURL *string) (*model.Post, error)
	deleteFn          func(ctx context.Context, postID, userID uuid.UUID) error
	getByIDFn         func(ctx context.Context, postID uuid.UUID) (*model.Post, error)
	listNewestFirstFn func(ctx context.Context) ([]model.Post, error)
	listByIDsFn       func(ctx context.Context, postIDs []uuid.UUID) ([]model.Post, error)
	slugExistsFn      func(ctx context.Context, slug string) (bool, error)

	createCalls int
}

func (m *mockPostRepository) Create(ctx context.Context, userID uuid.UUID, title, slug string, content, imageURL *string) (*model.Post, error) {
	m.createCalls++
	if m.createFn != nil {
		return m.createFn(ctx, userID, title, slug, content, imageURL)
	}
	return &model.Post{ID: uuid.New(), UserID: userID, Title: title, Slug: slug, Content: content, ImageURL: imageURL}, nil
}

func (m *mockPostRepository) Update(ctx context.Context, postID, userID uuid.UUID, title string, content, imageURL *string) (*model.Post, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, postID, userID, title, content, imageURL)
	}
	return &model.Post{ID: postID, UserID: userID, Title: title, Content: content, ImageURL: imageURL}, nil
}

func (m *mockPostRepository) Delete(ctx context.Context, postID, userID uuid.UUID) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, postID, userID)
	}
	return nil
}

func (m *mockPostRepository) GetByID(ctx context.Context, postID uuid.UUID) (*model.Post, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, postID)
	}
	return nil, model.ErrPostNotFound
}

func (m *mockPostRepository) ListNewestFirst(ctx context.Context) ([]model.Post, error) {
	if m.listNewestFirstFn != nil {
		return m.listNewestFirstFn(ctx)
	}
	return nil, nil
}

func (m *mockPostRepository) ListByIDs(ctx context.Context, postIDs []uuid.UUID) ([]model.Post, error) {
	if m.listByIDsFn != nil {
		return m.listByIDsFn(ctx, postIDs)
	}
	return nil, nil
}

func (m *mockPostRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	if m.slugExistsFn != nil {
		return m.slugExistsFn(ctx, slug)
	}
	return false, nil
}

type mockCommentRepository struct {
	createFn        func(ctx context.Context, postID, userID uuid.UUID, content string, parentID *uuid.UUID) (*model.Comment, error)
	deleteFn        func(ctx context.Context, commentID uuid.UUID) error
	getByIDFn       func(ctx context.Context, commentID uuid.UUID) (*model.Comment, error)
	listByPostIDsFn func(ctx context.Context, postIDs []uuid.UUID) ([]model.Comment, error)

	createCalls int
	deleteCalls int
}

func (m *mockCommentRepository) Create(ctx context.Context, postID, userID uuid.UUID, content string, parentID *uuid.UUID) (*model.Comment, error) {
	m.createCalls++
	if m.createFn != nil {
		return m.createFn(ctx, postID, userID, content, parentID)
	}
	return &model.Comment{ID: uuid.New(), PostID: postID, UserID: userID, ParentCommentID: parentID, Content: content}, nil
}

func (m *mockCommentRepository) Delete(ctx context.Context, commentID uuid.UUID) error {
	m.deleteCalls++
	if m.deleteFn != nil {
		return m.deleteFn(ctx, commentID)
	}
	return nil
}

func (m *mockCommentRepository) GetByID(ctx context.Context, commentID uuid.UUID) (*model.Comment, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, commentID)
	}
	return nil, model.ErrCommentNotFound
}

func (m *mockCommentRepository) ListByPostIDs(ctx context.Context, postIDs []uuid.UUID) ([]model.Comment, error) {
	if m.listByPostIDsFn != nil {
		return m.listByPostIDsFn(ctx, postIDs)
	}
	return nil, nil
}

// =============================================================================
// MOCK COLLABORATORS
// =============================================================================

type mockFeedRefresher struct {
	refreshFn    func(ctx context.Context, viewerID uuid.UUID, postIDs []uuid.UUID) (*model.Feed, error)
	refreshCalls [][]uuid.UUID
}

func (m *mockFeedRefresher) Refresh(ctx context.Context, viewerID uuid.UUID, postIDs []uuid.UUID) (*model.Feed, error) {
	m.refreshCalls = append(m.refreshCalls, postIDs)
	if m.refreshFn != nil {
		return m.refreshFn(ctx, viewerID, postIDs)
	}
	return &model.Feed{}, nil
}

type mockMediaUploader struct {
	uploadFn    func(ctx context.Context, ownerID uuid.UUID, upload model.MediaUpload) (string, error)
	uploadCalls int
}

func (m *mockMediaUploader) UploadPostImage(ctx context.Context, ownerID uuid.UUID, upload model.MediaUpload) (string, error) {
	m.uploadCalls++
	if m.uploadFn != nil {
		return m.uploadFn(ctx, ownerID, upload)
	}
	return "https://cdn.example.com/object/public/files/posts/fake.jpg", nil
}

type mockPhotoUploader struct {
	uploadFn func(ctx context.Context, ownerID uuid.UUID, upload model.MediaUpload) (string, error)

	uploadCalls int
	invalidated []string
}

func (m *mockPhotoUploader) UploadProfilePhoto(ctx context.Context, ownerID uuid.UUID, upload model.MediaUpload) (string, error) {
	m.uploadCalls++
	if m.uploadFn != nil {
		return m.uploadFn(ctx, ownerID, upload)
	}
	return "https://cdn.example.com/object/public/files/images/fake.jpg", nil
}

func (m *mockPhotoUploader) InvalidateLink(ctx context.Context, storedReference string) error {
	m.invalidated = append(m.invalidated, storedReference)
	return nil
}

type mockPublisher struct {
	published []queue.FeedEvent
	failWith  error
}

func (m *mockPublisher) Publish(ctx context.Context, stream string, event queue.FeedEvent) (string, error) {
	if m.failWith != nil {
		return "", m.failWith
	}
	m.published = append(m.published, event)
	return "1-0", nil
}

// stubResolver maps stored references to signed URLs; nil result leaves the
// reference untouched, like a degraded resolution.
type stubResolver struct {
	resolveFn func(ctx context.Context, ref string) *model.ResolvedMediaLink
}

func (s *stubResolver) ResolveLink(ctx context.Context, ref string) *model.ResolvedMediaLink {
	if s.resolveFn != nil {
		return s.resolveFn(ctx, ref)
	}
	return nil
}
