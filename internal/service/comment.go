package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"orkutbook/internal/model"
	"orkutbook/internal/repository"
)

// CommentService coordinates comment mutations and keeps the parent-pointer
// contract: a reply's parent must exist and belong to the same post.
type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	feed        FeedRefresher
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	feed FeedRefresher,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		feed:        feed,
	}
}

// Create validates and inserts a comment on a post, then refreshes the feed
// scoped to that post so the caller sees the comment in its threaded place.
func (s *CommentService) Create(ctx context.Context, viewerID, postID uuid.UUID, req model.CreateCommentRequest) (*model.Comment, *model.Feed, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, nil, model.ErrCommentEmpty
	}
	if utf8.RuneCountInString(content) > model.MaxCommentLength {
		return nil, nil, model.ErrCommentTooLong
	}

	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return nil, nil, err
	}

	if req.ParentCommentID != nil {
		parent, err := s.commentRepo.GetByID(ctx, *req.ParentCommentID)
		if err != nil {
			if errors.Is(err, model.ErrCommentNotFound) {
				return nil, nil, model.ErrParentNotFound
			}
			return nil, nil, err
		}
		if parent.PostID != postID {
			return nil, nil, model.ErrParentMismatch
		}
	}

	comment, err := s.commentRepo.Create(ctx, postID, viewerID, content, req.ParentCommentID)
	if err != nil {
		return nil, nil, err
	}

	log.Printf("[CommentService] User %s commented on post %s comment=%s", viewerID, postID, comment.ID)

	feed := s.refresh(ctx, viewerID, postID)
	return comment, feed, nil
}

// Delete removes a single comment. The comment's author may always delete
// it; the owner of the post it sits on may moderate it away too. Replies are
// left in place and surface as roots on the next tree build.
func (s *CommentService) Delete(ctx context.Context, viewerID, commentID uuid.UUID) (*model.Feed, error) {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}

	if comment.UserID != viewerID {
		post, err := s.postRepo.GetByID(ctx, comment.PostID)
		if err != nil {
			if errors.Is(err, model.ErrPostNotFound) {
				return nil, model.ErrNotCommentOwner
			}
			return nil, err
		}
		if post.UserID != viewerID {
			return nil, model.ErrNotCommentOwner
		}
	}

	if err := s.commentRepo.Delete(ctx, commentID); err != nil {
		return nil, err
	}

	log.Printf("[CommentService] User %s deleted comment %s on post %s", viewerID, commentID, comment.PostID)

	feed := s.refresh(ctx, viewerID, comment.PostID)
	return feed, nil
}

func (s *CommentService) refresh(ctx context.Context, viewerID, postID uuid.UUID) *model.Feed {
	feed, err := s.feed.Refresh(ctx, viewerID, []uuid.UUID{postID})
	if err != nil {
		log.Printf("[CommentService] Refresh failed after mutation: post=%s err=%v", postID, err)
		return nil
	}
	return feed
}
