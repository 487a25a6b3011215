package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"orkutbook/internal/httputil"
	"orkutbook/internal/model"
	"orkutbook/internal/service"
	"orkutbook/internal/transport/http/middleware"
)

type CommentHandler struct {
	commentService *service.CommentService
	validate       *validator.Validate
}

func NewCommentHandler(commentService *service.CommentService) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
		validate:       validator.New(),
	}
}

type commentResponse struct {
	Comment *model.Comment `json:"comment,omitempty"`
	Feed    *model.Feed    `json:"feed"`
}

// Create handles POST /posts/{id}/comments
// Adds a root comment or a reply (parent_comment_id set) to a post.
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := middleware.GetViewerIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	postID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid post ID")
		return
	}

	var req model.CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httputil.WriteBadRequest(w, "Comment content is required (max 2200 characters)")
		return
	}

	comment, feed, err := h.commentService.Create(r.Context(), viewerID, postID, req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrCommentEmpty):
			httputil.WriteBadRequest(w, "Comment content is required")
		case errors.Is(err, model.ErrCommentTooLong):
			httputil.WriteBadRequest(w, "Comment too long (max 2200 characters)")
		case errors.Is(err, model.ErrPostNotFound):
			httputil.WriteNotFound(w, "Post not found")
		case errors.Is(err, model.ErrParentNotFound):
			httputil.WriteBadRequest(w, "Parent comment does not exist")
		case errors.Is(err, model.ErrParentMismatch):
			httputil.WriteBadRequest(w, "Parent comment belongs to another post")
		default:
			log.Printf("[ERROR] Create comment handler: viewer=%s post=%s err=%v", viewerID, postID, err)
			httputil.WriteInternalError(w, "Failed to create comment")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, commentResponse{Comment: comment, Feed: feed})
}

// Delete handles DELETE /comments/{id}
// Allowed for the comment's author or the owner of the post it sits on.
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := middleware.GetViewerIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	commentID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid comment ID")
		return
	}

	feed, err := h.commentService.Delete(r.Context(), viewerID, commentID)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrCommentNotFound):
			httputil.WriteNotFound(w, "Comment not found")
		case errors.Is(err, model.ErrNotCommentOwner):
			httputil.WriteForbidden(w, "You can only delete your own comments")
		default:
			log.Printf("[ERROR] Delete comment handler: viewer=%s comment=%s err=%v", viewerID, commentID, err)
			httputil.WriteInternalError(w, "Failed to delete comment")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, commentResponse{Feed: feed})
}
