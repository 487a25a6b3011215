package handler

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"orkutbook/internal/httputil"
	"orkutbook/internal/model"
	"orkutbook/internal/service"
	"orkutbook/internal/transport/http/middleware"
)

// maxMultipartMemory bounds how much of a multipart body stays in memory
// before spilling to disk.
const maxMultipartMemory = 12 << 20

type PostHandler struct {
	postService *service.PostService
	validate    *validator.Validate
}

func NewPostHandler(postService *service.PostService) *PostHandler {
	return &PostHandler{
		postService: postService,
		validate:    validator.New(),
	}
}

// mutationResponse pairs the touched entity with the refreshed feed scope.
// Feed is null when the refresh degraded; clients fall back to re-querying.
type mutationResponse struct {
	Post *model.Post `json:"post,omitempty"`
	Feed *model.Feed `json:"feed"`
}

// Create handles POST /posts (multipart: title, content, image?)
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := middleware.GetViewerIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	input, err := h.parsePostForm(r)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	post, feed, err := h.postService.Create(r.Context(), viewerID, *input)
	if err != nil {
		h.writePostError(w, viewerID, "Create", err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, mutationResponse{Post: post, Feed: feed})
}

// Update handles PATCH /posts/{id} (multipart: title, content, image?)
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
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

	input, err := h.parsePostForm(r)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	post, feed, err := h.postService.Update(r.Context(), viewerID, postID, model.UpdatePostInput(*input))
	if err != nil {
		h.writePostError(w, viewerID, "Update", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, mutationResponse{Post: post, Feed: feed})
}

// Delete handles DELETE /posts/{id}
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

	feed, err := h.postService.Delete(r.Context(), viewerID, postID)
	if err != nil {
		h.writePostError(w, viewerID, "Delete", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, mutationResponse{Feed: feed})
}

// parsePostForm extracts title, content and the optional image attachment
// from a multipart body and validates the text fields.
func (h *PostHandler) parsePostForm(r *http.Request) (*model.CreatePostInput, error) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return nil, errors.New("invalid multipart body")
	}

	input := model.CreatePostInput{
		Title:   r.FormValue("title"),
		Content: r.FormValue("content"),
	}
	if err := h.validate.Struct(input); err != nil {
		return nil, errors.New("title and content are required (title max 200, content max 5000 characters)")
	}

	file, header, err := r.FormFile("image")
	if err == nil {
		defer file.Close()
		data, err := io.ReadAll(io.LimitReader(file, model.MaxMediaSizeBytes+1))
		if err != nil {
			return nil, errors.New("failed to read image")
		}
		input.Image = &model.MediaUpload{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		}
	} else if !errors.Is(err, http.ErrMissingFile) {
		return nil, errors.New("invalid image field")
	}

	return &input, nil
}

func (h *PostHandler) writePostError(w http.ResponseWriter, viewerID uuid.UUID, op string, err error) {
	switch {
	case errors.Is(err, model.ErrTitleRequired):
		httputil.WriteBadRequest(w, "Post title is required")
	case errors.Is(err, model.ErrTitleTooLong):
		httputil.WriteBadRequest(w, "Post title too long (max 200 characters)")
	case errors.Is(err, model.ErrContentRequired):
		httputil.WriteBadRequest(w, "Post content is required")
	case errors.Is(err, model.ErrContentTooLong):
		httputil.WriteBadRequest(w, "Post content too long (max 5000 characters)")
	case errors.Is(err, model.ErrFileTooLarge):
		httputil.WriteBadRequest(w, "Image too large (max 10MB)")
	case errors.Is(err, model.ErrInvalidImageType):
		httputil.WriteBadRequest(w, "Unsupported image type")
	case errors.Is(err, model.ErrPostNotFound):
		httputil.WriteNotFound(w, "Post not found")
	case errors.Is(err, model.ErrNotPostOwner):
		httputil.WriteForbidden(w, "You can only modify your own posts")
	default:
		log.Printf("[ERROR] %s post handler: viewer=%s err=%v", op, viewerID, err)
		httputil.WriteInternalError(w, "Failed to "+strings.ToLower(op)+" post")
	}
}
