package handler

import (
	"errors"
	"log"
	"net/http"

	"orkutbook/internal/httputil"
	"orkutbook/internal/model"
	"orkutbook/internal/service"
	"orkutbook/internal/transport/http/middleware"
)

type FeedHandler struct {
	feedService *service.FeedService
}

func NewFeedHandler(feedService *service.FeedService) *FeedHandler {
	return &FeedHandler{
		feedService: feedService,
	}
}

// Get handles GET /feed
// Returns the full assembled feed for the authenticated viewer. A viewer
// without a profile gets 404 PROFILE_NOT_FOUND so the client can route to
// profile creation.
func (h *FeedHandler) Get(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := middleware.GetViewerIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	feed, err := h.feedService.Load(r.Context(), viewerID)
	if err != nil {
		if errors.Is(err, model.ErrProfileNotFound) {
			httputil.WriteNotFoundWithCode(w, httputil.ErrCodeProfileNotFound, "Viewer has no profile")
			return
		}
		log.Printf("[ERROR] Feed handler: viewer=%s err=%v", viewerID, err)
		httputil.WriteInternalError(w, "Failed to load feed")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, feed)
}
