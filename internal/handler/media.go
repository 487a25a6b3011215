package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"

	"orkutbook/internal/httputil"
	"orkutbook/internal/service"
	"orkutbook/internal/transport/http/middleware"
)

type MediaHandler struct {
	resolver service.LinkResolver
	validate *validator.Validate
}

func NewMediaHandler(resolver service.LinkResolver) *MediaHandler {
	return &MediaHandler{
		resolver: resolver,
		validate: validator.New(),
	}
}

type resolveRequest struct {
	Reference string `json:"reference" validate:"required"`
}

// Resolve handles POST /media/resolve
// Exchanges a stored media reference for a signed link. Resolution degrades
// rather than fails, so this always answers 200 for a well-formed request.
func (h *MediaHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetViewerIDFromContext(r.Context()); !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httputil.WriteBadRequest(w, "Reference is required")
		return
	}

	link := h.resolver.ResolveLink(r.Context(), req.Reference)
	httputil.WriteJSON(w, http.StatusOK, link)
}
