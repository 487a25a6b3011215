package handler

import (
	"errors"
	"io"
	"log"
	"net/http"

	"orkutbook/internal/httputil"
	"orkutbook/internal/model"
	"orkutbook/internal/service"
	"orkutbook/internal/transport/http/middleware"
)

type ProfileHandler struct {
	profileService *service.ProfileService
}

func NewProfileHandler(profileService *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// SetPhoto handles PUT /profile/photo (multipart: photo)
// Replaces the viewer's profile photo with a normalized square JPEG.
func (h *ProfileHandler) SetPhoto(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := middleware.GetViewerIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		httputil.WriteBadRequest(w, "Invalid multipart body")
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		httputil.WriteBadRequest(w, "Photo file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, model.MaxMediaSizeBytes+1))
	if err != nil {
		httputil.WriteBadRequest(w, "Failed to read photo")
		return
	}

	upload := model.MediaUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}

	profile, err := h.profileService.SetPhoto(r.Context(), viewerID, upload)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrFileTooLarge):
			httputil.WriteBadRequest(w, "Photo too large (max 10MB)")
		case errors.Is(err, model.ErrInvalidImageType):
			httputil.WriteBadRequest(w, "Unsupported image type")
		case errors.Is(err, model.ErrProfileNotFound):
			httputil.WriteNotFoundWithCode(w, httputil.ErrCodeProfileNotFound, "Profile not found")
		default:
			log.Printf("[ERROR] SetPhoto handler: viewer=%s err=%v", viewerID, err)
			httputil.WriteInternalError(w, "Failed to update profile photo")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, profile)
}
