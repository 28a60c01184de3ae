package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/hmcoe/skillprofile/pkg/models"
	"github.com/hmcoe/skillprofile/pkg/profiling"
)

// Viewer messages shown in place of a profile.
const (
	viewPendingMessage  = "This profile is pending admin approval."
	viewNotFoundMessage = "Profile not found"
)

// ViewerService is the slice of the API client the read-only viewer needs.
type ViewerService interface {
	GetProfile(ctx context.Context, hmID string) (*models.Profile, error)
}

// ViewHandler serves the shareable read-only profile page. Only approved
// profiles are visible; a pending profile gets a distinct message from a
// missing one.
type ViewHandler struct {
	svc ViewerService
}

func NewViewHandler(svc ViewerService) *ViewHandler {
	return &ViewHandler{svc: svc}
}

type viewPageData struct {
	HMID    string
	Profile *models.Profile
	Error   string
}

func (h *ViewHandler) Page(w http.ResponseWriter, r *http.Request) {
	hmID := r.URL.Query().Get("hm_id")
	data := viewPageData{HMID: hmID}

	if hmID == "" {
		renderPage(w, "view.html", data, http.StatusOK)
		return
	}

	profile, err := h.svc.GetProfile(r.Context(), hmID)
	switch {
	case err == nil:
		data.Profile = profile
		renderPage(w, "view.html", data, http.StatusOK)
	case errors.Is(err, profiling.ErrForbidden):
		data.Error = viewPendingMessage
		renderPage(w, "view.html", data, http.StatusForbidden)
	case errors.Is(err, profiling.ErrNotFound):
		data.Error = viewNotFoundMessage
		renderPage(w, "view.html", data, http.StatusNotFound)
	default:
		data.Error = err.Error()
		renderPage(w, "view.html", data, http.StatusBadGateway)
	}
}
