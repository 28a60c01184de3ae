package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"

	"log/slog"

	"github.com/gorilla/mux"

	"github.com/hmcoe/skillprofile/internal/admin"
	"github.com/hmcoe/skillprofile/pkg/metrics"
	"github.com/hmcoe/skillprofile/pkg/models"
	"github.com/hmcoe/skillprofile/pkg/profiling"
)

// AdminHandler exposes the dashboard over HTTP. The underlying session is
// not safe for concurrent use, so every handler serializes on the mutex.
type AdminHandler struct {
	mu      sync.Mutex
	session *admin.Session
}

func NewAdminHandler(session *admin.Session) *AdminHandler {
	return &AdminHandler{session: session}
}

type dashboardState struct {
	Authenticated bool                `json:"authenticated"`
	Search        string              `json:"search"`
	Page          int                 `json:"page"`
	Listing       *models.ProfilePage `json:"listing,omitempty"`
	Stats         *models.Stats       `json:"stats,omitempty"`
	Selected      *models.Profile     `json:"selected,omitempty"`
}

func (h *AdminHandler) state() dashboardState {
	return dashboardState{
		Authenticated: h.session.Authenticated(),
		Search:        h.session.Search(),
		Page:          h.session.Page(),
		Listing:       h.session.Listing(),
		Stats:         h.session.Stats(),
		Selected:      h.session.Selected(),
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.session.Login(r.Context(), req.Username, req.Password); err != nil {
		writeError(w, err)
		return
	}
	if err := h.session.Refresh(r.Context()); err != nil {
		// logged-in even if the first fetch fails; the page can retry
		logger.Warn("initial dashboard refresh failed", slog.Any("err", err))
	}
	writeJSON(w, h.state(), http.StatusOK)
}

func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.session.Logout(r.Context())
	writeJSON(w, h.state(), http.StatusOK)
}

// List applies search/page parameters and returns the refreshed listing and
// stats. A changed search term resets to page one before the fetch.
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	h.mu.Lock()
	defer h.mu.Unlock()

	if q.Has("search") {
		h.session.SetSearch(q.Get("search"))
	}
	if p := q.Get("page"); p != "" {
		if page, err := strconv.Atoi(p); err == nil {
			h.session.SetPage(page)
		}
	}

	if err := h.session.Refresh(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, h.state(), http.StatusOK)
}

func (h *AdminHandler) Select(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "invalid profile id", http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	listing := h.session.Listing()
	if listing == nil {
		http.Error(w, "no listing loaded", http.StatusConflict)
		return
	}
	for i := range listing.Profiles {
		if listing.Profiles[i].ID == id {
			h.session.Select(&listing.Profiles[i])
			writeJSON(w, h.state(), http.StatusOK)
			return
		}
	}
	http.Error(w, "profile not in current page", http.StatusNotFound)
}

func (h *AdminHandler) Deselect(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.session.Deselect()
	writeJSON(w, h.state(), http.StatusOK)
}

func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "invalid profile id", http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.session.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, h.state(), http.StatusOK)
}

type approvalRequest struct {
	Approved bool `json:"approved"`
}

func (h *AdminHandler) SetApproval(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "invalid profile id", http.StatusBadRequest)
		return
	}

	var req approvalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.session.SetApproval(r.Context(), id, req.Approved); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, h.state(), http.StatusOK)
}

// Export streams the collection to the browser under the fixed
// profiles.<ext> name.
func (h *AdminHandler) Export(w http.ResponseWriter, r *http.Request) {
	format := profiling.ExportFormat(mux.Vars(r)["format"])

	h.mu.Lock()
	blob, filename, err := h.session.ExportBlob(r.Context(), format)
	h.mu.Unlock()
	if err != nil {
		writeError(w, err)
		return
	}

	metrics.RecordExport(string(format))
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(blob); err != nil {
		logger.Error("write export", slog.Any("err", err))
	}
}
