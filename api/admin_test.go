package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"github.com/hmcoe/skillprofile/api"
	"github.com/hmcoe/skillprofile/internal/admin"
	"github.com/hmcoe/skillprofile/pkg/models"
	"github.com/hmcoe/skillprofile/pkg/profiling"
)

type stubAdminService struct {
	loginToken string
	loginErr   error

	listing *models.ProfilePage
	listErr error
	stats   *models.Stats

	lastSearch  string
	lastPage    int
	deletedID   int64
	approvedID  int64
	approvedVal bool
	exportBlob  []byte
}

func (s *stubAdminService) Login(_ context.Context, username, password string) (string, error) {
	if s.loginErr != nil {
		return "", s.loginErr
	}
	return s.loginToken, nil
}

func (s *stubAdminService) ListProfiles(_ context.Context, token, search string, page, perPage int) (*models.ProfilePage, error) {
	s.lastSearch = search
	s.lastPage = page
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.listing, nil
}

func (s *stubAdminService) Stats(_ context.Context, token string) (*models.Stats, error) {
	if s.stats != nil {
		return s.stats, nil
	}
	return &models.Stats{}, nil
}

func (s *stubAdminService) DeleteProfile(_ context.Context, token string, id int64) error {
	s.deletedID = id
	return nil
}

func (s *stubAdminService) SetApproval(_ context.Context, token string, id int64, approved bool) error {
	s.approvedID = id
	s.approvedVal = approved
	return nil
}

func (s *stubAdminService) Export(_ context.Context, token string, format profiling.ExportFormat) ([]byte, error) {
	return s.exportBlob, nil
}

func adminRouter(h *api.AdminHandler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/hmcoe-admin", h.Page).Methods("GET")
	r.HandleFunc("/hmcoe-admin/login", h.Login).Methods("POST")
	r.HandleFunc("/hmcoe-admin/logout", h.Logout).Methods("POST")
	r.HandleFunc("/hmcoe-admin/profiles", h.List).Methods("GET")
	r.HandleFunc("/hmcoe-admin/profiles/{id}/select", h.Select).Methods("POST")
	r.HandleFunc("/hmcoe-admin/profiles/deselect", h.Deselect).Methods("POST")
	r.HandleFunc("/hmcoe-admin/profiles/{id}", h.Delete).Methods("DELETE")
	r.HandleFunc("/hmcoe-admin/profiles/{id}/approval", h.SetApproval).Methods("PATCH")
	r.HandleFunc("/hmcoe-admin/export/{format}", h.Export).Methods("GET")
	return r
}

func newAdminHandler(svc admin.Service, perPage int) *api.AdminHandler {
	return api.NewAdminHandler(admin.NewSession(svc, nil, perPage, ""))
}

func doJSON(t *testing.T, router *mux.Router, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, router *mux.Router) {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/hmcoe-admin/login", map[string]string{"username": "admin", "password": "secret"})
	if w.Code != http.StatusOK {
		t.Fatalf("login: expected 200 got %d: %s", w.Code, w.Body.String())
	}
}

func TestAdminPageShowsLoginWhenUnauthenticated(t *testing.T) {
	router := adminRouter(newAdminHandler(&stubAdminService{}, 20))

	w := doJSON(t, router, http.MethodGet, "/hmcoe-admin", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Admin Login") {
		t.Error("expected login card")
	}
	if !strings.Contains(body, `value="admin"`) {
		t.Error("expected prefilled username")
	}
}

func TestAdminLoginRendersDashboard(t *testing.T) {
	svc := &stubAdminService{
		loginToken: "tok-1",
		listing: &models.ProfilePage{
			Profiles: []models.Profile{{ID: 1, HMID: "HM1", Name: "Asha", Approved: false}},
			Total:    1,
			Pages:    1,
		},
		stats: &models.Stats{TotalProfiles: 1},
	}
	router := adminRouter(newAdminHandler(svc, 20))
	login(t, router)

	w := doJSON(t, router, http.MethodGet, "/hmcoe-admin", nil)
	body := w.Body.String()
	if !strings.Contains(body, "Asha") || !strings.Contains(body, "Pending") {
		t.Errorf("expected listing row, got page without it")
	}
}

func TestAdminLoginFailure(t *testing.T) {
	svc := &stubAdminService{loginErr: profiling.ErrUnauthorized}
	router := adminRouter(newAdminHandler(svc, 20))

	w := doJSON(t, router, http.MethodPost, "/hmcoe-admin/login", map[string]string{"username": "admin", "password": "wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestAdminSearchResetsToPageOne(t *testing.T) {
	svc := &stubAdminService{
		loginToken: "tok-1",
		listing:    &models.ProfilePage{Total: 60, Pages: 3},
	}
	router := adminRouter(newAdminHandler(svc, 20))
	login(t, router)

	doJSON(t, router, http.MethodGet, "/hmcoe-admin/profiles?page=2", nil)
	if svc.lastPage != 2 {
		t.Fatalf("expected page 2 fetch, got %d", svc.lastPage)
	}

	w := doJSON(t, router, http.MethodGet, "/hmcoe-admin/profiles?search=java", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if svc.lastSearch != "java" || svc.lastPage != 1 {
		t.Errorf("fetch = %q/%d, want java/1", svc.lastSearch, svc.lastPage)
	}
}

func TestAdminApprovalUpdatesSelection(t *testing.T) {
	svc := &stubAdminService{
		loginToken: "tok-1",
		listing: &models.ProfilePage{
			Profiles: []models.Profile{{ID: 3, HMID: "HM3", Name: "Ravi"}},
			Total:    1,
			Pages:    1,
		},
	}
	router := adminRouter(newAdminHandler(svc, 20))
	login(t, router)
	doJSON(t, router, http.MethodGet, "/hmcoe-admin/profiles", nil)

	w := doJSON(t, router, http.MethodPost, "/hmcoe-admin/profiles/3/select", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("select: expected 200 got %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, http.MethodPatch, "/hmcoe-admin/profiles/3/approval", map[string]bool{"approved": true})
	if w.Code != http.StatusOK {
		t.Fatalf("approval: expected 200 got %d: %s", w.Code, w.Body.String())
	}
	if svc.approvedID != 3 || !svc.approvedVal {
		t.Errorf("approval call = %d/%v", svc.approvedID, svc.approvedVal)
	}

	var st map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	selected, _ := st["selected"].(map[string]any)
	if selected == nil || selected["approved"] != true {
		t.Errorf("expected selection approved immediately, got %v", selected)
	}
}

func TestAdminDelete(t *testing.T) {
	svc := &stubAdminService{loginToken: "tok-1", listing: &models.ProfilePage{Pages: 1}}
	router := adminRouter(newAdminHandler(svc, 20))
	login(t, router)

	w := doJSON(t, router, http.MethodDelete, "/hmcoe-admin/profiles/7", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if svc.deletedID != 7 {
		t.Errorf("deleted id = %d, want 7", svc.deletedID)
	}
}

func TestAdminExportDownload(t *testing.T) {
	svc := &stubAdminService{loginToken: "tok-1", listing: &models.ProfilePage{Pages: 1}, exportBlob: []byte("id,name\n")}
	router := adminRouter(newAdminHandler(svc, 20))
	login(t, router)

	w := doJSON(t, router, http.MethodGet, "/hmcoe-admin/export/csv", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "profiles.csv") {
		t.Errorf("Content-Disposition = %q, want profiles.csv", cd)
	}
	if w.Body.String() != "id,name\n" {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestAdminExportRequiresLogin(t *testing.T) {
	router := adminRouter(newAdminHandler(&stubAdminService{}, 20))

	w := doJSON(t, router, http.MethodGet, "/hmcoe-admin/export/csv", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestAdminLogoutClearsDashboard(t *testing.T) {
	svc := &stubAdminService{loginToken: "tok-1", listing: &models.ProfilePage{Pages: 1}}
	router := adminRouter(newAdminHandler(svc, 20))
	login(t, router)

	w := doJSON(t, router, http.MethodPost, "/hmcoe-admin/logout", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var st map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st["authenticated"] != false {
		t.Error("expected unauthenticated state after logout")
	}
}
