package profiling

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hmcoe/skillprofile/internal/config"
	"github.com/hmcoe/skillprofile/pkg/metrics"
	"github.com/hmcoe/skillprofile/pkg/models"
)

func testCfg(baseURL string) config.ClientConfig {
	return config.ClientConfig{
		BaseURL:                 baseURL,
		Timeout:                 2 * time.Second,
		Retries:                 0,
		Backoff:                 time.Millisecond,
		CircuitFailureThreshold: 100,
		CircuitReset:            time.Second,
	}
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(testCfg(srv.URL), srv.Client())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c, srv
}

func TestGetProfile(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/profile/HM123" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"hm_id": "HM123", "name": "Asha", "total_exp_years": 7,
			"skills": []any{"Python", map[string]any{"skill_name": "Spark", "primary_secondary": "Secondary"}},
		})
	}))

	p, err := c.GetProfile(context.Background(), "HM123")
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if p.Name != "Asha" || p.TotalExpYears != "7" {
		t.Fatalf("unexpected profile: %+v", p)
	}
	if len(p.Skills) != 2 || p.Skills[0].SkillName != "Python" || p.Skills[0].PrimarySecondary != models.PrimaryTag {
		t.Fatalf("skills not normalized: %+v", p.Skills)
	}
}

func TestGetProfile_NotFoundAndForbidden(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/profile/HMMISSING":
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "Profile not found"})
		case "/api/profile/HMPENDING":
			w.WriteHeader(http.StatusForbidden)
			json.NewEncoder(w).Encode(map[string]string{"error": "Profile pending admin approval"})
		}
	}))

	if _, err := c.GetProfile(context.Background(), "HMMISSING"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if _, err := c.GetProfile(context.Background(), "HMPENDING"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("want ErrForbidden, got %v", err)
	}
}

func TestSubmitProfile(t *testing.T) {
	var received models.Profile
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/profile" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(SubmitResult{Message: "Profile submitted successfully", ID: 42})
	}))

	p := &models.Profile{HMID: "HM123", Name: "Asha", Skills: []models.Skill{
		{SkillName: "Python", PrimarySecondary: models.PrimaryTag, YearsExp: "3", SelfAssessment: "Advanced"},
	}}
	res, err := c.SubmitProfile(context.Background(), p)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.ID != 42 || res.Message != "Profile submitted successfully" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if received.HMID != "HM123" || len(received.Skills) != 1 {
		t.Fatalf("payload not a full snapshot: %+v", received)
	}
}

func TestSubmitProfile_SchemaRejectsBeforeNetwork(t *testing.T) {
	calls := 0
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))

	if _, err := c.SubmitProfile(context.Background(), &models.Profile{Name: "no id"}); err == nil {
		t.Fatal("expected schema error for missing hm_id")
	}
	if calls != 0 {
		t.Fatalf("invalid payload reached the network (%d calls)", calls)
	}
}

func TestSubmitProfile_ServerRejection(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "Happiest Minds ID is required"})
	}))

	_, err := c.SubmitProfile(context.Background(), &models.Profile{HMID: "HM1", Name: "A"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("want APIError, got %v", err)
	}
	if apiErr.Message != "Happiest Minds ID is required" {
		t.Fatalf("server message not preserved: %q", apiErr.Message)
	}
}

func TestSearchSkills(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "py" {
			t.Errorf("q = %q", got)
		}
		json.NewEncoder(w).Encode([]models.SkillRef{
			{SkillID: "SK00012", SkillName: "PyTorch", PlatformGroup: "AI-ML"},
		})
	}))

	refs, err := c.SearchSkills(context.Background(), "py", "")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(refs) != 1 || refs[0].SkillName != "PyTorch" {
		t.Fatalf("unexpected refs: %+v", refs)
	}
}

func TestLogin(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var creds map[string]string
		json.NewDecoder(r.Body).Decode(&creds)
		if creds["username"] != "admin" || creds["password"] != "pw" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "Invalid credentials"})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"token": "tok-1"})
	}))

	tok, err := c.Login(context.Background(), "admin", "pw")
	if err != nil || tok != "tok-1" {
		t.Fatalf("login: %q, %v", tok, err)
	}
	if _, err := c.Login(context.Background(), "admin", "wrong"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized, got %v", err)
	}
}

func TestAdminCalls_AttachBearerToken(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			t.Errorf("missing bearer token on %s %s", r.Method, r.URL.Path)
		}
		switch {
		case r.URL.Path == "/api/admin/profiles" && r.Method == http.MethodGet:
			json.NewEncoder(w).Encode(models.ProfilePage{
				Profiles: []models.Profile{{HMID: "HM1", Name: "A"}}, Total: 1, Pages: 1, Page: 1,
			})
		case r.URL.Path == "/api/admin/stats":
			json.NewEncoder(w).Encode(models.Stats{TotalProfiles: 1, ByRole: map[string]int{"Data Engineer": 1}})
		case r.URL.Path == "/api/admin/profiles/7" && r.Method == http.MethodDelete:
			json.NewEncoder(w).Encode(map[string]string{"message": "Deleted"})
		case r.URL.Path == "/api/admin/profiles/7/approval" && r.Method == http.MethodPatch:
			var body map[string]bool
			json.NewDecoder(r.Body).Decode(&body)
			if !body["approved"] {
				t.Error("approved flag not sent")
			}
			json.NewEncoder(w).Encode(map[string]any{"message": "Updated", "approved": true})
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))

	ctx := context.Background()
	page, err := c.ListProfiles(ctx, "tok-1", "", 1, 20)
	if err != nil || page.Total != 1 {
		t.Fatalf("list: %+v, %v", page, err)
	}
	stats, err := c.Stats(ctx, "tok-1")
	if err != nil || stats.ByRole["Data Engineer"] != 1 {
		t.Fatalf("stats: %+v, %v", stats, err)
	}
	if err := c.DeleteProfile(ctx, "tok-1", 7); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := c.SetApproval(ctx, "tok-1", 7, true); err != nil {
		t.Fatalf("approval: %v", err)
	}
}

func TestExport(t *testing.T) {
	blob := []byte("hm_id,name\nHM1,A\n")
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/admin/export/csv" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Write(blob)
	}))

	got, err := c.Export(context.Background(), "tok-1", ExportCSV)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if string(got) != string(blob) {
		t.Fatalf("blob mismatch: %q", got)
	}
	if ExportCSV.Filename() != "profiles.csv" || ExportExcel.Filename() != "profiles.xlsx" {
		t.Fatal("unexpected export filenames")
	}
	if _, err := c.Export(context.Background(), "tok-1", "pdf"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestGetRetriesTransportFailures(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			// drop the connection mid-request
			hj, ok := w.(http.Hijacker)
			if !ok {
				t.Fatal("hijack unsupported")
			}
			conn, _, _ := hj.Hijack()
			conn.Close()
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"hm_id": "HM1", "name": "A", "approved": true})
	}))
	t.Cleanup(srv.Close)

	cfg := testCfg(srv.URL)
	cfg.Retries = 3
	c, err := NewClient(cfg, srv.Client())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	if _, err := c.GetProfile(context.Background(), "HM1"); err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("attempts = %d, want 3", attempts)
	}
}

func TestCircuitOpensAfterFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hj := w.(http.Hijacker)
		conn, _, _ := hj.Hijack()
		conn.Close()
	}))
	t.Cleanup(srv.Close)

	cfg := testCfg(srv.URL)
	cfg.CircuitFailureThreshold = 2
	cfg.CircuitReset = time.Minute
	c, err := NewClient(cfg, srv.Client())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	ctx := context.Background()
	for range 2 {
		if _, err := c.GetProfile(ctx, "HM1"); err == nil {
			t.Fatal("expected transport failure")
		}
	}
	if _, err := c.GetProfile(ctx, "HM1"); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("want ErrCircuitOpen, got %v", err)
	}
}

func upstreamCallCount(t *testing.T, op, outcome string) float64 {
	t.Helper()
	families, err := metrics.GetRegistry().Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	for _, f := range families {
		if f.GetName() != "hmcoe_skillprofile_upstream_calls_total" {
			continue
		}
		for _, m := range f.GetMetric() {
			labels := make(map[string]string)
			for _, l := range m.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			if labels["operation"] == op && labels["outcome"] == outcome {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestCallsRecordOperationAndOutcome(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/profile/HMMISSING" {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "Profile not found"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"hm_id": "HM1", "name": "A"})
	}))

	okBefore := upstreamCallCount(t, "get_profile", "ok")
	errBefore := upstreamCallCount(t, "get_profile", "error")

	if _, err := c.GetProfileJSON(context.Background(), "HM1"); err != nil {
		t.Fatalf("get: %v", err)
	}
	if _, err := c.GetProfileJSON(context.Background(), "HMMISSING"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}

	if got := upstreamCallCount(t, "get_profile", "ok"); got != okBefore+1 {
		t.Fatalf("ok counter = %v, want %v", got, okBefore+1)
	}
	if got := upstreamCallCount(t, "get_profile", "error"); got != errBefore+1 {
		t.Fatalf("error counter = %v, want %v", got, errBefore+1)
	}
}

func TestNewClient_BadBaseURL(t *testing.T) {
	if _, err := NewClient(config.ClientConfig{BaseURL: "not a url"}, nil); err == nil {
		t.Fatal("expected error for invalid base url")
	}
}
