package api

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"slices"

	"log/slog"

	"github.com/hmcoe/skillprofile/pkg/models"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var pageTemplates = template.Must(template.New("pages").Funcs(template.FuncMap{
	"picked": func(list []string, v string) bool { return slices.Contains(list, v) },
	"inc":    func(i int) int { return i + 1 },
}).ParseFS(templateFS, "templates/*.html"))

// renderPage executes a template into a buffer first so a render failure
// can still produce a clean 500 instead of a half-written page.
func renderPage(w http.ResponseWriter, name string, data any, status int) {
	var buf bytes.Buffer
	if err := pageTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		logger.Error("render template", slog.String("template", name), slog.Any("err", err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

type formPageData struct {
	State           formState
	Competencies    []string
	PrimaryRoles    []string
	Industries      []string
	SelfAssessments []string
	Tags            []string
	Debounce        string
}

// Page renders the submission form view.
func (h *FormHandler) Page(w http.ResponseWriter, r *http.Request) {
	_, fs := h.session(w, r)
	fs.mu.Lock()
	defer fs.mu.Unlock()

	renderPage(w, "form.html", formPageData{
		State:           h.state(r, fs),
		Competencies:    models.Competencies,
		PrimaryRoles:    models.PrimaryRoles,
		Industries:      models.Industries,
		SelfAssessments: models.SelfAssessments,
		Tags:            models.PrimarySecondaryTags,
		Debounce:        h.debounce.String(),
	}, http.StatusOK)
}

type adminPageData struct {
	State    dashboardState
	Username string
}

// Page renders the dashboard view: a login card when unauthenticated, the
// listing otherwise. The username field is prefilled.
func (h *AdminHandler) Page(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if !h.session.Authenticated() {
		h.session.Resume(r.Context())
	}
	if h.session.Authenticated() && h.session.Listing() == nil {
		if err := h.session.Refresh(r.Context()); err != nil {
			logger.Warn("dashboard refresh failed", slog.Any("err", err))
		}
	}
	state := h.state()
	h.mu.Unlock()

	renderPage(w, "admin.html", adminPageData{State: state, Username: "admin"}, http.StatusOK)
}
