package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/hmcoe/skillprofile/internal/form"
	"github.com/hmcoe/skillprofile/internal/search"
	"github.com/hmcoe/skillprofile/pkg/metrics"
	"github.com/hmcoe/skillprofile/pkg/models"
	"github.com/hmcoe/skillprofile/pkg/profiling"
)

const sessionCookie = "hmcoe_session"

// loadFailureMessage is shown when a lookup finds no existing profile; the
// draft stays editable so the user can create one.
const loadFailureMessage = "Profile not found. You can fill in the form to create it."

// ProfileService is the slice of the API client the form pages depend on.
type ProfileService interface {
	GetProfileJSON(ctx context.Context, hmID string) (json.RawMessage, error)
	SubmitProfile(ctx context.Context, p *models.Profile) (*profiling.SubmitResult, error)
	SearchSkills(ctx context.Context, q, group string) ([]models.SkillRef, error)
}

// DraftStore autosaves in-progress drafts per browser session.
type DraftStore interface {
	SaveDraft(ctx context.Context, sessionID string, draft *models.Profile) error
	LoadDraft(ctx context.Context, sessionID string) (*models.Profile, error)
	DeleteDraft(ctx context.Context, sessionID string) error
}

// formSession holds one browser's draft form and its debounced search.
type formSession struct {
	mu     sync.Mutex
	form   *form.Form
	search *search.Searcher
	group  atomic.Value // string, optional platform-group filter
}

type FormHandler struct {
	svc      ProfileService
	drafts   DraftStore
	debounce time.Duration

	mu       sync.Mutex
	sessions map[string]*formSession
}

func NewFormHandler(svc ProfileService, drafts DraftStore, debounce time.Duration) *FormHandler {
	return &FormHandler{
		svc:      svc,
		drafts:   drafts,
		debounce: debounce,
		sessions: make(map[string]*formSession),
	}
}

// session resolves the browser session from the cookie, creating both the
// cookie and the server-side state on first contact. A persisted draft from
// an earlier run is restored into the new session.
func (h *FormHandler) session(w http.ResponseWriter, r *http.Request) (string, *formSession) {
	var id string
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		id = c.Value
	} else {
		id = uuid.NewString()
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if fs, ok := h.sessions[id]; ok {
		return id, fs
	}

	fs := &formSession{form: form.New(h.svc)}
	fs.search = search.New(func(ctx context.Context, q string) ([]models.SkillRef, error) {
		group, _ := fs.group.Load().(string)
		metrics.RecordSearchQuery()
		return h.svc.SearchSkills(ctx, q, group)
	}, h.debounce)

	if h.drafts != nil {
		if draft, err := h.drafts.LoadDraft(r.Context(), id); err == nil && draft != nil {
			fs.form.RestoreDraft(draft)
		}
	}

	h.sessions[id] = fs
	return id, fs
}

// autosave persists the draft after every mutating operation; persistence is
// best effort and never fails the request.
func (h *FormHandler) autosave(ctx context.Context, id string, fs *formSession) {
	if h.drafts == nil {
		return
	}
	if err := h.drafts.SaveDraft(ctx, id, fs.form.Draft()); err != nil {
		logger.Error("autosave draft", slog.Any("err", err), slog.String("session", id))
	}
}

type formState struct {
	Draft         *models.Profile         `json:"draft"`
	ActiveSection int                     `json:"active_section"`
	Submitted     bool                    `json:"submitted"`
	Result        *profiling.SubmitResult `json:"result,omitempty"`
	ViewLink      string                  `json:"view_link,omitempty"`
}

func (h *FormHandler) state(r *http.Request, fs *formSession) formState {
	st := formState{
		Draft:         fs.form.Draft(),
		ActiveSection: int(fs.form.ActiveSection()),
		Submitted:     fs.form.Submitted(),
		Result:        fs.form.Result(),
	}
	if st.Submitted {
		st.ViewLink = fs.form.ViewLink(requestOrigin(r))
	}
	return st
}

func requestOrigin(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

// State returns the session's current form state.
func (h *FormHandler) State(w http.ResponseWriter, r *http.Request) {
	_, fs := h.session(w, r)
	fs.mu.Lock()
	defer fs.mu.Unlock()
	writeJSON(w, h.state(r, fs), http.StatusOK)
}

type loadRequest struct {
	HMID string `json:"hm_id"`
}

// Load hydrates the draft from an existing profile. A failed lookup is
// recoverable: the draft is untouched and the user may keep typing.
func (h *FormHandler) Load(w http.ResponseWriter, r *http.Request) {
	var req loadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	id, fs := h.session(w, r)
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := fs.form.Load(r.Context(), req.HMID); err != nil {
		writeJSON(w, errorResponse{Error: loadFailureMessage}, http.StatusNotFound)
		return
	}

	h.autosave(r.Context(), id, fs)
	writeJSON(w, h.state(r, fs), http.StatusOK)
}

type fieldRequest struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func (h *FormHandler) SetField(w http.ResponseWriter, r *http.Request) {
	var req fieldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	id, fs := h.session(w, r)
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := fs.form.SetField(req.Name, req.Value); err != nil {
		writeJSON(w, errorResponse{Error: err.Error()}, http.StatusBadRequest)
		return
	}

	h.autosave(r.Context(), id, fs)
	writeJSON(w, h.state(r, fs), http.StatusOK)
}

type industriesRequest struct {
	Industries []string `json:"industries"`
}

func (h *FormHandler) SetIndustries(w http.ResponseWriter, r *http.Request) {
	var req industriesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	id, fs := h.session(w, r)
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.form.SetIndustries(req.Industries)
	h.autosave(r.Context(), id, fs)
	writeJSON(w, h.state(r, fs), http.StatusOK)
}

// SetPhoto accepts a multipart upload under the "photo" field and stores it
// on the draft as a data URI.
func (h *FormHandler) SetPhoto(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("photo")
	if err != nil {
		http.Error(w, "photo file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	// read one byte past the cap so the oversize check still fires
	data, err := io.ReadAll(io.LimitReader(file, models.MaxProfilePicBytes+1))
	if err != nil {
		http.Error(w, "failed to read photo", http.StatusBadRequest)
		return
	}

	id, fs := h.session(w, r)
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := fs.form.SetProfilePic(header.Header.Get("Content-Type"), data); err != nil {
		writeJSON(w, errorResponse{Error: err.Error()}, http.StatusBadRequest)
		return
	}

	h.autosave(r.Context(), id, fs)
	writeJSON(w, h.state(r, fs), http.StatusOK)
}

type sectionRequest struct {
	Section int  `json:"section"`
	Toggle  bool `json:"toggle"`
}

func (h *FormHandler) SetSection(w http.ResponseWriter, r *http.Request) {
	var req sectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	_, fs := h.session(w, r)
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if req.Toggle {
		fs.form.ToggleSection(form.Section(req.Section))
	} else {
		fs.form.SetActiveSection(form.Section(req.Section))
	}
	writeJSON(w, h.state(r, fs), http.StatusOK)
}

type addSkillRequest struct {
	SkillID   string `json:"skill_id"`
	SkillName string `json:"skill_name"`
}

type rowRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// AddRow appends a blank row to the named collection; for skills the body
// names the catalog entry and duplicates are ignored.
func (h *FormHandler) AddRow(w http.ResponseWriter, r *http.Request) {
	collection := mux.Vars(r)["collection"]

	id, fs := h.session(w, r)
	fs.mu.Lock()
	defer fs.mu.Unlock()

	switch collection {
	case "education":
		fs.form.AddEducation()
	case "certifications":
		fs.form.AddCertification()
	case "projects":
		fs.form.AddProject()
	case "skills":
		var req addSkillRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		fs.form.AddSkill(models.SkillRef{SkillID: req.SkillID, SkillName: req.SkillName})
	default:
		http.Error(w, "unknown collection", http.StatusNotFound)
		return
	}

	h.autosave(r.Context(), id, fs)
	writeJSON(w, h.state(r, fs), http.StatusOK)
}

func (h *FormHandler) UpdateRow(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	collection := vars["collection"]
	index, err := strconv.Atoi(vars["index"])
	if err != nil {
		http.Error(w, "invalid index", http.StatusBadRequest)
		return
	}

	var req rowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	id, fs := h.session(w, r)
	fs.mu.Lock()
	defer fs.mu.Unlock()

	switch collection {
	case "education":
		err = fs.form.UpdateEducation(index, req.Field, req.Value)
	case "certifications":
		err = fs.form.UpdateCertification(index, req.Field, req.Value)
	case "projects":
		err = fs.form.UpdateProject(index, req.Field, req.Value)
	case "skills":
		err = fs.form.UpdateSkill(index, req.Field, req.Value)
	default:
		http.Error(w, "unknown collection", http.StatusNotFound)
		return
	}
	if err != nil {
		writeJSON(w, errorResponse{Error: err.Error()}, http.StatusBadRequest)
		return
	}

	h.autosave(r.Context(), id, fs)
	writeJSON(w, h.state(r, fs), http.StatusOK)
}

func (h *FormHandler) RemoveRow(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	collection := vars["collection"]
	index, err := strconv.Atoi(vars["index"])
	if err != nil {
		http.Error(w, "invalid index", http.StatusBadRequest)
		return
	}

	id, fs := h.session(w, r)
	fs.mu.Lock()
	defer fs.mu.Unlock()

	switch collection {
	case "education":
		err = fs.form.RemoveEducation(index)
	case "certifications":
		err = fs.form.RemoveCertification(index)
	case "projects":
		err = fs.form.RemoveProject(index)
	case "skills":
		err = fs.form.RemoveSkill(index)
	default:
		http.Error(w, "unknown collection", http.StatusNotFound)
		return
	}
	if err != nil {
		writeJSON(w, errorResponse{Error: err.Error()}, http.StatusBadRequest)
		return
	}

	h.autosave(r.Context(), id, fs)
	writeJSON(w, h.state(r, fs), http.StatusOK)
}

// Submit validates and posts the full draft snapshot. Validation failures
// never reach the network; a server rejection keeps the draft for retry.
func (h *FormHandler) Submit(w http.ResponseWriter, r *http.Request) {
	id, fs := h.session(w, r)
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := fs.form.Submit(r.Context()); err != nil {
		var ve *form.ValidationError
		if errors.As(err, &ve) {
			metrics.RecordSubmission("invalid")
		} else {
			metrics.RecordSubmission("rejected")
		}
		writeError(w, err)
		return
	}

	metrics.RecordSubmission("accepted")
	if h.drafts != nil {
		if err := h.drafts.DeleteDraft(r.Context(), id); err != nil {
			logger.Error("delete draft", slog.Any("err", err), slog.String("session", id))
		}
	}
	writeJSON(w, h.state(r, fs), http.StatusOK)
}

// Reset returns the terminal submitted state to a fresh default draft.
func (h *FormHandler) Reset(w http.ResponseWriter, r *http.Request) {
	id, fs := h.session(w, r)
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.form.Reset()
	fs.search.Clear()
	if h.drafts != nil {
		if err := h.drafts.DeleteDraft(r.Context(), id); err != nil {
			logger.Error("delete draft", slog.Any("err", err), slog.String("session", id))
		}
	}
	writeJSON(w, h.state(r, fs), http.StatusOK)
}

type searchResponse struct {
	Skills     []models.SkillRef `json:"skills"`
	Superseded bool              `json:"superseded,omitempty"`
}

// Search resolves the session's debounced skill lookup. Superseded calls
// are reported as such so the widget can ignore them.
func (h *FormHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	group := r.URL.Query().Get("group")

	_, fs := h.session(w, r)
	fs.group.Store(group)

	results, err := fs.search.Resolve(r.Context(), q)
	if err != nil {
		if errors.Is(err, search.ErrSuperseded) {
			metrics.RecordSearchSuperseded()
			writeJSON(w, searchResponse{Skills: []models.SkillRef{}, Superseded: true}, http.StatusOK)
			return
		}
		writeError(w, err)
		return
	}

	if results == nil {
		results = []models.SkillRef{}
	}
	writeJSON(w, searchResponse{Skills: results}, http.StatusOK)
}
