// Package admin owns the authenticated dashboard state: the bearer token,
// the current page/search of the listing, the stat summary and the open
// detail view. The token is explicit session state passed into every call,
// never ambient.
package admin

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hmcoe/skillprofile/pkg/models"
	"github.com/hmcoe/skillprofile/pkg/profiling"
)

// ErrNotAuthenticated guards every admin operation attempted without a token.
var ErrNotAuthenticated = errors.New("admin session not authenticated")

// Service is the slice of the API client the dashboard depends on.
type Service interface {
	Login(ctx context.Context, username, password string) (string, error)
	ListProfiles(ctx context.Context, token, search string, page, perPage int) (*models.ProfilePage, error)
	Stats(ctx context.Context, token string) (*models.Stats, error)
	DeleteProfile(ctx context.Context, token string, id int64) error
	SetApproval(ctx context.Context, token string, id int64, approved bool) error
	Export(ctx context.Context, token string, format profiling.ExportFormat) ([]byte, error)
}

// TokenStore persists the bearer token across sessions.
type TokenStore interface {
	SaveToken(ctx context.Context, token string) error
	LoadToken(ctx context.Context) (string, error)
	ClearToken(ctx context.Context) error
}

type Session struct {
	svc       Service
	store     TokenStore
	perPage   int
	exportDir string

	token    string
	search   string
	page     int
	listing  *models.ProfilePage
	stats    *models.Stats
	selected *models.Profile
}

func NewSession(svc Service, store TokenStore, perPage int, exportDir string) *Session {
	if perPage <= 0 {
		perPage = 20
	}
	return &Session{svc: svc, store: store, perPage: perPage, exportDir: exportDir, page: 1}
}

func (s *Session) Authenticated() bool { return s.token != "" }

func (s *Session) Token() string { return s.token }

// Resume restores a persisted token from the local store. Tokens that are
// malformed or already past their exp claim are discarded; anything else is
// reused and left for the server to judge.
func (s *Session) Resume(ctx context.Context) bool {
	if s.store == nil {
		return false
	}
	token, err := s.store.LoadToken(ctx)
	if err != nil || token == "" {
		return false
	}
	if tokenExpired(token, time.Now()) {
		_ = s.store.ClearToken(ctx)
		return false
	}
	s.token = token
	return true
}

// Login exchanges credentials for a token and persists it. A failed login
// leaves any prior authentication state untouched.
func (s *Session) Login(ctx context.Context, username, password string) error {
	token, err := s.svc.Login(ctx, username, password)
	if err != nil {
		return err
	}

	s.token = token
	s.page = 1
	if s.store != nil {
		if err := s.store.SaveToken(ctx, token); err != nil {
			// the session still works for this run; persistence is best effort
			return nil
		}
	}
	return nil
}

// Logout clears the token, the persisted copy and all cached dashboard data.
func (s *Session) Logout(ctx context.Context) {
	s.token = ""
	s.listing = nil
	s.stats = nil
	s.selected = nil
	s.search = ""
	s.page = 1
	if s.store != nil {
		_ = s.store.ClearToken(ctx)
	}
}

func (s *Session) Search() string { return s.search }

func (s *Session) Page() int { return s.page }

func (s *Session) Listing() *models.ProfilePage { return s.listing }

func (s *Session) Stats() *models.Stats { return s.stats }

func (s *Session) Selected() *models.Profile { return s.selected }

// SetSearch updates the filter term; any change resets to page one.
func (s *Session) SetSearch(q string) {
	if q == s.search {
		return
	}
	s.search = q
	s.page = 1
}

func (s *Session) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	if s.listing != nil && page > s.listing.Pages {
		page = s.listing.Pages
	}
	s.page = page
}

// Refresh fetches the current listing page and the stat summary. The two
// fetches are independent: one failing does not discard the other's result.
func (s *Session) Refresh(ctx context.Context) error {
	if !s.Authenticated() {
		return ErrNotAuthenticated
	}

	listing, listErr := s.svc.ListProfiles(ctx, s.token, s.search, s.page, s.perPage)
	if listErr == nil {
		s.listing = listing
		if s.page > listing.Pages {
			s.page = listing.Pages
		}
	}

	stats, statsErr := s.svc.Stats(ctx, s.token)
	if statsErr == nil {
		s.stats = stats
	}

	return errors.Join(listErr, statsErr)
}

// Select opens the detail view for a listed profile.
func (s *Session) Select(p *models.Profile) {
	if p == nil {
		s.selected = nil
		return
	}
	sel := *p
	s.selected = &sel
}

func (s *Session) Deselect() { s.selected = nil }

// Delete removes a profile and refreshes listing and stats. A deleted
// profile's open detail view is closed.
func (s *Session) Delete(ctx context.Context, id int64) error {
	if !s.Authenticated() {
		return ErrNotAuthenticated
	}
	if err := s.svc.DeleteProfile(ctx, s.token, id); err != nil {
		return err
	}
	if s.selected != nil && s.selected.ID == id {
		s.selected = nil
	}
	return s.Refresh(ctx)
}

// SetApproval flips approval on a profile. The open detail view is updated
// immediately after the mutation succeeds, without waiting for the refreshed
// listing.
func (s *Session) SetApproval(ctx context.Context, id int64, approved bool) error {
	if !s.Authenticated() {
		return ErrNotAuthenticated
	}
	if err := s.svc.SetApproval(ctx, s.token, id, approved); err != nil {
		return err
	}
	if s.selected != nil && s.selected.ID == id {
		s.selected.Approved = approved
	}
	return s.Refresh(ctx)
}

// Export downloads the collection blob and saves it under the fixed
// profiles.<ext> name in the export directory, returning the written path.
func (s *Session) Export(ctx context.Context, format profiling.ExportFormat) (string, error) {
	if !s.Authenticated() {
		return "", ErrNotAuthenticated
	}
	blob, err := s.svc.Export(ctx, s.token, format)
	if err != nil {
		return "", err
	}

	path := filepath.Join(s.exportDir, format.Filename())
	if err := os.WriteFile(path, blob, 0o644); err != nil {
		return "", fmt.Errorf("save export: %w", err)
	}
	return path, nil
}

// ExportBlob downloads the collection without touching disk, for handlers
// that stream the file to the browser instead.
func (s *Session) ExportBlob(ctx context.Context, format profiling.ExportFormat) ([]byte, string, error) {
	if !s.Authenticated() {
		return nil, "", ErrNotAuthenticated
	}
	blob, err := s.svc.Export(ctx, s.token, format)
	if err != nil {
		return nil, "", err
	}
	return blob, format.Filename(), nil
}
