package profiling

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/hmcoe/skillprofile/pkg/models"
)

// ExportFormat selects the admin export file type.
type ExportFormat string

const (
	ExportCSV   ExportFormat = "csv"
	ExportExcel ExportFormat = "excel"
)

// Filename is the fixed client-side download name for the format.
func (f ExportFormat) Filename() string {
	if f == ExportExcel {
		return "profiles.xlsx"
	}
	return "profiles.csv"
}

func (f ExportFormat) valid() bool {
	return f == ExportCSV || f == ExportExcel
}

// Login exchanges admin credentials for a bearer token. A rejected login
// returns ErrUnauthorized and leaves any previously issued token untouched.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	body, err := c.do(ctx, request{
		op:     "admin_login",
		method: http.MethodPost,
		path:   "/api/admin/login",
		body:   map[string]string{"username": username, "password": password},
	})
	if err != nil {
		return "", err
	}

	var res struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &res); err != nil {
		return "", fmt.Errorf("decode login response: %w", err)
	}
	if res.Token == "" {
		return "", fmt.Errorf("login response carried no token")
	}
	return res.Token, nil
}

// ListProfiles fetches one server-paginated, server-filtered page.
func (c *Client) ListProfiles(ctx context.Context, token, search string, page, perPage int) (*models.ProfilePage, error) {
	query := url.Values{}
	query.Set("search", search)
	query.Set("page", strconv.Itoa(page))
	query.Set("per_page", strconv.Itoa(perPage))

	body, err := c.do(ctx, request{
		op:     "list_profiles",
		method: http.MethodGet,
		path:   "/api/admin/profiles",
		query:  query,
		token:  token,
	})
	if err != nil {
		return nil, err
	}

	var pageRes models.ProfilePage
	if err := json.Unmarshal(body, &pageRes); err != nil {
		return nil, fmt.Errorf("decode profile page: %w", err)
	}
	if pageRes.Pages < 1 {
		pageRes.Pages = 1
	}
	return &pageRes, nil
}

// Stats fetches the aggregate profile counts.
func (c *Client) Stats(ctx context.Context, token string) (*models.Stats, error) {
	body, err := c.do(ctx, request{
		op:     "stats",
		method: http.MethodGet,
		path:   "/api/admin/stats",
		token:  token,
	})
	if err != nil {
		return nil, err
	}

	var stats models.Stats
	if err := json.Unmarshal(body, &stats); err != nil {
		return nil, fmt.Errorf("decode stats: %w", err)
	}
	return &stats, nil
}

// DeleteProfile removes a profile by its numeric id.
func (c *Client) DeleteProfile(ctx context.Context, token string, id int64) error {
	_, err := c.do(ctx, request{
		op:     "delete_profile",
		method: http.MethodDelete,
		path:   "/api/admin/profiles/" + strconv.FormatInt(id, 10),
		token:  token,
	})
	return err
}

// SetApproval flips the approval flag on a profile.
func (c *Client) SetApproval(ctx context.Context, token string, id int64, approved bool) error {
	_, err := c.do(ctx, request{
		op:     "set_approval",
		method: http.MethodPatch,
		path:   "/api/admin/profiles/" + strconv.FormatInt(id, 10) + "/approval",
		token:  token,
		body:   map[string]bool{"approved": approved},
	})
	return err
}

// Export downloads the full collection as an opaque blob in the given format.
func (c *Client) Export(ctx context.Context, token string, format ExportFormat) ([]byte, error) {
	if !format.valid() {
		return nil, fmt.Errorf("unknown export format %q", format)
	}

	return c.do(ctx, request{
		op:     "export",
		method: http.MethodGet,
		path:   "/api/admin/export/" + string(format),
		token:  token,
	})
}
