package profiling

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/hmcoe/skillprofile/pkg/models"
)

// SubmitResult is the server acknowledgement of a profile submission. The
// message distinguishes a fresh submission from an update of an existing
// HM ID and is shown to the user as-is.
type SubmitResult struct {
	Message string `json:"message"`
	ID      int64  `json:"id"`
}

// GetProfileJSON fetches one profile by HM ID and returns the raw document.
// The form uses this to hydrate a draft with JSON-merge semantics: keys the
// server sent overwrite, keys it did not send keep their local value.
func (c *Client) GetProfileJSON(ctx context.Context, hmID string) (json.RawMessage, error) {
	hmID = strings.TrimSpace(hmID)
	if hmID == "" {
		return nil, fmt.Errorf("hm id is required")
	}

	body, err := c.do(ctx, request{
		op:     "get_profile",
		method: http.MethodGet,
		path:   "/api/profile/" + url.PathEscape(hmID),
	})
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

// GetProfile fetches one profile by HM ID as a structured model.
func (c *Client) GetProfile(ctx context.Context, hmID string) (*models.Profile, error) {
	raw, err := c.GetProfileJSON(ctx, hmID)
	if err != nil {
		return nil, err
	}

	var p models.Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &p, nil
}

// SubmitProfile sends the full draft as one replacement payload. The payload
// is checked against the submission schema first so a malformed draft never
// reaches the network.
func (c *Client) SubmitProfile(ctx context.Context, p *models.Profile) (*SubmitResult, error) {
	if err := ValidateSubmission(ctx, p); err != nil {
		return nil, err
	}

	body, err := c.do(ctx, request{
		op:     "submit_profile",
		method: http.MethodPost,
		path:   "/api/profile",
		body:   p,
	})
	if err != nil {
		return nil, err
	}

	var res SubmitResult
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("decode submit response: %w", err)
	}
	return &res, nil
}

// SearchSkills queries the skill catalog. An empty group matches all
// platform groups. Results are capped server-side.
func (c *Client) SearchSkills(ctx context.Context, q, group string) ([]models.SkillRef, error) {
	query := url.Values{}
	query.Set("q", q)
	if group != "" {
		query.Set("group", group)
	}

	body, err := c.do(ctx, request{
		op:     "search_skills",
		method: http.MethodGet,
		path:   "/api/skills",
		query:  query,
	})
	if err != nil {
		return nil, err
	}

	var refs []models.SkillRef
	if err := json.Unmarshal(body, &refs); err != nil {
		return nil, fmt.Errorf("decode skills: %w", err)
	}
	return refs, nil
}
