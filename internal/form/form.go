package form

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/hmcoe/skillprofile/pkg/models"
	"github.com/hmcoe/skillprofile/pkg/profiling"
)

// Section identifies the single active form panel. SectionNone means all
// panels are collapsed.
type Section int

const (
	SectionNone           Section = -1
	SectionProfile        Section = 0
	SectionSkills         Section = 1
	SectionCertifications Section = 2
	SectionProjects       Section = 3
)

// ProfileService is the slice of the API client the form depends on.
type ProfileService interface {
	GetProfileJSON(ctx context.Context, hmID string) (json.RawMessage, error)
	SubmitProfile(ctx context.Context, p *models.Profile) (*profiling.SubmitResult, error)
}

// Form holds one mutable profile draft across the four sections and enforces
// pre-submission validation. It is owned by a single session; no locking.
type Form struct {
	svc       ProfileService
	draft     models.Profile
	active    Section
	submitted bool
	result    *profiling.SubmitResult
}

func New(svc ProfileService) *Form {
	return &Form{
		svc:    svc,
		draft:  DefaultDraft(),
		active: SectionProfile,
	}
}

// DefaultDraft is the empty draft a fresh form starts from: office location,
// one blank education, certification and project row, no skills.
func DefaultDraft() models.Profile {
	return models.Profile{
		ReportingLocationType: models.LocationOffice,
		Industries:            []string{},
		Education:             []models.Education{{}},
		Skills:                []models.Skill{},
		Certifications:        []models.Certification{{}},
		Projects:              []models.Project{{}},
	}
}

// Draft exposes the current draft for rendering. Mutations go through the
// operation methods so invariants hold.
func (f *Form) Draft() *models.Profile { return &f.draft }

func (f *Form) Submitted() bool                 { return f.submitted }
func (f *Form) Result() *profiling.SubmitResult { return f.result }
func (f *Form) ActiveSection() Section          { return f.active }

// SetActiveSection navigates directly to a panel.
func (f *Form) SetActiveSection(s Section) {
	if s < SectionNone || s > SectionProjects {
		return
	}
	f.active = s
}

// ToggleSection collapses the panel when it is already active, otherwise
// opens it.
func (f *Form) ToggleSection(s Section) {
	if f.active == s {
		f.active = SectionNone
		return
	}
	f.SetActiveSection(s)
}

// RestoreDraft replaces the draft wholesale, used when resuming an autosaved
// session.
func (f *Form) RestoreDraft(p *models.Profile) {
	if p == nil {
		return
	}
	f.draft = *p
	f.submitted = false
}

// Load hydrates the draft from an existing profile. Keys the server sent
// overwrite matching draft fields; keys it did not send keep their local
// value. Any failure leaves the draft untouched; callers surface it as a
// recoverable message, not a fatal error.
func (f *Form) Load(ctx context.Context, hmID string) error {
	raw, err := f.svc.GetProfileJSON(ctx, hmID)
	if err != nil {
		return err
	}

	merged := f.draft
	if err := json.Unmarshal(raw, &merged); err != nil {
		return fmt.Errorf("decode profile: %w", err)
	}
	f.draft = merged
	return nil
}

// SetField sets one top-level draft field by its wire name.
func (f *Form) SetField(name, value string) error {
	switch name {
	case "hm_id":
		f.draft.HMID = value
	case "name":
		f.draft.Name = value
	case "competency":
		f.draft.Competency = value
	case "joining_date":
		f.draft.JoiningDate = value
	case "total_exp_years":
		f.draft.TotalExpYears = models.FlexString(value)
	case "total_exp_months":
		f.draft.TotalExpMonths = models.FlexString(value)
	case "relevant_exp_years":
		f.draft.RelevantExpYears = models.FlexString(value)
	case "relevant_exp_months":
		f.draft.RelevantExpMonths = models.FlexString(value)
	case "reporting_location_type":
		if value != models.LocationCustomer && value != models.LocationOffice {
			return fmt.Errorf("unknown reporting location %q", value)
		}
		f.draft.ReportingLocationType = value
	case "customer_name":
		f.draft.CustomerName = value
	case "customer_address":
		f.draft.CustomerAddress = value
	case "office_city":
		f.draft.OfficeCity = value
	case "primary_role":
		f.draft.PrimaryRole = value
	default:
		return fmt.Errorf("unknown field %q", name)
	}
	return nil
}

// SetIndustries replaces the industry multi-select.
func (f *Form) SetIndustries(industries []string) {
	if industries == nil {
		industries = []string{}
	}
	f.draft.Industries = industries
}

// SetProfilePic stores an uploaded picture as a base64 data URI, rejecting
// files over the 1MB limit.
func (f *Form) SetProfilePic(contentType string, data []byte) error {
	if len(data) > models.MaxProfilePicBytes {
		return fmt.Errorf("profile picture must be under 1MB")
	}
	if len(data) == 0 {
		f.draft.ProfilePic = ""
		return nil
	}
	f.draft.ProfilePic = "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
	return nil
}

// Submit validates and sends the full draft as one replacement snapshot. A
// validation failure never reaches the network; a network or server failure
// keeps the draft so the user can retry. Success is terminal until Reset.
func (f *Form) Submit(ctx context.Context) error {
	if verr := f.Validate(); verr != nil {
		return verr
	}

	res, err := f.svc.SubmitProfile(ctx, &f.draft)
	if err != nil {
		return err
	}

	f.submitted = true
	f.result = res
	return nil
}

// ViewLink builds the shareable read-only link for the submitted HM ID.
func (f *Form) ViewLink(origin string) string {
	hmID := strings.TrimSpace(f.draft.HMID)
	if hmID == "" {
		return ""
	}
	return origin + "/view?hm_id=" + url.QueryEscape(hmID)
}

// Reset returns the form to a fresh draft at section one ("submit another").
func (f *Form) Reset() {
	f.draft = DefaultDraft()
	f.active = SectionProfile
	f.submitted = false
	f.result = nil
}
