package models

import (
	"encoding/json"
	"strings"
)

// Domain models matching the profiling API wire format. Numeric experience
// fields travel as either JSON numbers or strings depending on how old the
// stored record is, so they are normalized to FlexString at the boundary.

// MaxProfilePicBytes is the client-enforced limit for the base64 profile picture.
const MaxProfilePicBytes = 1024 * 1024

type Profile struct {
	ID                    int64           `json:"id,omitempty"`
	HMID                  string          `json:"hm_id"`
	Name                  string          `json:"name"`
	Competency            string          `json:"competency"`
	JoiningDate           string          `json:"joining_date"`
	TotalExpYears         FlexString      `json:"total_exp_years"`
	TotalExpMonths        FlexString      `json:"total_exp_months"`
	RelevantExpYears      FlexString      `json:"relevant_exp_years"`
	RelevantExpMonths     FlexString      `json:"relevant_exp_months"`
	ReportingLocationType string          `json:"reporting_location_type"`
	CustomerName          string          `json:"customer_name"`
	CustomerAddress       string          `json:"customer_address"`
	OfficeCity            string          `json:"office_city"`
	Industries            []string        `json:"industries"`
	PrimaryRole           string          `json:"primary_role"`
	ProfilePic            string          `json:"profile_pic"`
	Education             []Education     `json:"education"`
	Skills                []Skill         `json:"skills"`
	Certifications        []Certification `json:"certifications"`
	Projects              []Project       `json:"projects"`
	Approved              bool            `json:"approved,omitempty"`
	ApprovedAt            string          `json:"approved_at,omitempty"`
	CreatedAt             string          `json:"created_at,omitempty"`
	UpdatedAt             string          `json:"updated_at,omitempty"`
}

type Education struct {
	Degree         string `json:"degree"`
	Specialisation string `json:"specialisation"`
	Institution    string `json:"institution"`
	Year           string `json:"year"`
	Grade          string `json:"grade"`
}

type Skill struct {
	SkillID          string     `json:"skill_id"`
	SkillName        string     `json:"skill_name"`
	PlatformGroup    string     `json:"platform_group"`
	PrimarySecondary string     `json:"primary_secondary"`
	YearsExp         FlexString `json:"years_exp"`
	SelfAssessment   string     `json:"self_assessment"`
}

// SkillRef is a skill catalog entry as returned by the search endpoint.
type SkillRef struct {
	SkillID       string `json:"skill_id"`
	SkillName     string `json:"skill_name"`
	PlatformGroup string `json:"platform_group"`
}

type Certification struct {
	Name     string `json:"name"`
	Provider string `json:"provider"`
	Date     string `json:"date"`
	Expiry   string `json:"expiry"`
}

type Project struct {
	Title          string `json:"title"`
	Role           string `json:"role"`
	Duration       string `json:"duration"`
	Tools          string `json:"tools"`
	Description    string `json:"description"`
	Responsibility string `json:"responsibility"`
	Awards         string `json:"awards"`
}

type Stats struct {
	TotalProfiles int            `json:"total_profiles"`
	ByRole        map[string]int `json:"by_role"`
	ByCompetency  map[string]int `json:"by_competency"`
}

// ProfilePage is one page of the admin listing.
type ProfilePage struct {
	Profiles []Profile `json:"profiles"`
	Total    int       `json:"total"`
	Pages    int       `json:"pages"`
	Page     int       `json:"page"`
}

// UnmarshalJSON accepts both the structured skill object and the bare string
// form older records used. The polymorphism is resolved here once; the rest
// of the codebase only ever sees structured rows.
func (s *Skill) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var name string
		if err := json.Unmarshal(b, &name); err != nil {
			return err
		}
		*s = Skill{SkillName: name, PrimarySecondary: PrimaryTag}
		return nil
	}

	type alias Skill
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	if a.PrimarySecondary == "" {
		a.PrimarySecondary = PrimaryTag
	}
	*s = Skill(a)
	return nil
}

// Key is the dedup identity of a skill row: skill_id when present, else the
// skill name, case-insensitive.
func (s Skill) Key() string {
	if id := strings.TrimSpace(s.SkillID); id != "" {
		return strings.ToLower(id)
	}
	return strings.ToLower(strings.TrimSpace(s.SkillName))
}

// Present reports whether the certification counts for display and export.
// Rows with an empty name are kept in the draft but treated as absent.
func (c Certification) Present() bool {
	return strings.TrimSpace(c.Name) != ""
}

func (p Project) Present() bool {
	return strings.TrimSpace(p.Title) != ""
}

// PresentCertifications filters out blank rows without mutating the stored slice.
func (p *Profile) PresentCertifications() []Certification {
	out := make([]Certification, 0, len(p.Certifications))
	for _, c := range p.Certifications {
		if c.Present() {
			out = append(out, c)
		}
	}
	return out
}

func (p *Profile) PresentProjects() []Project {
	out := make([]Project, 0, len(p.Projects))
	for _, pr := range p.Projects {
		if pr.Present() {
			out = append(out, pr)
		}
	}
	return out
}

// HasSkill reports whether a row with the same identity already exists.
func (p *Profile) HasSkill(ref SkillRef) bool {
	id := strings.ToLower(strings.TrimSpace(ref.SkillID))
	name := strings.ToLower(strings.TrimSpace(ref.SkillName))
	for _, s := range p.Skills {
		if id != "" && strings.ToLower(strings.TrimSpace(s.SkillID)) == id {
			return true
		}
		if strings.ToLower(strings.TrimSpace(s.SkillName)) == name {
			return true
		}
	}
	return false
}
