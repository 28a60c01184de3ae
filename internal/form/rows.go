package form

import (
	"fmt"
	"strings"

	"github.com/hmcoe/skillprofile/pkg/models"
)

// Row collections are edited by index position. The UI is single-user and
// single-threaded, so positional removal is safe.

func (f *Form) AddEducation() {
	f.draft.Education = append(f.draft.Education, models.Education{})
}

func (f *Form) UpdateEducation(i int, field, value string) error {
	if i < 0 || i >= len(f.draft.Education) {
		return fmt.Errorf("education row %d out of range", i)
	}
	row := &f.draft.Education[i]
	switch field {
	case "degree":
		row.Degree = value
	case "specialisation":
		row.Specialisation = value
	case "institution":
		row.Institution = value
	case "year":
		row.Year = value
	case "grade":
		row.Grade = value
	default:
		return fmt.Errorf("unknown education field %q", field)
	}
	return nil
}

func (f *Form) RemoveEducation(i int) error {
	if i < 0 || i >= len(f.draft.Education) {
		return fmt.Errorf("education row %d out of range", i)
	}
	f.draft.Education = append(f.draft.Education[:i], f.draft.Education[i+1:]...)
	return nil
}

// AddSkill appends a catalog entry as a new skill row unless a row with the
// same identity already exists. Duplicate adds are silently ignored so the
// operation is idempotent. New rows default to Primary with blank experience
// and assessment.
func (f *Form) AddSkill(ref models.SkillRef) {
	if strings.TrimSpace(ref.SkillName) == "" {
		return
	}
	if f.draft.HasSkill(ref) {
		return
	}
	f.draft.Skills = append(f.draft.Skills, models.Skill{
		SkillID:          ref.SkillID,
		SkillName:        ref.SkillName,
		PlatformGroup:    ref.PlatformGroup,
		PrimarySecondary: models.PrimaryTag,
	})
}

// UpdateSkill sets one field of one skill row. Setting primary_secondary to
// N/A clears years and self assessment in the same update; stale values must
// never survive into validation or submission.
func (f *Form) UpdateSkill(i int, field, value string) error {
	if i < 0 || i >= len(f.draft.Skills) {
		return fmt.Errorf("skill row %d out of range", i)
	}
	row := &f.draft.Skills[i]
	switch field {
	case "primary_secondary":
		valid := false
		for _, tag := range models.PrimarySecondaryTags {
			if value == tag {
				valid = true
				break
			}
		}
		if !valid {
			return fmt.Errorf("unknown primary/secondary tag %q", value)
		}
		row.PrimarySecondary = value
		if value == models.NotAppTag {
			row.YearsExp = ""
			row.SelfAssessment = ""
		}
	case "years_exp":
		row.YearsExp = models.FlexString(value)
	case "self_assessment":
		row.SelfAssessment = value
	default:
		return fmt.Errorf("unknown skill field %q", field)
	}
	return nil
}

func (f *Form) RemoveSkill(i int) error {
	if i < 0 || i >= len(f.draft.Skills) {
		return fmt.Errorf("skill row %d out of range", i)
	}
	f.draft.Skills = append(f.draft.Skills[:i], f.draft.Skills[i+1:]...)
	return nil
}

func (f *Form) AddCertification() {
	f.draft.Certifications = append(f.draft.Certifications, models.Certification{})
}

func (f *Form) UpdateCertification(i int, field, value string) error {
	if i < 0 || i >= len(f.draft.Certifications) {
		return fmt.Errorf("certification row %d out of range", i)
	}
	row := &f.draft.Certifications[i]
	switch field {
	case "name":
		row.Name = value
	case "provider":
		row.Provider = value
	case "date":
		row.Date = value
	case "expiry":
		row.Expiry = value
	default:
		return fmt.Errorf("unknown certification field %q", field)
	}
	return nil
}

func (f *Form) RemoveCertification(i int) error {
	if i < 0 || i >= len(f.draft.Certifications) {
		return fmt.Errorf("certification row %d out of range", i)
	}
	f.draft.Certifications = append(f.draft.Certifications[:i], f.draft.Certifications[i+1:]...)
	return nil
}

func (f *Form) AddProject() {
	f.draft.Projects = append(f.draft.Projects, models.Project{})
}

func (f *Form) UpdateProject(i int, field, value string) error {
	if i < 0 || i >= len(f.draft.Projects) {
		return fmt.Errorf("project row %d out of range", i)
	}
	row := &f.draft.Projects[i]
	switch field {
	case "title":
		row.Title = value
	case "role":
		row.Role = value
	case "duration":
		row.Duration = value
	case "tools":
		row.Tools = value
	case "description":
		row.Description = value
	case "responsibility":
		row.Responsibility = value
	case "awards":
		row.Awards = value
	default:
		return fmt.Errorf("unknown project field %q", field)
	}
	return nil
}

func (f *Form) RemoveProject(i int) error {
	if i < 0 || i >= len(f.draft.Projects) {
		return fmt.Errorf("project row %d out of range", i)
	}
	f.draft.Projects = append(f.draft.Projects[:i], f.draft.Projects[i+1:]...)
	return nil
}
