package form

import (
	"strings"

	"github.com/hmcoe/skillprofile/pkg/models"
)

// Validation failure codes.
const (
	CodeMissingRequiredField = "missing_required_field"
	CodeInvalidSkillRows     = "invalid_skill_rows"
)

// ValidationError is a client-side rejection. It never reaches the network
// and carries the section the user is navigated to.
type ValidationError struct {
	Code    string
	Section Section
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Validate runs the pre-submission checks in order and reports only the
// first failure, force-jumping the active section to the offending panel.
// HM ID and name come first; then every Primary/Secondary skill row needs a
// positive years value and a self assessment. N/A rows are exempt.
func (f *Form) Validate() *ValidationError {
	if strings.TrimSpace(f.draft.HMID) == "" || strings.TrimSpace(f.draft.Name) == "" {
		f.active = SectionProfile
		return &ValidationError{
			Code:    CodeMissingRequiredField,
			Section: SectionProfile,
			Message: "Happiest Minds ID and Name are required.",
		}
	}

	for _, sk := range f.draft.Skills {
		if sk.PrimarySecondary == models.NotAppTag {
			continue
		}
		years, ok := sk.YearsExp.Float()
		if !ok || years <= 0 || strings.TrimSpace(sk.SelfAssessment) == "" {
			f.active = SectionSkills
			return &ValidationError{
				Code:    CodeInvalidSkillRows,
				Section: SectionSkills,
				Message: "Please complete Years of Experience (> 0) and Self Assessment for all Primary/Secondary skills (or mark them N/A).",
			}
		}
	}

	return nil
}
