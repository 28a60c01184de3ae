package profiling

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/hmcoe/skillprofile/pkg/models"
	"github.com/qri-io/jsonschema"
)

// submissionSchema is the structural contract for the POST /api/profile
// payload. It guards field types, not business rules; those live in the form
// validation.
const submissionSchema = `{
  "type": "object",
  "required": ["hm_id", "name"],
  "properties": {
    "hm_id": {"type": "string", "minLength": 1},
    "name": {"type": "string", "minLength": 1},
    "competency": {"type": "string"},
    "joining_date": {"type": "string"},
    "reporting_location_type": {"enum": ["customer", "office", ""]},
    "industries": {"type": "array", "items": {"type": "string"}},
    "profile_pic": {"type": "string"},
    "education": {"type": "array"},
    "skills": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["skill_name"],
        "properties": {
          "skill_name": {"type": "string", "minLength": 1},
          "primary_secondary": {"enum": ["Primary", "Secondary", "N/A"]}
        }
      }
    },
    "certifications": {"type": "array"},
    "projects": {"type": "array"}
  }
}`

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		rs := &jsonschema.Schema{}
		if err := json.Unmarshal([]byte(submissionSchema), rs); err != nil {
			schemaErr = fmt.Errorf("compile submission schema: %w", err)
			return
		}
		schema = rs
	})
	return schema, schemaErr
}

// ValidateSubmission checks the draft against the submission schema before it
// goes on the wire.
func ValidateSubmission(ctx context.Context, p *models.Profile) error {
	rs, err := compiledSchema()
	if err != nil {
		return err
	}

	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	keyErrs, err := rs.ValidateBytes(ctx, payload)
	if err != nil {
		return fmt.Errorf("validate profile: %w", err)
	}
	if len(keyErrs) > 0 {
		return fmt.Errorf("profile payload invalid: %s", keyErrs[0].Error())
	}

	return nil
}
