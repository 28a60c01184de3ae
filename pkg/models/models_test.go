package models

import (
	"encoding/json"
	"testing"
)

func TestSkillUnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Skill
	}{
		{
			name: "BareString",
			in:   `"Python"`,
			want: Skill{SkillName: "Python", PrimarySecondary: PrimaryTag},
		},
		{
			name: "StructuredObject",
			in:   `{"skill_id":"SK00012","skill_name":"PyTorch","platform_group":"AI-ML","primary_secondary":"Secondary","years_exp":"2.5","self_assessment":"Advanced"}`,
			want: Skill{SkillID: "SK00012", SkillName: "PyTorch", PlatformGroup: "AI-ML", PrimarySecondary: "Secondary", YearsExp: "2.5", SelfAssessment: "Advanced"},
		},
		{
			name: "MissingTagDefaultsToPrimary",
			in:   `{"skill_name":"Spark"}`,
			want: Skill{SkillName: "Spark", PrimarySecondary: PrimaryTag},
		},
		{
			name: "NumericYears",
			in:   `{"skill_name":"SQL","primary_secondary":"Primary","years_exp":3}`,
			want: Skill{SkillName: "SQL", PrimarySecondary: PrimaryTag, YearsExp: "3"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got Skill
			if err := json.Unmarshal([]byte(tc.in), &got); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestFlexString(t *testing.T) {
	var p Profile
	in := `{"hm_id":"HM1","name":"A","total_exp_years":7,"total_exp_months":"4","relevant_exp_years":null}`
	if err := json.Unmarshal([]byte(in), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.TotalExpYears != "7" || p.TotalExpMonths != "4" || p.RelevantExpYears != "" {
		t.Fatalf("unexpected exp fields: %q %q %q", p.TotalExpYears, p.TotalExpMonths, p.RelevantExpYears)
	}
	if p.TotalExpYears.Int() != 7 {
		t.Fatalf("Int() = %d, want 7", p.TotalExpYears.Int())
	}
	if v, ok := FlexString("2.5").Float(); !ok || v != 2.5 {
		t.Fatalf("Float() = %v, %v", v, ok)
	}
	if _, ok := FlexString("abc").Float(); ok {
		t.Fatal("Float() accepted non-numeric value")
	}
}

func TestSkillKey(t *testing.T) {
	withID := Skill{SkillID: " SK00001 ", SkillName: "ANN"}
	if withID.Key() != "sk00001" {
		t.Fatalf("key with id = %q", withID.Key())
	}
	noID := Skill{SkillName: " Deep Learning "}
	if noID.Key() != "deep learning" {
		t.Fatalf("key without id = %q", noID.Key())
	}
}

func TestHasSkill(t *testing.T) {
	p := &Profile{Skills: []Skill{
		{SkillID: "SK00012", SkillName: "PyTorch"},
		{SkillName: "Airflow"},
	}}

	if !p.HasSkill(SkillRef{SkillID: "SK00012", SkillName: "Renamed"}) {
		t.Fatal("expected match by skill id")
	}
	if !p.HasSkill(SkillRef{SkillName: "airflow"}) {
		t.Fatal("expected case-insensitive match by name")
	}
	if p.HasSkill(SkillRef{SkillID: "SK99999", SkillName: "Kafka"}) {
		t.Fatal("unexpected match")
	}
}

func TestPresentFilters(t *testing.T) {
	p := &Profile{
		Certifications: []Certification{{Name: "AWS SAA", Provider: "Amazon"}, {Provider: "orphan provider"}},
		Projects:       []Project{{Title: ""}, {Title: "Churn model", Role: "Lead"}},
	}

	certs := p.PresentCertifications()
	if len(certs) != 1 || certs[0].Name != "AWS SAA" {
		t.Fatalf("certs = %+v", certs)
	}
	projects := p.PresentProjects()
	if len(projects) != 1 || projects[0].Title != "Churn model" {
		t.Fatalf("projects = %+v", projects)
	}
	// the stored rows are untouched
	if len(p.Certifications) != 2 || len(p.Projects) != 2 {
		t.Fatal("filter mutated stored rows")
	}
}
