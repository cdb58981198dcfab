package ontology

import "testing"

func TestNormalize(t *testing.T) {
	o := New()
	cases := []struct {
		raw  string
		want string
	}{
		{"JS", "javascript"},
		{"  k8s ", "kubernetes"},
		{"Postgres", "postgresql"},
		{"golang", "golang"},
		{"Go", "golang"},
		{"DSA", "data structures"},
		{"quantum knitting", "quantum knitting"},
	}
	for _, c := range cases {
		if got := o.Normalize(c.raw); got != c.want {
			t.Errorf("Normalize(%q) = %q, want %q", c.raw, got, c.want)
		}
	}
}

func TestCategoryOf(t *testing.T) {
	o := New()
	if got := o.CategoryOf("redis"); got != "databases" {
		t.Errorf("CategoryOf(redis) = %q, want databases", got)
	}
	if got := o.CategoryOf("mongo"); got != "databases" {
		t.Errorf("CategoryOf(mongo) = %q, want databases (via synonym)", got)
	}
	if got := o.CategoryOf("unknown-skill"); got != "" {
		t.Errorf("CategoryOf(unknown) = %q, want empty", got)
	}
}

func TestTransferability(t *testing.T) {
	o := New()
	if got := o.Transferability("js", "javascript"); got != 1.0 {
		t.Errorf("synonym pair = %v, want 1.0", got)
	}
	if got := o.Transferability("postgresql", "mysql"); got != 0.7 {
		t.Errorf("same category = %v, want 0.7", got)
	}
	if got := o.Transferability("react", "redis"); got != 0.0 {
		t.Errorf("cross category = %v, want 0.0", got)
	}
}

func TestExtractProficiency(t *testing.T) {
	o := New()
	cases := []struct {
		text string
		want Proficiency
	}{
		{"Architected the payments platform", ProficiencyExpert},
		{"proficient in distributed systems", ProficiencyAdvanced},
		{"familiar with terraform", ProficiencyBeginner},
		{"7 years of backend work", ProficiencyExpert},
		{"3 yrs experience", ProficiencyAdvanced},
		{"1 year shipping features", ProficiencyIntermediate},
		{"used it once", ProficiencyIntermediate},
	}
	for _, c := range cases {
		if got := o.ExtractProficiency(c.text); got != c.want {
			t.Errorf("ExtractProficiency(%q) = %q, want %q", c.text, got, c.want)
		}
	}
}
