package domain

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCourseIDAcceptsNumberOrString(t *testing.T) {
	var got struct {
		IDs []CourseID `json:"ids"`
	}
	if err := json.Unmarshal([]byte(`{"ids":[101," c-2 ",null,7.5]}`), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if diff := cmp.Diff([]CourseID{"101", "c-2", "", "7.5"}, got.IDs); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}

	var bad CourseID
	if err := json.Unmarshal([]byte(`{}`), &bad); err == nil {
		t.Fatalf("expected error for object course id")
	}
}

func TestRecommendationOptionalEnglishFields(t *testing.T) {
	var rec Recommendation
	body := `{"course_id":1,"level_band":"safe","english_requirement":{"min_ielts_overall":6.5,"inter_english_ok":false}}`
	if err := json.Unmarshal([]byte(body), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	e := rec.EnglishRequirement
	if e == nil || e.MinIELTSOverall == nil || *e.MinIELTSOverall != 6.5 {
		t.Fatalf("expected ielts minimum, got %+v", e)
	}
	if e.MinPTEOverall != nil || e.InterEnglishOK == nil || *e.InterEnglishOK {
		t.Fatalf("expected absent pte and explicit false inter flag, got %+v", e)
	}
}

func TestProfilePatchAndClusters(t *testing.T) {
	p := DefaultProfile()
	name, proof := "Ravi", " PTE "
	ProfilePatch{Name: &name, EnglishProofType: &proof}.Apply(&p)
	if p.Name != "Ravi" || p.EnglishProofType != EnglishProofPTE || p.BudgetLakhs != "30" {
		t.Fatalf("unexpected patched profile %+v", p)
	}

	if !p.ToggleCluster("mba") || !p.ToggleCluster("cs") || p.ToggleCluster("mba") {
		t.Fatalf("unexpected toggle results")
	}
	clone := p.Clone()
	clone.ToggleCluster("law")
	if diff := cmp.Diff([]string{"cs"}, p.SubjectClusters); diff != "" {
		t.Fatalf("clone shares clusters (-want +got):\n%s", diff)
	}
}

func TestLookupCountry(t *testing.T) {
	if c, ok := LookupCountry(" us "); !ok || !c.Available || c.Name != "United States" {
		t.Fatalf("unexpected US lookup %+v", c)
	}
	if c, ok := LookupCountry("CA"); !ok || c.Available {
		t.Fatalf("expected CA listed but unavailable, got %+v", c)
	}
	if _, ok := LookupCountry("FR"); ok {
		t.Fatalf("expected FR missing")
	}
}
