package service

import (
	"math"
	"math/rand"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"

	"uni-wizard/internal/domain"
)

func validProfile() domain.Profile {
	p := domain.DefaultProfile()
	p.Name = "Asha"
	p.CGPA = "8.2"
	p.EnglishProofType = domain.EnglishProofIELTS
	p.EnglishScore = "7"
	p.SubjectClusters = []string{"data_science", "mba"}
	return p
}

func TestValidateAcademicProfile_Valid(t *testing.T) {
	if errs := ValidateAcademicProfile(validProfile()); !errs.Empty() {
		t.Fatalf("expected no errors, got %+v", errs)
	}
}

func TestValidateAcademicProfile_ReportsEveryField(t *testing.T) {
	p := domain.Profile{
		Name:             "   ",
		CGPA:             "abc",
		Backlogs:         "-1",
		WorkExYears:      "",
		EnglishProofType: "toefl",
		EnglishScore:     "x",
	}
	want := FieldErrors{
		FieldName:             "Name is required.",
		FieldCGPA:             "Enter CGPA number (e.g. 8.2).",
		FieldBacklogs:         "Backlogs must be 0 or more.",
		FieldWorkExYears:      "Work-ex must be 0 or more.",
		FieldEnglishProofType: "Select English proof type.",
		FieldEnglishScore:     "Enter a valid score/percentage.",
	}
	if diff := cmp.Diff(want, ValidateAcademicProfile(p)); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateAcademicProfile_CGPARange(t *testing.T) {
	cases := []struct {
		cgpa    string
		wantErr string
	}{
		{"0", "CGPA must be between 0 and 10."},
		{"-3", "CGPA must be between 0 and 10."},
		{"10.01", "CGPA must be between 0 and 10."},
		{"NaN", "Enter CGPA number (e.g. 8.2)."},
		{"Inf", "Enter CGPA number (e.g. 8.2)."},
		{"0.1", ""},
		{"10", ""},
		{" 7.5 ", ""},
	}
	for _, c := range cases {
		t.Run(c.cgpa, func(t *testing.T) {
			p := validProfile()
			p.CGPA = c.cgpa
			got := ValidateAcademicProfile(p)[FieldCGPA]
			if got != c.wantErr {
				t.Fatalf("cgpa %q: expected %q, got %q", c.cgpa, c.wantErr, got)
			}
		})
	}
}

func TestValidateAcademicProfile_Backlogs(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"0", ""},
		{"3", ""},
		{"99", ""},
		{" 4.0 ", ""},
		{"-1", "Backlogs must be 0 or more."},
		{"", "Backlogs must be 0 or more."},
		{"2.5", "Backlogs must be a whole number."},
		{"100", "Backlogs must be 99 or less."},
		{"1e300", "Backlogs must be 99 or less."},
	}
	for _, c := range cases {
		t.Run(c.raw, func(t *testing.T) {
			p := validProfile()
			p.Backlogs = c.raw
			if got := ValidateAcademicProfile(p)[FieldBacklogs]; got != c.want {
				t.Fatalf("backlogs %q: expected %q, got %q", c.raw, c.want, got)
			}
		})
	}
}

func TestValidateAcademicProfile_EnglishScoreRanges(t *testing.T) {
	cases := []struct {
		proof   domain.EnglishProof
		score   string
		wantErr bool
	}{
		{domain.EnglishProofIELTS, "0", false},
		{domain.EnglishProofIELTS, "9", false},
		{domain.EnglishProofIELTS, "9.5", true},
		{domain.EnglishProofPTE, "9", true},
		{domain.EnglishProofPTE, "10", false},
		{domain.EnglishProofPTE, "90", false},
		{domain.EnglishProofPTE, "91", true},
		{domain.EnglishProofDuolingo, "160", false},
		{domain.EnglishProofDuolingo, "161", true},
		{domain.EnglishProofDuolingo, "5", true},
		{domain.EnglishProofInter, "100", false},
		{domain.EnglishProofInter, "101", true},
		{domain.EnglishProofMedium, "-1", true},
		{domain.EnglishProofNone, "-500", false},
		{domain.EnglishProofNone, "1e6", false},
		{domain.EnglishProofNone, "n/a", true},
	}
	for _, c := range cases {
		p := validProfile()
		p.EnglishProofType = c.proof
		p.EnglishScore = c.score
		_, gotErr := ValidateAcademicProfile(p)[FieldEnglishScore]
		if gotErr != c.wantErr {
			t.Fatalf("%s %s: expected error=%v, got %v", c.proof, c.score, c.wantErr, gotErr)
		}
	}
}

func TestValidatePreferences(t *testing.T) {
	if errs := ValidatePreferences(validProfile()); !errs.Empty() {
		t.Fatalf("expected no errors, got %+v", errs)
	}

	cases := []struct {
		name   string
		mutate func(p *domain.Profile)
		field  string
		msg    string
	}{
		{"blank intake", func(p *domain.Profile) { p.TargetIntake = "  " }, FieldTargetIntake, "Intake is required (e.g. Sep 2026)."},
		{"budget not number", func(p *domain.Profile) { p.BudgetLakhs = "lots" }, FieldBudgetLakhs, "Budget must be a number (lakhs)."},
		{"budget zero", func(p *domain.Profile) { p.BudgetLakhs = "0" }, FieldBudgetLakhs, "Budget must be > 0."},
		{"max unis not number", func(p *domain.Profile) { p.MaxUniversities = "" }, FieldMaxUniversities, "Enter a number (1–15)."},
		{"max unis fractional", func(p *domain.Profile) { p.MaxUniversities = "2.5" }, FieldMaxUniversities, "Max universities must be a whole number."},
		{"max unis too high", func(p *domain.Profile) { p.MaxUniversities = "16" }, FieldMaxUniversities, "Max universities must be 1–15."},
		{"max unis zero", func(p *domain.Profile) { p.MaxUniversities = "0" }, FieldMaxUniversities, "Max universities must be 1–15."},
		{"no clusters", func(p *domain.Profile) { p.SubjectClusters = nil }, FieldSubjectClusters, "Please select at least 1 course cluster."},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p := validProfile()
			c.mutate(&p)
			errs := ValidatePreferences(p)
			if len(errs) != 1 || errs[c.field] != c.msg {
				t.Fatalf("expected only %s=%q, got %+v", c.field, c.msg, errs)
			}
		})
	}
}

func randomNumeric(r *rand.Rand) string {
	switch r.Intn(6) {
	case 0:
		return ""
	case 1:
		return "abc"
	case 2:
		return strconv.Itoa(r.Intn(40) - 10)
	default:
		return strconv.FormatFloat(r.Float64()*200-20, 'f', 2, 64)
	}
}

// Propiedad: la etapa 1 es válida si y solo si cada campo cumple su rango.
func TestValidateAcademicProfile_Property(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	proofs := append([]domain.EnglishProof{"", "toefl"}, domain.EnglishProofs...)

	for i := 0; i < 2000; i++ {
		p := domain.Profile{
			CGPA:             randomNumeric(r),
			Backlogs:         randomNumeric(r),
			WorkExYears:      randomNumeric(r),
			EnglishProofType: proofs[r.Intn(len(proofs))],
			EnglishScore:     randomNumeric(r),
		}
		if r.Intn(3) > 0 {
			p.Name = "Student"
		}

		expectValid := p.Name != "" &&
			inRange(p.CGPA, func(v float64) bool { return v > 0 && v <= 10 }) &&
			inRange(p.Backlogs, func(v float64) bool { return v >= 0 && v == math.Trunc(v) && v <= MaxBacklogs }) &&
			inRange(p.WorkExYears, func(v float64) bool { return v >= 0 }) &&
			englishOK(p.EnglishProofType, p.EnglishScore)

		if got := ValidateAcademicProfile(p).Empty(); got != expectValid {
			t.Fatalf("profile %+v: expected valid=%v, got %v (%+v)", p, expectValid, got, ValidateAcademicProfile(p))
		}
	}
}

func inRange(raw string, ok func(float64) bool) bool {
	v, err := strconv.ParseFloat(raw, 64)
	return err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) && ok(v)
}

func englishOK(proof domain.EnglishProof, raw string) bool {
	switch proof {
	case domain.EnglishProofIELTS:
		return inRange(raw, func(v float64) bool { return v >= 0 && v <= 9 })
	case domain.EnglishProofPTE:
		return inRange(raw, func(v float64) bool { return v >= 10 && v <= 90 })
	case domain.EnglishProofDuolingo:
		return inRange(raw, func(v float64) bool { return v >= 10 && v <= 160 })
	case domain.EnglishProofInter, domain.EnglishProofMedium:
		return inRange(raw, func(v float64) bool { return v >= 0 && v <= 100 })
	case domain.EnglishProofNone:
		return inRange(raw, func(float64) bool { return true })
	default:
		return false
	}
}
