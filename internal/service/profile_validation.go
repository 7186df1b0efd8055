package service

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"uni-wizard/internal/domain"
)

// Claves de error por campo, compartidas con los front ends.
const (
	FieldName             = "name"
	FieldCGPA             = "cgpa"
	FieldBacklogs         = "backlogs"
	FieldWorkExYears      = "work_ex_years"
	FieldEnglishProofType = "english_proof_type"
	FieldEnglishScore     = "english_score"
	FieldTargetIntake     = "target_intake"
	FieldBudgetLakhs      = "budget_lakhs"
	FieldMaxUniversities  = "max_universities"
	FieldSubjectClusters  = "subject_clusters"
)

const (
	MinRequestedUniversities = 1
	MaxRequestedUniversities = 15
	MaxBacklogs              = 99
)

// FieldErrors mapea campo -> mensaje. Vacío significa que la etapa es válida.
type FieldErrors map[string]string

func (e FieldErrors) Empty() bool { return len(e) == 0 }

type scoreRange struct {
	min, max float64
	message  string
}

var englishScoreRanges = map[domain.EnglishProof]scoreRange{
	domain.EnglishProofIELTS:    {0, 9, "IELTS must be 0–9."},
	domain.EnglishProofPTE:      {10, 90, "PTE must be 10–90."},
	domain.EnglishProofDuolingo: {10, 160, "Duolingo must be 10–160."},
	domain.EnglishProofInter:    {0, 100, "Inter/Medium % must be 0–100."},
	domain.EnglishProofMedium:   {0, 100, "Inter/Medium % must be 0–100."},
}

// parseNumber devuelve el valor y ok=false si el texto no es un número finito.
// Un campo vacío no es un número.
func parseNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ValidateAcademicProfile valida la etapa 1 (perfil académico).
// Reporta todos los campos inválidos; dentro de un campo gana la primera regla que falla.
func ValidateAcademicProfile(p domain.Profile) FieldErrors {
	errs := FieldErrors{}

	if strings.TrimSpace(p.Name) == "" {
		errs[FieldName] = "Name is required."
	}

	if cgpa, ok := parseNumber(p.CGPA); !ok {
		errs[FieldCGPA] = "Enter CGPA number (e.g. 8.2)."
	} else if cgpa <= 0 || cgpa > 10 {
		errs[FieldCGPA] = "CGPA must be between 0 and 10."
	}

	backlogs, ok := parseNumber(p.Backlogs)
	switch {
	case !ok || backlogs < 0:
		errs[FieldBacklogs] = "Backlogs must be 0 or more."
	case backlogs != math.Trunc(backlogs):
		errs[FieldBacklogs] = "Backlogs must be a whole number."
	case backlogs > MaxBacklogs:
		errs[FieldBacklogs] = fmt.Sprintf("Backlogs must be %d or less.", MaxBacklogs)
	}

	if workEx, ok := parseNumber(p.WorkExYears); !ok || workEx < 0 {
		errs[FieldWorkExYears] = "Work-ex must be 0 or more."
	}

	proof, known := domain.ParseEnglishProof(string(p.EnglishProofType))
	if !known {
		errs[FieldEnglishProofType] = "Select English proof type."
	}

	score, ok := parseNumber(p.EnglishScore)
	switch {
	case !ok:
		errs[FieldEnglishScore] = "Enter a valid score/percentage."
	case known:
		if r, bounded := englishScoreRanges[proof]; bounded && (score < r.min || score > r.max) {
			errs[FieldEnglishScore] = r.message
		}
	}

	return errs
}

// ValidatePreferences valida la etapa 2 (preferencias).
func ValidatePreferences(p domain.Profile) FieldErrors {
	errs := FieldErrors{}

	if strings.TrimSpace(p.TargetIntake) == "" {
		errs[FieldTargetIntake] = "Intake is required (e.g. Sep 2026)."
	}

	if budget, ok := parseNumber(p.BudgetLakhs); !ok {
		errs[FieldBudgetLakhs] = "Budget must be a number (lakhs)."
	} else if budget <= 0 {
		errs[FieldBudgetLakhs] = "Budget must be > 0."
	}

	if maxUnis, ok := parseNumber(p.MaxUniversities); !ok {
		errs[FieldMaxUniversities] = "Enter a number (1–15)."
	} else if maxUnis != math.Trunc(maxUnis) {
		errs[FieldMaxUniversities] = "Max universities must be a whole number."
	} else if maxUnis < MinRequestedUniversities || maxUnis > MaxRequestedUniversities {
		errs[FieldMaxUniversities] = "Max universities must be 1–15."
	}

	if len(p.SubjectClusters) == 0 {
		errs[FieldSubjectClusters] = "Please select at least 1 course cluster."
	}

	return errs
}

// ValidateForSubmission combina ambas etapas; vacío habilita el envío al servicio de scoring.
func ValidateForSubmission(p domain.Profile) (FieldErrors, FieldErrors) {
	return ValidateAcademicProfile(p), ValidatePreferences(p)
}
