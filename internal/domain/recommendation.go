package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

type LevelBand string

const (
	LevelSafe      LevelBand = "safe"
	LevelModerate  LevelBand = "moderate"
	LevelAmbitious LevelBand = "ambitious"
)

// CourseID identifica una oferta dentro de un resultado. El servicio de scoring
// puede mandarlo como número o como string; internamente siempre es texto.
type CourseID string

func (id *CourseID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = CourseID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("course_id: %w", err)
	}
	*id = CourseID(n.String())
	return nil
}

// EnglishRequirement lleva los mínimos que el servicio informa solo cuando existen.
type EnglishRequirement struct {
	MinIELTSOverall    *float64 `json:"min_ielts_overall,omitempty"`
	MinPTEOverall      *float64 `json:"min_pte_overall,omitempty"`
	MinDuolingo        *float64 `json:"min_duolingo,omitempty"`
	InterEnglishOK     *bool    `json:"inter_english_ok,omitempty"`
	CountryAllowsInter *bool    `json:"country_allows_inter,omitempty"`
	EnglishOKNow       *bool    `json:"english_ok_now,omitempty"`
}

// Recommendation es una oferta de curso devuelta por el servicio de scoring.
// Es inmutable una vez recibida.
type Recommendation struct {
	CourseID                CourseID            `json:"course_id"`
	UniversityName          string              `json:"university_name"`
	CourseName              string              `json:"course_name"`
	City                    string              `json:"city"`
	CountryName             string              `json:"country_name"`
	SubjectCluster          string              `json:"subject_cluster"`
	TierLabel               string              `json:"tier_label,omitempty"`
	LevelBand               LevelBand           `json:"level_band"`
	TuitionFeeLakhs         float64             `json:"tuition_fee_lakhs"`
	EstimatedLivingLakhs    float64             `json:"estimated_living_lakhs"`
	ExtraCostsLakhs         float64             `json:"extra_costs_lakhs"`
	TotalFirstYearCostLakhs float64             `json:"total_first_year_cost_lakhs"`
	IntakesText             string              `json:"intakes_text,omitempty"`
	MathRequired            bool                `json:"math_required"`
	CodingRequired          bool                `json:"coding_required"`
	EnglishRequirement      *EnglishRequirement `json:"english_requirement,omitempty"`
	Pros                    []string            `json:"pros,omitempty"`
	Cons                    []string            `json:"cons,omitempty"`
	WhyUniversity           []string            `json:"why_university,omitempty"`
	WhyCourse               []string            `json:"why_course,omitempty"`
	ShortAdvice             string              `json:"short_advice,omitempty"`
	OfficialCourseURL       string              `json:"official_course_url,omitempty"`
	VisaRisk                string              `json:"visa_risk,omitempty"`
}

// GlobalAdvice es la guía general que acompaña a la lista de recomendaciones.
type GlobalAdvice struct {
	Headline      string   `json:"headline"`
	EnglishAdvice string   `json:"english_advice,omitempty"`
	BudgetAdvice  string   `json:"budget_advice,omitempty"`
	ProfileGaps   []string `json:"profile_gaps,omitempty"`
	NextSteps     []string `json:"next_steps,omitempty"`
}

// BandCounts resume cuántas recomendaciones hay por banda.
type BandCounts struct {
	Safe      int `json:"safe"`
	Moderate  int `json:"moderate"`
	Ambitious int `json:"ambitious"`
}
