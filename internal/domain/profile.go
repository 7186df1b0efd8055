package domain

import "strings"

// EnglishProof identifica el tipo de prueba de inglés declarada por el estudiante.
type EnglishProof string

const (
	EnglishProofIELTS    EnglishProof = "ielts"
	EnglishProofPTE      EnglishProof = "pte"
	EnglishProofDuolingo EnglishProof = "duolingo"
	EnglishProofInter    EnglishProof = "inter"
	EnglishProofMedium   EnglishProof = "medium"
	EnglishProofNone     EnglishProof = "none"
)

// EnglishProofs lista los tipos en el orden en que se ofrecen al usuario.
var EnglishProofs = []EnglishProof{
	EnglishProofIELTS,
	EnglishProofPTE,
	EnglishProofDuolingo,
	EnglishProofInter,
	EnglishProofMedium,
	EnglishProofNone,
}

// ParseEnglishProof normaliza el valor recibido; ok es false si no es un tipo conocido.
func ParseEnglishProof(v string) (EnglishProof, bool) {
	p := EnglishProof(strings.ToLower(strings.TrimSpace(v)))
	for _, known := range EnglishProofs {
		if p == known {
			return p, true
		}
	}
	return p, false
}

// IsLocalProof indica pruebas no estandarizadas (nota de inglés del colegio o medio de instrucción).
func (p EnglishProof) IsLocalProof() bool {
	return p == EnglishProofInter || p == EnglishProofMedium
}

func (p EnglishProof) Label() string {
	switch p {
	case EnglishProofIELTS:
		return "IELTS"
	case EnglishProofPTE:
		return "PTE"
	case EnglishProofDuolingo:
		return "Duolingo"
	case EnglishProofInter:
		return "Inter English"
	case EnglishProofMedium:
		return "Medium of Instruction"
	case EnglishProofNone:
		return "No test yet"
	default:
		return strings.ToUpper(string(p))
	}
}

// Profile guarda los datos del formulario tal como los escribe el usuario.
// Los campos numéricos se mantienen como texto: la validación decide si son números.
type Profile struct {
	Name              string       `json:"name"`
	CGPA              string       `json:"cgpa"`
	Backlogs          string       `json:"backlogs"`
	WorkExYears       string       `json:"work_ex_years"`
	EnglishProofType  EnglishProof `json:"english_proof_type"`
	EnglishScore      string       `json:"english_score"`
	NonMathBackground bool         `json:"non_math_background"`
	TargetIntake      string       `json:"target_intake"`
	BudgetLakhs       string       `json:"budget_lakhs"`
	MaxUniversities   string       `json:"max_universities"`
	SubjectClusters   []string     `json:"subject_clusters"`
}

// DefaultProfile devuelve los valores con los que arranca el formulario.
func DefaultProfile() Profile {
	return Profile{
		Backlogs:         "0",
		WorkExYears:      "0",
		EnglishProofType: EnglishProofInter,
		EnglishScore:     "70",
		TargetIntake:     "Sep 2026",
		BudgetLakhs:      "30",
		MaxUniversities:  "7",
		SubjectClusters:  []string{},
	}
}

// HasCluster indica si el cluster ya está seleccionado.
func (p *Profile) HasCluster(id string) bool {
	for _, c := range p.SubjectClusters {
		if c == id {
			return true
		}
	}
	return false
}

// ToggleCluster agrega el cluster si no estaba o lo quita si ya estaba.
// Devuelve true si quedó seleccionado.
func (p *Profile) ToggleCluster(id string) bool {
	for i, c := range p.SubjectClusters {
		if c == id {
			p.SubjectClusters = append(p.SubjectClusters[:i:i], p.SubjectClusters[i+1:]...)
			return false
		}
	}
	p.SubjectClusters = append(p.SubjectClusters, id)
	return true
}

// Clone devuelve una copia que no comparte el slice de clusters.
func (p Profile) Clone() Profile {
	out := p
	out.SubjectClusters = append([]string{}, p.SubjectClusters...)
	return out
}

// ProfilePatch es una actualización parcial: solo se aplican los campos no nil.
type ProfilePatch struct {
	Name              *string `json:"name"`
	CGPA              *string `json:"cgpa"`
	Backlogs          *string `json:"backlogs"`
	WorkExYears       *string `json:"work_ex_years"`
	EnglishProofType  *string `json:"english_proof_type"`
	EnglishScore      *string `json:"english_score"`
	NonMathBackground *bool   `json:"non_math_background"`
	TargetIntake      *string `json:"target_intake"`
	BudgetLakhs       *string `json:"budget_lakhs"`
	MaxUniversities   *string `json:"max_universities"`
}

func (pp ProfilePatch) Apply(p *Profile) {
	if pp.Name != nil {
		p.Name = *pp.Name
	}
	if pp.CGPA != nil {
		p.CGPA = *pp.CGPA
	}
	if pp.Backlogs != nil {
		p.Backlogs = *pp.Backlogs
	}
	if pp.WorkExYears != nil {
		p.WorkExYears = *pp.WorkExYears
	}
	if pp.EnglishProofType != nil {
		// Un valor desconocido se guarda igual; la validación lo reporta.
		p.EnglishProofType, _ = ParseEnglishProof(*pp.EnglishProofType)
	}
	if pp.EnglishScore != nil {
		p.EnglishScore = *pp.EnglishScore
	}
	if pp.NonMathBackground != nil {
		p.NonMathBackground = *pp.NonMathBackground
	}
	if pp.TargetIntake != nil {
		p.TargetIntake = *pp.TargetIntake
	}
	if pp.BudgetLakhs != nil {
		p.BudgetLakhs = *pp.BudgetLakhs
	}
	if pp.MaxUniversities != nil {
		p.MaxUniversities = *pp.MaxUniversities
	}
}
