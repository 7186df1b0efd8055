package service

import (
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"unicode"

	"uni-wizard/internal/domain"
)

// AdvisoryContext es la foto del perfil y del último resultado que lee el help bot.
type AdvisoryContext struct {
	CountryCode  string
	Profile      domain.Profile
	GlobalAdvice *domain.GlobalAdvice
	Counts       domain.BandCounts
}

type advisoryRule struct {
	name    string
	matches func(q string) bool
	reply   func(cp CountryPolicy, in AdvisoryContext) string
}

// Advisor responde preguntas con reglas por palabras clave: gana la primera que matchea.
// Es seguro para uso concurrente; la política se puede reemplazar en caliente.
type Advisor struct {
	policy atomic.Pointer[AdvisoryPolicy]
	rules  []advisoryRule
}

func NewAdvisor(policy AdvisoryPolicy) *Advisor {
	a := &Advisor{rules: defaultAdvisoryRules()}
	a.SetPolicy(policy)
	return a
}

func (a *Advisor) SetPolicy(policy AdvisoryPolicy) {
	a.policy.Store(&policy)
}

func (a *Advisor) Policy() AdvisoryPolicy {
	if p := a.policy.Load(); p != nil {
		return *p
	}
	return DefaultAdvisoryPolicy()
}

func (a *Advisor) Greeting() string {
	return "Hi! 👋 I'm the help bot. Ask me about IELTS/PTE, budget, SAFE vs AMBITIOUS, or how many universities to apply to."
}

// QuickQuestions son las preguntas predefinidas que ofrece el help bot.
func QuickQuestions() []string {
	return []string{
		"Is my budget enough?",
		"Is my English score ok?",
		"What does SAFE / AMBITIOUS mean?",
		"How many universities should I apply to?",
		"Do US universities need GRE?",
	}
}

// Reply produce exactamente una respuesta; sin regla aplicable usa el fallback.
func (a *Advisor) Reply(question string, in AdvisoryContext) string {
	q := strings.ToLower(strings.TrimSpace(question))
	cp := a.Policy().For(in.CountryCode)

	for _, rule := range a.rules {
		if rule.matches(q) {
			return rule.reply(cp, in)
		}
	}
	return fallbackReply(in)
}

// RuleFor devuelve el nombre de la regla que respondería la pregunta ("fallback" si ninguna).
func (a *Advisor) RuleFor(question string) string {
	q := strings.ToLower(strings.TrimSpace(question))
	for _, rule := range a.rules {
		if rule.matches(q) {
			return rule.name
		}
	}
	return "fallback"
}

func defaultAdvisoryRules() []advisoryRule {
	return []advisoryRule{
		{
			name:    "budget",
			matches: func(q string) bool { return strings.Contains(q, "budget") },
			reply:   func(cp CountryPolicy, in AdvisoryContext) string { return budgetReply(cp, in.Profile) },
		},
		{
			name:    "english",
			matches: func(q string) bool { return containsAny(q, "ielts", "pte", "duolingo", "english") },
			reply:   func(cp CountryPolicy, in AdvisoryContext) string { return englishReply(cp, in.Profile) },
		},
		{
			name:    "levels",
			matches: func(q string) bool { return containsAny(q, "safe", "ambitious") },
			reply:   func(CountryPolicy, AdvisoryContext) string { return levelBandsReply },
		},
		{
			name:    "how_many",
			matches: func(q string) bool { return containsAny(q, "how many", "apply") },
			reply:   func(cp CountryPolicy, in AdvisoryContext) string { return howManyReply(cp, in.Profile) },
		},
		{
			name:    "gre",
			matches: func(q string) bool { return hasWord(q, "gre", "gmat") },
			reply:   func(cp CountryPolicy, _ AdvisoryContext) string { return cp.GRENote },
		},
		{
			name:    "intake",
			matches: func(q string) bool { return containsAny(q, "intake", "deadline") },
			reply:   func(_ CountryPolicy, in AdvisoryContext) string { return intakeReply(in) },
		},
	}
}

const levelBandsReply = "SAFE ✅ = your CGPA is clearly above the minimum.\n" +
	"MODERATE 🟡 = borderline but possible.\n" +
	"AMBITIOUS 🔵 = reach option, not guaranteed.\n" +
	"Plan: 2–3 SAFE + 2 MODERATE + 1 AMBITIOUS."

// budgetIsTight indica si el presupuesto es válido y queda por debajo del mínimo del país.
func budgetIsTight(cp CountryPolicy, p domain.Profile) bool {
	budget, ok := parseNumber(p.BudgetLakhs)
	return ok && budget > 0 && budget < cp.MinBudgetLakhs
}

func budgetReply(cp CountryPolicy, p domain.Profile) string {
	budget, ok := parseNumber(p.BudgetLakhs)
	if !ok || budget <= 0 {
		return "Enter a valid budget (in lakhs) first."
	}
	amount := formatNumber(budget)
	if budgetIsTight(cp, p) {
		return fmt.Sprintf("⚠️ %sL is tight for %s. Prefer lower-cost cities, plan part-time income and look at scholarships or an education loan.", amount, cp.Name)
	}
	return fmt.Sprintf("✅ %sL looks workable for %s. Still compare the total first-year cost (tuition + living + extras) before you decide.", amount, cp.Name)
}

func englishReply(cp CountryPolicy, p domain.Profile) string {
	proof, known := domain.ParseEnglishProof(string(p.EnglishProofType))
	if !known {
		return "Select your English proof type first."
	}
	if proof == domain.EnglishProofNone {
		return fmt.Sprintf("📝 No test yet. Safest path for %s: IELTS %s+ or PTE %s+ (varies by course).",
			cp.Name,
			formatNumber(cp.EnglishMinimums[domain.EnglishProofIELTS]),
			formatNumber(cp.EnglishMinimums[domain.EnglishProofPTE]),
		)
	}
	if proof.IsLocalProof() && !cp.AcceptsLocalProof {
		return fmt.Sprintf("⚠️ %s generally needs IELTS/TOEFL/PTE. %s usually won't work.", cp.Name, proof.Label())
	}

	score, ok := parseNumber(p.EnglishScore)
	if !ok {
		return "Enter your English score/percentage first."
	}
	minimum, ok := cp.EnglishMinimums[proof]
	if !ok {
		return "Check English requirements course-wise."
	}

	shown := formatNumber(score)
	if proof.IsLocalProof() {
		shown += "%"
	}
	switch {
	case score >= minimum && proof.IsLocalProof():
		return fmt.Sprintf("✅ %s %s helps for conditional offers or waivers at some %s universities. Still, IELTS/PTE is the safest route.", proof.Label(), shown, cp.Name)
	case score >= minimum:
		return fmt.Sprintf("✅ %s %s is generally OK for many universities. Some courses ask for more.", proof.Label(), shown)
	case proof.IsLocalProof():
		return fmt.Sprintf("⚠️ %s %s might be weak. IELTS/PTE recommended.", proof.Label(), shown)
	default:
		return fmt.Sprintf("⚠️ %s %s is on the low side. Target %s+ (minimum).", proof.Label(), shown, formatNumber(minimum))
	}
}

func howManyReply(cp CountryPolicy, p domain.Profile) string {
	if budgetIsTight(cp, p) {
		return "Best: 5–7 applications.\nYour budget is tight → focus on 5 of your strongest matches."
	}
	return "Best: 5–7 applications.\nIf you are aiming for top tier → keep 7 with 1–2 ambitious picks."
}

func intakeReply(in AdvisoryContext) string {
	if in.GlobalAdvice != nil && len(in.GlobalAdvice.NextSteps) > 0 {
		return in.GlobalAdvice.NextSteps[0]
	}
	intake := strings.TrimSpace(in.Profile.TargetIntake)
	if intake == "" {
		intake = "target"
	}
	return fmt.Sprintf("Start applications at least 8–10 months before your %s intake and track deadlines carefully.", intake)
}

func fallbackReply(in AdvisoryContext) string {
	if in.GlobalAdvice != nil && strings.TrimSpace(in.GlobalAdvice.Headline) != "" {
		return "🧠 Based on your profile: " + in.GlobalAdvice.Headline
	}
	return "Ask me about: budget / English / SAFE vs AMBITIOUS / how many to apply 🙂"
}

func containsAny(s string, list ...string) bool {
	for _, x := range list {
		if strings.Contains(s, x) {
			return true
		}
	}
	return false
}

func hasWord(s string, words ...string) bool {
	tokens := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, tok := range tokens {
		for _, w := range words {
			if tok == w {
				return true
			}
		}
	}
	return false
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
