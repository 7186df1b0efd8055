package service

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"uni-wizard/internal/domain"
)

// CountryPolicy son los umbrales de orientación para un destino.
type CountryPolicy struct {
	Name              string                          `yaml:"name"`
	MinBudgetLakhs    float64                         `yaml:"min_budget_lakhs"`
	EnglishMinimums   map[domain.EnglishProof]float64 `yaml:"english_minimums"`
	AcceptsLocalProof bool                            `yaml:"accepts_local_proof"`
	GRENote           string                          `yaml:"gre_note"`
}

// AdvisoryPolicy agrupa las políticas por país.
type AdvisoryPolicy struct {
	DefaultCountry string                   `yaml:"default_country"`
	Countries      map[string]CountryPolicy `yaml:"countries"`
}

func defaultEnglishMinimums() map[domain.EnglishProof]float64 {
	return map[domain.EnglishProof]float64{
		domain.EnglishProofIELTS:    6.5,
		domain.EnglishProofPTE:      58,
		domain.EnglishProofDuolingo: 100,
		domain.EnglishProofInter:    70,
		domain.EnglishProofMedium:   70,
	}
}

// DefaultAdvisoryPolicy devuelve los umbrales por defecto de la consultoría.
func DefaultAdvisoryPolicy() AdvisoryPolicy {
	return AdvisoryPolicy{
		DefaultCountry: "UK",
		Countries: map[string]CountryPolicy{
			"UK": {
				Name:              "UK",
				MinBudgetLakhs:    28,
				EnglishMinimums:   defaultEnglishMinimums(),
				AcceptsLocalProof: true,
				GRENote:           "GRE/GMAT is rarely needed for UK Masters. Check the course page if a program lists it.",
			},
			"US": {
				Name:              "US",
				MinBudgetLakhs:    55,
				EnglishMinimums:   defaultEnglishMinimums(),
				AcceptsLocalProof: false,
				GRENote:           "US note: GRE/GMAT can be Required/Recommended depending on university & program. Always verify the official course page.",
			},
		},
	}
}

// For devuelve la política del país, o la del país por defecto si no existe.
func (p AdvisoryPolicy) For(countryCode string) CountryPolicy {
	code := strings.ToUpper(strings.TrimSpace(countryCode))
	if cp, ok := p.Countries[code]; ok {
		return cp
	}
	if cp, ok := p.Countries[strings.ToUpper(p.DefaultCountry)]; ok {
		return cp
	}
	return DefaultAdvisoryPolicy().Countries["UK"]
}

type countryPolicyFile struct {
	Name              string             `yaml:"name"`
	MinBudgetLakhs    *float64           `yaml:"min_budget_lakhs"`
	EnglishMinimums   map[string]float64 `yaml:"english_minimums"`
	AcceptsLocalProof *bool              `yaml:"accepts_local_proof"`
	GRENote           string             `yaml:"gre_note"`
}

type policyFile struct {
	DefaultCountry string                       `yaml:"default_country"`
	Countries      map[string]countryPolicyFile `yaml:"countries"`
}

// LoadAdvisoryPolicy lee un YAML y lo mezcla sobre los valores por defecto:
// los países y umbrales que el archivo no menciona conservan su valor.
func LoadAdvisoryPolicy(path string) (AdvisoryPolicy, error) {
	policy := DefaultAdvisoryPolicy()
	if strings.TrimSpace(path) == "" {
		return policy, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return policy, fmt.Errorf("read advisory policy: %w", err)
	}

	var file policyFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return policy, fmt.Errorf("parse advisory policy: %w", err)
	}

	if file.DefaultCountry != "" {
		policy.DefaultCountry = strings.ToUpper(strings.TrimSpace(file.DefaultCountry))
	}
	for code, override := range file.Countries {
		code = strings.ToUpper(strings.TrimSpace(code))
		base, ok := policy.Countries[code]
		if !ok {
			base = CountryPolicy{Name: code, EnglishMinimums: defaultEnglishMinimums()}
		}
		policy.Countries[code] = override.mergeInto(base)
	}
	if err := policy.validate(); err != nil {
		return DefaultAdvisoryPolicy(), err
	}
	return policy, nil
}

func (o countryPolicyFile) mergeInto(base CountryPolicy) CountryPolicy {
	if o.Name != "" {
		base.Name = o.Name
	}
	if o.MinBudgetLakhs != nil {
		base.MinBudgetLakhs = *o.MinBudgetLakhs
	}
	if o.AcceptsLocalProof != nil {
		base.AcceptsLocalProof = *o.AcceptsLocalProof
	}
	if o.GRENote != "" {
		base.GRENote = o.GRENote
	}
	merged := make(map[domain.EnglishProof]float64, len(base.EnglishMinimums))
	for k, v := range base.EnglishMinimums {
		merged[k] = v
	}
	for k, v := range o.EnglishMinimums {
		merged[domain.EnglishProof(strings.ToLower(strings.TrimSpace(k)))] = v
	}
	base.EnglishMinimums = merged
	return base
}

func (p AdvisoryPolicy) validate() error {
	for code, cp := range p.Countries {
		if cp.MinBudgetLakhs < 0 {
			return fmt.Errorf("advisory policy %s: min_budget_lakhs must be >= 0", code)
		}
		for proof, v := range cp.EnglishMinimums {
			if v < 0 {
				return fmt.Errorf("advisory policy %s: english minimum for %s must be >= 0", code, proof)
			}
		}
	}
	return nil
}
