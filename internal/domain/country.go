package domain

import "strings"

// Country describe un destino de estudio tal como se muestra en la pantalla inicial.
type Country struct {
	Code       string   `json:"code"`
	Name       string   `json:"name"`
	Flag       string   `json:"flag"`
	Tagline    string   `json:"tagline,omitempty"`
	Bullets    []string `json:"bullets,omitempty"`
	Chips      []string `json:"chips,omitempty"`
	ExtraNotes []string `json:"extra_notes,omitempty"`
	Available  bool     `json:"available"`
}

var countries = []Country{
	{
		Code:    "UK",
		Name:    "United Kingdom",
		Flag:    "🇬🇧",
		Tagline: "1-year Masters, 2-year PSW, strong for Data & Management.",
		Bullets: []string{
			"1-year Masters, 2-year PSW.",
			"Strong for Data Science, CS, MBA.",
			"Budget-friendly options outside London.",
		},
		Chips: []string{"Data / CS strong", "MBA / Business", "Lower fees vs US"},
		ExtraNotes: []string{
			"UKVI still often prefers IELTS/PTE even if some universities accept Inter/Medium.",
			"Apply early for Sep intake (best) – seats fill fast.",
		},
		Available: true,
	},
	{
		Code:    "US",
		Name:    "United States",
		Flag:    "🇺🇸",
		Tagline: "STEM + OPT up to 3 years, strong for CS & AI.",
		Bullets: []string{
			"2-year Masters, strong research culture.",
			"STEM → up to 3 years OPT (work).",
			"Very strong for CS, AI, Data.",
		},
		Chips: []string{"Top for CS / AI", "High budget", "Needs IELTS/TOEFL"},
		ExtraNotes: []string{
			"Many universities may ask GRE/GMAT (Required/Recommended varies by program).",
			"Plan 8–12 months early for US admissions timelines.",
		},
		Available: true,
	},
	{Code: "CA", Name: "Canada", Flag: "🇨🇦"},
	{Code: "AU", Name: "Australia", Flag: "🇦🇺"},
}

// Countries devuelve una copia del catálogo de destinos (disponibles primero).
func Countries() []Country {
	out := make([]Country, len(countries))
	copy(out, countries)
	return out
}

// LookupCountry busca un destino por código, sin distinguir mayúsculas.
func LookupCountry(code string) (Country, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, c := range countries {
		if c.Code == code {
			return c, true
		}
	}
	return Country{}, false
}

// ClusterOption es una entrada del catálogo de clusters de un país.
type ClusterOption struct {
	SubjectCluster string `json:"subject_cluster"`
	DisplayName    string `json:"display_name"`
	ExampleCourse  string `json:"example_course"`
	Count          int    `json:"count"`
}
