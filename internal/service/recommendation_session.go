package service

import (
	"errors"

	"uni-wizard/internal/domain"
)

var ErrUnknownRecommendation = errors.New("recommendation not in current result set")

// RecommendationSession guarda el último resultado de scoring y la selección del usuario.
// Los conteos por banda y la recomendación activa se derivan en cada lectura.
type RecommendationSession struct {
	recs       []domain.Recommendation
	advice     *domain.GlobalAdvice
	selectedID domain.CourseID
	compare    CompareSet
}

// Replace reemplaza el resultado completo: purga del compare set los ids que ya no
// existen y selecciona la primera recomendación.
func (r *RecommendationSession) Replace(recs []domain.Recommendation, advice *domain.GlobalAdvice) {
	r.recs = append([]domain.Recommendation{}, recs...)
	r.advice = advice
	r.selectedID = ""
	if len(r.recs) > 0 {
		r.selectedID = r.recs[0].CourseID
	}
	r.compare.Retain(r.has)
}

// Clear deja la sesión sin resultados, sin consejo global y sin selección.
func (r *RecommendationSession) Clear() {
	r.recs = nil
	r.advice = nil
	r.selectedID = ""
	r.compare.Clear()
}

func (r *RecommendationSession) Recommendations() []domain.Recommendation {
	return append([]domain.Recommendation{}, r.recs...)
}

func (r *RecommendationSession) GlobalAdvice() *domain.GlobalAdvice {
	return r.advice
}

func (r *RecommendationSession) Len() int {
	return len(r.recs)
}

func (r *RecommendationSession) SelectedID() domain.CourseID {
	return r.selectedID
}

func (r *RecommendationSession) has(id domain.CourseID) bool {
	_, ok := r.find(id)
	return ok
}

func (r *RecommendationSession) find(id domain.CourseID) (int, bool) {
	for i := range r.recs {
		if r.recs[i].CourseID == id {
			return i, true
		}
	}
	return -1, false
}

// Select marca la recomendación activa.
func (r *RecommendationSession) Select(id domain.CourseID) error {
	if !r.has(id) {
		return ErrUnknownRecommendation
	}
	r.selectedID = id
	return nil
}

// Active devuelve la recomendación seleccionada, la primera si la selección no existe,
// o nil si no hay resultados.
func (r *RecommendationSession) Active() *domain.Recommendation {
	if len(r.recs) == 0 {
		return nil
	}
	if i, ok := r.find(r.selectedID); ok {
		rec := r.recs[i]
		return &rec
	}
	rec := r.recs[0]
	return &rec
}

func (r *RecommendationSession) Counts() domain.BandCounts {
	var c domain.BandCounts
	for _, rec := range r.recs {
		switch rec.LevelBand {
		case domain.LevelSafe:
			c.Safe++
		case domain.LevelModerate:
			c.Moderate++
		case domain.LevelAmbitious:
			c.Ambitious++
		}
	}
	return c
}

// ToggleCompare alterna un id del resultado actual en el compare set.
// Agregar con el conjunto lleno no hace nada.
func (r *RecommendationSession) ToggleCompare(id domain.CourseID) (bool, error) {
	if !r.has(id) {
		return false, ErrUnknownRecommendation
	}
	return r.compare.Toggle(id), nil
}

func (r *RecommendationSession) ClearCompare() {
	r.compare.Clear()
}

func (r *RecommendationSession) CompareIDs() []domain.CourseID {
	return r.compare.IDs()
}

// CompareRecommendations resuelve el compare set en el orden del resultado.
func (r *RecommendationSession) CompareRecommendations() []domain.Recommendation {
	out := []domain.Recommendation{}
	for _, rec := range r.recs {
		if r.compare.Contains(rec.CourseID) {
			out = append(out, rec)
		}
	}
	return out
}
