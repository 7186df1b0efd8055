package service

import "uni-wizard/internal/domain"

// MaxCompare es el máximo de recomendaciones que se comparan lado a lado.
const MaxCompare = 4

// CompareSet es el conjunto acotado de course ids marcados para comparar, en orden de alta.
type CompareSet struct {
	ids []domain.CourseID
}

func (c *CompareSet) Contains(id domain.CourseID) bool {
	for _, x := range c.ids {
		if x == id {
			return true
		}
	}
	return false
}

// Toggle quita el id si ya estaba; si no estaba lo agrega salvo que el conjunto esté lleno.
// Devuelve si el id quedó seleccionado.
func (c *CompareSet) Toggle(id domain.CourseID) bool {
	for i, x := range c.ids {
		if x == id {
			c.ids = append(c.ids[:i:i], c.ids[i+1:]...)
			return false
		}
	}
	if len(c.ids) >= MaxCompare {
		return false
	}
	c.ids = append(c.ids, id)
	return true
}

func (c *CompareSet) Clear() {
	c.ids = nil
}

func (c *CompareSet) Len() int {
	return len(c.ids)
}

func (c *CompareSet) IDs() []domain.CourseID {
	return append([]domain.CourseID{}, c.ids...)
}

// Retain descarta los ids para los que keep devuelve false.
func (c *CompareSet) Retain(keep func(domain.CourseID) bool) {
	out := c.ids[:0]
	for _, id := range c.ids {
		if keep(id) {
			out = append(out, id)
		}
	}
	c.ids = out
}
