package entity

import (
	"encoding/json"
	"fmt"
)

// AnnotationSet упорядоченный набор точек для одного запроса маски.
// Координаты и метки хранятся параллельными срезами и меняются только вместе.
type AnnotationSet struct {
	coords [][2]int
	labels []int
}

// NewAnnotationSet создаёт набор из готовых точек
func NewAnnotationSet(points ...AnnotationPoint) AnnotationSet {
	var s AnnotationSet
	for _, p := range points {
		s.Append(p)
	}
	return s
}

// Append добавляет точку сразу в обе последовательности
func (s *AnnotationSet) Append(p AnnotationPoint) {
	s.coords = append(s.coords, [2]int{p.X, p.Y})
	s.labels = append(s.labels, int(p.Label))
}

// Reset очищает набор
func (s *AnnotationSet) Reset() {
	s.coords = nil
	s.labels = nil
}

// Len возвращает количество точек
func (s AnnotationSet) Len() int {
	return len(s.coords)
}

// Coords возвращает копию последовательности координат
func (s AnnotationSet) Coords() [][2]int {
	out := make([][2]int, len(s.coords))
	copy(out, s.coords)
	return out
}

// Labels возвращает копию последовательности меток в формате 1/0
func (s AnnotationSet) Labels() []int {
	out := make([]int, len(s.labels))
	copy(out, s.labels)
	return out
}

// Points возвращает точки в порядке добавления
func (s AnnotationSet) Points() []AnnotationPoint {
	out := make([]AnnotationPoint, 0, len(s.coords))
	for i, c := range s.coords {
		out = append(out, AnnotationPoint{X: c[0], Y: c[1], Label: PointLabel(s.labels[i])})
	}
	return out
}

// Clone возвращает независимую копию набора
func (s AnnotationSet) Clone() AnnotationSet {
	return AnnotationSet{coords: s.Coords(), labels: s.Labels()}
}

// MarshalWire сериализует набор в поля формы points и labels:
// points = [[x,y],...], labels = [1,0,...].
func (s AnnotationSet) MarshalWire() (points string, labels string, err error) {
	coords := s.coords
	if coords == nil {
		coords = [][2]int{}
	}
	lbs := s.labels
	if lbs == nil {
		lbs = []int{}
	}

	p, err := json.Marshal(coords)
	if err != nil {
		return "", "", fmt.Errorf("marshal points: %w", err)
	}
	l, err := json.Marshal(lbs)
	if err != nil {
		return "", "", fmt.Errorf("marshal labels: %w", err)
	}
	return string(p), string(l), nil
}
