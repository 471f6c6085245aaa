package entity

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// PointLabel полярность точки-подсказки для сегментации
type PointLabel int

const (
	LabelBackground PointLabel = 0 // Точка фона
	LabelForeground PointLabel = 1 // Точка объекта
)

// String возвращает человекочитаемое имя метки
func (l PointLabel) String() string {
	if l == LabelForeground {
		return "Foreground"
	}
	return "Background"
}

// ParsePointLabel разбирает метку из пользовательского ввода.
// Пустая строка означает объект.
func ParsePointLabel(raw string) (PointLabel, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "1", "fg", "foreground", "+", "объект":
		return LabelForeground, nil
	case "0", "bg", "background", "-", "фон":
		return LabelBackground, nil
	default:
		return 0, fmt.Errorf("%w: unknown point label %q", ErrInvalidInput, raw)
	}
}

// AnnotationPoint точка на изображении, указанная пользователем
type AnnotationPoint struct {
	X     int        // координата X в пикселях изображения
	Y     int        // координата Y в пикселях изображения
	Label PointLabel // объект или фон
}

// ParseAnnotationPoint собирает точку из сырых строк ввода.
// Границы изображения не проверяются.
func ParseAnnotationPoint(rawX, rawY, rawLabel string) (AnnotationPoint, error) {
	rawX, rawY = strings.TrimSpace(rawX), strings.TrimSpace(rawY)
	if rawX == "" || rawY == "" {
		return AnnotationPoint{}, fmt.Errorf("%w: both X and Y coordinates are required", ErrInvalidInput)
	}

	x, err := parseCoordinate("X", rawX)
	if err != nil {
		return AnnotationPoint{}, err
	}
	y, err := parseCoordinate("Y", rawY)
	if err != nil {
		return AnnotationPoint{}, err
	}

	label, err := ParsePointLabel(rawLabel)
	if err != nil {
		return AnnotationPoint{}, err
	}

	return AnnotationPoint{X: x, Y: y, Label: label}, nil
}

// parseCoordinate дробная часть отбрасывается: "10.5" даёт 10
func parseCoordinate(axis, raw string) (int, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %s is not a number: %q", ErrInvalidInput, axis, raw)
	}
	v = math.Trunc(v)
	if v > math.MaxInt32 || v < math.MinInt32 {
		return 0, fmt.Errorf("%w: %s is out of range: %q", ErrInvalidInput, axis, raw)
	}
	return int(v), nil
}

// String форматирует точку для статусных сообщений
func (p AnnotationPoint) String() string {
	return fmt.Sprintf("(%d, %d) - %s", p.X, p.Y, p.Label)
}
