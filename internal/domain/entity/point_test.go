package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAnnotationPoint(t *testing.T) {
	p, err := ParseAnnotationPoint("10", " 20 ", "bg")
	require.NoError(t, err)
	require.Equal(t, AnnotationPoint{X: 10, Y: 20, Label: LabelBackground}, p)

	p, err = ParseAnnotationPoint("-5", "7", "")
	require.NoError(t, err)
	require.Equal(t, LabelForeground, p.Label)
	require.Equal(t, -5, p.X)
}

func TestParseAnnotationPoint_FractionalCoordinates(t *testing.T) {
	p, err := ParseAnnotationPoint("10.5", "20", "fg")
	require.NoError(t, err)
	require.Equal(t, AnnotationPoint{X: 10, Y: 20, Label: LabelForeground}, p)

	p, err = ParseAnnotationPoint("1e2", "2.9", "bg")
	require.NoError(t, err)
	require.Equal(t, AnnotationPoint{X: 100, Y: 2, Label: LabelBackground}, p)
}

func TestParseAnnotationPoint_InvalidInput(t *testing.T) {
	cases := []struct{ x, y, label string }{
		{"", "1", "fg"},
		{"1", "", "fg"},
		{"abc", "1", "fg"},
		{"NaN", "1", "fg"},
		{"1", "Inf", "fg"},
		{"1e300", "1", "fg"},
		{"1", "2", "maybe"},
	}
	for _, c := range cases {
		_, err := ParseAnnotationPoint(c.x, c.y, c.label)
		require.ErrorIs(t, err, ErrInvalidInput, "input %+v", c)
	}
}

func TestPointLabelString(t *testing.T) {
	require.Equal(t, "Foreground", LabelForeground.String())
	require.Equal(t, "Background", LabelBackground.String())
	require.Equal(t, "(3, 4) - Foreground", AnnotationPoint{X: 3, Y: 4, Label: LabelForeground}.String())
}
