package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAnnotationSet_ParallelSequences(t *testing.T) {
	var s AnnotationSet
	for i := 0; i < 25; i++ {
		label := LabelForeground
		if i%3 == 0 {
			label = LabelBackground
		}
		s.Append(AnnotationPoint{X: i, Y: i * 2, Label: label})
		require.Equal(t, i+1, s.Len())
		require.Len(t, s.Coords(), s.Len())
		require.Len(t, s.Labels(), s.Len())
	}

	s.Reset()
	require.Zero(t, s.Len())
	require.Empty(t, s.Coords())
	require.Empty(t, s.Labels())
}

func TestAnnotationSet_MarshalWire(t *testing.T) {
	s := NewAnnotationSet(
		AnnotationPoint{X: 10, Y: 20, Label: LabelForeground},
		AnnotationPoint{X: 5, Y: 5, Label: LabelBackground},
	)

	points, labels, err := s.MarshalWire()
	require.NoError(t, err)
	require.Equal(t, "[[10,20],[5,5]]", points)
	require.Equal(t, "[1,0]", labels)
}

func TestAnnotationSet_MarshalWireEmpty(t *testing.T) {
	points, labels, err := AnnotationSet{}.MarshalWire()
	require.NoError(t, err)
	require.Equal(t, "[]", points)
	require.Equal(t, "[]", labels)
}

func TestAnnotationSet_CloneIsIndependent(t *testing.T) {
	s := NewAnnotationSet(AnnotationPoint{X: 1, Y: 1, Label: LabelForeground})
	c := s.Clone()
	s.Append(AnnotationPoint{X: 2, Y: 2, Label: LabelBackground})
	s.Reset()

	require.Equal(t, 1, c.Len())
	require.Equal(t, []AnnotationPoint{{X: 1, Y: 1, Label: LabelForeground}}, c.Points())
}
