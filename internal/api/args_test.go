package telegram

import (
	"testing"

	"github.com/stretchr/testify/require"

	"retouch-bot/internal/domain/entity"
)

func TestParsePointArgs(t *testing.T) {
	x, y, label, err := parsePointArgs("10 20")
	require.NoError(t, err)
	require.Equal(t, []string{"10", "20", ""}, []string{x, y, label})

	x, y, label, err = parsePointArgs(" 5,5, bg ")
	require.NoError(t, err)
	require.Equal(t, []string{"5", "5", "bg"}, []string{x, y, label})

	for _, bad := range []string{"", "10", "1 2 3 4"} {
		_, _, _, err = parsePointArgs(bad)
		require.ErrorIs(t, err, entity.ErrInvalidInput, bad)
	}
}

func TestParseLUTArgs(t *testing.T) {
	name, intensity, err := parseLUTArgs("cinematic")
	require.NoError(t, err)
	require.Equal(t, "cinematic", name)
	require.Equal(t, 1.0, intensity)

	name, intensity, err = parseLUTArgs("matte 0,4")
	require.NoError(t, err)
	require.Equal(t, "matte", name)
	require.InDelta(t, 0.4, intensity, 1e-9)

	_, _, err = parseLUTArgs("matte strong")
	require.ErrorIs(t, err, entity.ErrInvalidInput)
	_, _, err = parseLUTArgs("")
	require.ErrorIs(t, err, entity.ErrInvalidInput)
}
