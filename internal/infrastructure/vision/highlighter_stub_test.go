//go:build !gocv
// +build !gocv

package vision

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestMaskHighlighter_KeepsDocumentSize(t *testing.T) {
	doc := image.NewRGBA(image.Rect(0, 0, 50, 40))
	for i := 3; i < len(doc.Pix); i += 4 {
		doc.Pix[i] = 255
	}
	mask := image.NewGray(image.Rect(0, 0, 50, 40))
	for y := 10; y < 20; y++ {
		for x := 10; x < 20; x++ {
			mask.SetGray(x, y, color.Gray{Y: 255})
		}
	}

	out, err := NewMaskHighlighter().Highlight(encodePNG(t, doc), encodePNG(t, mask))
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	require.Equal(t, doc.Bounds().Size(), img.Bounds().Size())

	_, g, _, _ := img.At(15, 15).RGBA()
	require.NotZero(t, g)
	_, g, _, _ = img.At(30, 30).RGBA()
	require.Zero(t, g)
}

func TestMaskHighlighter_BadInput(t *testing.T) {
	_, err := NewMaskHighlighter().Highlight([]byte("nope"), []byte("nope"))
	require.Error(t, err)
}
