//go:build gocv
// +build gocv

package vision

import (
	"errors"
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// MaskHighlighter обводит контуры маски поверх документа
type MaskHighlighter struct {
	Color     color.RGBA
	Thickness int
	Threshold float32
}

// NewMaskHighlighter создаёт подсветку с зелёным контуром.
func NewMaskHighlighter() *MaskHighlighter {
	return &MaskHighlighter{
		Color:     color.RGBA{G: 255, A: 255},
		Thickness: 2,
		Threshold: 127,
	}
}

// Highlight рисует контуры маски на документе и возвращает PNG.
func (h *MaskHighlighter) Highlight(document, mask []byte) ([]byte, error) {
	docMat, err := decodeToMat(document, gocv.IMReadColor)
	if err != nil {
		return nil, err
	}
	defer docMat.Close()

	maskMat, err := decodeToMat(mask, gocv.IMReadGrayScale)
	if err != nil {
		return nil, err
	}
	defer maskMat.Close()

	// Маска может прийти в другом разрешении, приводим к размеру документа.
	if maskMat.Cols() != docMat.Cols() || maskMat.Rows() != docMat.Rows() {
		resized := gocv.NewMat()
		gocv.Resize(maskMat, &resized, image.Pt(docMat.Cols(), docMat.Rows()), 0, 0, gocv.InterpolationNearestNeighbor)
		maskMat.Close()
		maskMat = resized
	}

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(maskMat, &thresh, h.Threshold, 255, gocv.ThresholdBinary)

	contours := gocv.FindContours(thresh, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	gocv.DrawContours(&docMat, contours, -1, h.Color, h.Thickness)

	buf, err := gocv.IMEncode(gocv.PNGFileExt, docMat)
	if err != nil {
		return nil, err
	}
	defer buf.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}

// decodeToMat превращает байты изображения в gocv.Mat.
func decodeToMat(data []byte, flags gocv.IMReadFlag) (gocv.Mat, error) {
	mat, err := gocv.IMDecode(data, flags)
	if err == nil && !mat.Empty() {
		return mat, nil
	}
	if !mat.Empty() {
		mat.Close()
	}
	return gocv.NewMat(), errors.New("failed to decode image")
}
