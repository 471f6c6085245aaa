//go:build !gocv
// +build !gocv

package vision

import (
	"fmt"
	"image/color"

	"retouch-bot/internal/infrastructure/imaging"
)

// MaskHighlighter подкрашивает область маски (сборка без OpenCV).
type MaskHighlighter struct {
	Color     color.NRGBA
	processor *imaging.Processor
}

// NewMaskHighlighter создаёт подсветку с полупрозрачной зелёной заливкой.
func NewMaskHighlighter() *MaskHighlighter {
	return &MaskHighlighter{
		Color:     color.NRGBA{G: 255, A: 110},
		processor: imaging.NewProcessor(),
	}
}

// Highlight накладывает маску на документ и возвращает PNG.
func (h *MaskHighlighter) Highlight(document, mask []byte) ([]byte, error) {
	doc, err := h.processor.Decode(document)
	if err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	m, err := h.processor.Decode(mask)
	if err != nil {
		return nil, fmt.Errorf("decode mask: %w", err)
	}
	return h.processor.EncodePNG(h.processor.TintMask(doc, m, h.Color))
}
