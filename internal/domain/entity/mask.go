package entity

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// MaskRequest один запрос маски: исходное изображение и снимок точек.
type MaskRequest struct {
	Image           []byte        // PNG активного документа
	Points          AnnotationSet // снимок набора на момент отправки
	MultimaskOutput bool          // просить у модели несколько вариантов и брать лучший
}

// MaskResult ответ сегментации
type MaskResult struct {
	Mask  string  // PNG маски в base64
	Score float64 // уверенность модели, ожидается 0..1
}

// ConfidencePercent форматирует уверенность в процентах с одним знаком
func (r *MaskResult) ConfidencePercent() string {
	return fmt.Sprintf("%.1f%%", r.Score*100)
}

// EncodeMask кодирует байты маски в base64
func EncodeMask(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// DecodeMask декодирует base64-маску в байты
func DecodeMask(payload string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: decode mask: %v", ErrMalformedResponse, err)
	}
	return data, nil
}

const maskLabelPrefix = "SAM Mask"

// MaskLabel имя слоя для маски, построенной по n точкам
func MaskLabel(n int) string {
	return fmt.Sprintf("%s (derived from %d points)", maskLabelPrefix, n)
}

// IsMaskLabel слой с маской, а не готовое изображение
func IsMaskLabel(label string) bool {
	return strings.HasPrefix(label, maskLabelPrefix)
}
