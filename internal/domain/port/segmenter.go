package port

import (
	"context"

	"retouch-bot/internal/domain/entity"
)

// Segmenter бэкенд сегментации по точкам
type Segmenter interface {
	// SegmentFromPoints отправляет изображение и точки, возвращает маску и уверенность
	SegmentFromPoints(ctx context.Context, req *entity.MaskRequest) (*entity.MaskResult, error)
}
