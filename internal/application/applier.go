package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"retouch-bot/internal/domain/entity"
	"retouch-bot/internal/domain/port"
)

// ApplyOutcome итог применения маски
type ApplyOutcome struct {
	Mask         []byte
	Score        float64
	Label        string
	Placed       bool
	PlacementErr error // мягкая ошибка, запрос маски всё равно успешен
	Status       string
}

// ResultApplier декодирует маску, вставляет её в документ и сбрасывает точки
type ResultApplier struct {
	placer    port.ImagePlacer
	collector *PointCollector
	log       *zap.Logger
}

// NewResultApplier создаёт применитель результата для конкретного сборщика
func NewResultApplier(placer port.ImagePlacer, collector *PointCollector, log *zap.Logger) *ResultApplier {
	if log == nil {
		log = zap.NewNop()
	}
	return &ResultApplier{placer: placer, collector: collector, log: log.Named("applier")}
}

// Apply вставляет маску. Ошибка вставки не возвращается, а попадает в PlacementErr.
// Точки сбрасываются при любом исходе вставки; при ошибке декодирования остаются.
func (a *ResultApplier) Apply(ctx context.Context, result *entity.MaskResult, annotationCount int) (*ApplyOutcome, error) {
	if result == nil {
		return nil, fmt.Errorf("%w: empty result", entity.ErrMalformedResponse)
	}
	mask, err := entity.DecodeMask(result.Mask)
	if err != nil {
		return nil, err
	}
	if len(mask) == 0 {
		return nil, fmt.Errorf("%w: empty mask", entity.ErrMalformedResponse)
	}

	out := &ApplyOutcome{
		Mask:  mask,
		Score: result.Score,
		Label: entity.MaskLabel(annotationCount),
	}
	out.Placed, out.PlacementErr = place(ctx, a.placer, mask, out.Label)
	if out.PlacementErr != nil {
		a.log.Warn("placement to host failed or unavailable", zap.String("label", out.Label), zap.Error(out.PlacementErr))
	}

	a.collector.reset(ctx)

	out.Status = fmt.Sprintf("✅ Маска создана! Уверенность: %s", result.ConfidencePercent())
	if out.PlacementErr != nil {
		out.Status += " ⚠️ Не удалось вставить маску в документ."
	}
	return out, nil
}

// place вызывает хост и превращает false, ошибку или панику в ErrPlacement
func place(ctx context.Context, placer port.ImagePlacer, data []byte, label string) (placed bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			placed, err = false, fmt.Errorf("%w: host panic: %v", entity.ErrPlacement, r)
		}
	}()

	ok, err := placer.PlaceImage(ctx, data, label)
	if err != nil {
		return false, fmt.Errorf("%w: %v", entity.ErrPlacement, err)
	}
	if !ok {
		return false, fmt.Errorf("%w: host unavailable", entity.ErrPlacement)
	}
	return true, nil
}
