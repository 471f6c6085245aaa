package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"retouch-bot/internal/domain/entity"
	"retouch-bot/internal/domain/port"
)

// DocumentNormalizer приводит документ хоста к PNG
type DocumentNormalizer interface {
	ToPNG(data []byte) ([]byte, error)
}

// DispatcherOptions настройки отправки запросов маски
type DispatcherOptions struct {
	Timeout         time.Duration // применяется, если у ctx нет дедлайна; 0 отключает таймаут
	MultimaskOutput bool
	Normalizer      DocumentNormalizer // при nil документ отправляется как есть
}

// MaskDispatcher отправляет ровно один запрос маски на набор точек
type MaskDispatcher struct {
	capturer  port.DocumentCapturer
	segmenter port.Segmenter
	opts      DispatcherOptions
	log       *zap.Logger
}

// NewMaskDispatcher создаёт диспетчер
func NewMaskDispatcher(capturer port.DocumentCapturer, segmenter port.Segmenter, opts DispatcherOptions, log *zap.Logger) *MaskDispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &MaskDispatcher{
		capturer:  capturer,
		segmenter: segmenter,
		opts:      opts,
		log:       log.Named("dispatcher"),
	}
}

// Dispatch снимает активный документ и отправляет его вместе с точками.
// Без точек сеть и хост не трогаются.
func (d *MaskDispatcher) Dispatch(ctx context.Context, points entity.AnnotationSet) (*entity.MaskResult, error) {
	if points.Len() == 0 {
		return nil, fmt.Errorf("%w: add at least one point first", entity.ErrPrecondition)
	}

	img, err := captureDocument(ctx, d.capturer, d.opts.Normalizer)
	if err != nil {
		return nil, err
	}

	return d.Send(ctx, &entity.MaskRequest{
		Image:           img,
		Points:          points,
		MultimaskOutput: d.opts.MultimaskOutput,
	})
}

// Send отправляет готовый запрос. Повторов нет.
func (d *MaskDispatcher) Send(ctx context.Context, req *entity.MaskRequest) (*entity.MaskResult, error) {
	if req == nil || len(req.Image) == 0 {
		return nil, fmt.Errorf("%w: no source image", entity.ErrPrecondition)
	}
	if req.Points.Len() == 0 {
		return nil, fmt.Errorf("%w: add at least one point first", entity.ErrPrecondition)
	}

	ctx, cancel := withDefaultTimeout(ctx, d.opts.Timeout)
	defer cancel()

	start := time.Now()
	res, err := d.segmenter.SegmentFromPoints(ctx, req)
	if err != nil {
		d.log.Error("mask request failed", zap.Int("points", req.Points.Len()), zap.Error(err))
		return nil, err
	}

	d.log.Info("mask received",
		zap.Int("points", req.Points.Len()),
		zap.Float64("score", res.Score),
		zap.Duration("cost", time.Since(start)))
	return res, nil
}

// captureDocument общий шаг захвата для масок, ретуши и LUT
func captureDocument(ctx context.Context, capturer port.DocumentCapturer, normalizer DocumentNormalizer) ([]byte, error) {
	img, err := capturer.CaptureActiveDocument(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrSourceUnavailable, err)
	}
	if img == nil {
		return nil, entity.ErrSourceUnavailable
	}
	if normalizer != nil {
		if img, err = normalizer.ToPNG(img); err != nil {
			return nil, fmt.Errorf("%w: %v", entity.ErrSourceUnavailable, err)
		}
	}
	return img, nil
}

func withDefaultTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline || timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}
