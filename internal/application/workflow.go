package app

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"retouch-bot/internal/domain/entity"
	"retouch-bot/internal/domain/port"
)

// DocumentHost хост, из которого берётся документ и куда вставляется результат
type DocumentHost interface {
	port.DocumentCapturer
	port.ImagePlacer
}

// MaskWorkflow связывает сборщик точек, диспетчер и применитель для одного документа
type MaskWorkflow struct {
	collector  *PointCollector
	dispatcher *MaskDispatcher
	applier    *ResultApplier
	notifier   port.Notifier
	log        *zap.Logger
}

// NewMaskWorkflow собирает сценарий маски вокруг хоста и бэкенда
func NewMaskWorkflow(host DocumentHost, segmenter port.Segmenter, notifier port.Notifier, opts DispatcherOptions, log *zap.Logger) *MaskWorkflow {
	if log == nil {
		log = zap.NewNop()
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}
	collector := NewPointCollector(notifier)
	return &MaskWorkflow{
		collector:  collector,
		dispatcher: NewMaskDispatcher(host, segmenter, opts, log),
		applier:    NewResultApplier(host, collector, log),
		notifier:   notifier,
		log:        log.Named("workflow"),
	}
}

// Collector сборщик точек этого сценария
func (w *MaskWorkflow) Collector() *PointCollector {
	return w.collector
}

// CreateMask захват → запрос → декодирование → вставка → очистка.
// Пока запрос в полёте, второй вызов и изменения точек отклоняются с ErrBusy.
func (w *MaskWorkflow) CreateMask(ctx context.Context) (*ApplyOutcome, error) {
	set, err := w.collector.reserve()
	if err != nil {
		w.fail(ctx, err)
		return nil, err
	}
	defer w.collector.release()

	res, err := w.dispatcher.Dispatch(ctx, set)
	if err != nil {
		w.fail(ctx, err)
		return nil, err
	}

	out, err := w.applier.Apply(ctx, res, set.Len())
	if err != nil {
		w.fail(ctx, err)
		return nil, err
	}

	level := entity.NoticeSuccess
	if out.PlacementErr != nil {
		level = entity.NoticeWarning
	}
	w.notifier.Notify(ctx, entity.Notice{Level: level, Text: out.Status})
	return out, nil
}

func (w *MaskWorkflow) fail(ctx context.Context, err error) {
	w.notifier.Notify(ctx, entity.Notice{
		Level:  entity.NoticeError,
		Text:   "❌ " + UserMessage(err),
		Points: w.collector.Snapshot().Points(),
	})
}

// UserMessage короткий текст ошибки для пользователя
func UserMessage(err error) string {
	var backendErr *entity.BackendError
	switch {
	case errors.Is(err, entity.ErrBusy):
		return "Запрос уже выполняется, дождитесь ответа."
	case errors.Is(err, entity.ErrPrecondition), errors.Is(err, entity.ErrInvalidInput):
		return err.Error()
	case errors.Is(err, entity.ErrSourceUnavailable):
		return "Нет активного документа. Отправьте изображение."
	case errors.Is(err, entity.ErrMalformedResponse):
		return "Бэкенд вернул некорректный ответ."
	case errors.As(err, &backendErr):
		return backendErr.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return "Бэкенд не ответил вовремя."
	default:
		return err.Error()
	}
}
