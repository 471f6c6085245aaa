package app

import (
	"context"
	"fmt"
	"sync"

	"retouch-bot/internal/domain/entity"
	"retouch-bot/internal/domain/port"
)

const (
	msgCollectStarted = "Режим SAM активен: добавляйте точки командой /point X Y [fg|bg]"
	msgPointsCleared  = "Точки очищены. Можно добавлять новые."
)

// PointCollector копит точки для одного запроса маски.
// Единственный владелец AnnotationSet; наружу отдаёт только копии.
type PointCollector struct {
	mu       sync.Mutex
	state    entity.CollectorState
	set      entity.AnnotationSet
	reserved bool
	notifier port.Notifier
}

// NewPointCollector создаёт сборщик в состоянии idle
func NewPointCollector(notifier port.Notifier) *PointCollector {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &PointCollector{
		state:    entity.StateIdle,
		notifier: notifier,
	}
}

// Start включает режим сбора. Повторный вызов только заново показывает статус.
func (c *PointCollector) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.reserved {
		c.mu.Unlock()
		return entity.ErrBusy
	}
	c.state = entity.StateCollecting
	points := c.set.Points()
	c.mu.Unlock()

	c.notifier.Notify(ctx, entity.Notice{Level: entity.NoticeInfo, Text: msgCollectStarted, Points: points})
	return nil
}

// AddPoint разбирает ввод пользователя и добавляет точку
func (c *PointCollector) AddPoint(ctx context.Context, x, y, label string) (entity.AnnotationPoint, error) {
	p, err := entity.ParseAnnotationPoint(x, y, label)
	if err != nil {
		c.notifier.Notify(ctx, entity.Notice{Level: entity.NoticeError, Text: "❌ " + err.Error(), Points: c.Snapshot().Points()})
		return entity.AnnotationPoint{}, err
	}
	if err := c.Add(ctx, p); err != nil {
		return entity.AnnotationPoint{}, err
	}
	return p, nil
}

// Add добавляет уже разобранную точку. В idle сбор включается автоматически.
func (c *PointCollector) Add(ctx context.Context, p entity.AnnotationPoint) error {
	c.mu.Lock()
	if c.reserved {
		c.mu.Unlock()
		return entity.ErrBusy
	}
	c.state = entity.StateCollecting
	c.set.Append(p)
	points := c.set.Points()
	c.mu.Unlock()

	c.notifier.Notify(ctx, entity.Notice{
		Level:  entity.NoticeInfo,
		Text:   fmt.Sprintf("Точка добавлена: %s", p),
		Points: points,
	})
	return nil
}

// Clear сбрасывает точки, режим сбора остаётся включённым
func (c *PointCollector) Clear(ctx context.Context) error {
	c.mu.Lock()
	if c.reserved {
		c.mu.Unlock()
		return entity.ErrBusy
	}
	c.mu.Unlock()

	c.reset(ctx)
	return nil
}

// Discard сбрасывает точки при смене документа. Пустой набор сбрасывается без уведомления.
// Пока запрос в полёте, возвращает ErrBusy и ничего не меняет.
func (c *PointCollector) Discard(ctx context.Context) error {
	c.mu.Lock()
	if c.reserved {
		c.mu.Unlock()
		return entity.ErrBusy
	}
	had := c.set.Len() > 0
	c.set.Reset()
	c.mu.Unlock()

	if had {
		c.notifier.Notify(ctx, entity.Notice{Level: entity.NoticeInfo, Text: msgPointsCleared})
	}
	return nil
}

// Busy выполняется ли сейчас запрос маски
func (c *PointCollector) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reserved
}

// Size количество точек
func (c *PointCollector) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.set.Len()
}

// HasPoints можно ли отправлять запрос маски
func (c *PointCollector) HasPoints() bool {
	return c.Size() > 0
}

// State текущее состояние сбора
func (c *PointCollector) State() entity.CollectorState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Snapshot копия текущего набора
func (c *PointCollector) Snapshot() entity.AnnotationSet {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.set.Clone()
}

// reserve блокирует изменения на время запроса и отдаёт снимок набора
func (c *PointCollector) reserve() (entity.AnnotationSet, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.reserved {
		return entity.AnnotationSet{}, entity.ErrBusy
	}
	c.reserved = true
	return c.set.Clone(), nil
}

func (c *PointCollector) release() {
	c.mu.Lock()
	c.reserved = false
	c.mu.Unlock()
}

// reset очищает набор в обход резерва, его вызывает ResultApplier
func (c *PointCollector) reset(ctx context.Context) {
	c.mu.Lock()
	c.set.Reset()
	if c.state == entity.StateIdle {
		c.state = entity.StateCollecting
	}
	c.mu.Unlock()

	c.notifier.Notify(ctx, entity.Notice{Level: entity.NoticeInfo, Text: msgPointsCleared})
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, entity.Notice) {}
