// Package host связывает рабочий процесс масок с приложением, где открыт документ.
package host

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"retouch-bot/internal/domain/port"
)

// Host умеет отдавать активный документ и принимать слой
type Host interface {
	port.DocumentCapturer
	port.ImagePlacer
}

// Bridge доступность хоста, определённая один раз при старте.
// Либо Available с хостом, либо Unavailable с причиной.
type Bridge struct {
	host   Host
	reason string
	log    *zap.Logger
}

// Available оборачивает доступный хост
func Available(h Host, log *zap.Logger) *Bridge {
	return &Bridge{host: h, log: named(log)}
}

// Unavailable создаёт мост без хоста
func Unavailable(reason string, log *zap.Logger) *Bridge {
	return &Bridge{reason: reason, log: named(log)}
}

// Resolve вызывает probe ровно один раз и фиксирует результат
func Resolve(probe func() (Host, error), log *zap.Logger) *Bridge {
	h, err := probe()
	if err != nil {
		return Unavailable(err.Error(), log)
	}
	if h == nil {
		return Unavailable("host probe returned nothing", log)
	}
	return Available(h, log)
}

func named(log *zap.Logger) *zap.Logger {
	if log == nil {
		log = zap.NewNop()
	}
	return log.Named("host")
}

// IsAvailable сообщает, подключён ли хост
func (b *Bridge) IsAvailable() bool {
	return b.host != nil
}

// Reason причина недоступности
func (b *Bridge) Reason() string {
	return b.reason
}

// CaptureActiveDocument возвращает (nil, nil), если хост недоступен
func (b *Bridge) CaptureActiveDocument(ctx context.Context) ([]byte, error) {
	if b.host == nil {
		b.log.Warn("host not available; returning no image", zap.String("reason", b.reason))
		return nil, nil
	}
	return b.host.CaptureActiveDocument(ctx)
}

// PlaceImage возвращает false, если хост недоступен
func (b *Bridge) PlaceImage(ctx context.Context, data []byte, label string) (bool, error) {
	if b.host == nil {
		b.log.Warn("host not available; skipping place", zap.String("reason", b.reason))
		return false, nil
	}
	if len(data) == 0 {
		return false, nil
	}
	return b.host.PlaceImage(ctx, data, label)
}

// Compose собирает хост из отдельных источника и приёмника
func Compose(capturer port.DocumentCapturer, placer port.ImagePlacer) Host {
	return composed{capturer, placer}
}

type composed struct {
	port.DocumentCapturer
	port.ImagePlacer
}

// String для логов
func (b *Bridge) String() string {
	if b.host == nil {
		return fmt.Sprintf("unavailable (%s)", b.reason)
	}
	return fmt.Sprintf("available (%T)", b.host)
}

var _ Host = (*Bridge)(nil)
