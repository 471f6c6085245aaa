package port

import (
	"context"

	"retouch-bot/internal/domain/entity"
)

// Notifier показывает пользователю статус
type Notifier interface {
	Notify(ctx context.Context, notice entity.Notice)
}
