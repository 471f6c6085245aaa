package telegram

import (
	"context"
	"fmt"

	app "retouch-bot/internal/application"
	"retouch-bot/internal/domain/port"
)

// replaceDocument делает изображение активным документом чата.
// Точки прошлого документа сбрасываются до замены; пока идёт запрос маски,
// документ не меняется и возвращается ErrBusy.
func replaceDocument(ctx context.Context, store port.DocumentStore, collector *app.PointCollector, chatID int64, png []byte) error {
	if err := collector.Discard(ctx); err != nil {
		return err
	}
	if err := store.Put(ctx, chatID, png); err != nil {
		return fmt.Errorf("store document: %w", err)
	}
	return nil
}
