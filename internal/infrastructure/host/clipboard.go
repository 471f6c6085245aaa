package host

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.design/x/clipboard"

	"retouch-bot/internal/infrastructure/imaging"
)

// ClipboardPlacer кладёт результат в системный буфер обмена как картинку
type ClipboardPlacer struct {
	processor *imaging.Processor
	log       *zap.Logger
}

// NewClipboardPlacer инициализирует буфер обмена
func NewClipboardPlacer(log *zap.Logger) (*ClipboardPlacer, error) {
	if err := clipboard.Init(); err != nil {
		return nil, fmt.Errorf("clipboard init: %w", err)
	}
	return &ClipboardPlacer{processor: imaging.NewProcessor(), log: named(log)}, nil
}

// PlaceImage пишет PNG в буфер обмена
func (c *ClipboardPlacer) PlaceImage(ctx context.Context, data []byte, label string) (bool, error) {
	png, err := c.processor.ToPNG(data)
	if err != nil {
		return false, err
	}
	// Write возвращает канал, который закроется, когда буфер перезапишут
	clipboard.Write(clipboard.FmtImage, png)
	c.log.Info("layer copied to clipboard", zap.String("label", label), zap.Int("bytes", len(png)))
	return true, nil
}
