package host

import (
	"context"
	"fmt"

	"github.com/kbinani/screenshot"

	"retouch-bot/internal/infrastructure/imaging"
)

// ScreenCapturer активный документ: снимок экрана
type ScreenCapturer struct {
	Display   int
	processor *imaging.Processor
}

// NewScreenCapturer создаёт источник для дисплея display
func NewScreenCapturer(display int) *ScreenCapturer {
	return &ScreenCapturer{Display: display, processor: imaging.NewProcessor()}
}

// CaptureActiveDocument снимает дисплей в PNG. Если дисплеев нет, документа тоже нет.
func (s *ScreenCapturer) CaptureActiveDocument(ctx context.Context) ([]byte, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 || s.Display >= n {
		return nil, nil
	}

	img, err := screenshot.CaptureDisplay(s.Display)
	if err != nil {
		return nil, fmt.Errorf("failed to capture display %d: %w", s.Display, err)
	}
	return s.processor.EncodePNG(img)
}
