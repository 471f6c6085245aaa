package port

import "context"

// DocumentCapturer источник активного документа хоста
type DocumentCapturer interface {
	// CaptureActiveDocument возвращает байты изображения активного документа.
	// Возвращает (nil, nil), если документа нет или хост недоступен.
	CaptureActiveDocument(ctx context.Context) ([]byte, error)
}
