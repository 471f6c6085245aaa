package port

import "context"

// ImagePlacer вставляет изображение обратно в документ хоста
type ImagePlacer interface {
	// PlaceImage размещает изображение отдельным слоем с именем label.
	// false без ошибки означает, что хост недоступен.
	PlaceImage(ctx context.Context, data []byte, label string) (bool, error)
}
