package port

import "context"

// DocumentStore хранит активный документ каждого чата
type DocumentStore interface {
	// Get возвращает документ чата или nil, если его нет
	Get(ctx context.Context, chatID int64) ([]byte, error)

	// Put сохраняет документ как активный
	Put(ctx context.Context, chatID int64, data []byte) error

	// Delete забывает активный документ
	Delete(ctx context.Context, chatID int64) error
}
