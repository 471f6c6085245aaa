package storage

import (
	"context"
	"sync"

	"retouch-bot/internal/domain/port"
)

// MemoryDocumentStore in-memory хранилище активных документов
type MemoryDocumentStore struct {
	mu        sync.RWMutex
	documents map[int64][]byte
}

// NewMemoryDocumentStore создаёт новое in-memory хранилище
func NewMemoryDocumentStore() *MemoryDocumentStore {
	return &MemoryDocumentStore{
		documents: make(map[int64][]byte),
	}
}

// Get возвращает документ чата или nil, если документа нет
func (s *MemoryDocumentStore) Get(ctx context.Context, chatID int64) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.documents[chatID]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), data...), nil
}

// Put сохраняет копию документа
func (s *MemoryDocumentStore) Put(ctx context.Context, chatID int64, data []byte) error {
	s.mu.Lock()
	s.documents[chatID] = append([]byte(nil), data...)
	s.mu.Unlock()

	return nil
}

// Delete удаляет документ чата
func (s *MemoryDocumentStore) Delete(ctx context.Context, chatID int64) error {
	s.mu.Lock()
	delete(s.documents, chatID)
	s.mu.Unlock()

	return nil
}

// Проверка реализации интерфейса
var _ port.DocumentStore = (*MemoryDocumentStore)(nil)
