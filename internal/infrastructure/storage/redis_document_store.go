package storage

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"retouch-bot/internal/domain/port"
)

// RedisDocumentStore хранит активные документы в Redis с TTL
type RedisDocumentStore struct {
	client *redis.Client
	ttl    time.Duration
}

// RedisOptions параметры подключения
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// NewRedisDocumentStore создаёт хранилище поверх Redis
func NewRedisDocumentStore(opts RedisOptions) *RedisDocumentStore {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	return &RedisDocumentStore{
		client: client,
		ttl:    opts.TTL,
	}
}

func documentKey(chatID int64) string {
	return "document:" + strconv.FormatInt(chatID, 10)
}

func (s *RedisDocumentStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Get возвращает документ чата, nil при промахе
func (s *RedisDocumentStore) Get(ctx context.Context, chatID int64) ([]byte, error) {
	data, err := s.client.Get(ctx, documentKey(chatID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

// Put сохраняет документ с TTL
func (s *RedisDocumentStore) Put(ctx context.Context, chatID int64, data []byte) error {
	return s.client.Set(ctx, documentKey(chatID), data, s.ttl).Err()
}

// Delete удаляет документ
func (s *RedisDocumentStore) Delete(ctx context.Context, chatID int64) error {
	return s.client.Del(ctx, documentKey(chatID)).Err()
}

func (s *RedisDocumentStore) Close() error {
	return s.client.Close()
}

var _ port.DocumentStore = (*RedisDocumentStore)(nil)
