package container

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"retouch-bot/config"
	app "retouch-bot/internal/application"
	"retouch-bot/internal/domain/port"
	"retouch-bot/internal/infrastructure/backend"
	"retouch-bot/internal/infrastructure/host"
	"retouch-bot/internal/infrastructure/imaging"
	"retouch-bot/internal/infrastructure/storage"
	"retouch-bot/internal/infrastructure/vision"
)

type Container struct {
	Backend    *backend.Client
	Documents  port.DocumentStore
	Processor  *imaging.Processor
	Previewer  *vision.MaskHighlighter
	SessionTTL time.Duration // простой чата до вытеснения, как срок жизни документа в redis

	dispatch app.DispatcherOptions
	retouch  app.RetouchDefaults
	closers  []io.Closer
	log      *zap.Logger
}

// New собирает инфраструктуру по конфигу. Для redis сразу проверяется соединение.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Container, error) {
	if log == nil {
		log = zap.NewNop()
	}

	client, err := backend.NewClient(cfg.Backend.URL, backend.Options{
		Prefix:  cfg.Backend.Prefix,
		Timeout: cfg.Backend.Timeout,
		Logger:  log,
	})
	if err != nil {
		return nil, fmt.Errorf("backend client: %w", err)
	}

	c := &Container{
		Backend:    client,
		Processor:  imaging.NewProcessor(),
		Previewer:  vision.NewMaskHighlighter(),
		SessionTTL: cfg.Redis.TTL,
		dispatch: app.DispatcherOptions{
			Timeout:         cfg.Backend.Timeout,
			MultimaskOutput: cfg.Segmentation.MultimaskOutput,
		},
		retouch: app.RetouchDefaults{
			Operation:     cfg.Retouch.Operation,
			Strength:      cfg.Retouch.Strength,
			GuidanceScale: cfg.Retouch.GuidanceScale,
			Steps:         cfg.Retouch.Steps,
			Timeout:       cfg.Backend.Timeout,
		},
		log: log,
	}
	c.dispatch.Normalizer = c.Processor

	switch cfg.Store.Driver {
	case "redis":
		store := storage.NewRedisDocumentStore(storage.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.TTL,
		})
		if err := store.Ping(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		c.Documents = store
		c.closers = append(c.closers, store)
	default:
		c.Documents = storage.NewMemoryDocumentStore()
	}

	log.Info("container ready",
		zap.String("backend", client.BaseURL()),
		zap.String("store", cfg.Store.Driver),
		zap.Duration("timeout", cfg.Backend.Timeout))
	return c, nil
}

// NewSession собирает сценарии маски и ретуши вокруг хоста одного чата
func (c *Container) NewSession(h host.Host, notifier port.Notifier) *app.Session {
	bridge := host.Available(h, c.log)
	return &app.Session{
		Mask:    app.NewMaskWorkflow(bridge, c.Backend, notifier, c.dispatch, c.log),
		Retouch: app.NewRetouchService(bridge, c.Backend, c.Processor, c.retouch, c.log),
	}
}

// Close освобождает соединения хранилища
func (c *Container) Close() error {
	for _, cl := range c.closers {
		if err := cl.Close(); err != nil {
			return err
		}
	}
	return nil
}
