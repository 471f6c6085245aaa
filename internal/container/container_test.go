package container

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"retouch-bot/config"
	"retouch-bot/internal/domain/entity"
	"retouch-bot/internal/infrastructure/storage"
)

type nopHost struct{}

func (nopHost) CaptureActiveDocument(context.Context) ([]byte, error) { return nil, nil }

func (nopHost) PlaceImage(context.Context, []byte, string) (bool, error) { return true, nil }

func testConfig() *config.Config {
	return &config.Config{
		Backend:      config.BackendConfig{URL: "http://localhost:8000", Prefix: "/api/v1", Timeout: time.Minute},
		Segmentation: config.SegmentationConfig{MultimaskOutput: true},
		Retouch:      config.RetouchConfig{Operation: "img2img", Strength: 0.7, GuidanceScale: 7.5, Steps: 30},
		Store:        config.StoreConfig{Driver: "memory"},
	}
}

func TestNew_MemoryStore(t *testing.T) {
	c, err := New(context.Background(), testConfig(), nil)
	require.NoError(t, err)
	require.IsType(t, &storage.MemoryDocumentStore{}, c.Documents)
	require.Equal(t, "http://localhost:8000/api/v1", c.Backend.BaseURL())
	require.NoError(t, c.Close())
}

func TestNew_BadBackendURL(t *testing.T) {
	cfg := testConfig()
	cfg.Backend.URL = "ftp://nowhere"

	_, err := New(context.Background(), cfg, nil)
	require.Error(t, err)
}

func TestNewSession_NoDocument(t *testing.T) {
	c, err := New(context.Background(), testConfig(), nil)
	require.NoError(t, err)

	sess := c.NewSession(nopHost{}, nil)
	require.NoError(t, sess.Mask.Collector().Add(context.Background(), entity.AnnotationPoint{X: 1, Y: 1, Label: entity.LabelForeground}))

	_, err = sess.Mask.CreateMask(context.Background())
	require.ErrorIs(t, err, entity.ErrSourceUnavailable)
	require.Equal(t, 1, sess.Mask.Collector().Size())
}
