package backend

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"retouch-bot/internal/domain/entity"
	"retouch-bot/internal/infrastructure/backend/mockserver"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: uint8(x), B: uint8(y), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newMockBackend(t *testing.T) (*Client, *mockserver.Server) {
	t.Helper()
	mock := mockserver.New(nil)
	srv := httptest.NewServer(mock.Router())
	t.Cleanup(srv.Close)

	client, err := NewClient(srv.URL, Options{HTTPClient: srv.Client()})
	require.NoError(t, err)
	return client, mock
}

func twoPoints() entity.AnnotationSet {
	return entity.NewAnnotationSet(
		entity.AnnotationPoint{X: 10, Y: 20, Label: entity.LabelForeground},
		entity.AnnotationPoint{X: 5, Y: 5, Label: entity.LabelBackground},
	)
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient("ftp://example.com", Options{})
	require.Error(t, err)

	c, err := NewClient("", Options{})
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8000/api/v1", c.BaseURL())

	c, err = NewClient("http://backend:9000/", Options{Prefix: "/v2/"})
	require.NoError(t, err)
	require.Equal(t, "http://backend:9000/v2", c.BaseURL())
}

func TestSegmentFromPoints_WireForm(t *testing.T) {
	client, mock := newMockBackend(t)
	mock.SetScore(0.873)

	img := testPNG(t, 64, 48)
	res, err := client.SegmentFromPoints(context.Background(), &entity.MaskRequest{
		Image:           img,
		Points:          twoPoints(),
		MultimaskOutput: true,
	})
	require.NoError(t, err)
	require.InDelta(t, 0.873, res.Score, 1e-9)

	form := mock.LastSegment()
	require.NotNil(t, form)
	require.Equal(t, "document.png", form.Filename)
	require.Equal(t, "image/png", form.ContentType)
	require.Equal(t, img, form.Image)
	require.Equal(t, "[[10,20],[5,5]]", form.Points)
	require.Equal(t, "[1,0]", form.Labels)
	require.Equal(t, "true", form.MultimaskOutput)

	maskBytes, err := entity.DecodeMask(res.Mask)
	require.NoError(t, err)
	mask, err := png.Decode(bytes.NewReader(maskBytes))
	require.NoError(t, err)
	require.Equal(t, 64, mask.Bounds().Dx())
	require.Equal(t, 48, mask.Bounds().Dy())
}

func TestSegmentFromPoints_BackendError(t *testing.T) {
	client, mock := newMockBackend(t)
	mock.FailWith(http.StatusInternalServerError, "model unavailable")

	_, err := client.SegmentFromPoints(context.Background(), &entity.MaskRequest{
		Image:  testPNG(t, 8, 8),
		Points: twoPoints(),
	})
	require.Error(t, err)

	var be *entity.BackendError
	require.True(t, errors.As(err, &be))
	require.Equal(t, http.StatusInternalServerError, be.StatusCode)
	require.Equal(t, "model unavailable", be.Body)
	require.Contains(t, err.Error(), "model unavailable")
}

func TestSegmentFromPoints_Preconditions(t *testing.T) {
	client, mock := newMockBackend(t)

	_, err := client.SegmentFromPoints(context.Background(), &entity.MaskRequest{Image: testPNG(t, 8, 8)})
	require.ErrorIs(t, err, entity.ErrPrecondition)

	_, err = client.SegmentFromPoints(context.Background(), &entity.MaskRequest{Points: twoPoints()})
	require.ErrorIs(t, err, entity.ErrPrecondition)

	require.Zero(t, mock.SegmentCalls())
}

func TestSegmentFromPoints_MalformedResponse(t *testing.T) {
	bodies := []string{
		`not json at all`,
		`{"score": 0.5}`,
		`{"mask": 12, "score": 0.5}`,
		`{"mask": "", "score": 0.9}`,
		`{"mask": null, "score": 0.9}`,
	}
	for _, body := range bodies {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(body))
		}))

		client, err := NewClient(srv.URL, Options{HTTPClient: srv.Client()})
		require.NoError(t, err)

		_, err = client.SegmentFromPoints(context.Background(), &entity.MaskRequest{
			Image:  []byte("png"),
			Points: twoPoints(),
		})
		require.ErrorIs(t, err, entity.ErrMalformedResponse, "body %q", body)
		srv.Close()
	}
}

func TestRetouch(t *testing.T) {
	client, _ := newMockBackend(t)

	seed := int64(42)
	res, err := client.Retouch(context.Background(), &entity.RetouchRequest{
		Prompt:        "warm sunset light",
		Operation:     "img2img",
		Image:         testPNG(t, 16, 16),
		Strength:      0.7,
		GuidanceScale: 7.5,
		Steps:         30,
		Seed:          &seed,
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.ImageBase64)
	require.Equal(t, "warm sunset light", res.Meta["prompt"])

	_, err = client.Retouch(context.Background(), &entity.RetouchRequest{Prompt: "  "})
	require.ErrorIs(t, err, entity.ErrPrecondition)
}

func TestCapabilitiesAndHealth(t *testing.T) {
	client, _ := newMockBackend(t)
	ctx := context.Background()

	caps, err := client.Capabilities(ctx)
	require.NoError(t, err)
	require.True(t, caps.ModelsLoaded)
	require.Contains(t, caps.Capabilities, "img2img")

	health, err := client.Health(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", health.Status)
}

func TestLUTs(t *testing.T) {
	client, _ := newMockBackend(t)
	ctx := context.Background()

	names, err := client.ListLUTs(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"cinematic", "vibrant", "matte"}, names)

	out, err := client.ApplyLUT(ctx, testPNG(t, 12, 12), "vibrant", 0.5)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	require.Equal(t, 12, img.Bounds().Dx())

	_, err = client.ApplyLUT(ctx, nil, "vibrant", 1)
	require.ErrorIs(t, err, entity.ErrPrecondition)
}
