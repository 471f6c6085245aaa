package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"retouch-bot/internal/domain/entity"
	"retouch-bot/internal/domain/port"
)

const (
	DefaultURL    = "http://localhost:8000"
	DefaultPrefix = "/api/v1"

	documentFilename = "document.png"
	maskFilename     = "mask.png"
)

// Options настройки HTTP-клиента бэкенда
type Options struct {
	Prefix     string        // префикс API, по умолчанию /api/v1
	Timeout    time.Duration // таймаут http.Client, 0 отключает таймаут
	HTTPClient *http.Client  // готовый клиент, например из httptest
	Logger     *zap.Logger
}

// Client клиент REST API бэкенда ретуши и сегментации
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

// NewClient создаёт клиента для serverURL
func NewClient(serverURL string, opts Options) (*Client, error) {
	if serverURL == "" {
		serverURL = DefaultURL
	}
	parsed, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid backend URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("unsupported backend URL scheme: %q", parsed.Scheme)
	}

	prefix := opts.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Client{
		baseURL:    strings.TrimSuffix(serverURL, "/") + "/" + strings.Trim(prefix, "/"),
		httpClient: httpClient,
		log:        log.Named("backend"),
	}, nil
}

// BaseURL возвращает адрес API с префиксом
func (c *Client) BaseURL() string {
	return c.baseURL
}

type segmentResponse struct {
	Mask  *string  `json:"mask"`
	Score *float64 `json:"score"`
}

// SegmentFromPoints отправляет документ и точки в /segmentation/segment-from-points
func (c *Client) SegmentFromPoints(ctx context.Context, req *entity.MaskRequest) (*entity.MaskResult, error) {
	if req == nil || len(req.Image) == 0 {
		return nil, fmt.Errorf("%w: image is required", entity.ErrPrecondition)
	}
	if req.Points.Len() == 0 {
		return nil, fmt.Errorf("%w: at least one point is required", entity.ErrPrecondition)
	}

	points, labels, err := req.Points.MarshalWire()
	if err != nil {
		return nil, err
	}

	form := newForm()
	form.file("image", documentFilename, req.Image)
	form.field("points", points)
	form.field("labels", labels)
	form.field("multimask_output", strconv.FormatBool(req.MultimaskOutput))
	body, contentType, err := form.close()
	if err != nil {
		return nil, err
	}

	c.log.Debug("segment from points",
		zap.Int("points", req.Points.Len()),
		zap.Int("image_bytes", len(req.Image)))

	respBody, err := c.sendRequest(ctx, http.MethodPost, "/segmentation/segment-from-points", body, contentType)
	if err != nil {
		return nil, err
	}

	var resp segmentResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrMalformedResponse, err)
	}
	if resp.Mask == nil || strings.TrimSpace(*resp.Mask) == "" {
		return nil, fmt.Errorf("%w: response has no mask", entity.ErrMalformedResponse)
	}

	result := &entity.MaskResult{Mask: *resp.Mask}
	if resp.Score != nil {
		result.Score = *resp.Score
	} else {
		c.log.Warn("segmentation response has no score")
	}
	return result, nil
}

// Retouch отправляет документ на /retouch/process
func (c *Client) Retouch(ctx context.Context, req *entity.RetouchRequest) (*entity.RetouchResult, error) {
	if req == nil || strings.TrimSpace(req.Prompt) == "" {
		return nil, fmt.Errorf("%w: prompt is required", entity.ErrPrecondition)
	}

	form := newForm()
	form.field("prompt", req.Prompt)
	if req.Operation != "" {
		form.field("operation", req.Operation)
	}
	if len(req.Image) > 0 {
		form.file("image", documentFilename, req.Image)
	}
	if len(req.Mask) > 0 {
		form.file("mask", maskFilename, req.Mask)
	}
	if req.Strength > 0 {
		form.field("strength", strconv.FormatFloat(req.Strength, 'f', -1, 64))
	}
	if req.GuidanceScale > 0 {
		form.field("guidance_scale", strconv.FormatFloat(req.GuidanceScale, 'f', -1, 64))
	}
	if req.Steps > 0 {
		form.field("steps", strconv.Itoa(req.Steps))
	}
	if req.Seed != nil {
		form.field("seed", strconv.FormatInt(*req.Seed, 10))
	}
	body, contentType, err := form.close()
	if err != nil {
		return nil, err
	}

	respBody, err := c.sendRequest(ctx, http.MethodPost, "/retouch/process", body, contentType)
	if err != nil {
		return nil, err
	}

	var result entity.RetouchResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrMalformedResponse, err)
	}
	if result.ImageBase64 == "" {
		return nil, fmt.Errorf("%w: response has no image_base64 field", entity.ErrMalformedResponse)
	}
	return &result, nil
}

// Capabilities запрашивает /retouch/capabilities
func (c *Client) Capabilities(ctx context.Context) (*entity.Capabilities, error) {
	var caps entity.Capabilities
	if err := c.getJSON(ctx, "/retouch/capabilities", &caps); err != nil {
		return nil, err
	}
	return &caps, nil
}

// Health запрашивает /health
func (c *Client) Health(ctx context.Context) (*entity.BackendHealth, error) {
	var health entity.BackendHealth
	if err := c.getJSON(ctx, "/health", &health); err != nil {
		return nil, err
	}
	return &health, nil
}

// ListLUTs возвращает имена доступных LUT
func (c *Client) ListLUTs(ctx context.Context) ([]string, error) {
	var resp struct {
		LUTs []string `json:"luts"`
	}
	if err := c.getJSON(ctx, "/luts/list", &resp); err != nil {
		return nil, err
	}
	return resp.LUTs, nil
}

// ApplyLUT применяет LUT к изображению, бэкенд отвечает PNG
func (c *Client) ApplyLUT(ctx context.Context, image []byte, name string, intensity float64) ([]byte, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("%w: image is required", entity.ErrPrecondition)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: LUT name is required", entity.ErrPrecondition)
	}

	form := newForm()
	form.file("image", documentFilename, image)
	form.field("lut_name", name)
	form.field("intensity", strconv.FormatFloat(intensity, 'f', -1, 64))
	body, contentType, err := form.close()
	if err != nil {
		return nil, err
	}

	out, err := c.sendRequest(ctx, http.MethodPost, "/luts/apply", body, contentType)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: empty LUT response", entity.ErrMalformedResponse)
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	body, err := c.sendRequest(ctx, http.MethodGet, endpoint, nil, "")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", entity.ErrMalformedResponse, err)
	}
	return nil
}

// sendRequest делает один запрос без повторов. Неуспешный статус превращается в BackendError.
func (c *Client) sendRequest(ctx context.Context, method, endpoint string, body io.Reader, contentType string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.log.Debug("backend response",
		zap.String("method", method),
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Duration("cost", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &entity.BackendError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}
	return respBody, nil
}

// form собирает multipart-тело, первая ошибка запоминается
type form struct {
	buf bytes.Buffer
	w   *multipart.Writer
	err error
}

func newForm() *form {
	f := &form{}
	f.w = multipart.NewWriter(&f.buf)
	return f
}

func (f *form) field(name, value string) {
	if f.err != nil {
		return
	}
	f.err = f.w.WriteField(name, value)
}

func (f *form) file(name, filename string, data []byte) {
	if f.err != nil {
		return
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, name, filename))
	h.Set("Content-Type", "image/png")
	part, err := f.w.CreatePart(h)
	if err != nil {
		f.err = err
		return
	}
	_, f.err = part.Write(data)
}

func (f *form) close() (io.Reader, string, error) {
	if f.err == nil {
		f.err = f.w.Close()
	}
	if f.err != nil {
		return nil, "", fmt.Errorf("failed to build form: %w", f.err)
	}
	return &f.buf, f.w.FormDataContentType(), nil
}

var (
	_ port.Segmenter     = (*Client)(nil)
	_ port.Retoucher     = (*Client)(nil)
	_ port.LUTApplier    = (*Client)(nil)
	_ port.HealthChecker = (*Client)(nil)
)
