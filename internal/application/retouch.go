package app

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"retouch-bot/internal/domain/entity"
	"retouch-bot/internal/domain/port"
)

// RetouchDefaults параметры ретуши по умолчанию
type RetouchDefaults struct {
	Operation     string
	Strength      float64
	GuidanceScale float64
	Steps         int
	Timeout       time.Duration
}

// RetouchResultOutput результат ретуши или LUT после вставки
type RetouchResultOutput struct {
	Image        []byte
	Label        string
	Placed       bool
	PlacementErr error
	Status       string
}

// RetouchService генеративная ретушь и цветовые LUT для активного документа
type RetouchService struct {
	host       DocumentHost
	retoucher  port.Retoucher
	luts       port.LUTApplier
	health     port.HealthChecker
	normalizer DocumentNormalizer
	defaults   RetouchDefaults
	log        *zap.Logger
}

// NewRetouchService создаёт сервис ретуши. Бэкенд должен реализовывать все три порта.
func NewRetouchService(host DocumentHost, backend interface {
	port.Retoucher
	port.LUTApplier
	port.HealthChecker
}, normalizer DocumentNormalizer, defaults RetouchDefaults, log *zap.Logger) *RetouchService {
	if log == nil {
		log = zap.NewNop()
	}
	if defaults.Operation == "" {
		defaults.Operation = "img2img"
	}
	return &RetouchService{
		host:       host,
		retoucher:  backend,
		luts:       backend,
		health:     backend,
		normalizer: normalizer,
		defaults:   defaults,
		log:        log.Named("retouch"),
	}
}

// Retouch отправляет активный документ на ретушь по текстовому описанию
func (s *RetouchService) Retouch(ctx context.Context, prompt string) (*RetouchResultOutput, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, fmt.Errorf("%w: prompt is required", entity.ErrPrecondition)
	}

	img, err := captureDocument(ctx, s.host, s.normalizer)
	if err != nil {
		return nil, err
	}

	ctx, cancel := withDefaultTimeout(ctx, s.defaults.Timeout)
	defer cancel()

	res, err := s.retoucher.Retouch(ctx, &entity.RetouchRequest{
		Prompt:        prompt,
		Operation:     s.defaults.Operation,
		Image:         img,
		Strength:      s.defaults.Strength,
		GuidanceScale: s.defaults.GuidanceScale,
		Steps:         s.defaults.Steps,
	})
	if err != nil {
		s.log.Error("retouch failed", zap.Error(err))
		return nil, err
	}

	edited, err := base64.StdEncoding.DecodeString(res.ImageBase64)
	if err != nil || len(edited) == 0 {
		return nil, fmt.Errorf("%w: invalid image_base64", entity.ErrMalformedResponse)
	}

	out := s.place(ctx, edited, entity.RetouchLabel(prompt))
	out.Status = "✅ Ретушь применена."
	if out.PlacementErr != nil {
		out.Status += " ⚠️ Не удалось вставить результат в документ."
	}
	return out, nil
}

// ApplyLUT применяет LUT к активному документу, intensity в [0,1]
func (s *RetouchService) ApplyLUT(ctx context.Context, name string, intensity float64) (*RetouchResultOutput, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: lut name is required", entity.ErrInvalidInput)
	}
	if intensity < 0 || intensity > 1 {
		return nil, fmt.Errorf("%w: intensity must be within [0,1], got %v", entity.ErrInvalidInput, intensity)
	}

	img, err := captureDocument(ctx, s.host, s.normalizer)
	if err != nil {
		return nil, err
	}

	ctx, cancel := withDefaultTimeout(ctx, s.defaults.Timeout)
	defer cancel()

	graded, err := s.luts.ApplyLUT(ctx, img, name, intensity)
	if err != nil {
		s.log.Error("lut apply failed", zap.String("lut", name), zap.Error(err))
		return nil, err
	}
	if len(graded) == 0 {
		return nil, fmt.Errorf("%w: empty lut image", entity.ErrMalformedResponse)
	}

	out := s.place(ctx, graded, entity.LUTLabel(name))
	out.Status = fmt.Sprintf("✅ LUT %s применён.", name)
	if out.PlacementErr != nil {
		out.Status += " ⚠️ Не удалось вставить результат в документ."
	}
	return out, nil
}

// ListLUTs доступные на бэкенде LUT
func (s *RetouchService) ListLUTs(ctx context.Context) ([]string, error) {
	return s.luts.ListLUTs(ctx)
}

// Capabilities возможности ретуши на бэкенде
func (s *RetouchService) Capabilities(ctx context.Context) (*entity.Capabilities, error) {
	return s.retoucher.Capabilities(ctx)
}

// Health состояние бэкенда
func (s *RetouchService) Health(ctx context.Context) (*entity.BackendHealth, error) {
	return s.health.Health(ctx)
}

func (s *RetouchService) place(ctx context.Context, data []byte, label string) *RetouchResultOutput {
	out := &RetouchResultOutput{Image: data, Label: label}
	out.Placed, out.PlacementErr = place(ctx, s.host, data, label)
	if out.PlacementErr != nil {
		s.log.Warn("placement to host failed or unavailable", zap.String("label", label), zap.Error(out.PlacementErr))
	}
	return out
}
