package port

import (
	"context"

	"retouch-bot/internal/domain/entity"
)

// Retoucher бэкенд генеративной ретуши
type Retoucher interface {
	Retouch(ctx context.Context, req *entity.RetouchRequest) (*entity.RetouchResult, error)
	Capabilities(ctx context.Context) (*entity.Capabilities, error)
}

// LUTApplier бэкенд цветовых LUT
type LUTApplier interface {
	ListLUTs(ctx context.Context) ([]string, error)
	ApplyLUT(ctx context.Context, image []byte, name string, intensity float64) ([]byte, error)
}

// HealthChecker проверка доступности бэкенда
type HealthChecker interface {
	Health(ctx context.Context) (*entity.BackendHealth, error)
}
