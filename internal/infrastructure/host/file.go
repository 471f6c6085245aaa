package host

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode"

	"go.uber.org/zap"

	"retouch-bot/internal/domain/entity"
	"retouch-bot/internal/infrastructure/imaging"
)

// Previewer строит превью маски поверх документа
type Previewer interface {
	Highlight(document, mask []byte) ([]byte, error)
}

// FileHost документ: файл на диске, слои пишутся в каталог
type FileHost struct {
	DocumentPath string
	OutDir       string
	Format       string // png или webp
	Quality      int

	processor *imaging.Processor
	previewer Previewer
	log       *zap.Logger

	mu  sync.Mutex
	seq int
}

// NewFileHost создаёт файловый хост. previewer может быть nil.
func NewFileHost(documentPath, outDir, format string, previewer Previewer, log *zap.Logger) *FileHost {
	if format == "" {
		format = "png"
	}
	return &FileHost{
		DocumentPath: documentPath,
		OutDir:       outDir,
		Format:       strings.ToLower(format),
		Quality:      90,
		processor:    imaging.NewProcessor(),
		previewer:    previewer,
		log:          named(log),
	}
}

// CaptureActiveDocument читает документ и перекодирует его в PNG.
// Отсутствующий файл означает «нет документа», а не ошибку.
func (h *FileHost) CaptureActiveDocument(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(h.DocumentPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read document: %w", err)
	}
	return h.processor.ToPNG(data)
}

// PlaceImage пишет слой в OutDir, для масок ещё и картинку с подсветкой
func (h *FileHost) PlaceImage(ctx context.Context, data []byte, label string) (bool, error) {
	if err := os.MkdirAll(h.OutDir, 0o755); err != nil {
		return false, fmt.Errorf("create output dir: %w", err)
	}

	h.mu.Lock()
	h.seq++
	seq := h.seq
	h.mu.Unlock()

	base := fmt.Sprintf("%03d_%s", seq, sanitizeLabel(label))
	layerPath := filepath.Join(h.OutDir, base+"."+h.Format)
	if err := h.processor.SaveImage(data, layerPath, h.Format, h.Quality); err != nil {
		return false, fmt.Errorf("save layer: %w", err)
	}
	h.log.Info("layer placed", zap.String("label", label), zap.String("path", layerPath))

	if h.previewer != nil && entity.IsMaskLabel(label) {
		h.writePreview(ctx, data, filepath.Join(h.OutDir, base+"_preview.png"))
	}
	return true, nil
}

// writePreview ошибки превью не влияют на результат вставки
func (h *FileHost) writePreview(ctx context.Context, layer []byte, path string) {
	doc, err := h.CaptureActiveDocument(ctx)
	if err != nil || doc == nil {
		return
	}
	preview, err := h.previewer.Highlight(doc, layer)
	if err != nil {
		h.log.Warn("preview failed", zap.Error(err))
		return
	}
	if err := os.WriteFile(path, preview, 0o644); err != nil {
		h.log.Warn("preview write failed", zap.Error(err))
	}
}

// sanitizeLabel превращает имя слоя в безопасное имя файла
func sanitizeLabel(label string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(label) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}
	out := strings.TrimSuffix(b.String(), "_")
	if out == "" {
		return "layer"
	}
	return out
}

var _ Host = (*FileHost)(nil)
