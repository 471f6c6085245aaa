package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// Processor декодирует документы и кодирует слои
type Processor struct{}

// NewProcessor создаёт процессор изображений
func NewProcessor() *Processor {
	return &Processor{}
}

// Decode читает PNG/JPEG/WebP с учётом EXIF-ориентации
func (p *Processor) Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, errors.New("empty image data")
	}
	if img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true)); err == nil {
		return img, nil
	}
	// chai2010/webp понимает расширенные WebP, которые не читает x/image
	if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	return nil, errors.New("image: unknown or unsupported format")
}

// ToPNG перекодирует документ в PNG. PNG возвращается без изменений.
func (p *Processor) ToPNG(data []byte) ([]byte, error) {
	if isPNG(data) {
		return data, nil
	}
	img, err := p.Decode(data)
	if err != nil {
		return nil, err
	}
	return p.EncodePNG(img)
}

// EncodePNG кодирует изображение в PNG
func (p *Processor) EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Encode кодирует изображение в png, jpg или webp
func (p *Processor) Encode(img image.Image, format string, quality int, lossless bool) ([]byte, error) {
	var buf bytes.Buffer
	switch strings.ToLower(format) {
	case "webp":
		opts := &webp.Options{Lossless: lossless, Quality: float32(quality)}
		if err := webp.Encode(&buf, img, opts); err != nil {
			return nil, fmt.Errorf("encode webp: %w", err)
		}
	case "jpg", "jpeg":
		if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
	default:
		return p.EncodePNG(img)
	}
	return buf.Bytes(), nil
}

// SaveImage сохраняет байты изображения в файл в нужном формате
func (p *Processor) SaveImage(data []byte, path, format string, quality int) error {
	out := data
	if !strings.EqualFold(format, "png") || !isPNG(data) {
		img, err := p.Decode(data)
		if err != nil {
			return err
		}
		if out, err = p.Encode(img, format, quality, false); err != nil {
			return err
		}
	}
	return os.WriteFile(path, out, 0o644)
}

// TintMask накладывает полупрозрачную заливку на области маски.
// Маска растягивается до размеров документа.
func (p *Processor) TintMask(doc, mask image.Image, tint color.NRGBA) image.Image {
	b := doc.Bounds()
	base := imaging.Clone(doc)
	m := imaging.Resize(imaging.Grayscale(mask), b.Dx(), b.Dy(), imaging.NearestNeighbor)

	alpha := float64(tint.A) / 255
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			if m.Pix[y*m.Stride+x*4] < 128 {
				continue
			}
			i := y*base.Stride + x*4
			base.Pix[i+0] = blend(base.Pix[i+0], tint.R, alpha)
			base.Pix[i+1] = blend(base.Pix[i+1], tint.G, alpha)
			base.Pix[i+2] = blend(base.Pix[i+2], tint.B, alpha)
		}
	}
	return base
}

func blend(dst, src uint8, alpha float64) uint8 {
	return uint8(float64(dst)*(1-alpha) + float64(src)*alpha + 0.5)
}

func isPNG(data []byte) bool {
	return bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n"))
}
