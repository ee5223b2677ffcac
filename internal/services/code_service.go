package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"time"

	"codescan/internal/barcode"
	"codescan/internal/export"
	"codescan/internal/metrics"
	"codescan/internal/models"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"
)

// RenderRequest describes one image to render. Zero sizes use the generator defaults.
type RenderRequest struct {
	Content string
	Format  models.CodeFormat
	Width   int
	Height  int
}

func (r RenderRequest) key() string {
	return fmt.Sprintf("%s|%d|%d|%s", r.Format, r.Width, r.Height, r.Content)
}

// CodeService renders codes and keeps recently rendered PNGs in an LRU cache with TTL
type CodeService struct {
	generator *barcode.Generator
	target    export.Target
	cache     *expirable.LRU[string, []byte]
	log       zerolog.Logger
	now       func() time.Time
}

func NewCodeService(generator *barcode.Generator, target export.Target, cacheSize int, cacheTTL time.Duration, log zerolog.Logger) *CodeService {
	return &CodeService{
		generator: generator,
		target:    target,
		cache:     expirable.NewLRU[string, []byte](cacheSize, nil, cacheTTL),
		log:       log,
		now:       time.Now,
	}
}

// GenerateTwoDimensional renders a QR code
func (s *CodeService) GenerateTwoDimensional(content string, opts ...barcode.Option) (*image.Paletted, error) {
	img, err := s.generator.GenerateTwoDimensional(content, opts...)
	metrics.CodesGenerated.WithLabelValues(string(models.FormatQRCode), metrics.Outcome(err)).Inc()
	return img, err
}

// GenerateLinear renders a barcode, Code 128 when format is empty
func (s *CodeService) GenerateLinear(content string, format models.CodeFormat, opts ...barcode.Option) (*image.Paletted, error) {
	img, err := s.generator.GenerateLinear(content, format, opts...)
	if format == "" {
		format = models.FormatCode128
	}
	metrics.CodesGenerated.WithLabelValues(string(format), metrics.Outcome(err)).Inc()
	return img, err
}

// Generate re-creates the image of any format
func (s *CodeService) Generate(content string, format models.CodeFormat, opts ...barcode.Option) (*image.Paletted, error) {
	img, err := s.generator.Generate(content, format, opts...)
	metrics.CodesGenerated.WithLabelValues(string(format), metrics.Outcome(err)).Inc()
	return img, err
}

func (s *CodeService) Render(req RenderRequest) (*image.Paletted, error) {
	return s.Generate(req.Content, req.Format, barcode.WithSize(req.Width, req.Height))
}

// RenderPNG returns the PNG encoding of the requested image, served from cache when possible
func (s *CodeService) RenderPNG(req RenderRequest) ([]byte, error) {
	key := req.key()
	if data, ok := s.cache.Get(key); ok {
		metrics.ImageCacheHits.Inc()
		return data, nil
	}
	metrics.ImageCacheMisses.Inc()

	img, err := s.Render(req)
	if err != nil {
		return nil, err
	}
	data, err := EncodePNG(img)
	if err != nil {
		return nil, err
	}
	s.cache.Add(key, data)
	return data, nil
}

// RecordImage renders the PNG of a history record at default size
func (s *CodeService) RecordImage(record models.CodeRecord) ([]byte, error) {
	return s.RenderPNG(RenderRequest{Content: record.Content, Format: record.Format})
}

// Export renders the code and stores it as code_<unix-millis>.png on the export target
func (s *CodeService) Export(ctx context.Context, req RenderRequest) (string, error) {
	if s.target == nil {
		return "", fmt.Errorf("export: no target configured")
	}
	data, err := s.RenderPNG(req)
	if err != nil {
		return "", err
	}
	location, err := s.target.Put(ctx, export.FileName(s.now()), data)
	if err != nil {
		return "", err
	}
	s.log.Info().Str("location", location).Str("format", string(req.Format)).Msg("code exported")
	return location, nil
}

// DataURL returns img as a base64 PNG data URL
func DataURL(img image.Image) (string, error) {
	data, err := EncodePNG(img)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data), nil
}

// EncodePNG encodes a rendered code
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
