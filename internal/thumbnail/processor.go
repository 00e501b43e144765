package thumbnail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"math"
	"sync/atomic"

	"github.com/HugoSmits86/nativewebp"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/semaphore"

	"thumbnail-service/internal/util"
)

var (
	ErrProcessorClosed = errors.New("thumbnail processor is closed")
	ErrEmptyImage      = errors.New("image payload is empty")
	ErrInvalidTarget   = errors.New("target dimensions must be positive")
)

// Transformer turns raw image bytes into an encoded thumbnail of exactly
// width x height pixels.
type Transformer interface {
	Transform(ctx context.Context, data []byte, width, height int, format Format) ([]byte, error)
}

type ProcessorConfig struct {
	// Concurrency caps simultaneous transforms. Must be at least 1.
	Concurrency int
	JPEGQuality int
}

// Processor decodes, centre-crops, scales and re-encodes images. It is
// acquired once at startup with NewProcessor and released with Close.
type Processor struct {
	cfg    ProcessorConfig
	slots  *semaphore.Weighted
	closed atomic.Bool
	logger *util.ServiceLogger
}

func NewProcessor(cfg ProcessorConfig, logger *util.ServiceLogger) (*Processor, error) {
	if cfg.Concurrency < 1 {
		return nil, fmt.Errorf("invalid processor concurrency %d", cfg.Concurrency)
	}
	if cfg.JPEGQuality < 1 || cfg.JPEGQuality > 100 {
		return nil, fmt.Errorf("invalid jpeg quality %d", cfg.JPEGQuality)
	}

	logger.LogEvent(util.LOG_LEVEL_INFO, "Thumbnail processor initialized. concurrency -", cfg.Concurrency, "jpeg quality -", cfg.JPEGQuality)

	return &Processor{
		cfg:    cfg,
		slots:  semaphore.NewWeighted(int64(cfg.Concurrency)),
		logger: logger,
	}, nil
}

// Close releases the processor. Transforms already running finish normally.
func (p *Processor) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	p.logger.LogEvent(util.LOG_LEVEL_INFO, "Thumbnail processor shut down")
	return nil
}

// Transform waits for a free slot (ctx bounds only that wait) and then runs to
// completion.
func (p *Processor) Transform(ctx context.Context, data []byte, width, height int, format Format) ([]byte, error) {
	if p.closed.Load() {
		return nil, ErrProcessorClosed
	}
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidTarget
	}

	if err := p.slots.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("waiting for processor slot: %w", err)
	}
	defer p.slots.Release(1)

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}
	if src.Bounds().Empty() {
		return nil, fmt.Errorf("failed to load image: %w", ErrEmptyImage)
	}

	thumb := fill(src, width, height)

	var buf bytes.Buffer
	switch format {
	case FormatJPEG:
		err = jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: p.cfg.JPEGQuality})
	case FormatWebP:
		err = nativewebp.Encode(&buf, thumb, nil)
	default:
		enc := png.Encoder{CompressionLevel: png.DefaultCompression}
		err = enc.Encode(&buf, thumb)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to save %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

// fill scales src to cover width x height and crops the overflow evenly from
// both sides.
func fill(src image.Image, width, height int) *image.RGBA {
	b := src.Bounds()
	sw, sh := b.Dx(), b.Dy()

	scale := math.Max(float64(width)/float64(sw), float64(height)/float64(sh))
	cropW := min(sw, max(1, int(math.Round(float64(width)/scale))))
	cropH := min(sh, max(1, int(math.Round(float64(height)/scale))))

	x0 := b.Min.X + (sw-cropW)/2
	y0 := b.Min.Y + (sh-cropH)/2
	srcRect := image.Rect(x0, y0, x0+cropW, y0+cropH)

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, srcRect, draw.Src, nil)
	return dst
}
