package thumbnail

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"thumbnail-service/internal/telemetry"
)

// CachedTransformer memoises thumbnails of identical uploads. Entries are
// keyed by a digest of the input bytes and the requested output, and the
// stored bytes are returned as is.
type CachedTransformer struct {
	next    Transformer
	cache   *lru.Cache[uint64, []byte]
	metrics *telemetry.Metrics
}

func NewCachedTransformer(next Transformer, entries int, metrics *telemetry.Metrics) (*CachedTransformer, error) {
	c, err := lru.New[uint64, []byte](entries)
	if err != nil {
		return nil, fmt.Errorf("thumbnail cache: %w", err)
	}
	return &CachedTransformer{next: next, cache: c, metrics: metrics}, nil
}

func (c *CachedTransformer) Transform(ctx context.Context, data []byte, width, height int, format Format) ([]byte, error) {
	key := cacheKey(data, width, height, format)

	if out, ok := c.cache.Get(key); ok {
		c.metrics.CacheLookups.WithLabelValues("hit").Inc()
		return out, nil
	}
	c.metrics.CacheLookups.WithLabelValues("miss").Inc()

	out, err := c.next.Transform(ctx, data, width, height, format)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, out)
	return out, nil
}

func cacheKey(data []byte, width, height int, format Format) uint64 {
	d := xxhash.New()
	d.Write(data)

	var dims [16]byte
	binary.LittleEndian.PutUint64(dims[:8], uint64(width))
	binary.LittleEndian.PutUint64(dims[8:], uint64(height))
	d.Write(dims[:])
	d.WriteString(string(format))
	return d.Sum64()
}
