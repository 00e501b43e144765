package endpoints

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"
)

// RequestBody is a request body that has already been read off the
// connection. Handlers use Bytes to avoid copying large uploads again.
type RequestBody struct {
	*bytes.Reader
	data []byte
}

func NewRequestBody(data []byte) *RequestBody {
	return &RequestBody{Reader: bytes.NewReader(data), data: data}
}

func (b *RequestBody) Bytes() []byte {
	return b.data
}

func (b *RequestBody) Close() error {
	return nil
}

type receivedAtKey struct{}

// WithReceivedAt marks the moment the request finished arriving. Upload
// latency is measured from there.
func WithReceivedAt(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, receivedAtKey{}, t)
}

func receivedAt(r *http.Request) time.Time {
	if t, ok := r.Context().Value(receivedAtKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

func readBody(r *http.Request) ([]byte, error) {
	if b, ok := r.Body.(*RequestBody); ok {
		return b.Bytes(), nil
	}
	if r.Body == nil {
		return nil, nil
	}
	return io.ReadAll(r.Body)
}
