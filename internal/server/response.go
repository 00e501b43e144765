package server

import (
	"bufio"
	"bytes"
	"io"
	"net/http"
)

// responseBuffer collects a handler's response so the session can write it in
// one piece and then close the connection.
type responseBuffer struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func newResponseBuffer() *responseBuffer {
	return &responseBuffer{header: make(http.Header)}
}

func (b *responseBuffer) Header() http.Header {
	return b.header
}

func (b *responseBuffer) WriteHeader(status int) {
	if b.status != 0 {
		return
	}
	b.status = status
}

func (b *responseBuffer) Write(p []byte) (int, error) {
	if b.status == 0 {
		b.status = http.StatusOK
	}
	return b.body.Write(p)
}

// writeTo serialises the response using the request's protocol version and
// marks the connection as closing.
func (b *responseBuffer) writeTo(w io.Writer, req *http.Request) error {
	status := b.status
	if status == 0 {
		status = http.StatusOK
	}

	resp := &http.Response{
		StatusCode:    status,
		ProtoMajor:    req.ProtoMajor,
		ProtoMinor:    req.ProtoMinor,
		Header:        b.header,
		ContentLength: int64(b.body.Len()),
		Close:         true,
		Request:       req,
	}
	if b.body.Len() > 0 {
		resp.Body = io.NopCloser(bytes.NewReader(b.body.Bytes()))
	}

	bw := bufio.NewWriter(w)
	if err := resp.Write(bw); err != nil {
		return err
	}
	return bw.Flush()
}
