// Package multipart pulls a single file payload out of a multipart/form-data
// body.
//
// The parser is deliberately narrow. It supports exactly one file part, does
// not look at per-part headers (filename and part content type are ignored)
// and treats the first boundary occurrence as the part of interest. Bodies
// with several parts yield the first part's payload.
package multipart

import (
	"bytes"
	"errors"
	"strings"
)

var (
	ErrMissingBoundary         = errors.New("content type has no boundary parameter")
	ErrEmptyBoundary           = errors.New("boundary is empty")
	ErrMissingBoundaryMarker   = errors.New("body does not contain the boundary marker")
	ErrMissingHeaderTerminator = errors.New("part headers are not terminated by a blank line")
	ErrMissingClosingBoundary  = errors.New("payload is not followed by a boundary marker")
)

var headerTerminator = []byte("\r\n\r\n")

const boundaryParam = "boundary="

// BoundaryFromContentType returns the boundary token of a multipart content
// type. The value runs to the next ';' and may be quoted.
func BoundaryFromContentType(contentType string) (string, error) {
	idx := indexFoldASCII(contentType, boundaryParam)
	if idx < 0 {
		return "", ErrMissingBoundary
	}
	value := contentType[idx+len(boundaryParam):]
	if end := strings.IndexByte(value, ';'); end >= 0 {
		value = value[:end]
	}
	value = strings.TrimSpace(value)
	value = strings.Trim(value, `"`)
	if value == "" {
		return "", ErrEmptyBoundary
	}
	return value, nil
}

// indexFoldASCII is strings.Index with ASCII case folding. It never rewrites
// s, so the returned offset is valid for slicing s whatever bytes it holds.
// needle must be lower-case ASCII.
func indexFoldASCII(s, needle string) int {
	for i := 0; i+len(needle) <= len(s); i++ {
		match := true
		for j := 0; j < len(needle); j++ {
			c := s[i+j]
			if 'A' <= c && c <= 'Z' {
				c += 'a' - 'A'
			}
			if c != needle[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

// Extract returns the bytes between the first part's header terminator and
// the next boundary marker, with trailing CR and LF bytes removed. The
// returned slice aliases body.
func Extract(body []byte, boundary string) ([]byte, error) {
	if boundary == "" {
		return nil, ErrEmptyBoundary
	}
	marker := []byte("--" + boundary)

	start := bytes.Index(body, marker)
	if start < 0 {
		return nil, ErrMissingBoundaryMarker
	}

	headersEnd := bytes.Index(body[start:], headerTerminator)
	if headersEnd < 0 {
		return nil, ErrMissingHeaderTerminator
	}
	payloadStart := start + headersEnd + len(headerTerminator)

	closing := bytes.Index(body[payloadStart:], marker)
	if closing < 0 {
		return nil, ErrMissingClosingBoundary
	}
	payloadEnd := payloadStart + closing

	for payloadEnd > payloadStart && (body[payloadEnd-1] == '\n' || body[payloadEnd-1] == '\r') {
		payloadEnd--
	}
	return body[payloadStart:payloadEnd], nil
}
