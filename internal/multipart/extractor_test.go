package multipart

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBoundary = "----WebKitFormBoundary7MA4YWxkTrZu0gW"

func buildBody(payload string, eol string) []byte {
	return []byte("--" + testBoundary + "\r\n" +
		"Content-Disposition: form-data; name=\"file\"; filename=\"a.png\"\r\n" +
		"Content-Type: image/png\r\n\r\n" +
		payload + eol +
		"--" + testBoundary + "--" + eol)
}

func TestExtract(t *testing.T) {
	payload := "\x89PNG\r\n\x1a\n\x00\x00binary"

	// case 1: CRLF framing
	got, err := Extract(buildBody(payload, "\r\n"), testBoundary)
	require.NoError(t, err)
	assert.Equal(t, []byte(payload), got)

	// case 2: LF framing
	got, err = Extract(buildBody(payload, "\n"), testBoundary)
	require.NoError(t, err)
	assert.Equal(t, []byte(payload), got)

	// case 3: no trailing line break before the closing marker
	got, err = Extract(buildBody(payload, ""), testBoundary)
	require.NoError(t, err)
	assert.Equal(t, []byte(payload), got)

	// case 4: empty payload
	got, err = Extract(buildBody("", "\r\n"), testBoundary)
	require.NoError(t, err)
	assert.Empty(t, got)

	// case 5: preamble before the first marker is skipped
	body := append([]byte("preamble text\r\n"), buildBody("abc", "\r\n")...)
	got, err = Extract(body, testBoundary)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got)

	// case 6: only the first part is returned
	body = []byte("--" + testBoundary + "\r\n\r\nfirst\r\n--" + testBoundary + "\r\n\r\nsecond\r\n--" + testBoundary + "--\r\n")
	got, err = Extract(body, testBoundary)
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), got)
}

func TestExtract_PayloadTrailingNewlinesAreTrimmed(t *testing.T) {
	body := buildBody("data\r\n\n\r", "\r\n")
	got, err := Extract(body, testBoundary)
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), got)
}

func TestExtract_Failures(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{
			name:    "missing_boundary_marker",
			body:    "Content-Disposition: form-data\r\n\r\nabc\r\n",
			wantErr: ErrMissingBoundaryMarker,
		},
		{
			name:    "missing_header_terminator",
			body:    "--" + testBoundary + "\r\nContent-Disposition: form-data\nabc\n--" + testBoundary + "--",
			wantErr: ErrMissingHeaderTerminator,
		},
		{
			name:    "missing_closing_boundary",
			body:    "--" + testBoundary + "\r\nContent-Type: image/png\r\n\r\nabc\r\n",
			wantErr: ErrMissingClosingBoundary,
		},
		{
			name:    "empty_body",
			body:    "",
			wantErr: ErrMissingBoundaryMarker,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Extract([]byte(tt.body), testBoundary)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, got)
		})
	}

	_, err := Extract([]byte("--\r\n\r\nabc--"), "")
	assert.ErrorIs(t, err, ErrEmptyBoundary)
}

func TestBoundaryFromContentType(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		want        string
		wantErr     error
	}{
		{"plain", "multipart/form-data; boundary=abc123", "abc123", nil},
		{"quoted", `multipart/form-data; boundary="abc 123"`, "abc 123", nil},
		{"trailing_param", "multipart/form-data; boundary=abc; charset=utf-8", "abc", nil},
		{"upper_case_param", "multipart/form-data; BOUNDARY=xyz", "xyz", nil},
		{"non_ascii_param", "multipart/form-data; name=İ; boundary=abc123", "abc123", nil},
		{"invalid_utf8_param", "multipart/form-data; name=" + strings.Repeat("\xff", 11) + "; boundary=x", "x", nil},
		{"invalid_utf8_no_boundary", "multipart/form-data; name=" + strings.Repeat("\xff", 11), "", ErrMissingBoundary},
		{"missing", "multipart/form-data", "", ErrMissingBoundary},
		{"empty", "multipart/form-data; boundary=", "", ErrEmptyBoundary},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BoundaryFromContentType(tt.contentType)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
