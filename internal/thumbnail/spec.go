package thumbnail

import (
	"net/url"
)

type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatWebP Format = "webp"
)

// ParseFormat falls back to PNG for anything it does not recognise.
func ParseFormat(s string) Format {
	switch Format(s) {
	case FormatJPEG:
		return FormatJPEG
	case FormatWebP:
		return FormatWebP
	default:
		return FormatPNG
	}
}

func (f Format) ContentType() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatWebP:
		return "image/webp"
	default:
		return "image/png"
	}
}

type Size string

const (
	SizeSmall  Size = "small"
	SizeMedium Size = "medium"
	SizeLarge  Size = "large"
)

var sizePixels = map[Size]int{
	SizeSmall:  64,
	SizeMedium: 128,
	SizeLarge:  256,
}

// ParseSize falls back to medium for anything it does not recognise.
func ParseSize(s string) Size {
	if _, ok := sizePixels[Size(s)]; ok {
		return Size(s)
	}
	return SizeMedium
}

func (s Size) Pixels() int {
	if px, ok := sizePixels[s]; ok {
		return px
	}
	return sizePixels[SizeMedium]
}

// Spec is the thumbnail requested by an upload's query string.
type Spec struct {
	Format Format
	Size   Size
}

func ParseSpec(query url.Values) Spec {
	return Spec{
		Format: ParseFormat(query.Get("format")),
		Size:   ParseSize(query.Get("size")),
	}
}

func (s Spec) Width() int {
	return s.Size.Pixels()
}

func (s Spec) Height() int {
	return s.Size.Pixels()
}
