// Package web holds the upload page served on the static path.
package web

import (
	"embed"
	"io/fs"
	"strings"
)

//go:embed static
var assets embed.FS

// Lookup returns the embedded file for a request path. "/" resolves to
// "/index.html".
func Lookup(path string) ([]byte, bool) {
	if path == "/" {
		path = "/index.html"
	}
	name := "static/" + strings.TrimPrefix(path, "/")
	if !fs.ValidPath(name) {
		return nil, false
	}
	data, err := assets.ReadFile(name)
	if err != nil {
		return nil, false
	}
	return data, true
}
