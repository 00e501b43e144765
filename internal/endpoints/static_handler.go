package endpoints

import (
	"net/http"
	"path"

	"thumbnail-service/internal/web"
)

var staticContentTypes = map[string]string{
	".html": "text/html",
	".css":  "text/css",
	".js":   "application/javascript",
}

type Static struct{}

func (s *Static) GetStaticHandler(w http.ResponseWriter, r *http.Request) {
	p := r.URL.Path
	if p == "/" {
		p = "/index.html"
	}

	content, ok := web.Lookup(p)
	if !ok {
		WriteNotFound(w)
		return
	}

	if ct, ok := staticContentTypes[path.Ext(p)]; ok {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(http.StatusOK)
	w.Write(content)
}
