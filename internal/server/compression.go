// compression.go - gzip middleware for JSON responses.
package server

import (
	"net/http"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// compressionResponseWriter sends the body through a gzip writer.
type compressionResponseWriter struct {
	http.ResponseWriter
	gz          *gzip.Writer
	wroteHeader bool
}

// WriteHeader drops any Content-Length set by the handler, since it
// describes the uncompressed body.
func (crw *compressionResponseWriter) WriteHeader(code int) {
	if !crw.wroteHeader {
		crw.wroteHeader = true
		crw.Header().Del("Content-Length")
	}
	crw.ResponseWriter.WriteHeader(code)
}

func (crw *compressionResponseWriter) Write(b []byte) (int, error) {
	if !crw.wroteHeader {
		crw.WriteHeader(http.StatusOK)
	}
	return crw.gz.Write(b)
}

// CompressionMiddleware gzips responses for clients that accept it. It is
// mounted only on the JSON routes; uploads and static assets pass through.
func CompressionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Accept-Encoding")

		if !acceptsCompression(r) || r.Method == http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}

		gz := gzip.NewWriter(w)
		defer gz.Close()

		w.Header().Set("Content-Encoding", "gzip")

		next.ServeHTTP(&compressionResponseWriter{ResponseWriter: w, gz: gz}, r)
	})
}

// acceptsCompression checks if the client accepts gzip encoding.
func acceptsCompression(r *http.Request) bool {
	for _, enc := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		name, params, _ := strings.Cut(strings.TrimSpace(enc), ";")
		if strings.EqualFold(strings.TrimSpace(name), "gzip") && strings.ReplaceAll(params, " ", "") != "q=0" {
			return true
		}
	}
	return false
}
