package server

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// negotiateEncoding picks br, zstd or gzip from an Accept-Encoding header, in
// that order of preference. It returns "" when neither is acceptable.
func negotiateEncoding(header string) string {
	accepted := map[string]bool{}
	for _, part := range strings.Split(header, ",") {
		name, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		name = strings.ToLower(strings.TrimSpace(name))
		if v, ok := strings.CutPrefix(strings.TrimSpace(params), "q="); ok {
			if q, err := strconv.ParseFloat(v, 64); err == nil && q == 0 {
				continue
			}
		}
		accepted[name] = true
	}

	switch {
	case accepted["br"]:
		return "br"
	case accepted["zstd"]:
		return "zstd"
	case accepted["gzip"], accepted["*"]:
		return "gzip"
	default:
		return ""
	}
}

type compressWriter struct {
	http.ResponseWriter
	w io.Writer
}

func (c *compressWriter) Write(p []byte) (int, error) {
	return c.w.Write(p)
}

// compress encodes response bodies with the negotiated encoding.
func compress(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Accept-Encoding")

		var enc io.WriteCloser
		switch negotiateEncoding(r.Header.Get("Accept-Encoding")) {
		case "br":
			enc = brotli.NewWriter(w)
			w.Header().Set("Content-Encoding", "br")
		case "zstd":
			zw, err := zstd.NewWriter(w)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			enc = zw
			w.Header().Set("Content-Encoding", "zstd")
		case "gzip":
			enc = gzip.NewWriter(w)
			w.Header().Set("Content-Encoding", "gzip")
		default:
			next.ServeHTTP(w, r)
			return
		}
		defer enc.Close()

		w.Header().Del("Content-Length")
		next.ServeHTTP(&compressWriter{ResponseWriter: w, w: enc}, r)
	})
}
