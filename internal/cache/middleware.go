package cache

import (
	"bytes"
	"net/http"
)

// KeyFunc строит ключ кэша для запроса.
type KeyFunc func(r *http.Request) string

// URIKey - ключ по URI запроса.
func URIKey(r *http.Request) string {
	return r.URL.RequestURI()
}

// Middleware кэширует успешные GET-ответы обработчика.
func Middleware(c Cache, key KeyFunc) func(http.Handler) http.Handler {
	if key == nil {
		key = URIKey
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}

			k := key(r)
			if body, ok := c.Get(k); ok {
				w.Header().Set("Content-Type", "text/html; charset=utf-8")
				w.Header().Set("X-Cache", "HIT")
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write(body)
				return
			}

			rec := &recorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			if rec.status == http.StatusOK {
				c.Set(k, rec.buf.Bytes())
			}
		})
	}
}

// recorder пишет ответ клиенту и параллельно копит тело.
type recorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
	buf         bytes.Buffer
}

func (r *recorder) WriteHeader(status int) {
	if r.wroteHeader {
		return
	}
	r.wroteHeader = true
	r.status = status
	if status == http.StatusOK {
		r.ResponseWriter.Header().Set("X-Cache", "MISS")
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *recorder) Write(p []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	if r.status == http.StatusOK {
		r.buf.Write(p)
	}
	return r.ResponseWriter.Write(p)
}
