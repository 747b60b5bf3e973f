package mw

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

const cacheHeader = "X-Cache"

// snapshot is a response kept in the cache.
type snapshot struct {
	status int
	header http.Header
	body   []byte
}

func (s snapshot) replay(c *gin.Context) {
	dst := c.Writer.Header()
	for k, v := range s.header {
		dst[k] = v
	}
	dst.Set(cacheHeader, "HIT")
	c.Writer.WriteHeader(s.status)
	if c.Request.Method != http.MethodHead {
		c.Writer.Write(s.body)
	}
}

// teeWriter copies the body into buf while writing it to the client.
type teeWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *teeWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *teeWriter) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Cache serves repeated GET (and HEAD) requests for the same URI from store
// for ttl. Only 2xx responses are kept.
func Cache(store *cache.Cache, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		method := c.Request.Method
		if method != http.MethodGet && method != http.MethodHead {
			c.Next()
			return
		}

		key := c.Request.URL.RequestURI()
		if v, ok := store.Get(key); ok {
			v.(snapshot).replay(c)
			c.Abort()
			return
		}
		if method == http.MethodHead {
			c.Next()
			return
		}

		c.Writer.Header().Set(cacheHeader, "MISS")
		tw := &teeWriter{ResponseWriter: c.Writer}
		c.Writer = tw
		c.Next()

		if status := tw.Status(); status >= 200 && status < 300 {
			header := tw.Header().Clone()
			header.Del(cacheHeader)
			store.Set(key, snapshot{status: status, header: header, body: tw.buf.Bytes()}, ttl)
		}
	}
}

// Invalidate flushes store after every successful write request, so listings
// never outlive an edit.
func Invalidate(store *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			return
		}
		if status := c.Writer.Status(); status >= 200 && status < 300 {
			store.Flush()
		}
	}
}
