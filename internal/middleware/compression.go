package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzip"
)

// Compression gzips responses for clients that accept it.
func Compression() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !strings.Contains(c.GetHeader("Accept-Encoding"), "gzip") || c.Request.Method == "HEAD" {
			c.Next()
			return
		}

		gz, err := gzip.NewWriterLevel(c.Writer, gzip.DefaultCompression)
		if err != nil {
			c.Next()
			return
		}

		c.Header("Content-Encoding", "gzip")
		c.Header("Vary", "Accept-Encoding")
		gw := &gzipWriter{ResponseWriter: c.Writer, writer: gz}
		c.Writer = gw

		defer func() {
			// A body-less response must not carry a gzip footer
			if gw.written == 0 {
				gw.Header().Del("Content-Encoding")
				gz.Reset(nil)
				return
			}
			_ = gz.Close()
		}()

		c.Next()
	}
}

type gzipWriter struct {
	gin.ResponseWriter
	writer  *gzip.Writer
	written int
}

func (g *gzipWriter) WriteHeader(code int) {
	g.Header().Del("Content-Length")
	g.ResponseWriter.WriteHeader(code)
}

func (g *gzipWriter) Write(data []byte) (int, error) {
	g.Header().Del("Content-Length")
	n, err := g.writer.Write(data)
	g.written += n
	return n, err
}

func (g *gzipWriter) WriteString(s string) (int, error) {
	return g.Write([]byte(s))
}
