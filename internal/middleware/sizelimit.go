package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sss135790/quick-clinic/pkg/httputil"
)

// SizeLimitConfig caps request bodies and headers. Paths under a SkipPrefix
// are left alone.
type SizeLimitConfig struct {
	MaxBodySize   int64
	MaxHeaderSize int
	SkipPrefixes  []string
}

// DefaultSizeLimitConfig fits JSON payloads; nothing in the API accepts uploads.
func DefaultSizeLimitConfig() SizeLimitConfig {
	return SizeLimitConfig{
		MaxBodySize:   64 << 10,
		MaxHeaderSize: 16 << 10,
		SkipPrefixes:  []string{"/health", "/metrics"},
	}
}

// SizeLimit rejects oversized requests up front and caps the body reader for
// requests without a Content-Length.
func SizeLimit(config SizeLimitConfig) gin.HandlerFunc {
	bodyMsg := "request body exceeds " + strconv.FormatInt(config.MaxBodySize, 10) + " bytes"
	headerMsg := "request headers exceed " + strconv.Itoa(config.MaxHeaderSize) + " bytes"

	return func(c *gin.Context) {
		for _, prefix := range config.SkipPrefixes {
			if strings.HasPrefix(c.Request.URL.Path, prefix) {
				c.Next()
				return
			}
		}

		if c.Request.ContentLength > config.MaxBodySize {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, httputil.NewErrorResponse(bodyMsg))
			return
		}
		if headerSize(c.Request.Header) > config.MaxHeaderSize {
			c.AbortWithStatusJSON(http.StatusRequestHeaderFieldsTooLarge, httputil.NewErrorResponse(headerMsg))
			return
		}

		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, config.MaxBodySize)
		}
		c.Next()
	}
}

func headerSize(h http.Header) int {
	n := 0
	for name, values := range h {
		for _, v := range values {
			n += len(name) + len(v)
		}
	}
	return n
}
