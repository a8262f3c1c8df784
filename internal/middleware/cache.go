package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// CacheConfig describes the Cache-Control header for read requests.
type CacheConfig struct {
	MaxAge               int
	Private              bool
	NoStore              bool
	StaleWhileRevalidate int
	Vary                 []string
}

// PublicCacheConfig suits anonymous listings such as the doctor directory.
func PublicCacheConfig() CacheConfig {
	return CacheConfig{
		MaxAge:               30,
		StaleWhileRevalidate: 30,
		Vary:                 []string{"Accept"},
	}
}

// NoStoreConfig is used for every authenticated route. Responses there carry
// patient data and must never reach a shared cache.
func NoStoreConfig() CacheConfig {
	return CacheConfig{
		Private: true,
		NoStore: true,
		Vary:    []string{"Authorization", "Cookie"},
	}
}

func (c CacheConfig) directive() string {
	directives := []string{"public"}
	if c.Private {
		directives[0] = "private"
	}
	if c.NoStore {
		return strings.Join(append(directives, "no-store"), ", ")
	}
	if c.MaxAge > 0 {
		directives = append(directives, "max-age="+strconv.Itoa(c.MaxAge))
	}
	if c.StaleWhileRevalidate > 0 {
		directives = append(directives, "stale-while-revalidate="+strconv.Itoa(c.StaleWhileRevalidate))
	}
	return strings.Join(directives, ", ")
}

// Cache sets Cache-Control on GET and HEAD. Anything else is never cacheable.
func Cache(config CacheConfig) gin.HandlerFunc {
	value := config.directive()
	vary := strings.Join(config.Vary, ", ")

	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead:
			c.Header("Cache-Control", value)
			if vary != "" {
				c.Writer.Header().Add("Vary", vary)
			}
		default:
			c.Header("Cache-Control", "no-store")
		}
		c.Next()
	}
}
