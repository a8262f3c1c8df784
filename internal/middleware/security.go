package middleware

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// SecurityConfig lists the response headers applied to every route.
type SecurityConfig struct {
	HSTS           bool
	HSTSMaxAge     int
	FrameOptions   string
	ReferrerPolicy string
	Permissions    []string
	CSPDirectives  []string
}

// DefaultSecurityConfig suits a JSON API. HSTS is only sent when the session
// cookies are marked Secure.
func DefaultSecurityConfig(secure bool) SecurityConfig {
	return SecurityConfig{
		HSTS:           secure,
		HSTSMaxAge:     31536000,
		FrameOptions:   "DENY",
		ReferrerPolicy: "no-referrer",
		Permissions:    []string{"camera=()", "microphone=()", "geolocation=()"},
		CSPDirectives:  []string{"default-src 'none'", "frame-ancestors 'none'"},
	}
}

func (c SecurityConfig) headers() [][2]string {
	h := [][2]string{
		{"X-Content-Type-Options", "nosniff"},
		{"Cross-Origin-Opener-Policy", "same-origin"},
	}
	if c.HSTS {
		h = append(h, [2]string{"Strict-Transport-Security", "max-age=" + strconv.Itoa(c.HSTSMaxAge) + "; includeSubDomains"})
	}
	if c.FrameOptions != "" {
		h = append(h, [2]string{"X-Frame-Options", c.FrameOptions})
	}
	if c.ReferrerPolicy != "" {
		h = append(h, [2]string{"Referrer-Policy", c.ReferrerPolicy})
	}
	if len(c.Permissions) > 0 {
		h = append(h, [2]string{"Permissions-Policy", strings.Join(c.Permissions, ", ")})
	}
	if len(c.CSPDirectives) > 0 {
		h = append(h, [2]string{"Content-Security-Policy", strings.Join(c.CSPDirectives, "; ")})
	}
	return h
}

func SecurityHeaders(config SecurityConfig) gin.HandlerFunc {
	headers := config.headers()
	return func(c *gin.Context) {
		for _, h := range headers {
			c.Header(h[0], h[1])
		}
		c.Next()
	}
}
