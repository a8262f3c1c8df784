package router

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/sss135790/quick-clinic/internal/handler"
	"github.com/sss135790/quick-clinic/internal/handler/health"
	"github.com/sss135790/quick-clinic/internal/handler/page"
	"github.com/sss135790/quick-clinic/internal/middleware"
	"github.com/sss135790/quick-clinic/pkg/auth"
)

type Router struct {
	engine  *gin.Engine
	tokens  *auth.TokenService
	access  middleware.AccessLogWriter
	health  *health.Handler
	pages   *page.Handler
	api     []handler.Registrar
	metrics *routerMetrics
	gather  prometheus.Gatherer
}

type routerMetrics struct {
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	errorTotal      *prometheus.CounterVec
}

type RouterConfig struct {
	Mode          string
	RateLimit     rate.Limit
	RateBurst     int
	CORSConfig    middleware.CORSConfig
	Security      middleware.SecurityConfig
	SizeLimit     middleware.SizeLimitConfig
	MetricsPrefix string
	Registry      *prometheus.Registry
}

func NewRouter(
	tokens *auth.TokenService,
	access middleware.AccessLogWriter,
	healthH *health.Handler,
	pages *page.Handler,
	api []handler.Registrar,
	config RouterConfig,
) *Router {
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	}
	engine := gin.New()

	r := &Router{
		engine:  engine,
		tokens:  tokens,
		access:  access,
		health:  healthH,
		pages:   pages,
		api:     api,
		metrics: initRouterMetrics(config.MetricsPrefix, config.Registry),
		gather:  config.Registry,
	}

	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(),
		middleware.Logger(),
		r.metricsMiddleware(),
		middleware.SecurityHeaders(config.Security),
		middleware.CORS(config.CORSConfig),
		middleware.SizeLimit(config.SizeLimit),
	)

	limiter := middleware.NewRateLimiter(config.RateLimit, config.RateBurst, 10*time.Minute)
	engine.Use(limiter.RateLimit(middleware.ClientIPKey))

	return r
}

func (r *Router) Setup() {
	r.health.RegisterRoutes(r.engine)
	r.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(r.gather, promhttp.HandlerOpts{})))

	r.pages.RegisterRoutes(r.engine)

	api := r.engine.Group("/api")
	private := api.Group("",
		middleware.AccessLog(r.access),
		middleware.Authenticate(r.tokens),
		middleware.Cache(middleware.NoStoreConfig()),
	)
	for _, h := range r.api {
		h.RegisterRoutes(api, private)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func initRouterMetrics(prefix string, reg prometheus.Registerer) *routerMetrics {
	m := &routerMetrics{
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		requestTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		errorTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_errors_total",
				Help: "Total number of HTTP errors",
			},
			[]string{"method", "path", "class"},
		),
	}
	reg.MustRegister(m.requestDuration, m.requestTotal, m.errorTotal)
	return m
}

func (r *Router) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		// unmatched routes share one label to keep cardinality bounded
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		code := c.Writer.Status()
		status := strconv.Itoa(code)
		duration := time.Since(start).Seconds()

		r.metrics.requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
		r.metrics.requestTotal.WithLabelValues(c.Request.Method, path, status).Inc()

		switch {
		case code >= 500:
			r.metrics.errorTotal.WithLabelValues(c.Request.Method, path, "server").Inc()
		case code >= 400:
			r.metrics.errorTotal.WithLabelValues(c.Request.Method, path, "client").Inc()
		}
	}
}
