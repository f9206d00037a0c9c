// Package metrics exposes Prometheus instrumentation for the HTTP layer and recipe lifecycle.
package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "recipeapp"

// Metrics holds the collectors registered for one process.
type Metrics struct {
	registry *prometheus.Registry

	RequestDuration *prometheus.HistogramVec
	RequestTotal    *prometheus.CounterVec

	RecipesCreated prometheus.Counter
	RecipesDeleted prometheus.Counter
	ImagesStored   prometheus.Counter
	ImagesDeleted  prometheus.Counter
	Logins         *prometheus.CounterVec
}

// New creates and registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		RequestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		RecipesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recipes_created_total",
			Help:      "Recipes successfully created.",
		}),
		RecipesDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recipes_deleted_total",
			Help:      "Recipes deleted, including bulk resets.",
		}),
		ImagesStored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "images_stored_total",
			Help:      "Uploaded images written to the image store.",
		}),
		ImagesDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "images_deleted_total",
			Help:      "Images removed from the image store.",
		}),
		Logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RequestDuration,
		m.RequestTotal,
		m.RecipesCreated,
		m.RecipesDeleted,
		m.ImagesStored,
		m.ImagesDeleted,
		m.Logins,
	)
	return m
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Middleware records request count and latency labelled by the matched route template,
// which keeps label cardinality bounded for paths such as /recipes/:id/delete.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			labels := []string{c.Request().Method, route, strconv.Itoa(status)}
			m.RequestTotal.WithLabelValues(labels...).Inc()
			m.RequestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// Handler serves the metrics page.
func (m *Metrics) Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true}))
}

// Nil-safe recorders used by services.

func (m *Metrics) RecipeCreated() {
	if m != nil {
		m.RecipesCreated.Inc()
	}
}

func (m *Metrics) RecipeDeleted(n int) {
	if m != nil && n > 0 {
		m.RecipesDeleted.Add(float64(n))
	}
}

func (m *Metrics) ImageStored() {
	if m != nil {
		m.ImagesStored.Inc()
	}
}

func (m *Metrics) ImageDeleted() {
	if m != nil {
		m.ImagesDeleted.Inc()
	}
}

func (m *Metrics) Login(ok bool) {
	if m == nil {
		return
	}
	result := "failure"
	if ok {
		result = "success"
	}
	m.Logins.WithLabelValues(result).Inc()
}
