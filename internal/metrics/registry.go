package metrics

import (
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/gorilla/mux"
)

const (
	minLatencyMicros = 1
	maxLatencyMicros = int64(time.Minute / time.Microsecond)
	sigFigs          = 3
)

type RouteStats struct {
	Route     string  `json:"route"`
	Count     int64   `json:"count"`
	Errors    uint64  `json:"errors"`
	MeanMicro float64 `json:"meanMicros"`
	P50Micro  int64   `json:"p50Micros"`
	P95Micro  int64   `json:"p95Micros"`
	P99Micro  int64   `json:"p99Micros"`
	MaxMicro  int64   `json:"maxMicros"`
}

type Snapshot struct {
	Requests uint64       `json:"requests"`
	Errors   uint64       `json:"errors"`
	Routes   []RouteStats `json:"routes"`
}

type routeMetrics struct {
	latency *hdrhistogram.Histogram
	errors  Counter
}

// Registry aggregates request counts and per-route latency distributions.
type Registry struct {
	requests Counter
	errors   Counter

	mu     sync.Mutex
	routes map[string]*routeMetrics
}

func NewRegistry() *Registry {
	return &Registry{routes: make(map[string]*routeMetrics)}
}

// Observe records one finished request. Responses with status >= 500 count as errors.
func (r *Registry) Observe(route string, status int, d time.Duration) {
	r.requests.Inc()

	micros := d.Microseconds()
	if micros < minLatencyMicros {
		micros = minLatencyMicros
	}
	if micros > maxLatencyMicros {
		micros = maxLatencyMicros
	}

	r.mu.Lock()
	m, ok := r.routes[route]
	if !ok {
		m = &routeMetrics{latency: hdrhistogram.New(minLatencyMicros, maxLatencyMicros, sigFigs)}
		r.routes[route] = m
	}
	_ = m.latency.RecordValue(micros)
	r.mu.Unlock()

	if status >= http.StatusInternalServerError {
		r.errors.Inc()
		m.errors.Inc()
	}
}

func (r *Registry) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	routes := make([]RouteStats, 0, len(r.routes))
	for name, m := range r.routes {
		routes = append(routes, RouteStats{
			Route:     name,
			Count:     m.latency.TotalCount(),
			Errors:    m.errors.Load(),
			MeanMicro: m.latency.Mean(),
			P50Micro:  m.latency.ValueAtQuantile(50),
			P95Micro:  m.latency.ValueAtQuantile(95),
			P99Micro:  m.latency.ValueAtQuantile(99),
			MaxMicro:  m.latency.Max(),
		})
	}
	sort.Slice(routes, func(i, j int) bool { return routes[i].Route < routes[j].Route })

	return Snapshot{
		Requests: r.requests.Load(),
		Errors:   r.errors.Load(),
		Routes:   routes,
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Middleware times every request under its mux path template, so
// /api/product/{id} is one series regardless of the id.
func (r *Registry) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		timer := StartTimer()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, req)

		r.Observe(routeName(req), rec.status, timer.Duration())
	})
}

func routeName(req *http.Request) string {
	if route := mux.CurrentRoute(req); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return req.Method + " " + tpl
		}
	}
	return req.Method + " unmatched"
}
