package metrics

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "http_server_requests_seconds",
	Help:    "Duration of HTTP requests by normalized route.",
	Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
}, []string{"method", "route", "status_code"})

var (
	uuidSegment    = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
	hexSegment     = regexp.MustCompile(`^0x[0-9a-fA-F]+$`)
	hash64Segment  = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)
	addr40Segment  = regexp.MustCompile(`^[0-9a-fA-F]{40}$`)
	decimalSegment = regexp.MustCompile(`^[0-9]+$`)
)

// allowedRoutes caps the route label domain; every served route template
// post-normalization. Anything else records as "unknown".
var allowedRoutes = map[string]struct{}{
	"/evm/blocks/health":     {},
	"/evm/blocks/:id/latest": {},
	"/evm/blocks/:id/:id":    {},
	"/health/liveness":       {},
	"/health/readiness":      {},
	"/metrics":               {},
}

// NormalizeRoute rewrites variable path segments to placeholders so route
// label cardinality stays bounded. Most specific first: UUID, 0x-prefixed
// hex, 64-hex, 40-hex, decimal.
func NormalizeRoute(path string) string {
	segments := strings.Split(path, "/")
	for i, segment := range segments {
		switch {
		case segment == "":
		case uuidSegment.MatchString(segment):
			segments[i] = ":id"
		case hexSegment.MatchString(segment):
			switch len(segment) {
			case 2 + 64:
				segments[i] = ":hash"
			case 2 + 40:
				segments[i] = ":address"
			}
		case hash64Segment.MatchString(segment):
			segments[i] = ":hash"
		case addr40Segment.MatchString(segment):
			segments[i] = ":address"
		case decimalSegment.MatchString(segment):
			segments[i] = ":id"
		}
	}
	return strings.Join(segments, "/")
}

// HTTPServer tracks request metrics for the public HTTP surface.
type HTTPServer struct{}

// NewHTTPServer constructs an HTTPServer metrics collector.
func NewHTTPServer() *HTTPServer {
	return &HTTPServer{}
}

// Observe records one served request. The raw path is normalized and capped
// to the allow-list before it becomes a label value.
func (m HTTPServer) Observe(method, path string, statusCode int, started time.Time) {
	route := NormalizeRoute(path)
	if _, ok := allowedRoutes[route]; !ok {
		route = "unknown"
	}
	httpRequestDuration.WithLabelValues(method, route, strconv.Itoa(statusCode)).
		Observe(time.Since(started).Seconds())
}
