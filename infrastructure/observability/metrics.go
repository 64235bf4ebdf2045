package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsProvider owns the Prometheus instruments for the lucky draw service
type MetricsProvider struct {
	drawOperations       *prometheus.CounterVec
	drawDuration         *prometheus.HistogramVec
	stockRacesLost       *prometheus.CounterVec
	winnerConflicts      *prometheus.CounterVec
	notificationFailures *prometheus.CounterVec
	httpRequests         *prometheus.CounterVec
	httpDuration         *prometheus.HistogramVec
}

// NewMetricsProvider registers all instruments with reg.
// Pass prometheus.DefaultRegisterer in production and a fresh registry in tests.
func NewMetricsProvider(reg prometheus.Registerer) *MetricsProvider {
	factory := promauto.With(reg)

	return &MetricsProvider{
		drawOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: DrawOperationsTotal,
				Help: "Total lucky draw engine operations by operation and result",
			},
			[]string{LabelOperation, LabelResult},
		),
		drawDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    DrawOperationDuration,
				Help:    "Lucky draw engine operation duration in milliseconds",
				Buckets: prometheus.ExponentialBuckets(5, 2, 10),
			},
			[]string{LabelOperation, LabelResult},
		),
		stockRacesLost: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: StockRacesLostTotal,
				Help: "Draws that read stock but lost the final unit to a concurrent draw",
			},
			[]string{LabelPrizeID},
		),
		winnerConflicts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: WinnerConflictsTotal,
				Help: "Draw attempts rolled back because a concurrent draw awarded the same participant",
			},
			[]string{LabelOperation},
		),
		notificationFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: NotificationFailuresTotal,
				Help: "Outcome notifications that could not be delivered, by sink",
			},
			[]string{LabelSink},
		),
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: HTTPRequestsTotal,
				Help: "Total number of HTTP requests",
			},
			[]string{LabelPath, LabelMethod, LabelStatus},
		),
		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    HTTPRequestDuration,
				Help:    "HTTP request duration in milliseconds",
				Buckets: prometheus.ExponentialBuckets(5, 2, 10),
			},
			[]string{LabelPath, LabelMethod},
		),
	}
}

// ObserveOperation records one engine call
func (mp *MetricsProvider) ObserveOperation(operation, result string, duration time.Duration) {
	mp.drawOperations.WithLabelValues(operation, result).Inc()
	mp.drawDuration.WithLabelValues(operation, result).Observe(float64(duration.Milliseconds()))
}

// IncStockRaceLost counts a draw that lost the last unit
func (mp *MetricsProvider) IncStockRaceLost(prizeID string) {
	mp.stockRacesLost.WithLabelValues(prizeID).Inc()
}

// IncWinnerConflict counts a rolled back attempt
func (mp *MetricsProvider) IncWinnerConflict(operation string) {
	mp.winnerConflicts.WithLabelValues(operation).Inc()
}

// IncNotificationFailure counts a failed delivery to sink
func (mp *MetricsProvider) IncNotificationFailure(sink string) {
	mp.notificationFailures.WithLabelValues(sink).Inc()
}

// ObserveHTTPRequest records one served request. path should be the route template.
func (mp *MetricsProvider) ObserveHTTPRequest(path, method string, status int, duration time.Duration) {
	mp.httpRequests.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
	mp.httpDuration.WithLabelValues(path, method).Observe(float64(duration.Milliseconds()))
}
