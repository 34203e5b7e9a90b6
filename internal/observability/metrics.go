package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	httpDurationHistogram *prometheus.HistogramVec
	purchaseCounter       *prometheus.CounterVec
	provisioningCounter   *prometheus.CounterVec
	sweptCounter          prometheus.Counter
	dispatchCounter       *prometheus.CounterVec
	idempotencyCounter    *prometheus.CounterVec
	workerRunCounter      *prometheus.CounterVec
)

// Init registers all Prometheus collectors.
func Init() {
	registerOnce.Do(func() {
		httpDurationHistogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"})

		purchaseCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "purchase_attempts_total",
			Help: "Purchase orchestration outcomes by product",
		}, []string{"product", "outcome"})

		provisioningCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "virtual_account_provisioning_total",
			Help: "Virtual account issuance outcomes",
		}, []string{"outcome"})

		sweptCounter = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pending_transactions_swept_total",
			Help: "Pending transactions expired by the reconciliation sweep",
		})

		dispatchCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "communication_sends_total",
			Help: "Bulk communication send outcomes by channel",
		}, []string{"channel", "outcome"})

		idempotencyCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "idempotency_events_total",
			Help: "Idempotency middleware outcomes",
		}, []string{"outcome"})

		workerRunCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_runs_total",
			Help: "Background worker run outcomes",
		}, []string{"worker", "result"})

		prometheus.MustRegister(
			httpDurationHistogram,
			purchaseCounter,
			provisioningCounter,
			sweptCounter,
			dispatchCounter,
			idempotencyCounter,
			workerRunCounter,
		)
	})
}

func ObserveHTTP(method, path string, status int, duration time.Duration) {
	if httpDurationHistogram == nil {
		return
	}
	httpDurationHistogram.WithLabelValues(method, path, strconv.Itoa(status)).Observe(duration.Seconds())
}

func IncrementPurchase(product, outcome string) {
	if purchaseCounter == nil {
		return
	}
	purchaseCounter.WithLabelValues(product, outcome).Inc()
}

func IncrementProvisioning(outcome string) {
	if provisioningCounter == nil {
		return
	}
	provisioningCounter.WithLabelValues(outcome).Inc()
}

func AddSweptTransactions(count int) {
	if sweptCounter == nil {
		return
	}
	sweptCounter.Add(float64(count))
}

func IncrementDispatch(channel, outcome string) {
	if dispatchCounter == nil {
		return
	}
	dispatchCounter.WithLabelValues(channel, outcome).Inc()
}

func IncrementIdempotencyEvent(outcome string) {
	if idempotencyCounter == nil {
		return
	}
	idempotencyCounter.WithLabelValues(outcome).Inc()
}

func IncrementWorkerRun(worker, result string) {
	if workerRunCounter == nil {
		return
	}
	workerRunCounter.WithLabelValues(worker, result).Inc()
}
