package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// VoucherResolutionTotal counts voucher resolution outcomes by discount kind.
	VoucherResolutionTotal *prometheus.CounterVec
	// VoucherResolutionDuration records end-to-end resolution latency in milliseconds.
	VoucherResolutionDuration *prometheus.HistogramVec
	// NFTGatewayRequests counts outbound NFT gateway calls by operation and result.
	NFTGatewayRequests *prometheus.CounterVec
	// RateQuotesTotal counts exchange rate lookups by result.
	RateQuotesTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		VoucherResolutionTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "voucher_resolution_total",
			Help:      "Count of voucher resolution outcomes by discount kind.",
		}, []string{"kind", "result"})
		VoucherResolutionDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "voucher_resolution_duration_ms",
			Help:      "Voucher resolution latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		}, []string{"kind"})
		NFTGatewayRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nft_gateway_requests_total",
			Help:      "Count of outbound NFT gateway requests by operation and result.",
		}, []string{"operation", "result"})
		RateQuotesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_quotes_total",
			Help:      "Count of exchange rate lookups by result.",
		}, []string{"result"})

		mustRegisterCollector(reg, VoucherResolutionTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				VoucherResolutionTotal = v
			}
		})
		mustRegisterCollector(reg, VoucherResolutionDuration, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.HistogramVec); ok {
				VoucherResolutionDuration = v
			}
		})
		mustRegisterCollector(reg, NFTGatewayRequests, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				NFTGatewayRequests = v
			}
		})
		mustRegisterCollector(reg, RateQuotesTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				RateQuotesTotal = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
