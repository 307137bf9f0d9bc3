package metrics

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github/chapool/zksync-wallet/internal/provider"
)

const namespace = "zksync_wallet"

// Service collects node client and transfer pipeline metrics into its own
// registry.
type Service struct {
	registry *prometheus.Registry

	rpcCalls    *prometheus.CounterVec
	rpcDuration *prometheus.HistogramVec
	transfers   *prometheus.CounterVec
}

var _ provider.Observer = (*Service)(nil)

// New creates the collectors and registers them together with the Go
// runtime and process collectors.
func New() (*Service, error) {
	s := &Service{
		registry: prometheus.NewRegistry(),
		rpcCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "calls_total",
			Help:      "Number of zkSync node calls by method and outcome",
		}, []string{"method", "outcome"}),
		rpcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "call_duration_seconds",
			Help:      "Latency of zkSync node calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		transfers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transfers_total",
			Help:      "Number of transfers handled by stage and outcome",
		}, []string{"stage", "outcome"}),
	}

	for _, c := range []prometheus.Collector{
		s.rpcCalls,
		s.rpcDuration,
		s.transfers,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := s.registry.Register(c); err != nil {
			return nil, errors.Wrap(err, "failed to register collector")
		}
	}

	return s, nil
}

// Registry is what the /metrics endpoint gathers from.
func (s *Service) Registry() *prometheus.Registry {
	return s.registry
}

func (s *Service) ObserveCall(method string, outcome string, d time.Duration) {
	s.rpcCalls.WithLabelValues(method, outcome).Inc()
	s.rpcDuration.WithLabelValues(method).Observe(d.Seconds())
}

// ObserveTransfer counts a transfer that finished stage ("prepare" or
// "submit") with err. Failures that never reached the node are counted as
// "local_error".
func (s *Service) ObserveTransfer(stage string, err error) {
	outcome := provider.Outcome(err)
	if err != nil && !isProviderError(err) {
		outcome = OutcomeLocal
	}
	s.transfers.WithLabelValues(stage, outcome).Inc()
}

const OutcomeLocal = "local_error"

func isProviderError(err error) bool {
	var (
		remoteErr    *provider.RemoteError
		protocolErr  *provider.ProtocolError
		transportErr *provider.TransportError
	)
	return errors.As(err, &remoteErr) || errors.As(err, &protocolErr) || errors.As(err, &transportErr)
}
