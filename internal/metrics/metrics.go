package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Cache lookup outcomes.
const (
	ResultHit  = "hit"
	ResultMiss = "miss"
	ResultWait = "wait"
)

// Fetch stages reported on errors.
const (
	StageQuery    = "query"
	StageDownload = "download"
	StageParse    = "parse"
	StageCache    = "cache"
)

// Resolver groups the counters the command resolver reports.
type Resolver struct {
	NodeLookups       *prometheus.CounterVec
	AttachmentLookups *prometheus.CounterVec
	FetchErrors       *prometheus.CounterVec
}

// NewResolver creates the counters and registers them on reg. A nil reg
// leaves them unregistered, which is what tests and embedded uses want.
func NewResolver(reg prometheus.Registerer) (*Resolver, error) {
	m := &Resolver{
		NodeLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "formfields",
			Name:      "node_cache_total",
			Help:      "Command node cache lookups by result (hit, miss, wait).",
		}, []string{"result"}),
		AttachmentLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "formfields",
			Name:      "attachment_cache_total",
			Help:      "Attachment cache lookups by result (hit, miss).",
		}, []string{"result"}),
		FetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "formfields",
			Name:      "fetch_errors_total",
			Help:      "Failed node fetches by stage.",
		}, []string{"stage"}),
	}
	if reg == nil {
		return m, nil
	}
	for _, vec := range []**prometheus.CounterVec{&m.NodeLookups, &m.AttachmentLookups, &m.FetchErrors} {
		registered, err := register(reg, *vec)
		if err != nil {
			return nil, err
		}
		*vec = registered
	}
	return m, nil
}

// register reuses a collector already registered under the same name so
// several resolvers can share one registry.
func register(reg prometheus.Registerer, vec *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	err := reg.Register(vec)
	if err == nil {
		return vec, nil
	}
	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		if existing, ok := already.ExistingCollector.(*prometheus.CounterVec); ok {
			return existing, nil
		}
	}
	return nil, err
}

// Node records a node cache lookup.
func (m *Resolver) Node(result string) {
	if m == nil {
		return
	}
	m.NodeLookups.WithLabelValues(result).Inc()
}

// Attachment records an attachment cache lookup.
func (m *Resolver) Attachment(result string) {
	if m == nil {
		return
	}
	m.AttachmentLookups.WithLabelValues(result).Inc()
}

// Error records a failed fetch stage.
func (m *Resolver) Error(stage string) {
	if m == nil {
		return
	}
	m.FetchErrors.WithLabelValues(stage).Inc()
}
