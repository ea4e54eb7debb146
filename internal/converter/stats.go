package converter

import (
	"sync/atomic"
	"time"
)

// Stats summarises the conversions a Converter has served.
type Stats struct {
	Total        int64   `json:"total_queries"`
	Failed       int64   `json:"errors"`
	FromModel    int64   `json:"model"`
	FromRules    int64   `json:"rules"`
	Fallbacks    int64   `json:"fallbacks"` // model configured, rules answered
	CacheHits    int64   `json:"cache_hits"`
	SuccessRate  float64 `json:"success_rate"`
	AvgLatencyMS float64 `json:"avg_latency_ms"`
}

type counters struct {
	total, failed     atomic.Int64
	model, rules      atomic.Int64
	fallbacks, cached atomic.Int64
	nanos             atomic.Int64
}

func (m *counters) record(res Result, err error, cached, hasModel bool, d time.Duration) {
	m.total.Add(1)
	m.nanos.Add(int64(d))
	switch {
	case err != nil:
		m.failed.Add(1)
		return
	case res.Source == KindModel:
		m.model.Add(1)
	default:
		m.rules.Add(1)
		if hasModel && !cached {
			m.fallbacks.Add(1)
		}
	}
	if cached {
		m.cached.Add(1)
	}
}

func (m *counters) snapshot() Stats {
	s := Stats{
		Total:     m.total.Load(),
		Failed:    m.failed.Load(),
		FromModel: m.model.Load(),
		FromRules: m.rules.Load(),
		Fallbacks: m.fallbacks.Load(),
		CacheHits: m.cached.Load(),
	}
	if s.Total > 0 {
		s.SuccessRate = float64(s.Total-s.Failed) / float64(s.Total)
		s.AvgLatencyMS = float64(m.nanos.Load()) / float64(s.Total) / float64(time.Millisecond)
	}
	return s
}
