package metrics

import "github.com/axiomrelay/gateway/internal/state"

// Outcome labels for the requestsTotal counter.
const (
	OutcomeSuccess     = "success"
	OutcomeFailure     = "failure"
	OutcomeRateLimited = "rate_limited"
)

// Recorder pushes routing outcomes into the Prometheus collectors above. It
// holds no state itself; every provider's running totals live in the
// collectors' own label series.
type Recorder struct{}

// NewRecorder returns a Recorder. It is safe to share across goroutines,
// since the underlying Prometheus collectors are.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Record pushes one completed routing attempt's outcome into the
// Prometheus collectors. latencyMS and costUSD are only meaningful (and
// only recorded) on OutcomeSuccess.
func (r *Recorder) Record(provider string, latencyMS int, costUSD float64, outcome string) {
	requestsTotal.WithLabelValues(provider, outcome).Inc()
	if outcome == OutcomeSuccess {
		requestLatency.WithLabelValues(provider).Observe(float64(latencyMS) / 1000)
		costTotal.WithLabelValues(provider).Add(costUSD)
	}
}

// outcomeLabel maps a state.Outcome to the label Record expects.
func outcomeLabel(o state.Outcome) string {
	switch o {
	case state.OutcomeSuccess:
		return OutcomeSuccess
	case state.OutcomeRateLimited:
		return OutcomeRateLimited
	default:
		return OutcomeFailure
	}
}

// RecordOutcome is a convenience wrapper for callers that already have a
// state.Outcome value, such as the router.
func (r *Recorder) RecordOutcome(provider string, latencyMS int, costUSD float64, outcome state.Outcome) {
	r.Record(provider, latencyMS, costUSD, outcomeLabel(outcome))
}
