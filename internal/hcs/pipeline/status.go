package pipeline

import "time"

// Outcome is one (endpoint, level) unit's result in a run.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// Status records the outcome of one endpoint at one level. Reason is empty
// on success; on skips it names why (no method assigned) and on failures it
// carries the isolated error text.
type Status struct {
	AEID     int64   `json:"aeid"`
	Endpoint string  `json:"endpoint"`
	Level    int     `json:"level"`
	Outcome  Outcome `json:"outcome"`
	Reason   string  `json:"reason,omitempty"`
}

// Report is the caller-visible result of one run: the full per-endpoint,
// per-level status collection. A run with every endpoint failed still
// returns normally; callers must inspect the collection.
type Report struct {
	RunID      string    `json:"run_id"`
	ASID       int64     `json:"asid"`
	StartLevel int       `json:"start_level"`
	EndLevel   int       `json:"end_level"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Statuses   []Status  `json:"statuses"`
}

// Failed returns the failed statuses.
func (r *Report) Failed() []Status {
	var failed []Status
	for _, s := range r.Statuses {
		if s.Outcome == OutcomeFailed {
			failed = append(failed, s)
		}
	}
	return failed
}

// Counts tallies statuses by outcome.
func (r *Report) Counts() map[Outcome]int {
	counts := map[Outcome]int{}
	for _, s := range r.Statuses {
		counts[s.Outcome]++
	}
	return counts
}
