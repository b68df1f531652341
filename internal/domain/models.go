package domain

import (
	"math"
	"time"
)

type TargetID string

// Kind selects the probe used for a target.
type Kind string

const (
	KindHTTP Kind = "http"
	KindTCP  Kind = "tcp"
	KindICMP Kind = "icmp"
)

type Target struct {
	ID      TargetID `json:"id" yaml:"id"`
	Kind    Kind     `json:"kind" yaml:"kind"`
	Name    string   `json:"name" yaml:"name"`
	Address string   `json:"address" yaml:"address"` // URL for http, host:port for tcp, host for icmp
}

// Outcome is the normalized result of one probe execution. It is never
// mutated after the prober returns it.
type Outcome struct {
	TargetID   TargetID  `json:"targetId"`
	OK         bool      `json:"ok"`
	LatencyMS  int64     `json:"latencyMs"`
	StatusCode *int      `json:"statusCode,omitempty"` // http only
	Error      string    `json:"error,omitempty"`
	ErrorKind  ErrorKind `json:"errorKind,omitempty"`
	CheckedAt  time.Time `json:"checkedAt"`
}

type TargetStats struct {
	TotalChecks      int        `json:"totalChecks"`
	SuccessfulChecks int        `json:"successfulChecks"`
	FailedChecks     int        `json:"failedChecks"`
	LastSuccessAt    *time.Time `json:"lastSuccessAt,omitempty"`
	LastFailureAt    *time.Time `json:"lastFailureAt,omitempty"`
}

// UptimePercentage is successful/total*100 rounded to two decimals, 0 when
// nothing was checked yet.
func (s TargetStats) UptimePercentage() float64 {
	return Percentage(s.SuccessfulChecks, s.TotalChecks)
}

// TargetView is the read model handed to API consumers.
type TargetView struct {
	Target
	Outcome
	Stats            TargetStats `json:"stats"`
	UptimePercentage float64     `json:"uptimePercentage"`
}

// NewTargetView copies the stats value so the view never aliases the
// accumulator's state.
func NewTargetView(t Target, o Outcome, s TargetStats) TargetView {
	return TargetView{
		Target:           t,
		Outcome:          o,
		Stats:            s.clone(),
		UptimePercentage: s.UptimePercentage(),
	}
}

type Summary struct {
	TotalTargets int `json:"totalTargets"`
	TotalUp      int `json:"totalUp"`
	TotalDown    int `json:"totalDown"`
}

type CycleSnapshot struct {
	CycleID                   string       `json:"cycleId,omitempty"`
	Reason                    string       `json:"reason,omitempty"`
	Targets                   []TargetView `json:"targets"`
	LastRunAt                 *time.Time   `json:"lastRunAt"`
	NextRunAt                 *time.Time   `json:"nextRunAt"`
	CycleDurationMS           int64        `json:"cycleDurationMs"`
	TotalCyclesRun            int          `json:"totalCyclesRun"`
	IsCycleInProgress         bool         `json:"isCycleInProgress"`
	AggregateUptimePercentage float64      `json:"aggregateUptimePercentage"`
	Summary                   Summary      `json:"summary"`
}

// Find returns the view for id and whether it exists.
func (s CycleSnapshot) Find(id TargetID) (TargetView, bool) {
	for _, v := range s.Targets {
		if v.Target.ID == id {
			return v, true
		}
	}
	return TargetView{}, false
}

// Summarize counts up/down views.
func Summarize(views []TargetView) Summary {
	sum := Summary{TotalTargets: len(views)}
	for _, v := range views {
		if v.OK {
			sum.TotalUp++
		}
	}
	sum.TotalDown = sum.TotalTargets - sum.TotalUp
	return sum
}

// Percentage returns part/total*100 rounded to two decimals, 0 if total is 0.
func Percentage(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*100*100) / 100
}

func (s TargetStats) clone() TargetStats {
	out := s
	if s.LastSuccessAt != nil {
		t := *s.LastSuccessAt
		out.LastSuccessAt = &t
	}
	if s.LastFailureAt != nil {
		t := *s.LastFailureAt
		out.LastFailureAt = &t
	}
	return out
}
