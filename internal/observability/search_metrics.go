package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SearchCollector exposes planner search metrics. It satisfies
// search.MetricsRecorder.
type SearchCollector struct {
	gatherer prometheus.Gatherer

	Runs           *prometheus.CounterVec
	Expansions     *prometheus.CounterVec
	Duration       *prometheus.HistogramVec
	FrontierSize   *prometheus.GaugeVec
	ClosedStates   *prometheus.GaugeVec
	LastPlanCost   prometheus.Gauge
	LastPlanLength prometheus.Gauge
}

// NewSearchCollector registers search metrics against the provided registerer.
func NewSearchCollector(reg prometheus.Registerer) (*SearchCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	runs, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "planner_search_runs_total",
		Help: "Completed searches, labeled by algorithm, heuristic and outcome.",
	}, []string{"algorithm", "heuristic", "outcome"}), "planner_search_runs_total")
	if err != nil {
		return nil, err
	}

	expansions, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "planner_search_expansions_total",
		Help: "Cumulative number of states expanded, labeled by algorithm.",
	}, []string{"algorithm"}), "planner_search_expansions_total")
	if err != nil {
		return nil, err
	}

	duration, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "planner_search_duration_seconds",
		Help:    "Wall-clock duration of a search run.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 60},
	}, []string{"algorithm"}), "planner_search_duration_seconds")
	if err != nil {
		return nil, err
	}

	frontier, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "planner_search_frontier_size",
		Help: "Number of states waiting in the open list of the most recent search.",
	}, []string{"algorithm"}), "planner_search_frontier_size")
	if err != nil {
		return nil, err
	}

	closed, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "planner_search_closed_states",
		Help: "Number of distinct state keys in the closed set of the most recent search.",
	}, []string{"algorithm"}), "planner_search_closed_states")
	if err != nil {
		return nil, err
	}

	cost, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "planner_last_plan_cost",
		Help: "Energy cost of the most recently found plan.",
	}), "planner_last_plan_cost")
	if err != nil {
		return nil, err
	}

	length, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "planner_last_plan_steps",
		Help: "Number of time steps of the most recently found plan.",
	}), "planner_last_plan_steps")
	if err != nil {
		return nil, err
	}

	return &SearchCollector{
		gatherer:       gatherer,
		Runs:           runs,
		Expansions:     expansions,
		Duration:       duration,
		FrontierSize:   frontier,
		ClosedStates:   closed,
		LastPlanCost:   cost,
		LastPlanLength: length,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *SearchCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// Handler exposes the collector's registry over HTTP.
func (c *SearchCollector) Handler() http.Handler {
	return handlerFor(c.Gatherer())
}

// ObserveSearch records the outcome of one search run.
func (c *SearchCollector) ObserveSearch(algorithm, heuristic, outcome string, expansions int, elapsed time.Duration) {
	if c == nil {
		return
	}
	if c.Runs != nil {
		c.Runs.WithLabelValues(algorithm, heuristic, outcome).Inc()
	}
	if c.Expansions != nil && expansions > 0 {
		c.Expansions.WithLabelValues(algorithm).Add(float64(expansions))
	}
	if c.Duration != nil {
		c.Duration.WithLabelValues(algorithm).Observe(elapsed.Seconds())
	}
}

// SetSearchProgress updates the frontier and closed-set gauges.
func (c *SearchCollector) SetSearchProgress(algorithm string, frontier, closed int) {
	if c == nil {
		return
	}
	if c.FrontierSize != nil {
		c.FrontierSize.WithLabelValues(algorithm).Set(float64(frontier))
	}
	if c.ClosedStates != nil {
		c.ClosedStates.WithLabelValues(algorithm).Set(float64(closed))
	}
}

// ObservePlan records the cost and length of a found plan.
func (c *SearchCollector) ObservePlan(cost float64, steps int) {
	if c == nil {
		return
	}
	if c.LastPlanCost != nil {
		c.LastPlanCost.Set(cost)
	}
	if c.LastPlanLength != nil {
		c.LastPlanLength.Set(float64(steps))
	}
}
