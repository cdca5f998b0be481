package alerting

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vigil-ops/vigil-backend-go/internal/core/metrics"
)

// Evaluator decides whether a condition holds for a metric's recent
// samples. It is stateless apart from the metric store it reads.
type Evaluator struct {
	store *metrics.Store
}

// NewEvaluator creates an evaluator over the given metric store.
func NewEvaluator(store *metrics.Store) *Evaluator {
	return &Evaluator{store: store}
}

// Evaluate applies the condition to the latest sample and, when the
// condition requires sustained failures, to the trailing window.
// It never fires when the window contains no samples.
func (e *Evaluator) Evaluate(cond Condition, latestValue float64, latestTimestamp time.Time) (bool, error) {
	windowStart := latestTimestamp.Add(-cond.TimeWindow)
	window := e.store.SamplesInWindow(cond.Metric, windowStart)
	if len(window) == 0 {
		return false, nil
	}

	pass, err := compare(cond, latestValue)
	if err != nil {
		return false, err
	}
	if !pass {
		return false, nil
	}

	// A bare pass is enough unless the rule requires the last N samples
	// in the window to each satisfy the comparison.
	if cond.ConsecutiveFailures <= 1 {
		return true, nil
	}
	if len(window) < cond.ConsecutiveFailures {
		return false, nil
	}

	for _, sample := range window[len(window)-cond.ConsecutiveFailures:] {
		ok, err := compare(cond, sample.Value)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// compare applies the condition's operator to a single value.
func compare(cond Condition, value float64) (bool, error) {
	switch cond.Operator {
	case OpGreaterThan:
		return value > cond.Threshold, nil
	case OpLessThan:
		return value < cond.Threshold, nil
	case OpGreaterOrEqual:
		return value >= cond.Threshold, nil
	case OpLessOrEqual:
		return value <= cond.Threshold, nil
	case OpEqual:
		return value == cond.Threshold, nil
	case OpContains:
		return strings.Contains(formatValue(value), cond.Pattern), nil
	case OpNotContains:
		return !strings.Contains(formatValue(value), cond.Pattern), nil
	default:
		return false, fmt.Errorf("unknown operator %q", cond.Operator)
	}
}

// formatValue renders a sample value the way categorical conditions see
// it: the shortest decimal form of the number.
func formatValue(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
