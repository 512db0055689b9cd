package aggregates

import (
	"strings"
	"time"

	"github.com/yungbote/pantry-backend/internal/observability"
)

// Aggregate write operations. Hooks label metrics with these names.
const (
	OpComposerCreate = "Recipes.Composer.Create"
	OpComposerUpdate = "Recipes.Composer.Update"
	OpComposerDelete = "Recipes.Composer.Delete"
	OpGuardAdd       = "Recipes.RelationGuard.Add"
	OpGuardRemove    = "Recipes.RelationGuard.Remove"

	opOther = "other"
)

var knownOps = map[string]bool{
	OpComposerCreate: true,
	OpComposerUpdate: true,
	OpComposerDelete: true,
	OpGuardAdd:       true,
	OpGuardRemove:    true,
}

// MetricOp bounds the op label to the known aggregate operations.
func MetricOp(name string) string {
	name = strings.TrimSpace(name)
	if knownOps[name] {
		return name
	}
	return opOther
}

// Hooks captures aggregate-level observability events.
type Hooks interface {
	ObserveOperation(name, status string, dur time.Duration)
	IncConflict(name string)
	IncRetry(name string)
}

type noopHooks struct{}

func (noopHooks) ObserveOperation(string, string, time.Duration) {}
func (noopHooks) IncConflict(string)                             {}
func (noopHooks) IncRetry(string)                                {}

type observabilityHooks struct {
	metrics *observability.Metrics
}

// NewObservabilityHooks creates aggregate hooks backed by observability metrics.
func NewObservabilityHooks(metrics *observability.Metrics) Hooks {
	if metrics == nil {
		return noopHooks{}
	}
	return &observabilityHooks{metrics: metrics}
}

func (h *observabilityHooks) ObserveOperation(name, status string, dur time.Duration) {
	if h == nil || h.metrics == nil {
		return
	}
	h.metrics.ObserveAggregateOperation(MetricOp(name), strings.TrimSpace(status), dur)
}

func (h *observabilityHooks) IncConflict(name string) {
	if h == nil || h.metrics == nil {
		return
	}
	h.metrics.IncAggregateConflict(MetricOp(name))
}

func (h *observabilityHooks) IncRetry(name string) {
	if h == nil || h.metrics == nil {
		return
	}
	h.metrics.IncAggregateRetry(MetricOp(name))
}
