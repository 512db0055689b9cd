package testutil

import (
	"sync"
	"time"

	"github.com/yungbote/pantry-backend/internal/data/aggregates"
)

// HooksRecorder keeps every aggregate hook call so tests can assert which
// recipe writes ran and how they ended.
type HooksRecorder struct {
	mu sync.Mutex

	Operations []OperationEvent
	Conflicts  []string
	Retries    []string
}

type OperationEvent struct {
	Name     string
	Status   string
	Duration time.Duration
}

var _ aggregates.Hooks = (*HooksRecorder)(nil)

func (h *HooksRecorder) ObserveOperation(name, status string, dur time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Operations = append(h.Operations, OperationEvent{Name: name, Status: status, Duration: dur})
}

func (h *HooksRecorder) IncConflict(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Conflicts = append(h.Conflicts, name)
}

func (h *HooksRecorder) IncRetry(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Retries = append(h.Retries, name)
}

// OpNames lists observed operation names in call order.
func (h *HooksRecorder) OpNames() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.Operations))
	for _, op := range h.Operations {
		out = append(out, op.Name)
	}
	return out
}

// Status is the status of the latest observation of op, or "" if none.
func (h *HooksRecorder) Status(op string) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := len(h.Operations) - 1; i >= 0; i-- {
		if h.Operations[i].Name == op {
			return h.Operations[i].Status
		}
	}
	return ""
}

func (h *HooksRecorder) ConflictsOf(op string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return countOf(h.Conflicts, op)
}

func (h *HooksRecorder) RetriesOf(op string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return countOf(h.Retries, op)
}

func countOf(names []string, op string) int {
	n := 0
	for _, name := range names {
		if name == op {
			n++
		}
	}
	return n
}
