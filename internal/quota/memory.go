package quota

import (
	"context"
	"sync"
)

// MemoryLedger is a mutex-guarded, in-process Ledger. It backs single-node
// deployments and tests; durable deployments inject the repo-backed ledger.
type MemoryLedger struct {
	mu sync.Mutex
	// counts is keyed user → day → category → words.
	counts map[string]map[string]map[string]int64
}

// NewMemoryLedger returns an empty MemoryLedger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{counts: make(map[string]map[string]map[string]int64)}
}

// Totals implements Ledger.
func (l *MemoryLedger) Totals(ctx context.Context, userID, day string) (map[string]int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make(map[string]int64)
	if days, ok := l.counts[userID]; ok {
		for cat, words := range days[day] {
			out[cat] = words
		}
	}
	return out, nil
}

// Add implements Ledger.
func (l *MemoryLedger) Add(ctx context.Context, userID, day, category string, words int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	days, ok := l.counts[userID]
	if !ok {
		days = make(map[string]map[string]int64)
		l.counts[userID] = days
	}
	cats, ok := days[day]
	if !ok {
		cats = make(map[string]int64)
		days[day] = cats
	}
	cats[category] += words
	return nil
}

// Reset implements Ledger.
func (l *MemoryLedger) Reset(ctx context.Context, userID, day string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if days, ok := l.counts[userID]; ok {
		delete(days, day)
	}
	return nil
}

// MemoryPlanStore is a mutex-guarded PlanStore for single-node deployments
// and tests. Unknown users resolve to the free plan.
type MemoryPlanStore struct {
	mu    sync.Mutex
	plans map[string]Plan
}

// NewMemoryPlanStore returns an empty MemoryPlanStore.
func NewMemoryPlanStore() *MemoryPlanStore {
	return &MemoryPlanStore{plans: make(map[string]Plan)}
}

// Plan implements PlanStore.
func (s *MemoryPlanStore) Plan(ctx context.Context, userID string) (Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.plans[userID]; ok {
		return p, nil
	}
	return PlanFree, nil
}

// SetPlan implements PlanStore.
func (s *MemoryPlanStore) SetPlan(ctx context.Context, userID string, plan Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans[userID] = plan
	return nil
}
