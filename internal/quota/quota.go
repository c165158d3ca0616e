// Package quota implements the per-user, per-day, per-category word ledger
// and the gate that enforces plan limits ahead of the rewrite pipeline.
//
// Policy denials are ordinary results, not exceptions: Track returns a typed
// *ExceededError carrying the full denial detail, and ledger-store failures
// are the only hard errors. Mutations for a given (user, day) are serialized
// so concurrent tracking never loses updates.
package quota

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Plan is a named quota class determining the daily word limit.
type Plan string

// Supported plan tiers.
const (
	PlanFree    Plan = "free"
	PlanPremium Plan = "premium"
)

// PlanLimits maps each plan tier to its daily word allowance.
var PlanLimits = map[Plan]int64{
	PlanFree:    1000,
	PlanPremium: 10000,
}

// ExceededError is the typed denial returned when tracking with enforcement
// would push a user over their daily limit. It is a policy result, produced
// before any generation cost is incurred.
type ExceededError struct {
	Plan           Plan
	DailyLimit     int64
	WordsUsed      int64
	WordsRequested int64
	WordsRemaining int64
}

// Error implements the error interface.
func (e *ExceededError) Error() string {
	return fmt.Sprintf("quota exceeded: %d/%d words used, requested %d, remaining %d",
		e.WordsUsed, e.DailyLimit, e.WordsRequested, e.WordsRemaining)
}

// UsageStats is the derived, read-only view of a user's daily quota position.
type UsageStats struct {
	UserID          string  `json:"user_id"`
	Plan            Plan    `json:"plan_type"`
	DailyLimit      int64   `json:"daily_limit"`
	WordsUsedToday  int64   `json:"words_used_today"`
	WordsDetect     int64   `json:"words_detect"`
	WordsParaphrase int64   `json:"words_paraphrase"`
	WordsRemaining  int64   `json:"words_remaining"`
	UsageDate       string  `json:"usage_date"`
	PercentageUsed  float64 `json:"percentage_used"`
}

// CheckResult reports whether a request of a given word count is allowed.
type CheckResult struct {
	Allowed        bool   `json:"allowed"`
	WordsRequested int64  `json:"words_requested"`
	WordsRemaining int64  `json:"words_remaining"`
	Message        string `json:"message"`
}

// Ledger is the persisted word-count mapping (user, day, category) → words.
// Implementations must make Add atomic with respect to concurrent callers
// for the same key, and must never let a count go negative.
type Ledger interface {
	// Totals returns the per-category word counts for (user, day).
	// Missing categories read as zero.
	Totals(ctx context.Context, userID, day string) (map[string]int64, error)
	// Add atomically increments (user, day, category) by words (words >= 0).
	Add(ctx context.Context, userID, day, category string, words int64) error
	// Reset zeroes all categories for (user, day).
	Reset(ctx context.Context, userID, day string) error
}

// PlanStore resolves a user's plan tier. Unknown users are on the free plan.
type PlanStore interface {
	Plan(ctx context.Context, userID string) (Plan, error)
	SetPlan(ctx context.Context, userID string, plan Plan) error
}

// Gate is the quota gate: check and track operations over an injected ledger
// and plan store, with per-(user, day) mutation serialization.
type Gate struct {
	ledger Ledger
	plans  PlanStore

	// now is swappable so tests can pin the calendar day.
	now func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewGate constructs a Gate over the given ledger and plan store.
func NewGate(ledger Ledger, plans PlanStore) *Gate {
	return &Gate{
		ledger: ledger,
		plans:  plans,
		now:    time.Now,
		locks:  make(map[string]*sync.Mutex),
	}
}

// day returns today's ledger key (UTC calendar date).
func (g *Gate) day() string {
	return g.now().UTC().Format("2006-01-02")
}

// keyLock returns the mutex serializing mutations for one (user, day) key.
// Lock instances are retained for the process lifetime; the key space is
// bounded by active users per day.
func (g *Gate) keyLock(userID, day string) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()
	k := userID + "|" + day
	l, ok := g.locks[k]
	if !ok {
		l = &sync.Mutex{}
		g.locks[k] = l
	}
	return l
}

// plan resolves the user's tier, defaulting to free when no store is wired.
func (g *Gate) plan(ctx context.Context, userID string) (Plan, int64, error) {
	p := PlanFree
	if g.plans != nil {
		got, err := g.plans.Plan(ctx, userID)
		if err != nil {
			return "", 0, err
		}
		if _, known := PlanLimits[got]; known {
			p = got
		}
	}
	return p, PlanLimits[p], nil
}

// Usage returns the user's quota snapshot for today. Words remaining is
// floored at zero and percentage used is capped at 100.
func (g *Gate) Usage(ctx context.Context, userID string) (UsageStats, error) {
	plan, limit, err := g.plan(ctx, userID)
	if err != nil {
		return UsageStats{}, err
	}
	day := g.day()
	totals, err := g.ledger.Totals(ctx, userID, day)
	if err != nil {
		return UsageStats{}, err
	}
	return g.snapshot(userID, day, plan, limit, totals), nil
}

func (g *Gate) snapshot(userID, day string, plan Plan, limit int64, totals map[string]int64) UsageStats {
	detect := totals["detect"]
	paraphrase := totals["paraphrase"]
	used := detect + paraphrase

	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}
	pct := 0.0
	if limit > 0 {
		pct = float64(used) / float64(limit) * 100
		if pct > 100 {
			pct = 100
		}
	}
	// One decimal place, matching the public usage schema.
	pct = float64(int(pct*10+0.5)) / 10

	return UsageStats{
		UserID:          userID,
		Plan:            plan,
		DailyLimit:      limit,
		WordsUsedToday:  used,
		WordsDetect:     detect,
		WordsParaphrase: paraphrase,
		WordsRemaining:  remaining,
		UsageDate:       day,
		PercentageUsed:  pct,
	}
}

// Check reports whether the user can spend words today without exceeding
// their plan. It never mutates the ledger.
func (g *Gate) Check(ctx context.Context, userID string, words int64) (CheckResult, error) {
	usage, err := g.Usage(ctx, userID)
	if err != nil {
		return CheckResult{}, err
	}
	if words <= usage.WordsRemaining {
		return CheckResult{
			Allowed:        true,
			WordsRequested: words,
			WordsRemaining: usage.WordsRemaining - words,
			Message:        "Quota available",
		}, nil
	}
	return CheckResult{
		Allowed:        false,
		WordsRequested: words,
		WordsRemaining: usage.WordsRemaining,
		Message: fmt.Sprintf("Quota exceeded. You have %d words remaining today. Upgrade to premium for %d words/day.",
			usage.WordsRemaining, PlanLimits[PlanPremium]),
	}, nil
}

// Track records words against (user, today, category) and returns the updated
// snapshot. With enforce true it returns *ExceededError, without recording,
// when current total + words would exceed the daily limit; with enforce false
// it always records, and the snapshot clamps remaining at zero. The
// read-check-increment sequence is serialized per (user, day).
func (g *Gate) Track(ctx context.Context, userID string, words int64, category string, enforce bool) (UsageStats, error) {
	if words < 0 {
		return UsageStats{}, fmt.Errorf("negative word count %d", words)
	}
	plan, limit, err := g.plan(ctx, userID)
	if err != nil {
		return UsageStats{}, err
	}

	day := g.day()
	lock := g.keyLock(userID, day)
	lock.Lock()
	defer lock.Unlock()

	totals, err := g.ledger.Totals(ctx, userID, day)
	if err != nil {
		return UsageStats{}, err
	}
	current := totals["detect"] + totals["paraphrase"]

	if enforce && current+words > limit {
		remaining := limit - current
		if remaining < 0 {
			remaining = 0
		}
		return UsageStats{}, &ExceededError{
			Plan:           plan,
			DailyLimit:     limit,
			WordsUsed:      current,
			WordsRequested: words,
			WordsRemaining: remaining,
		}
	}

	if err := g.ledger.Add(ctx, userID, day, category, words); err != nil {
		return UsageStats{}, err
	}
	totals[category] += words
	return g.snapshot(userID, day, plan, limit, totals), nil
}

// ResetDaily zeroes the user's ledger for today.
func (g *Gate) ResetDaily(ctx context.Context, userID string) error {
	day := g.day()
	lock := g.keyLock(userID, day)
	lock.Lock()
	defer lock.Unlock()
	return g.ledger.Reset(ctx, userID, day)
}

// SetPlan updates the user's plan tier.
func (g *Gate) SetPlan(ctx context.Context, userID string, plan Plan) error {
	if _, ok := PlanLimits[plan]; !ok {
		return fmt.Errorf("unknown plan %q", plan)
	}
	if g.plans == nil {
		return fmt.Errorf("no plan store configured")
	}
	return g.plans.SetPlan(ctx, userID, plan)
}
