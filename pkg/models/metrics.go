package models

// PlanType distinguishes rate-limited subscription sessions from
// dollar-billed pay-per-token sessions.
type PlanType string

const (
	// PlanSubscription sessions are rate-limited, not token-billed.
	PlanSubscription PlanType = "subscription"
	// PlanPayPerToken sessions accrue dollar cost per token.
	PlanPayPerToken PlanType = "pay_per_token"
)

// SessionMetrics holds the measured and estimated quantities for one session.
// The percentage ratios are derived on demand and never stored, so they can
// not go stale relative to their inputs.
type SessionMetrics struct {
	TokensUsed int `json:"tokens_used"`
	TokensMax  int `json:"tokens_max"`

	TasksCompleted       int     `json:"tasks_completed"`
	TasksTotal           int     `json:"tasks_total"`
	EstimatedProgressPct float64 `json:"estimated_progress_pct,omitempty"`

	PlanType        PlanType `json:"plan_type"`
	CostDollars     float64  `json:"cost_dollars"`
	BudgetDollars   float64  `json:"budget_dollars,omitempty"`
	RequestsPerHour float64  `json:"requests_per_hour"`
}

// ContextPct returns consumed context as a percentage of the window.
func (m *SessionMetrics) ContextPct() float64 {
	if m.TokensMax == 0 {
		return 0
	}
	return float64(m.TokensUsed) / float64(m.TokensMax) * 100
}

// ProgressPct returns task completion as a percentage. When no task counts
// are available it falls back to the time-based estimate, which may be zero.
func (m *SessionMetrics) ProgressPct() float64 {
	if m.TasksTotal == 0 {
		return m.EstimatedProgressPct
	}
	return float64(m.TasksCompleted) / float64(m.TasksTotal) * 100
}

// CostPct returns spend as a percentage of the session budget.
// The second return is false when no budget is set.
func (m *SessionMetrics) CostPct() (float64, bool) {
	if m.BudgetDollars == 0 {
		return 0, false
	}
	return m.CostDollars / m.BudgetDollars * 100, true
}
