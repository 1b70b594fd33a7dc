package models

import "time"

// FleetSnapshot is the aggregate view over every discovered session.
// SpentMonthly is recomputed from the current session set each pass and is
// never accumulated across cycles.
type FleetSnapshot struct {
	Sessions      []SessionRecord `json:"sessions"`
	BudgetMonthly float64         `json:"budget_monthly"`
	SpentMonthly  float64         `json:"spent_monthly"`
	GeneratedAt   time.Time       `json:"generated_at"`
}

// ActiveCount returns how many sessions are doing work right now.
func (f *FleetSnapshot) ActiveCount() int {
	count := 0
	for i := range f.Sessions {
		switch f.Sessions[i].Status {
		case StatusActive, StatusThinking, StatusBackground:
			count++
		}
	}
	return count
}

// SubscriptionSessions returns the rate-limited sessions.
func (f *FleetSnapshot) SubscriptionSessions() []SessionRecord {
	var out []SessionRecord
	for _, s := range f.Sessions {
		if s.Metrics.PlanType == PlanSubscription {
			out = append(out, s)
		}
	}
	return out
}

// PayPerTokenSessions returns the dollar-billed sessions.
func (f *FleetSnapshot) PayPerTokenSessions() []SessionRecord {
	var out []SessionRecord
	for _, s := range f.Sessions {
		if s.Metrics.PlanType == PlanPayPerToken {
			out = append(out, s)
		}
	}
	return out
}

// TotalRequestsPerHour sums request rates over subscription sessions only.
// Pay-per-token sessions are excluded: they are not subject to the shared
// rate ceiling the total is displayed against.
func (f *FleetSnapshot) TotalRequestsPerHour() float64 {
	total := 0.0
	for _, s := range f.Sessions {
		if s.Metrics.PlanType == PlanSubscription {
			total += s.Metrics.RequestsPerHour
		}
	}
	return total
}
