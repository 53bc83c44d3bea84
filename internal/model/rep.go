package model

import "time"

// SalesRep is a sales representative eligible for lead assignment.
// Long-lived; the router mutates CurrentLeads and LastAssigned on every
// successful assignment.
type SalesRep struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Territories  []string   `json:"territories,omitempty"`
	Industries   []string   `json:"industries,omitempty"`
	MaxCapacity  int        `json:"max_capacity"`
	CurrentLeads int        `json:"current_leads"`
	IsAvailable  bool       `json:"is_available"`
	LastAssigned *time.Time `json:"last_assigned,omitempty"`
}

// CapacityRatio is current utilization in [0,1]. A rep with zero max
// capacity counts as fully loaded.
func (r SalesRep) CapacityRatio() float64 {
	if r.MaxCapacity == 0 {
		return 1.0
	}
	return float64(r.CurrentLeads) / float64(r.MaxCapacity)
}

// HasCapacity reports whether the rep can take another lead. Capacity is a
// soft ceiling composed with availability.
func (r SalesRep) HasCapacity() bool {
	return r.CurrentLeads < r.MaxCapacity && r.IsAvailable
}

// RoutingResult records one routing decision.
type RoutingResult struct {
	Action            RoutingAction `json:"action"`
	AssignedTo        *SalesRep     `json:"assigned_to,omitempty"`
	FallbackRep       *SalesRep     `json:"fallback_rep,omitempty"`
	Reason            string        `json:"reason"`
	Confidence        float64       `json:"confidence"`
	NotificationsSent []string      `json:"notifications_sent,omitempty"`
}
