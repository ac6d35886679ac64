package events

// 领域事件名
const (
	EventIncidentCreated    = "incident.created"
	EventIncidentEscalated  = "incident.escalated"
	EventViolationDetected  = "compliance.violation_detected"
	EventIncidentSLABreach  = "incident.sla_breached"
)

// ViolationDetectedPayload compliance.violation_detected 事件载荷
type ViolationDetectedPayload struct {
	TenantID    string `json:"tenantId"`
	ViolationID string `json:"violationId"`
	UserID      string `json:"userId"`
	Type        string `json:"type"`
	Severity    string `json:"severity"`
}

// IncidentCreatedPayload incident.created 事件载荷
type IncidentCreatedPayload struct {
	TenantID     string `json:"tenantId"`
	IncidentID   string `json:"incidentId"`
	Severity     string `json:"severity"`
	Category     string `json:"category"`
	ReportedByID string `json:"reportedById"`
}

// IncidentEscalatedPayload incident.escalated 事件载荷
type IncidentEscalatedPayload struct {
	TenantID        string  `json:"tenantId"`
	IncidentID      string  `json:"incidentId"`
	EscalationLevel int     `json:"escalationLevel"`
	AssignedToID    *string `json:"assignedToId,omitempty"`
}

// SLABreachPayload incident.sla_breached 事件载荷
type SLABreachPayload struct {
	TenantID   string `json:"tenantId"`
	IncidentID string `json:"incidentId"`
	Severity   string `json:"severity"`
}
