package workflows

// StateMachine enforces payment status transitions
type StateMachine struct {
	allowedTransitions map[string][]string
}

// NewPaymentStateMachine returns the machine governing mobile-money
// charges. Status is monotonic: once SUCCESSFUL or FAILED a payment
// never moves again, so repeated status polls are safe to replay.
func NewPaymentStateMachine() *StateMachine {
	return &StateMachine{
		allowedTransitions: map[string][]string{
			"PENDING":    {"SUCCESSFUL", "FAILED"},
			"SUCCESSFUL": {},
			"FAILED":     {},
		},
	}
}

// CanTransition checks if a status transition is allowed
func (sm *StateMachine) CanTransition(from, to string) bool {
	allowed, exists := sm.allowedTransitions[from]
	if !exists {
		return false
	}
	for _, allowedTo := range allowed {
		if allowedTo == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a status has no outgoing transitions.
func (sm *StateMachine) IsTerminal(status string) bool {
	allowed, exists := sm.allowedTransitions[status]
	return exists && len(allowed) == 0
}

// GetAllowedTransitions returns the allowed next statuses for a given status
func (sm *StateMachine) GetAllowedTransitions(from string) []string {
	allowed, exists := sm.allowedTransitions[from]
	if !exists {
		return []string{}
	}
	return allowed
}
