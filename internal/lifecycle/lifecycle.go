package lifecycle

// Service request lifecycle statuses.
const (
	StatusPending    = "PENDING"
	StatusAccepted   = "ACCEPTED"
	StatusInProgress = "IN_PROGRESS"
	StatusCompleted  = "COMPLETED"
	StatusCancelled  = "CANCELLED"
	StatusExpired    = "EXPIRED"
)

var transitions = map[string]map[string]struct{}{
	StatusPending: {
		StatusAccepted:  {},
		StatusCancelled: {},
		StatusExpired:   {},
	},
	StatusAccepted: {
		StatusInProgress: {},
		StatusCancelled:  {},
	},
	StatusInProgress: {
		StatusCompleted: {},
		StatusCancelled: {},
	},
}

// CanTransition returns true when the lifecycle allows moving from current to next status.
func CanTransition(current, next string) bool {
	allowed, ok := transitions[current]
	if !ok {
		return false
	}
	_, ok = allowed[next]
	return ok
}

// IsTerminal reports whether no further transition is possible from status.
func IsTerminal(status string) bool {
	switch status {
	case StatusCompleted, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

// IsValid reports whether status is one of the known lifecycle statuses.
func IsValid(status string) bool {
	switch status {
	case StatusPending, StatusAccepted, StatusInProgress, StatusCompleted, StatusCancelled, StatusExpired:
		return true
	}
	return false
}
