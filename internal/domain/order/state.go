package order

// OrderState implements the state pattern for order lifecycle transitions.
type OrderState interface {
	Status() Status
	OnProofAttached(o *Order, ref string) (OrderState, error)
	OnApproved(o *Order) (OrderState, error)
	OnDeclined(o *Order) (OrderState, error)
	OnAdvance(o *Order, to Status) (OrderState, error)
}

var states = map[Status]OrderState{
	StatusPendingProof:    pendingProofState{},
	StatusPendingApproval: pendingApprovalState{},
	StatusApproved:        approvedState{},
	StatusPreparing:       preparingState{},
	StatusShipped:         shippedState{},
	StatusDelivered:       deliveredState{},
	StatusDeclined:        declinedState{},
}

// Successors lists the statuses directly reachable from s. Leaving
// pending_proof requires a proof, and leaving pending_approval requires an
// explicit approve or decline.
func Successors(s Status) []Status {
	switch s {
	case StatusPendingProof:
		return []Status{StatusPendingApproval}
	case StatusPendingApproval:
		return []Status{StatusApproved, StatusDeclined}
	case StatusApproved:
		return []Status{StatusPreparing}
	case StatusPreparing:
		return []Status{StatusShipped}
	case StatusShipped:
		return []Status{StatusDelivered}
	default:
		return nil
	}
}

// rejectAll is embedded by every state; states override only their legal moves.
type rejectAll struct{}

func (rejectAll) OnProofAttached(*Order, string) (OrderState, error) {
	return nil, ErrInvalidStateTransition
}

func (rejectAll) OnApproved(*Order) (OrderState, error) {
	return nil, ErrInvalidStateTransition
}

func (rejectAll) OnDeclined(*Order) (OrderState, error) {
	return nil, ErrInvalidStateTransition
}

func (rejectAll) OnAdvance(*Order, Status) (OrderState, error) {
	return nil, ErrInvalidStateTransition
}

type pendingProofState struct{ rejectAll }

func (pendingProofState) Status() Status { return StatusPendingProof }

func (pendingProofState) OnProofAttached(o *Order, ref string) (OrderState, error) {
	o.ProofRef = ref
	return pendingApprovalState{}, nil
}

type pendingApprovalState struct{ rejectAll }

func (pendingApprovalState) Status() Status { return StatusPendingApproval }

func (pendingApprovalState) OnProofAttached(o *Order, ref string) (OrderState, error) {
	o.ProofRef = ref
	return pendingApprovalState{}, nil
}

func (pendingApprovalState) OnApproved(*Order) (OrderState, error) {
	return approvedState{}, nil
}

func (pendingApprovalState) OnDeclined(*Order) (OrderState, error) {
	return declinedState{}, nil
}

type approvedState struct{ rejectAll }

func (approvedState) Status() Status { return StatusApproved }

func (approvedState) OnAdvance(_ *Order, to Status) (OrderState, error) {
	if to != StatusPreparing {
		return nil, ErrInvalidStateTransition
	}
	return preparingState{}, nil
}

type preparingState struct{ rejectAll }

func (preparingState) Status() Status { return StatusPreparing }

func (preparingState) OnAdvance(_ *Order, to Status) (OrderState, error) {
	if to != StatusShipped {
		return nil, ErrInvalidStateTransition
	}
	return shippedState{}, nil
}

type shippedState struct{ rejectAll }

func (shippedState) Status() Status { return StatusShipped }

func (shippedState) OnAdvance(_ *Order, to Status) (OrderState, error) {
	if to != StatusDelivered {
		return nil, ErrInvalidStateTransition
	}
	return deliveredState{}, nil
}

type deliveredState struct{ rejectAll }

func (deliveredState) Status() Status { return StatusDelivered }

type declinedState struct{ rejectAll }

func (declinedState) Status() Status { return StatusDeclined }
