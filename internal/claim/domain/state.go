package domain

// State is the claim's position in the settlement lifecycle. The set is
// closed; transitions happen only through the methods on Claim.
type State string

const (
	StateRegistered         State = "registered"
	StateBrokerNotified     State = "broker_notified"
	StateBrokerResponded    State = "broker_responded"
	StateInsurerSubmitted   State = "insurer_submitted"
	StateReceiptReceived    State = "receipt_received"
	StateInDispute          State = "in_dispute"
	StateReceiptSigned      State = "receipt_signed"
	StatePendingLiquidation State = "pending_liquidation"
	StateDeadlineExceeded   State = "deadline_exceeded"
	StateLiquidated         State = "liquidated"
	StateClosed             State = "closed"
	StateRejected           State = "rejected"
)

// transitions lists the legal successors of each state. Settlement is
// strictly forward; the only loop is the dispute cycle around
// receipt_received.
var transitions = map[State][]State{
	StateRegistered:         {StateBrokerNotified, StateRejected},
	StateBrokerNotified:     {StateBrokerResponded, StateRejected},
	StateBrokerResponded:    {StateInsurerSubmitted, StateRejected},
	StateInsurerSubmitted:   {StateReceiptReceived, StateRejected},
	StateReceiptReceived:    {StateInDispute, StateReceiptSigned, StateRejected},
	StateInDispute:          {StateReceiptReceived, StateRejected},
	StateReceiptSigned:      {StatePendingLiquidation, StateRejected},
	StatePendingLiquidation: {StateDeadlineExceeded, StateLiquidated, StateRejected},
	StateDeadlineExceeded:   {StateLiquidated, StateRejected},
	StateLiquidated:         {StateClosed},
	StateClosed:             nil,
	StateRejected:           nil,
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return len(transitions[s]) == 0
}

func (s State) canReach(to State) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}
