// Package driver derives a driver's operational display state from raw
// assignment signals.
package driver

// State is the single operational state shown for a driver.
type State string

const (
	StateDocRejected State = "DOC_REJECTED"
	StatePODPending  State = "POD_PENDING"
	StateDelivered   State = "DELIVERED"
	StateAtStop      State = "AT_STOP"
	StateEnRoute     State = "EN_ROUTE"
	StateAssigned    State = "ASSIGNED"
	StateWaitingPay  State = "WAITING_PAY"
	StateAvailable   State = "AVAILABLE"
)

func (s State) String() string { return string(s) }

// Signals are the raw facts about a driver's current assignment. Several may
// be true at once; Derive resolves the conflict.
type Signals struct {
	HasLoad            bool
	HasDeparted        bool
	AtStop             bool
	Delivered          bool
	PODMissing         bool
	DocRejected        bool
	PendingSettlements int
}

// rules is a strict priority chain: evaluated top to bottom, first match
// wins. Compliance blockers outrank routine trip progress, so the order of
// entries is a business contract, not an implementation detail.
var rules = []struct {
	applies func(Signals) bool
	state   State
}{
	{func(s Signals) bool { return s.DocRejected }, StateDocRejected},
	{func(s Signals) bool { return s.PODMissing }, StatePODPending},
	{func(s Signals) bool { return s.Delivered }, StateDelivered},
	{func(s Signals) bool { return s.AtStop }, StateAtStop},
	{func(s Signals) bool { return s.HasDeparted }, StateEnRoute},
	{func(s Signals) bool { return s.HasLoad }, StateAssigned},
	{func(s Signals) bool { return s.PendingSettlements > 0 }, StateWaitingPay},
}

// Derive maps signals to exactly one operational state. Pure and total:
// no side effects, no error cases, recomputed on every read.
func Derive(s Signals) State {
	for _, r := range rules {
		if r.applies(s) {
			return r.state
		}
	}
	return StateAvailable
}
