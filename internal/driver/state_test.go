package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDerivePriorityChain(t *testing.T) {
	cases := []struct {
		name    string
		signals Signals
		want    State
	}{
		{"all false is available", Signals{}, StateAvailable},
		{"doc rejected outranks everything", Signals{
			HasLoad: true, HasDeparted: true, AtStop: true, Delivered: true,
			PODMissing: true, DocRejected: true, PendingSettlements: 7,
		}, StateDocRejected},
		{"pod missing outranks delivered", Signals{Delivered: true, PODMissing: true}, StatePODPending},
		{"delivered outranks at stop", Signals{Delivered: true, AtStop: true}, StateDelivered},
		{"at stop outranks en route", Signals{HasDeparted: true, AtStop: true}, StateAtStop},
		{"departed means en route", Signals{HasLoad: true, HasDeparted: true}, StateEnRoute},
		{"load without departure is assigned", Signals{HasLoad: true}, StateAssigned},
		{"settlements only means waiting on pay", Signals{PendingSettlements: 3}, StateWaitingPay},
		{"load outranks settlements", Signals{HasLoad: true, PendingSettlements: 3}, StateAssigned},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Derive(tc.signals))
		})
	}
}

func TestDeriveDocRejectedAlwaysWins(t *testing.T) {
	// DocRejected must dominate regardless of the other signals. Walk every
	// combination of the remaining booleans.
	for mask := 0; mask < 32; mask++ {
		s := Signals{
			DocRejected:        true,
			HasLoad:            mask&1 != 0,
			HasDeparted:        mask&2 != 0,
			AtStop:             mask&4 != 0,
			Delivered:          mask&8 != 0,
			PODMissing:         mask&16 != 0,
			PendingSettlements: mask % 3,
		}
		assert.Equal(t, StateDocRejected, Derive(s))
	}
}

func TestDeriveIsPure(t *testing.T) {
	s := Signals{Delivered: true}
	first := Derive(s)
	second := Derive(s)
	assert.Equal(t, first, second)
	assert.Equal(t, Signals{Delivered: true}, s)
}
