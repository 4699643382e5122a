package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestLockerClaim(t *testing.T) {
	testCases := []struct {
		name      string
		locker    Locker
		expectErr error
	}{
		{
			name:   "Claim free locker",
			locker: Locker{PhysicalID: "LCK-01", State: StateFree},
		},
		{
			name:   "Claim seals a unit left open",
			locker: Locker{PhysicalID: "LCK-03", State: StateFree, Gate: GateOpen, Led: LedOn},
		},
		{
			name: "Claim occupied locker is rejected",
			locker: Locker{
				PhysicalID: "LCK-02",
				State:      StateOccupied,
				OrderID:    strPtr("order-prior"),
				Code:       strPtr("AAAAAA"),
			},
			expectErr: ErrAlreadyOccupied,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.locker.Claim("order-1", "XYZ234")

			if tc.expectErr != nil {
				assert.ErrorIs(t, err, tc.expectErr)
				// A rejected claim must not overwrite the existing binding.
				assert.Equal(t, "order-prior", *tc.locker.OrderID)
				assert.Equal(t, "AAAAAA", *tc.locker.Code)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, StateOccupied, tc.locker.State)
			assert.Equal(t, GateClose, tc.locker.Gate)
			assert.Equal(t, LedOff, tc.locker.Led)
			assert.Equal(t, "order-1", *tc.locker.OrderID)
			assert.Equal(t, "XYZ234", *tc.locker.Code)
		})
	}
}

func TestLockerReset(t *testing.T) {
	l := Locker{
		PhysicalID: "LCK-01",
		State:      StateOccupied,
		Gate:       GateOpen,
		Led:        LedOn,
		OrderID:    strPtr("order-1"),
		Code:       strPtr("XYZ234"),
	}

	l.Reset()

	assert.Equal(t, StateFree, l.State)
	assert.Equal(t, GateClose, l.Gate)
	assert.Equal(t, LedOff, l.Led)
	assert.Nil(t, l.OrderID)
	assert.Nil(t, l.Code)
}

func TestLockerCommandOpen(t *testing.T) {
	t.Run("occupied locker opens", func(t *testing.T) {
		l := Locker{State: StateOccupied, Gate: GateClose, Led: LedOff}
		assert.NoError(t, l.CommandOpen())
		assert.Equal(t, GateOpen, l.Gate)
		assert.Equal(t, LedOn, l.Led)
		// Opening the gate must not release the locker.
		assert.Equal(t, StateOccupied, l.State)
	})

	t.Run("free locker refuses to open", func(t *testing.T) {
		l := Locker{State: StateFree, Gate: GateClose, Led: LedOff}
		assert.ErrorIs(t, l.CommandOpen(), ErrNotOccupied)
		assert.Equal(t, GateClose, l.Gate)
	})
}

func TestLockerEmpty(t *testing.T) {
	testCases := []struct {
		name     string
		locker   Locker
		expected bool
	}{
		{name: "all sensors clear", locker: Locker{}, expected: true},
		{name: "one sensor tripped", locker: Locker{Sensor2: true}, expected: false},
		{name: "all sensors tripped", locker: Locker{Sensor1: true, Sensor2: true, Sensor3: true}, expected: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.locker.Empty())
		})
	}
}
