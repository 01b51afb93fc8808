package domain

import "testing"

func TestCanTransitionHold(t *testing.T) {
	cases := []struct {
		from, to HoldStatus
		want     bool
	}{
		{HoldStatusCreated, HoldStatusHeld, true},
		{HoldStatusCreated, HoldStatusFailed, true},
		{HoldStatusCreated, HoldStatusCaptured, false},
		{HoldStatusHeld, HoldStatusCaptured, true},
		{HoldStatusHeld, HoldStatusReleased, true},
		{HoldStatusHeld, HoldStatusFailed, true},
		{HoldStatusHeld, HoldStatusRefunded, false},
		{HoldStatusCaptured, HoldStatusRefunded, true},
		{HoldStatusCaptured, HoldStatusPartiallyRefunded, true},
		{HoldStatusCaptured, HoldStatusReleased, false},
		{HoldStatusPartiallyRefunded, HoldStatusRefunded, true},
		{HoldStatusPartiallyRefunded, HoldStatusPartiallyRefunded, true},
		{HoldStatusReleased, HoldStatusHeld, false},
		{HoldStatusRefunded, HoldStatusCaptured, false},
		{HoldStatusFailed, HoldStatusHeld, false},
	}

	for _, tc := range cases {
		if got := CanTransitionHold(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransitionHold(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestIsTerminalHoldStatus(t *testing.T) {
	terminal := []HoldStatus{HoldStatusReleased, HoldStatusRefunded, HoldStatusFailed}
	for _, s := range terminal {
		if !IsTerminalHoldStatus(s) {
			t.Errorf("expected %s to be terminal", s)
		}
	}

	open := []HoldStatus{HoldStatusCreated, HoldStatusHeld, HoldStatusCaptured, HoldStatusPartiallyRefunded}
	for _, s := range open {
		if IsTerminalHoldStatus(s) {
			t.Errorf("expected %s to admit further transitions", s)
		}
	}
}
