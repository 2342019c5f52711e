package clock

import (
	"testing"
	"time"
)

func syncPost(fn func()) { fn() }

func TestArm_FiresOnExpiry(t *testing.T) {
	s := New()
	fired := make(chan struct{}, 1)

	s.Arm(10*time.Millisecond, func(fn func()) { fn() }, func() { fired <- struct{}{} })

	select {
	case <-fired:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("timer never fired")
	}
}

func TestCancel_PreventsFiring(t *testing.T) {
	s := New()
	fired := make(chan struct{}, 1)

	s.Arm(20*time.Millisecond, func(fn func()) { fn() }, func() { fired <- struct{}{} })
	s.Cancel()

	select {
	case <-fired:
		t.Fatal("cancelled timer should not fire")
	case <-time.After(60 * time.Millisecond):
	}
	if s.IsArmed() {
		t.Error("cancelled scheduler should report not armed")
	}
}

func TestArm_ReplacesPreviousTimer(t *testing.T) {
	s := New()
	firstFired := false
	secondFired := make(chan struct{}, 1)

	s.Arm(20*time.Millisecond, syncPost, func() { firstFired = true })
	s.Arm(5*time.Millisecond, syncPost, func() { secondFired <- struct{}{} })

	select {
	case <-secondFired:
	case <-time.After(200 * time.Millisecond):
		t.Fatal("second timer never fired")
	}
	time.Sleep(30 * time.Millisecond)
	if firstFired {
		t.Error("first timer should have been cancelled by the second Arm")
	}
}

func TestIsArmed_ReflectsState(t *testing.T) {
	s := New()
	if s.IsArmed() {
		t.Error("fresh scheduler should not be armed")
	}
	s.Arm(time.Second, syncPost, func() {})
	if !s.IsArmed() {
		t.Error("scheduler should be armed right after Arm")
	}
	s.Cancel()
	if s.IsArmed() {
		t.Error("scheduler should not be armed after Cancel")
	}
}
