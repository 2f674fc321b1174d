package authn

import (
	"testing"
	"time"

	cachemem "github.com/dropDatabas3/grantd/internal/cache/memory"
)

func newStates() *StateStore {
	return NewStateStore(cachemem.New(time.Minute), []byte("test-secret"), time.Minute)
}

func TestStateStore_RoundTrip(t *testing.T) {
	s := newStates()

	state, err := s.Issue("google", "https://svc.example/cb")
	if err != nil {
		t.Fatal(err)
	}
	provider, cb, err := s.Redeem(state)
	if err != nil {
		t.Fatal(err)
	}
	if provider != "google" || cb != "https://svc.example/cb" {
		t.Fatalf("got (%q, %q)", provider, cb)
	}
}

func TestStateStore_SingleUse(t *testing.T) {
	s := newStates()

	state, err := s.Issue("github", "https://svc.example/cb")
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.Redeem(state); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.Redeem(state); err == nil {
		t.Fatal("replayed state must fail")
	}
}

func TestStateStore_RejectsForeignSignature(t *testing.T) {
	s := newStates()
	other := NewStateStore(cachemem.New(time.Minute), []byte("other-secret"), time.Minute)

	state, err := other.Issue("google", "https://svc.example/cb")
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.Redeem(state); err == nil {
		t.Fatal("state signed with another secret must fail")
	}
}

func TestStateStore_RejectsGarbage(t *testing.T) {
	s := newStates()
	if _, _, err := s.Redeem("not-a-jwt"); err == nil {
		t.Fatal("garbage state must fail")
	}
}
