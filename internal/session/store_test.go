package session

import (
	"sync"
	"testing"

	"smsrent/internal/activation"
)

func TestStoreServiceRoundTrip(t *testing.T) {
	s := NewStore()

	if _, ok := s.Service(1); ok {
		t.Fatalf("expected no service for fresh store")
	}

	s.SetService(1, "tg")
	code, ok := s.Service(1)
	if !ok || code != "tg" {
		t.Fatalf("got (%q, %v), want (tg, true)", code, ok)
	}

	if _, ok := s.Service(2); ok {
		t.Fatalf("service leaked across users")
	}
}

func TestStoreActivationSupersedes(t *testing.T) {
	s := NewStore()
	first := &activation.Activation{ID: "1"}
	second := &activation.Activation{ID: "2"}

	s.SetActivation(7, first)
	s.SetActivation(7, second)

	act, ok := s.Activation(7)
	if !ok || act.ID != "2" {
		t.Fatalf("expected the later activation to win, got %+v", act)
	}
}

func TestStoreClearActivationKeepsService(t *testing.T) {
	s := NewStore()
	s.SetService(7, "tg")
	s.SetActivation(7, &activation.Activation{ID: "1"})

	s.ClearActivation(7)

	if _, ok := s.Activation(7); ok {
		t.Fatalf("activation not cleared")
	}
	if code, ok := s.Service(7); !ok || code != "tg" {
		t.Fatalf("service lost on ClearActivation")
	}
}

func TestStoreClear(t *testing.T) {
	s := NewStore()
	s.SetService(7, "tg")
	s.SetActivation(7, &activation.Activation{ID: "1"})

	s.Clear(7)

	if _, ok := s.Service(7); ok {
		t.Fatalf("service survived Clear")
	}
	if _, ok := s.Activation(7); ok {
		t.Fatalf("activation survived Clear")
	}
}

func TestStoreConcurrentUsers(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := int64(0); i < 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			s.SetService(id, "tg")
			s.SetActivation(id, &activation.Activation{ID: "a"})
			s.ClearActivation(id)
			if _, ok := s.Service(id); !ok {
				t.Errorf("user %d lost service", id)
			}
		}(i)
	}
	wg.Wait()
}
