package nocturne

import (
	"sync"
	"testing"
)

func TestProfileBoundaries(t *testing.T) {
	p := NewUserProfile("u1")
	p.AddHardLimit("activities", "Knife Play", "")
	p.AddSoftLimit("topics", "humiliation", "only verbal")

	if !p.HasHardLimit("knife play") {
		t.Fatal("hard limit match should be case-insensitive")
	}
	if p.HasHardLimit("humiliation") {
		t.Fatal("soft limit reported as hard")
	}
	if !p.HasSoftLimit("Humiliation") {
		t.Fatal("soft limit not found")
	}

	if items := p.HardLimitItems(); len(items) != 1 || items[0] != "Knife Play" {
		t.Fatalf("unexpected hard limit items: %v", items)
	}
}

func TestProfileDefaults(t *testing.T) {
	p := NewUserProfile("u1")
	if p.Safeword != "red" {
		t.Fatalf("default safeword = %q, want red", p.Safeword)
	}
	if p.PreferredIntensity != 0.5 || p.TrustScore != 0 {
		t.Fatalf("unexpected defaults: intensity=%f trust=%f", p.PreferredIntensity, p.TrustScore)
	}
}

func TestProfileConsentAudit(t *testing.T) {
	p := NewUserProfile("u1")
	p.RecordConsent("turn", "fuck yes", ConsentDetection{Signal: SignalEnthusiasticYes, Confidence: 0.95})
	p.RecordConsent("turn", "hm", ConsentDetection{Signal: SignalUnclear, Confidence: 0.3})

	if len(p.ConsentHistory) != 2 {
		t.Fatalf("history length = %d, want 2", len(p.ConsentHistory))
	}
	first := p.ConsentHistory[0]
	if !first.Explicit || first.ID == "" || first.Timestamp.IsZero() {
		t.Fatalf("bad audit record: %+v", first)
	}
	if p.ConsentHistory[1].Explicit {
		t.Fatal("unclear signal recorded as explicit")
	}
}

func TestInMemoryStoreGetUnknown(t *testing.T) {
	s := NewInMemoryProfileStore()
	p, err := s.Get("nobody")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p != nil {
		t.Fatal("unknown user should return nil profile, nil error")
	}
}

func TestInMemoryStoreUpdateCreates(t *testing.T) {
	s := NewInMemoryProfileStore()
	p, err := s.Update("u1", func(p *UserProfile) {
		p.AddHardLimit("activities", "blood", "")
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !p.HasHardLimit("blood") {
		t.Fatal("update result missing mutation")
	}

	got, err := s.Get("u1")
	if err != nil || got == nil {
		t.Fatalf("Get after Update: %v %v", got, err)
	}
	if !got.HasHardLimit("blood") {
		t.Fatal("mutation not persisted")
	}
}

func TestInMemoryStoreIsolation(t *testing.T) {
	s := NewInMemoryProfileStore()
	if _, err := s.Update("u1", func(p *UserProfile) { p.TrustScore = 0.5 }); err != nil {
		t.Fatal(err)
	}

	got, _ := s.Get("u1")
	got.TrustScore = 0.99
	got.AddHardLimit("x", "y", "")

	again, _ := s.Get("u1")
	if again.TrustScore != 0.5 || len(again.HardLimits) != 0 {
		t.Fatal("returned profile aliases stored state")
	}
}

func TestInMemoryStoreConcurrentUpdates(t *testing.T) {
	s := NewInMemoryProfileStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Update("u1", func(p *UserProfile) { p.InteractionCount++ })
		}()
	}
	wg.Wait()

	p, _ := s.Get("u1")
	if p.InteractionCount != 50 {
		t.Fatalf("lost updates: count = %d, want 50", p.InteractionCount)
	}
}
