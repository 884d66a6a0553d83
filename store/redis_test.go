package store

import (
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	nocturne "github.com/taboocollar/whole-life-inc"
)

func testStore(t *testing.T) *RedisProfileStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisProfileStore(client)
}

func TestRedisGetUnknown(t *testing.T) {
	s := testStore(t)
	p, err := s.Get("nobody")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p != nil {
		t.Fatal("unknown user should return nil profile, nil error")
	}
}

func TestRedisPutGetRoundTrip(t *testing.T) {
	s := testStore(t)

	p := nocturne.NewUserProfile("u1")
	p.AddHardLimit("activities", "needles", "")
	p.TrustScore = 0.42
	if err := s.Put(p); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := s.Get("u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || got.TrustScore != 0.42 {
		t.Fatalf("round trip lost data: %+v", got)
	}
	if !got.HasHardLimit("needles") {
		t.Fatal("boundary lost in round trip")
	}
	if got.Safeword != "red" {
		t.Fatalf("safeword lost: %q", got.Safeword)
	}
}

func TestRedisUpdateCreates(t *testing.T) {
	s := testStore(t)
	p, err := s.Update("u1", func(p *nocturne.UserProfile) {
		p.InteractionCount = 3
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if p.InteractionCount != 3 || p.Safeword != "red" {
		t.Fatalf("created profile wrong: %+v", p)
	}

	got, _ := s.Get("u1")
	if got == nil || got.InteractionCount != 3 {
		t.Fatal("update not persisted")
	}
}

func TestRedisUpdateSerialized(t *testing.T) {
	s := testStore(t)
	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Update("u1", func(p *nocturne.UserProfile) { p.InteractionCount++ })
		}()
	}
	wg.Wait()

	p, _ := s.Get("u1")
	if p.InteractionCount != 30 {
		t.Fatalf("lost updates: count = %d, want 30", p.InteractionCount)
	}
}

func TestRedisKeyPrefix(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	s := NewRedisProfileStore(client, RedisConfig{Prefix: "custom"})
	if err := s.Put(nocturne.NewUserProfile("u1")); err != nil {
		t.Fatal(err)
	}
	if !mr.Exists("custom:profile:u1") {
		t.Fatalf("expected key custom:profile:u1, have %v", mr.Keys())
	}
}
