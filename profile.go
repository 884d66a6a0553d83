package nocturne

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ──────────────────────────────────────────────
// User profiles + pluggable profile store
// ──────────────────────────────────────────────

// Boundary is one user-declared limit. Boundaries are immutable after
// creation and append-only: there is no retraction API, stated limits are
// permanent.
type Boundary struct {
	Category    string    `json:"category"`
	Item        string    `json:"item"`
	IsHardLimit bool      `json:"is_hard_limit"`
	Notes       string    `json:"notes,omitempty"`
	AddedAt     time.Time `json:"added_at"`
}

// ConsentRecord is one entry in a user's append-only consent audit trail.
type ConsentRecord struct {
	ID           string        `json:"id"`
	Timestamp    time.Time     `json:"timestamp"`
	Action       string        `json:"action"`
	Signal       ConsentSignal `json:"signal"`
	Explicit     bool          `json:"explicit"`
	UserResponse string        `json:"user_response"`
}

// UserProfile holds per-user safety and preference state. Profiles are
// created lazily on first reference and live for the process lifetime
// unless a persistent ProfileStore is injected.
//
// Profiles must only be mutated through ProfileStore.Update so that
// concurrent sessions for the same user id are serialized.
type UserProfile struct {
	UserID             string          `json:"user_id"`
	Safeword           string          `json:"safeword"`
	CustomSafewords    []string        `json:"custom_safewords,omitempty"`
	HardLimits         []Boundary      `json:"hard_limits,omitempty"`
	SoftLimits         []Boundary      `json:"soft_limits,omitempty"`
	ConsentHistory     []ConsentRecord `json:"consent_history,omitempty"`
	TrustScore         float64         `json:"trust_score"`
	InteractionCount   int             `json:"interaction_count"`
	PreferredIntensity float64         `json:"preferred_intensity"`
	FavoriteScenarios  []string        `json:"favorite_scenarios,omitempty"`
}

// NewUserProfile returns a fresh profile with the default safeword.
func NewUserProfile(userID string) *UserProfile {
	return &UserProfile{
		UserID:             userID,
		Safeword:           "red",
		TrustScore:         0.0,
		PreferredIntensity: 0.5,
	}
}

// AddHardLimit appends a hard-limit boundary.
func (p *UserProfile) AddHardLimit(category, item, notes string) {
	p.HardLimits = append(p.HardLimits, Boundary{
		Category:    category,
		Item:        item,
		IsHardLimit: true,
		Notes:       notes,
		AddedAt:     time.Now(),
	})
}

// AddSoftLimit appends a soft-limit boundary.
func (p *UserProfile) AddSoftLimit(category, item, notes string) {
	p.SoftLimits = append(p.SoftLimits, Boundary{
		Category:    category,
		Item:        item,
		IsHardLimit: false,
		Notes:       notes,
		AddedAt:     time.Now(),
	})
}

// HasHardLimit reports whether item matches any hard limit.
// Case-insensitive exact-item match.
func (p *UserProfile) HasHardLimit(item string) bool {
	return containsItem(p.HardLimits, item)
}

// HasSoftLimit reports whether item matches any soft limit.
func (p *UserProfile) HasSoftLimit(item string) bool {
	return containsItem(p.SoftLimits, item)
}

func containsItem(boundaries []Boundary, item string) bool {
	for _, b := range boundaries {
		if strings.EqualFold(b.Item, item) {
			return true
		}
	}
	return false
}

// HardLimitItems returns the hard-limit item tags.
func (p *UserProfile) HardLimitItems() []string {
	return boundaryItems(p.HardLimits)
}

// SoftLimitItems returns the soft-limit item tags.
func (p *UserProfile) SoftLimitItems() []string {
	return boundaryItems(p.SoftLimits)
}

func boundaryItems(boundaries []Boundary) []string {
	items := make([]string, 0, len(boundaries))
	for _, b := range boundaries {
		items = append(items, b.Item)
	}
	return items
}

// RecordConsent appends a consent record to the audit trail.
func (p *UserProfile) RecordConsent(action, userResponse string, det ConsentDetection) {
	p.ConsentHistory = append(p.ConsentHistory, ConsentRecord{
		ID:           uuid.NewString(),
		Timestamp:    time.Now(),
		Action:       action,
		Signal:       det.Signal,
		Explicit:     det.Explicit(),
		UserResponse: userResponse,
	})
}

// ProfileStore is the pluggable storage backend for user profiles.
//
// Get returns (nil, nil) for an unknown user. Update applies fn to the
// user's profile (creating one if absent) and persists the result;
// implementations must serialize Update calls per user id so concurrent
// sessions never lose writes. Cross-user operations are independent.
type ProfileStore interface {
	Get(userID string) (*UserProfile, error)
	Put(profile *UserProfile) error
	Update(userID string, fn func(*UserProfile)) (*UserProfile, error)
}

// InMemoryProfileStore is a thread-safe in-process ProfileStore.
// Data is lost on restart.
type InMemoryProfileStore struct {
	mu       sync.RWMutex
	profiles map[string]*UserProfile
}

// NewInMemoryProfileStore creates an empty in-memory store.
func NewInMemoryProfileStore() *InMemoryProfileStore {
	return &InMemoryProfileStore{profiles: make(map[string]*UserProfile)}
}

func (s *InMemoryProfileStore) Get(userID string) (*UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, nil
	}
	cp := clone(p)
	return cp, nil
}

func (s *InMemoryProfileStore) Put(profile *UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.UserID] = clone(profile)
	return nil
}

// Update runs fn under the store lock, serializing read-modify-write
// cycles for every user id.
func (s *InMemoryProfileStore) Update(userID string, fn func(*UserProfile)) (*UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		p = NewUserProfile(userID)
		s.profiles[userID] = p
	}
	fn(p)
	return clone(p), nil
}

// clone copies a profile so callers cannot mutate stored state outside
// Update.
func clone(p *UserProfile) *UserProfile {
	cp := *p
	cp.CustomSafewords = append([]string(nil), p.CustomSafewords...)
	cp.HardLimits = append([]Boundary(nil), p.HardLimits...)
	cp.SoftLimits = append([]Boundary(nil), p.SoftLimits...)
	cp.ConsentHistory = append([]ConsentRecord(nil), p.ConsentHistory...)
	cp.FavoriteScenarios = append([]string(nil), p.FavoriteScenarios...)
	return &cp
}
