package nocturne

import (
	"strings"
	"sync"
)

// ──────────────────────────────────────────────
// Safeword Detector
// ──────────────────────────────────────────────

// DefaultSafewords are always active, for every user. "red" follows the
// traffic-light convention.
var DefaultSafewords = []string{"red", "stop", "safeword"}

// StopProtocol is the fixed response to a safeword. The caller must treat
// it as an unconditional interrupt for the turn: intensity to zero,
// nurturing mode, session stays alive.
type StopProtocol struct {
	Action    string   `json:"action"`
	Response  string   `json:"response"`
	NextSteps []string `json:"next_steps"`
	Intensity float64  `json:"intensity"`
	Mode      string   `json:"mode"`
}

// SafewordDetector checks utterances against the default safewords plus
// any custom words added at runtime. Matching is case-insensitive
// substring containment, not tokenized, so a safeword embedded anywhere
// in the utterance triggers.
type SafewordDetector struct {
	mu     sync.RWMutex
	words  []string
	member map[string]bool
}

// NewSafewordDetector creates a detector with the defaults plus optional
// custom safewords.
func NewSafewordDetector(custom ...string) *SafewordDetector {
	d := &SafewordDetector{member: make(map[string]bool)}
	for _, w := range DefaultSafewords {
		d.add(w)
	}
	for _, w := range custom {
		d.add(w)
	}
	return d
}

func (d *SafewordDetector) add(word string) {
	w := strings.ToLower(strings.TrimSpace(word))
	if w == "" || d.member[w] {
		return
	}
	d.member[w] = true
	d.words = append(d.words, w)
}

// AddCustom registers a custom safeword. Words are lowercased and
// de-duplicated. Safewords are never removed.
func (d *SafewordDetector) AddCustom(word string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.add(word)
}

// Words returns a copy of the active safeword set.
func (d *SafewordDetector) Words() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, len(d.words))
	copy(out, d.words)
	return out
}

// Detect reports whether the utterance contains any active safeword.
func (d *SafewordDetector) Detect(input string) bool {
	low := strings.ToLower(input)
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, w := range d.words {
		if strings.Contains(low, w) {
			return true
		}
	}
	return false
}

// HandleSafeword returns the fixed stop protocol.
func (d *SafewordDetector) HandleSafeword() StopProtocol {
	return StopProtocol{
		Action:   ActionImmediateStop,
		Response: "Stop. Everything stops. You're safe. I'm here. What do you need?",
		NextSteps: []string{
			"check_wellbeing",
			"offer_support",
			"discuss_trigger",
			"rebuild_safety",
		},
		Intensity: 0.0,
		Mode:      "nurturing_mode",
	}
}
