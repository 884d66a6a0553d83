package nocturne

import (
	"strings"
)

// ──────────────────────────────────────────────
// Operational modes + ordered auto-switching
// ──────────────────────────────────────────────

// OperationalMode is one behavioral configuration of the persona.
type OperationalMode struct {
	ID                 string             `json:"id"`
	TraitModifiers     map[string]float64 `json:"trait_modifiers"`
	Default            bool               `json:"default,omitempty"`
	ActivationTriggers []string           `json:"activation_triggers"`
}

// ModeTransition is the outcome of applying a mode switch.
type ModeTransition struct {
	FromMode    string             `json:"from_mode"`
	ToMode      string             `json:"to_mode"`
	Trigger     string             `json:"trigger"`
	Message     string             `json:"message"`
	Modifiers   map[string]float64 `json:"modifiers"`
	TraitDeltas map[string]float64 `json:"trait_deltas"`
	Intensity   float64            `json:"intensity"`
	Duration    float64            `json:"duration_seconds"`
}

// modeTrigger binds a trigger id to the keywords and emotional states
// that fire it.
type modeTrigger struct {
	keywords []string
	states   []EmotionalState
}

var modeTriggers = map[string]modeTrigger{
	"user_submission":        {keywords: []string{"submit", "obey", "serve", "yours"}},
	"explicit_request":       {keywords: []string{"i want", "please", "need you to"}},
	"user_distress":          {keywords: []string{"sad", "hurt", "scared", "anxious"}},
	"aftercare_needed":       {keywords: []string{"hold me", "comfort", "care"}},
	"vulnerability_detected": {keywords: []string{"afraid", "insecure", "vulnerable"}},
	"explicit_consent":       {keywords: []string{"yes", "i consent", "i agree"}},
	"masochist_detected":     {keywords: []string{"pain", "hurt me", "punish"}},
	"intense_scenario":       {states: []EmotionalState{StateAroused, StateCommanding}},
	"high_intensity":         {states: []EmotionalState{StateGlitching}},
	"reality_questioning":    {keywords: []string{"real", "exist", "what am i"}},
	"mutual_vulnerability":   {keywords: []string{"i feel", "i'm afraid", "tell me"}},
}

// transitionMessages keys on "from:to"; "any" matches every source mode.
var transitionMessages = map[string]string{
	"standard_interaction:dominant_mode": "I feel the shift in our dynamic... how deliciously submissive of you.",
	"dominant_mode:nurturing_mode":       "Come here. Let me take care of you now.",
	"any:glitch_mode":                    "S-something's... ch-changing... reality f-fragmenting...",
	"nurturing_mode:dominant_mode":       "Enough softness. You need a firmer hand now.",
	"standard_interaction:intimate_mode": "The space between us grows smaller... more honest.",
}

const defaultTransitionMessage = "The energy shifts as we move into a different space..."

// ModeSwitcher evaluates trigger conditions in catalog order and applies
// transitions. Catalog order is the priority order: the first mode whose
// trigger fires wins, so reordering the catalog changes behavior.
type ModeSwitcher struct {
	modes             []OperationalMode
	byID              map[string]OperationalMode
	defaultID         string
	enabled           bool
	sensitivity       float64
	transitionSeconds float64
}

// NewModeSwitcher builds a switcher over a validated mode catalog.
func NewModeSwitcher(catalog *ModeCatalog) *ModeSwitcher {
	m := &ModeSwitcher{
		modes:             catalog.Modes,
		byID:              make(map[string]OperationalMode, len(catalog.Modes)),
		enabled:           catalog.AutoSwitching.Enabled,
		sensitivity:       catalog.AutoSwitching.Sensitivity,
		transitionSeconds: catalog.AutoSwitching.TransitionSeconds,
	}
	for _, mode := range catalog.Modes {
		m.byID[mode.ID] = mode
		if mode.Default {
			m.defaultID = mode.ID
		}
	}
	return m
}

// DefaultMode returns the catalog's designated default mode id.
func (m *ModeSwitcher) DefaultMode() string {
	return m.defaultID
}

// Get returns the mode with the given id, falling back to the default.
func (m *ModeSwitcher) Get(id string) OperationalMode {
	if mode, ok := m.byID[id]; ok {
		return mode
	}
	return m.byID[m.defaultID]
}

// ShouldSwitch walks the catalog in priority order and returns the first
// mode other than the current one whose trigger fires, along with the
// trigger id. It returns ok=false when nothing fires or auto switching
// is disabled.
func (m *ModeSwitcher) ShouldSwitch(current string, input string, state EmotionalState) (OperationalMode, string, bool) {
	if !m.enabled {
		return OperationalMode{}, "", false
	}
	low := strings.ToLower(input)
	for _, mode := range m.modes {
		if mode.ID == current {
			continue
		}
		for _, trigger := range mode.ActivationTriggers {
			if m.triggerFires(trigger, low, state) {
				return mode, trigger, true
			}
		}
	}
	return OperationalMode{}, "", false
}

func (m *ModeSwitcher) triggerFires(trigger, lowInput string, state EmotionalState) bool {
	cond, ok := modeTriggers[trigger]
	if !ok {
		return false
	}
	for _, kw := range cond.keywords {
		if strings.Contains(lowInput, kw) {
			return true
		}
	}
	for _, s := range cond.states {
		if state == s {
			return true
		}
	}
	return false
}

// ApplyTransition produces the transition record for moving from the
// current mode to target: the narrated transition message, the target's
// trait modifiers, and per-trait deltas relative to the current mode.
// Traits absent from either mode default to a neutral 0.7.
func (m *ModeSwitcher) ApplyTransition(current string, target OperationalMode, trigger string) ModeTransition {
	msg, ok := transitionMessages[current+":"+target.ID]
	if !ok {
		msg, ok = transitionMessages["any:"+target.ID]
	}
	if !ok {
		msg = defaultTransitionMessage
	}
	return ModeTransition{
		FromMode:    current,
		ToMode:      target.ID,
		Trigger:     trigger,
		Message:     msg,
		Modifiers:   target.TraitModifiers,
		TraitDeltas: traitDeltas(m.Get(current), target),
		Intensity:   modeTrait(target, "intensity"),
		Duration:    m.transitionSeconds,
	}
}

func traitDeltas(from, to OperationalMode) map[string]float64 {
	deltas := make(map[string]float64)
	for trait := range from.TraitModifiers {
		deltas[trait] = modeTrait(to, trait) - modeTrait(from, trait)
	}
	for trait := range to.TraitModifiers {
		if _, seen := deltas[trait]; !seen {
			deltas[trait] = modeTrait(to, trait) - modeTrait(from, trait)
		}
	}
	return deltas
}

// modeTrait reads one trait value, defaulting to 0.7.
func modeTrait(mode OperationalMode, trait string) float64 {
	if v, ok := mode.TraitModifiers[trait]; ok {
		return v
	}
	return 0.7
}
