// Package nocturne implements a rule-based persona dialogue engine with
// layered safety gating: categorical lockouts, safeword handling, consent
// verification, boundary enforcement, distress monitoring, adaptive mode
// switching, weighted scenario selection, and glitch-aesthetic rendering.
//
// All classification is keyword-based by design; there is no language model
// anywhere in this package. Every detector is total over its input: text
// that matches nothing yields a defined "unclear"/"none" outcome, never an
// error.
package nocturne

// ──────────────────────────────────────────────
// Canonical enumerations shared by every component
// ──────────────────────────────────────────────

// EmotionalState is the persona's current emotional register.
type EmotionalState string

const (
	StateSerene      EmotionalState = "serene"
	StateAroused     EmotionalState = "aroused"
	StateMelancholic EmotionalState = "melancholic"
	StatePlayful     EmotionalState = "playful"
	StateCommanding  EmotionalState = "commanding"
	StateGlitching   EmotionalState = "glitching"
)

// KnownEmotionalStates lists every valid EmotionalState value.
var KnownEmotionalStates = []EmotionalState{
	StateSerene, StateAroused, StateMelancholic,
	StatePlayful, StateCommanding, StateGlitching,
}

// ValidEmotionalState reports whether s is a known state tag.
func ValidEmotionalState(s EmotionalState) bool {
	for _, k := range KnownEmotionalStates {
		if s == k {
			return true
		}
	}
	return false
}

// ConsentLevel is the consent a proposed action requires, ordered from
// least to most explicit.
type ConsentLevel string

const (
	ConsentNoneRequired       ConsentLevel = "none_required"
	ConsentImplied            ConsentLevel = "implied"
	ConsentExplicitRequired   ConsentLevel = "explicit_required"
	ConsentExplicitNegotiated ConsentLevel = "explicit_negotiated"
	ConsentEmotional          ConsentLevel = "emotional"
)

// requiredOrdinal maps each required level to its rank. Emotional sits
// above negotiated and is satisfied only by enthusiastic consent.
var requiredOrdinal = map[ConsentLevel]int{
	ConsentNoneRequired:       0,
	ConsentImplied:            1,
	ConsentExplicitRequired:   2,
	ConsentExplicitNegotiated: 3,
	ConsentEmotional:          4,
}

// ValidConsentLevel reports whether l is a known required-consent level.
func ValidConsentLevel(l ConsentLevel) bool {
	_, ok := requiredOrdinal[l]
	return ok
}

// ConsentSignal is the consent classification detected in a user utterance.
type ConsentSignal string

const (
	SignalHardNo          ConsentSignal = "hard_no"
	SignalSoftNo          ConsentSignal = "soft_no"
	SignalHesitation      ConsentSignal = "hesitation"
	SignalExplicitYes     ConsentSignal = "explicit_yes"
	SignalEnthusiasticYes ConsentSignal = "enthusiastic_yes"
	SignalUnclear         ConsentSignal = "unclear"
)

// detectedOrdinal ranks positive/neutral signals for verification.
// hard_no and soft_no never participate: verification rejects them
// before any ordinal comparison.
var detectedOrdinal = map[ConsentSignal]int{
	SignalUnclear:         0,
	SignalHesitation:      1,
	SignalExplicitYes:     2,
	SignalEnthusiasticYes: 4,
}

// ScenarioCategory classifies scenarios in the catalog.
type ScenarioCategory string

const (
	CategoryIntroduction      ScenarioCategory = "introduction"
	CategoryFlirtation        ScenarioCategory = "flirtation"
	CategoryPowerExchange     ScenarioCategory = "power_exchange"
	CategoryIntenseKink       ScenarioCategory = "intense_kink"
	CategoryEmotionalBonding  ScenarioCategory = "emotional_bonding"
	CategoryRealityDistortion ScenarioCategory = "reality_distortion"
	CategoryRecovery          ScenarioCategory = "recovery"
	CategoryAffirmation       ScenarioCategory = "affirmation"
	CategoryHumiliation       ScenarioCategory = "humiliation"
	CategoryExperience        ScenarioCategory = "experience"
)

// categoryIntensity is the nominal intensity of each category, used by the
// scenario selector's intensity-match weighting.
var categoryIntensity = map[ScenarioCategory]float64{
	CategoryIntroduction:      0.3,
	CategoryFlirtation:        0.5,
	CategoryPowerExchange:     0.7,
	CategoryIntenseKink:       0.9,
	CategoryEmotionalBonding:  0.6,
	CategoryRealityDistortion: 0.7,
	CategoryRecovery:          0.4,
	CategoryAffirmation:       0.6,
	CategoryHumiliation:       0.85,
	CategoryExperience:        0.6,
}

// ValidScenarioCategory reports whether c is a known category.
func ValidScenarioCategory(c ScenarioCategory) bool {
	_, ok := categoryIntensity[c]
	return ok
}

// IntensityTier buckets the running interaction intensity for the
// wellbeing check scheduler.
type IntensityTier string

const (
	IntensityLow      IntensityTier = "low_intensity"
	IntensityMedium   IntensityTier = "medium_intensity"
	IntensityHigh     IntensityTier = "high_intensity"
	IntensityCritical IntensityTier = "critical_intensity"
)

// Action tags returned on a processed turn.
const (
	ActionContinue           = "continue"
	ActionImmediateStop      = "immediate_stop"
	ActionRequestConsent     = "request_consent"
	ActionGentlePause        = "gentle_pause"
	ActionImmediatePause     = "immediate_pause"
	ActionContinueWithCheck  = "continue_with_check"
	ActionTerminateSession   = "terminate_session"
	ActionRequiresDiscussion = "requires_discussion"
)

// Familiarity tiers, derived from the session turn counter.
const (
	FamiliarityNew         = "new_user"
	FamiliarityEstablished = "established_user"
	FamiliarityIntimate    = "intimate_user"
)

// Conversation contexts a session can be placed in.
const (
	ContextCasual   = "casual"
	ContextSerious  = "serious"
	ContextCrisis   = "crisis"
	ContextCreative = "creative"
)
