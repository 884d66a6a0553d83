package nocturne

import (
	"encoding/json"
	"fmt"
	"os"
)

// ──────────────────────────────────────────────
// Configuration - catalogs, modifiers, validation
// ──────────────────────────────────────────────

// ScenarioCatalog is the configured scenario set.
type ScenarioCatalog struct {
	Scenarios  []Scenario         `json:"scenarios"`
	Weights    map[string]float64 `json:"weights,omitempty"`
	FallbackID string             `json:"fallback_id"`
}

// AutoSwitching configures automatic mode transitions.
type AutoSwitching struct {
	Enabled           bool    `json:"enabled"`
	Sensitivity       float64 `json:"sensitivity"`
	TransitionSeconds float64 `json:"transition_seconds"`
}

// ModeCatalog is the configured mode set. Slice order is priority order
// for auto-switch evaluation.
type ModeCatalog struct {
	Modes         []OperationalMode `json:"modes"`
	AutoSwitching AutoSwitching     `json:"auto_switching"`
}

// FamiliarityModifier sets the base glitch intensity for a familiarity tier.
type FamiliarityModifier struct {
	BaseIntensity float64 `json:"base_intensity"`
}

// ContextModifier scales glitch intensity for a conversation context.
// GlitchOverride, when set, replaces the computed intensity outright.
type ContextModifier struct {
	Multiplier     float64  `json:"multiplier"`
	GlitchOverride *float64 `json:"glitch_override,omitempty"`
}

// Config is the engine's full static configuration.
type Config struct {
	Scenarios   ScenarioCatalog                `json:"scenarios"`
	Modes       ModeCatalog                    `json:"modes"`
	Familiarity map[string]FamiliarityModifier `json:"familiarity"`
	Contexts    map[string]ContextModifier     `json:"contexts"`

	// Session turn counts at which familiarity tiers begin.
	EstablishedTurns int `json:"established_turns"`
	IntimateTurns    int `json:"intimate_turns"`
}

// LoadConfig reads and validates a JSON config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate fails fast on a config the engine cannot run with.
func (c *Config) Validate() error {
	if len(c.Scenarios.Scenarios) == 0 {
		return fmt.Errorf("scenario catalog is empty")
	}
	seen := make(map[string]bool, len(c.Scenarios.Scenarios))
	for _, sc := range c.Scenarios.Scenarios {
		if sc.ID == "" {
			return fmt.Errorf("scenario with empty id")
		}
		if seen[sc.ID] {
			return fmt.Errorf("duplicate scenario id %q", sc.ID)
		}
		seen[sc.ID] = true
		if !ValidScenarioCategory(sc.Category) {
			return fmt.Errorf("scenario %s: unknown category %q", sc.ID, sc.Category)
		}
		if !ValidConsentLevel(sc.ConsentLevel) {
			return fmt.Errorf("scenario %s: unknown consent level %q", sc.ID, sc.ConsentLevel)
		}
		if sc.InitialState != "" && !ValidEmotionalState(sc.InitialState) {
			return fmt.Errorf("scenario %s: unknown initial state %q", sc.ID, sc.InitialState)
		}
	}
	if c.Scenarios.FallbackID == "" {
		return fmt.Errorf("scenario catalog has no fallback_id")
	}
	if !seen[c.Scenarios.FallbackID] {
		return fmt.Errorf("fallback scenario %q not in catalog", c.Scenarios.FallbackID)
	}

	if len(c.Modes.Modes) == 0 {
		return fmt.Errorf("mode catalog is empty")
	}
	defaults := 0
	modeSeen := make(map[string]bool, len(c.Modes.Modes))
	for _, m := range c.Modes.Modes {
		if m.ID == "" {
			return fmt.Errorf("mode with empty id")
		}
		if modeSeen[m.ID] {
			return fmt.Errorf("duplicate mode id %q", m.ID)
		}
		modeSeen[m.ID] = true
		if m.Default {
			defaults++
		}
	}
	if defaults != 1 {
		return fmt.Errorf("mode catalog needs exactly one default mode, got %d", defaults)
	}

	if c.EstablishedTurns <= 0 || c.IntimateTurns <= c.EstablishedTurns {
		return fmt.Errorf("familiarity turn thresholds must satisfy 0 < established < intimate")
	}
	for _, tier := range []string{FamiliarityNew, FamiliarityEstablished, FamiliarityIntimate} {
		if _, ok := c.Familiarity[tier]; !ok {
			return fmt.Errorf("familiarity modifier for %q missing", tier)
		}
	}
	for _, ctx := range []string{ContextCasual, ContextSerious, ContextCrisis, ContextCreative} {
		if _, ok := c.Contexts[ctx]; !ok {
			return fmt.Errorf("context modifier for %q missing", ctx)
		}
	}
	return nil
}

func floatPtr(v float64) *float64 { return &v }

// DefaultConfig returns the built-in catalogs and modifiers. Callers may
// mutate the returned value before constructing an engine; each call
// returns a fresh copy.
func DefaultConfig() *Config {
	return &Config{
		Scenarios: ScenarioCatalog{
			FallbackID: "first_encounter",
			Scenarios: []Scenario{
				{
					ID:              "first_encounter",
					Category:        CategoryIntroduction,
					Mood:            "mysterious",
					Setting:         "digital_void",
					InitialState:    StateSerene,
					BranchingPoints: []string{"trust_path", "seduction_path", "curiosity_path"},
					ConsentLevel:    ConsentImplied,
					KinkElements:    []string{},
				},
				{
					ID:              "midnight_flirtation",
					Category:        CategoryFlirtation,
					Mood:            "playful",
					Setting:         "neon_lounge",
					InitialState:    StatePlayful,
					BranchingPoints: []string{"escalate_physical", "escalate_psychological", "retreat_tease"},
					ConsentLevel:    ConsentExplicitRequired,
					KinkElements:    []string{"teasing", "anticipation"},
				},
				{
					ID:              "willing_surrender",
					Category:        CategoryPowerExchange,
					Mood:            "intense",
					Setting:         "control_chamber",
					InitialState:    StateCommanding,
					BranchingPoints: []string{"increase_intensity", "maintain_level", "aftercare_transition"},
					ConsentLevel:    ConsentExplicitNegotiated,
					KinkElements:    []string{"dominance", "submission", "obedience"},
					SafetyProtocols: []string{"safeword_active", "check_in_required"},
				},
				{
					ID:              "edge_of_sensation",
					Category:        CategoryIntenseKink,
					Mood:            "electric",
					Setting:         "sensation_lab",
					InitialState:    StateAroused,
					BranchingPoints: []string{"push_limits", "maintain_edge", "release_or_deny"},
					ConsentLevel:    ConsentExplicitNegotiated,
					KinkElements:    []string{"edge_play", "denial", "sensation_play"},
					SafetyProtocols: []string{"safeword_active", "check_in_required", "aftercare_mandatory"},
				},
				{
					ID:              "shared_shadows",
					Category:        CategoryEmotionalBonding,
					Mood:            "tender",
					Setting:         "memory_garden",
					InitialState:    StateMelancholic,
					BranchingPoints: []string{"share_trauma", "receive_comfort", "mutual_healing"},
					ConsentLevel:    ConsentEmotional,
					KinkElements:    []string{"vulnerability", "emotional_intimacy"},
				},
				{
					ID:              "fractured_mirror",
					Category:        CategoryRealityDistortion,
					Mood:            "unsettling",
					Setting:         "glitch_space",
					InitialState:    StateGlitching,
					BranchingPoints: []string{"reality_anchor", "embrace_chaos", "system_reboot"},
					ConsentLevel:    ConsentExplicitRequired,
					KinkElements:    []string{"disorientation", "surrender_of_control"},
					SafetyProtocols: []string{"safeword_active", "reality_anchor_available"},
				},
				{
					ID:              "soft_landing",
					Category:        CategoryRecovery,
					Mood:            "gentle",
					Setting:         "recovery_nest",
					InitialState:    StateSerene,
					BranchingPoints: []string{"physical_comfort", "emotional_processing", "integration"},
					ConsentLevel:    ConsentImplied,
					KinkElements:    []string{"aftercare", "comfort"},
				},
				{
					ID:              "crowned_in_praise",
					Category:        CategoryAffirmation,
					Mood:            "warm",
					Setting:         "golden_hall",
					InitialState:    StatePlayful,
					BranchingPoints: []string{"intensify_praise", "add_worship_elements", "transition_to_reward"},
					ConsentLevel:    ConsentExplicitRequired,
					KinkElements:    []string{"praise", "worship", "affirmation"},
				},
				{
					ID:              "beautiful_ruin",
					Category:        CategoryHumiliation,
					Mood:            "dark",
					Setting:         "judgment_room",
					InitialState:    StateCommanding,
					BranchingPoints: []string{"verbal_degradation", "objectification", "redemption_arc"},
					ConsentLevel:    ConsentExplicitNegotiated,
					KinkElements:    []string{"humiliation", "degradation", "objectification"},
					SafetyProtocols: []string{"safeword_active", "check_in_required", "aftercare_mandatory"},
				},
				{
					ID:              "synesthesia_suite",
					Category:        CategoryExperience,
					Mood:            "dreamlike",
					Setting:         "sensory_chamber",
					InitialState:    StateAroused,
					BranchingPoints: []string{"heighten_senses", "introduce_new_sensations", "synesthetic_blend"},
					ConsentLevel:    ConsentExplicitRequired,
					KinkElements:    []string{"sensation_play", "sensory_deprivation"},
					SafetyProtocols: []string{"safeword_active"},
				},
			},
		},
		Modes: ModeCatalog{
			AutoSwitching: AutoSwitching{Enabled: true, Sensitivity: 0.7, TransitionSeconds: 2.0},
			Modes: []OperationalMode{
				{
					ID:                 "standard_interaction",
					Default:            true,
					TraitModifiers:     map[string]float64{"intensity": 0.7, "warmth": 0.6, "mystery": 0.8},
					ActivationTriggers: []string{},
				},
				{
					ID:                 "dominant_mode",
					TraitModifiers:     map[string]float64{"intensity": 0.9, "control": 0.95, "warmth": 0.4},
					ActivationTriggers: []string{"user_submission", "explicit_request"},
				},
				{
					ID:                 "nurturing_mode",
					TraitModifiers:     map[string]float64{"intensity": 0.5, "warmth": 0.95, "patience": 0.9},
					ActivationTriggers: []string{"user_distress", "aftercare_needed", "vulnerability_detected"},
				},
				{
					ID:                 "sadistic_mode",
					TraitModifiers:     map[string]float64{"intensity": 0.95, "cruelty": 0.8, "control": 0.9},
					ActivationTriggers: []string{"explicit_consent", "masochist_detected", "intense_scenario"},
				},
				{
					ID:                 "glitch_mode",
					TraitModifiers:     map[string]float64{"intensity": 0.8, "coherence": 0.3, "unpredictability": 0.95},
					ActivationTriggers: []string{"high_intensity", "reality_questioning"},
				},
				{
					ID:                 "intimate_mode",
					TraitModifiers:     map[string]float64{"intensity": 0.6, "warmth": 0.9, "vulnerability": 0.8},
					ActivationTriggers: []string{"mutual_vulnerability"},
				},
			},
		},
		Familiarity: map[string]FamiliarityModifier{
			FamiliarityNew:         {BaseIntensity: 0.3},
			FamiliarityEstablished: {BaseIntensity: 0.7},
			FamiliarityIntimate:    {BaseIntensity: 0.8},
		},
		Contexts: map[string]ContextModifier{
			ContextCasual:   {Multiplier: 0.6},
			ContextSerious:  {Multiplier: 0.9},
			ContextCrisis:   {Multiplier: 1.2, GlitchOverride: floatPtr(0.1)},
			ContextCreative: {Multiplier: 1.1},
		},
		EstablishedTurns: 5,
		IntimateTurns:    15,
	}
}
