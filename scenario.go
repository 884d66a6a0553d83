package nocturne

import (
	"math"
	"math/rand"
	"strings"
	"sync"
)

// ──────────────────────────────────────────────
// Scenario Selector - filter, re-weight, weighted draw
// ──────────────────────────────────────────────

// Scenario is one immutable catalog entry.
type Scenario struct {
	ID              string           `json:"id"`
	Category        ScenarioCategory `json:"category"`
	Mood            string           `json:"mood"`
	Setting         string           `json:"setting"`
	InitialState    EmotionalState   `json:"initial_state"`
	BranchingPoints []string         `json:"branching_points"`
	ConsentLevel    ConsentLevel     `json:"consent_level"`
	KinkElements    []string         `json:"kink_elements"`
	SafetyProtocols []string         `json:"safety_protocols,omitempty"`
	Weight          float64          `json:"weight,omitempty"`
}

// UserContext carries the per-user signals the selector weighs.
type UserContext struct {
	TrustLevel         float64  `json:"trust_level"`
	InteractionCount   int      `json:"interaction_count"`
	PreferredIntensity float64  `json:"preferred_intensity"`
	HardLimits         []string `json:"hard_limits"`
	SoftLimits         []string `json:"soft_limits"`
	FavoriteScenarios  []string `json:"favorite_scenarios"`
	CurrentMood        string   `json:"current_mood,omitempty"`
}

// ContextFromProfile derives a UserContext from a stored profile.
func ContextFromProfile(p *UserProfile) UserContext {
	return UserContext{
		TrustLevel:         p.TrustScore,
		InteractionCount:   p.InteractionCount,
		PreferredIntensity: p.PreferredIntensity,
		HardLimits:         p.HardLimitItems(),
		SoftLimits:         p.SoftLimitItems(),
		FavoriteScenarios:  p.FavoriteScenarios,
	}
}

// BranchOption pairs a branching-point id with its description.
type BranchOption struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

var branchDescriptions = map[string]string{
	"trust_path":               "Build connection through conversation",
	"seduction_path":           "Explore attraction and desire",
	"curiosity_path":           "Engage in intellectual discussion",
	"escalate_physical":        "Intensify physical intimacy",
	"escalate_psychological":   "Deepen emotional connection",
	"retreat_tease":            "Pull back to build anticipation",
	"increase_intensity":       "Push boundaries further",
	"maintain_level":           "Continue at current intensity",
	"aftercare_transition":     "Begin care and recovery",
	"push_limits":              "Approach negotiated boundaries",
	"maintain_edge":            "Hold at peak sensation",
	"release_or_deny":          "Grant pleasure or continue denial",
	"share_trauma":             "Exchange vulnerable truths",
	"receive_comfort":          "Accept support and care",
	"mutual_healing":           "Work together toward wholeness",
	"reality_anchor":           "Ground in stable reality",
	"embrace_chaos":            "Dive deeper into the glitch",
	"system_reboot":            "Trigger full reset",
	"physical_comfort":         "Focus on physical care",
	"emotional_processing":     "Discuss and integrate experience",
	"integration":              "Synthesize the experience",
	"intensify_praise":         "Increase affirmation and worship",
	"add_worship_elements":     "Introduce devotional aspects",
	"transition_to_reward":     "Move to pleasure as reward",
	"verbal_degradation":       "Engage in consensual humiliation",
	"objectification":          "Explore use and objectification",
	"redemption_arc":           "Path to affirmation and recovery",
	"heighten_senses":          "Increase sensory intensity",
	"introduce_new_sensations": "Add novel experiences",
	"synesthetic_blend":        "Mix and merge sensory modes",
}

// ScenarioSelector chooses scenarios by filtering the catalog against the
// user's boundaries and trust, re-weighting by preference and
// familiarity, and drawing weighted-random from the survivors.
//
// The catalog is read-only after construction; the selector is safe for
// concurrent use.
type ScenarioSelector struct {
	catalog    []Scenario
	byID       map[string]Scenario
	weights    map[string]float64
	fallbackID string

	mu  sync.Mutex
	rng *rand.Rand
}

// NewScenarioSelector builds a selector over the given catalog config.
// The config must have passed Validate; in particular the fallback
// scenario must exist.
func NewScenarioSelector(catalog *ScenarioCatalog, rng *rand.Rand) *ScenarioSelector {
	s := &ScenarioSelector{
		catalog:    catalog.Scenarios,
		byID:       make(map[string]Scenario, len(catalog.Scenarios)),
		weights:    catalog.Weights,
		fallbackID: catalog.FallbackID,
		rng:        rng,
	}
	for _, sc := range catalog.Scenarios {
		s.byID[sc.ID] = sc
	}
	return s
}

// Get looks a scenario up by id. Unknown ids fall back to the default
// first-encounter scenario rather than failing the turn.
func (s *ScenarioSelector) Get(id string) Scenario {
	if sc, ok := s.byID[id]; ok {
		return sc
	}
	return s.byID[s.fallbackID]
}

// Select picks a scenario for the user. category and mood are optional
// filters; pass "" to leave them open. An empty filtered set falls back
// to the designated first-encounter scenario.
func (s *ScenarioSelector) Select(ctx UserContext, category ScenarioCategory, mood string) Scenario {
	available := s.filter(ctx, category, mood)
	if len(available) == 0 {
		return s.byID[s.fallbackID]
	}
	weights := make([]float64, len(available))
	for i, sc := range available {
		weights[i] = s.contextWeight(sc, ctx)
	}
	return available[s.weightedIndex(weights)]
}

func (s *ScenarioSelector) filter(ctx UserContext, category ScenarioCategory, mood string) []Scenario {
	hard := make(map[string]bool, len(ctx.HardLimits))
	for _, item := range ctx.HardLimits {
		hard[strings.ToLower(item)] = true
	}

	var filtered []Scenario
	for _, sc := range s.catalog {
		if category != "" && sc.Category != category {
			continue
		}
		if mood != "" && sc.Mood != mood {
			continue
		}
		if intersectsLimits(sc.KinkElements, hard) {
			continue
		}
		if sc.Category == CategoryEmotionalBonding && ctx.TrustLevel < 0.5 {
			continue
		}
		if sc.ConsentLevel == ConsentExplicitNegotiated && ctx.TrustLevel < 0.6 {
			continue
		}
		filtered = append(filtered, sc)
	}
	return filtered
}

func (s *ScenarioSelector) contextWeight(sc Scenario, ctx UserContext) float64 {
	w := s.baseWeight(sc)

	favorite := containsFold(ctx.FavoriteScenarios, sc.ID)
	if favorite {
		w *= 1.5
	}

	w *= intensityMatch(sc.Category, ctx.PreferredIntensity)

	soft := make(map[string]bool, len(ctx.SoftLimits))
	for _, item := range ctx.SoftLimits {
		soft[strings.ToLower(item)] = true
	}
	if intersectsLimits(sc.KinkElements, soft) {
		w *= 0.5
	}

	// Novelty boost for experienced users.
	if ctx.InteractionCount > 10 && !favorite {
		w *= 1.2
	}
	return w
}

func (s *ScenarioSelector) baseWeight(sc Scenario) float64 {
	if w, ok := s.weights[sc.ID]; ok {
		return w
	}
	if sc.Weight > 0 {
		return sc.Weight
	}
	return 1.0
}

// intensityMatch scores how close a scenario's nominal intensity is to
// the user's preference, floored at 0.3 to keep every scenario viable.
func intensityMatch(category ScenarioCategory, preferred float64) float64 {
	nominal, ok := categoryIntensity[category]
	if !ok {
		nominal = 0.5
	}
	return math.Max(0.3, 1.0-math.Abs(nominal-preferred))
}

func (s *ScenarioSelector) weightedIndex(weights []float64) int {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	s.mu.Lock()
	r := s.rng.Float64() * total
	s.mu.Unlock()
	for i, w := range weights {
		r -= w
		if r < 0 {
			return i
		}
	}
	return len(weights) - 1
}

// BranchingOptions returns the scenario's declared branch points with
// their descriptions, falling back to a generic line for unknown ids.
func (s *ScenarioSelector) BranchingOptions(sc Scenario) []BranchOption {
	options := make([]BranchOption, 0, len(sc.BranchingPoints))
	for _, branch := range sc.BranchingPoints {
		desc, ok := branchDescriptions[branch]
		if !ok {
			desc = "Continue the experience"
		}
		options = append(options, BranchOption{ID: branch, Description: desc})
	}
	return options
}

func intersectsLimits(elements []string, limits map[string]bool) bool {
	for _, e := range elements {
		if limits[strings.ToLower(e)] {
			return true
		}
	}
	return false
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
