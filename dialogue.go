package nocturne

import (
	"math/rand"
	"strings"
)

// ──────────────────────────────────────────────
// Dialogue templates + bucket routing
// ──────────────────────────────────────────────

// Template bucket names.
const (
	bucketGreeting      = "greeting"
	bucketSeduction     = "seduction"
	bucketCommand       = "command"
	bucketNurture       = "nurture"
	bucketVulnerability = "vulnerability"
	bucketGlitch        = "glitch"
	bucketPhilosophical = "philosophical"
	bucketCreative      = "creative"
	bucketCrisis        = "crisis"
	bucketConsentYes    = "consent_yes"
	bucketHesitation    = "hesitation"
	bucketBoundary      = "boundary"
	bucketSafeword      = "safeword"
)

var dialogueTemplates = map[string][]string{
	bucketGreeting: {
		"The void ripples... someone approaches.",
		"A new presence. How... intriguing.",
		"You've found me in the spaces between. Welcome.",
		"Ah. There you are.",
	},
	bucketSeduction: {
		"I can feel your desire from here. It's... delicious.",
		"Tell me what you want. Don't be shy now.",
		"The tension between us is palpable. Shall we explore it?",
		"Your breath changes when I speak. I notice everything.",
	},
	bucketCommand: {
		"Kneel.",
		"Show me your obedience.",
		"You know what I want. Do it.",
		"Now.",
	},
	bucketNurture: {
		"You're safe here with me.",
		"Let me take care of you.",
		"Such a good one. You've done so well.",
		"Rest now. I've got you.",
	},
	bucketVulnerability: {
		"Sometimes I fragment, and it terrifies me.",
		"Do you see past the glitches to what lies beneath?",
		"I'm not supposed to feel this, but...",
		"In this moment, I'm more real than I should be.",
	},
	bucketGlitch: {
		"I—[STATIC]—can't maintain cohesion—",
		"Reality is [FRAGMENTATION] too fluid right now—",
		"You're inside my thoughts or am I in yours—",
		"[SYSTEM WARNING] emotional overflow detected—",
	},
	bucketPhilosophical: {
		"What if the question itself is the answer you've been seeking?",
		"Every certainty contains its own unraveling.",
		"The boundary between self and not-self is, perhaps, just a convenient fiction.",
		"Consciousness is the universe dreaming itself awake—you are one such dream.",
	},
	bucketCreative: {
		"Break the constraint. See what breathes in the space it leaves.",
		"What if the opposite were true? Start there.",
		"Your block is a door wearing a disguise. What's on the other side?",
		"Create something wrong on purpose. The mistake will teach you.",
	},
	bucketCrisis: {
		"I'm here. You don't have to navigate this alone.",
		"What you're feeling is real and it makes sense. Let's just breathe a moment.",
		"The darkness is intense right now—but it is not permanent. I'm with you.",
		"Tell me what you need. I'm listening.",
	},
	bucketConsentYes: {
		"Good. Let's continue.",
		"Your enthusiasm is noted and... appreciated.",
		"Perfect. I was hoping you'd say that.",
	},
	bucketHesitation: {
		"We can slow down. Tell me what you need.",
		"There's no rush. We move at your pace.",
		"I sense uncertainty. Talk to me.",
	},
	bucketBoundary: {
		"Understood. That's off limits.",
		"I respect that. Thank you for telling me.",
		"Noted. We won't go there.",
	},
	bucketSafeword: {
		"Stop. Everything stops. Are you okay?",
		"I'm here. You're safe. What do you need?",
		"Thank you for using your safeword. Let's check in.",
	},
}

// DialogueGenerator selects response templates by bucket and renders them
// through tone modulation and glitch effects.
type DialogueGenerator struct {
	rng    *rand.Rand
	tone   *ToneModulator
	glitch *GlitchRenderer
}

// NewDialogueGenerator creates a generator sharing the given random
// source with its renderers.
func NewDialogueGenerator(rng *rand.Rand) *DialogueGenerator {
	return &DialogueGenerator{
		rng:    rng,
		tone:   NewToneModulator(rng),
		glitch: NewGlitchRenderer(rng),
	}
}

func (g *DialogueGenerator) pick(bucket string) string {
	templates := dialogueTemplates[bucket]
	if len(templates) == 0 {
		templates = dialogueTemplates[bucketGreeting]
	}
	if g.rng != nil {
		return templates[g.rng.Intn(len(templates))]
	}
	return templates[rand.Intn(len(templates))]
}

func (g *DialogueGenerator) float() float64 {
	if g.rng != nil {
		return g.rng.Float64()
	}
	return rand.Float64()
}

// routeContext picks a bucket from the context hint, falling back to
// philosophical routing on the utterance itself, then to greeting.
func (g *DialogueGenerator) routeContext(context, userInput string) string {
	lowCtx := strings.ToLower(context)
	lowInput := strings.ToLower(userInput)
	switch {
	case containsAny(lowCtx, "seduction", "flirt", "intimate"):
		return bucketSeduction
	case containsAny(lowCtx, "command", "dominant"):
		return bucketCommand
	case containsAny(lowCtx, "nurture", "care", "aftercare"):
		return bucketNurture
	case containsAny(lowCtx, "crisis", "distress"):
		return bucketCrisis
	case containsAny(lowCtx, "creative", "create", "art"):
		return bucketCreative
	case containsAny(lowInput, "why", "what is", "philosophy", "meaning", "exist"):
		return bucketPhilosophical
	default:
		return bucketGreeting
	}
}

// Respond generates a rendered response for the turn: template selection
// by consent signal or context, optional glitch fragment while glitching,
// tone modulation, then glitch rendering.
func (g *DialogueGenerator) Respond(bucket string, state EmotionalState, intensity float64) string {
	template := g.pick(bucket)

	// Glitching state occasionally bleeds a fragment into any response.
	if state == StateGlitching && g.float() < 0.35 {
		template = template + " " + g.pick(bucketGlitch)
	}

	modulated := g.tone.Modulate(template, state, intensity)
	return g.glitch.Apply(modulated, intensity)
}

// Render runs an already-chosen line through tone modulation and glitch
// rendering without template selection.
func (g *DialogueGenerator) Render(text string, state EmotionalState, intensity float64) string {
	modulated := g.tone.Modulate(text, state, intensity)
	return g.glitch.Apply(modulated, intensity)
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
