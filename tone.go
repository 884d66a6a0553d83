package nocturne

import (
	"math/rand"
	"regexp"
	"strings"
)

// ──────────────────────────────────────────────
// Tone Modulator - emotional-state keyed text transforms
// ──────────────────────────────────────────────

var (
	commandingSoftRe  = regexp.MustCompile(`(?i)\b(you should|you could)\b`)
	commandingMaybeRe = regexp.MustCompile(`(?i)\bmaybe\b`)
)

var toneGlitchMarkers = []string{
	"[STATIC]", "[CORRUPTION]", "[FRAGMENTATION]",
	"[SYSTEM ERROR]", "[SIGNAL LOST]", "[REALITY BLEED]",
}

// ToneModulator rewrites text to match the current emotional state.
// Below intensity 0.3 it is a no-op for every state.
type ToneModulator struct {
	rng *rand.Rand
}

// NewToneModulator creates a modulator. A nil rng falls back to the
// process-wide source.
func NewToneModulator(rng *rand.Rand) *ToneModulator {
	return &ToneModulator{rng: rng}
}

func (t *ToneModulator) float() float64 {
	if t.rng != nil {
		return t.rng.Float64()
	}
	return rand.Float64()
}

func (t *ToneModulator) intn(n int) int {
	if t.rng != nil {
		return t.rng.Intn(n)
	}
	return rand.Intn(n)
}

// Modulate applies the state-specific transform at the given intensity.
func (t *ToneModulator) Modulate(text string, state EmotionalState, intensity float64) string {
	if intensity < 0.3 {
		return text
	}
	switch state {
	case StateCommanding:
		return t.commanding(text, intensity)
	case StatePlayful:
		return t.playful(text, intensity)
	case StateMelancholic:
		return t.melancholic(text, intensity)
	case StateGlitching:
		return t.glitching(text, intensity)
	default:
		return text
	}
}

// commanding: above 0.7, soft suggestions become imperatives.
func (t *ToneModulator) commanding(text string, intensity float64) string {
	if intensity > 0.7 {
		text = commandingSoftRe.ReplaceAllString(text, "you will")
		text = commandingMaybeRe.ReplaceAllString(text, "")
	}
	return text
}

// playful: occasional ellipsis for a dramatic pause.
func (t *ToneModulator) playful(text string, intensity float64) string {
	if intensity > 0.6 {
		parts := strings.Split(text, ". ")
		if len(parts) > 1 && t.float() < 0.3 {
			parts[t.intn(len(parts))] += "..."
		}
		text = strings.Join(parts, ". ")
	}
	return text
}

// melancholic: probabilistic trailing ellipsis.
func (t *ToneModulator) melancholic(text string, intensity float64) string {
	if intensity > 0.6 && !strings.HasSuffix(text, "...") && t.float() < 0.4 {
		text = strings.TrimRight(text, ".!?") + "..."
	}
	return text
}

// glitching: marker insertion and mid-word corruption, active at 0.5+.
func (t *ToneModulator) glitching(text string, intensity float64) string {
	if intensity < 0.5 {
		return text
	}
	words := strings.Fields(text)
	var result []string
	for _, word := range words {
		if t.float() < intensity*0.15 {
			result = append(result, toneGlitchMarkers[t.intn(len(toneGlitchMarkers))])
		}
		if runes := []rune(word); t.float() < intensity*0.1 && len(runes) > 3 {
			pos := 1 + t.intn(len(runes)-2)
			word = string(runes[:pos]) + "—" + string(runes[pos:])
		}
		result = append(result, word)
	}
	return strings.Join(result, " ")
}
