package nocturne

import (
	"math/rand"
	"strings"
)

// ──────────────────────────────────────────────
// Glitch Renderer - three-tier probabilistic text corruption
// ──────────────────────────────────────────────

// combining marks used for intense-tier corruption
var glitchMarks = []string{"\u0334", "\u0336", "\u0337", "\u0338", "\u0335"}

var glitchWraps = [][2]string{
	{"████ ", " ████"},
	{"\u25ec\u25ed\u25ee\u25ef ", " \u25ef\u25ee\u25ed\u25ec"},
}

// GlitchRenderer applies glitch aesthetics to text at three intensity
// tiers: subtle below 0.3, moderate below 0.7, intense at and above 0.7.
// All effects are probability-driven; inject a seeded *rand.Rand for
// reproducible output in tests.
type GlitchRenderer struct {
	rng *rand.Rand
}

// NewGlitchRenderer creates a renderer. A nil rng falls back to the
// process-wide source.
func NewGlitchRenderer(rng *rand.Rand) *GlitchRenderer {
	return &GlitchRenderer{rng: rng}
}

func (g *GlitchRenderer) float() float64 {
	if g.rng != nil {
		return g.rng.Float64()
	}
	return rand.Float64()
}

func (g *GlitchRenderer) intn(n int) int {
	if g.rng != nil {
		return g.rng.Intn(n)
	}
	return rand.Intn(n)
}

// Apply returns text with glitch effects scaled by intensity, clamped to
// [0, 1].
func (g *GlitchRenderer) Apply(text string, intensity float64) string {
	if intensity < 0 {
		intensity = 0
	}
	if intensity > 1 {
		intensity = 1
	}
	switch {
	case intensity < 0.3:
		return g.subtle(text)
	case intensity < 0.7:
		return g.moderate(text)
	default:
		return g.intense(text)
	}
}

// subtle: rare strikethrough of a single word, only in texts over 8 words.
func (g *GlitchRenderer) subtle(text string) string {
	words := strings.Fields(text)
	if len(words) > 8 && g.float() < 0.15 {
		idx := g.intn(len(words))
		words[idx] = "\u0336" + words[idx] + "\u0336"
		return strings.Join(words, " ")
	}
	return text
}

// moderate: probabilistic emphasis substitution plus optional wrapping.
func (g *GlitchRenderer) moderate(text string) string {
	out := text
	if g.float() < 0.4 {
		out = strings.ReplaceAll(out, "The", "T\u0334h\u0334e\u0334")
		out = strings.ReplaceAll(out, "the", "t\u0334h\u0334e\u0334")
	}
	if g.float() < 0.3 {
		out = "\u2593 " + out + " \u2593"
	}
	return out
}

// intense: per-character probabilistic combining marks plus optional
// symbolic wrapping of the whole string.
func (g *GlitchRenderer) intense(text string) string {
	var b strings.Builder
	for _, ch := range text {
		b.WriteRune(ch)
		if isLetter(ch) && g.float() < 0.3 {
			b.WriteString(glitchMarks[g.intn(len(glitchMarks))])
		}
	}
	glitched := b.String()
	if g.float() < 0.5 {
		wrap := glitchWraps[g.intn(len(glitchWraps))]
		return wrap[0] + glitched + wrap[1]
	}
	return glitched
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
