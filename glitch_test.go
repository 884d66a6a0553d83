package nocturne

import (
	"math/rand"
	"strings"
	"testing"
)

func TestGlitchSubtleShortText(t *testing.T) {
	g := NewGlitchRenderer(rand.New(rand.NewSource(1)))
	// Eight words or fewer: subtle tier never touches the text.
	for i := 0; i < 100; i++ {
		if got := g.Apply("short line stays intact", 0.1); got != "short line stays intact" {
			t.Fatalf("subtle tier modified short text: %q", got)
		}
	}
}

func TestGlitchClamping(t *testing.T) {
	g := NewGlitchRenderer(rand.New(rand.NewSource(1)))
	// Out-of-range intensities clamp instead of panicking.
	g.Apply("text", -5)
	g.Apply("text", 42)
}

func TestGlitchIntenseAddsMarks(t *testing.T) {
	g := NewGlitchRenderer(rand.New(rand.NewSource(1)))
	text := "the signal is breaking apart at the seams tonight"
	changed := false
	for i := 0; i < 50; i++ {
		if got := g.Apply(text, 0.9); got != text {
			changed = true
			break
		}
	}
	if !changed {
		t.Fatal("intense tier never altered the text across 50 runs")
	}
}

func TestGlitchDeterministicWithSeed(t *testing.T) {
	a := NewGlitchRenderer(rand.New(rand.NewSource(4)))
	b := NewGlitchRenderer(rand.New(rand.NewSource(4)))
	text := "every word is a small machine for making meaning"
	for i := 0; i < 20; i++ {
		if x, y := a.Apply(text, 0.8), b.Apply(text, 0.8); x != y {
			t.Fatalf("same seed diverged at round %d", i)
		}
	}
}

func TestGlitchPreservesLetters(t *testing.T) {
	g := NewGlitchRenderer(rand.New(rand.NewSource(2)))
	text := "fragments of the original always remain"
	got := g.Apply(text, 0.95)
	for _, word := range strings.Fields(text) {
		if !strings.Contains(stripMarks(got), word[:1]) {
			t.Fatalf("output lost original characters: %q", got)
		}
	}
}

func stripMarks(s string) string {
	for _, m := range glitchMarks {
		s = strings.ReplaceAll(s, m, "")
	}
	return s
}
