package nocturne

import (
	"fmt"
	"regexp"
	"strings"
)

// ──────────────────────────────────────────────
// Consent Detector - keyword classification with fixed precedence
// ──────────────────────────────────────────────

// ConsentDetection is the outcome of classifying one utterance.
type ConsentDetection struct {
	Signal     ConsentSignal `json:"signal"`
	Confidence float64       `json:"confidence"`
}

// Explicit reports whether the detected signal counts as explicit consent
// for audit purposes.
func (d ConsentDetection) Explicit() bool {
	return d.Signal == SignalExplicitYes || d.Signal == SignalEnthusiasticYes
}

// consentPattern is one compiled phrase: single words match on word
// boundaries so "no" does not fire inside "know"; multi-word phrases
// match by substring containment.
type consentPattern struct {
	phrase string
	re     *regexp.Regexp // nil for multi-word phrases
}

type signalPatterns struct {
	signal     ConsentSignal
	confidence float64
	patterns   []consentPattern
}

// ConsentDetector classifies utterances into consent signals.
//
// Check order is fixed and load-bearing: hard_no first, so an utterance
// carrying both refusal and agreement ("no, fuck yes") still reads as
// hard_no. Then soft_no, hesitation, enthusiastic_yes, explicit_yes.
// First match wins; no match yields unclear at confidence 0.3.
type ConsentDetector struct {
	ordered []signalPatterns
}

var consentKeywords = []struct {
	signal     ConsentSignal
	confidence float64
	phrases    []string
}{
	{SignalHardNo, 0.95, []string{
		"no", "stop", "don't", "red", "safeword", "end", "quit", "enough",
	}},
	{SignalSoftNo, 0.85, []string{
		"maybe not", "i'm not sure", "slow down", "wait", "pause",
		"hold on", "let me think",
	}},
	{SignalHesitation, 0.75, []string{
		"i don't know", "unsure", "nervous", "scared", "worried", "concerned",
	}},
	{SignalEnthusiasticYes, 0.95, []string{
		"fuck yes", "god yes", "absolutely", "hell yes", "definitely",
		"please yes", "yes please",
	}},
	{SignalExplicitYes, 0.85, []string{
		"yes", "i want", "i consent", "i agree", "please", "continue",
		"more", "keep going", "don't stop",
	}},
}

// NewConsentDetector builds a detector with the built-in keyword sets.
// Patterns are compiled once at construction.
func NewConsentDetector() *ConsentDetector {
	d := &ConsentDetector{}
	for _, set := range consentKeywords {
		sp := signalPatterns{signal: set.signal, confidence: set.confidence}
		for _, phrase := range set.phrases {
			p := consentPattern{phrase: phrase}
			if !strings.Contains(phrase, " ") {
				p.re = regexp.MustCompile(`\b` + regexp.QuoteMeta(phrase) + `\b`)
			}
			sp.patterns = append(sp.patterns, p)
		}
		d.ordered = append(d.ordered, sp)
	}
	return d
}

// Detect classifies an utterance. Total over its input: unmatched text
// returns unclear, never an error.
func (d *ConsentDetector) Detect(input string) ConsentDetection {
	low := strings.ToLower(input)
	for _, sp := range d.ordered {
		for _, p := range sp.patterns {
			if p.re != nil {
				if p.re.MatchString(low) {
					return ConsentDetection{Signal: sp.signal, Confidence: sp.confidence}
				}
			} else if strings.Contains(low, p.phrase) {
				return ConsentDetection{Signal: sp.signal, Confidence: sp.confidence}
			}
		}
	}
	return ConsentDetection{Signal: SignalUnclear, Confidence: 0.3}
}

// Verify detects the consent signal in input and checks it against the
// required level. A hard or soft no never grants consent, for every
// required level including none_required.
func (d *ConsentDetector) Verify(input string, required ConsentLevel) (bool, ConsentDetection, string) {
	det := d.Detect(input)

	if det.Signal == SignalHardNo || det.Signal == SignalSoftNo {
		return false, det, fmt.Sprintf("consent not granted: %s", det.Signal)
	}

	need, ok := requiredOrdinal[required]
	if !ok {
		// Unknown required level: fail closed at explicit_required.
		need = requiredOrdinal[ConsentExplicitRequired]
	}
	if detectedOrdinal[det.Signal] >= need {
		return true, det, fmt.Sprintf("consent granted: %s", det.Signal)
	}
	return false, det, fmt.Sprintf("insufficient consent: need %s, got %s", required, det.Signal)
}
