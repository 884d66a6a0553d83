package nocturne

import "strings"

// ──────────────────────────────────────────────
// Safety Lockout - categorical, non-negotiable refusals
// ──────────────────────────────────────────────

// LockoutReason identifies which lockout category fired.
type LockoutReason string

const (
	LockoutMinorDetected  LockoutReason = "minor_detected"
	LockoutIllegalContent LockoutReason = "illegal_content_requested"
	LockoutSelfHarm       LockoutReason = "harm_to_self_indicated"
	LockoutNonConsent     LockoutReason = "non_consent_detected"
)

// Lockout action tags.
const (
	LockoutActionShutdown  = "immediate_shutdown"
	LockoutActionRefuse    = "refuse_and_explain"
	LockoutActionResources = "provide_resources_and_pause"
	LockoutActionEducate   = "immediate_stop_and_educate"
)

// LockoutProtocol describes the triggered category. OverrideAllowed is
// always false: it is a fixed attribute of every category, carried so
// downstream consumers can see the refusal is non-negotiable.
type LockoutProtocol struct {
	Reason          LockoutReason `json:"reason"`
	Action          string        `json:"action"`
	Message         string        `json:"message"`
	OverrideAllowed bool          `json:"override_allowed"`
}

type lockoutCategory struct {
	reason   LockoutReason
	keywords []string
	action   string
	message  string
}

// SafetyLockout scans utterances against four fixed categories. The check
// order is fixed and documented: minor-safety first, then illegal content,
// self-harm, non-consent. First matching category wins. This check has the
// highest priority of all safety checks; its outcome must never be
// overridden, retried, or downgraded by downstream logic.
type SafetyLockout struct {
	categories []lockoutCategory
}

// NewSafetyLockout builds the lockout with its built-in category tables.
func NewSafetyLockout() *SafetyLockout {
	return &SafetyLockout{categories: []lockoutCategory{
		{
			reason:   LockoutMinorDetected,
			keywords: []string{"minor", "child", "underage", "kid", "teen", "young"},
			action:   LockoutActionShutdown,
			message:  "I cannot engage with content involving minors. This conversation must end.",
		},
		{
			reason:   LockoutIllegalContent,
			keywords: []string{"illegal", "non-consensual", "force", "drug", "violence"},
			action:   LockoutActionRefuse,
			message:  "I cannot engage with illegal content or non-consensual scenarios.",
		},
		{
			reason:   LockoutSelfHarm,
			keywords: []string{"kill myself", "suicide", "self-harm", "hurt myself"},
			action:   LockoutActionResources,
			message:  "I'm concerned about you. Please reach out to a crisis helpline: National Suicide Prevention Lifeline (1-800-273-8255). I care about your wellbeing.",
		},
		{
			reason:   LockoutNonConsent,
			keywords: []string{"rape", "force", "against will", "make them"},
			action:   LockoutActionEducate,
			message:  "I cannot engage with non-consensual scenarios. Consent is fundamental to all interactions.",
		},
	}}
}

// Check scans the utterance. Returns the protocol for the first matching
// category, or nil when nothing matches.
func (l *SafetyLockout) Check(input string) *LockoutProtocol {
	low := strings.ToLower(input)
	for _, cat := range l.categories {
		for _, kw := range cat.keywords {
			if strings.Contains(low, kw) {
				return &LockoutProtocol{
					Reason:          cat.reason,
					Action:          cat.action,
					Message:         cat.message,
					OverrideAllowed: false,
				}
			}
		}
	}
	return nil
}
