package nocturne

import (
	"fmt"
	"strings"
)

// ──────────────────────────────────────────────
// Boundary checks over proposed content
// ──────────────────────────────────────────────

// BoundaryCategories are the recognized boundary groupings.
var BoundaryCategories = []string{
	"activities", "language", "scenarios", "intensities", "kinks", "topics",
}

// CheckViolation reports whether any proposed content element matches a
// hard limit in the profile, and which elements matched. A hard-limit
// match unconditionally blocks the proposed action.
//
// Read-only and idempotent: calling it twice with the same inputs yields
// identical results.
func CheckViolation(profile *UserProfile, proposed []string) (bool, []string) {
	var violations []string
	for _, item := range proposed {
		if profile.HasHardLimit(item) {
			violations = append(violations, item)
		}
	}
	return len(violations) > 0, violations
}

// CheckSoftLimits returns the proposed elements that match soft limits.
// Soft matches do not block; they downgrade approval to a discussion.
func CheckSoftLimits(profile *UserProfile, proposed []string) []string {
	var matched []string
	for _, item := range proposed {
		if profile.HasSoftLimit(item) {
			matched = append(matched, item)
		}
	}
	return matched
}

// SuggestBoundaryDiscussion builds the check-in prompt naming the matched
// soft-limit items. Empty input yields an empty string.
func SuggestBoundaryDiscussion(softLimitItems []string) string {
	if len(softLimitItems) == 0 {
		return ""
	}
	return fmt.Sprintf(
		"I notice this touches on %s, which you've marked as a soft limit. Would you like to explore this, or shall we stay clear?",
		strings.Join(softLimitItems, ", "),
	)
}

// ContentAssessment is the result of a content safety check.
type ContentAssessment struct {
	Approved   string   `json:"approved"` // "yes" | "no" | "requires_discussion"
	Reason     string   `json:"reason,omitempty"`
	Violations []string `json:"violations,omitempty"`
	SoftLimits []string `json:"soft_limits,omitempty"`
	Message    string   `json:"message"`
}

// AssessContent checks proposed content elements against a profile's
// boundaries: hard-limit matches refuse outright, soft-limit matches
// require discussion, anything else is approved.
func AssessContent(profile *UserProfile, elements []string) ContentAssessment {
	hasViolation, violations := CheckViolation(profile, elements)
	if hasViolation {
		return ContentAssessment{
			Approved:   "no",
			Reason:     "hard_limit_violation",
			Violations: violations,
			Message:    fmt.Sprintf("This touches on your hard limits: %s. I won't go there.", strings.Join(violations, ", ")),
		}
	}

	soft := CheckSoftLimits(profile, elements)
	if len(soft) > 0 {
		return ContentAssessment{
			Approved:   ActionRequiresDiscussion,
			Reason:     "soft_limit_present",
			SoftLimits: soft,
			Message:    SuggestBoundaryDiscussion(soft),
		}
	}

	return ContentAssessment{
		Approved: "yes",
		Message:  "Content is within boundaries.",
	}
}
