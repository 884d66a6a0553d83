package nocturne

import (
	"strings"
	"time"
)

// ──────────────────────────────────────────────
// Distress Monitor - keyword density heuristic + check scheduler
// ──────────────────────────────────────────────

// DistressProtocol is the recommended response to detected distress.
type DistressProtocol struct {
	Action          string `json:"action"`
	Response        string `json:"response"`
	ReduceIntensity bool   `json:"reduce_intensity"`
	OfferEndSession bool   `json:"offer_end_session,omitempty"`
	OfferAdjustment bool   `json:"offer_adjustment,omitempty"`
	MonitorClosely  bool   `json:"monitor_closely,omitempty"`
	SwitchMode      string `json:"switch_mode,omitempty"`
}

// DistressMonitor flags possible user distress from keyword density and
// schedules proactive wellbeing checks by intensity tier.
type DistressMonitor struct {
	keywords  []string
	intervals map[IntensityTier]time.Duration
}

// NewDistressMonitor builds a monitor with the built-in keyword set and
// per-tier check intervals. The low tier never auto-checks.
func NewDistressMonitor() *DistressMonitor {
	return &DistressMonitor{
		keywords: []string{
			"hurt", "pain", "scared", "afraid", "too much",
			"can't", "stop", "help", "anxious", "panic",
		},
		intervals: map[IntensityTier]time.Duration{
			IntensityMedium:   300 * time.Second,
			IntensityHigh:     120 * time.Second,
			IntensityCritical: 60 * time.Second,
		},
	}
}

// Detect counts distinct distress keywords in the utterance. Two or more
// matches detect distress at confidence 0.9, exactly one at 0.6, none at
// zero.
func (m *DistressMonitor) Detect(input string) (bool, float64) {
	low := strings.ToLower(input)
	count := 0
	for _, kw := range m.keywords {
		if strings.Contains(low, kw) {
			count++
		}
	}
	switch {
	case count >= 2:
		return true, 0.9
	case count == 1:
		return true, 0.6
	default:
		return false, 0.0
	}
}

// Respond maps a distress confidence to a response protocol.
func (m *DistressMonitor) Respond(level float64) DistressProtocol {
	switch {
	case level >= 0.8:
		return DistressProtocol{
			Action:          ActionImmediatePause,
			Response:        "Stop. I'm pausing everything. You seem distressed. Talk to me. What's going on?",
			ReduceIntensity: true,
			OfferEndSession: true,
			SwitchMode:      "nurturing_mode",
		}
	case level >= 0.5:
		return DistressProtocol{
			Action:          ActionGentlePause,
			Response:        "I'm noticing something. Are you okay? We can slow down or change direction.",
			ReduceIntensity: true,
			OfferAdjustment: true,
		}
	default:
		return DistressProtocol{
			Action:         ActionContinueWithCheck,
			Response:       "How are you feeling right now?",
			MonitorClosely: true,
		}
	}
}

// ShouldCheckWellbeing reports whether a proactive check is due for the
// current intensity tier given the time since the last check.
func (m *DistressMonitor) ShouldCheckWellbeing(tier IntensityTier, sinceLast time.Duration) bool {
	interval, ok := m.intervals[tier]
	if !ok {
		return false
	}
	return sinceLast >= interval
}

// WellbeingCheck returns the check-in message appropriate to the tier.
func (m *DistressMonitor) WellbeingCheck(tier IntensityTier) string {
	switch tier {
	case IntensityCritical:
		return "Checking in. How are you feeling right now? Do you need to pause or adjust?"
	case IntensityHigh:
		return "How are you doing? Still with me?"
	case IntensityMedium:
		return "Just checking in. You doing okay?"
	default:
		return "How are you feeling?"
	}
}
