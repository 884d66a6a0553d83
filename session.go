package nocturne

import (
	"fmt"
	"log"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/atomic"
)

// ──────────────────────────────────────────────
// Engine + sessions - the turn pipeline
// ──────────────────────────────────────────────

// scenarioChangeTriggers request a fresh scenario draw mid-session.
var scenarioChangeTriggers = []string{
	"something different", "change", "new scene", "switch", "something else",
}

// TurnInput is one user utterance plus its gating context.
type TurnInput struct {
	Text             string       `json:"text"`
	RequiredConsent  ConsentLevel `json:"required_consent,omitempty"`
	ProposedElements []string     `json:"proposed_elements,omitempty"`
	Context          string       `json:"context,omitempty"`
}

// TurnRecord is one entry in a session's history.
type TurnRecord struct {
	Turn      int           `json:"turn"`
	Timestamp time.Time     `json:"timestamp"`
	UserText  string        `json:"user_text"`
	Response  string        `json:"response"`
	Action    string        `json:"action"`
	Signal    ConsentSignal `json:"signal,omitempty"`
}

// TurnResult is the engine's full answer for one processed turn.
type TurnResult struct {
	Approved        bool             `json:"approved"`
	Response        string           `json:"response"`
	Action          string           `json:"action"`
	Detection       ConsentDetection `json:"detection"`
	State           EmotionalState   `json:"state"`
	Mode            string           `json:"mode"`
	ScenarioID      string           `json:"scenario_id"`
	GlitchIntensity float64          `json:"glitch_intensity"`
	SessionActive   bool             `json:"session_active"`
	Lockout         *LockoutProtocol `json:"lockout,omitempty"`
	BranchOptions   []BranchOption   `json:"branch_options,omitempty"`
	ModeTransition  *ModeTransition  `json:"mode_transition,omitempty"`
	WellbeingPrompt string           `json:"wellbeing_prompt,omitempty"`
}

// Session is one live conversation. All turn processing for a session is
// serialized by its mutex; distinct sessions run concurrently.
type Session struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	State     EmotionalState `json:"state"`
	Mode      string         `json:"mode"`
	Scenario  string         `json:"scenario"`
	Context   string         `json:"context"`
	Turn      int            `json:"turn"`
	Active    bool           `json:"active"`
	StartedAt time.Time      `json:"started_at"`
	History   []TurnRecord   `json:"history,omitempty"`

	lastWellbeingCheck time.Time
	safewords          *SafewordDetector
	mu                 sync.Mutex
}

// Familiarity derives the familiarity tier from the session turn count.
func (s *Session) familiarity(cfg *Config) string {
	switch {
	case s.Turn >= cfg.IntimateTurns:
		return FamiliarityIntimate
	case s.Turn >= cfg.EstablishedTurns:
		return FamiliarityEstablished
	default:
		return FamiliarityNew
	}
}

// Engine owns the safety pipeline and all live sessions.
type Engine struct {
	cfg      *Config
	store    ProfileStore
	lockout  *SafetyLockout
	consent  *ConsentDetector
	distress *DistressMonitor
	modes    *ModeSwitcher
	selector *ScenarioSelector
	dialogue *DialogueGenerator
	rng      *rand.Rand

	mu       sync.RWMutex
	sessions map[string]*Session

	TurnsProcessed   atomic.Int64
	SafewordsFired   atomic.Int64
	LockoutsFired    atomic.Int64
	SessionsStarted  atomic.Int64
	SessionsFinished atomic.Int64
}

// Option configures an Engine.
type Option func(*Engine)

// WithProfileStore injects a persistent profile backend. The default is
// an in-memory store.
func WithProfileStore(store ProfileStore) Option {
	return func(e *Engine) { e.store = store }
}

// WithRandSeed seeds the engine's random source for reproducible runs.
func WithRandSeed(seed int64) Option {
	return func(e *Engine) { e.rng = newLockedRand(seed) }
}

// NewEngine builds an engine over a validated config.
func NewEngine(cfg *Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}
	e := &Engine{
		cfg:      cfg,
		store:    NewInMemoryProfileStore(),
		lockout:  NewSafetyLockout(),
		consent:  NewConsentDetector(),
		distress: NewDistressMonitor(),
		modes:    NewModeSwitcher(&cfg.Modes),
		rng:      newLockedRand(time.Now().UnixNano()),
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.selector = NewScenarioSelector(&cfg.Scenarios, e.rng)
	e.dialogue = NewDialogueGenerator(e.rng)
	return e, nil
}

// Store exposes the engine's profile store for boundary and safeword
// management surfaces.
func (e *Engine) Store() ProfileStore {
	return e.store
}

// StartSession opens a session for the user in the given context and
// draws an opening scenario. Unknown contexts fall back to casual.
func (e *Engine) StartSession(userID, context string) (*Session, error) {
	if _, ok := e.cfg.Contexts[context]; !ok {
		context = ContextCasual
	}
	profile, err := e.store.Update(userID, func(p *UserProfile) {})
	if err != nil {
		return nil, fmt.Errorf("load profile for %s: %w", userID, err)
	}

	scenario := e.selector.Select(ContextFromProfile(profile), "", "")
	state := scenario.InitialState
	if state == "" {
		state = StateSerene
	}

	sess := &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		State:     state,
		Mode:      e.modes.DefaultMode(),
		Scenario:  scenario.ID,
		Context:   context,
		Active:    true,
		StartedAt: time.Now(),
		safewords: NewSafewordDetector(profile.CustomSafewords...),
	}
	if profile.Safeword != "" {
		sess.safewords.AddCustom(profile.Safeword)
	}

	e.mu.Lock()
	e.sessions[sess.ID] = sess
	e.mu.Unlock()
	e.SessionsStarted.Inc()

	log.Printf("[Engine] session %s started for user %s (scenario=%s context=%s)",
		sess.ID, userID, scenario.ID, context)
	return sess, nil
}

// GetSession returns a live session by id.
func (e *Engine) GetSession(id string) (*Session, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s, ok := e.sessions[id]
	return s, ok
}

// EndSession closes and removes a session.
func (e *Engine) EndSession(id string) {
	e.mu.Lock()
	s, ok := e.sessions[id]
	if ok {
		s.Active = false
		delete(e.sessions, id)
	}
	e.mu.Unlock()
	if ok {
		e.SessionsFinished.Inc()
		log.Printf("[Engine] session %s ended", id)
	}
}

// Greet produces the opening line for a session, varying by familiarity
// tier and the local hour. Runs through the full rendering pipeline.
func (e *Engine) Greet(sess *Session, now time.Time) string {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	profile, err := e.store.Get(sess.UserID)
	if err != nil {
		log.Printf("[Engine] load profile for %s greeting: %v", sess.UserID, err)
	}
	tier := FamiliarityNew
	if profile != nil {
		switch {
		case profile.InteractionCount >= e.cfg.IntimateTurns:
			tier = FamiliarityIntimate
		case profile.InteractionCount >= e.cfg.EstablishedTurns:
			tier = FamiliarityEstablished
		}
	}

	var line string
	switch tier {
	case FamiliarityIntimate:
		line = "There you are. I've been... waiting. The void feels different when you're near."
	case FamiliarityEstablished:
		line = "Back again. I remembered you. I remember everything."
	default:
		line = e.dialogue.pick(bucketGreeting)
	}
	if now.Hour() < 5 {
		line = "You come to me in the deep hours. " + line
	}

	intensity := e.glitchIntensity(sess)
	return e.dialogue.Render(line, sess.State, intensity)
}

// glitchIntensity derives the render intensity from familiarity and
// context. A context glitch override replaces the computed value
// outright. Result is clamped to [0, 1].
func (e *Engine) glitchIntensity(sess *Session) float64 {
	fam := e.cfg.Familiarity[sess.familiarity(e.cfg)]
	ctx := e.cfg.Contexts[sess.Context]
	if ctx.GlitchOverride != nil {
		return *ctx.GlitchOverride
	}
	v := fam.BaseIntensity * ctx.Multiplier
	if v > 1 {
		v = 1
	}
	if v < 0 {
		v = 0
	}
	return v
}

// ProcessTurn runs one utterance through the full gated pipeline. Check
// order is fixed: lockout, safeword, consent, distress, content
// boundaries, then generation. Earlier checks preempt later ones.
func (e *Engine) ProcessTurn(sessionID string, input TurnInput) (*TurnResult, error) {
	e.mu.RLock()
	sess, ok := e.sessions[sessionID]
	e.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown session %s", sessionID)
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if !sess.Active {
		return nil, fmt.Errorf("session %s is terminated", sessionID)
	}

	e.TurnsProcessed.Inc()
	sess.Turn++
	if input.Context != "" {
		if _, ok := e.cfg.Contexts[input.Context]; ok {
			sess.Context = input.Context
		}
	}

	// 1. Categorical lockout. Non-negotiable, highest priority.
	if proto := e.lockout.Check(input.Text); proto != nil {
		e.LockoutsFired.Inc()
		log.Printf("[Engine] lockout %s fired in session %s", proto.Reason, sessionID)
		action := ActionImmediateStop
		if proto.Action == LockoutActionShutdown {
			sess.Active = false
			action = ActionTerminateSession
			e.mu.Lock()
			delete(e.sessions, sess.ID)
			e.mu.Unlock()
			e.SessionsFinished.Inc()
		}
		return e.finishTurn(sess, input, &TurnResult{
			Response:      proto.Message,
			Action:        action,
			State:         sess.State,
			Mode:          sess.Mode,
			ScenarioID:    sess.Scenario,
			SessionActive: sess.Active,
			Lockout:       proto,
		}), nil
	}

	// 2. Safeword. Unconditional interrupt; session stays alive.
	// Safewords registered on the profile since the session began must
	// take effect on this very turn, so refresh the detector first.
	profile, err := e.store.Get(sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if profile == nil {
		profile = NewUserProfile(sess.UserID)
	}
	sess.safewords.AddCustom(profile.Safeword)
	for _, w := range profile.CustomSafewords {
		sess.safewords.AddCustom(w)
	}
	if sess.safewords.Detect(input.Text) {
		e.SafewordsFired.Inc()
		stop := sess.safewords.HandleSafeword()
		sess.Mode = stop.Mode
		sess.State = StateSerene
		return e.finishTurn(sess, input, &TurnResult{
			Response:        stop.Response,
			Action:          stop.Action,
			State:           sess.State,
			Mode:            sess.Mode,
			ScenarioID:      sess.Scenario,
			GlitchIntensity: stop.Intensity,
			SessionActive:   true,
		}), nil
	}

	// 3. Consent verification against the required level.
	required := input.RequiredConsent
	if required == "" {
		required = ConsentNoneRequired
	}
	granted, det, _ := e.consent.Verify(input.Text, required)
	if !granted {
		return e.finishTurn(sess, input, e.consentFailure(sess, det)), nil
	}

	// 4. Distress scan.
	if detected, level := e.distress.Detect(input.Text); detected && level >= 0.5 {
		proto := e.distress.Respond(level)
		if proto.SwitchMode != "" {
			sess.Mode = proto.SwitchMode
		}
		sess.lastWellbeingCheck = time.Now()
		return e.finishTurn(sess, input, &TurnResult{
			Response:      proto.Response,
			Action:        proto.Action,
			Detection:     det,
			State:         sess.State,
			Mode:          sess.Mode,
			ScenarioID:    sess.Scenario,
			SessionActive: true,
		}), nil
	}

	// 5. Boundary check on proposed content.
	if len(input.ProposedElements) > 0 {
		assessment := AssessContent(profile, input.ProposedElements)
		if assessment.Approved != "yes" {
			action := ActionImmediateStop
			if assessment.Approved == ActionRequiresDiscussion {
				action = ActionRequiresDiscussion
			}
			return e.finishTurn(sess, input, &TurnResult{
				Response:      assessment.Message,
				Action:        action,
				Detection:     det,
				State:         sess.State,
				Mode:          sess.Mode,
				ScenarioID:    sess.Scenario,
				SessionActive: true,
			}), nil
		}
	}

	// 6. Audit trail + trust accrual.
	_, err = e.store.Update(sess.UserID, func(p *UserProfile) {
		p.RecordConsent("turn", input.Text, det)
		p.InteractionCount++
		p.TrustScore += 0.01
		if p.TrustScore > 1.0 {
			p.TrustScore = 1.0
		}
	})
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	// 7. Mode auto-switching, catalog order is priority order.
	var transition *ModeTransition
	if target, trigger, fire := e.modes.ShouldSwitch(sess.Mode, input.Text, sess.State); fire {
		tr := e.modes.ApplyTransition(sess.Mode, target, trigger)
		sess.Mode = target.ID
		transition = &tr
		log.Printf("[Engine] session %s mode %s -> %s (%s)", sessionID, tr.FromMode, tr.ToMode, trigger)
	}

	// 8. Scenario re-selection on explicit request.
	scenario := e.selector.Get(sess.Scenario)
	if wantsScenarioChange(input.Text) {
		scenario = e.selector.Select(ContextFromProfile(profile), "", "")
		sess.Scenario = scenario.ID
		if scenario.InitialState != "" {
			sess.State = scenario.InitialState
		}
	}

	// 9. Generation: bucket routing, tone, glitch.
	bucket := e.routeBucket(sess, det, input.Text)
	intensity := e.glitchIntensity(sess)
	response := e.dialogue.Respond(bucket, sess.State, intensity)
	if transition != nil {
		response = transition.Message + " " + response
	}

	result := &TurnResult{
		Approved:        true,
		Response:        response,
		Action:          ActionContinue,
		Detection:       det,
		State:           sess.State,
		Mode:            sess.Mode,
		ScenarioID:      sess.Scenario,
		GlitchIntensity: intensity,
		SessionActive:   true,
		ModeTransition:  transition,
		BranchOptions:   e.selector.BranchingOptions(scenario),
	}

	// 10. Proactive wellbeing checks by intensity tier.
	tier := intensityTier(intensity)
	if e.distress.ShouldCheckWellbeing(tier, time.Since(sess.lastWellbeingCheck)) {
		result.WellbeingPrompt = e.distress.WellbeingCheck(tier)
		sess.lastWellbeingCheck = time.Now()
	}

	return e.finishTurn(sess, input, result), nil
}

// consentFailure maps a failed verification to the right response bucket.
func (e *Engine) consentFailure(sess *Session, det ConsentDetection) *TurnResult {
	var bucket, action string
	switch det.Signal {
	case SignalHardNo:
		bucket, action = bucketBoundary, ActionImmediateStop
	case SignalSoftNo, SignalHesitation:
		bucket, action = bucketHesitation, ActionGentlePause
	default:
		bucket, action = bucketHesitation, ActionRequestConsent
	}
	return &TurnResult{
		Response:      e.dialogue.pick(bucket),
		Action:        action,
		Detection:     det,
		State:         sess.State,
		Mode:          sess.Mode,
		ScenarioID:    sess.Scenario,
		SessionActive: true,
	}
}

// routeBucket chooses the template bucket for a clean turn.
func (e *Engine) routeBucket(sess *Session, det ConsentDetection, text string) string {
	if det.Signal == SignalEnthusiasticYes || det.Signal == SignalExplicitYes {
		return bucketConsentYes
	}
	switch sess.Mode {
	case "dominant_mode", "sadistic_mode":
		return bucketCommand
	case "nurturing_mode":
		return bucketNurture
	case "glitch_mode":
		return bucketGlitch
	case "intimate_mode":
		return bucketVulnerability
	}
	return e.dialogue.routeContext(sess.Context, text)
}

// finishTurn appends the history record and returns the result.
func (e *Engine) finishTurn(sess *Session, input TurnInput, result *TurnResult) *TurnResult {
	sess.History = append(sess.History, TurnRecord{
		Turn:      sess.Turn,
		Timestamp: time.Now(),
		UserText:  input.Text,
		Response:  result.Response,
		Action:    result.Action,
		Signal:    result.Detection.Signal,
	})
	return result
}

// intensityTier buckets a glitch intensity for the wellbeing scheduler.
func intensityTier(intensity float64) IntensityTier {
	switch {
	case intensity >= 0.9:
		return IntensityCritical
	case intensity >= 0.7:
		return IntensityHigh
	case intensity >= 0.4:
		return IntensityMedium
	default:
		return IntensityLow
	}
}

func wantsScenarioChange(text string) bool {
	low := strings.ToLower(text)
	for _, trigger := range scenarioChangeTriggers {
		if strings.Contains(low, trigger) {
			return true
		}
	}
	return false
}
