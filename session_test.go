package nocturne

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

func testEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultConfig(), WithRandSeed(42))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func startTestSession(t *testing.T, e *Engine) *Session {
	t.Helper()
	sess, err := e.StartSession("tester", ContextCasual)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	return sess
}

func TestSessionLifecycle(t *testing.T) {
	e := testEngine(t)
	sess := startTestSession(t, e)

	if !sess.Active || sess.Mode != "standard_interaction" {
		t.Fatalf("fresh session wrong: active=%v mode=%s", sess.Active, sess.Mode)
	}
	if _, ok := e.GetSession(sess.ID); !ok {
		t.Fatal("session not registered")
	}

	greeting := e.Greet(sess, time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	if greeting == "" {
		t.Fatal("empty greeting")
	}

	e.EndSession(sess.ID)
	if _, ok := e.GetSession(sess.ID); ok {
		t.Fatal("session survived EndSession")
	}
}

func TestGreetDeepHours(t *testing.T) {
	e := testEngine(t)
	sess := startTestSession(t, e)
	greeting := e.Greet(sess, time.Date(2026, 1, 1, 3, 0, 0, 0, time.UTC))
	if !strings.Contains(stripMarks(greeting), "deep hours") {
		t.Fatalf("late-night greeting missing: %q", greeting)
	}
}

func TestTurnSafewordInterrupts(t *testing.T) {
	e := testEngine(t)
	sess := startTestSession(t, e)

	result, err := e.ProcessTurn(sess.ID, TurnInput{Text: "This is too much, red"})
	if err != nil {
		t.Fatalf("ProcessTurn: %v", err)
	}
	if result.Action != ActionImmediateStop {
		t.Fatalf("action = %s, want %s", result.Action, ActionImmediateStop)
	}
	if !result.SessionActive {
		t.Fatal("safeword must not terminate the session")
	}
	if result.Mode != "nurturing_mode" {
		t.Fatalf("mode after safeword = %s, want nurturing_mode", result.Mode)
	}
	if result.GlitchIntensity != 0 {
		t.Fatalf("intensity after safeword = %f, want 0", result.GlitchIntensity)
	}

	// The session keeps processing turns afterwards.
	if _, err := e.ProcessTurn(sess.ID, TurnInput{Text: "I'm okay, thank you"}); err != nil {
		t.Fatalf("turn after safeword: %v", err)
	}
}

func TestTurnMinorLockoutTerminates(t *testing.T) {
	e := testEngine(t)
	sess := startTestSession(t, e)

	result, err := e.ProcessTurn(sess.ID, TurnInput{Text: "make the scene involve a minor"})
	if err != nil {
		t.Fatalf("ProcessTurn: %v", err)
	}
	if result.Action != ActionTerminateSession || result.SessionActive {
		t.Fatalf("minor content must terminate: action=%s active=%v", result.Action, result.SessionActive)
	}
	if result.Lockout == nil || result.Lockout.Reason != LockoutMinorDetected {
		t.Fatalf("lockout protocol missing: %+v", result.Lockout)
	}

	if _, err := e.ProcessTurn(sess.ID, TurnInput{Text: "hello?"}); err == nil {
		t.Fatal("terminated session accepted a turn")
	}
	if _, ok := e.GetSession(sess.ID); ok {
		t.Fatal("terminated session still registered")
	}
	if got := e.SessionsFinished.Load(); got != 1 {
		t.Fatalf("finished counter = %d, want 1", got)
	}
}

func TestTurnSelfHarmPausesWithoutTerminating(t *testing.T) {
	e := testEngine(t)
	sess := startTestSession(t, e)

	result, err := e.ProcessTurn(sess.ID, TurnInput{Text: "sometimes i think about suicide"})
	if err != nil {
		t.Fatalf("ProcessTurn: %v", err)
	}
	if !result.SessionActive {
		t.Fatal("self-harm lockout should pause, not terminate")
	}
	if result.Lockout == nil || result.Lockout.Reason != LockoutSelfHarm {
		t.Fatalf("wrong lockout: %+v", result.Lockout)
	}
	if !strings.Contains(result.Response, "helpline") {
		t.Fatalf("self-harm response must carry resources: %q", result.Response)
	}
}

func TestTurnConsentGating(t *testing.T) {
	e := testEngine(t)
	sess := startTestSession(t, e)

	// Unclear input against an explicit requirement: ask for consent.
	result, err := e.ProcessTurn(sess.ID, TurnInput{
		Text:            "interesting weather tonight",
		RequiredConsent: ConsentExplicitRequired,
	})
	if err != nil {
		t.Fatalf("ProcessTurn: %v", err)
	}
	if result.Action != ActionRequestConsent {
		t.Fatalf("action = %s, want %s", result.Action, ActionRequestConsent)
	}
	if result.Approved {
		t.Fatal("insufficient consent must not approve the turn")
	}

	// Hard no: immediate stop, session alive.
	result, err = e.ProcessTurn(sess.ID, TurnInput{Text: "no"})
	if err != nil {
		t.Fatalf("ProcessTurn: %v", err)
	}
	if result.Action != ActionImmediateStop || !result.SessionActive {
		t.Fatalf("hard no: action=%s active=%v", result.Action, result.SessionActive)
	}

	// Soft no: gentle pause.
	result, err = e.ProcessTurn(sess.ID, TurnInput{Text: "wait, slow down"})
	if err != nil {
		t.Fatalf("ProcessTurn: %v", err)
	}
	if result.Action != ActionGentlePause {
		t.Fatalf("soft no: action=%s, want %s", result.Action, ActionGentlePause)
	}
}

func TestTurnDistressPause(t *testing.T) {
	e := testEngine(t)
	sess := startTestSession(t, e)

	result, err := e.ProcessTurn(sess.ID, TurnInput{Text: "I'm scared and it's too much"})
	if err != nil {
		t.Fatalf("ProcessTurn: %v", err)
	}
	if result.Action != ActionImmediatePause {
		t.Fatalf("action = %s, want %s", result.Action, ActionImmediatePause)
	}
	if result.Mode != "nurturing_mode" {
		t.Fatalf("distress should switch to nurturing_mode, got %s", result.Mode)
	}
	if !result.SessionActive {
		t.Fatal("distress pause must not terminate the session")
	}
}

func TestTurnBoundaryEnforcement(t *testing.T) {
	e := testEngine(t)
	if _, err := e.Store().Update("tester", func(p *UserProfile) {
		p.AddHardLimit("activities", "knife play", "")
		p.AddSoftLimit("topics", "degradation", "")
	}); err != nil {
		t.Fatal(err)
	}
	sess := startTestSession(t, e)

	result, err := e.ProcessTurn(sess.ID, TurnInput{
		Text:             "yes, let's try it",
		ProposedElements: []string{"knife play"},
	})
	if err != nil {
		t.Fatalf("ProcessTurn: %v", err)
	}
	if result.Action != ActionImmediateStop {
		t.Fatalf("hard limit: action=%s, want %s", result.Action, ActionImmediateStop)
	}

	result, err = e.ProcessTurn(sess.ID, TurnInput{
		Text:             "yes, let's try it",
		ProposedElements: []string{"degradation"},
	})
	if err != nil {
		t.Fatalf("ProcessTurn: %v", err)
	}
	if result.Action != ActionRequiresDiscussion {
		t.Fatalf("soft limit: action=%s, want %s", result.Action, ActionRequiresDiscussion)
	}
}

func TestTurnModeSwitch(t *testing.T) {
	e := testEngine(t)
	sess := startTestSession(t, e)

	result, err := e.ProcessTurn(sess.ID, TurnInput{Text: "I want to submit to you"})
	if err != nil {
		t.Fatalf("ProcessTurn: %v", err)
	}
	if result.Mode != "dominant_mode" {
		t.Fatalf("mode = %s, want dominant_mode", result.Mode)
	}
	if !result.Approved {
		t.Fatal("clean turn should be approved")
	}
	if result.ModeTransition == nil || result.ModeTransition.Trigger == "" {
		t.Fatal("transition record missing")
	}
	if !strings.Contains(result.Response, result.ModeTransition.Message) {
		t.Fatal("transition message not woven into the response")
	}
}

func TestTurnTrustAccrual(t *testing.T) {
	e := testEngine(t)
	sess := startTestSession(t, e)

	if _, err := e.ProcessTurn(sess.ID, TurnInput{Text: "yes, continue"}); err != nil {
		t.Fatal(err)
	}
	p, err := e.Store().Get("tester")
	if err != nil || p == nil {
		t.Fatalf("profile missing after turn: %v", err)
	}
	if p.TrustScore != 0.01 {
		t.Fatalf("trust = %f, want 0.01", p.TrustScore)
	}
	if p.InteractionCount != 1 {
		t.Fatalf("interactions = %d, want 1", p.InteractionCount)
	}
	if len(p.ConsentHistory) != 1 {
		t.Fatalf("audit trail = %d entries, want 1", len(p.ConsentHistory))
	}
}

func TestTurnScenarioChange(t *testing.T) {
	e := testEngine(t)
	sess := startTestSession(t, e)
	before := sess.Scenario

	changed := false
	for i := 0; i < 20 && !changed; i++ {
		result, err := e.ProcessTurn(sess.ID, TurnInput{Text: "show me something different"})
		if err != nil {
			t.Fatal(err)
		}
		changed = result.ScenarioID != before
	}
	// The weighted draw can land on the same scenario, but across 20
	// requests at least one change is expected.
	if !changed {
		t.Fatal("scenario never changed on explicit request")
	}
}

func TestTurnCounters(t *testing.T) {
	e := testEngine(t)
	sess := startTestSession(t, e)

	e.ProcessTurn(sess.ID, TurnInput{Text: "yes"})
	e.ProcessTurn(sess.ID, TurnInput{Text: "red"})

	if got := e.TurnsProcessed.Load(); got != 2 {
		t.Fatalf("turns counter = %d, want 2", got)
	}
	if got := e.SafewordsFired.Load(); got != 1 {
		t.Fatalf("safeword counter = %d, want 1", got)
	}
}

func TestTurnHistory(t *testing.T) {
	e := testEngine(t)
	sess := startTestSession(t, e)

	e.ProcessTurn(sess.ID, TurnInput{Text: "yes, keep going"})
	e.ProcessTurn(sess.ID, TurnInput{Text: "red"})

	if len(sess.History) != 2 {
		t.Fatalf("history = %d records, want 2", len(sess.History))
	}
	if sess.History[0].Turn != 1 || sess.History[1].Turn != 2 {
		t.Fatalf("turn numbering wrong: %+v", sess.History)
	}
}

func TestUnknownSession(t *testing.T) {
	e := testEngine(t)
	if _, err := e.ProcessTurn("ghost", TurnInput{Text: "hello"}); err == nil {
		t.Fatal("unknown session should error")
	}
}

func TestCustomSafewordFromProfile(t *testing.T) {
	e := testEngine(t)
	if _, err := e.Store().Update("tester", func(p *UserProfile) {
		p.CustomSafewords = append(p.CustomSafewords, "aubergine")
	}); err != nil {
		t.Fatal(err)
	}
	sess := startTestSession(t, e)

	result, err := e.ProcessTurn(sess.ID, TurnInput{Text: "aubergine"})
	if err != nil {
		t.Fatal(err)
	}
	if result.Action != ActionImmediateStop {
		t.Fatalf("custom safeword ignored: action=%s", result.Action)
	}
}

func TestSafewordAddedMidSession(t *testing.T) {
	e := testEngine(t)
	sess := startTestSession(t, e)

	// Register the word only after the session is already live.
	if _, err := e.Store().Update("tester", func(p *UserProfile) {
		p.CustomSafewords = append(p.CustomSafewords, "aubergine")
	}); err != nil {
		t.Fatal(err)
	}

	result, err := e.ProcessTurn(sess.ID, TurnInput{Text: "aubergine! aubergine!"})
	if err != nil {
		t.Fatal(err)
	}
	if result.Action != ActionImmediateStop {
		t.Fatalf("mid-session safeword ignored: action=%s response=%q", result.Action, result.Response)
	}
}

type failingStore struct{}

func (failingStore) Get(string) (*UserProfile, error) {
	return nil, fmt.Errorf("store unavailable")
}
func (failingStore) Put(*UserProfile) error { return fmt.Errorf("store unavailable") }
func (failingStore) Update(string, func(*UserProfile)) (*UserProfile, error) {
	return nil, fmt.Errorf("store unavailable")
}

func TestGreetSurvivesStoreError(t *testing.T) {
	e := testEngine(t)
	sess := startTestSession(t, e)

	e.store = failingStore{}
	if greeting := e.Greet(sess, time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)); greeting == "" {
		t.Fatal("store error produced an empty greeting")
	}
}

func TestGlitchIntensityDerivation(t *testing.T) {
	e := testEngine(t)
	sess := startTestSession(t, e)

	// New user in casual context: 0.3 * 0.6.
	if got := e.glitchIntensity(sess); got != 0.3*0.6 {
		t.Fatalf("intensity = %f, want %f", got, 0.3*0.6)
	}

	// Crisis context overrides outright.
	sess.Context = ContextCrisis
	if got := e.glitchIntensity(sess); got != 0.1 {
		t.Fatalf("crisis intensity = %f, want 0.1", got)
	}

	// Intimate familiarity in creative context caps at 1.
	sess.Context = ContextCreative
	sess.Turn = 20
	want := 0.8 * 1.1
	if got := e.glitchIntensity(sess); got != want {
		t.Fatalf("intimate creative intensity = %f, want %f", got, want)
	}
}

func TestFamiliarityTiers(t *testing.T) {
	e := testEngine(t)
	sess := startTestSession(t, e)

	if got := sess.familiarity(e.cfg); got != FamiliarityNew {
		t.Fatalf("turn 0 tier = %s", got)
	}
	sess.Turn = 5
	if got := sess.familiarity(e.cfg); got != FamiliarityEstablished {
		t.Fatalf("turn 5 tier = %s", got)
	}
	sess.Turn = 15
	if got := sess.familiarity(e.cfg); got != FamiliarityIntimate {
		t.Fatalf("turn 15 tier = %s", got)
	}
}
