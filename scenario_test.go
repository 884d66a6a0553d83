package nocturne

import (
	"math/rand"
	"testing"
)

func testSelector(t *testing.T, seed int64) *ScenarioSelector {
	t.Helper()
	cfg := DefaultConfig()
	return NewScenarioSelector(&cfg.Scenarios, rand.New(rand.NewSource(seed)))
}

func TestSelectNeverPicksHardLimited(t *testing.T) {
	sel := testSelector(t, 42)
	ctx := UserContext{
		TrustLevel:         1.0,
		PreferredIntensity: 0.9,
		HardLimits:         []string{"humiliation", "edge_play"},
	}
	for i := 0; i < 1000; i++ {
		sc := sel.Select(ctx, "", "")
		for _, el := range sc.KinkElements {
			if el == "humiliation" || el == "edge_play" {
				t.Fatalf("draw %d picked hard-limited scenario %s", i, sc.ID)
			}
		}
	}
}

func TestSelectTrustGates(t *testing.T) {
	sel := testSelector(t, 7)
	low := UserContext{TrustLevel: 0.1, PreferredIntensity: 0.6}
	for i := 0; i < 500; i++ {
		sc := sel.Select(low, "", "")
		if sc.Category == CategoryEmotionalBonding {
			t.Fatalf("emotional_bonding offered at trust 0.1 (%s)", sc.ID)
		}
		if sc.ConsentLevel == ConsentExplicitNegotiated {
			t.Fatalf("negotiated scenario offered at trust 0.1 (%s)", sc.ID)
		}
	}
}

func TestSelectFallback(t *testing.T) {
	sel := testSelector(t, 1)
	ctx := UserContext{TrustLevel: 1.0}
	sc := sel.Select(ctx, CategoryRecovery, "no_such_mood")
	if sc.ID != "first_encounter" {
		t.Fatalf("empty filter should fall back to first_encounter, got %s", sc.ID)
	}
}

func TestSelectCategoryFilter(t *testing.T) {
	sel := testSelector(t, 3)
	ctx := UserContext{TrustLevel: 1.0, PreferredIntensity: 0.5}
	for i := 0; i < 100; i++ {
		sc := sel.Select(ctx, CategoryFlirtation, "")
		if sc.Category != CategoryFlirtation {
			t.Fatalf("category filter leaked: got %s", sc.Category)
		}
	}
}

func TestSelectDeterministicWithSeed(t *testing.T) {
	ctx := UserContext{TrustLevel: 0.8, PreferredIntensity: 0.5}
	a := testSelector(t, 99)
	b := testSelector(t, 99)
	for i := 0; i < 20; i++ {
		if x, y := a.Select(ctx, "", ""), b.Select(ctx, "", ""); x.ID != y.ID {
			t.Fatalf("same seed diverged at draw %d: %s vs %s", i, x.ID, y.ID)
		}
	}
}

func TestFavoriteWeighting(t *testing.T) {
	sel := testSelector(t, 12)
	base := UserContext{TrustLevel: 1.0, PreferredIntensity: 0.5}
	fav := base
	fav.FavoriteScenarios = []string{"midnight_flirtation"}

	count := func(ctx UserContext) int {
		n := 0
		for i := 0; i < 2000; i++ {
			if sel.Select(ctx, "", "").ID == "midnight_flirtation" {
				n++
			}
		}
		return n
	}
	if count(fav) <= count(base) {
		t.Fatal("favorite scenario not drawn more often")
	}
}

func TestBranchingOptions(t *testing.T) {
	sel := testSelector(t, 5)
	sc := sel.Get("first_encounter")
	opts := sel.BranchingOptions(sc)
	if len(opts) != 3 {
		t.Fatalf("expected 3 branch options, got %d", len(opts))
	}
	if opts[0].ID != "trust_path" || opts[0].Description != "Build connection through conversation" {
		t.Fatalf("unexpected first option: %+v", opts[0])
	}

	unknown := sel.BranchingOptions(Scenario{BranchingPoints: []string{"mystery_branch"}})
	if unknown[0].Description != "Continue the experience" {
		t.Fatalf("unknown branch needs generic description, got %q", unknown[0].Description)
	}
}

func TestGetUnknownScenario(t *testing.T) {
	sel := testSelector(t, 5)
	if sc := sel.Get("does_not_exist"); sc.ID != "first_encounter" {
		t.Fatalf("unknown id should fall back, got %s", sc.ID)
	}
}
