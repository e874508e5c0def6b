package curriculum

import "testing"

func TestLoadTips_Embedded(t *testing.T) {
	tips, err := EmbeddedLoader().LoadTips()
	if err != nil {
		t.Fatalf("LoadTips() error = %v", err)
	}

	ai, realWorld := tips.Count()
	if ai != 56 {
		t.Errorf("ai tips = %d, want 56", ai)
	}
	if realWorld != 25 {
		t.Errorf("real world tips = %d, want 25", realWorld)
	}

	cats := tips.Categories()
	if len(cats) != 8 {
		t.Fatalf("categories = %d, want 8", len(cats))
	}
	if cats[0].Name != "prompting" || cats[7].Name != "mindset" {
		t.Errorf("unexpected category order: %s ... %s", cats[0].Name, cats[7].Name)
	}

	themes := tips.Themes()
	if len(themes) != 3 || themes[0].Name != "Ocean Blue" || themes[0].Colors.Primary != "#3b82f6" {
		t.Errorf("unexpected themes: %+v", themes)
	}
}

func TestTips_Random(t *testing.T) {
	tips := &Tips{
		aiTips:    []string{"a", "b", "c"},
		realWorld: nil,
		intn:      func(n int) int { return n - 1 },
	}

	if got := tips.RandomAITip(); got != "c" {
		t.Errorf("RandomAITip() = %q, want c", got)
	}
	if _, ok := tips.RandomRealWorldTip(); ok {
		t.Error("RandomRealWorldTip() should report no tips")
	}

	empty := &Tips{}
	if got := empty.RandomAITip(); got != "" {
		t.Errorf("RandomAITip() on empty = %q", got)
	}
}

func TestTips_Category(t *testing.T) {
	tips, err := EmbeddedLoader().LoadTips()
	if err != nil {
		t.Fatalf("LoadTips() error = %v", err)
	}

	debugging, ok := tips.Category("debugging")
	if !ok || len(debugging) != 7 {
		t.Errorf("Category(debugging) = %d tips, ok=%v", len(debugging), ok)
	}
	if _, ok := tips.Category("nope"); ok {
		t.Error("unknown category should not be found")
	}
}
