package domain

import (
	"encoding/json"
	"slices"
	"testing"
	"time"
)

func TestNewUserProgress(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	p := NewUserProgress(now)

	if p.CurrentWeek != 1 || p.CurrentDay != 1 {
		t.Errorf("cursor = (%d, %d), want (1, 1)", p.CurrentWeek, p.CurrentDay)
	}
	if p.CompletedCount() != 0 {
		t.Errorf("CompletedCount() = %d, want 0", p.CompletedCount())
	}
	if !p.StartedAt.Equal(now) {
		t.Errorf("StartedAt = %v, want %v", p.StartedAt, now)
	}
}

func TestUserProgress_MarkCompleted(t *testing.T) {
	p := NewUserProgress(time.Now())
	c := &Challenge{ID: "w2d6", Week: 2, Day: 6}

	if !p.MarkCompleted(c) {
		t.Error("first MarkCompleted() should report a new completion")
	}
	if p.MarkCompleted(c) {
		t.Error("second MarkCompleted() should report no change")
	}
	if p.CompletedCount() != 1 {
		t.Errorf("CompletedCount() = %d, want 1", p.CompletedCount())
	}
	if p.CurrentWeek != 2 || p.CurrentDay != 6 {
		t.Errorf("cursor = (%d, %d), want (2, 6)", p.CurrentWeek, p.CurrentDay)
	}
}

func TestUserProgress_Normalize(t *testing.T) {
	now := time.Now()
	p := &UserProgress{CompletedChallenges: []string{"a", "b", "a", ""}}
	p.Normalize(now)

	if !slices.Equal(p.CompletedChallenges, []string{"a", "b"}) {
		t.Errorf("CompletedChallenges = %v, want [a b]", p.CompletedChallenges)
	}
	if p.CurrentWeek != 1 || p.CurrentDay != 1 {
		t.Errorf("cursor = (%d, %d), want (1, 1)", p.CurrentWeek, p.CurrentDay)
	}
	if !p.StartedAt.Equal(now) {
		t.Error("StartedAt should default to now")
	}
}

func TestUserProgress_Merge(t *testing.T) {
	early := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	late := early.Add(48 * time.Hour)

	p := &UserProgress{CompletedChallenges: []string{"a", "b"}, CurrentWeek: 1, CurrentDay: 2, StartedAt: late}
	p.Merge(&UserProgress{
		CompletedChallenges: []string{"b", "c"},
		CurrentWeek:         2,
		CurrentDay:          6,
		StartedAt:           early,
		Customization:       &Customization{AppName: "Lab"},
	})

	if !slices.Equal(p.CompletedChallenges, []string{"a", "b", "c"}) {
		t.Errorf("CompletedChallenges = %v, want [a b c]", p.CompletedChallenges)
	}
	if p.CurrentWeek != 1 || p.CurrentDay != 2 {
		t.Errorf("cursor = (%d, %d), want (1, 2)", p.CurrentWeek, p.CurrentDay)
	}
	if !p.StartedAt.Equal(early) {
		t.Errorf("StartedAt = %v, want %v", p.StartedAt, early)
	}
	if p.Customization == nil || p.Customization.AppName != "Lab" {
		t.Errorf("Customization = %+v", p.Customization)
	}

	p.Merge(&UserProgress{Customization: &Customization{AppName: "Other"}})
	if p.Customization.AppName != "Lab" {
		t.Errorf("existing customization replaced by %q", p.Customization.AppName)
	}
	p.Merge(nil)
}

func TestUserProgress_Clone(t *testing.T) {
	p := NewUserProgress(time.Now())
	p.CompletedChallenges = []string{"a"}
	p.Customization = &Customization{AppName: "Mine", PersonalBranding: &PersonalBranding{AuthorName: "Sam"}}

	clone := p.Clone()
	clone.CompletedChallenges[0] = "changed"
	clone.Customization.PersonalBranding.AuthorName = "Alex"

	if p.CompletedChallenges[0] != "a" {
		t.Error("Clone() shares completed slice")
	}
	if p.Customization.PersonalBranding.AuthorName != "Sam" {
		t.Error("Clone() shares personal branding")
	}
}

func TestUserProgress_JSONFieldNames(t *testing.T) {
	raw := `{"completedChallenges":["w1d1-typescript-basics"],"currentWeek":1,"currentDay":2,"startedAt":"2025-01-15T10:00:00.000Z","customization":{"appName":"My Lab","personalBranding":{"tagline":"hi"}}}`

	var p UserProgress
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("Unmarshal error = %v", err)
	}
	if !p.IsCompleted("w1d1-typescript-basics") || p.CurrentDay != 2 {
		t.Errorf("unexpected progress %+v", p)
	}
	if p.Customization == nil || p.Customization.AppName != "My Lab" || p.Customization.PersonalBranding.Tagline != "hi" {
		t.Errorf("customization not decoded: %+v", p.Customization)
	}
}

func TestVerdict_Headline(t *testing.T) {
	tests := []struct {
		verdict Verdict
		want    string
	}{
		{VerdictPass, "Challenge Complete!"},
		{VerdictFail, "Not Quite There"},
		{VerdictPartial, "Partial Solution"},
		{VerdictError, "Validation Error"},
	}
	for _, tt := range tests {
		if got := tt.verdict.Headline(); got != tt.want {
			t.Errorf("%s.Headline() = %q, want %q", tt.verdict, got, tt.want)
		}
	}
}
