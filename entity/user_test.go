package entity

import (
	"reflect"
	"testing"
)

func TestNewUserContextDefaults(t *testing.T) {
	u := NewUserContext("u1")
	if u.Experience != Intermediate || u.RiskTolerance != RiskMedium || u.TradingStyle != Swing {
		t.Errorf("profile defaults: %+v", u)
	}
	if u.Preferences.DetailLevel != Detailed {
		t.Errorf("detail level: %s", u.Preferences.DetailLevel)
	}
	if !reflect.DeepEqual(u.Preferences.FocusAreas, []string{"technical_analysis", "risk_management"}) {
		t.Errorf("focus areas: %v", u.Preferences.FocusAreas)
	}
	if u.RecentAnalyses == nil || len(u.RecentAnalyses) != 0 {
		t.Errorf("recent analyses should be empty, not nil: %v", u.RecentAnalyses)
	}
}

func TestRecordAnalysis(t *testing.T) {
	u := NewUserContext("u1")
	for _, c := range []string{"a", "b", "c", "d", "e", "f"} {
		u.RecordAnalysis(c, 0)
	}
	if !reflect.DeepEqual(u.RecentAnalyses, []string{"f", "e", "d", "c", "b"}) {
		t.Fatalf("default cap: %v", u.RecentAnalyses)
	}

	u.RecordAnalysis("g", 2)
	if !reflect.DeepEqual(u.RecentAnalyses, []string{"g", "f"}) {
		t.Fatalf("cap 2: %v", u.RecentAnalyses)
	}
}

func TestApplyPreferences(t *testing.T) {
	u := NewUserContext("u1")
	brief := Brief
	if err := u.ApplyPreferences(PreferencesPatch{DetailLevel: &brief}); err != nil {
		t.Fatal(err)
	}
	if u.Preferences.DetailLevel != Brief || len(u.Preferences.FocusAreas) != 2 {
		t.Fatalf("partial update: %+v", u.Preferences)
	}

	if err := u.ApplyPreferences(PreferencesPatch{FocusAreas: []string{"options", "options", "sentiment"}}); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(u.Preferences.FocusAreas, []string{"options", "sentiment"}) {
		t.Fatalf("focus areas: %v", u.Preferences.FocusAreas)
	}

	bad := DetailLevel("verbose")
	if err := u.ApplyPreferences(PreferencesPatch{DetailLevel: &bad}); err == nil {
		t.Fatal("expected error for unknown detail level")
	}
	if u.Preferences.DetailLevel != Brief {
		t.Error("failed patch must not change detail level")
	}
}

func TestApplyProfile(t *testing.T) {
	u := NewUserContext("u1")
	beginner, style := Beginner, LongTerm
	if err := u.ApplyProfile(ProfilePatch{Experience: &beginner, TradingStyle: &style}); err != nil {
		t.Fatal(err)
	}
	if u.Experience != Beginner || u.TradingStyle != LongTerm || u.RiskTolerance != RiskMedium {
		t.Fatalf("got %+v", u)
	}

	bad := RiskTolerance("yolo")
	if err := u.ApplyProfile(ProfilePatch{RiskTolerance: &bad}); err == nil {
		t.Fatal("expected error for unknown risk tolerance")
	}
}

func TestCloneDoesNotShare(t *testing.T) {
	u := NewUserContext("u1")
	u.RecordAnalysis("a", 5)
	c := u.Clone()
	c.RecentAnalyses[0] = "z"
	c.Preferences.FocusAreas[0] = "z"
	if u.RecentAnalyses[0] != "a" || u.Preferences.FocusAreas[0] != "technical_analysis" {
		t.Fatal("clone shares backing arrays")
	}
}
