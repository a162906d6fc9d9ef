package session

import (
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	"github.com/gtoxlili/echoChart/entity"
	"github.com/gtoxlili/echoChart/logger"
)

func TestGetCreatesDefaults(t *testing.T) {
	m := NewManager(5, logger.Nop())
	uc := m.Get("u1")
	if uc.UserID != "u1" || uc.Experience != entity.Intermediate || uc.Preferences.DetailLevel != entity.Detailed {
		t.Fatalf("unexpected defaults: %+v", uc)
	}

	// 修改副本不影响存储
	uc.RecentAnalyses = append(uc.RecentAnalyses, "x")
	if got := m.Get("u1"); len(got.RecentAnalyses) != 0 {
		t.Fatalf("stored context was mutated through a copy: %+v", got)
	}
}

func TestRecordAnalysisCapsMostRecentFirst(t *testing.T) {
	m := NewManager(3, logger.Nop())
	for _, c := range []string{"a", "b", "c", "d"} {
		m.RecordAnalysis("u1", c)
	}
	got := m.Get("u1").RecentAnalyses
	want := []string{"d", "c", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestUpdatePreferencesAndProfile(t *testing.T) {
	m := NewManager(5, logger.Nop())
	brief := entity.Brief
	uc, err := m.UpdatePreferences("u1", entity.PreferencesPatch{DetailLevel: &brief})
	if err != nil {
		t.Fatalf("UpdatePreferences: %v", err)
	}
	if uc.Preferences.DetailLevel != entity.Brief {
		t.Errorf("detail level not applied: %+v", uc.Preferences)
	}
	if len(uc.Preferences.FocusAreas) != 2 {
		t.Errorf("focus areas should be untouched, got %v", uc.Preferences.FocusAreas)
	}

	bad := entity.DetailLevel("verbose")
	if _, err := m.UpdatePreferences("u1", entity.PreferencesPatch{DetailLevel: &bad}); err == nil {
		t.Error("expected error for unknown detail level")
	}
	if got := m.Get("u1").Preferences.DetailLevel; got != entity.Brief {
		t.Errorf("failed update must not change state, got %s", got)
	}

	beginner := entity.Beginner
	uc, err = m.UpdateProfile("u1", entity.ProfilePatch{Experience: &beginner})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if uc.Experience != entity.Beginner {
		t.Errorf("experience not applied: %s", uc.Experience)
	}
}

func TestUpdateIsAllOrNothing(t *testing.T) {
	m := NewManager(5, logger.Nop())
	advanced := entity.Advanced
	bad := entity.DetailLevel("verbose")
	if _, err := m.Update("u1", entity.ProfilePatch{Experience: &advanced}, &entity.PreferencesPatch{DetailLevel: &bad}); err == nil {
		t.Fatal("expected error for unknown detail level")
	}
	if got := m.Get("u1"); got.Experience != entity.Intermediate {
		t.Fatalf("profile change leaked from a rejected update: %s", got.Experience)
	}

	brief := entity.Brief
	uc, err := m.Update("u1", entity.ProfilePatch{Experience: &advanced}, &entity.PreferencesPatch{DetailLevel: &brief})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if uc.Experience != entity.Advanced || uc.Preferences.DetailLevel != entity.Brief {
		t.Fatalf("update not applied: %+v", uc)
	}
	if uc, err = m.Update("u1", entity.ProfilePatch{}, nil); err != nil || uc.Experience != entity.Advanced {
		t.Fatalf("empty update: %+v, %v", uc, err)
	}
}

func TestNilLoggerFallsBackToNop(t *testing.T) {
	m := NewManager(0, nil)
	if uc := m.Get("u1"); uc.UserID != "u1" {
		t.Fatalf("unexpected context: %+v", uc)
	}
	if m.RecentCap() != entity.DefaultRecentCap {
		t.Fatalf("expected default cap, got %d", m.RecentCap())
	}
}

func TestSeedOnlyWhenEmpty(t *testing.T) {
	m := NewManager(2, logger.Nop())
	m.Seed("u1", []string{"x", "y", "z"})
	if got := m.Get("u1").RecentAnalyses; !reflect.DeepEqual(got, []string{"x", "y"}) {
		t.Fatalf("seed: got %v", got)
	}
	m.Seed("u1", []string{"other"})
	if got := m.Get("u1").RecentAnalyses; got[0] != "x" {
		t.Fatalf("seed should not override existing history: %v", got)
	}
}

func TestConcurrentRecord(t *testing.T) {
	m := NewManager(5, logger.Nop())
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.RecordAnalysis("u1", "chart_analysis")
			_ = m.Get("u1")
		}()
	}
	wg.Wait()
	if got := len(m.Get("u1").RecentAnalyses); got != 5 {
		t.Fatalf("expected 5 recent analyses, got %d", got)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	m := NewManager(5, logger.Nop())
	m.RecordAnalysis("u1", "risk_assessment")
	if err := m.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	restored := NewManager(5, logger.Nop())
	if err := restored.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := restored.Get("u1").RecentAnalyses; !reflect.DeepEqual(got, []string{"risk_assessment"}) {
		t.Fatalf("restored: got %v", got)
	}

	if err := NewManager(5, logger.Nop()).Load(filepath.Join(t.TempDir(), "missing.json")); err != nil {
		t.Fatalf("missing snapshot should not fail: %v", err)
	}
}
