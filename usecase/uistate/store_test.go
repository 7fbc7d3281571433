package uistate

import (
	"errors"
	"testing"

	"github.com/fastygo/taskboard/domain"
)

type mapPrefs struct {
	values map[string]string
	err    error
}

func newMapPrefs() *mapPrefs {
	return &mapPrefs{values: make(map[string]string)}
}

func (p *mapPrefs) Get(key string) (string, error) {
	return p.values[key], nil
}

func (p *mapPrefs) Set(key, value string) error {
	if p.err != nil {
		return p.err
	}
	p.values[key] = value
	return nil
}

func TestDefaults(t *testing.T) {
	s := New(nil, nil)
	st := s.State()
	if !st.SidebarOpen || st.Theme != ThemeLight || st.Language != LanguageEnglish {
		t.Fatalf("defaults = %+v", st)
	}
	if st.Modal.Open || st.SelectedID != "" || st.DraggingID != "" || !st.Filter.IsZero() {
		t.Fatalf("defaults = %+v", st)
	}
}

func TestPreferencesPersist(t *testing.T) {
	prefs := newMapPrefs()
	s := New(prefs, nil)

	theme, err := s.ToggleTheme()
	if err != nil || theme != ThemeDark {
		t.Fatalf("toggle = %s, %v", theme, err)
	}
	lang, err := s.SetLanguage("fr-CA")
	if err != nil || lang != LanguageFrench {
		t.Fatalf("language = %s, %v", lang, err)
	}
	if prefs.values[PrefTheme] != "dark" || prefs.values[PrefLanguage] != "fr" {
		t.Fatalf("persisted = %v", prefs.values)
	}

	reloaded := New(prefs, nil).State()
	if reloaded.Theme != ThemeDark || reloaded.Language != LanguageFrench {
		t.Fatalf("reloaded = %+v", reloaded)
	}

	if err := s.SetTheme("sepia"); !domain.IsDomainError(err, domain.ErrCodeInvalid) {
		t.Fatalf("bad theme: %v", err)
	}

	prefs.err = errors.New("disk full")
	if err := s.SetTheme(ThemeLight); err == nil {
		t.Fatal("persist failure should be reported")
	}
	if s.State().Theme != ThemeLight {
		t.Fatal("theme should still change in memory")
	}
}

func TestIgnoresBadStoredPreferences(t *testing.T) {
	prefs := newMapPrefs()
	prefs.values[PrefTheme] = "neon"
	prefs.values[PrefLanguage] = "xx-invalid-tag-"
	st := New(prefs, nil).State()
	if st.Theme != ThemeLight || st.Language != LanguageEnglish {
		t.Fatalf("state = %+v", st)
	}
}

func TestMatchLanguage(t *testing.T) {
	cases := []struct {
		tag     string
		want    string
		wantErr bool
	}{
		{"", "en", false},
		{"en", "en", false},
		{"en-GB", "en", false},
		{"fr", "fr", false},
		{"fr-CA", "fr", false},
		{"not a tag!", "", true},
	}
	for _, tc := range cases {
		got, err := MatchLanguage(tc.tag)
		if (err != nil) != tc.wantErr || got != tc.want {
			t.Errorf("MatchLanguage(%q) = %q, %v", tc.tag, got, err)
		}
	}
}

func TestFilters(t *testing.T) {
	s := New(nil, nil)

	if err := s.TogglePriorityFilter(domain.PriorityHigh); err != nil {
		t.Fatal(err)
	}
	if err := s.TogglePriorityFilter(domain.PriorityLow); err != nil {
		t.Fatal(err)
	}
	if err := s.TogglePriorityFilter(domain.PriorityHigh); err != nil {
		t.Fatal(err)
	}
	if got := s.State().Filter.Priorities; len(got) != 1 || got[0] != domain.PriorityLow {
		t.Fatalf("priorities = %v", got)
	}

	if err := s.SetStatusFilter([]domain.Status{domain.StatusDone, domain.StatusDone}); err != nil {
		t.Fatal(err)
	}
	if got := s.State().Filter.Statuses; len(got) != 1 {
		t.Fatalf("statuses should be deduplicated: %v", got)
	}
	if err := s.ToggleStatusFilter("blocked"); !domain.IsDomainError(err, domain.ErrCodeInvalid) {
		t.Fatalf("bad status: %v", err)
	}
	if err := s.SetPriorityFilter([]domain.Priority{"urgent"}); !domain.IsDomainError(err, domain.ErrCodeInvalid) {
		t.Fatalf("bad priority: %v", err)
	}

	s.SetSearchQuery("homepage")
	st := s.State()
	st.Filter.Priorities[0] = domain.PriorityHigh
	if s.State().Filter.Priorities[0] != domain.PriorityLow {
		t.Fatal("State must return a copy of the filter")
	}
	if s.State().Filter.Query != "homepage" {
		t.Fatal("query not stored")
	}

	s.ClearFilters()
	if !s.State().Filter.IsZero() {
		t.Fatalf("filter = %+v", s.State().Filter)
	}
}

func TestModalAndSelection(t *testing.T) {
	s := New(nil, nil)

	s.OpenModal("", "")
	if m := s.State().Modal; !m.Open || m.EditingTaskID != "" || m.DefaultStatus != domain.StatusTodo {
		t.Fatalf("modal = %+v", m)
	}
	s.OpenModal("7", domain.StatusDone)
	if m := s.State().Modal; m.EditingTaskID != "7" || m.DefaultStatus != domain.StatusDone {
		t.Fatalf("modal = %+v", m)
	}
	s.CloseModal()
	if s.State().Modal.Open {
		t.Fatal("modal still open")
	}

	s.SelectTask("3")
	if s.State().SelectedID != "3" {
		t.Fatal("selection lost")
	}
	s.SelectTask("")
	if s.State().SelectedID != "" {
		t.Fatal("selection not cleared")
	}

	if open := s.ToggleSidebar(); open {
		t.Fatal("sidebar should close")
	}
	s.SetSidebarOpen(true)
	if !s.State().SidebarOpen {
		t.Fatal("sidebar should open")
	}
}

func TestDragAndDrop(t *testing.T) {
	s := New(nil, nil)

	if _, _, err := s.Drop(domain.StatusDone); !domain.IsDomainError(err, domain.ErrCodeInvalid) {
		t.Fatalf("drop without drag: %v", err)
	}

	s.StartDrag("5")
	if _, _, err := s.Drop("archived"); !domain.IsDomainError(err, domain.ErrCodeInvalid) {
		t.Fatalf("drop on unknown column: %v", err)
	}
	if s.State().DraggingID != "5" {
		t.Fatal("invalid drop should keep the drag")
	}

	id, status, err := s.Drop(domain.StatusInProgress)
	if err != nil || id != "5" || status != domain.StatusInProgress {
		t.Fatalf("drop = %s %s %v", id, status, err)
	}
	if s.State().DraggingID != "" {
		t.Fatal("drop should end the drag")
	}

	s.StartDrag("6")
	s.CancelDrag()
	if s.State().DraggingID != "" {
		t.Fatal("cancel should end the drag")
	}
}
