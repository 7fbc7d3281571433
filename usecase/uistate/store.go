package uistate

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/usecase/projection"
)

// Preference keys, shared with the bbolt preference store.
const (
	PrefTheme    = "theme"
	PrefLanguage = "language"
)

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

func (t Theme) IsValid() bool {
	return t == ThemeLight || t == ThemeDark
}

const (
	LanguageEnglish = "en"
	LanguageFrench  = "fr"
)

var (
	supportedLanguages = []language.Tag{language.English, language.French}
	languageMatcher    = language.NewMatcher(supportedLanguages)
)

// PreferenceStore persists theme and language between sessions.
type PreferenceStore interface {
	Get(key string) (string, error)
	Set(key, value string) error
}

// Modal describes the task form.
type Modal struct {
	Open bool
	// EditingTaskID is empty when the form creates a task.
	EditingTaskID string
	DefaultStatus domain.Status
}

// State is a copy of the UI state.
type State struct {
	Filter      projection.Filter
	Modal       Modal
	SelectedID  string
	DraggingID  string
	SidebarOpen bool
	Theme       Theme
	Language    string
}

// Store holds presentation state that never reaches the collection.
type Store struct {
	prefs  PreferenceStore
	logger *zap.Logger

	mu    sync.Mutex
	state State
}

// New loads theme and language from prefs; prefs may be nil.
func New(prefs PreferenceStore, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		prefs:  prefs,
		logger: logger,
		state: State{
			SidebarOpen: true,
			Theme:       ThemeLight,
			Language:    LanguageEnglish,
		},
	}
	if prefs == nil {
		return s
	}
	if v, err := prefs.Get(PrefTheme); err != nil {
		logger.Warn("failed to load theme", zap.Error(err))
	} else if Theme(v).IsValid() {
		s.state.Theme = Theme(v)
	}
	if v, err := prefs.Get(PrefLanguage); err != nil {
		logger.Warn("failed to load language", zap.Error(err))
	} else if lang, err := MatchLanguage(v); err == nil && v != "" {
		s.state.Language = lang
	}
	return s
}

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.state
	out.Filter.Priorities = append([]domain.Priority(nil), s.state.Filter.Priorities...)
	out.Filter.Statuses = append([]domain.Status(nil), s.state.Filter.Statuses...)
	return out
}

// OpenModal opens the form. An empty editingID opens it for a new task in defaultStatus.
func (s *Store) OpenModal(editingID string, defaultStatus domain.Status) {
	if defaultStatus == "" {
		defaultStatus = domain.StatusTodo
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Modal = Modal{Open: true, EditingTaskID: editingID, DefaultStatus: defaultStatus}
}

func (s *Store) CloseModal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Modal = Modal{}
}

func (s *Store) SetPriorityFilter(priorities []domain.Priority) error {
	for _, p := range priorities {
		if !p.IsValid() {
			return domain.Invalidf("invalid priority %q", p)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Filter.Priorities = dedupe(priorities)
	return nil
}

// TogglePriorityFilter adds p to the filter or removes it when present.
func (s *Store) TogglePriorityFilter(p domain.Priority) error {
	if !p.IsValid() {
		return domain.Invalidf("invalid priority %q", p)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Filter.Priorities = toggle(s.state.Filter.Priorities, p)
	return nil
}

func (s *Store) SetStatusFilter(statuses []domain.Status) error {
	for _, st := range statuses {
		if !st.IsValid() {
			return domain.Invalidf("invalid status %q", st)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Filter.Statuses = dedupe(statuses)
	return nil
}

func (s *Store) ToggleStatusFilter(st domain.Status) error {
	if !st.IsValid() {
		return domain.Invalidf("invalid status %q", st)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Filter.Statuses = toggle(s.state.Filter.Statuses, st)
	return nil
}

func (s *Store) SetSearchQuery(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Filter.Query = query
}

func (s *Store) ClearFilters() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Filter = projection.Filter{}
}

// SelectTask marks id as the task shown in detail; "" clears the selection.
func (s *Store) SelectTask(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.SelectedID = id
}

func (s *Store) StartDrag(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.DraggingID = id
}

// Drop ends the drag over target and returns what the board cache should move.
func (s *Store) Drop(target domain.Status) (string, domain.Status, error) {
	if !target.IsValid() {
		return "", "", domain.Invalidf("invalid status %q", target)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.state.DraggingID
	if id == "" {
		return "", "", domain.Invalidf("no task is being dragged")
	}
	s.state.DraggingID = ""
	return id, target, nil
}

func (s *Store) CancelDrag() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.DraggingID = ""
}

func (s *Store) ToggleSidebar() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.SidebarOpen = !s.state.SidebarOpen
	return s.state.SidebarOpen
}

func (s *Store) SetSidebarOpen(open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.SidebarOpen = open
}

func (s *Store) ToggleTheme() (Theme, error) {
	s.mu.Lock()
	next := ThemeDark
	if s.state.Theme == ThemeDark {
		next = ThemeLight
	}
	s.mu.Unlock()
	return next, s.SetTheme(next)
}

// SetTheme switches the theme and persists it.
func (s *Store) SetTheme(theme Theme) error {
	if !theme.IsValid() {
		return domain.Invalidf("invalid theme %q", theme)
	}
	s.mu.Lock()
	s.state.Theme = theme
	s.mu.Unlock()
	return s.persist(PrefTheme, string(theme))
}

// SetLanguage accepts any BCP 47 tag that matches a supported language and
// persists the matched base language.
func (s *Store) SetLanguage(tag string) (string, error) {
	lang, err := MatchLanguage(tag)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.state.Language = lang
	s.mu.Unlock()
	return lang, s.persist(PrefLanguage, lang)
}

func (s *Store) persist(key, value string) error {
	if s.prefs == nil {
		return nil
	}
	if err := s.prefs.Set(key, value); err != nil {
		s.logger.Warn("failed to persist preference", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("persist %s: %w", key, err)
	}
	return nil
}

// MatchLanguage maps a tag such as "fr-CA" to a supported base language.
func MatchLanguage(tag string) (string, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return LanguageEnglish, nil
	}
	parsed, err := language.Parse(tag)
	if err != nil {
		return "", domain.Invalidf("invalid language %q", tag)
	}
	_, index, confidence := languageMatcher.Match(parsed)
	if confidence == language.No {
		return "", domain.Invalidf("unsupported language %q", tag)
	}
	base, _ := supportedLanguages[index].Base()
	return base.String(), nil
}

func toggle[T comparable](values []T, v T) []T {
	out := make([]T, 0, len(values)+1)
	found := false
	for _, existing := range values {
		if existing == v {
			found = true
			continue
		}
		out = append(out, existing)
	}
	if !found {
		out = append(out, v)
	}
	return out
}

func dedupe[T comparable](values []T) []T {
	seen := make(map[T]struct{}, len(values))
	out := make([]T, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
