package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"path"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"

	"github.com/fastygo/taskboard/domain"
)

//go:embed locales/*.json
var localeFiles embed.FS

// Translator renders CLI strings in one language, falling back to English.
type Translator struct {
	lang      string
	localizer *goi18n.Localizer
}

// NewBundle loads every embedded locale.
func NewBundle() (*goi18n.Bundle, error) {
	bundle := goi18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFiles.ReadDir("locales")
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		name := path.Join("locales", entry.Name())
		data, err := localeFiles.ReadFile(name)
		if err != nil {
			return nil, err
		}
		if _, err := bundle.ParseMessageFileBytes(data, name); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
	}
	return bundle, nil
}

// New returns a translator for lang ("en", "fr" or any tag they match).
func New(lang string) (*Translator, error) {
	bundle, err := NewBundle()
	if err != nil {
		return nil, err
	}
	if lang == "" {
		lang = "en"
	}
	return &Translator{
		lang:      lang,
		localizer: goi18n.NewLocalizer(bundle, lang, "en"),
	}, nil
}

func (t *Translator) Language() string {
	return t.lang
}

// T renders id with optional template data. Unknown ids come back unchanged.
func (t *Translator) T(id string, data ...map[string]interface{}) string {
	cfg := &goi18n.LocalizeConfig{MessageID: id}
	if len(data) > 0 {
		cfg.TemplateData = data[0]
	}
	out, err := t.localizer.Localize(cfg)
	if err != nil {
		return id
	}
	return out
}

// Count renders a pluralized message; the count is available as {{.Count}}.
func (t *Translator) Count(id string, n int) string {
	out, err := t.localizer.Localize(&goi18n.LocalizeConfig{
		MessageID:    id,
		PluralCount:  n,
		TemplateData: map[string]interface{}{"Count": n},
	})
	if err != nil {
		return fmt.Sprintf("%d %s", n, id)
	}
	return out
}

// Status returns the column label of s.
func (t *Translator) Status(s domain.Status) string {
	switch s {
	case domain.StatusTodo:
		return t.T("todo")
	case domain.StatusInProgress:
		return t.T("inProgress")
	case domain.StatusDone:
		return t.T("done")
	}
	return string(s)
}

func (t *Translator) Priority(p domain.Priority) string {
	switch p {
	case domain.PriorityLow, domain.PriorityMedium, domain.PriorityHigh:
		return t.T(string(p))
	}
	return string(p)
}
