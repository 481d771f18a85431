// Package i18n holds readmind's user-facing strings in English and
// Simplified Chinese.
package i18n

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

// Supported language tags.
const (
	English = "en"
	Chinese = "zh"
)

// DefaultLang is used when no language is configured. The sample catalog
// is Chinese.
const DefaultLang = Chinese

var (
	bundleOnce sync.Once
	bundle     *i18n.Bundle
	bundleErr  error
)

func loadBundle() (*i18n.Bundle, error) {
	bundleOnce.Do(func() {
		b := i18n.NewBundle(language.English)
		b.RegisterUnmarshalFunc("json", json.Unmarshal)

		entries, err := localeFS.ReadDir("locales")
		if err != nil {
			bundleErr = fmt.Errorf("read locales dir: %w", err)
			return
		}
		for _, e := range entries {
			data, err := localeFS.ReadFile("locales/" + e.Name())
			if err != nil {
				bundleErr = fmt.Errorf("read locale file %s: %w", e.Name(), err)
				return
			}
			if _, err := b.ParseMessageFileBytes(data, e.Name()); err != nil {
				bundleErr = fmt.Errorf("parse locale file %s: %w", e.Name(), err)
				return
			}
		}
		bundle = b
	})
	return bundle, bundleErr
}

// Supported reports whether lang resolves to a bundled locale.
func Supported(lang string) bool {
	tag, err := language.Parse(lang)
	if err != nil {
		return false
	}
	base, _ := tag.Base()
	return base.String() == English || base.String() == Chinese
}

// Localizer translates message ids for one language.
type Localizer struct {
	lang string
	loc  *i18n.Localizer
}

// New returns a Localizer for lang, falling back to English for ids the
// language lacks. Unknown languages behave like English.
func New(lang string) *Localizer {
	b, err := loadBundle()
	if err != nil {
		// Embedded locales are part of the binary; this is a build defect.
		panic(err)
	}
	if !Supported(lang) {
		lang = English
	}
	return &Localizer{lang: lang, loc: i18n.NewLocalizer(b, lang, English)}
}

// Lang returns the language tag this localizer was built for.
func (l *Localizer) Lang() string {
	return l.lang
}

// T translates a message by id.
func (l *Localizer) T(msgID string) string {
	return l.localize(&i18n.LocalizeConfig{MessageID: msgID})
}

// Td translates a message by id with template data.
func (l *Localizer) Td(msgID string, data map[string]any) string {
	return l.localize(&i18n.LocalizeConfig{MessageID: msgID, TemplateData: data})
}

// Tp translates a pluralized message by id.
func (l *Localizer) Tp(msgID string, count int) string {
	return l.localize(&i18n.LocalizeConfig{
		MessageID:    msgID,
		PluralCount:  count,
		TemplateData: map[string]any{"Count": count},
	})
}

func (l *Localizer) localize(cfg *i18n.LocalizeConfig) string {
	s, err := l.loc.Localize(cfg)
	if err != nil {
		slog.Warn("missing translation", "id", cfg.MessageID, "lang", l.lang, "error", err)
		return cfg.MessageID
	}
	return s
}

type ctxKey struct{}

// WithLocalizer stores l in ctx.
func WithLocalizer(ctx context.Context, l *Localizer) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the localizer stored in ctx, or a DefaultLang one.
func FromContext(ctx context.Context) *Localizer {
	if l, ok := ctx.Value(ctxKey{}).(*Localizer); ok {
		return l
	}
	return New(DefaultLang)
}

// T translates msgID with the localizer carried by ctx.
func T(ctx context.Context, msgID string) string {
	return FromContext(ctx).T(msgID)
}

// Td translates msgID with template data using the localizer in ctx.
func Td(ctx context.Context, msgID string, data map[string]any) string {
	return FromContext(ctx).Td(msgID, data)
}

// Tp translates a pluralized msgID using the localizer in ctx.
func Tp(ctx context.Context, msgID string, count int) string {
	return FromContext(ctx).Tp(msgID, count)
}
