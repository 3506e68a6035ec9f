// Пакет i18n — локализация сообщений API.
// Поддерживаемые языки: English (en), עברית (he).
// Язык определяется middleware: cookie "lang" → Accept-Language → default "en".
package i18n

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/text/language"
)

// localeFS — встроенные JSON-каталоги переводов.
//
//go:embed locales/*.json
var localeFS embed.FS

// Языки по умолчанию и поддерживаемые.
const (
	DefaultLang = "en"
	langHebrew  = "he"
)

var (
	// SupportedLanguages — теги поддерживаемых языков, первый — по умолчанию.
	SupportedLanguages = []language.Tag{
		language.English,
		language.Hebrew,
	}

	matcher = language.NewMatcher(SupportedLanguages)
)

type contextKey string

const contextKeyLang contextKey = "i18n_lang"

// Bundle — каталоги переводов всех языков.
type Bundle struct {
	mu       sync.RWMutex
	catalogs map[string]map[string]string // lang → key → translation
	logger   *slog.Logger
}

// NewBundle создаёт пустой Bundle.
func NewBundle(logger *slog.Logger) *Bundle {
	return &Bundle{
		catalogs: make(map[string]map[string]string),
		logger:   logger,
	}
}

// Load создаёт Bundle и загружает встроенные каталоги en и he.
func Load(logger *slog.Logger) (*Bundle, error) {
	b := NewBundle(logger)
	for _, tag := range SupportedLanguages {
		lang := tag.String()
		path := fmt.Sprintf("locales/%s.json", lang)
		data, err := localeFS.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("i18n: не удалось прочитать %s: %w", path, err)
		}
		if err := b.LoadMessages(lang, data); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// LoadMessages загружает плоский JSON-каталог {"key": "translation"}.
func (b *Bundle) LoadMessages(lang string, data []byte) error {
	var messages map[string]string
	if err := json.Unmarshal(data, &messages); err != nil {
		return fmt.Errorf("i18n: ошибка парсинга каталога %s: %w", lang, err)
	}

	b.mu.Lock()
	b.catalogs[lang] = messages
	b.mu.Unlock()

	if b.logger != nil {
		b.logger.Debug("i18n каталог загружен",
			slog.String("lang", lang),
			slog.Int("keys", len(messages)),
		)
	}
	return nil
}

// Translate возвращает перевод по ключу. Нет в языке — английский, нет и там — ключ.
func (b *Bundle) Translate(lang, key string) string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if msg, ok := b.catalogs[lang][key]; ok {
		return msg
	}
	if msg, ok := b.catalogs[DefaultLang][key]; ok {
		return msg
	}
	return key
}

// T переводит ключ на язык из контекста с подстановкой аргументов.
func (b *Bundle) T(ctx context.Context, key string, args ...any) string {
	template := b.Translate(LangFromContext(ctx), key)
	if len(args) == 0 {
		return template
	}
	return formatFunc(template, args...)
}

// formatFunc — fmt.Sprintf через переменную: формат-строки приходят из каталогов,
// go vet их не проверяет.
var formatFunc = fmt.Sprintf

// WithLang помещает язык в контекст.
func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, contextKeyLang, lang)
}

// LangFromContext извлекает язык из контекста. Default: "en".
func LangFromContext(ctx context.Context) string {
	if lang, ok := ctx.Value(contextKeyLang).(string); ok && lang != "" {
		return lang
	}
	return DefaultLang
}

// MatchLanguage определяет язык по заголовку Accept-Language: "en" или "he".
func MatchLanguage(acceptLanguage string) string {
	_, idx := language.MatchStrings(matcher, acceptLanguage)
	return SupportedLanguages[idx].String()
}

// Supported возвращает true для "en" и "he".
func Supported(lang string) bool {
	return lang == DefaultLang || lang == langHebrew
}

// Dir возвращает направление письма языка.
func Dir(lang string) string {
	if lang == langHebrew {
		return "rtl"
	}
	return "ltr"
}
