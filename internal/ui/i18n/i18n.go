// Пакет i18n — каталоги сообщений портала (pt, en) и выбор языка запроса.
// Сообщения берутся по ключу через T(ctx, key) и Tf(ctx, key, args...);
// язык кладёт в контекст Middleware.
package i18n

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"golang.org/x/text/language"
)

// Коды поддерживаемых языков.
const (
	LangPT = "pt"
	LangEN = "en"
)

// baseLang — основной каталог: недостающие в других языках ключи берутся из него.
const baseLang = LangPT

// supported — коды в порядке тегов matcher.
var supported = []string{LangPT, LangEN}

var matcher = language.NewMatcher([]language.Tag{language.Portuguese, language.English})

// IsSupported сообщает, поддерживается ли код языка.
func IsSupported(lang string) bool {
	for _, l := range supported {
		if l == lang {
			return true
		}
	}
	return false
}

// Catalog — плоский каталог: ключ → сообщение (формат fmt для Tf).
type Catalog map[string]string

// Bundle — каталоги всех языков.
type Bundle struct {
	mu       sync.RWMutex
	catalogs map[string]Catalog
	logger   *slog.Logger
}

// NewBundle создаёт пустой Bundle. logger может быть nil.
func NewBundle(logger *slog.Logger) *Bundle {
	return &Bundle{
		catalogs: make(map[string]Catalog),
		logger:   logger,
	}
}

// LoadMessages разбирает JSON-объект {"key": "message"} и заменяет каталог языка.
func (b *Bundle) LoadMessages(lang string, data []byte) error {
	var catalog Catalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		return fmt.Errorf("i18n: каталог %s: %w", lang, err)
	}

	b.mu.Lock()
	b.catalogs[lang] = catalog
	b.mu.Unlock()

	if b.logger != nil {
		b.logger.Debug("Каталог сообщений загружен",
			slog.String("lang", lang),
			slog.Int("keys", len(catalog)),
		)
	}
	return nil
}

// Loaded сообщает, загружен ли каталог языка.
func (b *Bundle) Loaded(lang string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.catalogs[lang]
	return ok
}

// Translate: язык → основной каталог → сам ключ.
func (b *Bundle) Translate(lang, key string) string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, l := range [...]string{lang, baseLang} {
		if msg, ok := b.catalogs[l][key]; ok {
			return msg
		}
	}
	return key
}

// Translatef подставляет args в сообщение по правилам fmt.
func (b *Bundle) Translatef(lang, key string, args ...any) string {
	msg := b.Translate(lang, key)
	if len(args) == 0 {
		return msg
	}
	return fmt.Sprintf(msg, args...)
}

// MissingKeys — отсортированные ключи основного каталога, которых нет в lang.
func (b *Bundle) MissingKeys(lang string) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var missing []string
	target := b.catalogs[lang]
	for key := range b.catalogs[baseLang] {
		if _, ok := target[key]; !ok {
			missing = append(missing, key)
		}
	}
	sort.Strings(missing)
	return missing
}

// global — Bundle процесса; страницы обращаются к нему через T/Tf.
var global atomic.Pointer[Bundle]

// Init создаёт глобальный Bundle при первом вызове и возвращает его.
func Init(logger *slog.Logger) *Bundle {
	global.CompareAndSwap(nil, NewBundle(logger))
	return global.Load()
}

type langKey struct{}

// WithLang помещает язык в контекст.
func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, langKey{}, lang)
}

// LangFromContext возвращает язык запроса, по умолчанию pt.
func LangFromContext(ctx context.Context) string {
	if lang, ok := ctx.Value(langKey{}).(string); ok && lang != "" {
		return lang
	}
	return baseLang
}

// T — сообщение по ключу на языке запроса. Без Init возвращает ключ.
func T(ctx context.Context, key string) string {
	b := global.Load()
	if b == nil {
		return key
	}
	return b.Translate(LangFromContext(ctx), key)
}

// Tf — T с подстановкой аргументов.
func Tf(ctx context.Context, key string, args ...any) string {
	b := global.Load()
	if b == nil {
		return key
	}
	return b.Translatef(LangFromContext(ctx), key, args...)
}

// MatchLanguage выбирает поддерживаемый язык по заголовку Accept-Language.
// Без уверенного совпадения возвращает fallback.
func MatchLanguage(acceptLanguage, fallback string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return fallback
	}
	_, index, conf := matcher.Match(tags...)
	if conf == language.No {
		return fallback
	}
	return supported[index]
}
