// loader.go — каталоги, встроенные в бинарник.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"strings"
)

//go:embed locales/*.json
var localesFS embed.FS

// LoadFromEmbedFS загружает locales/<lang>.json для каждого поддерживаемого языка.
// Неизвестные файлы пропускаются; отсутствие каталога поддерживаемого языка — ошибка.
// Расхождение ключей с основным каталогом только логируется: T вернёт сообщение pt.
func LoadFromEmbedFS(bundle *Bundle, logger *slog.Logger) error {
	return loadFS(bundle, localesFS, logger)
}

func loadFS(bundle *Bundle, fsys fs.FS, logger *slog.Logger) error {
	files, err := fs.Glob(fsys, "locales/*.json")
	if err != nil {
		return fmt.Errorf("i18n: %w", err)
	}

	for _, file := range files {
		lang := strings.TrimSuffix(path.Base(file), ".json")
		if !IsSupported(lang) {
			logger.Warn("Каталог неподдерживаемого языка пропущен", slog.String("file", file))
			continue
		}

		data, err := fs.ReadFile(fsys, file)
		if err != nil {
			return fmt.Errorf("i18n: чтение %s: %w", file, err)
		}
		if err := bundle.LoadMessages(lang, data); err != nil {
			return err
		}
	}

	for _, lang := range supported {
		if !bundle.Loaded(lang) {
			return fmt.Errorf("i18n: нет каталога locales/%s.json", lang)
		}
		if missing := bundle.MissingKeys(lang); len(missing) > 0 {
			logger.Warn("В каталоге не хватает ключей",
				slog.String("lang", lang),
				slog.Any("keys", missing),
			)
		}
	}

	logger.Info("Каталоги сообщений загружены", slog.Any("languages", supported))
	return nil
}
