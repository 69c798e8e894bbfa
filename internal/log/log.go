package log

import (
	"io"
	"log/slog"
	"time"

	"github.com/lmittmann/tint"

	"github.com/tuanvumaihuynh/catalog-sync/internal/config"
)

// NewSlogLogger creates a slog logger writing to w and installs it as the default.
// One-shot commands pass os.Stderr so stdout stays reserved for their result.
func NewSlogLogger(cfg config.Log, w io.Writer) *slog.Logger {
	log := slog.New(newEnrichedHandler(newHandler(cfg, w)))
	slog.SetDefault(log)

	return log
}

func newHandler(cfg config.Log, w io.Writer) slog.Handler {
	if cfg.Format == config.LogFormatJSON {
		return slog.NewJSONHandler(w, cfg.HandlerOptions())
	}

	return tint.NewHandler(w, &tint.Options{
		Level:      cfg.Level,
		AddSource:  cfg.AddSource,
		TimeFormat: time.RFC3339,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Value.Kind() == slog.KindAny {
				if _, ok := a.Value.Any().(error); ok {
					return tint.Attr(9, a)
				}
			}
			return a
		},
	})
}
