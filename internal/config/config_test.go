package config_test

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/catalog-sync/internal/config"
)

func TestNew(t *testing.T) {
	t.Run("Should parse source and image settings from env", func(t *testing.T) {
		t.Setenv("SOURCE_TOKEN", "tok")
		t.Setenv("SOURCE_BASE_ID", "app123")
		t.Setenv("SOURCE_TABLE", "Products")
		t.Setenv("IMAGES_RETRY_FAILED", "true")
		t.Setenv("LOG_FORMAT", "text")
		t.Setenv("LOG_LEVEL", "DEBUG")

		type Config struct {
			Log    config.Log
			Source config.Source
			Images config.Images
		}
		cfg, err := config.New[Config]()
		require.NoError(t, err)

		assert.Equal(t, "tok", cfg.Source.Token)
		assert.Equal(t, "https://api.airtable.com", cfg.Source.BaseURL)
		assert.Empty(t, cfg.Source.MissingFields())
		assert.True(t, cfg.Images.RetryFailed)
		assert.Equal(t, 20, cfg.Images.BatchLimit)
		assert.Equal(t, config.LogFormatText, cfg.Log.Format)
		assert.Equal(t, slog.LevelDebug, cfg.Log.Level)
	})

	t.Run("Should reject an unknown blob driver", func(t *testing.T) {
		t.Setenv("BLOB_DRIVER", "ftp")

		type Config struct {
			Blob config.Blob
		}
		_, err := config.New[Config]()
		assert.Error(t, err)
	})
}

func TestSource(t *testing.T) {
	t.Run("Should list every missing credential", func(t *testing.T) {
		missing := config.Source{BaseURL: "https://x"}.MissingFields()
		assert.Equal(t, []string{"SOURCE_TOKEN", "SOURCE_BASE_ID", "SOURCE_TABLE"}, missing)
	})

	t.Run("Should clamp page size", func(t *testing.T) {
		assert.Equal(t, 100, config.Source{PageSize: 500}.EffectivePageSize())
		assert.Equal(t, 100, config.Source{}.EffectivePageSize())
		assert.Equal(t, 25, config.Source{PageSize: 25}.EffectivePageSize())
	})
}
